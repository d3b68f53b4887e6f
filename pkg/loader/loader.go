// Package loader walks a classpath (a directory tree or a jmod/jar zip
// archive) and decodes every .class entry it finds against a shared
// classfile.Resolver, so cross-file forward references resolve the same
// way they would inside a single class file.
package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"classmeta/pkg/classfile"
)

// Stats accumulates observability counters across a loader's lifetime. It
// has no bearing on decode semantics.
type Stats struct {
	mu               sync.Mutex
	ClassesLoaded    int
	ForwardRefsSeen  int
	CacheHits        int
}

func (s *Stats) recordLoad() {
	s.mu.Lock()
	s.ClassesLoaded++
	s.mu.Unlock()
}

func (s *Stats) recordCacheHit() {
	s.mu.Lock()
	s.CacheHits++
	s.mu.Unlock()
}

// recordForwardRef notes a resolver lookup that missed every frame on the
// stack and was satisfied by the outer delegate from an already loaded class.
func (s *Stats) recordForwardRef() {
	s.mu.Lock()
	s.ForwardRefsSeen++
	s.mu.Unlock()
}

// ClassLoader loads a decoded TypeDefinition by internal (slash-separated)
// class name, mirroring the two-tier parent-delegation shape used by JVM
// class loaders.
type ClassLoader interface {
	LoadClass(internalName string) (*classfile.TypeDefinition, error)
}

// JmodLoader loads classes from a JDK jmod file (a zip archive with a
// 4-byte "JM\x01\x00" header prefix, entries rooted under "classes/").
type JmodLoader struct {
	JmodPath string
	Resolver *classfile.Resolver
	Stats    *Stats

	mu        sync.Mutex
	cache     map[string]*classfile.TypeDefinition
	zipData   []byte
	zipReader *zip.Reader
}

// NewJmodLoader creates a loader over jmodPath, resolving type references
// against resolver. Resolver may be shared with other loaders/readers so
// forward references across class boundaries resolve consistently.
func NewJmodLoader(jmodPath string, resolver *classfile.Resolver, stats *Stats) *JmodLoader {
	return &JmodLoader{
		JmodPath: jmodPath,
		Resolver: resolver,
		Stats:    stats,
		cache:    make(map[string]*classfile.TypeDefinition),
	}
}

func (l *JmodLoader) ensureZipReader() error {
	if l.zipReader != nil {
		return nil
	}

	f, err := os.Open(l.JmodPath)
	if err != nil {
		return fmt.Errorf("jmod: opening %s: %w", l.JmodPath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("jmod: stat %s: %w", l.JmodPath, err)
	}

	data := make([]byte, stat.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("jmod: reading %s: %w", l.JmodPath, err)
	}

	l.zipData = data[4:] // skip "JM\x01\x00" header
	l.zipReader, err = zip.NewReader(bytes.NewReader(l.zipData), int64(len(l.zipData)))
	if err != nil {
		return fmt.Errorf("jmod: opening zip: %w", err)
	}
	return nil
}

// LoadClass decodes internalName from the jmod, caching the result. The
// underlying ClassReader.Accept call is itself idempotent, but caching here
// additionally avoids re-opening the zip entry.
func (l *JmodLoader) LoadClass(internalName string) (*classfile.TypeDefinition, error) {
	l.mu.Lock()
	if td, ok := l.cache[internalName]; ok {
		l.mu.Unlock()
		if l.Stats != nil {
			l.Stats.recordCacheHit()
		}
		return td, nil
	}
	l.mu.Unlock()

	if err := l.ensureZipReader(); err != nil {
		return nil, err
	}

	target := "classes/" + internalName + ".class"
	for _, file := range l.zipReader.File {
		if file.Name != target {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("jmod: opening %s: %w", target, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("jmod: reading %s: %w", target, err)
		}

		td, err := decodeOne(data, l.Resolver)
		if err != nil {
			return nil, fmt.Errorf("jmod: decoding %s: %w", internalName, err)
		}

		l.mu.Lock()
		l.cache[internalName] = td
		l.mu.Unlock()
		if l.Stats != nil {
			l.Stats.recordLoad()
		}
		return td, nil
	}

	return nil, fmt.Errorf("jmod: class %s not found in %s", internalName, l.JmodPath)
}

// DirLoader loads classes from a directory tree laid out as a classpath
// root (internalName "a/b/C" maps to "<root>/a/b/C.class"), delegating to
// Parent first.
type DirLoader struct {
	Root     string
	Parent   ClassLoader
	Resolver *classfile.Resolver
	Stats    *Stats

	mu    sync.Mutex
	cache map[string]*classfile.TypeDefinition
}

// NewDirLoader creates a loader rooted at dir, consulting parent before
// reading from disk.
func NewDirLoader(dir string, parent ClassLoader, resolver *classfile.Resolver, stats *Stats) *DirLoader {
	return &DirLoader{
		Root:     dir,
		Parent:   parent,
		Resolver: resolver,
		Stats:    stats,
		cache:    make(map[string]*classfile.TypeDefinition),
	}
}

// LoadClass resolves internalName, first against Parent, then from Root.
func (l *DirLoader) LoadClass(internalName string) (*classfile.TypeDefinition, error) {
	l.mu.Lock()
	if td, ok := l.cache[internalName]; ok {
		l.mu.Unlock()
		if l.Stats != nil {
			l.Stats.recordCacheHit()
		}
		return td, nil
	}
	l.mu.Unlock()

	if l.Parent != nil {
		if td, err := l.Parent.LoadClass(internalName); err == nil {
			return td, nil
		}
	}

	path := filepath.Join(l.Root, filepath.FromSlash(internalName)+".class")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classpath: class %s not found: %w", internalName, err)
	}

	td, err := decodeOne(data, l.Resolver)
	if err != nil {
		return nil, fmt.Errorf("classpath: decoding %s: %w", internalName, err)
	}

	l.mu.Lock()
	l.cache[internalName] = td
	l.mu.Unlock()
	if l.Stats != nil {
		l.Stats.recordLoad()
	}
	return td, nil
}

// Walk decodes every .class file under root against a fresh Resolver and
// returns them keyed by internal name, along with the shared resolver
// itself so a caller can resolve cross-file type references the same way
// the decode did. Entries are loaded eagerly but resolver lookups between
// them are lazy: whichever order Walk visits files in, a forward reference
// from an earlier file to a later one resolves once the later file is
// loaded into the shared resolver's outer delegate — see SetOuter below.
func Walk(root string, stats *Stats) (map[string]*classfile.TypeDefinition, *classfile.Resolver, error) {
	resolver := classfile.NewResolver()
	loaded := make(map[string]*classfile.TypeDefinition)
	var mu sync.Mutex

	resolver.SetOuter(func(internalName string) (classfile.TypeReference, bool) {
		mu.Lock()
		defer mu.Unlock()
		td, ok := loaded[internalName]
		if ok && stats != nil {
			stats.recordForwardRef()
		}
		return td, ok
	})

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("classpath: relativizing %s: %w", path, err)
		}
		internalName := strings.TrimSuffix(filepath.ToSlash(rel), ".class")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("classpath: reading %s: %w", path, err)
		}
		td, err := decodeOne(data, resolver)
		if err != nil {
			return fmt.Errorf("classpath: decoding %s: %w", internalName, err)
		}

		mu.Lock()
		loaded[internalName] = td
		mu.Unlock()
		if stats != nil {
			stats.recordLoad()
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return loaded, resolver, nil
}

// decodeOne runs the full two-phase ClassReader lifecycle for a single
// in-memory class file and returns its populated TypeDefinition.
func decodeOne(data []byte, resolver *classfile.Resolver) (*classfile.TypeDefinition, error) {
	cr, err := classfile.NewClassReader(resolver, classfile.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	typeDef := &classfile.TypeDefinition{}
	visitor := classfile.ClassVisitorFunc(func(td *classfile.TypeDefinition, major, minor, access uint16, name string, signature, superName *string, ifaces []string) error {
		return nil
	})
	if err := cr.Accept(typeDef, visitor); err != nil {
		return nil, err
	}
	return typeDef, nil
}
