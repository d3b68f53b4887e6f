package loader

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"classmeta/pkg/classfile"
)

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// minimalClassBytes builds a class named thisNameUtf8 with no members,
// i.e. scenario S2's skeleton, with this_class set to thisClassIdx.
func minimalClassBytes(thisNameUtf8 string, thisClassIdx uint16) []byte {
	var pool []byte
	pool = append(pool, classfile.TagUtf8, byte(len(thisNameUtf8)>>8), byte(len(thisNameUtf8)))
	pool = append(pool, thisNameUtf8...)
	pool = append(pool, classfile.TagClass, 0, 1)

	var out []byte
	out = append(out, u32(0xCAFEBABE)...)
	out = append(out, u16(0)...)  // minor
	out = append(out, u16(52)...) // major
	out = append(out, u16(3)...)  // pool count
	out = append(out, pool...)
	out = append(out, u16(0x0021)...) // access
	out = append(out, u16(thisClassIdx)...)
	out = append(out, u16(0)...) // super
	out = append(out, u16(0)...) // interfaces count
	out = append(out, u16(0)...) // fields count
	out = append(out, u16(0)...) // methods count
	out = append(out, u16(0)...) // class attrs count
	return out
}

func utf8Entry(s string) []byte {
	out := []byte{classfile.TagUtf8, byte(len(s) >> 8), byte(len(s))}
	return append(out, s...)
}

// classBytesReferencingType builds a class named thisName with a single
// method "make" whose descriptor and Signature attribute both return
// targetName, so decoding thisName parses a ClassType naming targetName.
func classBytesReferencingType(thisName, targetName string) []byte {
	descriptor := "()L" + targetName + ";"

	var pool []byte
	pool = append(pool, utf8Entry(thisName)...)   // 1
	pool = append(pool, classfile.TagClass, 0, 1) // 2 -> thisName
	pool = append(pool, utf8Entry("make")...)     // 3
	pool = append(pool, utf8Entry(descriptor)...)  // 4
	pool = append(pool, utf8Entry("Signature")...) // 5
	pool = append(pool, utf8Entry(descriptor)...)  // 6 (signature value)

	var method []byte
	method = append(method, u16(0x0001)...) // access_flags
	method = append(method, u16(3)...)      // name_index -> "make"
	method = append(method, u16(4)...)      // descriptor_index
	method = append(method, u16(1)...)      // attributes_count
	method = append(method, u16(5)...)      // attribute_name_index -> "Signature"
	method = append(method, u32(2)...)      // attribute_length
	method = append(method, u16(6)...)      // signature utf8 index

	var out []byte
	out = append(out, u32(0xCAFEBABE)...)
	out = append(out, u16(0)...)  // minor
	out = append(out, u16(52)...) // major
	out = append(out, u16(7)...)  // pool count
	out = append(out, pool...)
	out = append(out, u16(0x0021)...) // access
	out = append(out, u16(2)...)      // this_class
	out = append(out, u16(0)...)      // super_class
	out = append(out, u16(0)...)      // interfaces count
	out = append(out, u16(0)...)      // fields count
	out = append(out, u16(1)...)      // methods count
	out = append(out, method...)
	out = append(out, u16(0)...) // class attrs count
	return out
}

func TestDirLoaderLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	data := minimalClassBytes("pkg/Foo", 2)
	if err := os.WriteFile(filepath.Join(dir, "Foo.class"), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resolver := classfile.NewResolver()
	stats := &Stats{}
	dl := NewDirLoader(dir, nil, resolver, stats)

	td, err := dl.LoadClass("Foo")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if td.SimpleName != "Foo" {
		t.Fatalf("SimpleName = %q, want Foo", td.SimpleName)
	}
	if stats.ClassesLoaded != 1 {
		t.Fatalf("ClassesLoaded = %d, want 1", stats.ClassesLoaded)
	}

	if _, err := dl.LoadClass("Foo"); err != nil {
		t.Fatalf("second LoadClass: %v", err)
	}
	if stats.CacheHits != 1 {
		t.Fatalf("CacheHits = %d, want 1", stats.CacheHits)
	}
}

func TestDirLoaderDelegatesToParent(t *testing.T) {
	parentDir := t.TempDir()
	childDir := t.TempDir()
	data := minimalClassBytes("Base", 2)
	if err := os.WriteFile(filepath.Join(parentDir, "Base.class"), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resolver := classfile.NewResolver()
	parent := NewDirLoader(parentDir, nil, resolver, nil)
	child := NewDirLoader(childDir, parent, resolver, nil)

	if _, err := child.LoadClass("Base"); err != nil {
		t.Fatalf("expected delegation to parent to succeed: %v", err)
	}
}

func TestJmodLoaderReadsZipEntry(t *testing.T) {
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	w, err := zw.Create("classes/Foo.class")
	if err != nil {
		t.Fatalf("zip.Create: %v", err)
	}
	if _, err := w.Write(minimalClassBytes("Foo", 2)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip.Close: %v", err)
	}

	jmodData := append([]byte("JM\x01\x00"), zipBuf.Bytes()...)
	dir := t.TempDir()
	jmodPath := filepath.Join(dir, "test.jmod")
	if err := os.WriteFile(jmodPath, jmodData, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resolver := classfile.NewResolver()
	jl := NewJmodLoader(jmodPath, resolver, nil)
	td, err := jl.LoadClass("Foo")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if td.SimpleName != "Foo" {
		t.Fatalf("SimpleName = %q, want Foo", td.SimpleName)
	}
}

// TestWalkResolvesForwardReferenceAcrossFiles builds B with a method whose
// return type names A, then checks that resolving that ClassType against
// the shared resolver Walk used hands back the object-identical
// TypeDefinition Walk produced for A — the cross-file analogue of
// TestSelfReferenceScenarioS5 in the classfile package.
func TestWalkResolvesForwardReferenceAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "A.class"), minimalClassBytes("A", 2), 0o644); err != nil {
		t.Fatalf("WriteFile A: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "B.class"), classBytesReferencingType("B", "A"), 0o644); err != nil {
		t.Fatalf("WriteFile B: %v", err)
	}

	stats := &Stats{}
	classes, resolver, err := Walk(dir, stats)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(classes))
	}
	a, ok := classes["A"]
	if !ok {
		t.Fatal("missing A")
	}
	b, ok := classes["B"]
	if !ok {
		t.Fatal("missing B")
	}

	if len(b.Methods) != 1 || b.Methods[0].Signature == nil {
		t.Fatalf("expected B to have one method with an attached signature, got %#v", b.Methods)
	}
	ret, ok := b.Methods[0].Signature.ReturnType.(*classfile.ClassType)
	if !ok || ret.InternalName != "A" {
		t.Fatalf("B.make return type = %#v, want ClassType(A)", b.Methods[0].Signature.ReturnType)
	}

	resolved, ok := classfile.ResolveClassType(ret, resolver)
	if !ok {
		t.Fatal("resolver could not resolve B's reference to A")
	}
	if resolved != classfile.TypeReference(a) {
		t.Fatal("resolved reference to A is not the object-identical TypeDefinition Walk produced for A")
	}
	if stats.ForwardRefsSeen != 1 {
		t.Fatalf("ForwardRefsSeen = %d, want 1 (A resolved via the outer delegate)", stats.ForwardRefsSeen)
	}
}
