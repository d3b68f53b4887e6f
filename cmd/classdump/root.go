package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"classmeta/pkg/classfile"
	"classmeta/pkg/loader"
)

var classpathFlag string

var rootCmd = &cobra.Command{
	Use:   "classdump <classfile>",
	Short: "Decode a JVM class file and print its resolved type metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.Flags().StringVar(&classpathFlag, "classpath", "", "directory to resolve cross-file type references against (defaults to the target file's directory)")
}

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	classpath := classpathFlag
	if classpath == "" {
		classpath = filepath.Dir(path)
	}

	stats := &loader.Stats{}
	resolver := classfile.NewResolver()
	dl := loader.NewDirLoader(classpath, nil, resolver, stats)

	cr, err := classfile.NewClassReader(resolver, classfile.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	typeDef := &classfile.TypeDefinition{}
	err = cr.Accept(typeDef, classfile.ClassVisitorFunc(func(td *classfile.TypeDefinition, major, minor, access uint16, internalName string, signature, superName *string, ifaces []string) error {
		return nil
	}))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	renderTypeDefinition(os.Stdout, typeDef)

	if superName := typeDef.SuperName; superName != "" {
		if _, err := dl.LoadClass(superName); err != nil {
			fmt.Fprintln(os.Stderr, mutedStyle.Render(fmt.Sprintf("note: superclass %s not resolvable on classpath %s: %v", superName, classpath, err)))
		}
	}

	return nil
}

func qualifiedName(td *classfile.TypeDefinition) string {
	if td.Package == "" {
		return td.SimpleName
	}
	return td.Package + "." + td.SimpleName
}

func renderTypeDefinition(w *os.File, td *classfile.TypeDefinition) {
	fmt.Fprintln(w, titleStyle.Render(qualifiedName(td)))
	fmt.Fprintf(w, "%s  major=%d minor=%d\n", formatClassAccessFlags(td.AccessFlags), td.MajorVersion, td.MinorVersion)
	if td.SuperName != "" {
		fmt.Fprintf(w, "  extends %s\n", td.SuperName)
	}
	if len(td.InterfaceNames) > 0 {
		fmt.Fprintf(w, "  implements %s\n", strings.Join(td.InterfaceNames, ", "))
	}

	if len(td.Fields) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("fields"))
		for _, f := range td.Fields {
			pretty, err := classfile.ParseFieldDescriptor(f.Descriptor)
			rendered := f.Descriptor
			if err == nil {
				rendered = classfile.PrettyPrintDescriptor(pretty)
			}
			fmt.Fprintf(w, "  %s %s %s\n", fieldStyle.Render(formatFieldAccessFlags(f.AccessFlags)), rendered, f.Name)
		}
	}

	if len(td.Methods) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("methods"))
		for _, m := range td.Methods {
			params, ret, err := classfile.ParseMethodDescriptor(m.Descriptor)
			rendered := m.Descriptor
			if err == nil {
				rendered = classfile.PrettyPrintMethodDescriptor(params, ret)
			}
			fmt.Fprintf(w, "  %s %s %s\n", methodStyle.Render(formatMethodAccessFlags(m.AccessFlags)), m.Name, rendered)
		}
	}
}

const (
	accPublic       = 0x0001
	accPrivate      = 0x0002
	accProtected    = 0x0004
	accStatic       = 0x0008
	accFinal        = 0x0010
	accSuper        = 0x0020
	accSynchronized = 0x0020
	accVolatile     = 0x0040
	accBridge       = 0x0040
	accTransient    = 0x0080
	accVarargs      = 0x0080
	accNative       = 0x0100
	accInterface    = 0x0200
	accAbstract     = 0x0400
	accStrict       = 0x0800
	accSynthetic    = 0x1000
	accAnnotation   = 0x2000
	accEnum         = 0x4000
)

func formatClassAccessFlags(flags uint16) string {
	var names []string
	if flags&accPublic != 0 {
		names = append(names, "public")
	}
	if flags&accFinal != 0 {
		names = append(names, "final")
	}
	if flags&accInterface != 0 {
		names = append(names, "interface")
	}
	if flags&accAbstract != 0 {
		names = append(names, "abstract")
	}
	if flags&accAnnotation != 0 {
		names = append(names, "annotation")
	}
	if flags&accEnum != 0 {
		names = append(names, "enum")
	}
	if flags&accSynthetic != 0 {
		names = append(names, "synthetic")
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, " ")
}

func formatFieldAccessFlags(flags uint16) string {
	var names []string
	if flags&accPublic != 0 {
		names = append(names, "public")
	}
	if flags&accPrivate != 0 {
		names = append(names, "private")
	}
	if flags&accProtected != 0 {
		names = append(names, "protected")
	}
	if flags&accStatic != 0 {
		names = append(names, "static")
	}
	if flags&accFinal != 0 {
		names = append(names, "final")
	}
	if flags&accVolatile != 0 {
		names = append(names, "volatile")
	}
	if flags&accTransient != 0 {
		names = append(names, "transient")
	}
	if len(names) == 0 {
		return "(default)"
	}
	return strings.Join(names, " ")
}

func formatMethodAccessFlags(flags uint16) string {
	var names []string
	if flags&accPublic != 0 {
		names = append(names, "public")
	}
	if flags&accPrivate != 0 {
		names = append(names, "private")
	}
	if flags&accProtected != 0 {
		names = append(names, "protected")
	}
	if flags&accStatic != 0 {
		names = append(names, "static")
	}
	if flags&accFinal != 0 {
		names = append(names, "final")
	}
	if flags&accSynchronized != 0 {
		names = append(names, "synchronized")
	}
	if flags&accNative != 0 {
		names = append(names, "native")
	}
	if flags&accAbstract != 0 {
		names = append(names, "abstract")
	}
	if len(names) == 0 {
		return "(default)"
	}
	return strings.Join(names, " ")
}
