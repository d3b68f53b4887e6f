package classfile

// FieldInfoRaw is a decoded field_info structure.
type FieldInfoRaw struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []SourceAttribute
}

// MethodInfoRaw is a decoded method_info structure. Code caches the Code
// attribute, if present, as an opaque blob (bytecode decoding is out of
// scope). Signature is attached when the method carries a Signature
// attribute — spec.md's Open Question resolves in favor of always keeping
// the parsed result rather than discarding it.
type MethodInfoRaw struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []SourceAttribute
	Code        *BlobAttribute
	Signature   *IMethodSignature
}

// TypeDefinition is the output of a class-file decode: a resolved,
// navigable view of one class. It is created once per class file and
// mutated only during Accept.
type TypeDefinition struct {
	Package              string
	SimpleName           string
	MajorVersion         uint16
	MinorVersion         uint16
	AccessFlags          uint16
	SuperName            string
	InterfaceNames       []string
	Fields               []FieldInfoRaw
	Methods              []MethodInfoRaw
	Attributes           []SourceAttribute
	FormalTypeParameters []*GenericParameter
}

func (t *TypeDefinition) isTypeReference() {}

// ClassVisitor is the capability a caller implements to receive a decoded
// class. ClassReader.Accept invokes Visit once per Accept call.
type ClassVisitor interface {
	Visit(typeDef *TypeDefinition, major, minor, accessFlags uint16, internalName string, signature, superName *string, interfaceNames []string) error
}

// ClassVisitorFunc adapts a function to ClassVisitor.
type ClassVisitorFunc func(typeDef *TypeDefinition, major, minor, accessFlags uint16, internalName string, signature, superName *string, interfaceNames []string) error

func (f ClassVisitorFunc) Visit(typeDef *TypeDefinition, major, minor, accessFlags uint16, internalName string, signature, superName *string, interfaceNames []string) error {
	return f(typeDef, major, minor, accessFlags, internalName, signature, superName, interfaceNames)
}
