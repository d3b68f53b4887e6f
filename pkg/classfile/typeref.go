package classfile

// TypeReference is the polymorphic type descriptor produced by the
// descriptor/signature parser and consumed by the resolver. Equality is
// structural on internal name plus arguments, not pointer identity, except
// for the self-reference case documented on ClassType.
type TypeReference interface {
	isTypeReference()
}

// PrimitiveType is one of the JVM's base types (B C D F I J S Z) or the
// pseudo-type V (void), legal only as a method return.
type PrimitiveType struct{ Kind byte }

func (*PrimitiveType) isTypeReference() {}

var (
	Byte    = &PrimitiveType{Kind: 'B'}
	Char    = &PrimitiveType{Kind: 'C'}
	Double  = &PrimitiveType{Kind: 'D'}
	Float   = &PrimitiveType{Kind: 'F'}
	Int     = &PrimitiveType{Kind: 'I'}
	Long    = &PrimitiveType{Kind: 'J'}
	Short   = &PrimitiveType{Kind: 'S'}
	Boolean = &PrimitiveType{Kind: 'Z'}
	Void    = &PrimitiveType{Kind: 'V'}
)

// ClassType names a class by its internal (slash-separated) name. Resolution
// is filled in lazily by a resolver: it is nil until something asks to
// resolve it, and is object-identical to the enclosing TypeDefinition when
// the name is a self-reference (spec invariant: self-reference hand-back).
type ClassType struct {
	InternalName string
	Resolution   TypeReference
}

func (*ClassType) isTypeReference() {}

// ArrayType is a single array dimension; nested arrays chain Element.
type ArrayType struct{ Element TypeReference }

func (*ArrayType) isTypeReference() {}

// ParameterizedType is a generic class type applied to type arguments, e.g.
// Map<String, Number>.
type ParameterizedType struct {
	Raw  TypeReference
	Args []TypeReference
}

func (*ParameterizedType) isTypeReference() {}

// WildcardKind distinguishes the three generic wildcard forms.
type WildcardKind int

const (
	WildcardUnbounded WildcardKind = iota
	WildcardExtends
	WildcardSuper
)

// WildcardType is a type argument of the form `?`, `? extends T`, or
// `? super T`.
type WildcardType struct {
	Kind  WildcardKind
	Bound TypeReference // nil when Kind == WildcardUnbounded
}

func (*WildcardType) isTypeReference() {}

// GenericParameter is a named, scoped type-variable declaration: the formal
// type parameter of a class or method, with its bounds.
type GenericParameter struct {
	Name           string
	Bounds         []TypeReference
	DeclaringScope string
}

func (*GenericParameter) isTypeReference() {}

// CapturedType represents a wildcard captured at a particular bound, used by
// callers that need to materialize a concrete stand-in for `? extends T`.
type CapturedType struct {
	Wildcard *WildcardType
	Bound    TypeReference
}

func (*CapturedType) isTypeReference() {}

// TypeReferenceEqual is structural equality on internal name plus arguments.
func TypeReferenceEqual(a, b TypeReference) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case *PrimitiveType:
		bv, ok := b.(*PrimitiveType)
		return ok && av.Kind == bv.Kind
	case *ClassType:
		bv, ok := b.(*ClassType)
		return ok && av.InternalName == bv.InternalName
	case *ArrayType:
		bv, ok := b.(*ArrayType)
		return ok && TypeReferenceEqual(av.Element, bv.Element)
	case *ParameterizedType:
		bv, ok := b.(*ParameterizedType)
		if !ok || !TypeReferenceEqual(av.Raw, bv.Raw) || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !TypeReferenceEqual(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *WildcardType:
		bv, ok := b.(*WildcardType)
		return ok && av.Kind == bv.Kind && TypeReferenceEqual(av.Bound, bv.Bound)
	case *GenericParameter:
		bv, ok := b.(*GenericParameter)
		return ok && av.Name == bv.Name && av.DeclaringScope == bv.DeclaringScope
	case *CapturedType:
		bv, ok := b.(*CapturedType)
		return ok && TypeReferenceEqual(av.Bound, bv.Bound)
	default:
		return false
	}
}

// IMethodSignature is a parsed generic method signature: formal type
// parameters scope over parameter types, return type, and thrown types.
type IMethodSignature struct {
	FormalTypeParameters []*GenericParameter
	ParameterTypes       []TypeReference
	ReturnType           TypeReference
	ThrownTypes          []TypeReference
}

// ClassSignature is a parsed generic class signature.
type ClassSignature struct {
	FormalTypeParameters []*GenericParameter
	Superclass           TypeReference
	Superinterfaces      []TypeReference
}
