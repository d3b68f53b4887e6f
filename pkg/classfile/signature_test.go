package classfile

import "testing"

// S4: signature "Ljava/util/Map<Ljava/lang/String;+Ljava/lang/Number;>;"
// yields ParameterizedType(Map, [String, Wildcard(extends Number)]).
func TestParseClassSignatureScenarioS4(t *testing.T) {
	r := NewResolver()
	sig, err := ParseClassSignature("Ljava/util/Map<Ljava/lang/String;+Ljava/lang/Number;>;", r, "Holder")
	if err != nil {
		t.Fatalf("ParseClassSignature: %v", err)
	}
	pt, ok := sig.Superclass.(*ParameterizedType)
	if !ok {
		t.Fatalf("Superclass = %#v, want *ParameterizedType", sig.Superclass)
	}
	raw, ok := pt.Raw.(*ClassType)
	if !ok || raw.InternalName != "java/util/Map" {
		t.Fatalf("Raw = %#v, want ClassType(java/util/Map)", pt.Raw)
	}
	if len(pt.Args) != 2 {
		t.Fatalf("got %d type args, want 2", len(pt.Args))
	}
	str, ok := pt.Args[0].(*ClassType)
	if !ok || str.InternalName != "java/lang/String" {
		t.Fatalf("Args[0] = %#v, want ClassType(java/lang/String)", pt.Args[0])
	}
	wc, ok := pt.Args[1].(*WildcardType)
	if !ok || wc.Kind != WildcardExtends {
		t.Fatalf("Args[1] = %#v, want WildcardType(extends)", pt.Args[1])
	}
	bound, ok := wc.Bound.(*ClassType)
	if !ok || bound.InternalName != "java/lang/Number" {
		t.Fatalf("wildcard bound = %#v, want ClassType(java/lang/Number)", wc.Bound)
	}
	if r.Depth() != 0 {
		t.Fatalf("resolver depth = %d after parse, want 0 (balanced)", r.Depth())
	}
}

func TestParseMethodSignatureFormalTypeParameters(t *testing.T) {
	r := NewResolver()
	// <T:Ljava/lang/Object;>(TT;)TT;
	sig, err := ParseMethodSignature("<T:Ljava/lang/Object;>(TT;)TT;", r, "Box.identity")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	if len(sig.FormalTypeParameters) != 1 || sig.FormalTypeParameters[0].Name != "T" {
		t.Fatalf("FormalTypeParameters = %#v", sig.FormalTypeParameters)
	}
	if len(sig.ParameterTypes) != 1 {
		t.Fatalf("got %d params, want 1", len(sig.ParameterTypes))
	}
	pt, ok := sig.ParameterTypes[0].(*GenericParameter)
	if !ok || pt.Name != "T" {
		t.Fatalf("ParameterTypes[0] = %#v, want GenericParameter(T)", sig.ParameterTypes[0])
	}
	ret, ok := sig.ReturnType.(*GenericParameter)
	if !ok || ret.Name != "T" {
		t.Fatalf("ReturnType = %#v, want GenericParameter(T)", sig.ReturnType)
	}
	if pt != ret {
		t.Fatal("parameter and return type variable must be the same object")
	}
	if r.Depth() != 0 {
		t.Fatalf("resolver depth = %d after parse, want 0", r.Depth())
	}
}

func TestUnresolvedTypeVariableFails(t *testing.T) {
	r := NewResolver()
	// No enclosing <T:...> scope declares T.
	if _, err := ParseMethodSignature("(TT;)V", r, "Orphan.m"); err == nil {
		t.Fatal("expected UnresolvedTypeVariable")
	} else if e := err.(*Error); e.Kind != UnresolvedTypeVariable {
		t.Fatalf("got %v, want UnresolvedTypeVariable", e.Kind)
	}
	if r.Depth() != 0 {
		t.Fatalf("resolver depth = %d after failed parse, want 0 (balanced even on error)", r.Depth())
	}
}

func TestFBoundedTypeParameterResolvesSelf(t *testing.T) {
	r := NewResolver()
	// <T:Ljava/lang/Object;:Ljava/lang/Comparable<TT;>;>Ljava/lang/Object;
	sig, err := ParseClassSignature("<T:Ljava/lang/Object;:Ljava/lang/Comparable<TT;>;>Ljava/lang/Object;", r, "Node")
	if err != nil {
		t.Fatalf("ParseClassSignature: %v", err)
	}
	if len(sig.FormalTypeParameters) != 1 {
		t.Fatalf("got %d formal type parameters, want 1", len(sig.FormalTypeParameters))
	}
	tp := sig.FormalTypeParameters[0]
	if len(tp.Bounds) != 2 {
		t.Fatalf("got %d bounds, want 2 (class-bound + interface-bound)", len(tp.Bounds))
	}
	comparable, ok := tp.Bounds[1].(*ParameterizedType)
	if !ok {
		t.Fatalf("Bounds[1] = %#v, want *ParameterizedType", tp.Bounds[1])
	}
	selfArg, ok := comparable.Args[0].(*GenericParameter)
	if !ok || selfArg != tp {
		t.Fatalf("Comparable<T>'s T must be object-identical to the declared parameter")
	}
}

func TestGenericArrayTypeSignature(t *testing.T) {
	r := NewResolver()
	sig, err := ParseMethodSignature("<T:Ljava/lang/Object;>([TT;)V", r, "Arr.fill")
	if err != nil {
		t.Fatalf("ParseMethodSignature: %v", err)
	}
	arr, ok := sig.ParameterTypes[0].(*ArrayType)
	if !ok {
		t.Fatalf("ParameterTypes[0] = %#v, want *ArrayType", sig.ParameterTypes[0])
	}
	if _, ok := arr.Element.(*GenericParameter); !ok {
		t.Fatalf("array element = %#v, want *GenericParameter", arr.Element)
	}
}

func TestInnerClassSignatureSegments(t *testing.T) {
	r := NewResolver()
	sig, err := ParseClassSignature("Louter/Outer<Ljava/lang/String;>.Inner;", r, "X")
	if err != nil {
		t.Fatalf("ParseClassSignature: %v", err)
	}
	cls, ok := sig.Superclass.(*ClassType)
	if !ok || cls.InternalName != "outer/Outer$Inner" {
		t.Fatalf("Superclass = %#v, want ClassType(outer/Outer$Inner)", sig.Superclass)
	}
}
