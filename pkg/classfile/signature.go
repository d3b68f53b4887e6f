package classfile

import "strings"

func isIdentifierByte(b byte) bool {
	switch b {
	case ';', '.', '/', '<', '>', ':':
		return false
	default:
		return true
	}
}

func readIdentifier(c *descriptorCursor) (string, error) {
	start := c.pos
	for {
		b, ok := c.peek()
		if !ok || !isIdentifierByte(b) {
			break
		}
		c.advance()
	}
	if c.pos == start {
		return "", newErrAt(MalformedSignature, c.pos, "expected identifier")
	}
	return c.s[start:c.pos], nil
}

func isBaseType(b byte) bool {
	switch b {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return true
	default:
		return false
	}
}

func parseBaseType(c *descriptorCursor) (TypeReference, error) {
	b, ok := c.peek()
	if !ok || !isBaseType(b) {
		return nil, newErrAt(MalformedSignature, c.pos, "expected base type")
	}
	c.advance()
	switch b {
	case 'B':
		return Byte, nil
	case 'C':
		return Char, nil
	case 'D':
		return Double, nil
	case 'F':
		return Float, nil
	case 'I':
		return Int, nil
	case 'J':
		return Long, nil
	case 'S':
		return Short, nil
	default: // 'Z'
		return Boolean, nil
	}
}

// parseTypeSignature parses TypeSignature := FieldTypeSignature | BaseType.
func parseTypeSignature(c *descriptorCursor, r *Resolver) (TypeReference, error) {
	b, ok := c.peek()
	if !ok {
		return nil, newErrAt(MalformedSignature, c.pos, "unexpected end of signature")
	}
	if isBaseType(b) {
		return parseBaseType(c)
	}
	return parseFieldTypeSignature(c, r)
}

// parseFieldTypeSignature parses ClassTypeSignature | ArrayTypeSignature |
// TypeVariableSignature.
func parseFieldTypeSignature(c *descriptorCursor, r *Resolver) (TypeReference, error) {
	b, ok := c.peek()
	if !ok {
		return nil, newErrAt(MalformedSignature, c.pos, "unexpected end of signature")
	}
	switch b {
	case 'L':
		return parseClassTypeSignature(c, r)
	case '[':
		c.advance()
		elem, err := parseTypeSignature(c, r)
		if err != nil {
			return nil, err
		}
		return &ArrayType{Element: elem}, nil
	case 'T':
		c.advance()
		name, err := readIdentifier(c)
		if err != nil {
			return nil, err
		}
		if err := c.expect(';'); err != nil {
			return nil, err
		}
		p, ok := r.FindTypeVariable(name)
		if !ok {
			return nil, newErrAt(UnresolvedTypeVariable, c.pos, "type variable %q has no enclosing declaring scope", name)
		}
		return p, nil
	default:
		return nil, newErrAt(MalformedSignature, c.pos, "expected field type signature, got %q", b)
	}
}

type classSegment struct {
	name string
	args []TypeReference
}

// parseClassTypeSignature parses `L` package-path `/` simple-class-type-
// signature (`.` simple-class-type-signature)* `;`.
func parseClassTypeSignature(c *descriptorCursor, r *Resolver) (TypeReference, error) {
	if err := c.expect('L'); err != nil {
		return nil, err
	}

	var segments []classSegment
	var pathBuf strings.Builder
	for {
		b, ok := c.peek()
		if !ok {
			return nil, newErrAt(MalformedSignature, c.pos, "unterminated class type signature")
		}
		switch b {
		case '/':
			pathBuf.WriteByte(b)
			c.advance()
		case '<', '.', ';':
			seg := classSegment{name: pathBuf.String()}
			pathBuf.Reset()
			if b == '<' {
				args, err := parseTypeArguments(c, r)
				if err != nil {
					return nil, err
				}
				seg.args = args
			}
			segments = append(segments, seg)
			b2, _ := c.peek()
			if b2 == '.' {
				c.advance()
				continue
			}
			if err := c.expect(';'); err != nil {
				return nil, err
			}
			return buildClassSegments(segments), nil
		default:
			pathBuf.WriteByte(b)
			c.advance()
		}
	}
}

func buildClassSegments(segments []classSegment) TypeReference {
	internalName := segments[0].name
	base := &ClassType{InternalName: internalName}
	var current TypeReference = base
	if len(segments[0].args) > 0 {
		current = &ParameterizedType{Raw: base, Args: segments[0].args}
	}
	for _, seg := range segments[1:] {
		internalName = internalName + "$" + seg.name
		inner := &ClassType{InternalName: internalName}
		if len(seg.args) > 0 {
			current = &ParameterizedType{Raw: inner, Args: seg.args}
		} else {
			current = inner
		}
	}
	return current
}

// parseTypeArguments parses `< TypeArgument+ >`.
func parseTypeArguments(c *descriptorCursor, r *Resolver) ([]TypeReference, error) {
	if err := c.expect('<'); err != nil {
		return nil, err
	}
	var args []TypeReference
	for {
		b, ok := c.peek()
		if !ok {
			return nil, newErrAt(MalformedSignature, c.pos, "unterminated type arguments")
		}
		if b == '>' {
			c.advance()
			if len(args) == 0 {
				return nil, newErrAt(MalformedSignature, c.pos, "empty type arguments")
			}
			return args, nil
		}
		arg, err := parseTypeArgument(c, r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

// parseTypeArgument parses `*` | `+ FieldTypeSignature` | `- FieldTypeSignature` | FieldTypeSignature.
func parseTypeArgument(c *descriptorCursor, r *Resolver) (TypeReference, error) {
	b, ok := c.peek()
	if !ok {
		return nil, newErrAt(MalformedSignature, c.pos, "unexpected end in type argument")
	}
	switch b {
	case '*':
		c.advance()
		return &WildcardType{Kind: WildcardUnbounded}, nil
	case '+':
		c.advance()
		bound, err := parseFieldTypeSignature(c, r)
		if err != nil {
			return nil, err
		}
		return &WildcardType{Kind: WildcardExtends, Bound: bound}, nil
	case '-':
		c.advance()
		bound, err := parseFieldTypeSignature(c, r)
		if err != nil {
			return nil, err
		}
		return &WildcardType{Kind: WildcardSuper, Bound: bound}, nil
	default:
		return parseFieldTypeSignature(c, r)
	}
}

// parseFormalTypeParameters parses `< (identifier class-bound interface-
// bound*)+ >`. Each parameter is declared into frame before its bounds are
// parsed, so f-bounded references (e.g. <T extends Comparable<T>>) resolve.
func parseFormalTypeParameters(c *descriptorCursor, r *Resolver, frame *ResolverFrame, owner string) ([]*GenericParameter, error) {
	if err := c.expect('<'); err != nil {
		return nil, err
	}
	var params []*GenericParameter
	for {
		b, ok := c.peek()
		if !ok {
			return nil, newErrAt(MalformedSignature, c.pos, "unterminated formal type parameters")
		}
		if b == '>' {
			c.advance()
			break
		}
		name, err := readIdentifier(c)
		if err != nil {
			return nil, err
		}
		p := &GenericParameter{Name: name, DeclaringScope: owner}
		frame.AddTypeVariable(name, p)
		params = append(params, p)

		if err := c.expect(':'); err != nil {
			return nil, err
		}
		// class-bound may be empty (implicit top-type), signalled by the
		// next byte starting another bound or closing the parameter.
		if nb, ok := c.peek(); ok && nb != ':' {
			bound, err := parseFieldTypeSignature(c, r)
			if err != nil {
				return nil, err
			}
			p.Bounds = append(p.Bounds, bound)
		}
		for {
			nb, ok := c.peek()
			if !ok || nb != ':' {
				break
			}
			c.advance()
			bound, err := parseFieldTypeSignature(c, r)
			if err != nil {
				return nil, err
			}
			p.Bounds = append(p.Bounds, bound)
		}
	}
	return params, nil
}

// ParseClassSignature parses a ClassSignature attribute body:
// formal-type-parameters? superclass-signature superinterface-signature*.
// owner names the declaring scope recorded on each formal type parameter.
func ParseClassSignature(s string, r *Resolver, owner string) (*ClassSignature, error) {
	c := &descriptorCursor{s: s}
	frame := NewResolverFrame()
	r.PushFrame(frame)
	defer r.PopFrame()

	var formals []*GenericParameter
	if b, ok := c.peek(); ok && b == '<' {
		var err error
		formals, err = parseFormalTypeParameters(c, r, frame, owner)
		if err != nil {
			return nil, err
		}
	}

	super, err := parseClassTypeSignature(c, r)
	if err != nil {
		return nil, err
	}

	var ifaces []TypeReference
	for !c.eof() {
		iface, err := parseClassTypeSignature(c, r)
		if err != nil {
			return nil, err
		}
		ifaces = append(ifaces, iface)
	}

	return &ClassSignature{FormalTypeParameters: formals, Superclass: super, Superinterfaces: ifaces}, nil
}

// ParseMethodSignature parses a MethodSignature attribute body:
// formal-type-parameters? `(` param-type* `)` return-type throws-type*.
func ParseMethodSignature(s string, r *Resolver, owner string) (*IMethodSignature, error) {
	c := &descriptorCursor{s: s}
	frame := NewResolverFrame()
	r.PushFrame(frame)
	defer r.PopFrame()

	var formals []*GenericParameter
	if b, ok := c.peek(); ok && b == '<' {
		var err error
		formals, err = parseFormalTypeParameters(c, r, frame, owner)
		if err != nil {
			return nil, err
		}
	}

	if err := c.expect('('); err != nil {
		return nil, err
	}
	var params []TypeReference
	for {
		b, ok := c.peek()
		if !ok {
			return nil, newErrAt(MalformedSignature, c.pos, "unterminated parameter list")
		}
		if b == ')' {
			c.advance()
			break
		}
		p, err := parseTypeSignature(c, r)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	b, ok := c.peek()
	if !ok {
		return nil, newErrAt(MalformedSignature, c.pos, "missing return type")
	}
	var ret TypeReference
	if b == 'V' {
		c.advance()
		ret = Void
	} else {
		var err error
		ret, err = parseTypeSignature(c, r)
		if err != nil {
			return nil, err
		}
	}

	var throws []TypeReference
	for {
		b, ok := c.peek()
		if !ok || b != '^' {
			break
		}
		c.advance()
		var t TypeReference
		var err error
		if nb, _ := c.peek(); nb == 'T' {
			t, err = parseFieldTypeSignature(c, r)
		} else {
			t, err = parseClassTypeSignature(c, r)
		}
		if err != nil {
			return nil, err
		}
		throws = append(throws, t)
	}

	if !c.eof() {
		return nil, newErrAt(MalformedSignature, c.pos, "trailing data after method signature")
	}

	return &IMethodSignature{
		FormalTypeParameters: formals,
		ParameterTypes:       params,
		ReturnType:           ret,
		ThrownTypes:          throws,
	}, nil
}
