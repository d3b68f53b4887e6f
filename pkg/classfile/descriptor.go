package classfile

import "strings"

// descriptorCursor walks a descriptor or signature string one byte at a
// time, never backtracking more than one character. JVM descriptors and
// signatures are always ASCII, so byte indexing is safe and gives accurate
// offsets for MalformedSignature.
type descriptorCursor struct {
	s   string
	pos int
}

func (c *descriptorCursor) eof() bool { return c.pos >= len(c.s) }

func (c *descriptorCursor) peek() (byte, bool) {
	if c.eof() {
		return 0, false
	}
	return c.s[c.pos], true
}

func (c *descriptorCursor) advance() byte {
	b := c.s[c.pos]
	c.pos++
	return b
}

func (c *descriptorCursor) expect(b byte) error {
	got, ok := c.peek()
	if !ok || got != b {
		return newErrAt(MalformedSignature, c.pos, "expected %q", b)
	}
	c.pos++
	return nil
}

// ParseFieldDescriptor parses a single JVM field descriptor:
// B|C|D|F|I|J|S|Z|L<internal-name>;|[<descriptor>.
func ParseFieldDescriptor(s string) (TypeReference, error) {
	c := &descriptorCursor{s: s}
	t, err := parseFieldDescriptor(c)
	if err != nil {
		return nil, err
	}
	if !c.eof() {
		return nil, newErrAt(MalformedSignature, c.pos, "trailing data after descriptor")
	}
	return t, nil
}

func parseFieldDescriptor(c *descriptorCursor) (TypeReference, error) {
	b, ok := c.peek()
	if !ok {
		return nil, newErrAt(MalformedSignature, c.pos, "unexpected end of descriptor")
	}
	switch b {
	case 'B':
		c.advance()
		return Byte, nil
	case 'C':
		c.advance()
		return Char, nil
	case 'D':
		c.advance()
		return Double, nil
	case 'F':
		c.advance()
		return Float, nil
	case 'I':
		c.advance()
		return Int, nil
	case 'J':
		c.advance()
		return Long, nil
	case 'S':
		c.advance()
		return Short, nil
	case 'Z':
		c.advance()
		return Boolean, nil
	case 'L':
		c.advance()
		name, err := readUntilSemicolon(c)
		if err != nil {
			return nil, err
		}
		return &ClassType{InternalName: name}, nil
	case '[':
		c.advance()
		elem, err := parseFieldDescriptor(c)
		if err != nil {
			return nil, err
		}
		return &ArrayType{Element: elem}, nil
	default:
		return nil, newErrAt(MalformedSignature, c.pos, "unexpected character %q in descriptor", b)
	}
}

func readUntilSemicolon(c *descriptorCursor) (string, error) {
	start := c.pos
	for {
		b, ok := c.peek()
		if !ok {
			return "", newErrAt(MalformedSignature, c.pos, "unterminated class name, missing ';'")
		}
		if b == ';' {
			name := c.s[start:c.pos]
			c.advance()
			return name, nil
		}
		c.advance()
	}
}

// ParseMethodDescriptor parses `(<field-descriptor>*)<field-descriptor>`;
// the return type may additionally be V (void).
func ParseMethodDescriptor(s string) ([]TypeReference, TypeReference, error) {
	c := &descriptorCursor{s: s}
	if err := c.expect('('); err != nil {
		return nil, nil, err
	}
	var params []TypeReference
	for {
		b, ok := c.peek()
		if !ok {
			return nil, nil, newErrAt(MalformedSignature, c.pos, "unterminated parameter list")
		}
		if b == ')' {
			c.advance()
			break
		}
		p, err := parseFieldDescriptor(c)
		if err != nil {
			return nil, nil, err
		}
		params = append(params, p)
	}

	b, ok := c.peek()
	if !ok {
		return nil, nil, newErrAt(MalformedSignature, c.pos, "missing return type")
	}
	var ret TypeReference
	if b == 'V' {
		c.advance()
		ret = Void
	} else {
		var err error
		ret, err = parseFieldDescriptor(c)
		if err != nil {
			return nil, nil, err
		}
	}
	if !c.eof() {
		return nil, nil, newErrAt(MalformedSignature, c.pos, "trailing data after method descriptor")
	}
	return params, ret, nil
}

// PrettyPrintDescriptor renders a TypeReference back to its descriptor
// string. For every TypeReference produced by ParseFieldDescriptor, this is
// a byte-exact round trip (spec invariant 3).
func PrettyPrintDescriptor(t TypeReference) string {
	var sb strings.Builder
	writeDescriptor(&sb, t)
	return sb.String()
}

func writeDescriptor(sb *strings.Builder, t TypeReference) {
	switch v := t.(type) {
	case *PrimitiveType:
		sb.WriteByte(v.Kind)
	case *ClassType:
		sb.WriteByte('L')
		sb.WriteString(v.InternalName)
		sb.WriteByte(';')
	case *ArrayType:
		sb.WriteByte('[')
		writeDescriptor(sb, v.Element)
	}
}

// PrettyPrintMethodDescriptor renders parameter and return types back to a
// method descriptor string.
func PrettyPrintMethodDescriptor(params []TypeReference, ret TypeReference) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		writeDescriptor(&sb, p)
	}
	sb.WriteByte(')')
	writeDescriptor(&sb, ret)
	return sb.String()
}
