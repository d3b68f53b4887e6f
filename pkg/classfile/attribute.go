package classfile

// SourceAttribute is the tagged sum over decoded attribute variants. Unknown
// names always decode to BlobAttribute, losslessly preserving the raw bytes.
type SourceAttribute interface {
	AttributeName() string
}

type SourceFileAttribute struct{ Value string }

func (a *SourceFileAttribute) AttributeName() string { return "SourceFile" }

type ConstantValueAttribute struct{ Value any }

func (a *ConstantValueAttribute) AttributeName() string { return "ConstantValue" }

type LineNumberEntry struct {
	StartPC uint16
	Line    uint16
}

type LineNumberTableAttribute struct{ Entries []LineNumberEntry }

func (a *LineNumberTableAttribute) AttributeName() string { return "LineNumberTable" }

type SignatureAttribute struct{ Value string }

func (a *SignatureAttribute) AttributeName() string { return "Signature" }

// BlobAttribute is the fallback for any attribute the decoder does not
// special-case, including Code (bytecode decoding is out of scope here).
type BlobAttribute struct {
	Name string
	Data []byte
}

func (a *BlobAttribute) AttributeName() string { return a.Name }

// rawAttribute is the (name_index, length, body) triple read directly off
// the class-file stream, before name dispatch.
type rawAttribute struct {
	nameIndex uint16
	data      []byte
}

func readRawAttribute(buf *Buffer) (rawAttribute, error) {
	nameIndex, err := buf.ReadU2()
	if err != nil {
		return rawAttribute{}, wrapErr(MalformedInput, err, "reading attribute name_index")
	}
	length, err := buf.ReadU4()
	if err != nil {
		return rawAttribute{}, wrapErr(MalformedInput, err, "reading attribute length")
	}
	data, err := buf.Read(int(length))
	if err != nil {
		return rawAttribute{}, wrapErr(MalformedInput, err, "reading attribute body")
	}
	return rawAttribute{nameIndex: nameIndex, data: data}, nil
}

func readAttributeList(buf *Buffer, pool *ConstantPool, count uint16) ([]SourceAttribute, error) {
	attrs := make([]SourceAttribute, count)
	for i := uint16(0); i < count; i++ {
		raw, err := readRawAttribute(buf)
		if err != nil {
			return nil, err
		}
		name, err := pool.LookupUtf8(raw.nameIndex)
		if err != nil {
			return nil, wrapErr(err.(*Error).Kind, err, "resolving attribute %d name", i)
		}
		attr, err := DecodeAttribute(pool, name, raw.data)
		if err != nil {
			return nil, err
		}
		attrs[i] = attr
	}
	return attrs, nil
}

// DecodeAttribute dispatches on name to a typed variant, reading exactly
// len(data) bytes and never more. Structural mismatches in a typed layout
// (e.g. a truncated LineNumberTable) are MalformedAttribute; opaque variants
// cannot fail.
func DecodeAttribute(pool *ConstantPool, name string, data []byte) (SourceAttribute, error) {
	body := NewBuffer(data)
	switch name {
	case "SourceFile", "ConstantValue", "Signature":
		if len(data) != 2 {
			return nil, newErr(MalformedAttribute, "%s attribute length %d, want 2", name, len(data))
		}
	}
	switch name {
	case "SourceFile":
		idx, err := body.ReadU2()
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "SourceFile attribute body")
		}
		s, err := pool.LookupUtf8(idx)
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "SourceFile name index")
		}
		return &SourceFileAttribute{Value: s}, nil

	case "ConstantValue":
		idx, err := body.ReadU2()
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "ConstantValue attribute body")
		}
		v, err := pool.LookupConstant(idx)
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "ConstantValue index")
		}
		return &ConstantValueAttribute{Value: v}, nil

	case "LineNumberTable":
		count, err := body.ReadU2()
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "LineNumberTable count")
		}
		entries := make([]LineNumberEntry, count)
		for i := uint16(0); i < count; i++ {
			startPC, err := body.ReadU2()
			if err != nil {
				return nil, wrapErr(MalformedAttribute, err, "LineNumberTable entry %d start_pc", i)
			}
			line, err := body.ReadU2()
			if err != nil {
				return nil, wrapErr(MalformedAttribute, err, "LineNumberTable entry %d line_number", i)
			}
			entries[i] = LineNumberEntry{StartPC: startPC, Line: line}
		}
		if body.Position() != len(data) {
			return nil, newErr(MalformedAttribute, "LineNumberTable has %d trailing bytes", len(data)-body.Position())
		}
		return &LineNumberTableAttribute{Entries: entries}, nil

	case "Signature":
		idx, err := body.ReadU2()
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "Signature attribute body")
		}
		s, err := pool.LookupUtf8(idx)
		if err != nil {
			return nil, wrapErr(MalformedAttribute, err, "Signature index")
		}
		return &SignatureAttribute{Value: s}, nil

	default:
		// Includes "Code": bytecode decoding is out of scope for the core.
		return &BlobAttribute{Name: name, Data: data}, nil
	}
}
