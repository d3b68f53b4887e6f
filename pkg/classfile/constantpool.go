package classfile

// Constant pool tags (JVM spec table, tag 2 and 13/14 are unused/reserved).
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagInvokeDynamic      = 18
)

// Entry is the tagged sum over constant pool entry variants.
type Entry interface {
	Tag() uint8
}

type Utf8Entry struct{ Value string }

func (e *Utf8Entry) Tag() uint8 { return TagUtf8 }

type IntegerEntry struct{ Value int32 }

func (e *IntegerEntry) Tag() uint8 { return TagInteger }

type FloatEntry struct{ Value float32 }

func (e *FloatEntry) Tag() uint8 { return TagFloat }

type LongEntry struct{ Value int64 }

func (e *LongEntry) Tag() uint8 { return TagLong }

type DoubleEntry struct{ Value float64 }

func (e *DoubleEntry) Tag() uint8 { return TagDouble }

type ClassEntry struct{ NameIndex uint16 }

func (e *ClassEntry) Tag() uint8 { return TagClass }

type StringEntry struct{ StringIndex uint16 }

func (e *StringEntry) Tag() uint8 { return TagString }

type FieldrefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e *FieldrefEntry) Tag() uint8 { return TagFieldref }

type MethodrefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e *MethodrefEntry) Tag() uint8 { return TagMethodref }

type InterfaceMethodrefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (e *InterfaceMethodrefEntry) Tag() uint8 { return TagInterfaceMethodref }

type NameAndTypeEntry struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (e *NameAndTypeEntry) Tag() uint8 { return TagNameAndType }

type MethodHandleEntry struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (e *MethodHandleEntry) Tag() uint8 { return TagMethodHandle }

type MethodTypeEntry struct{ DescriptorIndex uint16 }

func (e *MethodTypeEntry) Tag() uint8 { return TagMethodType }

type InvokeDynamicEntry struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (e *InvokeDynamicEntry) Tag() uint8 { return TagInvokeDynamic }

// longDoubleTail marks the unusable second slot a Long or Double occupies.
type longDoubleTail struct{}

func (longDoubleTail) Tag() uint8 { return 0 }

// ConstantPool is the ordered, 1-indexed constant table of a class file.
// Index 0 is reserved and always invalid.
type ConstantPool struct {
	entries []Entry
}

// ReadConstantPool consumes the u2 count and decodes count-1 entries.
func ReadConstantPool(buf *Buffer) (*ConstantPool, error) {
	count, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading constant_pool_count")
	}

	entries := make([]Entry, count)
	for i := uint16(1); i < count; i++ {
		tag, err := buf.ReadU1()
		if err != nil {
			return nil, wrapErr(MalformedInput, err, "reading tag at constant pool index %d", i)
		}

		entry, wide, err := readEntry(buf, tag)
		if err != nil {
			return nil, wrapErr(err.(*Error).Kind, err, "decoding constant pool index %d", i)
		}
		entries[i] = entry
		if wide {
			i++
			if i < count {
				entries[i] = longDoubleTail{}
			}
		}
	}
	return &ConstantPool{entries: entries}, nil
}

// readEntry decodes one tagged entry body. wide reports whether the entry
// (Long/Double) occupies the following slot too.
func readEntry(buf *Buffer, tag uint8) (Entry, bool, error) {
	switch tag {
	case TagUtf8:
		length, err := buf.ReadU2()
		if err != nil {
			return nil, false, err
		}
		raw, err := buf.Read(int(length))
		if err != nil {
			return nil, false, err
		}
		return &Utf8Entry{Value: string(raw)}, false, nil

	case TagInteger:
		v, err := buf.ReadI4()
		if err != nil {
			return nil, false, err
		}
		return &IntegerEntry{Value: v}, false, nil

	case TagFloat:
		v, err := buf.ReadF4()
		if err != nil {
			return nil, false, err
		}
		return &FloatEntry{Value: v}, false, nil

	case TagLong:
		hi, err := buf.ReadU4()
		if err != nil {
			return nil, false, err
		}
		lo, err := buf.ReadU4()
		if err != nil {
			return nil, false, err
		}
		return &LongEntry{Value: int64(uint64(hi)<<32 | uint64(lo))}, true, nil

	case TagDouble:
		v, err := buf.ReadF8()
		if err != nil {
			return nil, false, err
		}
		return &DoubleEntry{Value: v}, true, nil

	case TagClass:
		idx, err := buf.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return &ClassEntry{NameIndex: idx}, false, nil

	case TagString:
		idx, err := buf.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return &StringEntry{StringIndex: idx}, false, nil

	case TagFieldref:
		classIdx, natIdx, err := readRefPair(buf)
		if err != nil {
			return nil, false, err
		}
		return &FieldrefEntry{ClassIndex: classIdx, NameAndTypeIndex: natIdx}, false, nil

	case TagMethodref:
		classIdx, natIdx, err := readRefPair(buf)
		if err != nil {
			return nil, false, err
		}
		return &MethodrefEntry{ClassIndex: classIdx, NameAndTypeIndex: natIdx}, false, nil

	case TagInterfaceMethodref:
		classIdx, natIdx, err := readRefPair(buf)
		if err != nil {
			return nil, false, err
		}
		return &InterfaceMethodrefEntry{ClassIndex: classIdx, NameAndTypeIndex: natIdx}, false, nil

	case TagNameAndType:
		nameIdx, descIdx, err := readRefPair(buf)
		if err != nil {
			return nil, false, err
		}
		return &NameAndTypeEntry{NameIndex: nameIdx, DescriptorIndex: descIdx}, false, nil

	case TagMethodHandle:
		kind, err := buf.ReadU1()
		if err != nil {
			return nil, false, err
		}
		refIdx, err := buf.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return &MethodHandleEntry{ReferenceKind: kind, ReferenceIndex: refIdx}, false, nil

	case TagMethodType:
		idx, err := buf.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return &MethodTypeEntry{DescriptorIndex: idx}, false, nil

	case TagInvokeDynamic:
		bootstrapIdx, natIdx, err := readRefPair(buf)
		if err != nil {
			return nil, false, err
		}
		return &InvokeDynamicEntry{BootstrapMethodAttrIndex: bootstrapIdx, NameAndTypeIndex: natIdx}, false, nil

	default:
		return nil, false, newErr(MalformedInput, "unknown constant pool tag %d", tag)
	}
}

func readRefPair(buf *Buffer) (uint16, uint16, error) {
	a, err := buf.ReadU2()
	if err != nil {
		return 0, 0, err
	}
	b, err := buf.ReadU2()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// Get returns the entry at index, or InvalidConstantPoolIndex for 0,
// out-of-range, or the second slot of a Long/Double.
func (p *ConstantPool) Get(index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(p.entries) {
		return nil, newErrIndex(InvalidConstantPoolIndex, int(index), "index out of range")
	}
	e := p.entries[index]
	if _, isTail := e.(longDoubleTail); isTail {
		return nil, newErrIndex(InvalidConstantPoolIndex, int(index), "second slot of Long/Double")
	}
	return e, nil
}

// GetExpect is Get plus a tag check.
func (p *ConstantPool) GetExpect(index uint16, expectedTag uint8) (Entry, error) {
	e, err := p.Get(index)
	if err != nil {
		return nil, err
	}
	if e.Tag() != expectedTag {
		return nil, newErrIndex(UnexpectedConstantPoolTag, int(index), "expected tag %d, got %d", expectedTag, e.Tag())
	}
	return e, nil
}

// LookupUtf8 requires a Utf8 entry and returns its string value.
func (p *ConstantPool) LookupUtf8(index uint16) (string, error) {
	e, err := p.GetExpect(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.(*Utf8Entry).Value, nil
}

// LookupClassName resolves a Class entry to its internal name, following the
// nested Utf8 index on demand.
func (p *ConstantPool) LookupClassName(index uint16) (string, error) {
	e, err := p.GetExpect(index, TagClass)
	if err != nil {
		return "", err
	}
	return p.LookupUtf8(e.(*ClassEntry).NameIndex)
}

// LookupConstant returns the typed value carried by a primitive, String, or
// Class entry.
func (p *ConstantPool) LookupConstant(index uint16) (any, error) {
	e, err := p.Get(index)
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *IntegerEntry:
		return v.Value, nil
	case *FloatEntry:
		return v.Value, nil
	case *LongEntry:
		return v.Value, nil
	case *DoubleEntry:
		return v.Value, nil
	case *Utf8Entry:
		return v.Value, nil
	case *StringEntry:
		return p.LookupUtf8(v.StringIndex)
	case *ClassEntry:
		return p.LookupUtf8(v.NameIndex)
	default:
		return nil, newErrIndex(UnexpectedConstantPoolTag, int(index), "entry (tag %d) carries no constant value", e.Tag())
	}
}

// HandleRef is the resolved form of a MethodHandle entry: the reference kind
// (JVM spec table 5.4.3.5, REF_getField..REF_invokeInterface) and the
// resolved Fieldref/Methodref/InterfaceMethodref it points at.
type HandleRef struct {
	ReferenceKind uint8
	ClassName     string
	MemberName    string
	Descriptor    string
}

// LookupMethodHandle resolves a MethodHandle entry's referenced member.
func (p *ConstantPool) LookupMethodHandle(index uint16) (*HandleRef, error) {
	e, err := p.GetExpect(index, TagMethodHandle)
	if err != nil {
		return nil, err
	}
	mh := e.(*MethodHandleEntry)
	ref, err := p.Get(mh.ReferenceIndex)
	if err != nil {
		return nil, err
	}

	var classIdx, natIdx uint16
	switch r := ref.(type) {
	case *FieldrefEntry:
		classIdx, natIdx = r.ClassIndex, r.NameAndTypeIndex
	case *MethodrefEntry:
		classIdx, natIdx = r.ClassIndex, r.NameAndTypeIndex
	case *InterfaceMethodrefEntry:
		classIdx, natIdx = r.ClassIndex, r.NameAndTypeIndex
	default:
		return nil, newErrIndex(UnexpectedConstantPoolTag, int(mh.ReferenceIndex), "MethodHandle reference is not a ref entry (tag %d)", ref.Tag())
	}

	className, err := p.LookupClassName(classIdx)
	if err != nil {
		return nil, err
	}
	nat, err := p.GetExpect(natIdx, TagNameAndType)
	if err != nil {
		return nil, err
	}
	n := nat.(*NameAndTypeEntry)
	name, err := p.LookupUtf8(n.NameIndex)
	if err != nil {
		return nil, err
	}
	desc, err := p.LookupUtf8(n.DescriptorIndex)
	if err != nil {
		return nil, err
	}
	return &HandleRef{ReferenceKind: mh.ReferenceKind, ClassName: className, MemberName: name, Descriptor: desc}, nil
}

// LookupMethodType resolves a MethodType entry to its raw descriptor string.
func (p *ConstantPool) LookupMethodType(index uint16) (string, error) {
	e, err := p.GetExpect(index, TagMethodType)
	if err != nil {
		return "", err
	}
	return p.LookupUtf8(e.(*MethodTypeEntry).DescriptorIndex)
}

// Len reports the logical constant_pool_count (including the unused slot 0
// and any Long/Double tail slots).
func (p *ConstantPool) Len() int { return len(p.entries) }
