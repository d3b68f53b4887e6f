package classfile

import (
	"strings"
	"sync"
)

const classMagic = 0xCAFEBABE

// ClassReader is the top-level decoder. Construction reads the header and
// constant pool; the remainder (fields, methods, attributes) is read by a
// later, explicit call to Accept — the "deferred completion" split spec.md
// §4.6 describes. Lifecycle: Created -> (Accept) -> Parsing -> Populated ->
// (Accept again) -> Populated, with the visitor invoked on every call.
type ClassReader struct {
	buf      *Buffer
	resolver *Resolver
	pool     *ConstantPool

	minor, major uint16
	accessFlags  uint16
	thisClass    uint16
	superClass   uint16
	interfaceIdx []uint16

	internalName   string
	packageName    string
	simpleName     string
	superName      *string
	interfaceNames []string

	once     sync.Once
	parseErr error

	fields           []FieldInfoRaw
	methods          []MethodInfoRaw
	classAttrs       []SourceAttribute
	formalTypeParams []*GenericParameter
	classSignature   *string
}

// NewClassReader decodes the class-file header (magic, versions, constant
// pool, access flags, this/super/interfaces) from buf against resolver.
func NewClassReader(resolver *Resolver, buf *Buffer) (*ClassReader, error) {
	magic, err := buf.ReadU4()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading magic")
	}
	if magic != classMagic {
		return nil, newErr(InvalidMagic, "magic 0x%08X, expected 0x%08X", magic, uint32(classMagic))
	}

	minor, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading minor_version")
	}
	major, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading major_version")
	}

	pool, err := ReadConstantPool(buf)
	if err != nil {
		return nil, err
	}

	accessFlags, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading access_flags")
	}
	thisClass, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading this_class")
	}
	superClass, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading super_class")
	}

	interfacesCount, err := buf.ReadU2()
	if err != nil {
		return nil, wrapErr(MalformedInput, err, "reading interfaces_count")
	}
	interfaceIdx := make([]uint16, interfacesCount)
	interfaceNames := make([]string, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		idx, err := buf.ReadU2()
		if err != nil {
			return nil, wrapErr(MalformedInput, err, "reading interface %d", i)
		}
		interfaceIdx[i] = idx
		name, err := pool.LookupClassName(idx)
		if err != nil {
			return nil, wrapErr(err.(*Error).Kind, err, "resolving interface %d", i)
		}
		interfaceNames[i] = name
	}

	var internalName string
	if thisClass != 0 {
		internalName, err = pool.LookupClassName(thisClass)
		if err != nil {
			return nil, wrapErr(err.(*Error).Kind, err, "resolving this_class")
		}
	}
	pkg, simple := splitInternalName(internalName)

	var superName *string
	if superClass != 0 {
		name, err := pool.LookupClassName(superClass)
		if err != nil {
			return nil, wrapErr(err.(*Error).Kind, err, "resolving super_class")
		}
		superName = &name
	}

	return &ClassReader{
		buf:            buf,
		resolver:       resolver,
		pool:           pool,
		minor:          minor,
		major:          major,
		accessFlags:    accessFlags,
		thisClass:      thisClass,
		superClass:     superClass,
		interfaceIdx:   interfaceIdx,
		internalName:   internalName,
		packageName:    pkg,
		simpleName:     simple,
		superName:      superName,
		interfaceNames: interfaceNames,
	}, nil
}

// splitInternalName splits an internal (slash-separated) name at its last
// '/' into a dotted package name and a simple name.
func splitInternalName(internalName string) (pkg, simple string) {
	idx := strings.LastIndexByte(internalName, '/')
	if idx < 0 {
		return "", internalName
	}
	return strings.ReplaceAll(internalName[:idx], "/", "."), internalName[idx+1:]
}

// Pool exposes the decoded constant pool, mainly for callers that want to
// inspect entries the core does not surface directly (e.g. InvokeDynamic).
func (cr *ClassReader) Pool() *ConstantPool { return cr.pool }

// InternalName is the this_class name as stored in the pool ("" for the
// index-0 fallback case).
func (cr *ClassReader) InternalName() string { return cr.internalName }

// Accept completes the decode (first call only) and invokes visitor exactly
// once per call, always against the fully-populated typeDef. The resolver
// frame pushed for this call is guaranteed popped on every exit, including
// error returns.
func (cr *ClassReader) Accept(typeDef *TypeDefinition, visitor ClassVisitor) error {
	frame := NewResolverFrame()
	cr.resolver.PushFrame(frame)
	defer cr.resolver.PopFrame()

	cr.once.Do(func() {
		cr.parseErr = cr.parseMembers()
	})
	if cr.parseErr != nil {
		return cr.parseErr
	}

	typeDef.Package = cr.packageName
	typeDef.SimpleName = cr.simpleName
	typeDef.MajorVersion = cr.major
	typeDef.MinorVersion = cr.minor
	typeDef.AccessFlags = cr.accessFlags
	if cr.superName != nil {
		typeDef.SuperName = *cr.superName
	}
	typeDef.InterfaceNames = cr.interfaceNames
	typeDef.Fields = cr.fields
	typeDef.Methods = cr.methods
	typeDef.Attributes = cr.classAttrs
	typeDef.FormalTypeParameters = cr.formalTypeParams

	frame.AddType(cr.internalName, typeDef)
	err := visitor.Visit(typeDef, cr.major, cr.minor, cr.accessFlags, cr.internalName, cr.classSignature, cr.superName, cr.interfaceNames)
	frame.RemoveType(cr.internalName)
	return err
}

// parseMembers reads fields, methods, and class attributes in one forward
// pass, then resets the buffer cursor to 0 so the stream can be read again
// from the start. Blob attribute payloads (e.g. Code) keep their bytes
// directly, as slices of the buffer's data. It runs at most once per
// ClassReader.
func (cr *ClassReader) parseMembers() error {
	fieldCount, err := cr.buf.ReadU2()
	if err != nil {
		return wrapErr(MalformedInput, err, "reading fields_count")
	}
	fields := make([]FieldInfoRaw, fieldCount)
	for i := uint16(0); i < fieldCount; i++ {
		f, err := cr.readFieldInfo()
		if err != nil {
			return wrapErr(err.(*Error).Kind, err, "reading field %d", i)
		}
		fields[i] = f
	}
	cr.fields = fields

	methodCount, err := cr.buf.ReadU2()
	if err != nil {
		return wrapErr(MalformedInput, err, "reading methods_count")
	}
	methods := make([]MethodInfoRaw, methodCount)
	for i := uint16(0); i < methodCount; i++ {
		m, err := cr.readMethodInfo()
		if err != nil {
			return wrapErr(err.(*Error).Kind, err, "reading method %d", i)
		}
		methods[i] = m
	}
	cr.methods = methods

	attrCount, err := cr.buf.ReadU2()
	if err != nil {
		return wrapErr(MalformedInput, err, "reading class attributes_count")
	}
	classAttrs, err := readAttributeList(cr.buf, cr.pool, attrCount)
	if err != nil {
		return err
	}
	cr.classAttrs = classAttrs

	if err := cr.buf.Reset(0); err != nil {
		return err
	}

	for _, attr := range classAttrs {
		if sig, ok := attr.(*SignatureAttribute); ok {
			parsed, err := ParseClassSignature(sig.Value, cr.resolver, cr.internalName)
			if err != nil {
				return err
			}
			cr.formalTypeParams = parsed.FormalTypeParameters
			v := sig.Value
			cr.classSignature = &v
			break
		}
	}

	if len(cr.formalTypeParams) > 0 {
		enclosing := NewResolverFrame()
		for _, p := range cr.formalTypeParams {
			enclosing.AddTypeVariable(p.Name, p)
		}
		cr.resolver.PushFrame(enclosing)
		defer cr.resolver.PopFrame()
	}

	for i := range cr.methods {
		m := &cr.methods[i]
		for _, attr := range m.Attributes {
			if sig, ok := attr.(*SignatureAttribute); ok {
				parsed, err := ParseMethodSignature(sig.Value, cr.resolver, cr.internalName+"."+m.Name)
				if err != nil {
					return err
				}
				m.Signature = parsed
				break
			}
		}
	}

	return nil
}

func (cr *ClassReader) readFieldInfo() (FieldInfoRaw, error) {
	accessFlags, err := cr.buf.ReadU2()
	if err != nil {
		return FieldInfoRaw{}, wrapErr(MalformedInput, err, "reading access_flags")
	}
	nameIdx, err := cr.buf.ReadU2()
	if err != nil {
		return FieldInfoRaw{}, wrapErr(MalformedInput, err, "reading name_index")
	}
	descIdx, err := cr.buf.ReadU2()
	if err != nil {
		return FieldInfoRaw{}, wrapErr(MalformedInput, err, "reading descriptor_index")
	}
	attrCount, err := cr.buf.ReadU2()
	if err != nil {
		return FieldInfoRaw{}, wrapErr(MalformedInput, err, "reading attributes_count")
	}

	name, err := cr.pool.LookupUtf8(nameIdx)
	if err != nil {
		return FieldInfoRaw{}, wrapErr(err.(*Error).Kind, err, "resolving name")
	}
	desc, err := cr.pool.LookupUtf8(descIdx)
	if err != nil {
		return FieldInfoRaw{}, wrapErr(err.(*Error).Kind, err, "resolving descriptor")
	}
	attrs, err := readAttributeList(cr.buf, cr.pool, attrCount)
	if err != nil {
		return FieldInfoRaw{}, err
	}

	return FieldInfoRaw{AccessFlags: accessFlags, Name: name, Descriptor: desc, Attributes: attrs}, nil
}

func (cr *ClassReader) readMethodInfo() (MethodInfoRaw, error) {
	accessFlags, err := cr.buf.ReadU2()
	if err != nil {
		return MethodInfoRaw{}, wrapErr(MalformedInput, err, "reading access_flags")
	}
	nameIdx, err := cr.buf.ReadU2()
	if err != nil {
		return MethodInfoRaw{}, wrapErr(MalformedInput, err, "reading name_index")
	}
	descIdx, err := cr.buf.ReadU2()
	if err != nil {
		return MethodInfoRaw{}, wrapErr(MalformedInput, err, "reading descriptor_index")
	}
	attrCount, err := cr.buf.ReadU2()
	if err != nil {
		return MethodInfoRaw{}, wrapErr(MalformedInput, err, "reading attributes_count")
	}

	name, err := cr.pool.LookupUtf8(nameIdx)
	if err != nil {
		return MethodInfoRaw{}, wrapErr(err.(*Error).Kind, err, "resolving name")
	}
	desc, err := cr.pool.LookupUtf8(descIdx)
	if err != nil {
		return MethodInfoRaw{}, wrapErr(err.(*Error).Kind, err, "resolving descriptor")
	}
	attrs, err := readAttributeList(cr.buf, cr.pool, attrCount)
	if err != nil {
		return MethodInfoRaw{}, err
	}

	m := MethodInfoRaw{AccessFlags: accessFlags, Name: name, Descriptor: desc, Attributes: attrs}
	for _, attr := range attrs {
		if blob, ok := attr.(*BlobAttribute); ok && blob.Name == "Code" {
			m.Code = blob
			break
		}
	}
	return m, nil
}
