package classfile

import "sync"

// ResolverFrame is a scoped mapping from internal name to type reference and
// from type-variable name to generic parameter. Frames are pushed on entry
// to a class-file build (or a generic-signature scope) and popped before
// return; a frame may be mutated while on the stack to support the
// self-reference pattern ("I am currently being built").
type ResolverFrame struct {
	types         map[string]TypeReference
	typeVariables map[string]*GenericParameter
}

// NewResolverFrame returns an empty frame.
func NewResolverFrame() *ResolverFrame {
	return &ResolverFrame{
		types:         make(map[string]TypeReference),
		typeVariables: make(map[string]*GenericParameter),
	}
}

// AddType inserts or overwrites a name -> type binding in this frame.
func (f *ResolverFrame) AddType(name string, t TypeReference) { f.types[name] = t }

// RemoveType removes a name -> type binding from this frame.
func (f *ResolverFrame) RemoveType(name string) { delete(f.types, name) }

// AddTypeVariable inserts or overwrites a type-variable binding in this frame.
func (f *ResolverFrame) AddTypeVariable(name string, p *GenericParameter) {
	f.typeVariables[name] = p
}

// RemoveTypeVariable removes a type-variable binding from this frame.
func (f *ResolverFrame) RemoveTypeVariable(name string) { delete(f.typeVariables, name) }

// IMetadataResolver is the collaborator interface the core depends on:
// a stack of lookup frames plus a delegate for names no frame holds.
type IMetadataResolver interface {
	PushFrame(frame *ResolverFrame)
	PopFrame() *ResolverFrame
	FindType(internalName string) (TypeReference, bool)
	FindTypeVariable(name string) (*GenericParameter, bool)
}

// OuterResolveFunc is the delegate consulted when no frame on the stack
// holds a name. It must be safe for concurrent calls.
type OuterResolveFunc func(internalName string) (TypeReference, bool)

// Resolver is the concrete frame stack. Pushes and pops are exclusive;
// lookups take a shared view. The outer delegate, if set, is consulted on a
// full-stack miss and must itself be concurrency-safe (spec §5: "the shared
// outer resolver MUST be safe for concurrent findType reads").
type Resolver struct {
	mu     sync.RWMutex
	frames []*ResolverFrame
	outer  OuterResolveFunc
}

// NewResolver returns a resolver with no frames and no outer delegate.
func NewResolver() *Resolver { return &Resolver{} }

// SetOuter installs the delegate consulted on a full-stack miss.
func (r *Resolver) SetOuter(outer OuterResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outer = outer
}

// PushFrame appends frame to the top of the stack.
func (r *Resolver) PushFrame(frame *ResolverFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

// PopFrame removes and returns the top frame. It is a caller error to pop an
// empty stack; callers that always pair Push with a deferred Pop never hit
// this.
func (r *Resolver) PopFrame() *ResolverFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.frames)
	if n == 0 {
		return nil
	}
	f := r.frames[n-1]
	r.frames = r.frames[:n-1]
	return f
}

// Depth reports the current frame stack depth, for balance assertions.
func (r *Resolver) Depth() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.frames)
}

// FindType scans frames top-down, then the outer delegate.
func (r *Resolver) FindType(internalName string) (TypeReference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if t, ok := r.frames[i].types[internalName]; ok {
			return t, true
		}
	}
	if r.outer != nil {
		return r.outer(internalName)
	}
	return nil, false
}

// FindTypeVariable scans frames top-down for a type-variable binding.
func (r *Resolver) FindTypeVariable(name string) (*GenericParameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if p, ok := r.frames[i].typeVariables[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// ResolveClassType looks up ct.InternalName and caches the result on
// ct.Resolution. A forward-referenced or self-referenced class resolves to
// whatever TypeReference the frame holds for that name — for a class
// currently being built by ClassReader.Accept, that is the TypeDefinition
// itself (spec invariant: self-reference hand-back).
func ResolveClassType(ct *ClassType, r *Resolver) (TypeReference, bool) {
	t, ok := r.FindType(ct.InternalName)
	if ok {
		ct.Resolution = t
	}
	return t, ok
}
