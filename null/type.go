package null

import (
	"sync"
)

// Message names with fixed meaning across the package.
const (
	MsgInspect       = "Inspect"
	MsgType          = "Type"
	MsgRespondTo     = "RespondTo"
	MsgMethodMissing = "MethodMissing"
	MsgFile          = "File"
	MsgLine          = "Line"
)

// Type is a named capability carrier. Generated null types, the two roots and
// declared mimic targets are all *Type values; identity is pointer identity.
//
// A generated type is immutable once Generate returns and is safe for
// concurrent use.
type Type struct {
	name string
	base *Type

	// declared and promoted are the message names of a target that carries no
	// handlers (Declare, TypeOf). promoted counts as inherited.
	declared []string
	promoted []string

	// Lookup order, highest precedence first.
	methods       *Capabilities
	customization *Capabilities
	generated     *Capabilities

	get func(opts ...NewOption) *Instance

	singleton bool
	once      sync.Once
	shared    *Instance
}

// BasicObject is the bare minimal root. It exposes no messages, so mimicked
// interfaces never collide with inherited behavior.
var BasicObject = &Type{name: "BasicObject", methods: NewCapabilities("BasicObject")}

// Object is the standard object capability set. Every reflected Go type
// descends from it.
var Object = newObjectRoot()

func newObjectRoot() *Type {
	methods := NewCapabilities("Object").
		Define(MsgInspect, func(self *Instance, _ ...any) any { return "#<" + self.typ.name + ">" }).
		Define("String", func(self *Instance, _ ...any) any { return self.String() }).
		Define("GoString", func(self *Instance, _ ...any) any { return self.GoString() }).
		Define(MsgType, func(self *Instance, _ ...any) any { return self.typ }).
		Define("IsA", func(self *Instance, args ...any) any {
			t, _ := firstArg(args).(*Type)
			return self.IsA(t)
		}).
		Define(MsgRespondTo, func(self *Instance, args ...any) any {
			name, _ := firstArg(args).(string)
			return self.typ.defines(name)
		}).
		Define("Equal", func(self *Instance, args ...any) any {
			other, _ := firstArg(args).(*Instance)
			return self == other
		})
	return &Type{name: "Object", base: BasicObject, methods: methods}
}

// ObjectMessages returns the baseline object message set, the names mimic
// and impersonate never stub.
func ObjectMessages() []string { return Object.methods.Names() }

// Declare returns a handler-less target type carrying only message names.
// A nil base means BasicObject.
func Declare(name string, base *Type, messages ...string) *Type {
	if base == nil {
		base = BasicObject
	}
	return &Type{
		name:     name,
		base:     base,
		declared: dedupe(messages),
		methods:  NewCapabilities(name),
	}
}

// Name returns the type's name.
func (t *Type) Name() string { return t.name }

// String implements fmt.Stringer.
func (t *Type) String() string { return t.name }

// Base returns the type's direct ancestor, nil for BasicObject.
func (t *Type) Base() *Type { return t.base }

// Ancestors returns t followed by every base up to the root.
func (t *Type) Ancestors() []*Type {
	var out []*Type
	for cur := t; cur != nil; cur = cur.base {
		out = append(out, cur)
	}
	return out
}

// DescendsFrom reports whether other is t or one of t's ancestors.
func (t *Type) DescendsFrom(other *Type) bool {
	if other == nil {
		return false
	}
	for cur := t; cur != nil; cur = cur.base {
		if cur == other {
			return true
		}
	}
	return false
}

// Singleton reports whether the type hands out a single shared instance.
func (t *Type) Singleton() bool { return t.singleton }

// Messages returns the public message names of t. With includeSuper the
// names inherited from bases (and promoted ones) are included.
func (t *Type) Messages(includeSuper bool) []string {
	var all []string
	all = append(all, t.declared...)
	all = append(all, t.methods.Names()...)
	all = append(all, t.customization.Names()...)
	all = append(all, t.generated.Names()...)
	if includeSuper {
		all = append(all, t.promoted...)
		if t.base != nil {
			all = append(all, t.base.Messages(true)...)
		}
	}
	return dedupe(all)
}

// Generated returns the names installed by instance operations, in order.
func (t *Type) Generated() []string { return t.generated.Names() }

// Customized returns the names defined in the customization layer.
func (t *Type) Customized() []string { return t.customization.Names() }

// Define installs a handler on the type's own layer, which outranks both the
// customization and the generated layer. Type operations use it.
func (t *Type) Define(name string, h Handler) *Type {
	t.methods.Define(name, h)
	return t
}

// SetConstructor replaces what Get returns. Type operations use it.
func (t *Type) SetConstructor(get func(opts ...NewOption) *Instance) *Type {
	if get != nil {
		t.get = get
	}
	return t
}

// New constructs an instance, or returns the shared one for singleton types.
func (t *Type) New(opts ...NewOption) *Instance {
	if t.singleton {
		return t.Instance(opts...)
	}
	return t.construct(opts)
}

// Get is the constructor shortcut. It is New unless a type operation
// replaced it.
func (t *Type) Get(opts ...NewOption) *Instance {
	if t.get == nil {
		return t.New(opts...)
	}
	return t.get(opts...)
}

// Instance returns the shared instance, creating it on first use with opts.
// For non-singleton types it still returns one lazily created instance.
func (t *Type) Instance(opts ...NewOption) *Instance {
	t.once.Do(func() {
		t.shared = t.construct(opts)
	})
	return t.shared
}

func (t *Type) layers() []*Capabilities {
	return []*Capabilities{t.methods, t.customization, t.generated}
}

func (t *Type) lookup(name string) (Handler, bool) {
	for cur := t; cur != nil; cur = cur.base {
		for _, layer := range cur.layers() {
			if h, ok := layer.Lookup(name); ok {
				return h, true
			}
		}
	}
	return nil, false
}

func (t *Type) defines(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

func (t *Type) construct(opts []NewOption) *Instance {
	var o NewOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	inst := &Instance{typ: t, fields: make(map[string]any)}

	ancestors := t.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		cur := ancestors[i]
		for _, layer := range []*Capabilities{cur.generated, cur.customization, cur.methods} {
			if layer == nil {
				continue
			}
			for _, fn := range layer.inits {
				fn(inst, o)
			}
		}
	}
	return inst
}

// Instance is a value of a generated type. Sends never panic.
type Instance struct {
	typ *Type

	mu     sync.RWMutex
	fields map[string]any
}

// Type reports the generated type the instance was built from, never its base.
func (i *Instance) Type() *Type { return i.typ }

// IsA reports whether t is the instance's type or one of its ancestors.
func (i *Instance) IsA(t *Type) bool { return i.typ.DescendsFrom(t) }

// Call dispatches name through the type's layers. Unhandled names go to the
// MethodMissing capability with the name prepended to args; without one Call
// returns a *NoMessageError.
func (i *Instance) Call(name string, args ...any) (any, error) {
	if h, ok := i.typ.lookup(name); ok {
		return h(i, args...), nil
	}
	if h, ok := i.typ.lookup(MsgMethodMissing); ok {
		return h(i, append([]any{name}, args...)...), nil
	}
	return nil, &NoMessageError{Type: i.typ.name, Message: name}
}

// Send is Call without the error: unhandled messages yield nil.
func (i *Instance) Send(name string, args ...any) any {
	v, _ := i.Call(name, args...)
	return v
}

// RespondsTo consults the RespondTo capability when one is installed, and
// otherwise reports whether any layer defines name.
func (i *Instance) RespondsTo(name string) bool {
	if h, ok := i.typ.lookup(MsgRespondTo); ok {
		v, _ := h(i, name).(bool)
		return v
	}
	return i.typ.defines(name)
}

// String returns the display string from the Inspect capability.
func (i *Instance) String() string {
	if h, ok := i.typ.lookup(MsgInspect); ok {
		if s, ok := h(i).(string); ok {
			return s
		}
	}
	return "<null>"
}

// GoString implements fmt.GoStringer with the display string.
func (i *Instance) GoString() string { return i.String() }

// Field returns an instance field set by an initializer or handler.
func (i *Instance) Field(name string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.fields[name]
	return v, ok
}

// SetField stores an instance field.
func (i *Instance) SetField(name string, v any) {
	i.mu.Lock()
	i.fields[name] = v
	i.mu.Unlock()
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
