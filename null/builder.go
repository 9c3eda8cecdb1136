package null

import (
	"math/big"
	"strings"

	"go.uber.org/zap"
)

// StubStrategy decides what stubbed messages return.
type StubStrategy int

const (
	// ReturnNil stubs return nil.
	ReturnNil StubStrategy = iota
	// ReturnSelf stubs return the receiver, so calls chain.
	ReturnSelf
)

// String implements fmt.Stringer.
func (s StubStrategy) String() string {
	switch s {
	case ReturnNil:
		return "return-nil"
	case ReturnSelf:
		return "return-self"
	default:
		return "unknown"
	}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used at generation time. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// MimicOption configures Mimic and Impersonate.
type MimicOption func(*mimicOptions)

type mimicOptions struct {
	includeSuper bool
}

// IncludeSuper controls whether inherited messages of the target are stubbed
// too. The default is true.
func IncludeSuper(v bool) MimicOption {
	return func(o *mimicOptions) { o.includeSuper = v }
}

// Builder accumulates the configuration of one null type.
//
// Methods return the builder for chaining. Configuration errors are sticky:
// the first one is kept, later calls are ignored, and Generate returns it.
// A Builder is meant for one goroutine and one Generate call.
type Builder struct {
	name             string
	named            bool
	base             *Type
	display          func() string
	strategy         StubStrategy
	interfaceDefined bool

	operations     []Operation
	typeOperations []TypeOperation

	customization *Capabilities
	customized    bool
	generated     bool

	err    error
	logger *zap.Logger
}

// NewBuilder returns a builder with the basic methods already registered.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		name:    "Null",
		base:    BasicObject,
		display: func() string { return "<null>" },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.defineBasicMethods()
	return b
}

// InterfaceDefined reports whether an explicit message policy was declared.
func (b *Builder) InterfaceDefined() bool { return b.interfaceDefined }

// Strategy returns the current stub strategy.
func (b *Builder) Strategy() StubStrategy { return b.strategy }

// Err returns the first configuration error, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Named sets the generated type's name.
func (b *Builder) Named(name string) *Builder {
	if name != "" {
		b.name = name
		b.named = true
	}
	return b
}

// Display replaces the display function read by the Inspect capability.
func (b *Builder) Display(fn func() string) *Builder {
	if fn != nil {
		b.display = fn
	}
	return b
}

// Defer appends an instance-level operation.
func (b *Builder) Defer(op Operation) *Builder {
	if op == nil {
		return b.fail(&ConfigurationError{Op: "defer", Err: ErrNilOperation})
	}
	b.operations = append(b.operations, op)
	return b
}

// DeferType appends a type-level operation.
func (b *Builder) DeferType(op TypeOperation) *Builder {
	if op == nil {
		return b.fail(&ConfigurationError{Op: "defer type", Err: ErrNilOperation})
	}
	b.typeOperations = append(b.typeOperations, op)
	return b
}

// DefineExplicitConversions installs fixed conversions to the common scalar
// and collection representations. They ignore the stub strategy.
func (b *Builder) DefineExplicitConversions() *Builder {
	return b.Defer(func(subject *Capabilities) error {
		subject.
			Define("String", func(*Instance, ...any) any { return "" }).
			Define("Int", func(*Instance, ...any) any { return 0 }).
			Define("Float64", func(*Instance, ...any) any { return 0.0 }).
			Define("Complex128", func(*Instance, ...any) any { return complex128(0) }).
			Define("Rat", func(*Instance, ...any) any { return new(big.Rat) }).
			Define("Slice", func(*Instance, ...any) any { return []any{} }).
			Define("Map", func(*Instance, ...any) any { return map[string]any{} })
		return nil
	})
}

// DefineImplicitConversions installs the two coercion hooks: AsSlice and AsString.
func (b *Builder) DefineImplicitConversions() *Builder {
	return b.Defer(func(subject *Capabilities) error {
		subject.
			Define("AsSlice", func(*Instance, ...any) any { return []any{} }).
			Define("AsString", func(*Instance, ...any) any { return "" })
		return nil
	})
}

// RootOf returns Object when t descends from it, BasicObject otherwise.
func RootOf(t *Type) *Type {
	if t != nil && t.DescendsFrom(Object) {
		return Object
	}
	return BasicObject
}

// Mimic makes the generated type answer every public message of target,
// minus the baseline object messages, through the current stub strategy.
// The base becomes RootOf(target), so ancestry checks against target fail.
func (b *Builder) Mimic(target *Type, opts ...MimicOption) *Builder {
	return b.mimic("mimic", target, opts)
}

// Impersonate is Mimic with target itself as the base, so the generated
// instances pass IsA(target).
func (b *Builder) Impersonate(target *Type, opts ...MimicOption) *Builder {
	b.mimic("impersonate", target, opts)
	if target != nil {
		b.base = target
	}
	return b
}

func (b *Builder) mimic(op string, target *Type, opts []MimicOption) *Builder {
	if target == nil {
		return b.fail(&InvalidTargetError{Op: op, Err: ErrNilTarget})
	}

	o := mimicOptions{includeSuper: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	b.base = RootOf(target)
	b.display = func() string { return "<null:" + target.Name() + ">" }
	if !b.named {
		b.name = "Null" + shortName(target.Name())
	}

	b.Defer(func(subject *Capabilities) error {
		baseline := make(map[string]struct{})
		for _, name := range ObjectMessages() {
			baseline[name] = struct{}{}
		}
		for _, name := range target.Messages(o.includeSuper) {
			if _, skip := baseline[name]; skip {
				continue
			}
			b.StubMethod(subject, name)
		}
		return nil
	})
	b.interfaceDefined = true
	return b
}

// StubMethodReturningNil installs a handler that ignores its arguments and
// returns nil.
func StubMethodReturningNil(subject *Capabilities, name string) {
	subject.Define(name, func(*Instance, ...any) any { return nil })
}

// StubMethodReturningSelf installs a handler that returns the receiver.
func StubMethodReturningSelf(subject *Capabilities, name string) {
	subject.Define(name, func(self *Instance, _ ...any) any { return self })
}

// StubMethod stubs name according to the strategy in effect now. Deferred
// operations call it at generation time.
func (b *Builder) StubMethod(subject *Capabilities, name string) {
	if b.strategy == ReturnSelf {
		StubMethodReturningSelf(subject, name)
		return
	}
	StubMethodReturningNil(subject, name)
}

// BlackHole switches stubs to return the receiver. It affects every stubbing
// operation that has not run yet, including ones registered earlier.
func (b *Builder) BlackHole() *Builder {
	b.strategy = ReturnSelf
	return b
}

// RespondToAnyMessage installs a RespondTo that always answers true and a
// MethodMissing catch-all stubbed with the current strategy.
func (b *Builder) RespondToAnyMessage() *Builder {
	b.Defer(func(subject *Capabilities) error {
		subject.Define(MsgRespondTo, func(*Instance, ...any) any { return true })
		b.StubMethod(subject, MsgMethodMissing)
		return nil
	})
	b.interfaceDefined = true
	return b
}

// Traceable records where each instance was constructed, readable through
// the File and Line messages or Trace.
func (b *Builder) Traceable() *Builder {
	return b.Defer(func(subject *Capabilities) error {
		subject.
			Define(MsgFile, func(self *Instance, _ ...any) any {
				v, _ := self.Field(MsgFile)
				return v
			}).
			Define(MsgLine, func(self *Instance, _ ...any) any {
				v, _ := self.Field(MsgLine)
				return v
			}).
			OnInit(traceInitializer)
		return nil
	})
}

// Singleton turns the generated type into a single-shared-instance type.
func (b *Builder) Singleton() *Builder {
	return b.DeferType(func(subject *Type) error {
		subject.singleton = true
		subject.SetConstructor(subject.Instance)
		return nil
	})
}

// Define adds a capability to the customization layer. It outranks anything
// the instance operations generate.
func (b *Builder) Define(name string, h Handler) *Builder {
	b.customizationLayer().Define(name, h)
	return b
}

// Customize runs fn with the builder. Capabilities fn defines land in the
// customization layer. A nil fn is a no-op; a second call fails.
func (b *Builder) Customize(fn func(*Builder)) error {
	if fn == nil {
		return nil
	}
	if b.customized {
		err := &ConfigurationError{Op: "customize", Err: ErrAlreadyCustomized}
		b.fail(err)
		return err
	}
	b.customized = true
	b.customizationLayer()
	fn(b)
	return b.err
}

func (b *Builder) customizationLayer() *Capabilities {
	if b.customization == nil {
		b.customization = NewCapabilities("customization")
	}
	return b.customization
}

func (b *Builder) defineBasicMethods() {
	b.Defer(func(subject *Capabilities) error {
		display := b.display
		subject.Define(MsgInspect, func(*Instance, ...any) any { return display() })
		return nil
	})
	b.DeferType(func(subject *Type) error {
		subject.SetConstructor(subject.New)
		subject.Define(MsgType, func(*Instance, ...any) any { return subject })
		return nil
	})
}

// shortName drops a package qualifier and type arguments: "io.Reader"
// becomes "Reader" and "null.gen[null.Frame]" becomes "gen".
func shortName(name string) string {
	name = baseTypeName(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
