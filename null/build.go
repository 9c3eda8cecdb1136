package null

import "go.uber.org/zap"

// Build is the entry point. It creates a builder, hands it to customize (which
// may be nil), falls back to RespondToAnyMessage when customize declared no
// interface, and generates the type.
//
// Example:
//
//	t, err := null.Build(func(b *null.Builder) {
//		b.BlackHole()
//		b.Mimic(null.TypeOf[io.ReadWriter]())
//	})
//	inst := t.Get()
//	inst.Send("Read", buf) // == inst
func Build(customize func(*Builder), opts ...Option) (*Type, error) {
	b := NewBuilder(opts...)
	if err := b.Customize(customize); err != nil {
		return nil, err
	}
	if !b.InterfaceDefined() {
		b.logger.Debug("null: no interface declared, responding to any message",
			zap.Stringer("strategy", b.strategy))
		b.RespondToAnyMessage()
	}
	return b.Generate()
}

// MustBuild is Build that panics on error.
func MustBuild(customize func(*Builder), opts ...Option) *Type {
	t, err := Build(customize, opts...)
	if err != nil {
		panic(err)
	}
	return t
}
