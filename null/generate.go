package null

import (
	"go.uber.org/zap"
)

// Generate assembles the type in one pass: instance operations fill a fresh
// generated layer in registration order, the type is composed from the base,
// the generated layer and the customization layer, then type operations run
// against the finished type in registration order.
//
// Generate consumes the builder.
func (b *Builder) Generate() (*Type, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.generated {
		return nil, &ConfigurationError{Op: "generate", Err: ErrBuilderConsumed}
	}
	b.generated = true

	generated := NewCapabilities("generated")
	if i, err := applyAll(generated, b.operations); err != nil {
		return nil, &GenerationError{Stage: "instance", Index: i, Err: err}
	}

	t := b.compose(generated)

	if i, err := applyAll(t, b.typeOperations); err != nil {
		return nil, &GenerationError{Stage: "type", Index: i, Err: err}
	}

	b.logger.Debug("null: generated type",
		zap.String("type", t.name),
		zap.String("base", t.base.name),
		zap.Stringer("strategy", b.strategy),
		zap.Int("instance_operations", len(b.operations)),
		zap.Int("type_operations", len(b.typeOperations)),
		zap.Strings("generated", generated.Names()),
		zap.Strings("customized", t.customization.Names()),
	)
	return t, nil
}

func (b *Builder) compose(generated *Capabilities) *Type {
	customization := b.customization
	if customization == nil {
		customization = NewCapabilities("customization")
	}
	return &Type{
		name:          b.name,
		base:          b.base,
		methods:       NewCapabilities(b.name),
		customization: customization,
		generated:     generated,
	}
}
