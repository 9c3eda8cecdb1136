package null

// Handler is the body of one capability. self is the receiving instance; args
// are whatever the sender passed to Send or Call.
type Handler func(self *Instance, args ...any) any

// Initializer runs when an instance is constructed, after its fields map is
// allocated and before the instance is returned to the caller.
type Initializer func(self *Instance, opts NewOptions)

// Capabilities is an explicit capability table: message name to handler,
// plus the constructor initializers contributed by the same layer.
//
// Defining a name that already exists overwrites the handler but keeps the
// name's original position in Names.
type Capabilities struct {
	name     string
	handlers map[string]Handler
	order    []string
	inits    []Initializer
}

// NewCapabilities returns an empty table. name only shows up in logs.
func NewCapabilities(name string) *Capabilities {
	return &Capabilities{name: name, handlers: make(map[string]Handler)}
}

// Name returns the table's label.
func (c *Capabilities) Name() string { return c.name }

// Define installs h under name and returns c for chaining.
// A nil handler removes nothing and installs nothing.
func (c *Capabilities) Define(name string, h Handler) *Capabilities {
	if h == nil {
		return c
	}
	if _, exists := c.handlers[name]; !exists {
		c.order = append(c.order, name)
	}
	c.handlers[name] = h
	return c
}

// Lookup returns the handler for name.
func (c *Capabilities) Lookup(name string) (Handler, bool) {
	if c == nil {
		return nil, false
	}
	h, ok := c.handlers[name]
	return h, ok
}

// Has reports whether name is defined.
func (c *Capabilities) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns the defined message names in first-definition order.
func (c *Capabilities) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of defined messages.
func (c *Capabilities) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// OnInit appends an initializer.
func (c *Capabilities) OnInit(fn Initializer) *Capabilities {
	if fn != nil {
		c.inits = append(c.inits, fn)
	}
	return c
}

// Operation is a deferred instance-level action. It installs capabilities on
// the generated-capabilities container when the builder generates.
type Operation func(subject *Capabilities) error

// TypeOperation is a deferred type-level action applied to the finished type.
type TypeOperation func(subject *Type) error

// applyAll runs ops in order and stops at the first error, reporting its index.
func applyAll[S any, Op ~func(S) error](subject S, ops []Op) (int, error) {
	for i, op := range ops {
		if err := op(subject); err != nil {
			return i, err
		}
	}
	return -1, nil
}
