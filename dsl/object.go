package dsl

import "slices"

// UnknownPolicy decides what happens to input keys an object does not declare.
type UnknownPolicy int

const (
	// UnknownStrip drops unknown keys from the output (default).
	UnknownStrip UnknownPolicy = iota
	// UnknownStrict reports unknown keys as unrecognized_keys.
	UnknownStrict
	// UnknownPassthrough copies unknown keys into the output unchanged.
	UnknownPassthrough
)

// Field is one declared object property.
type Field struct {
	Name string
	Node Node
}

// ObjectNode validates map[string]any values against a keyed shape. Fields
// keep their declaration order.
type ObjectNode struct {
	fields        []Field
	policy        UnknownPolicy
	strictMessage string
}

// Object creates an empty object schema; add properties with Field.
func Object() *ObjectNode { return &ObjectNode{} }

func (*ObjectNode) Kind() Kind { return KindObject }

// Field returns a copy with the property added, replacing an existing
// property of the same name in place.
func (n *ObjectNode) Field(name string, node Node) *ObjectNode {
	c := clone(n)
	c.fields = slices.Clone(n.fields)
	for i, f := range c.fields {
		if f.Name == name {
			c.fields[i].Node = node
			return c
		}
	}
	c.fields = append(c.fields, Field{Name: name, Node: node})
	return c
}

// Fields returns the declared properties in order.
func (n *ObjectNode) Fields() []Field { return slices.Clone(n.fields) }

// Get returns the node declared for name.
func (n *ObjectNode) Get(name string) (Node, bool) {
	for _, f := range n.fields {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}

// Keys returns the declared property names in order.
func (n *ObjectNode) Keys() []string {
	out := make([]string, len(n.fields))
	for i, f := range n.fields {
		out[i] = f.Name
	}
	return out
}

func (n *ObjectNode) Policy() UnknownPolicy { return n.policy }

// StrictMessage is the custom message for unrecognized_keys, if any.
func (n *ObjectNode) StrictMessage() string { return n.strictMessage }

func (n *ObjectNode) Strict(msg ...string) *ObjectNode {
	c := clone(n)
	c.policy = UnknownStrict
	c.strictMessage = firstMessage(msg)
	return c
}

func (n *ObjectNode) Strip() *ObjectNode {
	c := clone(n)
	c.policy = UnknownStrip
	return c
}

func (n *ObjectNode) Passthrough() *ObjectNode {
	c := clone(n)
	c.policy = UnknownPassthrough
	return c
}

// Extend adds or replaces the properties of other. The policy of n is kept.
func (n *ObjectNode) Extend(other *ObjectNode) *ObjectNode {
	c := n
	for _, f := range other.fields {
		c = c.Field(f.Name, f.Node)
	}
	return c
}

// Pick keeps only the named properties.
func (n *ObjectNode) Pick(names ...string) *ObjectNode {
	c := clone(n)
	c.fields = nil
	for _, f := range n.fields {
		if slices.Contains(names, f.Name) {
			c.fields = append(c.fields, f)
		}
	}
	return c
}

// Omit drops the named properties.
func (n *ObjectNode) Omit(names ...string) *ObjectNode {
	c := clone(n)
	c.fields = nil
	for _, f := range n.fields {
		if !slices.Contains(names, f.Name) {
			c.fields = append(c.fields, f)
		}
	}
	return c
}

// Partial wraps every property that is not already optional in Optional.
func (n *ObjectNode) Partial() *ObjectNode {
	c := clone(n)
	c.fields = make([]Field, len(n.fields))
	for i, f := range n.fields {
		if _, ok := f.Node.(*OptionalNode); !ok {
			f.Node = Optional(f.Node)
		}
		c.fields[i] = f
	}
	return c
}
