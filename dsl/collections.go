package dsl

import "slices"

// LengthCheck bounds the length of an array or the size of a set.
type LengthCheck struct {
	Value   int
	Message string
}

// ArrayNode validates slices element-wise.
type ArrayNode struct {
	elem            Node
	min, max, exact *LengthCheck
}

func Array(elem Node) *ArrayNode { return &ArrayNode{elem: elem} }

func (*ArrayNode) Kind() Kind { return KindArray }

func (n *ArrayNode) Element() Node { return n.elem }

// MinLength, MaxLength and ExactLength return the declared bounds, or nil.
func (n *ArrayNode) MinLength() *LengthCheck   { return n.min }
func (n *ArrayNode) MaxLength() *LengthCheck   { return n.max }
func (n *ArrayNode) ExactLength() *LengthCheck { return n.exact }

func (n *ArrayNode) Min(v int, msg ...string) *ArrayNode {
	c := clone(n)
	c.min = &LengthCheck{Value: v, Message: firstMessage(msg)}
	return c
}

func (n *ArrayNode) Max(v int, msg ...string) *ArrayNode {
	c := clone(n)
	c.max = &LengthCheck{Value: v, Message: firstMessage(msg)}
	return c
}

func (n *ArrayNode) Length(v int, msg ...string) *ArrayNode {
	c := clone(n)
	c.exact = &LengthCheck{Value: v, Message: firstMessage(msg)}
	return c
}

func (n *ArrayNode) NonEmpty(msg ...string) *ArrayNode { return n.Min(1, msg...) }

// SetNode validates *verify.Set values element-wise.
type SetNode struct {
	elem     Node
	min, max *LengthCheck
}

func Set(elem Node) *SetNode { return &SetNode{elem: elem} }

func (*SetNode) Kind() Kind { return KindSet }

func (n *SetNode) Element() Node         { return n.elem }
func (n *SetNode) MinSize() *LengthCheck { return n.min }
func (n *SetNode) MaxSize() *LengthCheck { return n.max }

func (n *SetNode) Min(v int, msg ...string) *SetNode {
	c := clone(n)
	c.min = &LengthCheck{Value: v, Message: firstMessage(msg)}
	return c
}

func (n *SetNode) Max(v int, msg ...string) *SetNode {
	c := clone(n)
	c.max = &LengthCheck{Value: v, Message: firstMessage(msg)}
	return c
}

// Size sets both bounds.
func (n *SetNode) Size(v int, msg ...string) *SetNode { return n.Min(v, msg...).Max(v, msg...) }

func (n *SetNode) NonEmpty(msg ...string) *SetNode { return n.Min(1, msg...) }

// TupleNode validates fixed positions and an optional rest element.
type TupleNode struct {
	items []Node
	rest  Node
}

func Tuple(items ...Node) *TupleNode { return &TupleNode{items: slices.Clone(items)} }

func (*TupleNode) Kind() Kind { return KindTuple }

func (n *TupleNode) Items() []Node { return slices.Clone(n.items) }

// RestElement returns the rest schema, or nil.
func (n *TupleNode) RestElement() Node { return n.rest }

func (n *TupleNode) Rest(rest Node) *TupleNode {
	c := clone(n)
	c.rest = rest
	return c
}

// RecordNode validates objects with uniform keys and values.
type RecordNode struct{ key, value Node }

// Record uses String() for keys.
func Record(value Node) *RecordNode { return &RecordNode{key: String(), value: value} }

func RecordOf(key, value Node) *RecordNode { return &RecordNode{key: key, value: value} }

func (*RecordNode) Kind() Kind { return KindRecord }

func (n *RecordNode) Key() Node   { return n.key }
func (n *RecordNode) Value() Node { return n.value }

// MapNode validates *verify.Map values (and Go maps with non-string keys).
type MapNode struct{ key, value Node }

func Map(key, value Node) *MapNode { return &MapNode{key: key, value: value} }

func (*MapNode) Kind() Kind { return KindMap }

func (n *MapNode) Key() Node   { return n.key }
func (n *MapNode) Value() Node { return n.value }
