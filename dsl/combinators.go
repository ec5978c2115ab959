package dsl

import "slices"

// UnionNode accepts the first option that validates.
type UnionNode struct{ options []Node }

func Union(options ...Node) *UnionNode { return &UnionNode{options: slices.Clone(options)} }

func (*UnionNode) Kind() Kind { return KindUnion }

func (n *UnionNode) Options() []Node { return slices.Clone(n.options) }

// DiscriminatedUnionNode dispatches objects on the value of one property.
type DiscriminatedUnionNode struct {
	discriminator string
	options       []*ObjectNode
}

// DiscriminatedUnion dispatches on discriminator. Every option must declare
// it as a literal, enum or native enum; the compiler rejects options that do
// not, and values claimed by more than one option.
func DiscriminatedUnion(discriminator string, options ...*ObjectNode) *DiscriminatedUnionNode {
	return &DiscriminatedUnionNode{discriminator: discriminator, options: slices.Clone(options)}
}

func (*DiscriminatedUnionNode) Kind() Kind { return KindDiscriminatedUnion }

func (n *DiscriminatedUnionNode) Discriminator() string  { return n.discriminator }
func (n *DiscriminatedUnionNode) Options() []*ObjectNode { return slices.Clone(n.options) }

// IntersectionNode requires both sides to validate and merges their outputs.
type IntersectionNode struct{ left, right Node }

func Intersection(left, right Node) *IntersectionNode {
	return &IntersectionNode{left: left, right: right}
}

func (*IntersectionNode) Kind() Kind { return KindIntersection }

func (n *IntersectionNode) Left() Node  { return n.left }
func (n *IntersectionNode) Right() Node { return n.right }

// OptionalNode also accepts an absent value.
type OptionalNode struct{ inner Node }

func Optional(inner Node) *OptionalNode { return &OptionalNode{inner: inner} }

func (*OptionalNode) Kind() Kind    { return KindOptional }
func (n *OptionalNode) Inner() Node { return n.inner }

// NullableNode also accepts nil.
type NullableNode struct{ inner Node }

func Nullable(inner Node) *NullableNode { return &NullableNode{inner: inner} }

func (*NullableNode) Kind() Kind    { return KindNullable }
func (n *NullableNode) Inner() Node { return n.inner }

// DefaultNode substitutes a value for absent input.
type DefaultNode struct {
	inner   Node
	value   any
	factory func() any
}

// Default substitutes v when the input is absent.
func Default(inner Node, v any) *DefaultNode { return &DefaultNode{inner: inner, value: v} }

// DefaultFunc calls f for every absent input.
func DefaultFunc(inner Node, f func() any) *DefaultNode {
	return &DefaultNode{inner: inner, factory: f}
}

func (*DefaultNode) Kind() Kind    { return KindDefault }
func (n *DefaultNode) Inner() Node { return n.inner }

// Value returns the static default and whether one is set.
func (n *DefaultNode) Value() (any, bool) { return n.value, n.factory == nil }

// Factory returns the default factory, or nil for a static default.
func (n *DefaultNode) Factory() func() any { return n.factory }

// CatchNode replaces any failure of its inner node with a fallback value.
type CatchNode struct {
	inner   Node
	value   any
	factory func() any
}

func Catch(inner Node, v any) *CatchNode { return &CatchNode{inner: inner, value: v} }

func CatchFunc(inner Node, f func() any) *CatchNode {
	return &CatchNode{inner: inner, factory: f}
}

func (*CatchNode) Kind() Kind    { return KindCatch }
func (n *CatchNode) Inner() Node { return n.inner }

func (n *CatchNode) Value() (any, bool)  { return n.value, n.factory == nil }
func (n *CatchNode) Factory() func() any { return n.factory }

// BrandedNode tags its inner node with a nominal brand. It validates exactly
// like the inner node.
type BrandedNode struct {
	inner Node
	brand string
}

func Branded(inner Node, brand string) *BrandedNode {
	return &BrandedNode{inner: inner, brand: brand}
}

func (*BrandedNode) Kind() Kind      { return KindBranded }
func (n *BrandedNode) Inner() Node   { return n.inner }
func (n *BrandedNode) Brand() string { return n.brand }

// ReadonlyNode freezes the validated value.
type ReadonlyNode struct{ inner Node }

func Readonly(inner Node) *ReadonlyNode { return &ReadonlyNode{inner: inner} }

func (*ReadonlyNode) Kind() Kind    { return KindReadonly }
func (n *ReadonlyNode) Inner() Node { return n.inner }

// DescribedNode attaches documentation to its inner node.
type DescribedNode struct {
	inner Node
	text  string
}

// Describe attaches text, exported as a field comment and as a JSON Schema
// description.
func Describe(inner Node, text string) *DescribedNode {
	return &DescribedNode{inner: inner, text: text}
}

func (*DescribedNode) Kind() Kind     { return KindDescribed }
func (n *DescribedNode) Inner() Node  { return n.inner }
func (n *DescribedNode) Text() string { return n.text }

// LazyNode defers construction of its target until compilation. The target
// is compiled in place, so a target that contains the lazy node itself is a
// cycle and fails to compile.
type LazyNode struct{ get func() Node }

func Lazy(get func() Node) *LazyNode { return &LazyNode{get: get} }

func (*LazyNode) Kind() Kind { return KindLazy }

// Resolve returns the target node.
func (n *LazyNode) Resolve() Node { return n.get() }
