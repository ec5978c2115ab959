package dsl

// Kind tags a schema node. The compiler dispatches on it.
type Kind string

const (
	KindString             Kind = "string"
	KindNumber             Kind = "number"
	KindBigInt             Kind = "bigint"
	KindBoolean            Kind = "boolean"
	KindDate               Kind = "date"
	KindSymbol             Kind = "symbol"
	KindUndefined          Kind = "undefined"
	KindNull               Kind = "null"
	KindVoid               Kind = "void"
	KindAny                Kind = "any"
	KindUnknown            Kind = "unknown"
	KindNever              Kind = "never"
	KindNaN                Kind = "nan"
	KindLiteral            Kind = "literal"
	KindEnum               Kind = "enum"
	KindNativeEnum         Kind = "nativeEnum"
	KindObject             Kind = "object"
	KindArray              Kind = "array"
	KindTuple              Kind = "tuple"
	KindRecord             Kind = "record"
	KindMap                Kind = "map"
	KindSet                Kind = "set"
	KindUnion              Kind = "union"
	KindDiscriminatedUnion Kind = "discriminatedUnion"
	KindIntersection       Kind = "intersection"
	KindOptional           Kind = "optional"
	KindNullable           Kind = "nullable"
	KindDefault            Kind = "default"
	KindCatch              Kind = "catch"
	KindBranded            Kind = "branded"
	KindReadonly           Kind = "readonly"
	KindDescribed          Kind = "described"
	KindLazy               Kind = "lazy"
)

// Node is one node of a schema tree. Implementations outside this package
// are rejected by the compiler.
type Node interface {
	Kind() Kind
}

// Wrapper is implemented by nodes that decorate exactly one inner node.
type Wrapper interface {
	Node
	Inner() Node
}

// Children returns the direct child nodes of n in declaration order. Lazy
// nodes are not resolved.
func Children(n Node) []Node {
	switch x := n.(type) {
	case Wrapper:
		return []Node{x.Inner()}
	case *ObjectNode:
		out := make([]Node, len(x.fields))
		for i, f := range x.fields {
			out[i] = f.Node
		}
		return out
	case *ArrayNode:
		return []Node{x.elem}
	case *SetNode:
		return []Node{x.elem}
	case *TupleNode:
		out := append([]Node(nil), x.items...)
		if x.rest != nil {
			out = append(out, x.rest)
		}
		return out
	case *RecordNode:
		return []Node{x.key, x.value}
	case *MapNode:
		return []Node{x.key, x.value}
	case *UnionNode:
		return append([]Node(nil), x.options...)
	case *DiscriminatedUnionNode:
		out := make([]Node, len(x.options))
		for i, o := range x.options {
			out[i] = o
		}
		return out
	case *IntersectionNode:
		return []Node{x.left, x.right}
	}
	return nil
}

// Unwrap strips described, branded and readonly decorations, which do not
// change the shape of a node.
func Unwrap(n Node) Node {
	for {
		switch x := n.(type) {
		case *DescribedNode:
			n = x.inner
		case *BrandedNode:
			n = x.inner
		case *ReadonlyNode:
			n = x.inner
		default:
			return n
		}
	}
}

// IsOptional reports whether n accepts an absent value without reporting,
// looking through decorations, defaults and catches.
func IsOptional(n Node) bool {
	switch x := Unwrap(n).(type) {
	case *OptionalNode, *DefaultNode, *CatchNode:
		return true
	case *NullableNode:
		return IsOptional(x.inner)
	case *AnyNode, *UnknownNode, *UndefinedNode, *VoidNode:
		return true
	}
	return false
}

// Description returns the text attached with Describe, or "".
func Description(n Node) string {
	for {
		switch x := n.(type) {
		case *DescribedNode:
			return x.text
		case *BrandedNode:
			n = x.inner
		case *ReadonlyNode:
			n = x.inner
		default:
			return ""
		}
	}
}

func firstMessage(msg []string) string {
	if len(msg) > 0 {
		return msg[0]
	}
	return ""
}

func clone[T any](p *T) *T {
	c := *p
	return &c
}
