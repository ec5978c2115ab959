package compiler

import (
	"fmt"
	"slices"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
)

// Rule compiles one schema node.
type Rule interface {
	// Compile emits the validation statements of the node into ctx.
	Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error)
	// GoType returns the Go type of a validated value.
	GoType(t *TypeUnit) (jen.Code, error)
}

type builder func(dsl.Node) (Rule, bool)

func entry[T dsl.Node](mk func(T) Rule) builder {
	return func(n dsl.Node) (Rule, bool) {
		x, ok := n.(T)
		if !ok {
			return nil, false
		}
		return mk(x), true
	}
}

var registry = map[dsl.Kind]builder{
	dsl.KindString:  entry(func(n *dsl.StringNode) Rule { return stringRule{n} }),
	dsl.KindNumber:  entry(func(n *dsl.NumberNode) Rule { return numberRule{n} }),
	dsl.KindBigInt:  entry(func(n *dsl.BigIntNode) Rule { return bigintRule{n} }),
	dsl.KindBoolean: entry(func(n *dsl.BooleanNode) Rule { return booleanRule{n} }),
	dsl.KindDate:    entry(func(n *dsl.DateNode) Rule { return dateRule{n} }),
	dsl.KindSymbol: entry(func(*dsl.SymbolNode) Rule {
		return typeRule{guard: "IsSymbol", expected: "symbol", goType: symbolType}
	}),
	dsl.KindUndefined: entry(func(*dsl.UndefinedNode) Rule {
		return typeRule{guard: "IsUndefined", expected: "undefined", goType: anyType}
	}),
	dsl.KindVoid: entry(func(*dsl.VoidNode) Rule {
		return typeRule{guard: "IsUndefined", expected: "void", goType: anyType}
	}),
	dsl.KindNull: entry(func(*dsl.NullNode) Rule {
		return typeRule{guard: "IsNull", expected: "null", goType: anyType}
	}),
	dsl.KindNaN: entry(func(*dsl.NaNNode) Rule {
		return typeRule{guard: "IsNaN", expected: "nan", goType: floatType}
	}),
	dsl.KindAny:                entry(func(*dsl.AnyNode) Rule { return passRule{} }),
	dsl.KindUnknown:            entry(func(*dsl.UnknownNode) Rule { return passRule{} }),
	dsl.KindNever:              entry(func(*dsl.NeverNode) Rule { return neverRule{} }),
	dsl.KindLiteral:            entry(func(n *dsl.LiteralNode) Rule { return literalRule{n} }),
	dsl.KindEnum:               entry(func(n *dsl.EnumNode) Rule { return enumRule{n} }),
	dsl.KindNativeEnum:         entry(func(n *dsl.NativeEnumNode) Rule { return nativeEnumRule{n} }),
	dsl.KindObject:             entry(func(n *dsl.ObjectNode) Rule { return objectRule{node: n} }),
	dsl.KindArray:              entry(func(n *dsl.ArrayNode) Rule { return arrayRule{n} }),
	dsl.KindSet:                entry(func(n *dsl.SetNode) Rule { return setRule{n} }),
	dsl.KindTuple:              entry(func(n *dsl.TupleNode) Rule { return tupleRule{n} }),
	dsl.KindRecord:             entry(func(n *dsl.RecordNode) Rule { return recordRule{n} }),
	dsl.KindMap:                entry(func(n *dsl.MapNode) Rule { return mapRule{n} }),
	dsl.KindUnion:              entry(func(n *dsl.UnionNode) Rule { return unionRule{n} }),
	dsl.KindDiscriminatedUnion: entry(func(n *dsl.DiscriminatedUnionNode) Rule { return discriminatedUnionRule{n} }),
	dsl.KindIntersection:       entry(func(n *dsl.IntersectionNode) Rule { return intersectionRule{n} }),
	dsl.KindOptional:           entry(func(n *dsl.OptionalNode) Rule { return optionalRule{n} }),
	dsl.KindNullable:           entry(func(n *dsl.NullableNode) Rule { return nullableRule{n} }),
	dsl.KindDefault:            entry(func(n *dsl.DefaultNode) Rule { return defaultRule{n} }),
	dsl.KindCatch:              entry(func(n *dsl.CatchNode) Rule { return catchRule{n} }),
	dsl.KindBranded:            entry(func(n *dsl.BrandedNode) Rule { return forwardRule{n.Inner()} }),
	dsl.KindDescribed:          entry(func(n *dsl.DescribedNode) Rule { return forwardRule{n.Inner()} }),
	dsl.KindReadonly:           entry(func(n *dsl.ReadonlyNode) Rule { return readonlyRule{n} }),
	dsl.KindLazy:               entry(func(n *dsl.LazyNode) Rule { return lazyRule{n} }),
}

// Kinds returns every registered kind, sorted.
func Kinds() []dsl.Kind {
	out := make([]dsl.Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Lookup returns the rule compiling n.
func Lookup(n dsl.Node) (Rule, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrInvalidSchema)
	}
	kind := n.Kind()
	if kind == "" {
		return nil, fmt.Errorf("%w: third-party schema nodes are not supported (%T)", ErrUnsupportedKind, n)
	}
	b, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	r, ok := b(n)
	if !ok {
		return nil, fmt.Errorf("%w: third-party schema nodes are not supported (%T reports kind %q)", ErrUnsupportedKind, n, kind)
	}
	return r, nil
}

// Compile emits the statements validating n into ctx.
func (u *Unit) Compile(n dsl.Node, ctx Context, path Path) ([]ir.Stmt, error) {
	r, err := Lookup(n)
	if err != nil {
		return nil, err
	}
	return r.Compile(u, ctx, path)
}

// CompileScoped compiles n and wraps the result in the prelude and postlude
// of ctx.
func (u *Unit) CompileScoped(n dsl.Node, ctx Context, path Path) ([]ir.Stmt, error) {
	body, err := u.Compile(n, ctx, path)
	if err != nil {
		return nil, err
	}
	out := append([]ir.Stmt{}, ctx.Prelude()...)
	out = append(out, body...)
	return append(out, ctx.Postlude()...), nil
}

// Result is the product of compiling a schema into a function.
type Result struct {
	Func         ir.Func
	Dependencies []any
}

// Compile compiles n into a validator function named name.
func Compile(n dsl.Node, mode InliningMode, name string) (*Result, error) {
	u := NewUnit(mode)
	body, err := u.CompileScoped(n, NewFunctionContext(u), EmptyPath())
	if err != nil {
		return nil, err
	}
	return &Result{
		Func: ir.Func{
			Name:  name,
			Input: u.Input.(ir.Ident).Name,
			Ctx:   u.Ctx.(ir.Ident).Name,
			Body:  body,
		},
		Dependencies: u.Deps.Values(),
	}, nil
}

// lazyRule compiles the target of a lazy node in place.
type lazyRule struct{ node *dsl.LazyNode }

func (r lazyRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	if slices.Contains(u.active, r.node) {
		return nil, fmt.Errorf("%w: lazy node expands into itself", ErrCyclicSchema)
	}
	u.active = append(u.active, r.node)
	defer func() { u.active = u.active[:len(u.active)-1] }()
	return u.Compile(r.node.Resolve(), ctx, path)
}

func (r lazyRule) GoType(t *TypeUnit) (jen.Code, error) {
	if slices.Contains(t.active, r.node) {
		return nil, fmt.Errorf("%w: lazy node expands into itself", ErrCyclicSchema)
	}
	t.active = append(t.active, r.node)
	defer func() { t.active = t.active[:len(t.active)-1] }()
	return t.Of(r.node.Resolve())
}

// forwardRule compiles its inner node unchanged (branded, described).
type forwardRule struct{ inner dsl.Node }

func (r forwardRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	return u.Compile(r.inner, ctx, path)
}

func (r forwardRule) GoType(t *TypeUnit) (jen.Code, error) { return t.Of(r.inner) }
