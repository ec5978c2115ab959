package compiler

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

type unionRule struct{ node *dsl.UnionNode }

// Compile tries every option against a forked verifier context. The first
// VALID option wins; otherwise the first DIRTY option is adopted; otherwise
// invalid_union carries the issues of every option.
func (r unionRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	options := r.node.Options()
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: union without options", ErrInvalidSchema)
	}
	label := u.Name("union")
	issues := u.Name("unionIssues")
	dirtyResult := u.Name("dirtyResult")
	dirtyCtx := u.Name("dirtyCtx")

	var body []ir.Stmt
	for i, opt := range options {
		optLabel := u.Name("option")
		optStatus := u.Name("optionStatus")
		optCtx := u.Name("optionCtx")
		optOut := u.Name("optionOut")
		variant := labeledContext{
			scope: scope{
				input:    ctx.Input(),
				verifier: ir.Id(optCtx),
				output:   AssignTo(ir.Id(optOut)),
			},
			status:  optStatus,
			label:   optLabel,
			declare: true,
			postlude: []ir.Stmt{
				ir.If{
					Cond: ir.Eq(ir.Id(optStatus), ir.L(verify.Valid)),
					Then: concat(ctx.Outputs(ir.Id(optOut)), []ir.Stmt{ir.Break{Label: label}}),
					Else: []ir.Stmt{ir.If{
						Cond: ir.Binary{Op: "&&",
							X: ir.Eq(ir.Id(optStatus), ir.L(verify.Dirty)),
							Y: ir.Eq(ir.Id(dirtyCtx), ir.L(nil)),
						},
						Then: []ir.Stmt{
							ir.Assign{Target: ir.Id(dirtyResult), Value: ir.Id(optOut)},
							ir.Assign{Target: ir.Id(dirtyCtx), Value: ir.Id(optCtx)},
						},
					}},
				},
				ir.Assign{Target: ir.Id(issues), Value: ir.Method{Recv: ir.Id(issues), Name: "Collect", Args: []ir.Expr{ir.Id(optCtx)}}},
			},
		}
		stmts, err := u.Compile(opt, variant, path)
		if err != nil {
			return nil, fmt.Errorf("union option %d: %w", i, err)
		}
		body = append(body,
			ir.Var{Name: optCtx, Type: ir.TypeContext, Value: ir.Method{Recv: ctx.Verifier(), Name: "Fork"}},
			ir.Var{Name: optOut, Type: ir.TypeAny},
		)
		body = append(body, variant.Prelude()...)
		body = append(body, ir.Labeled{Label: optLabel, Body: stmts})
		body = append(body, variant.Postlude()...)
	}
	body = append(body, ir.If{
		Cond: ir.Ne(ir.Id(dirtyCtx), ir.L(nil)),
		Then: concat(
			[]ir.Stmt{ir.ExprStmt{X: ir.Method{Recv: ctx.Verifier(), Name: "Adopt", Args: []ir.Expr{ir.Id(dirtyCtx)}}}},
			ctx.Outputs(ir.Id(dirtyResult)),
			ctx.Status(StatusDirty, true),
		),
		Else: fail(ctx, newIssue(verify.CodeInvalidUnion, path, "", field("UnionErrors", ir.Id(issues))), StatusInvalid),
	})
	return []ir.Stmt{
		ir.Var{Name: issues, Type: ir.TypeIssueSets},
		ir.Var{Name: dirtyResult, Type: ir.TypeAny},
		ir.Var{Name: dirtyCtx, Type: ir.TypeContext},
		ir.Labeled{Label: label, Body: body},
	}, nil
}

func (unionRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Id("any"), nil }

type discriminatedUnionRule struct{ node *dsl.DiscriminatedUnionNode }

// discriminatorValues returns the values an option claims for key.
func discriminatorValues(opt *dsl.ObjectNode, key string) ([]any, error) {
	n, ok := opt.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: option does not declare discriminator %q", ErrInvalidSchema, key)
	}
	switch x := dsl.Unwrap(n).(type) {
	case *dsl.LiteralNode:
		return []any{x.Value()}, nil
	case *dsl.EnumNode:
		out := make([]any, 0, len(x.Values()))
		for _, v := range x.Values() {
			out = append(out, v)
		}
		return out, nil
	case *dsl.NativeEnumNode:
		return x.Values(), nil
	}
	return nil, fmt.Errorf("%w: discriminator %q must be a literal or an enum", ErrInvalidSchema, key)
}

func (r discriminatedUnionRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	key := r.node.Discriminator()
	options := r.node.Options()
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: discriminated union without options", ErrInvalidSchema)
	}
	in := ctx.Input()
	tag := u.Name("discriminator")
	var all []any
	sw := ir.Switch{Tag: ir.Id(tag)}
	for i, opt := range options {
		if opt == nil {
			return nil, fmt.Errorf("%w: discriminated union option %d is not an object", ErrInvalidSchema, i)
		}
		vals, err := discriminatorValues(opt, key)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			for _, seen := range all {
				if verify.StrictEqual(seen, v) {
					return nil, fmt.Errorf("%w: discriminator value %s is claimed by more than one option", ErrInvalidSchema, verify.FormatValue(v))
				}
			}
			all = append(all, v)
		}
		lits, err := literals(u, vals)
		if err != nil {
			return nil, err
		}
		stmts, err := objectRule{node: opt, skipTypeCheck: true}.Compile(u, ctx, path)
		if err != nil {
			return nil, fmt.Errorf("discriminated union option %d: %w", i, err)
		}
		sw.Cases = append(sw.Cases, ir.Case{Values: lits, Body: stmts})
	}
	optionLits, err := literals(u, all)
	if err != nil {
		return nil, err
	}
	sw.Default = concat(
		ctx.Report(newIssue(verify.CodeInvalidUnionDiscriminator, path.Push(key), "", field("Options", ir.ArrayLit{Elems: optionLits})), nil),
		ctx.Status(StatusInvalid, true),
	)
	body := []ir.Stmt{
		ir.Var{Name: tag, Type: ir.TypeAny, Value: ir.C("Prop", in, ir.L(key))},
		sw,
	}
	return guarded(ctx, path, ir.Ne(ir.C("TypeOf", in), ir.L(verify.ParsedObject)), ir.L(verify.ParsedObject), body), nil
}

func (discriminatedUnionRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Id("any"), nil }

type intersectionRule struct{ node *dsl.IntersectionNode }

// Compile validates both sides independently, then merges their outputs.
// The merge runs even when a side failed.
func (r intersectionRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	left, right := u.Name("left"), u.Name("right")
	leftLabel, rightLabel := u.Name("intersectLeft"), u.Name("intersectRight")
	merged := u.Name("merged")

	leftStmts, err := u.Compile(r.node.Left(), NewChildContext(ctx, in, AssignTo(ir.Id(left)), leftLabel, false), path)
	if err != nil {
		return nil, err
	}
	rightStmts, err := u.Compile(r.node.Right(), NewChildContext(ctx, in, AssignTo(ir.Id(right)), rightLabel, false), path)
	if err != nil {
		return nil, err
	}
	return []ir.Stmt{
		ir.Var{Name: left, Type: ir.TypeAny},
		ir.Var{Name: right, Type: ir.TypeAny},
		ir.Labeled{Label: leftLabel, Body: leftStmts},
		ir.Labeled{Label: rightLabel, Body: rightStmts},
		ir.Var{Name: merged, Type: ir.TypeMerge, Value: ir.C("MergeValues", ir.Id(left), ir.Id(right))},
		ir.If{
			Cond: ir.Field{X: ir.Id(merged), Name: "Valid"},
			Then: ctx.Outputs(ir.Field{X: ir.Id(merged), Name: "Data"}),
			Else: fail(ctx, newIssue(verify.CodeInvalidIntersectionTypes, path, ""), StatusInvalid),
		},
	}, nil
}

func (intersectionRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Id("any"), nil }

type optionalRule struct{ node *dsl.OptionalNode }

func (r optionalRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	return absentOr(u, ctx, path, "IsUndefined", r.node.Inner())
}

func (r optionalRule) GoType(t *TypeUnit) (jen.Code, error) { return pointerTo(t, r.node.Inner()) }

type nullableRule struct{ node *dsl.NullableNode }

func (r nullableRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	return absentOr(u, ctx, path, "IsNull", r.node.Inner())
}

func (r nullableRule) GoType(t *TypeUnit) (jen.Code, error) { return pointerTo(t, r.node.Inner()) }

// absentOr outputs the input unchanged when guard holds and validates it
// against inner otherwise.
func absentOr(u *Unit, ctx Context, path Path, guard string, inner dsl.Node) ([]ir.Stmt, error) {
	in := ctx.Input()
	stmts, err := u.Compile(inner, ctx, path)
	if err != nil {
		return nil, err
	}
	return []ir.Stmt{ir.If{Cond: ir.C(guard, in), Then: ctx.Outputs(in), Else: stmts}}, nil
}

func pointerTo(t *TypeUnit, inner dsl.Node) (jen.Code, error) {
	typ, err := t.Of(inner)
	if err != nil {
		return nil, err
	}
	if nilable(inner) {
		return typ, nil
	}
	return jen.Op("*").Add(typ), nil
}

// fallback returns the expression of a static value or of a factory call.
// Factories are functions, so aggressive inlining rejects them.
func fallback(u *Unit, value any, static bool, factory func() any) (ir.Expr, error) {
	if !static {
		if u.Deps.mode == InlineAggressive {
			return nil, fmt.Errorf("%w: value factory %T", ErrNotInlinable, factory)
		}
		return ir.C("Invoke", u.Deps.Add(factory)), nil
	}
	return u.Deps.AddOrInline(value)
}

type defaultRule struct{ node *dsl.DefaultNode }

func (r defaultRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	v, static := r.node.Value()
	value, err := fallback(u, v, static, r.node.Factory())
	if err != nil {
		return nil, err
	}
	name := u.Name("defaulted")
	stmts, err := u.Compile(r.node.Inner(), ctx.WithInput(ir.Id(name)), path)
	if err != nil {
		return nil, err
	}
	return concat([]ir.Stmt{
		ir.Var{Name: name, Type: ir.TypeAny, Value: ctx.Input()},
		ir.If{Cond: ir.C("IsUndefined", ir.Id(name)), Then: []ir.Stmt{ir.Assign{Target: ir.Id(name), Value: value}}},
	}, stmts), nil
}

func (r defaultRule) GoType(t *TypeUnit) (jen.Code, error) { return t.Of(r.node.Inner()) }

type catchRule struct{ node *dsl.CatchNode }

// Compile runs the inner node against a forked verifier context, so its
// issues never surface, and substitutes the fallback on any failure.
func (r catchRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	v, static := r.node.Value()
	value, err := fallback(u, v, static, r.node.Factory())
	if err != nil {
		return nil, err
	}
	label := u.Name("catch")
	status := u.Name("caughtStatus")
	out := u.Name("caughtOutput")
	fork := u.Name("caughtCtx")
	inner := labeledContext{
		scope: scope{
			input:    ctx.Input(),
			verifier: ir.Id(fork),
			output:   AssignTo(ir.Id(out)),
		},
		status: status,
		label:  label,
	}
	stmts, err := u.Compile(r.node.Inner(), inner, path)
	if err != nil {
		return nil, err
	}
	return []ir.Stmt{
		ir.Var{Name: status, Type: ir.TypeStatus},
		ir.Var{Name: out, Type: ir.TypeAny},
		ir.Var{Name: fork, Type: ir.TypeContext, Value: ir.Method{Recv: ctx.Verifier(), Name: "Fork"}},
		ir.Labeled{Label: label, Body: stmts},
		ir.If{
			Cond: ir.Ne(ir.Id(status), ir.L(verify.Valid)),
			Then: ctx.Outputs(value),
			Else: ctx.Outputs(ir.Id(out)),
		},
	}, nil
}

func (r catchRule) GoType(t *TypeUnit) (jen.Code, error) { return t.Of(r.node.Inner()) }

type readonlyRule struct{ node *dsl.ReadonlyNode }

func (r readonlyRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	return u.Compile(r.node.Inner(), readonlyContext{ctx}, path)
}

func (r readonlyRule) GoType(t *TypeUnit) (jen.Code, error) { return t.Of(r.node.Inner()) }
