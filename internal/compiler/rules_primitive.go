package compiler

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

type numberRule struct{ node *dsl.NumberNode }

func (r numberRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	pre, ctx := coerce(u, ctx, "ToNumber", r.node.Coerced())
	in := ctx.Input()
	num := ir.C("Float", in)
	var body []ir.Stmt
	for _, ck := range r.node.Checks() {
		switch ck.Kind {
		case dsl.NumberInt:
			body = append(body, check(ctx, not(ir.C("IsInteger", in)), newIssue(verify.CodeInvalidType, path, ck.Message,
				field("Expected", ir.L(verify.ParsedInteger)),
				field("Received", ir.L(verify.ParsedFloat)),
			)))
		case dsl.NumberMin:
			op := "<="
			if ck.Inclusive {
				op = "<"
			}
			body = append(body, check(ctx, ir.Binary{Op: op, X: num, Y: ir.L(ck.Value)},
				newIssue(verify.CodeTooSmall, path, ck.Message, bounds("Minimum", ir.L(ck.Value), "number", ck.Inclusive, false)...)))
		case dsl.NumberMax:
			op := ">="
			if ck.Inclusive {
				op = ">"
			}
			body = append(body, check(ctx, ir.Binary{Op: op, X: num, Y: ir.L(ck.Value)},
				newIssue(verify.CodeTooBig, path, ck.Message, bounds("Maximum", ir.L(ck.Value), "number", ck.Inclusive, false)...)))
		case dsl.NumberMultipleOf:
			body = append(body, check(ctx, ir.Ne(ir.C("FloatSafeRemainder", num, ir.L(ck.Value)), ir.L(0.0)),
				newIssue(verify.CodeNotMultipleOf, path, ck.Message, field("MultipleOf", ir.L(ck.Value)))))
		case dsl.NumberFinite:
			body = append(body, check(ctx, not(ir.C("IsFinite", in)), newIssue(verify.CodeNotFinite, path, ck.Message)))
		default:
			return nil, fmt.Errorf("%w: number check %q", ErrInvalidSchema, ck.Kind)
		}
	}
	body = append(body, ctx.Outputs(in)...)
	return concat(pre, guarded(ctx, path, not(ir.C("IsNumber", in)), ir.L(verify.ParsedNumber), body)), nil
}

func (numberRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Float64(), nil }

type bigintRule struct{ node *dsl.BigIntNode }

func (r bigintRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	pre, ctx := coerce(u, ctx, "ToBigInt", r.node.Coerced())
	in := ctx.Input()
	var body []ir.Stmt
	for _, ck := range r.node.Checks() {
		if ck.Value == nil {
			return nil, fmt.Errorf("%w: bigint %s check without a value", ErrInvalidSchema, ck.Kind)
		}
		v, err := u.Deps.AddOrInline(ck.Value)
		if err != nil {
			return nil, err
		}
		cmp := ir.C("BigCmp", in, v)
		switch ck.Kind {
		case dsl.NumberMin:
			op := "<="
			if ck.Inclusive {
				op = "<"
			}
			body = append(body, check(ctx, ir.Binary{Op: op, X: cmp, Y: ir.L(0)},
				newIssue(verify.CodeTooSmall, path, ck.Message, bounds("Minimum", v, "bigint", ck.Inclusive, false)...)))
		case dsl.NumberMax:
			op := ">="
			if ck.Inclusive {
				op = ">"
			}
			body = append(body, check(ctx, ir.Binary{Op: op, X: cmp, Y: ir.L(0)},
				newIssue(verify.CodeTooBig, path, ck.Message, bounds("Maximum", v, "bigint", ck.Inclusive, false)...)))
		case dsl.NumberMultipleOf:
			body = append(body, check(ctx, not(ir.C("BigMultipleOf", in, v)),
				newIssue(verify.CodeNotMultipleOf, path, ck.Message, field("MultipleOf", v))))
		default:
			return nil, fmt.Errorf("%w: bigint check %q", ErrInvalidSchema, ck.Kind)
		}
	}
	body = append(body, ctx.Outputs(in)...)
	return concat(pre, guarded(ctx, path, not(ir.C("IsBigInt", in)), ir.L(verify.ParsedBigInt), body)), nil
}

func (bigintRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Op("*").Qual("math/big", "Int"), nil }

type booleanRule struct{ node *dsl.BooleanNode }

func (r booleanRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	pre, ctx := coerce(u, ctx, "ToBool", r.node.Coerced())
	in := ctx.Input()
	return concat(pre, guarded(ctx, path, not(ir.C("IsBool", in)), ir.L(verify.ParsedBoolean), ctx.Outputs(in))), nil
}

func (booleanRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Bool(), nil }

type dateRule struct{ node *dsl.DateNode }

func (r dateRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	pre, ctx := coerce(u, ctx, "ToDate", r.node.Coerced())
	in := ctx.Input()
	ms := ir.C("UnixMilli", in)
	var body []ir.Stmt
	for _, ck := range r.node.Checks() {
		limit := ir.L(ck.Value.UnixMilli())
		switch ck.Kind {
		case dsl.NumberMin:
			body = append(body, check(ctx, ir.Binary{Op: "<", X: ms, Y: limit},
				newIssue(verify.CodeTooSmall, path, ck.Message, bounds("Minimum", limit, "date", true, false)...)))
		case dsl.NumberMax:
			body = append(body, check(ctx, ir.Binary{Op: ">", X: ms, Y: limit},
				newIssue(verify.CodeTooBig, path, ck.Message, bounds("Maximum", limit, "date", true, false)...)))
		default:
			return nil, fmt.Errorf("%w: date check %q", ErrInvalidSchema, ck.Kind)
		}
	}
	body = append(body, ctx.Outputs(in)...)
	valid := []ir.Stmt{ir.If{
		Cond: not(ir.C("IsValidDate", in)),
		Then: fail(ctx, newIssue(verify.CodeInvalidDate, path, ""), StatusInvalid),
		Else: body,
	}}
	return concat(pre, guarded(ctx, path, not(ir.C("IsDate", in)), ir.L(verify.ParsedDate), valid)), nil
}

func (dateRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Qual("time", "Time"), nil }

// typeRule accepts exactly the values passing one guard helper.
type typeRule struct {
	guard    string
	expected verify.ParsedType
	goType   func() jen.Code
}

func (r typeRule) Compile(_ *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	return guarded(ctx, path, not(ir.C(r.guard, in)), ir.L(r.expected), ctx.Outputs(in)), nil
}

func (r typeRule) GoType(*TypeUnit) (jen.Code, error) { return r.goType(), nil }

func anyType() jen.Code    { return jen.Id("any") }
func floatType() jen.Code  { return jen.Float64() }
func symbolType() jen.Code { return jen.Op("*").Qual(verifyPkg, "Symbol") }

// passRule accepts everything (any, unknown).
type passRule struct{}

func (passRule) Compile(_ *Unit, ctx Context, _ Path) ([]ir.Stmt, error) {
	return ctx.Outputs(ctx.Input()), nil
}

func (passRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Id("any"), nil }

type neverRule struct{}

func (neverRule) Compile(_ *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	return invalidType(ctx, path, ir.L(verify.ParsedNever)), nil
}

func (neverRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Struct(), nil }

type literalRule struct{ node *dsl.LiteralNode }

func (r literalRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	lit, err := u.Deps.AddOrInline(r.node.Value())
	if err != nil {
		return nil, err
	}
	in := ctx.Input()
	return []ir.Stmt{ir.If{
		Cond: not(ir.C("StrictEqual", in, lit)),
		Then: fail(ctx, newIssue(verify.CodeInvalidLiteral, path, "",
			field("Expected", lit),
			field("Received", in),
		), StatusInvalid),
		Else: ctx.Outputs(in),
	}}, nil
}

func (r literalRule) GoType(*TypeUnit) (jen.Code, error) { return scalarType([]any{r.node.Value()}), nil }

// scalarType is the common Go type of vals, or any.
func scalarType(vals []any) jen.Code {
	var strs, nums, bools int
	for _, v := range vals {
		switch verify.TypeOf(v) {
		case verify.ParsedString:
			strs++
		case verify.ParsedNumber:
			nums++
		case verify.ParsedBoolean:
			bools++
		}
	}
	switch len(vals) {
	case strs:
		return jen.String()
	case nums:
		return jen.Float64()
	case bools:
		return jen.Bool()
	}
	return jen.Id("any")
}

type enumRule struct{ node *dsl.EnumNode }

func (r enumRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	values := r.node.Values()
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: enum without values", ErrInvalidSchema)
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return enumBody(u, ctx, path, vals, ir.C("IsString", ctx.Input()))
}

func (enumRule) GoType(*TypeUnit) (jen.Code, error) { return jen.String(), nil }

type nativeEnumRule struct{ node *dsl.NativeEnumNode }

func (r nativeEnumRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	vals := r.node.Values()
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: native enum without members", ErrInvalidSchema)
	}
	for _, v := range vals {
		if t := verify.TypeOf(v); t != verify.ParsedString && t != verify.ParsedNumber {
			return nil, fmt.Errorf("%w: native enum value %v is neither string nor number", ErrInvalidSchema, v)
		}
	}
	in := ctx.Input()
	guard := ir.Binary{Op: "||", X: ir.C("IsString", in), Y: ir.C("IsNumber", in)}
	return enumBody(u, ctx, path, vals, guard)
}

func (r nativeEnumRule) GoType(*TypeUnit) (jen.Code, error) { return scalarType(r.node.Values()), nil }

// enumBody guards the input kind, then dispatches on the value.
func enumBody(u *Unit, ctx Context, path Path, vals []any, guard ir.Expr) ([]ir.Stmt, error) {
	lits, err := literals(u, vals)
	if err != nil {
		return nil, err
	}
	in := ctx.Input()
	expected := ir.L(verify.JoinValues(vals, " | "))
	dispatch := ir.Switch{
		Tag:   in,
		Cases: []ir.Case{{Values: lits, Body: ctx.Outputs(in)}},
		Default: fail(ctx, newIssue(verify.CodeInvalidEnumValue, path, "",
			field("Options", ir.ArrayLit{Elems: lits}),
			field("Received", in),
		), StatusInvalid),
	}
	return guarded(ctx, path, not(guard), expected, []ir.Stmt{dispatch}), nil
}
