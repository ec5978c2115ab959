package compiler

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

type stringRule struct{ node *dsl.StringNode }

// formatChecks maps format constraints onto verify.CheckFormat names.
var formatChecks = map[dsl.StringCheckKind]string{
	dsl.StringEmail:     verify.FormatEmail,
	dsl.StringEmoji:     verify.FormatEmoji,
	dsl.StringUUID:      verify.FormatUUID,
	dsl.StringNanoID:    verify.FormatNanoID,
	dsl.StringCUID:      verify.FormatCUID,
	dsl.StringCUID2:     verify.FormatCUID2,
	dsl.StringULID:      verify.FormatULID,
	dsl.StringDate:      verify.FormatDate,
	dsl.StringDuration:  verify.FormatDuration,
	dsl.StringBase64:    verify.FormatBase64,
	dsl.StringBase64URL: verify.FormatBase64URL,
}

var stringTransforms = map[dsl.StringCheckKind]string{
	dsl.StringTrim:        "Trim",
	dsl.StringToLowerCase: "ToLower",
	dsl.StringToUpperCase: "ToUpper",
}

func (r stringRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	checks := r.node.Checks()
	var pre []ir.Stmt
	mutable := r.node.Coerced()
	for _, ck := range checks {
		if _, ok := stringTransforms[ck.Kind]; ok {
			mutable = true
		}
	}
	if mutable {
		value := ctx.Input()
		if r.node.Coerced() {
			value = ir.C("ToString", value)
		}
		name := u.Name("str")
		pre = []ir.Stmt{ir.Var{Name: name, Type: ir.TypeAny, Value: value}}
		ctx = ctx.WithInput(ir.Id(name))
	}
	in := ctx.Input()
	length := ir.C("StringLength", in)

	var body []ir.Stmt
	invalid := func(cond ir.Expr, validation string, msg string, params ...ir.IssueField) {
		fields := []ir.IssueField{field("Validation", ir.L(validation))}
		body = append(body, check(ctx, cond, newIssue(verify.CodeInvalidString, path, msg, append(fields, params...)...)))
	}
	for _, ck := range checks {
		if fn, ok := stringTransforms[ck.Kind]; ok {
			body = append(body, ir.Assign{Target: in, Value: ir.C(fn, in)})
			continue
		}
		if name, ok := formatChecks[ck.Kind]; ok {
			invalid(not(ir.C("CheckFormat", ir.L(name), in)), string(ck.Kind), ck.Message)
			continue
		}
		switch ck.Kind {
		case dsl.StringMin:
			body = append(body, check(ctx, ir.Binary{Op: "<", X: length, Y: ir.L(ck.Value)},
				newIssue(verify.CodeTooSmall, path, ck.Message, bounds("Minimum", ir.L(ck.Value), "string", true, false)...)))
		case dsl.StringMax:
			body = append(body, check(ctx, ir.Binary{Op: ">", X: length, Y: ir.L(ck.Value)},
				newIssue(verify.CodeTooBig, path, ck.Message, bounds("Maximum", ir.L(ck.Value), "string", true, false)...)))
		case dsl.StringLength:
			body = append(body, exactLength(ctx, path, length, ck.Value, "string", ck.Message))
		case dsl.StringURL:
			invalid(not(ir.C("IsURL", in)), "url", ck.Message)
		case dsl.StringRegex:
			if ck.Regex == nil {
				return nil, fmt.Errorf("%w: regex check without a pattern", ErrInvalidSchema)
			}
			invalid(not(ir.C("MatchRegexp", ir.RegexpLit{Source: ck.Regex.String()}, in)), "regex", ck.Message)
		case dsl.StringDatetime:
			re := ir.RegexpLit{Source: verify.DatetimePattern(ck.Precision, ck.Offset, ck.Local)}
			invalid(not(ir.C("MatchRegexp", re, in)), "datetime", ck.Message)
		case dsl.StringTime:
			re := ir.RegexpLit{Source: verify.TimePattern(ck.Precision)}
			invalid(not(ir.C("MatchRegexp", re, in)), "time", ck.Message)
		case dsl.StringIP:
			invalid(not(ir.C("IsIP", in, ir.L(ck.Version))), "ip", ck.Message)
		case dsl.StringCIDR:
			invalid(not(ir.C("IsCIDR", in, ir.L(ck.Version))), "cidr", ck.Message)
		case dsl.StringJWT:
			invalid(not(ir.C("IsValidJWT", in, ir.L(ck.Alg))), "jwt", ck.Message)
		case dsl.StringIncludes:
			params := ir.ObjectLit{Keys: []string{"includes"}, Values: []ir.Expr{ir.L(ck.Text)}}
			if ck.Position != 0 {
				params.Keys = append(params.Keys, "position")
				params.Values = append(params.Values, ir.L(ck.Position))
			}
			invalid(not(ir.C("Includes", in, ir.L(ck.Text), ir.L(ck.Position))), "includes", ck.Message, field("Params", params))
		case dsl.StringStartsWith:
			params := ir.ObjectLit{Keys: []string{"startsWith"}, Values: []ir.Expr{ir.L(ck.Text)}}
			invalid(not(ir.C("StartsWith", in, ir.L(ck.Text))), "startsWith", ck.Message, field("Params", params))
		case dsl.StringEndsWith:
			params := ir.ObjectLit{Keys: []string{"endsWith"}, Values: []ir.Expr{ir.L(ck.Text)}}
			invalid(not(ir.C("EndsWith", in, ir.L(ck.Text))), "endsWith", ck.Message, field("Params", params))
		default:
			return nil, fmt.Errorf("%w: string check %q", ErrInvalidSchema, ck.Kind)
		}
	}
	body = append(body, ctx.Outputs(in)...)
	return concat(pre, guarded(ctx, path, not(ir.C("IsString", in)), ir.L(verify.ParsedString), body)), nil
}

func (stringRule) GoType(*TypeUnit) (jen.Code, error) { return jen.String(), nil }

// exactLength reports too_big or too_small, both exact, when length differs
// from want.
func exactLength(ctx Context, path Path, length ir.Expr, want int, typ, msg string) ir.Stmt {
	return ir.If{
		Cond: ir.Binary{Op: ">", X: length, Y: ir.L(want)},
		Then: fail(ctx, newIssue(verify.CodeTooBig, path, msg, bounds("Maximum", ir.L(want), typ, true, true)...), StatusDirty),
		Else: []ir.Stmt{check(ctx, ir.Binary{Op: "<", X: length, Y: ir.L(want)},
			newIssue(verify.CodeTooSmall, path, msg, bounds("Minimum", ir.L(want), typ, true, true)...))},
	}
}
