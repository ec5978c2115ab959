package compiler

import (
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

const verifyPkg = "github.com/reoring/goskemac/verify"

func newIssue(code verify.IssueCode, path Path, msg string, fields ...ir.IssueField) ir.Issue {
	return ir.Issue{Code: code, Path: path.Expr(), Fields: fields, Message: msg}
}

func field(name string, v ir.Expr) ir.IssueField { return ir.IssueField{Name: name, Value: v} }

// bounds returns the fields of a too_small or too_big issue.
func bounds(limit string, v ir.Expr, typ string, inclusive, exact bool) []ir.IssueField {
	out := []ir.IssueField{field(limit, v), field("Type", ir.L(typ))}
	if inclusive {
		out = append(out, field("Inclusive", ir.L(true)))
	}
	if exact {
		out = append(out, field("Exact", ir.L(true)))
	}
	return out
}

func concat(parts ...[]ir.Stmt) []ir.Stmt {
	var out []ir.Stmt
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// fail reports issue and marks the scope with status, short-circuiting.
func fail(ctx Context, issue ir.Issue, status ir.Expr) []ir.Stmt {
	return concat(ctx.Report(issue, nil), ctx.Status(status, true))
}

// invalidType reports an invalid_type issue for the context input.
func invalidType(ctx Context, path Path, expected ir.Expr) []ir.Stmt {
	return fail(ctx, newIssue(verify.CodeInvalidType, path, "",
		field("Expected", expected),
		field("Received", ir.C("TypeOf", ctx.Input())),
	), StatusInvalid)
}

// guarded runs body when cond does not hold and reports invalid_type
// otherwise.
func guarded(ctx Context, path Path, cond ir.Expr, expected ir.Expr, body []ir.Stmt) []ir.Stmt {
	return []ir.Stmt{ir.If{Cond: cond, Then: invalidType(ctx, path, expected), Else: body}}
}

// check emits a constraint guard: when cond holds, issue is reported with
// DIRTY.
func check(ctx Context, cond ir.Expr, issue ir.Issue) ir.Stmt {
	return ir.If{Cond: cond, Then: fail(ctx, issue, StatusDirty)}
}

func not(e ir.Expr) ir.Expr { return ir.Not{X: e} }

// coerce binds the converted input to a fresh local when on is set.
func coerce(u *Unit, ctx Context, fn string, on bool) ([]ir.Stmt, Context) {
	if !on {
		return nil, ctx
	}
	name := u.Name("coerced")
	return []ir.Stmt{ir.Var{Name: name, Type: ir.TypeAny, Value: ir.C(fn, ctx.Input())}}, ctx.WithInput(ir.Id(name))
}

// literals returns the expressions of vals, inlined where the mode allows.
func literals(u *Unit, vals []any) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(vals))
	for i, v := range vals {
		e, err := u.Deps.AddOrInline(v)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
