package compiler

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

// objectRule validates declared properties in declaration order and applies
// the unknown-key policy. skipTypeCheck is set by a discriminated union that
// already proved the input is an object.
type objectRule struct {
	node          *dsl.ObjectNode
	skipTypeCheck bool
}

func (r objectRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	out := u.Name("object")
	body := []ir.Stmt{ir.Var{Name: out, Type: ir.TypeObject, Value: ir.C("NewObject")}}
	for _, f := range r.node.Fields() {
		label := u.Name("field")
		value := u.Name("value")
		key := f.Name
		child := NewChildContext(ctx, ir.Id(value), func(v ir.Expr) []ir.Stmt {
			return []ir.Stmt{ir.ExprStmt{X: ir.C("SetProp", ir.Id(out), ir.L(key), v)}}
		}, label, false)
		stmts, err := u.Compile(f.Node, child, path.Push(key))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		fieldBody := append([]ir.Stmt{ir.Var{Name: value, Type: ir.TypeAny, Value: ir.C("Prop", in, ir.L(key))}}, stmts...)
		body = append(body, ir.Labeled{Label: label, Body: fieldBody})
	}

	keys := ir.L(r.node.Keys())
	switch r.node.Policy() {
	case dsl.UnknownStrict:
		body = append(body, check(ctx, ir.C("HasExtraKeys", in, keys),
			newIssue(verify.CodeUnrecognizedKeys, path, r.node.StrictMessage(), field("Keys", ir.C("ExtraKeys", in, keys)))))
	case dsl.UnknownPassthrough:
		body = append(body, ir.ExprStmt{X: ir.C("CopyExtra", ir.Id(out), in, keys)})
	}
	body = append(body, ctx.Outputs(ir.Id(out))...)

	if r.skipTypeCheck {
		return body, nil
	}
	return guarded(ctx, path, ir.Ne(ir.C("TypeOf", in), ir.L(verify.ParsedObject)), ir.L(verify.ParsedObject), body), nil
}

func (r objectRule) GoType(t *TypeUnit) (jen.Code, error) {
	var fields []jen.Code
	names := map[string]int{}
	for _, f := range r.node.Fields() {
		typ, err := t.Of(f.Node)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if desc := dsl.Description(f.Node); desc != "" {
			fields = append(fields, jen.Comment(desc))
		}
		tag := f.Name
		if dsl.IsOptional(f.Node) {
			tag += ",omitempty"
		}
		fields = append(fields, jen.Id(uniqueField(names, exportName(f.Name))).Add(typ).Tag(map[string]string{"json": tag}))
	}
	return jen.Struct(fields...), nil
}

func uniqueField(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s%d", name, n+1)
}
