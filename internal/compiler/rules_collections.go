package compiler

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

type arrayRule struct{ node *dsl.ArrayNode }

func (r arrayRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	length := ir.C("ArrayLen", in)
	var body []ir.Stmt
	if ck := r.node.ExactLength(); ck != nil {
		body = append(body, exactLength(ctx, path, length, ck.Value, "array", ck.Message))
	}
	if ck := r.node.MinLength(); ck != nil {
		body = append(body, check(ctx, ir.Binary{Op: "<", X: length, Y: ir.L(ck.Value)},
			newIssue(verify.CodeTooSmall, path, ck.Message, bounds("Minimum", ir.L(ck.Value), "array", true, false)...)))
	}
	if ck := r.node.MaxLength(); ck != nil {
		body = append(body, check(ctx, ir.Binary{Op: ">", X: length, Y: ir.L(ck.Value)},
			newIssue(verify.CodeTooBig, path, ck.Message, bounds("Maximum", ir.L(ck.Value), "array", true, false)...)))
	}

	out := u.Name("array")
	body = append(body, ir.Var{Name: out, Type: ir.TypeSlice, Value: ir.C("NewArray", length)})
	loop, err := elements(u, ctx, path, r.node.Element(), ir.C("Elems", in), func(index, v ir.Expr) []ir.Stmt {
		return []ir.Stmt{ir.ExprStmt{X: ir.C("SetElem", ir.Id(out), index, v)}}
	})
	if err != nil {
		return nil, err
	}
	body = append(body, loop)
	body = append(body, ctx.Outputs(ir.Id(out))...)
	return guarded(ctx, path, not(ir.C("IsArray", in)), ir.L(verify.ParsedArray), body), nil
}

func (r arrayRule) GoType(t *TypeUnit) (jen.Code, error) {
	elem, err := t.Of(r.node.Element())
	if err != nil {
		return nil, err
	}
	return jen.Index().Add(elem), nil
}

// elements iterates seq, validating each element with a continue-escaping
// child whose output is stored by store(index, value).
func elements(u *Unit, ctx Context, path Path, elem dsl.Node, seq ir.Expr, store func(index, v ir.Expr) []ir.Stmt) (ir.Stmt, error) {
	label := u.Name("elements")
	index := u.Name("index")
	value := u.Name("elem")
	child := NewChildContext(ctx, ir.Id(value), func(v ir.Expr) []ir.Stmt {
		return store(ir.Id(index), v)
	}, label, true)
	stmts, err := u.Compile(elem, child, path.Push(ir.Id(index)))
	if err != nil {
		return nil, err
	}
	return ir.Range{Label: label, Key: index, Value: value, Seq: seq, Body: stmts}, nil
}

type setRule struct{ node *dsl.SetNode }

func (r setRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	size := ir.C("ArrayLen", in)
	var body []ir.Stmt
	if ck := r.node.MinSize(); ck != nil {
		body = append(body, check(ctx, ir.Binary{Op: "<", X: size, Y: ir.L(ck.Value)},
			newIssue(verify.CodeTooSmall, path, ck.Message, bounds("Minimum", ir.L(ck.Value), "set", true, false)...)))
	}
	if ck := r.node.MaxSize(); ck != nil {
		body = append(body, check(ctx, ir.Binary{Op: ">", X: size, Y: ir.L(ck.Value)},
			newIssue(verify.CodeTooBig, path, ck.Message, bounds("Maximum", ir.L(ck.Value), "set", true, false)...)))
	}
	out := u.Name("set")
	body = append(body, ir.Var{Name: out, Type: ir.TypeSet, Value: ir.C("NewSet")})
	loop, err := elements(u, ctx, path, r.node.Element(), ir.C("Elems", in), func(_, v ir.Expr) []ir.Stmt {
		return []ir.Stmt{ir.ExprStmt{X: ir.Method{Recv: ir.Id(out), Name: "Add", Args: []ir.Expr{v}}}}
	})
	if err != nil {
		return nil, err
	}
	body = append(body, loop)
	body = append(body, ctx.Outputs(ir.Id(out))...)
	return guarded(ctx, path, ir.Ne(ir.C("TypeOf", in), ir.L(verify.ParsedSet)), ir.L(verify.ParsedSet), body), nil
}

func (setRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Op("*").Qual(verifyPkg, "Set"), nil }

type tupleRule struct{ node *dsl.TupleNode }

func (r tupleRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	items := r.node.Items()
	rest := r.node.RestElement()
	n := len(items)
	length := ir.C("ArrayLen", in)

	var body []ir.Stmt
	if rest == nil {
		body = append(body, check(ctx, ir.Binary{Op: ">", X: length, Y: ir.L(n)},
			newIssue(verify.CodeTooBig, path, "", bounds("Maximum", ir.L(n), "array", true, false)...)))
	}
	out := u.Name("tuple")
	size := ir.Expr(ir.L(n))
	if rest != nil {
		size = length
	}
	body = append(body, ir.Var{Name: out, Type: ir.TypeSlice, Value: ir.C("NewArray", size)})
	for i, item := range items {
		label := u.Name("item")
		value := u.Name("value")
		child := NewChildContext(ctx, ir.Id(value), func(v ir.Expr) []ir.Stmt {
			return []ir.Stmt{ir.ExprStmt{X: ir.C("SetElem", ir.Id(out), ir.L(i), v)}}
		}, label, false)
		stmts, err := u.Compile(item, child, path.Push(i))
		if err != nil {
			return nil, fmt.Errorf("tuple item %d: %w", i, err)
		}
		body = append(body, ir.Labeled{Label: label, Body: concat(
			[]ir.Stmt{ir.Var{Name: value, Type: ir.TypeAny, Value: ir.C("Elem", in, ir.L(i))}},
			stmts,
		)})
	}
	if rest != nil {
		loop, err := elements(u, ctx, path, rest, ir.C("ElemsFrom", in, ir.L(n)), func(index, v ir.Expr) []ir.Stmt {
			return []ir.Stmt{ir.ExprStmt{X: ir.C("SetElem", ir.Id(out), index, v)}}
		})
		if err != nil {
			return nil, err
		}
		body = append(body, loop)
	}
	body = append(body, ctx.Outputs(ir.Id(out))...)

	short := ir.If{
		Cond: ir.Binary{Op: "<", X: length, Y: ir.L(n)},
		Then: fail(ctx, newIssue(verify.CodeTooSmall, path, "", bounds("Minimum", ir.L(n), "array", true, false)...), StatusInvalid),
		Else: body,
	}
	return guarded(ctx, path, not(ir.C("IsArray", in)), ir.L(verify.ParsedArray), []ir.Stmt{short}), nil
}

func (tupleRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Index().Id("any"), nil }

// keyed compiles the body of one record or map entry: the key and the value
// are validated in independent break-labeled children.
type keyed struct {
	key, value dsl.Node
	keyIn      ir.Expr
	valueIn    ir.Expr
	keyInit    ir.Expr
	keyPath    Path
	store      func(k, v ir.Expr) ir.Stmt
}

func (k keyed) compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	keyOut := u.Name("keyOut")
	valueOut := u.Name("valueOut")
	keyLabel := u.Name("key")
	valueLabel := u.Name("val")

	keyStmts, err := u.Compile(k.key, NewChildContext(ctx, k.keyIn, AssignTo(ir.Id(keyOut)), keyLabel, false), k.keyPath)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	valueStmts, err := u.Compile(k.value, NewChildContext(ctx, k.valueIn, AssignTo(ir.Id(valueOut)), valueLabel, false), path.Push(ir.Id(keyOut)))
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	return []ir.Stmt{
		ir.Var{Name: keyOut, Type: ir.TypeAny, Value: k.keyInit},
		ir.Labeled{Label: keyLabel, Body: keyStmts},
		ir.Var{Name: valueOut, Type: ir.TypeAny},
		ir.Labeled{Label: valueLabel, Body: valueStmts},
		k.store(ir.Id(keyOut), ir.Id(valueOut)),
	}, nil
}

type recordRule struct{ node *dsl.RecordNode }

func (r recordRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	out := u.Name("record")
	key := u.Name("k")
	value := u.Name("v")
	entry, err := keyed{
		key:     r.node.Key(),
		value:   r.node.Value(),
		keyIn:   ir.Id(key),
		valueIn: ir.Id(value),
		keyInit: ir.Id(key),
		keyPath: path.Push(ir.Id(key)),
		store: func(k, v ir.Expr) ir.Stmt {
			return ir.ExprStmt{X: ir.C("SetProp", ir.Id(out), k, v)}
		},
	}.compile(u, ctx, path)
	if err != nil {
		return nil, err
	}
	body := []ir.Stmt{
		ir.Var{Name: out, Type: ir.TypeObject, Value: ir.C("NewObject")},
		ir.Range{Key: key, Value: value, Seq: ir.C("Fields", in), Body: entry},
	}
	body = append(body, ctx.Outputs(ir.Id(out))...)
	return guarded(ctx, path, ir.Ne(ir.C("TypeOf", in), ir.L(verify.ParsedObject)), ir.L(verify.ParsedObject), body), nil
}

func (r recordRule) GoType(t *TypeUnit) (jen.Code, error) {
	v, err := t.Of(r.node.Value())
	if err != nil {
		return nil, err
	}
	return jen.Map(jen.String()).Add(v), nil
}

type mapRule struct{ node *dsl.MapNode }

func (r mapRule) Compile(u *Unit, ctx Context, path Path) ([]ir.Stmt, error) {
	in := ctx.Input()
	out := u.Name("dict")
	key := u.Name("k")
	value := u.Name("v")
	entry, err := keyed{
		key:     r.node.Key(),
		value:   r.node.Value(),
		keyIn:   ir.Id(key),
		valueIn: ir.Id(value),
		keyInit: ir.Id(key),
		keyPath: path,
		store: func(k, v ir.Expr) ir.Stmt {
			return ir.ExprStmt{X: ir.Method{Recv: ir.Id(out), Name: "Set", Args: []ir.Expr{k, v}}}
		},
	}.compile(u, ctx, path)
	if err != nil {
		return nil, err
	}
	body := []ir.Stmt{
		ir.Var{Name: out, Type: ir.TypeMap, Value: ir.C("NewMap")},
		ir.Range{Key: key, Value: value, Seq: ir.C("Entries", in), Body: entry},
	}
	body = append(body, ctx.Outputs(ir.Id(out))...)
	return guarded(ctx, path, ir.Ne(ir.C("TypeOf", in), ir.L(verify.ParsedMap)), ir.L(verify.ParsedMap), body), nil
}

func (mapRule) GoType(*TypeUnit) (jen.Code, error) { return jen.Op("*").Qual(verifyPkg, "Map"), nil }
