// Package exec turns compiled IR into an in-process validator by building a
// tree of Go closures over a slot frame. It is the in-process counterpart of
// internal/gen: both give the IR identical semantics.
package exec

import (
	"fmt"
	"iter"
	"math/big"
	"reflect"
	"regexp"
	"time"

	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

type frame struct{ slots []any }

type flow uint8

const (
	flowNext flow = iota
	flowBreak
	flowContinue
	flowReturn
)

type signal struct {
	flow   flow
	label  string
	status verify.Status
}

type (
	evalFn func(*frame) any
	execFn func(*frame) signal
)

type compiler struct {
	slots   map[string]int
	regexps map[string]*regexp.Regexp
}

// Compile builds a verify.ParserFunc executing fn. Every invocation uses its
// own frame, so the result is safe for concurrent use.
func Compile(fn ir.Func) (verify.ParserFunc, error) {
	c := &compiler{
		slots:   map[string]int{fn.Input: 0, fn.Ctx: 1},
		regexps: map[string]*regexp.Regexp{},
	}
	c.declare(fn.Body)
	body, err := c.block(fn.Body)
	if err != nil {
		return nil, fmt.Errorf("exec %s: %w", fn.Name, err)
	}
	size := len(c.slots)
	return func(input any, ctx *verify.Context) verify.Status {
		f := &frame{slots: make([]any, size)}
		f.slots[0] = input
		f.slots[1] = ctx
		sig := body(f)
		if sig.flow == flowReturn {
			return sig.status
		}
		return verify.Valid
	}, nil
}

// declare assigns a slot to every local. Compiled names are unique within a
// function, so a flat namespace suffices.
func (c *compiler) declare(body []ir.Stmt) {
	add := func(name string) {
		if name == "" || name == "_" {
			return
		}
		if _, ok := c.slots[name]; !ok {
			c.slots[name] = len(c.slots)
		}
	}
	ir.Walk(body, func(s ir.Stmt) {
		switch x := s.(type) {
		case ir.Var:
			add(x.Name)
		case ir.Range:
			add(x.Key)
			add(x.Value)
		}
	}, nil)
}

func (c *compiler) slot(name string) (int, error) {
	i, ok := c.slots[name]
	if !ok {
		return 0, fmt.Errorf("undeclared identifier %q", name)
	}
	return i, nil
}

func (c *compiler) block(list []ir.Stmt) (execFn, error) {
	fns := make([]execFn, 0, len(list))
	for _, s := range list {
		fn, err := c.stmt(s)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return func(f *frame) signal {
		for _, fn := range fns {
			if sig := fn(f); sig.flow != flowNext {
				return sig
			}
		}
		return signal{}
	}, nil
}

func zero(t ir.VarType) any {
	switch t {
	case ir.TypeStatus:
		return verify.Valid
	case ir.TypeBool:
		return false
	case ir.TypeIssueSets:
		return verify.IssueSets(nil)
	case ir.TypeMerge:
		return verify.MergeResult{}
	case ir.TypeParsed:
		return verify.ParsedType("")
	}
	return nil
}

func (c *compiler) stmt(s ir.Stmt) (execFn, error) {
	switch x := s.(type) {
	case ir.Var:
		i, err := c.slot(x.Name)
		if err != nil {
			return nil, err
		}
		if x.Value == nil {
			z := zero(x.Type)
			return func(f *frame) signal {
				f.slots[i] = z
				return signal{}
			}, nil
		}
		v, err := c.expr(x.Value)
		if err != nil {
			return nil, err
		}
		return func(f *frame) signal {
			f.slots[i] = v(f)
			return signal{}
		}, nil

	case ir.Assign:
		v, err := c.expr(x.Value)
		if err != nil {
			return nil, err
		}
		switch t := x.Target.(type) {
		case ir.Ident:
			i, err := c.slot(t.Name)
			if err != nil {
				return nil, err
			}
			return func(f *frame) signal {
				f.slots[i] = v(f)
				return signal{}
			}, nil
		case ir.Field:
			if t.Name != "Output" {
				return nil, fmt.Errorf("cannot assign field %s", t.Name)
			}
			recv, err := c.expr(t.X)
			if err != nil {
				return nil, err
			}
			return func(f *frame) signal {
				recv(f).(*verify.Context).Output = v(f)
				return signal{}
			}, nil
		}
		return nil, fmt.Errorf("cannot assign to %T", x.Target)

	case ir.OrAssign:
		i, err := c.slot(x.Name)
		if err != nil {
			return nil, err
		}
		v, err := c.expr(x.Value)
		if err != nil {
			return nil, err
		}
		return func(f *frame) signal {
			f.slots[i] = f.slots[i].(verify.Status) | v(f).(verify.Status)
			return signal{}
		}, nil

	case ir.If:
		cond, err := c.expr(x.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.block(x.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.block(x.Else)
		if err != nil {
			return nil, err
		}
		return func(f *frame) signal {
			if cond(f).(bool) {
				return then(f)
			}
			return els(f)
		}, nil

	case ir.Labeled:
		body, err := c.block(x.Body)
		if err != nil {
			return nil, err
		}
		label := x.Label
		return func(f *frame) signal {
			sig := body(f)
			if sig.flow == flowBreak && sig.label == label {
				return signal{}
			}
			return sig
		}, nil

	case ir.Break:
		sig := signal{flow: flowBreak, label: x.Label}
		return func(*frame) signal { return sig }, nil

	case ir.Continue:
		sig := signal{flow: flowContinue, label: x.Label}
		return func(*frame) signal { return sig }, nil

	case ir.Return:
		v, err := c.expr(x.Value)
		if err != nil {
			return nil, err
		}
		return func(f *frame) signal {
			return signal{flow: flowReturn, status: v(f).(verify.Status)}
		}, nil

	case ir.Switch:
		return c.switchStmt(x)

	case ir.Range:
		return c.rangeStmt(x)

	case ir.ExprStmt:
		v, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return func(f *frame) signal {
			v(f)
			return signal{}
		}, nil

	case ir.Report:
		return c.report(x)
	}
	return nil, fmt.Errorf("unsupported statement %T", s)
}

func (c *compiler) switchStmt(x ir.Switch) (execFn, error) {
	tag, err := c.expr(x.Tag)
	if err != nil {
		return nil, err
	}
	type arm struct {
		values []evalFn
		body   execFn
	}
	arms := make([]arm, len(x.Cases))
	for i, cs := range x.Cases {
		for _, v := range cs.Values {
			fn, err := c.expr(v)
			if err != nil {
				return nil, err
			}
			arms[i].values = append(arms[i].values, fn)
		}
		if arms[i].body, err = c.block(cs.Body); err != nil {
			return nil, err
		}
	}
	def, err := c.block(x.Default)
	if err != nil {
		return nil, err
	}
	return func(f *frame) signal {
		t := tag(f)
		for _, a := range arms {
			for _, v := range a.values {
				if verify.StrictEqual(t, v(f)) {
					return a.body(f)
				}
			}
		}
		return def(f)
	}, nil
}

func (c *compiler) rangeStmt(x ir.Range) (execFn, error) {
	seq, err := c.expr(x.Seq)
	if err != nil {
		return nil, err
	}
	body, err := c.block(x.Body)
	if err != nil {
		return nil, err
	}
	ki, vi := -1, -1
	if x.Key != "" && x.Key != "_" {
		if ki, err = c.slot(x.Key); err != nil {
			return nil, err
		}
	}
	if x.Value != "" && x.Value != "_" {
		if vi, err = c.slot(x.Value); err != nil {
			return nil, err
		}
	}
	label := x.Label
	return func(f *frame) signal {
		var out signal
		step := func(k, v any) bool {
			if ki >= 0 {
				f.slots[ki] = k
			}
			if vi >= 0 {
				f.slots[vi] = v
			}
			sig := body(f)
			switch {
			case sig.flow == flowNext:
				return true
			case sig.flow == flowContinue && sig.label == label:
				return true
			case sig.flow == flowBreak && sig.label == label:
				return false
			}
			out = sig
			return false
		}
		switch s := seq(f).(type) {
		case iter.Seq2[int, any]:
			for k, v := range s {
				if !step(k, v) {
					break
				}
			}
		case iter.Seq2[string, any]:
			for k, v := range s {
				if !step(k, v) {
					break
				}
			}
		case iter.Seq2[any, any]:
			for k, v := range s {
				if !step(k, v) {
					break
				}
			}
		}
		return out
	}, nil
}

type issueSetter func(is *verify.Issue, v any)

var issueFields = map[string]issueSetter{
	"Expected":    func(is *verify.Issue, v any) { is.Expected = v },
	"Received":    func(is *verify.Issue, v any) { is.Received = v },
	"Keys":        func(is *verify.Issue, v any) { is.Keys, _ = v.([]string) },
	"UnionErrors": func(is *verify.Issue, v any) { is.UnionErrors, _ = v.(verify.IssueSets) },
	"Options":     func(is *verify.Issue, v any) { is.Options, _ = v.([]any) },
	"Validation":  func(is *verify.Issue, v any) { is.Validation, _ = v.(string) },
	"Minimum":     func(is *verify.Issue, v any) { is.Minimum = v },
	"Maximum":     func(is *verify.Issue, v any) { is.Maximum = v },
	"Inclusive":   func(is *verify.Issue, v any) { is.Inclusive, _ = v.(bool) },
	"Exact":       func(is *verify.Issue, v any) { is.Exact, _ = v.(bool) },
	"Type":        func(is *verify.Issue, v any) { is.Type, _ = v.(string) },
	"MultipleOf":  func(is *verify.Issue, v any) { is.MultipleOf = v },
	"Params":      func(is *verify.Issue, v any) { is.Params, _ = v.(map[string]any) },
}

func (c *compiler) report(x ir.Report) (execFn, error) {
	ctx, err := c.expr(x.Ctx)
	if err != nil {
		return nil, err
	}
	input, err := c.expr(x.Input)
	if err != nil {
		return nil, err
	}
	path := make([]evalFn, len(x.Issue.Path))
	for i, p := range x.Issue.Path {
		if path[i], err = c.expr(p); err != nil {
			return nil, err
		}
	}
	type setField struct {
		set issueSetter
		val evalFn
	}
	fields := make([]setField, len(x.Issue.Fields))
	for i, fd := range x.Issue.Fields {
		set, ok := issueFields[fd.Name]
		if !ok {
			return nil, fmt.Errorf("unknown issue field %q", fd.Name)
		}
		val, err := c.expr(fd.Value)
		if err != nil {
			return nil, err
		}
		fields[i] = setField{set, val}
	}
	code, msg := x.Issue.Code, x.Issue.Message
	return func(f *frame) signal {
		is := verify.Issue{Code: code, Message: msg, Path: make([]any, len(path))}
		for i, p := range path {
			is.Path[i] = p(f)
		}
		for _, fd := range fields {
			fd.set(&is, fd.val(f))
		}
		ctx(f).(*verify.Context).Report(is, input(f))
		return signal{}
	}, nil
}

func (c *compiler) exprs(list []ir.Expr) ([]evalFn, error) {
	out := make([]evalFn, len(list))
	for i, e := range list {
		fn, err := c.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = fn
	}
	return out, nil
}

func evalAll(fns []evalFn, f *frame) []any {
	out := make([]any, len(fns))
	for i, fn := range fns {
		out[i] = fn(f)
	}
	return out
}

func (c *compiler) expr(e ir.Expr) (evalFn, error) {
	switch x := e.(type) {
	case ir.Ident:
		i, err := c.slot(x.Name)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return f.slots[i] }, nil

	case ir.Lit:
		v := x.Value
		if b, ok := v.(*big.Int); ok {
			v = new(big.Int).Set(b)
		}
		return func(*frame) any { return v }, nil

	case ir.Dep:
		ctx, err := c.expr(x.Ctx)
		if err != nil {
			return nil, err
		}
		idx := x.Index
		return func(f *frame) any { return ctx(f).(*verify.Context).Dependencies[idx] }, nil

	case ir.Call:
		h, ok := helpers[x.Func]
		if !ok {
			return nil, fmt.Errorf("unknown helper %q", x.Func)
		}
		if len(x.Args) != h.arity {
			return nil, fmt.Errorf("helper %s takes %d arguments, got %d", x.Func, h.arity, len(x.Args))
		}
		args, err := c.exprs(x.Args)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return h.fn(evalAll(args, f)) }, nil

	case ir.Method:
		h, ok := methods[x.Name]
		if !ok {
			return nil, fmt.Errorf("unknown method %q", x.Name)
		}
		if len(x.Args) != h.arity {
			return nil, fmt.Errorf("method %s takes %d arguments, got %d", x.Name, h.arity, len(x.Args))
		}
		args, err := c.exprs(append([]ir.Expr{x.Recv}, x.Args...))
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return h.fn(evalAll(args, f)) }, nil

	case ir.Field:
		recv, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		switch x.Name {
		case "Output":
			return func(f *frame) any { return recv(f).(*verify.Context).Output }, nil
		case "Valid":
			return func(f *frame) any { return recv(f).(verify.MergeResult).Valid }, nil
		case "Data":
			return func(f *frame) any { return recv(f).(verify.MergeResult).Data }, nil
		}
		return nil, fmt.Errorf("unknown field %q", x.Name)

	case ir.Binary:
		return c.binary(x)

	case ir.Not:
		v, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return !v(f).(bool) }, nil

	case ir.ArrayLit:
		elems, err := c.exprs(x.Elems)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return evalAll(elems, f) }, nil

	case ir.ObjectLit:
		vals, err := c.exprs(x.Values)
		if err != nil {
			return nil, err
		}
		keys := x.Keys
		return func(f *frame) any {
			out := make(map[string]any, len(keys))
			for i, k := range keys {
				out[k] = vals[i](f)
			}
			return out
		}, nil

	case ir.MapLit:
		keys, err := c.exprs(x.Keys)
		if err != nil {
			return nil, err
		}
		vals, err := c.exprs(x.Values)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any {
			m := verify.NewMap()
			for i := range keys {
				m.Set(keys[i](f), vals[i](f))
			}
			return m
		}, nil

	case ir.SetLit:
		elems, err := c.exprs(x.Elems)
		if err != nil {
			return nil, err
		}
		return func(f *frame) any { return verify.SetOf(evalAll(elems, f)...) }, nil

	case ir.DateLit:
		ms := x.UnixMilli
		return func(*frame) any { return time.UnixMilli(ms).UTC() }, nil

	case ir.RegexpLit:
		re, ok := c.regexps[x.Source]
		if !ok {
			var err error
			if re, err = regexp.Compile(x.Source); err != nil {
				return nil, err
			}
			c.regexps[x.Source] = re
		}
		return func(*frame) any { return re }, nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (c *compiler) binary(x ir.Binary) (evalFn, error) {
	l, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}
	r, err := c.expr(x.Y)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "&&":
		return func(f *frame) any { return l(f).(bool) && r(f).(bool) }, nil
	case "||":
		return func(f *frame) any { return l(f).(bool) || r(f).(bool) }, nil
	case "&":
		return func(f *frame) any { return l(f).(verify.Status) & r(f).(verify.Status) }, nil
	case "|":
		return func(f *frame) any { return l(f).(verify.Status) | r(f).(verify.Status) }, nil
	case "==":
		return func(f *frame) any { return equal(l(f), r(f)) }, nil
	case "!=":
		return func(f *frame) any { return !equal(l(f), r(f)) }, nil
	case "<", "<=", ">", ">=":
		op := x.Op
		return func(f *frame) any { return compare(op, l(f), r(f)) }, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", x.Op)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// equal is Go's == on the operand types compiled code compares: nil
// against pointers, and same-typed scalars.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	return a == b
}

func compare(op string, a, b any) bool {
	var c int
	switch x := a.(type) {
	case int:
		c = cmp3(x, b.(int))
	case int64:
		c = cmp3(x, b.(int64))
	case float64:
		y := b.(float64)
		// every ordered comparison involving NaN is false
		if x != x || y != y {
			return false
		}
		c = cmp3(x, y)
	case string:
		c = cmp3(x, b.(string))
	default:
		panic(fmt.Sprintf("exec: cannot order %T", a))
	}
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	}
	return c >= 0
}

func cmp3[T int | int64 | float64 | string](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
