package compiler

import (
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

// Context is the emission site a rule compiles into. It binds the input and
// verifier-context expressions, the output location and the status register,
// and knows how the enclosing scope escapes on a fatal status.
type Context interface {
	// Input is the value under validation.
	Input() ir.Expr
	// Verifier is the *verify.Context that receives issues.
	Verifier() ir.Expr
	// Status ORs update (an ir.Lit holding a verify.Status, or a runtime
	// status expression) into the register and, when shortCircuit is set,
	// escapes the scope on INVALID.
	Status(update ir.Expr, shortCircuit bool) []ir.Stmt
	// Report records issue, raised by input (the context input when nil).
	Report(issue ir.Issue, input ir.Expr) []ir.Stmt
	// Outputs stores the validated value.
	Outputs(v ir.Expr) []ir.Stmt
	// WithInput rebinds the input, keeping every other property.
	WithInput(in ir.Expr) Context
	Prelude() []ir.Stmt
	Postlude() []ir.Stmt
}

// Status constants as IR literals.
var (
	StatusDirty   ir.Expr = ir.L(verify.Dirty)
	StatusInvalid ir.Expr = ir.L(verify.Invalid)
)

func constStatus(e ir.Expr) (verify.Status, bool) {
	if l, ok := e.(ir.Lit); ok {
		s, ok := l.Value.(verify.Status)
		return s, ok
	}
	return 0, false
}

// scope carries the expressions shared by every strategy.
type scope struct {
	input    ir.Expr
	verifier ir.Expr
	output   func(ir.Expr) []ir.Stmt
}

func (s scope) Input() ir.Expr    { return s.input }
func (s scope) Verifier() ir.Expr { return s.verifier }

func (s scope) Report(issue ir.Issue, input ir.Expr) []ir.Stmt {
	if input == nil {
		input = s.input
	}
	return []ir.Stmt{ir.Report{Ctx: s.verifier, Issue: issue, Input: input}}
}

func (s scope) Outputs(v ir.Expr) []ir.Stmt { return s.output(v) }

// AssignTo returns an output function storing into target.
func AssignTo(target ir.Expr) func(ir.Expr) []ir.Stmt {
	return func(v ir.Expr) []ir.Stmt {
		return []ir.Stmt{ir.Assign{Target: target, Value: v}}
	}
}

func escape(label string, cont bool) ir.Stmt {
	if cont {
		return ir.Continue{Label: label}
	}
	return ir.Break{Label: label}
}

// functionContext is the outermost scope: it owns the status register and
// escapes by returning.
type functionContext struct {
	scope
	status string
}

// NewFunctionContext returns the scope of the compiled function body. The
// output is ctx.Output.
func NewFunctionContext(u *Unit) Context {
	return functionContext{
		scope: scope{
			input:    u.Input,
			verifier: u.Ctx,
			output:   AssignTo(ir.Field{X: u.Ctx, Name: "Output"}),
		},
		status: u.Name("status"),
	}
}

func (c functionContext) Status(update ir.Expr, shortCircuit bool) []ir.Stmt {
	if s, ok := constStatus(update); ok {
		if s == verify.Invalid && shortCircuit {
			return []ir.Stmt{ir.Return{Value: update}}
		}
		return []ir.Stmt{ir.OrAssign{Name: c.status, Value: update}}
	}
	var out []ir.Stmt
	if shortCircuit {
		out = append(out, ir.If{Cond: ir.HasInvalid(update), Then: []ir.Stmt{ir.Return{Value: update}}})
	}
	return append(out, ir.OrAssign{Name: c.status, Value: update})
}

func (c functionContext) WithInput(in ir.Expr) Context {
	c.input = in
	return c
}

func (c functionContext) Prelude() []ir.Stmt {
	return []ir.Stmt{ir.Var{Name: c.status, Type: ir.TypeStatus}}
}

func (c functionContext) Postlude() []ir.Stmt {
	return []ir.Stmt{ir.Return{Value: ir.Id(c.status)}}
}

// blockContext is used where the enclosing statement already guards the
// exit: it only ORs into the register.
type blockContext struct {
	scope
	status string
}

// NewBlockContext shares the register named status and never escapes.
func NewBlockContext(input, verifier ir.Expr, output func(ir.Expr) []ir.Stmt, status string) Context {
	return blockContext{scope: scope{input: input, verifier: verifier, output: output}, status: status}
}

func (c blockContext) Status(update ir.Expr, _ bool) []ir.Stmt {
	return []ir.Stmt{ir.OrAssign{Name: c.status, Value: update}}
}

func (c blockContext) WithInput(in ir.Expr) Context {
	c.input = in
	return c
}

func (c blockContext) Prelude() []ir.Stmt  { return nil }
func (c blockContext) Postlude() []ir.Stmt { return nil }

// labeledContext owns a register and escapes by break or continue to its
// label once the register holds INVALID.
type labeledContext struct {
	scope
	status   string
	label    string
	cont     bool
	declare  bool
	postlude []ir.Stmt
}

func (c labeledContext) Status(update ir.Expr, shortCircuit bool) []ir.Stmt {
	out := []ir.Stmt{ir.OrAssign{Name: c.status, Value: update}}
	if !shortCircuit {
		return out
	}
	if s, ok := constStatus(update); ok && s == verify.Invalid {
		return append(out, escape(c.label, c.cont))
	}
	return append(out, ir.If{Cond: ir.HasInvalid(ir.Id(c.status)), Then: []ir.Stmt{escape(c.label, c.cont)}})
}

func (c labeledContext) WithInput(in ir.Expr) Context {
	c.input = in
	return c
}

func (c labeledContext) Prelude() []ir.Stmt {
	if !c.declare {
		return nil
	}
	return []ir.Stmt{ir.Var{Name: c.status, Type: ir.TypeStatus}}
}

func (c labeledContext) Postlude() []ir.Stmt { return c.postlude }

// NewLabeledContext declares its own register named status in the prelude.
func NewLabeledContext(input, verifier ir.Expr, output func(ir.Expr) []ir.Stmt, status, label string, cont bool) Context {
	return labeledContext{
		scope:   scope{input: input, verifier: verifier, output: output},
		status:  status,
		label:   label,
		cont:    cont,
		declare: true,
	}
}

// childContext validates one field, element or side of a composite. Status
// flows to the parent without short-circuiting it; the child escapes its own
// label (break) or loop iteration (continue).
type childContext struct {
	scope
	label  string
	cont   bool
	parent func(ir.Expr) []ir.Stmt
}

// NewChildContext propagates every status update to parent with
// shortCircuit disabled.
func NewChildContext(parent Context, input ir.Expr, output func(ir.Expr) []ir.Stmt, label string, cont bool) Context {
	return childContext{
		scope: scope{input: input, verifier: parent.Verifier(), output: output},
		label: label,
		cont:  cont,
		parent: func(u ir.Expr) []ir.Stmt {
			return parent.Status(u, false)
		},
	}
}

func (c childContext) Status(update ir.Expr, shortCircuit bool) []ir.Stmt {
	out := c.parent(update)
	if !shortCircuit {
		return out
	}
	if s, ok := constStatus(update); ok {
		if s == verify.Invalid {
			out = append(out, escape(c.label, c.cont))
		}
		return out
	}
	return append(out, ir.If{Cond: ir.HasInvalid(update), Then: []ir.Stmt{escape(c.label, c.cont)}})
}

func (c childContext) WithInput(in ir.Expr) Context {
	c.input = in
	return c
}

func (c childContext) Prelude() []ir.Stmt  { return nil }
func (c childContext) Postlude() []ir.Stmt { return nil }

// readonlyContext forwards everything to the wrapped context except
// Outputs, which freezes the value first.
type readonlyContext struct{ Context }

func (c readonlyContext) Outputs(v ir.Expr) []ir.Stmt {
	return c.Context.Outputs(ir.C("Freeze", v))
}

func (c readonlyContext) WithInput(in ir.Expr) Context {
	return readonlyContext{c.Context.WithInput(in)}
}
