// Package ir defines the statement-level intermediate representation emitted
// by the schema compiler. It is Go-shaped: every construct maps onto one Go
// statement or expression so that the printer and the closure evaluator agree
// on semantics. This package is internal and not part of the public API.
package ir

import "github.com/reoring/goskemac/verify"

// Expr is an IR expression.
type Expr interface{ expr() }

// Stmt is an IR statement.
type Stmt interface{ stmt() }

// Ident refers to a local variable or a function parameter.
type Ident struct{ Name string }

// Lit is an inlined constant. Value is one of: string, bool, nil, any Go
// integer or float kind, *big.Int, []string, verify.Undefined,
// verify.Status, verify.ParsedType or verify.IssueCode.
type Lit struct{ Value any }

// Dep reads entry Index of the dependency table held by Ctx.
type Dep struct {
	Ctx   Expr
	Index int
}

// Call invokes the verify helper named Func.
type Call struct {
	Func string
	Args []Expr
}

// Method invokes a method on Recv.
type Method struct {
	Recv Expr
	Name string
	Args []Expr
}

// Field selects a struct field (verify.MergeResult, *verify.Context).
type Field struct {
	X    Expr
	Name string
}

// Binary applies a comparison, logical or bitwise operator.
type Binary struct {
	Op   string // == != < <= > >= && || & |
	X, Y Expr
}

// Not negates a boolean expression.
type Not struct{ X Expr }

// ArrayLit constructs a []any.
type ArrayLit struct{ Elems []Expr }

// ObjectLit constructs a map[string]any with keys in the given order.
type ObjectLit struct {
	Keys   []string
	Values []Expr
}

// MapLit constructs a *verify.Map.
type MapLit struct{ Keys, Values []Expr }

// SetLit constructs a *verify.Set.
type SetLit struct{ Elems []Expr }

// DateLit constructs a UTC time.Time from a Unix millisecond timestamp.
type DateLit struct{ UnixMilli int64 }

// RegexpLit is a compiled regular expression. Printers hoist it to a
// package-level variable.
type RegexpLit struct{ Source string }

func (Ident) expr()     {}
func (Lit) expr()       {}
func (Dep) expr()       {}
func (Call) expr()      {}
func (Method) expr()    {}
func (Field) expr()     {}
func (Binary) expr()    {}
func (Not) expr()       {}
func (ArrayLit) expr()  {}
func (ObjectLit) expr() {}
func (MapLit) expr()    {}
func (SetLit) expr()    {}
func (DateLit) expr()   {}
func (RegexpLit) expr() {}

// VarType is the static type of a declared local.
type VarType int

const (
	TypeAny       VarType = iota // any
	TypeStatus                   // verify.Status
	TypeContext                  // *verify.Context
	TypeBool                     // bool
	TypeSlice                    // []any
	TypeObject                   // map[string]any
	TypeMap                      // *verify.Map
	TypeSet                      // *verify.Set
	TypeMerge                    // verify.MergeResult
	TypeIssueSets                // verify.IssueSets
	TypeParsed                   // verify.ParsedType
)

// Var declares a local. A nil Value declares the zero value.
type Var struct {
	Name  string
	Type  VarType
	Value Expr
}

// Assign stores Value into Target (an Ident or a Field).
type Assign struct {
	Target Expr
	Value  Expr
}

// OrAssign is Name |= Value on a status register.
type OrAssign struct {
	Name  string
	Value Expr
}

// If is a conditional. Else may be nil.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// Labeled is a block that Break statements naming Label may leave early.
type Labeled struct {
	Label string
	Body  []Stmt
}

// Break leaves the Labeled block or Range loop named Label.
type Break struct{ Label string }

// Continue proceeds with the next iteration of the Range loop named Label.
type Continue struct{ Label string }

// Return leaves the function with Value.
type Return struct{ Value Expr }

// Case is one arm of a Switch. It matches when the tag strictly equals one
// of Values.
type Case struct {
	Values []Expr
	Body   []Stmt
}

// Switch dispatches on Tag using strict equality.
type Switch struct {
	Tag     Expr
	Cases   []Case
	Default []Stmt
}

// Range iterates Seq, an iter.Seq2 returned by verify.Elems, ElemsFrom,
// Fields or Entries.
type Range struct {
	Label      string
	Key, Value string
	Seq        Expr
	Body       []Stmt
}

// ExprStmt evaluates X for its side effects.
type ExprStmt struct{ X Expr }

// IssueField sets one verify.Issue field.
type IssueField struct {
	Name  string
	Value Expr
}

// Issue describes a verify.Issue under construction.
type Issue struct {
	Code    verify.IssueCode
	Path    []Expr
	Fields  []IssueField
	Message string
}

// Report hands Issue, raised by Input, to the verifier context Ctx.
type Report struct {
	Ctx   Expr
	Issue Issue
	Input Expr
}

func (Var) stmt()      {}
func (Assign) stmt()   {}
func (OrAssign) stmt() {}
func (If) stmt()       {}
func (Labeled) stmt()  {}
func (Break) stmt()    {}
func (Continue) stmt() {}
func (Return) stmt()   {}
func (Switch) stmt()   {}
func (Range) stmt()    {}
func (ExprStmt) stmt() {}
func (Report) stmt()   {}

// Func is a compiled validator: func(input any, ctx *verify.Context) verify.Status.
type Func struct {
	Name  string
	Input string
	Ctx   string
	Body  []Stmt
}

// Id is shorthand for Ident.
func Id(name string) Ident { return Ident{Name: name} }

// L is shorthand for Lit.
func L(v any) Lit { return Lit{Value: v} }

// C is shorthand for Call.
func C(fn string, args ...Expr) Call { return Call{Func: fn, Args: args} }

// Eq builds X == Y.
func Eq(x, y Expr) Binary { return Binary{Op: "==", X: x, Y: y} }

// Ne builds X != Y.
func Ne(x, y Expr) Binary { return Binary{Op: "!=", X: x, Y: y} }

// HasInvalid tests the INVALID bit of a status expression.
func HasInvalid(status Expr) Binary {
	return Ne(Binary{Op: "&", X: status, Y: L(verify.Invalid)}, L(verify.Valid))
}

// Walk visits every statement in body depth-first, and every expression
// reachable from them.
func Walk(body []Stmt, stmt func(Stmt), expr func(Expr)) {
	var we func(Expr)
	we = func(e Expr) {
		if e == nil {
			return
		}
		if expr != nil {
			expr(e)
		}
		switch x := e.(type) {
		case Dep:
			we(x.Ctx)
		case Call:
			for _, a := range x.Args {
				we(a)
			}
		case Method:
			we(x.Recv)
			for _, a := range x.Args {
				we(a)
			}
		case Field:
			we(x.X)
		case Binary:
			we(x.X)
			we(x.Y)
		case Not:
			we(x.X)
		case ArrayLit:
			for _, a := range x.Elems {
				we(a)
			}
		case ObjectLit:
			for _, a := range x.Values {
				we(a)
			}
		case MapLit:
			for i := range x.Keys {
				we(x.Keys[i])
				we(x.Values[i])
			}
		case SetLit:
			for _, a := range x.Elems {
				we(a)
			}
		}
	}
	var ws func([]Stmt)
	ws = func(list []Stmt) {
		for _, s := range list {
			if stmt != nil {
				stmt(s)
			}
			switch x := s.(type) {
			case Var:
				we(x.Value)
			case Assign:
				// the target of an assignment is written, not read, unless it
				// is a field selection.
				if f, ok := x.Target.(Field); ok {
					we(f.X)
				}
				we(x.Value)
			case OrAssign:
				// x |= v does not count as a read of x.
				we(x.Value)
			case If:
				we(x.Cond)
				ws(x.Then)
				ws(x.Else)
			case Labeled:
				ws(x.Body)
			case Return:
				we(x.Value)
			case Switch:
				we(x.Tag)
				for _, c := range x.Cases {
					for _, v := range c.Values {
						we(v)
					}
					ws(c.Body)
				}
				ws(x.Default)
			case Range:
				we(x.Seq)
				ws(x.Body)
			case ExprStmt:
				we(x.X)
			case Report:
				we(x.Ctx)
				we(x.Input)
				for _, p := range x.Issue.Path {
					we(p)
				}
				for _, f := range x.Issue.Fields {
					we(f.Value)
				}
			}
		}
	}
	ws(body)
}
