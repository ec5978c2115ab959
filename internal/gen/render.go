// Package gen renders compiled IR as Go source with dave/jennifer.
package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

const verifyPkg = "github.com/reoring/goskemac/verify"

var parsedNames = map[verify.ParsedType]string{
	verify.ParsedString:    "ParsedString",
	verify.ParsedNaN:       "ParsedNaN",
	verify.ParsedNumber:    "ParsedNumber",
	verify.ParsedInteger:   "ParsedInteger",
	verify.ParsedFloat:     "ParsedFloat",
	verify.ParsedBoolean:   "ParsedBoolean",
	verify.ParsedDate:      "ParsedDate",
	verify.ParsedBigInt:    "ParsedBigInt",
	verify.ParsedSymbol:    "ParsedSymbol",
	verify.ParsedFunction:  "ParsedFunction",
	verify.ParsedUndefined: "ParsedUndefined",
	verify.ParsedNull:      "ParsedNull",
	verify.ParsedArray:     "ParsedArray",
	verify.ParsedObject:    "ParsedObject",
	verify.ParsedUnknown:   "ParsedUnknown",
	verify.ParsedPromise:   "ParsedPromise",
	verify.ParsedVoid:      "ParsedVoid",
	verify.ParsedNever:     "ParsedNever",
	verify.ParsedMap:       "ParsedMap",
	verify.ParsedSet:       "ParsedSet",
}

var codeNames = map[verify.IssueCode]string{
	verify.CodeInvalidType:               "CodeInvalidType",
	verify.CodeInvalidLiteral:            "CodeInvalidLiteral",
	verify.CodeCustom:                    "CodeCustom",
	verify.CodeInvalidUnion:              "CodeInvalidUnion",
	verify.CodeInvalidUnionDiscriminator: "CodeInvalidUnionDiscriminator",
	verify.CodeInvalidEnumValue:          "CodeInvalidEnumValue",
	verify.CodeUnrecognizedKeys:          "CodeUnrecognizedKeys",
	verify.CodeInvalidArguments:          "CodeInvalidArguments",
	verify.CodeInvalidReturnType:         "CodeInvalidReturnType",
	verify.CodeInvalidDate:               "CodeInvalidDate",
	verify.CodeInvalidString:             "CodeInvalidString",
	verify.CodeTooSmall:                  "CodeTooSmall",
	verify.CodeTooBig:                    "CodeTooBig",
	verify.CodeInvalidIntersectionTypes:  "CodeInvalidIntersectionTypes",
	verify.CodeNotMultipleOf:             "CodeNotMultipleOf",
	verify.CodeNotFinite:                 "CodeNotFinite",
}

var statusNames = map[verify.Status]string{
	verify.Valid:   "Valid",
	verify.Dirty:   "Dirty",
	verify.Invalid: "Invalid",
}

// regexpVar is a pattern hoisted to package level.
type regexpVar struct {
	name, source string
}

// renderer turns one ir.Func into jennifer code. The first failure is kept
// in err and rendering continues with placeholders.
type renderer struct {
	labels  map[string]bool
	reads   map[string]bool
	regexps []regexpVar
	byRegex map[string]string
	err     error
}

func newRenderer(fn ir.Func) *renderer {
	r := &renderer{
		labels:  map[string]bool{},
		reads:   map[string]bool{},
		byRegex: map[string]string{},
	}
	ir.Walk(fn.Body, func(s ir.Stmt) {
		switch x := s.(type) {
		case ir.Break:
			r.labels[x.Label] = true
		case ir.Continue:
			r.labels[x.Label] = true
		}
	}, func(e ir.Expr) {
		if id, ok := e.(ir.Ident); ok {
			r.reads[id.Name] = true
		}
	})
	return r
}

func (r *renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *renderer) regexp(src string) string {
	if name, ok := r.byRegex[src]; ok {
		return name
	}
	name := "pattern" + strconv.Itoa(len(r.regexps))
	r.byRegex[src] = name
	r.regexps = append(r.regexps, regexpVar{name: name, source: src})
	return name
}

// function renders fn as a top-level func declaration.
func (r *renderer) function(fn ir.Func) *jen.Statement {
	return jen.Func().Id(fn.Name).Params(
		jen.Id(fn.Input).Id("any"),
		jen.Id(fn.Ctx).Op("*").Qual(verifyPkg, "Context"),
	).Qual(verifyPkg, "Status").Block(r.block(fn.Body)...)
}

func (r *renderer) block(list []ir.Stmt) []jen.Code {
	out := make([]jen.Code, 0, len(list))
	for _, s := range list {
		out = append(out, r.stmt(s)...)
	}
	return out
}

func varType(t ir.VarType) *jen.Statement {
	switch t {
	case ir.TypeStatus:
		return jen.Qual(verifyPkg, "Status")
	case ir.TypeContext:
		return jen.Op("*").Qual(verifyPkg, "Context")
	case ir.TypeBool:
		return jen.Bool()
	case ir.TypeSlice:
		return jen.Index().Id("any")
	case ir.TypeObject:
		return jen.Map(jen.String()).Id("any")
	case ir.TypeMap:
		return jen.Op("*").Qual(verifyPkg, "Map")
	case ir.TypeSet:
		return jen.Op("*").Qual(verifyPkg, "Set")
	case ir.TypeMerge:
		return jen.Qual(verifyPkg, "MergeResult")
	case ir.TypeIssueSets:
		return jen.Qual(verifyPkg, "IssueSets")
	case ir.TypeParsed:
		return jen.Qual(verifyPkg, "ParsedType")
	}
	return jen.Id("any")
}

func (r *renderer) labeled(label string, loop *jen.Statement) *jen.Statement {
	if !r.labels[label] {
		return loop
	}
	return jen.Id(label).Op(":").Add(loop)
}

func (r *renderer) stmt(s ir.Stmt) []jen.Code {
	switch x := s.(type) {
	case ir.Var:
		decl := jen.Var().Id(x.Name).Add(varType(x.Type))
		if x.Value != nil {
			decl.Op("=").Add(r.expr(x.Value))
		}
		if !r.reads[x.Name] {
			return []jen.Code{decl, jen.Id("_").Op("=").Id(x.Name)}
		}
		return []jen.Code{decl}

	case ir.Assign:
		return []jen.Code{r.expr(x.Target).Op("=").Add(r.expr(x.Value))}

	case ir.OrAssign:
		return []jen.Code{jen.Id(x.Name).Op("|=").Add(r.expr(x.Value))}

	case ir.If:
		st := jen.If(r.expr(x.Cond)).Block(r.block(x.Then)...)
		if len(x.Else) > 0 {
			st.Else().Block(r.block(x.Else)...)
		}
		return []jen.Code{st}

	case ir.Labeled:
		if !r.labels[x.Label] {
			return []jen.Code{jen.Block(r.block(x.Body)...)}
		}
		return []jen.Code{r.labeled(x.Label, jen.For(jen.Range().Lit(1)).Block(r.block(x.Body)...))}

	case ir.Break:
		return []jen.Code{jen.Break().Id(x.Label)}

	case ir.Continue:
		return []jen.Code{jen.Continue().Id(x.Label)}

	case ir.Return:
		return []jen.Code{jen.Return(r.expr(x.Value))}

	case ir.Switch:
		tag := x.Tag
		return []jen.Code{jen.Switch().BlockFunc(func(g *jen.Group) {
			for _, c := range x.Cases {
				conds := make([]jen.Code, len(c.Values))
				for i, v := range c.Values {
					conds[i] = jen.Qual(verifyPkg, "StrictEqual").Call(r.expr(tag), r.expr(v))
				}
				g.Case(conds...).Block(r.block(c.Body)...)
			}
			if len(x.Default) > 0 {
				g.Default().Block(r.block(x.Default)...)
			}
		})}

	case ir.Range:
		key, value := x.Key, x.Value
		if key == "" || !r.reads[key] {
			key = "_"
		}
		if value == "" || !r.reads[value] {
			value = "_"
		}
		var head *jen.Statement
		if key == "_" && value == "_" {
			head = jen.Range().Add(r.expr(x.Seq))
		} else {
			head = jen.List(jen.Id(key), jen.Id(value)).Op(":=").Range().Add(r.expr(x.Seq))
		}
		return []jen.Code{r.labeled(x.Label, jen.For(head).Block(r.block(x.Body)...))}

	case ir.ExprStmt:
		return []jen.Code{r.expr(x.X)}

	case ir.Report:
		return []jen.Code{r.expr(x.Ctx).Dot("Report").Call(r.issue(x.Issue), r.expr(x.Input))}
	}
	r.fail(fmt.Errorf("gen: unsupported statement %T", s))
	return nil
}

func (r *renderer) issue(is ir.Issue) *jen.Statement {
	items := []jen.Code{jen.Id("Code").Op(":").Add(r.lit(is.Code))}
	if len(is.Path) > 0 {
		items = append(items, jen.Id("Path").Op(":").Index().Id("any").Values(r.exprs(is.Path)...))
	}
	if is.Message != "" {
		items = append(items, jen.Id("Message").Op(":").Lit(is.Message))
	}
	for _, f := range is.Fields {
		items = append(items, jen.Id(f.Name).Op(":").Add(r.expr(f.Value)))
	}
	return jen.Qual(verifyPkg, "Issue").Values(items...)
}

func (r *renderer) exprs(list []ir.Expr) []jen.Code {
	out := make([]jen.Code, len(list))
	for i, e := range list {
		out[i] = r.expr(e)
	}
	return out
}

// operand parenthesizes nested binary expressions.
func (r *renderer) operand(e ir.Expr) *jen.Statement {
	if _, ok := e.(ir.Binary); ok {
		return jen.Parens(r.expr(e))
	}
	return r.expr(e)
}

func (r *renderer) expr(e ir.Expr) *jen.Statement {
	switch x := e.(type) {
	case ir.Ident:
		return jen.Id(x.Name)
	case ir.Lit:
		return r.lit(x.Value)
	case ir.Dep:
		return r.expr(x.Ctx).Dot("Dependencies").Index(jen.Lit(x.Index))
	case ir.Call:
		return jen.Qual(verifyPkg, x.Func).Call(r.exprs(x.Args)...)
	case ir.Method:
		return r.expr(x.Recv).Dot(x.Name).Call(r.exprs(x.Args)...)
	case ir.Field:
		return r.expr(x.X).Dot(x.Name)
	case ir.Binary:
		return r.operand(x.X).Op(x.Op).Add(r.operand(x.Y))
	case ir.Not:
		return jen.Op("!").Add(r.operand(x.X))
	case ir.ArrayLit:
		return jen.Index().Id("any").Values(r.exprs(x.Elems)...)
	case ir.ObjectLit:
		items := make([]jen.Code, len(x.Keys))
		for i, k := range x.Keys {
			items[i] = jen.Lit(k).Op(":").Add(r.expr(x.Values[i]))
		}
		return jen.Map(jen.String()).Id("any").Values(items...)
	case ir.MapLit:
		args := make([]jen.Code, 0, 2*len(x.Keys))
		for i := range x.Keys {
			args = append(args, r.expr(x.Keys[i]), r.expr(x.Values[i]))
		}
		return jen.Qual(verifyPkg, "MapOf").Call(args...)
	case ir.SetLit:
		return jen.Qual(verifyPkg, "SetOf").Call(r.exprs(x.Elems)...)
	case ir.DateLit:
		return jen.Qual("time", "UnixMilli").Call(jen.Lit(x.UnixMilli)).Dot("UTC").Call()
	case ir.RegexpLit:
		return jen.Id(r.regexp(x.Source))
	}
	r.fail(fmt.Errorf("gen: unsupported expression %T", e))
	return jen.Nil()
}

func (r *renderer) lit(v any) *jen.Statement {
	switch x := v.(type) {
	case nil:
		return jen.Nil()
	case verify.Status:
		if name, ok := statusNames[x]; ok {
			return jen.Qual(verifyPkg, name)
		}
		return jen.Qual(verifyPkg, "Status").Call(jen.Lit(uint8(x)))
	case verify.ParsedType:
		if name, ok := parsedNames[x]; ok {
			return jen.Qual(verifyPkg, name)
		}
		return jen.Qual(verifyPkg, "ParsedType").Call(jen.Lit(string(x)))
	case verify.IssueCode:
		if name, ok := codeNames[x]; ok {
			return jen.Qual(verifyPkg, name)
		}
		return jen.Qual(verifyPkg, "IssueCode").Call(jen.Lit(string(x)))
	case *big.Int:
		if x == nil {
			return jen.Nil()
		}
		return jen.Qual(verifyPkg, "MustBigInt").Call(jen.Lit(x.String()))
	case json.Number:
		return jen.Qual("encoding/json", "Number").Call(jen.Lit(string(x)))
	case []string:
		items := make([]jen.Code, len(x))
		for i, s := range x {
			items[i] = jen.Lit(s)
		}
		return jen.Index().String().Values(items...)
	case float64:
		return floatLit(x)
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return jen.Float32().Call(floatLit(float64(x)))
		}
		return jen.Lit(x)
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return jen.Lit(x)
	}
	if verify.IsUndefined(v) {
		return jen.Qual(verifyPkg, "Undefined")
	}
	r.fail(fmt.Errorf("gen: cannot render literal of type %T", v))
	return jen.Nil()
}

func floatLit(f float64) *jen.Statement {
	switch {
	case math.IsNaN(f):
		return jen.Qual("math", "NaN").Call()
	case math.IsInf(f, 1):
		return jen.Qual("math", "Inf").Call(jen.Lit(1))
	case math.IsInf(f, -1):
		return jen.Qual("math", "Inf").Call(jen.Lit(-1))
	}
	return jen.Lit(f)
}

// File renders fn as a complete Go source file in package pkg. Hoisted
// regular expressions become package-level variables.
func File(pkg string, fn ir.Func) (string, error) {
	r := newRenderer(fn)
	decl := r.function(fn)
	if r.err != nil {
		return "", r.err
	}
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by goskemac. DO NOT EDIT.")
	if len(r.regexps) > 0 {
		f.Var().DefsFunc(func(g *jen.Group) {
			for _, re := range r.regexps {
				g.Id(re.name).Op("=").Qual("regexp", "MustCompile").Call(jen.Lit(re.source))
			}
		})
	}
	f.Add(decl)
	buf := &bytes.Buffer{}
	if err := f.Render(buf); err != nil {
		return "", fmt.Errorf("gen: render %s: %w", fn.Name, err)
	}
	return buf.String(), nil
}
