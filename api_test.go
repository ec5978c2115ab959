package goskemac_test

import (
	"errors"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/i18n"
	"github.com/reoring/goskemac/verify"
)

func user() *dsl.ObjectNode {
	return dsl.Object().
		Field("a", dsl.String()).
		Field("b", dsl.Number().Min(3))
}

func TestParseReturnsIssues(t *testing.T) {
	p := goskemac.MustCompile(user())
	_, err := p.Parse(map[string]any{"a": 5.0, "b": 1.0})
	iss, ok := goskemac.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %v", err)
	}
	if len(iss) != 2 {
		t.Fatalf("issues = %#v", iss)
	}
	if iss[0].Code != verify.CodeInvalidType || !reflect.DeepEqual(iss[0].Path, []any{"a"}) {
		t.Errorf("first = %#v", iss[0])
	}
	if iss[0].Message != "Expected string, received number" {
		t.Errorf("first message = %q", iss[0].Message)
	}
	if iss[1].Code != verify.CodeTooSmall || !reflect.DeepEqual(iss[1].Path, []any{"b"}) {
		t.Errorf("second = %#v", iss[1])
	}
	if iss[1].Message != "Number must be greater than or equal to 3" {
		t.Errorf("second message = %q", iss[1].Message)
	}
}

func TestParseReturnsData(t *testing.T) {
	p := goskemac.MustCompile(user())
	v, err := p.Parse(map[string]any{"a": "x", "b": 4.0, "extra": true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(v, map[string]any{"a": "x", "b": 4.0}) {
		t.Fatalf("data = %#v", v)
	}
	if !p.Is(map[string]any{"a": "", "b": 3.0}) || p.Is("nope") {
		t.Fatalf("Is mismatch")
	}
	if p.Schema() == nil {
		t.Fatalf("schema not retained")
	}
}

func TestSafeParseDirtyIsFailure(t *testing.T) {
	p := goskemac.MustCompile(dsl.String().Min(3))
	r := p.SafeParse("ab")
	if r.Success || len(r.Error) != 1 || r.Error[0].Code != verify.CodeTooSmall {
		t.Fatalf("result = %#v", r)
	}
	if r := p.SafeParse("abc"); !r.Success || r.Data != "abc" {
		t.Fatalf("result = %#v", r)
	}
}

func TestUnionOfLiterals(t *testing.T) {
	p := goskemac.MustCompile(dsl.Union(dsl.Literal("x"), dsl.Literal(1.0)))
	r := p.SafeParse("y")
	if r.Success || len(r.Error) != 1 {
		t.Fatalf("result = %#v", r)
	}
	if got := r.Error[0]; got.Code != verify.CodeInvalidUnion || len(got.UnionErrors) != 2 {
		t.Fatalf("issue = %#v", got)
	}
}

func TestErrorMapPriority(t *testing.T) {
	compileMap := func(iss verify.Issue, ctx verify.ErrorMapContext) string {
		if iss.Code == verify.CodeTooSmall {
			return "compile: " + ctx.DefaultError
		}
		return ctx.DefaultError
	}
	parseMap := func(iss verify.Issue, ctx verify.ErrorMapContext) string {
		if verify.Pointer(iss.Path) == "/root/b" {
			return "parse: " + ctx.DefaultError
		}
		return ctx.DefaultError
	}
	p := goskemac.MustCompile(user(), goskemac.WithErrorMap(compileMap))
	_, err := p.Parse(map[string]any{"a": 1.0, "b": 1.0},
		goskemac.WithPath("root"), goskemac.WithParseErrorMap(parseMap))
	iss, _ := goskemac.AsIssues(err)
	if len(iss) != 2 {
		t.Fatalf("issues = %#v", iss)
	}
	if !reflect.DeepEqual(iss[0].Path, []any{"root", "a"}) {
		t.Errorf("path = %v", iss[0].Path)
	}
	if want := "parse: compile: Number must be greater than or equal to 3"; iss[1].Message != want {
		t.Errorf("message = %q, want %q", iss[1].Message, want)
	}

	ja := goskemac.MustCompile(dsl.String(), goskemac.WithErrorMap(i18n.Japanese))
	if r := ja.SafeParse(verify.Undefined); r.Error[0].Message != "必須です" {
		t.Errorf("japanese message = %q", r.Error[0].Message)
	}
}

func TestInliningModesAgree(t *testing.T) {
	schema := dsl.Object().
		Field("tags", dsl.Default(dsl.Array(dsl.String()), []any{"a", "b"})).
		Field("kind", dsl.Enum("x", "y")).
		Field("n", dsl.Catch(dsl.Number().Max(10), 10.0))
	in := map[string]any{"kind": "y", "n": 11.0}
	want := map[string]any{"tags": []any{"a", "b"}, "kind": "y", "n": 10.0}
	for _, mode := range []goskemac.InliningMode{goskemac.InlineNone, goskemac.InlineDefault, goskemac.InlineAggressive} {
		p, err := goskemac.Compile(schema, goskemac.WithInlining(mode))
		if err != nil {
			t.Fatalf("%s: compile: %v", mode, err)
		}
		got, err := p.Parse(in)
		if err != nil {
			t.Fatalf("%s: parse: %v", mode, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: data = %#v", mode, got)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := goskemac.Compile(dsl.Union()); !errors.Is(err, goskemac.ErrInvalidSchema) {
		t.Fatalf("err = %v, want ErrInvalidSchema", err)
	}
	var tree *dsl.LazyNode
	tree = dsl.Lazy(func() dsl.Node { return dsl.Array(tree) })
	if _, err := goskemac.Compile(tree); !errors.Is(err, goskemac.ErrCyclicSchema) {
		t.Fatalf("err = %v, want ErrCyclicSchema", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("MustCompile should panic")
		}
	}()
	goskemac.MustCompile(dsl.Union())
}

func TestCompileStandalone(t *testing.T) {
	out, err := goskemac.CompileStandalone(dsl.Default(dsl.String().Min(3), "anonymous"),
		goskemac.WithPackage("users"), goskemac.WithFuncName("ValidateName"), goskemac.WithInlining(goskemac.InlineNone))
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasDependencies() {
		t.Fatalf("InlineNone should hoist the default")
	}
	f, err := parser.ParseFile(token.NewFileSet(), "name.go", out.Source, 0)
	if err != nil {
		t.Fatalf("source does not parse: %v\n%s", err, out.Source)
	}
	if f.Name.Name != "users" {
		t.Fatalf("package = %s", f.Name.Name)
	}
	if !strings.Contains(out.Source, "func ValidateName(") || !strings.HasPrefix(out.Source, "// Code generated by goskemac. DO NOT EDIT.") {
		t.Fatalf("source:\n%s", out.Source)
	}

	plain, err := goskemac.CompileStandalone(dsl.String())
	if err != nil {
		t.Fatal(err)
	}
	if plain.HasDependencies() || !strings.Contains(plain.Source, "package schemas") {
		t.Fatalf("defaults not applied:\n%s", plain.Source)
	}
}

func TestStandaloneWrapsFunction(t *testing.T) {
	fn := func(input any, ctx *verify.Context) verify.Status {
		if s, ok := input.(string); ok {
			ctx.Output = s + ctx.Dependencies[0].(string)
			return verify.Valid
		}
		return verify.Invalid
	}
	p := goskemac.Standalone(fn, []any{"!"})
	if v, err := p.Parse("hi"); err != nil || v != "hi!" {
		t.Fatalf("parse = %v, %v", v, err)
	}
	r := p.SafeParse(1)
	if r.Success || len(r.Error) != 1 || r.Error[0].Message != "Invalid input" {
		t.Fatalf("result = %#v", r)
	}
	if p.Schema() != nil {
		t.Fatalf("standalone parsers carry no schema")
	}
}

func TestTypes(t *testing.T) {
	src, err := goskemac.Types(dsl.Object().Field("name", dsl.String()), goskemac.WithTypeName("User"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(src, "type User struct") {
		t.Fatalf("types:\n%s", src)
	}
	expr, err := goskemac.Types(dsl.Record(dsl.Boolean()), goskemac.AsExport(false))
	if err != nil || expr != "map[string]bool" {
		t.Fatalf("expr = %q, %v", expr, err)
	}
	def, err := goskemac.Types(dsl.String())
	if err != nil || def != "type Schema string" {
		t.Fatalf("default name = %q, %v", def, err)
	}
}
