package compiler_test

import (
	"errors"
	"math/big"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/compiler"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

func TestPathPushDoesNotAlias(t *testing.T) {
	base := compiler.EmptyPath().Push("a")
	left := base.Push("b")
	right := base.Push(1)
	if base.Len() != 1 || left.Len() != 2 || right.Len() != 2 {
		t.Fatalf("unexpected lengths: %d %d %d", base.Len(), left.Len(), right.Len())
	}
	if got := left.Expr()[1]; got != ir.L("b") {
		t.Fatalf("left segment = %#v", got)
	}
	if got := right.Expr()[1]; got != ir.L(1) {
		t.Fatalf("right segment = %#v", got)
	}
	dyn := base.Push(ir.Id("index"))
	if got := dyn.Expr()[1]; got != ir.Id("index") {
		t.Fatalf("expression segment = %#v", got)
	}
}

func TestDependenciesInlining(t *testing.T) {
	ctx := ir.Id("ctx")
	cases := []struct {
		name   string
		mode   compiler.InliningMode
		value  any
		inline bool
	}{
		{"none string", compiler.InlineNone, "x", false},
		{"default string", compiler.InlineDefault, "x", true},
		{"default float", compiler.InlineDefault, 1.5, true},
		{"default bigint", compiler.InlineDefault, big.NewInt(7), true},
		{"default undefined", compiler.InlineDefault, verify.Undefined, true},
		{"default nil", compiler.InlineDefault, nil, true},
		{"default slice", compiler.InlineDefault, []any{"a"}, false},
		{"default func", compiler.InlineDefault, func() any { return 1 }, false},
		{"aggressive slice", compiler.InlineAggressive, []any{"a", 1.0}, true},
		{"aggressive object", compiler.InlineAggressive, map[string]any{"b": 1, "a": true}, true},
		{"aggressive date", compiler.InlineAggressive, time.UnixMilli(5), true},
		{"aggressive regexp", compiler.InlineAggressive, regexp.MustCompile("^a$"), true},
		{"aggressive set", compiler.InlineAggressive, verify.SetOf("a"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := compiler.NewDependencies(ctx, tc.mode)
			e, err := d.AddOrInline(tc.value)
			if err != nil {
				t.Fatalf("AddOrInline: %v", err)
			}
			_, hoisted := e.(ir.Dep)
			if hoisted == tc.inline {
				t.Fatalf("inline = %v, want %v (expr %#v)", !hoisted, tc.inline, e)
			}
			if hoisted && d.Len() != 1 {
				t.Fatalf("hoisted value not recorded")
			}
		})
	}
}

func TestDependenciesAggressiveRejects(t *testing.T) {
	for _, v := range []any{func() any { return nil }, make(chan int), verify.NewSymbol("s"), []any{verify.NewSymbol("s")}} {
		d := compiler.NewDependencies(ir.Id("ctx"), compiler.InlineAggressive)
		if _, err := d.AddOrInline(v); !errors.Is(err, compiler.ErrNotInlinable) {
			t.Fatalf("%T: err = %v, want ErrNotInlinable", v, err)
		}
	}
}

func TestDependenciesObjectKeysSorted(t *testing.T) {
	d := compiler.NewDependencies(ir.Id("ctx"), compiler.InlineAggressive)
	e, err := d.AddOrInline(map[string]any{"b": 1, "a": 2})
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := e.(ir.ObjectLit)
	if !ok {
		t.Fatalf("expr = %#v", e)
	}
	if !reflect.DeepEqual(obj.Keys, []string{"a", "b"}) {
		t.Fatalf("keys = %v", obj.Keys)
	}
}

func TestParseInliningMode(t *testing.T) {
	for in, want := range map[string]compiler.InliningMode{
		"none":       compiler.InlineNone,
		"":           compiler.InlineDefault,
		"default":    compiler.InlineDefault,
		"aggressive": compiler.InlineAggressive,
	} {
		got, err := compiler.ParseInliningMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseInliningMode(%q) = %v, %v", in, got, err)
		}
		if in != "" && got.String() != in {
			t.Fatalf("String() = %q", got.String())
		}
	}
	if _, err := compiler.ParseInliningMode("wild"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUnitNamesAreUnique(t *testing.T) {
	u := compiler.NewUnit(compiler.InlineDefault)
	seen := map[string]bool{}
	for range 5 {
		n := u.Name("value")
		if seen[n] {
			t.Fatalf("duplicate name %q", n)
		}
		seen[n] = true
	}
	for _, reserved := range []string{"input", "ctx", "verify"} {
		if got := u.Name(reserved); got == reserved {
			t.Fatalf("reserved name %q handed out", reserved)
		}
	}
}

type foreignNode struct{ kind dsl.Kind }

func (f foreignNode) Kind() dsl.Kind { return f.kind }

func TestLookupRejectsForeignNodes(t *testing.T) {
	for _, n := range []dsl.Node{foreignNode{}, foreignNode{kind: "promise"}, foreignNode{kind: dsl.KindString}} {
		if _, err := compiler.Lookup(n); !errors.Is(err, compiler.ErrUnsupportedKind) {
			t.Fatalf("%#v: err = %v", n, err)
		}
	}
	if _, err := compiler.Lookup(nil); !errors.Is(err, compiler.ErrInvalidSchema) {
		t.Fatalf("nil node: err = %v", err)
	}
}

func TestEveryKindIsRegistered(t *testing.T) {
	if got := len(compiler.Kinds()); got != 33 {
		t.Fatalf("registered kinds = %d, want 33", got)
	}
}

func TestCompileRejectsInvalidSchemas(t *testing.T) {
	cases := map[string]dsl.Node{
		"empty enum":  dsl.Enum(),
		"empty union": dsl.Union(),
		"missing discriminator": dsl.DiscriminatedUnion("type",
			dsl.Object().Field("kind", dsl.Literal("a"))),
		"duplicate discriminator": dsl.DiscriminatedUnion("type",
			dsl.Object().Field("type", dsl.Literal("a")),
			dsl.Object().Field("type", dsl.Enum("a", "b"))),
		"non-literal discriminator": dsl.DiscriminatedUnion("type",
			dsl.Object().Field("type", dsl.String())),
	}
	for name, n := range cases {
		if _, err := compiler.Compile(n, compiler.InlineDefault, "f"); !errors.Is(err, compiler.ErrInvalidSchema) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestCompileDetectsLazyCycles(t *testing.T) {
	var node dsl.Node
	node = dsl.Lazy(func() dsl.Node {
		return dsl.Object().Field("children", dsl.Array(node))
	})
	if _, err := compiler.Compile(node, compiler.InlineDefault, "f"); !errors.Is(err, compiler.ErrCyclicSchema) {
		t.Fatalf("err = %v", err)
	}
	if _, err := compiler.NewTypeUnit().Of(node); !errors.Is(err, compiler.ErrCyclicSchema) {
		t.Fatalf("types err = %v", err)
	}

	shared := dsl.Lazy(func() dsl.Node { return dsl.String() })
	ok := dsl.Object().Field("a", shared).Field("b", shared)
	if _, err := compiler.Compile(ok, compiler.InlineDefault, "f"); err != nil {
		t.Fatalf("shared lazy node: %v", err)
	}
}

func TestFunctionContextStatus(t *testing.T) {
	u := compiler.NewUnit(compiler.InlineDefault)
	fc := compiler.NewFunctionContext(u)

	got := fc.Status(compiler.StatusInvalid, true)
	if len(got) != 1 {
		t.Fatalf("invalid: %#v", got)
	}
	if _, ok := got[0].(ir.Return); !ok {
		t.Fatalf("constant INVALID should return, got %#v", got[0])
	}
	got = fc.Status(compiler.StatusDirty, true)
	if _, ok := got[0].(ir.OrAssign); !ok || len(got) != 1 {
		t.Fatalf("constant DIRTY should only OR, got %#v", got)
	}
	got = fc.Status(ir.Id("s"), true)
	if len(got) != 2 {
		t.Fatalf("runtime update: %#v", got)
	}
	if _, ok := got[0].(ir.If); !ok {
		t.Fatalf("runtime update should check before OR, got %#v", got[0])
	}
	if pre := fc.Prelude(); len(pre) != 1 {
		t.Fatalf("prelude = %#v", pre)
	}
	if post := fc.Postlude(); len(post) != 1 {
		t.Fatalf("postlude = %#v", post)
	}
}

func TestChildContextEscapes(t *testing.T) {
	u := compiler.NewUnit(compiler.InlineDefault)
	parent := compiler.NewLabeledContext(u.Input, u.Ctx, compiler.AssignTo(ir.Id("out")), "st", "outer", false)
	child := compiler.NewChildContext(parent, ir.Id("v"), compiler.AssignTo(ir.Id("o")), "field", false)

	got := child.Status(compiler.StatusInvalid, true)
	if len(got) != 2 {
		t.Fatalf("child invalid: %#v", got)
	}
	if b, ok := got[1].(ir.Break); !ok || b.Label != "field" {
		t.Fatalf("child should break its own label, got %#v", got[1])
	}
	got = child.Status(compiler.StatusDirty, true)
	if len(got) != 1 {
		t.Fatalf("child dirty should not escape: %#v", got)
	}
	loop := compiler.NewChildContext(parent, ir.Id("v"), compiler.AssignTo(ir.Id("o")), "elements", true)
	got = loop.Status(compiler.StatusInvalid, true)
	if c, ok := got[len(got)-1].(ir.Continue); !ok || c.Label != "elements" {
		t.Fatalf("element child should continue, got %#v", got)
	}
	block := compiler.NewBlockContext(u.Input, u.Ctx, compiler.AssignTo(ir.Id("out")), "st")
	if got := block.Status(compiler.StatusInvalid, true); len(got) != 1 {
		t.Fatalf("block never escapes: %#v", got)
	}
	if got := child.WithInput(ir.Id("w")).Input(); got != ir.Id("w") {
		t.Fatalf("WithInput = %#v", got)
	}
}

func TestCompileEmitsDependencies(t *testing.T) {
	factory := func() any { return "x" }
	res, err := compiler.Compile(dsl.DefaultFunc(dsl.String(), factory), compiler.InlineDefault, "f")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dependencies) != 1 {
		t.Fatalf("dependencies = %d, want 1", len(res.Dependencies))
	}
	res, err = compiler.Compile(dsl.Literal("x"), compiler.InlineNone, "f")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dependencies) != 1 || res.Dependencies[0] != "x" {
		t.Fatalf("dependencies = %#v", res.Dependencies)
	}
	if res.Func.Name != "f" || res.Func.Input != "input" || res.Func.Ctx != "ctx" {
		t.Fatalf("func = %+v", res.Func)
	}
}

func TestAggressiveRejectsFactories(t *testing.T) {
	factory := func() any { return "x" }
	for name, node := range map[string]dsl.Node{
		"default": dsl.DefaultFunc(dsl.String(), factory),
		"catch":   dsl.CatchFunc(dsl.String(), factory),
	} {
		if _, err := compiler.Compile(node, compiler.InlineAggressive, "f"); !errors.Is(err, compiler.ErrNotInlinable) {
			t.Errorf("%s: err = %v, want ErrNotInlinable", name, err)
		}
		if _, err := compiler.Compile(node, compiler.InlineDefault, "f"); err != nil {
			t.Errorf("%s: default mode: %v", name, err)
		}
	}
}
