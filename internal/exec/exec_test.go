package exec_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/compiler"
	"github.com/reoring/goskemac/internal/exec"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

func build(t *testing.T, n dsl.Node) (verify.ParserFunc, []any) {
	t.Helper()
	res, err := compiler.Compile(n, compiler.InlineDefault, "validate")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	fn, err := exec.Compile(res.Func)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	return fn, res.Dependencies
}

func run(t *testing.T, n dsl.Node, input any) (verify.Status, *verify.Context) {
	t.Helper()
	fn, deps := build(t, n)
	ctx := verify.NewContext(deps, nil)
	return fn(input, ctx), ctx
}

func codes(iss verify.Issues) []verify.IssueCode {
	out := make([]verify.IssueCode, len(iss))
	for i, is := range iss {
		out[i] = is.Code
	}
	return out
}

func TestObjectReportsEveryField(t *testing.T) {
	schema := dsl.Object().
		Field("a", dsl.String()).
		Field("b", dsl.Number().Min(3))
	st, ctx := run(t, schema, map[string]any{"a": 5.0, "b": 1.0})
	if st != verify.Invalid {
		t.Fatalf("status = %v", st)
	}
	if len(ctx.Issues) != 2 {
		t.Fatalf("issues = %#v", ctx.Issues)
	}
	first, second := ctx.Issues[0], ctx.Issues[1]
	if first.Code != verify.CodeInvalidType || !reflect.DeepEqual(first.Path, []any{"a"}) {
		t.Fatalf("first = %#v", first)
	}
	if first.Expected != verify.ParsedString || first.Received != verify.ParsedNumber {
		t.Fatalf("expected/received = %v/%v", first.Expected, first.Received)
	}
	if second.Code != verify.CodeTooSmall || !reflect.DeepEqual(second.Path, []any{"b"}) {
		t.Fatalf("second = %#v", second)
	}
	if second.Minimum != 3.0 || !second.Inclusive || second.Type != "number" {
		t.Fatalf("too_small fields = %#v", second)
	}
}

func TestObjectOutputStripsUnknownKeys(t *testing.T) {
	schema := dsl.Object().Field("a", dsl.String())
	st, ctx := run(t, schema, map[string]any{"a": "x", "extra": 1.0})
	if st != verify.Valid {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if !reflect.DeepEqual(ctx.Output, map[string]any{"a": "x"}) {
		t.Fatalf("output = %#v", ctx.Output)
	}

	st, ctx = run(t, schema.Passthrough(), map[string]any{"a": "x", "extra": 1.0})
	if st != verify.Valid || !reflect.DeepEqual(ctx.Output, map[string]any{"a": "x", "extra": 1.0}) {
		t.Fatalf("passthrough: %v %#v", st, ctx.Output)
	}

	st, ctx = run(t, schema.Strict(), map[string]any{"a": "x", "extra": 1.0})
	if st != verify.Dirty || len(ctx.Issues) != 1 {
		t.Fatalf("strict: %v %#v", st, ctx.Issues)
	}
	if is := ctx.Issues[0]; is.Code != verify.CodeUnrecognizedKeys || !reflect.DeepEqual(is.Keys, []string{"extra"}) {
		t.Fatalf("strict issue = %#v", is)
	}
}

func TestObjectOptionalAndDefault(t *testing.T) {
	schema := dsl.Object().
		Field("name", dsl.Default(dsl.String(), "anon")).
		Field("nick", dsl.Optional(dsl.String()))
	st, ctx := run(t, schema, map[string]any{})
	if st != verify.Valid {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if !reflect.DeepEqual(ctx.Output, map[string]any{"name": "anon"}) {
		t.Fatalf("output = %#v", ctx.Output)
	}
}

func TestUnionCollectsOptionIssues(t *testing.T) {
	schema := dsl.Union(dsl.Literal("x"), dsl.Literal(1.0))
	st, ctx := run(t, schema, "y")
	if st != verify.Invalid || len(ctx.Issues) != 1 {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	is := ctx.Issues[0]
	if is.Code != verify.CodeInvalidUnion || len(is.UnionErrors) != 2 {
		t.Fatalf("issue = %#v", is)
	}
	for i, set := range is.UnionErrors {
		if len(set) != 1 || set[0].Code != verify.CodeInvalidLiteral {
			t.Fatalf("option %d issues = %#v", i, set)
		}
	}
}

func TestUnionPrefersValidThenDirty(t *testing.T) {
	st, ctx := run(t, dsl.Union(dsl.String(), dsl.Number()), 5.0)
	if st != verify.Valid || ctx.Output != 5.0 || len(ctx.Issues) != 0 {
		t.Fatalf("valid option: %v %#v %#v", st, ctx.Output, ctx.Issues)
	}

	st, ctx = run(t, dsl.Union(dsl.Number().Min(10), dsl.String()), 5.0)
	if st != verify.Dirty || ctx.Output != 5.0 {
		t.Fatalf("dirty option: %v %#v", st, ctx.Output)
	}
	if got := codes(ctx.Issues); !reflect.DeepEqual(got, []verify.IssueCode{verify.CodeTooSmall}) {
		t.Fatalf("dirty issues = %v", got)
	}
}

func TestDiscriminatedUnion(t *testing.T) {
	schema := dsl.DiscriminatedUnion("type",
		dsl.Object().Field("type", dsl.Literal("a")).Field("x", dsl.String()),
		dsl.Object().Field("type", dsl.Literal("b")).Field("y", dsl.Number()),
	)
	st, ctx := run(t, schema, map[string]any{"type": "b", "y": 2.0})
	if st != verify.Valid || !reflect.DeepEqual(ctx.Output, map[string]any{"type": "b", "y": 2.0}) {
		t.Fatalf("match: %v %#v %#v", st, ctx.Output, ctx.Issues)
	}
	st, ctx = run(t, schema, map[string]any{"type": "c"})
	if st != verify.Invalid || len(ctx.Issues) != 1 {
		t.Fatalf("mismatch: %v %#v", st, ctx.Issues)
	}
	is := ctx.Issues[0]
	if is.Code != verify.CodeInvalidUnionDiscriminator || !reflect.DeepEqual(is.Path, []any{"type"}) {
		t.Fatalf("issue = %#v", is)
	}
	if !reflect.DeepEqual(is.Options, []any{"a", "b"}) {
		t.Fatalf("options = %#v", is.Options)
	}
}

func TestCatchIsTotal(t *testing.T) {
	schema := dsl.Catch(dsl.Number(), 0.0)
	for _, in := range []any{"x", nil, verify.Undefined, []any{1.0}} {
		st, ctx := run(t, schema, in)
		if st != verify.Valid || ctx.Output != 0.0 || len(ctx.Issues) != 0 {
			t.Fatalf("%#v: %v %#v %#v", in, st, ctx.Output, ctx.Issues)
		}
	}
	st, ctx := run(t, schema, 4.0)
	if st != verify.Valid || ctx.Output != 4.0 {
		t.Fatalf("pass-through: %v %#v", st, ctx.Output)
	}
}

func TestIntersectionMergesObjects(t *testing.T) {
	schema := dsl.Intersection(
		dsl.Object().Field("a", dsl.String()),
		dsl.Object().Field("b", dsl.Number()),
	)
	st, ctx := run(t, schema, map[string]any{"a": "x", "b": 1.0, "c": true})
	if st != verify.Valid {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if !reflect.DeepEqual(ctx.Output, map[string]any{"a": "x", "b": 1.0}) {
		t.Fatalf("output = %#v", ctx.Output)
	}

	_, ctx = run(t, dsl.Intersection(dsl.Literal("x"), dsl.String().ToUpperCase()), "x")
	if got := codes(ctx.Issues); !reflect.DeepEqual(got, []verify.IssueCode{verify.CodeInvalidIntersectionTypes}) {
		t.Fatalf("conflict issues = %v", got)
	}
}

// The merge still runs after a side failed, so the failure is reported
// twice: once by the side and once as a merge conflict.
func TestIntersectionMergesAfterFailedSide(t *testing.T) {
	st, ctx := run(t, dsl.Intersection(dsl.String(), dsl.Number()), "x")
	want := []verify.IssueCode{verify.CodeInvalidType, verify.CodeInvalidIntersectionTypes}
	if st != verify.Invalid || !reflect.DeepEqual(codes(ctx.Issues), want) {
		t.Fatalf("status = %v, issues = %v", st, codes(ctx.Issues))
	}
}

func TestTupleLength(t *testing.T) {
	schema := dsl.Tuple(dsl.String(), dsl.Number())
	st, ctx := run(t, schema, []any{"a"})
	if st != verify.Invalid || codes(ctx.Issues)[0] != verify.CodeTooSmall {
		t.Fatalf("short: %v %#v", st, ctx.Issues)
	}
	st, ctx = run(t, schema, []any{"a", 1.0, 2.0})
	if st != verify.Dirty || codes(ctx.Issues)[0] != verify.CodeTooBig {
		t.Fatalf("long: %v %#v", st, ctx.Issues)
	}
	st, ctx = run(t, schema.Rest(dsl.Boolean()), []any{"a", 1.0, true, "no"})
	if st != verify.Invalid || len(ctx.Issues) != 1 || !reflect.DeepEqual(ctx.Issues[0].Path, []any{3}) {
		t.Fatalf("rest: %v %#v", st, ctx.Issues)
	}
}

func TestArrayElementPaths(t *testing.T) {
	schema := dsl.Array(dsl.String()).Min(1)
	st, ctx := run(t, schema, []any{"a", 2.0, "c", false})
	if st != verify.Invalid || len(ctx.Issues) != 2 {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if !reflect.DeepEqual(ctx.Issues[0].Path, []any{1}) || !reflect.DeepEqual(ctx.Issues[1].Path, []any{3}) {
		t.Fatalf("paths = %v %v", ctx.Issues[0].Path, ctx.Issues[1].Path)
	}
	st, ctx = run(t, schema, []any{})
	if st != verify.Dirty || codes(ctx.Issues)[0] != verify.CodeTooSmall {
		t.Fatalf("empty: %v %#v", st, ctx.Issues)
	}
}

func TestRecordAndMap(t *testing.T) {
	st, ctx := run(t, dsl.Record(dsl.Number()), map[string]any{"x": "s", "y": 1.0})
	if st != verify.Invalid || len(ctx.Issues) != 1 || !reflect.DeepEqual(ctx.Issues[0].Path, []any{"x"}) {
		t.Fatalf("record: %v %#v", st, ctx.Issues)
	}

	st, ctx = run(t, dsl.Map(dsl.String(), dsl.Number()), verify.MapOf("a", 1.0, "b", 2.0))
	if st != verify.Valid {
		t.Fatalf("map: %v %#v", st, ctx.Issues)
	}
	out, ok := ctx.Output.(*verify.Map)
	if !ok || out.Len() != 2 {
		t.Fatalf("map output = %#v", ctx.Output)
	}
	if v, _ := out.Get("b"); v != 2.0 {
		t.Fatalf("b = %#v", v)
	}
}

func TestRecordValuePathUsesValidatedKey(t *testing.T) {
	st, ctx := run(t, dsl.RecordOf(dsl.String().Trim(), dsl.Number()), map[string]any{" a ": "x"})
	if st != verify.Invalid || len(ctx.Issues) != 1 {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if !reflect.DeepEqual(ctx.Issues[0].Path, []any{"a"}) {
		t.Fatalf("path = %#v", ctx.Issues[0].Path)
	}
}

func TestMapKeyFailureKeepsRawKey(t *testing.T) {
	st, ctx := run(t, dsl.Map(dsl.Number(), dsl.String()), verify.MapOf("k", 1.0))
	if st != verify.Invalid || len(ctx.Issues) != 2 {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if got := codes(ctx.Issues); !reflect.DeepEqual(got, []verify.IssueCode{verify.CodeInvalidType, verify.CodeInvalidType}) {
		t.Fatalf("codes = %v", got)
	}
	if len(ctx.Issues[0].Path) != 0 {
		t.Fatalf("key issue path = %#v", ctx.Issues[0].Path)
	}
	if !reflect.DeepEqual(ctx.Issues[1].Path, []any{"k"}) {
		t.Fatalf("value issue path = %#v", ctx.Issues[1].Path)
	}

	st, ctx = run(t, dsl.Map(dsl.String(), dsl.Number()), verify.MapOf("a", "x"))
	if st != verify.Invalid || len(ctx.Issues) != 1 || !reflect.DeepEqual(ctx.Issues[0].Path, []any{"a"}) {
		t.Fatalf("value only: %v %#v", st, ctx.Issues)
	}
}

func TestMapKeyPathUsesParentPath(t *testing.T) {
	schema := dsl.Object().Field("m", dsl.Map(dsl.Number(), dsl.Any()))
	_, ctx := run(t, schema, map[string]any{"m": verify.MapOf("k", 1.0)})
	if len(ctx.Issues) != 1 || !reflect.DeepEqual(ctx.Issues[0].Path, []any{"m"}) {
		t.Fatalf("issues = %#v", ctx.Issues)
	}
}

func TestReadonlyFreezesOutput(t *testing.T) {
	st, ctx := run(t, dsl.Readonly(dsl.Set(dsl.String())), verify.SetOf("a", "b"))
	if st != verify.Valid {
		t.Fatalf("status = %v", st)
	}
	out, ok := ctx.Output.(*verify.Set)
	if !ok || !out.Frozen() || out.Len() != 2 {
		t.Fatalf("output = %#v", ctx.Output)
	}
}

func TestEnumReportsOptions(t *testing.T) {
	st, ctx := run(t, dsl.Enum("a", "b"), "c")
	if st != verify.Invalid || len(ctx.Issues) != 1 {
		t.Fatalf("status = %v, issues %#v", st, ctx.Issues)
	}
	if is := ctx.Issues[0]; is.Code != verify.CodeInvalidEnumValue || !reflect.DeepEqual(is.Options, []any{"a", "b"}) {
		t.Fatalf("issue = %#v", is)
	}
}

func TestBasePathAndExplicitMessages(t *testing.T) {
	fn, deps := build(t, dsl.String().Min(3, "too short"))
	ctx := verify.NewContext(deps, []any{"root", 0})
	if st := fn("ab", ctx); st != verify.Dirty {
		t.Fatalf("status = %v", st)
	}
	is := ctx.Issues[0]
	if is.Message != "too short" || !reflect.DeepEqual(is.Path, []any{"root", 0}) {
		t.Fatalf("issue = %#v", is)
	}
}

func TestParserIsSafeForConcurrentUse(t *testing.T) {
	fn, deps := build(t, dsl.Object().
		Field("id", dsl.Number().Int()).
		Field("tags", dsl.Array(dsl.String())))
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := verify.NewContext(deps, nil)
			in := map[string]any{"id": float64(i), "tags": []any{"a", i}}
			if st := fn(in, ctx); st != verify.Invalid || len(ctx.Issues) != 1 {
				t.Errorf("goroutine %d: %v %#v", i, st, ctx.Issues)
			}
		}()
	}
	wg.Wait()
}

func TestCompileRejectsUnknownIdentifiers(t *testing.T) {
	fn := ir.Func{Name: "f", Input: "input", Ctx: "ctx", Body: []ir.Stmt{
		ir.Return{Value: ir.Id("missing")},
	}}
	if _, err := exec.Compile(fn); err == nil {
		t.Fatalf("expected error for undeclared identifier")
	}
	fn.Body = []ir.Stmt{ir.ExprStmt{X: ir.C("NoSuchHelper")}}
	if _, err := exec.Compile(fn); err == nil {
		t.Fatalf("expected error for unknown helper")
	}
}
