package gen_test

import (
	"go/parser"
	"go/token"
	"math"
	"math/big"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/compiler"
	"github.com/reoring/goskemac/internal/gen"
)

func everyKind() map[string]dsl.Node {
	user := dsl.Object().
		Field("id", dsl.String().UUID()).
		Field("age", dsl.Optional(dsl.Number().Int().Gte(0)))
	return map[string]dsl.Node{
		"string": dsl.String().Min(1).Max(10).Email().Regex(regexp.MustCompile(`^[a-z@.]+$`)).
			Datetime().IncludesAt("@", 1).StartsWith("a").EndsWith("z").IP("v4").Trim(),
		"string coerce":      dsl.String().Coerce().Length(3).URL().JWT("HS256").CIDR(""),
		"number":             dsl.Number().Gt(0).Lte(100).MultipleOf(0.5).Finite(),
		"number coerce":      dsl.Number().Coerce().Int(),
		"bigint":             dsl.BigInt().Gte(big.NewInt(-5)).MultipleOf(big.NewInt(5)),
		"boolean":            dsl.Boolean().Coerce(),
		"date":               dsl.Date().Min(time.Unix(0, 0)).Max(time.Unix(1e9, 0)),
		"date coerce":        dsl.Date().Coerce(),
		"symbol":             dsl.Symbol(),
		"undefined":          dsl.Undefined(),
		"null":               dsl.Null(),
		"void":               dsl.Void(),
		"any":                dsl.Any(),
		"unknown":            dsl.Unknown(),
		"never":              dsl.Never(),
		"nan":                dsl.NaN(),
		"literal":            dsl.Literal("x"),
		"literal nan":        dsl.Literal(math.NaN()),
		"literal bigint":     dsl.Literal(big.NewInt(9)),
		"enum":               dsl.Enum("a", "b"),
		"native enum":        dsl.NativeEnum(map[string]any{"A": "a", "B": 1.0}),
		"object strict":      user.Strict(),
		"object passthrough": user.Passthrough(),
		"array":              dsl.Array(user).Min(1).Max(3),
		"array length":       dsl.Array(dsl.String()).Length(2),
		"tuple":              dsl.Tuple(dsl.String(), dsl.Number()),
		"tuple rest":         dsl.Tuple(dsl.String()).Rest(dsl.Boolean()),
		"record":             dsl.Record(dsl.Number()),
		"record keyed":       dsl.RecordOf(dsl.String().Min(2), dsl.Number()),
		"map":                dsl.Map(dsl.String(), dsl.Array(dsl.Number())),
		"set":                dsl.Set(dsl.String()).Min(1).Max(4),
		"union":              dsl.Union(dsl.String(), dsl.Number(), user),
		"discriminated union": dsl.DiscriminatedUnion("kind",
			dsl.Object().Field("kind", dsl.Literal("a")).Field("a", dsl.String()),
			dsl.Object().Field("kind", dsl.Enum("b", "c")).Field("b", dsl.Number())),
		"intersection": dsl.Intersection(user, dsl.Object().Field("name", dsl.String())),
		"nullable":     dsl.Nullable(dsl.String()),
		"default":      dsl.Default(dsl.Number(), 3.0),
		"default func": dsl.DefaultFunc(dsl.String(), func() any { return "x" }),
		"catch":        dsl.Catch(dsl.Array(dsl.Number()), []any{}),
		"branded":      dsl.Branded(dsl.String(), "UserID"),
		"readonly":     dsl.Readonly(dsl.Set(dsl.Number())),
		"described":    dsl.Describe(dsl.String(), "a name"),
		"lazy":         dsl.Lazy(func() dsl.Node { return user }),
		"nested union in catch": dsl.Catch(
			dsl.Union(dsl.Literal(1.0), dsl.Array(dsl.Union(dsl.String(), dsl.Null()))), nil),
	}
}

func TestFileParsesForEveryKind(t *testing.T) {
	for name, node := range everyKind() {
		for _, mode := range []compiler.InliningMode{compiler.InlineNone, compiler.InlineDefault} {
			t.Run(name+"/"+mode.String(), func(t *testing.T) {
				res, err := compiler.Compile(node, mode, "Validate")
				if err != nil {
					t.Fatalf("compile: %v", err)
				}
				src, err := gen.File("schemas", res.Func)
				if err != nil {
					t.Fatalf("render: %v", err)
				}
				if _, err := parser.ParseFile(token.NewFileSet(), "validate.go", src, parser.AllErrors); err != nil {
					t.Fatalf("generated source does not parse: %v\n%s", err, src)
				}
				if !strings.Contains(src, "func Validate(input any, ctx *verify.Context) verify.Status") {
					t.Fatalf("unexpected signature:\n%s", src)
				}
			})
		}
	}
}

func TestFileAggressiveLiterals(t *testing.T) {
	node := dsl.Object().
		Field("tags", dsl.Default(dsl.Array(dsl.String()), []any{"a", "b"})).
		Field("meta", dsl.Catch(dsl.Record(dsl.Number()), map[string]any{"n": 1.0})).
		Field("when", dsl.Default(dsl.Date(), time.UnixMilli(1000)))
	res, err := compiler.Compile(node, compiler.InlineAggressive, "Validate")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Dependencies) != 0 {
		t.Fatalf("aggressive inlining left %d dependencies", len(res.Dependencies))
	}
	src, err := gen.File("schemas", res.Func)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`[]any{"a", "b"}`, `map[string]any{"n": 1.0}`, "time.UnixMilli("} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in:\n%s", want, src)
		}
	}
}

func TestFileHoistsRegexps(t *testing.T) {
	res, err := compiler.Compile(dsl.Object().
		Field("a", dsl.String().Regex(regexp.MustCompile(`^a+$`))).
		Field("b", dsl.String().Regex(regexp.MustCompile(`^a+$`))), compiler.InlineDefault, "Validate")
	if err != nil {
		t.Fatal(err)
	}
	src, err := gen.File("schemas", res.Func)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(src, "regexp.MustCompile(") != 1 {
		t.Fatalf("identical patterns should share one variable:\n%s", src)
	}
	if !strings.Contains(src, "verify.MatchRegexp(pattern0, ") {
		t.Fatalf("pattern variable not referenced:\n%s", src)
	}
}

func TestFileLabelsOnlyWhenReferenced(t *testing.T) {
	res, err := compiler.Compile(dsl.String(), compiler.InlineDefault, "Validate")
	if err != nil {
		t.Fatal(err)
	}
	src, err := gen.File("schemas", res.Func)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(src, "for range 1") {
		t.Fatalf("unexpected labeled block:\n%s", src)
	}

	res, err = compiler.Compile(dsl.Object().Field("a", dsl.String()), compiler.InlineDefault, "Validate")
	if err != nil {
		t.Fatal(err)
	}
	src, err = gen.File("schemas", res.Func)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "for range 1") || !strings.Contains(src, "break field") {
		t.Fatalf("field escape should break a labeled block:\n%s", src)
	}
}

func TestTypes(t *testing.T) {
	node := dsl.Object().
		Field("user_id", dsl.Describe(dsl.String(), "primary key")).
		Field("age", dsl.Optional(dsl.Number())).
		Field("tags", dsl.Array(dsl.String())).
		Field("extra", dsl.Record(dsl.Any())).
		Field("seen", dsl.Set(dsl.String())).
		Field("born", dsl.Nullable(dsl.Date())).
		Field("balance", dsl.BigInt()).
		Field("role", dsl.Enum("admin", "user"))
	src, err := gen.Types(node, "User", true)
	if err != nil {
		t.Fatal(err)
	}
	flat := strings.Join(strings.Fields(src), " ")
	for _, want := range []string{
		"type User struct",
		"// primary key",
		"UserId string `json:\"user_id\"`",
		"Age *float64 `json:\"age,omitempty\"`",
		"Tags []string",
		"Extra map[string]any",
		"Seen *verify.Set",
		"Born *time.Time",
		"Balance *big.Int",
		"Role string",
	} {
		if !strings.Contains(flat, want) {
			t.Errorf("missing %q in:\n%s", want, src)
		}
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "types.go", "package p\n\n"+src, 0); err != nil {
		t.Fatalf("types do not parse: %v\n%s", err, src)
	}

	expr, err := gen.Types(dsl.Array(dsl.Number()), "", false)
	if err != nil {
		t.Fatal(err)
	}
	if expr != "[]float64" {
		t.Fatalf("bare type = %q", expr)
	}
}

func TestTypesFileImports(t *testing.T) {
	node := dsl.Object().
		Field("born", dsl.Date()).
		Field("seen", dsl.Set(dsl.String()))
	src, err := gen.TypesFile("models", node, "Person")
	if err != nil {
		t.Fatal(err)
	}
	f, err := parser.ParseFile(token.NewFileSet(), "person.go", src, parser.ImportsOnly)
	if err != nil {
		t.Fatalf("file does not parse: %v\n%s", err, src)
	}
	if f.Name.Name != "models" {
		t.Fatalf("package = %s", f.Name.Name)
	}
	imports := map[string]bool{}
	for _, imp := range f.Imports {
		imports[strings.Trim(imp.Path.Value, `"`)] = true
	}
	if !imports["time"] || !imports["github.com/reoring/goskemac/verify"] {
		t.Fatalf("imports = %v", imports)
	}
}
