package gen_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/i18n"
	"github.com/reoring/goskemac/internal/compiler"
	goexec "github.com/reoring/goskemac/internal/exec"
	"github.com/reoring/goskemac/internal/gen"
	"github.com/reoring/goskemac/verify"
)

// runnerSource drives the generated Validate over JSON inputs and prints one
// outcome per input in the shape produced by outcome below.
const runnerSource = `package main

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/i18n"
	"github.com/reoring/goskemac/verify"
)

func main() {
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		panic(err)
	}
	var inputs []any
	if err := gojson.Unmarshal(data, &inputs); err != nil {
		panic(err)
	}
	out := make([]map[string]any, 0, len(inputs))
	for _, in := range inputs {
		ctx := verify.NewContext(nil, nil, i18n.English)
		st := Validate(in, ctx)
		issues := make([]map[string]any, 0, len(ctx.Issues))
		for _, it := range ctx.Issues {
			issues = append(issues, map[string]any{"code": string(it.Code), "path": it.Pointer(), "message": it.Message})
		}
		out = append(out, map[string]any{"status": int(st), "output": codec.JSON(ctx.Output), "issues": issues})
	}
	b, err := gojson.Marshal(out)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(b))
}
`

func paritySchema() dsl.Node {
	return dsl.Object().
		Field("name", dsl.String().Trim().Min(2).Regex(regexp.MustCompile(`^[a-z ]+$`))).
		Field("age", dsl.Optional(dsl.Number().Int().Gte(0))).
		Field("tags", dsl.Optional(dsl.Array(dsl.Enum("a", "b")).Max(2))).
		Field("mode", dsl.Default(dsl.Enum("fast", "safe"), "safe")).
		Field("pair", dsl.Optional(dsl.Tuple(dsl.String(), dsl.Number()).Rest(dsl.Boolean()))).
		Field("labels", dsl.Optional(dsl.RecordOf(dsl.String().Trim(), dsl.Number()))).
		Field("id", dsl.Union(dsl.Number(), dsl.String().UUID())).
		Field("note", dsl.Nullable(dsl.Catch(dsl.String().Max(3), "..."))).
		Field("kind", dsl.DiscriminatedUnion("type",
			dsl.Object().Field("type", dsl.Literal("x")).Field("x", dsl.Number()),
			dsl.Object().Field("type", dsl.Literal("y")).Strict())).
		Strict()
}

const parityInputs = `[
	{"name": " ann ", "id": 1, "note": null, "kind": {"type": "x", "x": 2}},
	{"name": "bo", "age": 3, "mode": "fast", "tags": ["a", "b"], "pair": ["p", 1, true, false], "labels": {" k ": 1},
	 "id": "123e4567-e89b-12d3-a456-426614174000", "note": "toolong", "kind": {"type": "y"}},
	{"name": "X", "age": -1.5, "mode": "slow", "tags": ["c", "a", "b"], "pair": ["p"], "labels": {"k": "v"},
	 "id": true, "note": 4, "kind": {"type": "z"}, "extra": 1},
	{"name": 1, "kind": {"type": "y", "more": 1}},
	"not an object",
	null
]`

// outcome mirrors the JSON printed by runnerSource.
func outcome(st verify.Status, ctx *verify.Context) map[string]any {
	issues := make([]map[string]any, 0, len(ctx.Issues))
	for _, it := range ctx.Issues {
		issues = append(issues, map[string]any{"code": string(it.Code), "path": it.Pointer(), "message": it.Message})
	}
	return map[string]any{"status": int(st), "output": codec.JSON(ctx.Output), "issues": issues}
}

// normalize round-trips v through JSON so both sides compare as decoded data.
func normalize(t *testing.T, v any) any {
	t.Helper()
	b, err := gojson.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var out any
	if err := gojson.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

// TestGeneratedMatchesInProcess builds the rendered validator into a small
// program and checks that it agrees with the closure evaluator on every
// input, in each inlining mode.
func TestGeneratedMatchesInProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a program with the go tool")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not available")
	}
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatal(err)
	}

	var inputs []any
	if err := gojson.Unmarshal([]byte(parityInputs), &inputs); err != nil {
		t.Fatal(err)
	}

	for _, mode := range []compiler.InliningMode{compiler.InlineDefault, compiler.InlineAggressive} {
		t.Run(mode.String(), func(t *testing.T) {
			res, err := compiler.Compile(paritySchema(), mode, "Validate")
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if len(res.Dependencies) != 0 {
				t.Fatalf("schema hoists %d values; the runner passes no table", len(res.Dependencies))
			}
			src, err := gen.File("main", res.Func)
			if err != nil {
				t.Fatalf("render: %v", err)
			}

			fn, err := goexec.Compile(res.Func)
			if err != nil {
				t.Fatalf("exec: %v", err)
			}
			want := make([]any, 0, len(inputs))
			for _, in := range inputs {
				ctx := verify.NewContext(nil, nil, i18n.English)
				want = append(want, outcome(fn(in, ctx), ctx))
			}

			// The program lives inside the module so it resolves the
			// module's own requirements.
			dir, err := os.MkdirTemp(root, "paritygen")
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { os.RemoveAll(dir) })
			files := map[string]string{
				"validate_gen.go": src,
				"main.go":         runnerSource,
				"inputs.json":     parityInputs,
			}
			for name, body := range files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			cmd := exec.Command(goTool, "run", "./"+filepath.Base(dir), filepath.Join(dir, "inputs.json"))
			cmd.Dir = root
			cmd.Stderr = os.Stderr
			stdout, err := cmd.Output()
			if err != nil {
				t.Fatalf("go run: %v\n%s", err, src)
			}
			var got any
			if err := gojson.Unmarshal(stdout, &got); err != nil {
				t.Fatalf("runner output: %v\n%s", err, stdout)
			}
			if w := normalize(t, want); !reflect.DeepEqual(got, w) {
				t.Fatalf("generated and in-process results differ\ngenerated: %v\nin-process: %v", got, w)
			}
		})
	}
}
