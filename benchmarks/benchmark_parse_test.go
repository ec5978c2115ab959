package benchmarks_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/schemafile"
)

// ---- Helpers ----

func itemSchema() *dsl.ObjectNode {
	return dsl.Object().
		Field("id", dsl.String().Min(1)).
		Field("name", dsl.String()).
		Field("age", dsl.Number().Int().Gte(0)).
		Field("active", dsl.Boolean()).
		Field("meta", dsl.Object().Field("score", dsl.Number()))
}

// generateJSONArray returns a JSON array of objects of the form
// {"id":"obj_0","name":"n0","age":0,"active":true,"meta":{"score":0},"k0":"v0_0",...}.
func generateJSONArray(numObjects, extraFields int) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"id":"obj_%d","name":"n%d","age":%d,"active":%t,"meta":{"score":%d}`, i, i, i, i%2 == 0, i)
		for k := 0; k < extraFields; k++ {
			fmt.Fprintf(&buf, `,"k%d":"v%d_%d"`, k, i, k)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func decodeOne(tb testing.TB, data []byte) any {
	tb.Helper()
	vals, err := schemafile.DecodeData(data, schemafile.FormatJSON)
	if err != nil {
		tb.Fatalf("decode: %v", err)
	}
	return vals[0]
}

// ---- Benchmarks ----

func BenchmarkSafeParse_SmallObject(b *testing.B) {
	v := decodeOne(b, []byte(`{"id":"u_1","name":"alice","age":30,"active":true,"meta":{"score":1.5}}`))
	for _, tc := range []struct {
		name string
		node dsl.Node
	}{
		{"strip", itemSchema()},
		{"strict", itemSchema().Strict()},
		{"passthrough", itemSchema().Passthrough()},
	} {
		p := goskemac.MustCompile(tc.node)
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if r := p.SafeParse(v); !r.Success {
					b.Fatal(r.Error)
				}
			}
		})
	}
}

func BenchmarkSafeParse_HugeArray(b *testing.B) {
	data := generateJSONArray(1000, 8)
	v := decodeOne(b, data)
	p := goskemac.MustCompile(dsl.Array(itemSchema()))
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		if r := p.SafeParse(v); !r.Success {
			b.Fatal(r.Error)
		}
	}
}

// decode cost is included; compare with BenchmarkSafeParse_HugeArray.
func BenchmarkDecodeAndParse_HugeArray(b *testing.B) {
	data := generateJSONArray(1000, 8)
	p := goskemac.MustCompile(dsl.Array(itemSchema()))
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		vals, err := schemafile.DecodeData(data, schemafile.FormatJSON)
		if err != nil {
			b.Fatal(err)
		}
		if !p.Is(vals[0]) {
			b.Fatal("invalid")
		}
	}
}

func BenchmarkSafeParse_Failure(b *testing.B) {
	v := decodeOne(b, []byte(`{"id":"","name":1,"age":-1,"active":"yes","meta":{}}`))
	p := goskemac.MustCompile(itemSchema().Strict())
	b.ReportAllocs()
	for b.Loop() {
		if p.Is(v) {
			b.Fatal("expected issues")
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	node := dsl.Array(itemSchema().Strict())
	b.ReportAllocs()
	for b.Loop() {
		if _, err := goskemac.Compile(node); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompileStandalone(b *testing.B) {
	node := dsl.Array(itemSchema().Strict())
	for _, mode := range []goskemac.InliningMode{goskemac.InlineNone, goskemac.InlineDefault, goskemac.InlineAggressive} {
		b.Run(mode.String(), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := goskemac.CompileStandalone(node, goskemac.WithInlining(mode)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
