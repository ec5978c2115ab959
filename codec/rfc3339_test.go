package codec_test

import (
	"math"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/verify"
)

func TestRFC3339(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-01T00:00:00Z", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-01-01T09:00:00.250+09:00", time.Date(2025, 1, 1, 0, 0, 0, 250e6, time.UTC)},
	}
	for _, tc := range cases {
		got, err := codec.ParseRFC3339(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: got %v", tc.in, got)
		}
	}
	if _, err := codec.ParseRFC3339("2025-01-01"); err == nil {
		t.Fatal("dates without a time must be rejected")
	}
	if got := codec.FormatRFC3339(cases[1].want); got != "2025-01-01T00:00:00.25Z" {
		t.Fatalf("format = %s", got)
	}
	if got := codec.FormatUnixMilli(0); got != "1970-01-01T00:00:00Z" {
		t.Fatalf("format millis = %s", got)
	}
}

func TestJSON(t *testing.T) {
	m := verify.NewMap()
	m.Set("a", 1.0)
	m.Set("gone", verify.Undefined)
	pairs := verify.NewMap()
	pairs.Set(1.0, "one")
	set := verify.NewSet()
	set.Add(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	n := big.NewInt(7)

	in := map[string]any{
		"map":     m,
		"pairs":   pairs,
		"set":     set,
		"missing": verify.Undefined,
		"list":    []any{verify.Undefined, math.NaN(), verify.InvalidDate{}},
		"big":     n,
		"sym":     verify.NewSymbol("id"),
	}
	want := map[string]any{
		"map":   map[string]any{"a": 1.0},
		"pairs": []any{[]any{1.0, "one"}},
		"set":   []any{"2025-01-01T00:00:00Z"},
		"list":  []any{nil, nil, nil},
		"big":   n,
		"sym":   "Symbol(id)",
	}
	if got := codec.JSON(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("JSON = %#v", got)
	}
}
