package i18n_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/reoring/goskemac/i18n"
	"github.com/reoring/goskemac/verify"
)

func TestEnglishMessages(t *testing.T) {
	cases := []struct {
		issue verify.Issue
		want  string
	}{
		{verify.Issue{Code: verify.CodeInvalidType, Expected: verify.ParsedString, Received: verify.ParsedUndefined}, "Required"},
		{verify.Issue{Code: verify.CodeInvalidType, Expected: verify.ParsedString, Received: verify.ParsedNumber}, "Expected string, received number"},
		{verify.Issue{Code: verify.CodeInvalidLiteral, Expected: "x"}, `Invalid literal value, expected "x"`},
		{verify.Issue{Code: verify.CodeInvalidLiteral, Expected: big.NewInt(7)}, "Invalid literal value, expected 7"},
		{verify.Issue{Code: verify.CodeUnrecognizedKeys, Keys: []string{"a", "b"}}, "Unrecognized key(s) in object: 'a', 'b'"},
		{verify.Issue{Code: verify.CodeInvalidUnion}, "Invalid input"},
		{verify.Issue{Code: verify.CodeInvalidUnionDiscriminator, Options: []any{"a", 1.0}}, "Invalid discriminator value. Expected 'a' | 1"},
		{verify.Issue{Code: verify.CodeInvalidEnumValue, Options: []any{"a", "b"}, Received: "c"}, "Invalid enum value. Expected 'a' | 'b', received 'c'"},
		{verify.Issue{Code: verify.CodeInvalidString, Validation: "email"}, "Invalid email"},
		{verify.Issue{Code: verify.CodeInvalidString, Validation: "regex"}, "Invalid"},
		{verify.Issue{Code: verify.CodeInvalidString, Validation: "includes", Params: map[string]any{"includes": "@", "position": 2}},
			`Invalid input: must include "@" at one or more positions greater than or equal to 2`},
		{verify.Issue{Code: verify.CodeInvalidString, Validation: "startsWith", Params: map[string]any{"startsWith": "a"}}, `Invalid input: must start with "a"`},
		{verify.Issue{Code: verify.CodeTooSmall, Type: "string", Minimum: 3, Inclusive: true}, "String must contain at least 3 character(s)"},
		{verify.Issue{Code: verify.CodeTooSmall, Type: "array", Minimum: 2, Exact: true}, "Array must contain exactly 2 element(s)"},
		{verify.Issue{Code: verify.CodeTooSmall, Type: "number", Minimum: 0.5}, "Number must be greater than 0.5"},
		{verify.Issue{Code: verify.CodeTooSmall, Type: "set", Minimum: 1, Inclusive: true}, "Invalid input"},
		{verify.Issue{Code: verify.CodeTooSmall, Type: "date", Minimum: int64(0), Inclusive: true}, "Date must be greater than or equal to 1970-01-01T00:00:00Z"},
		{verify.Issue{Code: verify.CodeTooBig, Type: "bigint", Maximum: big.NewInt(10), Inclusive: true}, "BigInt must be less than or equal to 10"},
		{verify.Issue{Code: verify.CodeTooBig, Type: "string", Maximum: 5}, "String must contain under 5 character(s)"},
		{verify.Issue{Code: verify.CodeTooBig, Type: "date", Maximum: time.UnixMilli(1000)}, "Date must be smaller than 1970-01-01T00:00:01Z"},
		{verify.Issue{Code: verify.CodeInvalidIntersectionTypes}, "Intersection results could not be merged"},
		{verify.Issue{Code: verify.CodeNotMultipleOf, MultipleOf: 5}, "Number must be a multiple of 5"},
		{verify.Issue{Code: verify.CodeNotFinite}, "Number must be finite"},
	}
	for _, tc := range cases {
		if got := i18n.English(tc.issue, verify.ErrorMapContext{}); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.issue.Code, got, tc.want)
		}
	}
}

func TestJapaneseFallsBackToDefault(t *testing.T) {
	ja, ok := i18n.ForLanguage("ja")
	if !ok {
		t.Fatalf("ja not registered")
	}
	if got := ja(verify.Issue{Code: verify.CodeInvalidType, Received: verify.ParsedUndefined}, verify.ErrorMapContext{}); got != "必須です" {
		t.Fatalf("got %q", got)
	}
	iss := verify.Issue{Code: verify.CodeInvalidArguments}
	if got := ja(iss, verify.ErrorMapContext{DefaultError: "fallback"}); got != "fallback" {
		t.Fatalf("uncovered code should keep the default message, got %q", got)
	}
}

func TestLayeredThroughContext(t *testing.T) {
	ctx := verify.NewContext(nil, nil, i18n.Japanese, i18n.English)
	ctx.Report(verify.Issue{Code: verify.CodeInvalidArguments}, nil)
	ctx.Report(verify.Issue{Code: verify.CodeNotFinite}, 1.0)
	if got := ctx.Issues[0].Message; got != "Invalid function arguments" {
		t.Fatalf("message = %q", got)
	}
	if got := ctx.Issues[1].Message; got != "有限の数値が必要です" {
		t.Fatalf("message = %q", got)
	}
	if _, ok := i18n.ForLanguage("fr"); ok {
		t.Fatalf("unexpected language")
	}
	if got := i18n.Languages(); len(got) != 2 || got[0] != "en" || got[1] != "ja" {
		t.Fatalf("languages = %v", got)
	}
}
