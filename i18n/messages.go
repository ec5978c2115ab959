// Package i18n provides the built-in error maps that turn issues into
// human-readable messages.
package i18n

import (
	"math/big"
	"slices"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/verify"
)

// English is the default error map. Every parse consults it last.
var English verify.ErrorMap = english

// Japanese renders messages in Japanese. Codes it does not cover keep the
// message of the next lower map.
var Japanese verify.ErrorMap = japanese

var languages = map[string]verify.ErrorMap{
	"en": English,
	"ja": Japanese,
}

// ForLanguage returns the error map for a language tag ("en", "ja").
func ForLanguage(lang string) (verify.ErrorMap, bool) {
	m, ok := languages[lang]
	return m, ok
}

// Languages lists the supported language tags in sorted order.
func Languages() []string {
	out := make([]string, 0, len(languages))
	for k := range languages {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func english(issue verify.Issue, ctx verify.ErrorMapContext) string {
	switch issue.Code {
	case verify.CodeInvalidType:
		if issue.Received == verify.ParsedUndefined {
			return "Required"
		}
		return "Expected " + verify.FormatValue(issue.Expected) + ", received " + verify.FormatValue(issue.Received)
	case verify.CodeInvalidLiteral:
		return "Invalid literal value, expected " + stringify(issue.Expected)
	case verify.CodeUnrecognizedKeys:
		return "Unrecognized key(s) in object: " + verify.JoinValues(anys(issue.Keys), ", ")
	case verify.CodeInvalidUnion, verify.CodeCustom:
		return "Invalid input"
	case verify.CodeInvalidUnionDiscriminator:
		return "Invalid discriminator value. Expected " + verify.JoinValues(issue.Options, " | ")
	case verify.CodeInvalidEnumValue:
		return "Invalid enum value. Expected " + verify.JoinValues(issue.Options, " | ") +
			", received '" + verify.FormatValue(issue.Received) + "'"
	case verify.CodeInvalidArguments:
		return "Invalid function arguments"
	case verify.CodeInvalidReturnType:
		return "Invalid function return type"
	case verify.CodeInvalidDate:
		return "Invalid date"
	case verify.CodeInvalidString:
		return invalidString(issue)
	case verify.CodeTooSmall:
		return tooSmall(issue)
	case verify.CodeTooBig:
		return tooBig(issue)
	case verify.CodeInvalidIntersectionTypes:
		return "Intersection results could not be merged"
	case verify.CodeNotMultipleOf:
		return "Number must be a multiple of " + verify.FormatValue(issue.MultipleOf)
	case verify.CodeNotFinite:
		return "Number must be finite"
	}
	return ctx.DefaultError
}

func invalidString(issue verify.Issue) string {
	switch issue.Validation {
	case "includes":
		msg := `Invalid input: must include "` + verify.FormatValue(issue.Params["includes"]) + `"`
		if pos, ok := issue.Params["position"]; ok {
			msg += " at one or more positions greater than or equal to " + verify.FormatValue(pos)
		}
		return msg
	case "startsWith":
		return `Invalid input: must start with "` + verify.FormatValue(issue.Params["startsWith"]) + `"`
	case "endsWith":
		return `Invalid input: must end with "` + verify.FormatValue(issue.Params["endsWith"]) + `"`
	case "regex", "":
		return "Invalid"
	}
	return "Invalid " + issue.Validation
}

// pick returns exact, inclusive or exclusive wording for a bound.
func pick(issue verify.Issue, exact, inclusive, exclusive string) string {
	switch {
	case issue.Exact:
		return exact
	case issue.Inclusive:
		return inclusive
	}
	return exclusive
}

func tooSmall(issue verify.Issue) string {
	lo := issue.Minimum
	switch issue.Type {
	case "array":
		return "Array must contain " + pick(issue, "exactly", "at least", "more than") + " " + verify.FormatValue(lo) + " element(s)"
	case "string":
		return "String must contain " + pick(issue, "exactly", "at least", "over") + " " + verify.FormatValue(lo) + " character(s)"
	case "number":
		return "Number must be " + pick(issue, "exactly equal to", "greater than or equal to", "greater than") + " " + verify.FormatValue(lo)
	case "date":
		return "Date must be " + pick(issue, "exactly equal to", "greater than or equal to", "greater than") + " " + formatDate(lo)
	}
	return "Invalid input"
}

func tooBig(issue verify.Issue) string {
	hi := issue.Maximum
	switch issue.Type {
	case "array":
		return "Array must contain " + pick(issue, "exactly", "at most", "less than") + " " + verify.FormatValue(hi) + " element(s)"
	case "string":
		return "String must contain " + pick(issue, "exactly", "at most", "under") + " " + verify.FormatValue(hi) + " character(s)"
	case "number":
		return "Number must be " + pick(issue, "exactly", "less than or equal to", "less than") + " " + verify.FormatValue(hi)
	case "bigint":
		return "BigInt must be " + pick(issue, "exactly", "less than or equal to", "less than") + " " + verify.FormatValue(hi)
	case "date":
		return "Date must be " + pick(issue, "exactly", "smaller than or equal to", "smaller than") + " " + formatDate(hi)
	}
	return "Invalid input"
}

// formatDate renders a date bound, given as Unix milliseconds or a time.
func formatDate(v any) string {
	switch x := v.(type) {
	case time.Time:
		return codec.FormatRFC3339(x)
	case int64:
		return codec.FormatUnixMilli(x)
	}
	if verify.TypeOf(v) == verify.ParsedNumber {
		return codec.FormatUnixMilli(int64(verify.Float(v)))
	}
	return verify.FormatValue(v)
}

// stringify renders v as JSON, with big integers in decimal.
func stringify(v any) string {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case nil:
		return "null"
	}
	if verify.TypeOf(v) == verify.ParsedNaN {
		return "null"
	}
	b, err := gojson.Marshal(v)
	if err != nil {
		return verify.FormatValue(v)
	}
	return string(b)
}

func anys(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
