// Package middleware validates JSON request bodies with a compiled parser.
// Framework adapters live in the echo and gin subpackages.
package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/schemafile"
)

// MaxBodyBytes bounds the request bodies Decode reads.
const MaxBodyBytes = 4 << 20

// ctxKeyParsed is the context key of the parsed request body.
type ctxKeyParsed struct{}

// ContextWithParsed attaches the parsed body to ctx.
func ContextWithParsed(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyParsed{}, parsed{v})
}

// ParsedFromContext returns the body stored by ContextWithParsed.
func ParsedFromContext(ctx context.Context) (any, bool) {
	v, ok := ctx.Value(ctxKeyParsed{}).(parsed)
	return v.data, ok
}

// parsed wraps the body so a nil JSON document still reports ok.
type parsed struct{ data any }

// Decode reads one JSON document. Duplicate keys are errors.
func Decode(r io.Reader) (any, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}
	vals, err := schemafile.DecodeData(data, schemafile.FormatJSON)
	if err != nil {
		return nil, err
	}
	return vals[0], nil
}

// Validate decodes r and runs p over the result. Malformed input is
// returned as err; schema violations as issues.
func Validate(p *goskemac.Parser, r io.Reader, opts ...goskemac.ParseOpt) (data any, issues goskemac.Issues, err error) {
	v, err := Decode(r)
	if err != nil {
		return nil, nil, err
	}
	res := p.SafeParse(v, opts...)
	if !res.Success {
		return nil, res.Error, nil
	}
	return res.Data, nil, nil
}

// IssuePayload is the JSON shape of one issue in error responses.
type IssuePayload struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorPayload shapes issues for JSON responses.
func ErrorPayload(issues goskemac.Issues) map[string]any {
	out := make([]IssuePayload, 0, len(issues))
	for _, it := range issues {
		out = append(out, IssuePayload{Path: it.Pointer(), Code: string(it.Code), Message: it.Message})
	}
	return map[string]any{"issues": out}
}

// ValidateJSON returns net/http middleware that validates request bodies
// with p. Valid bodies are stored in the request context; anything else is
// answered with 400.
func ValidateJSON(p *goskemac.Parser, opts ...goskemac.ParseOpt) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, issues, err := Validate(p, r.Body, opts...)
			switch {
			case err != nil:
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			case issues != nil:
				writeJSON(w, http.StatusBadRequest, ErrorPayload(issues))
			default:
				next.ServeHTTP(w, r.WithContext(ContextWithParsed(r.Context(), data)))
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}
