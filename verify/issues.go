package verify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IssueCode identifies the kind of a validation issue.
type IssueCode string

// Issue codes (closed taxonomy).
const (
	CodeInvalidType               IssueCode = "invalid_type"
	CodeInvalidLiteral            IssueCode = "invalid_literal"
	CodeCustom                    IssueCode = "custom"
	CodeInvalidUnion              IssueCode = "invalid_union"
	CodeInvalidUnionDiscriminator IssueCode = "invalid_union_discriminator"
	CodeInvalidEnumValue          IssueCode = "invalid_enum_value"
	CodeUnrecognizedKeys          IssueCode = "unrecognized_keys"
	CodeInvalidArguments          IssueCode = "invalid_arguments"
	CodeInvalidReturnType         IssueCode = "invalid_return_type"
	CodeInvalidDate               IssueCode = "invalid_date"
	CodeInvalidString             IssueCode = "invalid_string"
	CodeTooSmall                  IssueCode = "too_small"
	CodeTooBig                    IssueCode = "too_big"
	CodeInvalidIntersectionTypes  IssueCode = "invalid_intersection_types"
	CodeNotMultipleOf             IssueCode = "not_multiple_of"
	CodeNotFinite                 IssueCode = "not_finite"
)

// Issue represents a single validation entry. Only the fields relevant to
// Code are populated.
type Issue struct {
	Path    []any // string keys and int indexes, root first.
	Code    IssueCode
	Message string

	// invalid_type, invalid_literal, invalid_enum_value
	Expected any
	Received any
	// unrecognized_keys
	Keys []string
	// invalid_union: one entry per option that produced issues.
	UnionErrors IssueSets
	// invalid_union_discriminator, invalid_enum_value
	Options []any
	// invalid_string: the format name, or includes/startsWith/endsWith with
	// the operand in Params.
	Validation string
	// too_small, too_big
	Minimum   any
	Maximum   any
	Inclusive bool
	Exact     bool
	Type      string // array|string|number|set|date|bigint
	// not_multiple_of
	MultipleOf any
	// Params carries structured parameters (custom issues, includes position, ...).
	Params map[string]any
}

// Pointer renders the issue path as a JSON Pointer (RFC 6901).
func (it Issue) Pointer() string { return Pointer(it.Path) }

// Pointer renders path segments as a JSON Pointer; the root is "/".
func Pointer(path []any) string {
	if len(path) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, p := range path {
		b.WriteByte('/')
		b.WriteString(escapePointer(segmentString(p)))
	}
	return b.String()
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func segmentString(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	default:
		return FormatValue(v)
	}
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s", it.Code, it.Pointer())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// FormattedError is the nested per-path message tree produced by Format.
type FormattedError struct {
	Errors []string                   `json:"_errors"`
	Fields map[string]*FormattedError `json:"fields,omitempty"`
}

// Format groups issue messages by path. Union issues are expanded into the
// issues of every option.
func (iss Issues) Format() *FormattedError {
	root := &FormattedError{Errors: []string{}}
	var walk func(Issues)
	walk = func(list Issues) {
		for _, it := range list {
			if it.Code == CodeInvalidUnion && len(it.UnionErrors) > 0 {
				for _, sub := range it.UnionErrors {
					walk(sub)
				}
				continue
			}
			node := root
			for _, seg := range it.Path {
				key := segmentString(seg)
				if node.Fields == nil {
					node.Fields = map[string]*FormattedError{}
				}
				next, ok := node.Fields[key]
				if !ok {
					next = &FormattedError{Errors: []string{}}
					node.Fields[key] = next
				}
				node = next
			}
			node.Errors = append(node.Errors, it.Message)
		}
	}
	walk(iss)
	return root
}

// FlattenedError splits messages into root-level and first-segment buckets.
type FlattenedError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Flatten returns messages keyed by the first path segment. Issues at the
// root end up in FormErrors.
func (iss Issues) Flatten() FlattenedError {
	out := FlattenedError{FormErrors: []string{}, FieldErrors: map[string][]string{}}
	for _, it := range iss {
		if len(it.Path) == 0 {
			out.FormErrors = append(out.FormErrors, it.Message)
			continue
		}
		key := segmentString(it.Path[0])
		out.FieldErrors[key] = append(out.FieldErrors[key], it.Message)
	}
	return out
}

// IssueSets collects the issue lists of failed union options.
type IssueSets []Issues

// Collect returns s extended by the issues reported into c, if any.
func (s IssueSets) Collect(c *Context) IssueSets {
	if len(c.Issues) == 0 {
		return s
	}
	return append(s, c.Issues)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
