package goskemac

import (
	"github.com/reoring/goskemac/internal/compiler"
	"github.com/reoring/goskemac/verify"
)

// Compile errors. Every error returned by Compile, CompileStandalone and
// Types wraps one of these.
var (
	ErrUnsupportedKind = compiler.ErrUnsupportedKind
	ErrNotInlinable    = compiler.ErrNotInlinable
	ErrCyclicSchema    = compiler.ErrCyclicSchema
	ErrInvalidSchema   = compiler.ErrInvalidSchema
)

// Issue is a single validation entry.
type Issue = verify.Issue

// Issues is a collection of validation errors that implements error.
type Issues = verify.Issues

// AsIssues extracts Issues from an error returned by Parser.Parse.
func AsIssues(err error) (Issues, bool) { return verify.AsIssues(err) }

// InliningMode selects which runtime values compiled code embeds as literals.
type InliningMode = compiler.InliningMode

// Inlining modes.
const (
	InlineNone       = compiler.InlineNone
	InlineDefault    = compiler.InlineDefault
	InlineAggressive = compiler.InlineAggressive
)

// ParseInliningMode maps "none", "default" and "aggressive" to a mode.
func ParseInliningMode(s string) (InliningMode, error) { return compiler.ParseInliningMode(s) }
