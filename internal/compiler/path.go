package compiler

import (
	"fmt"

	"github.com/reoring/goskemac/internal/ir"
)

// Path accumulates the location of the value under validation. Segments are
// literal keys, literal indexes, or expressions evaluated at parse time
// (loop variables). Push never mutates the receiver, so siblings that share
// a prefix do not observe each other's segments.
type Path struct{ parts []ir.Expr }

// EmptyPath is the root location.
func EmptyPath() Path { return Path{} }

// Push returns the path extended by seg, which must be a string, an int or
// an ir.Expr.
func (p Path) Push(seg any) Path {
	parts := make([]ir.Expr, len(p.parts), len(p.parts)+1)
	copy(parts, p.parts)
	switch s := seg.(type) {
	case string:
		parts = append(parts, ir.L(s))
	case int:
		parts = append(parts, ir.L(s))
	case ir.Expr:
		parts = append(parts, s)
	default:
		panic(fmt.Sprintf("compiler: unsupported path segment %T", seg))
	}
	return Path{parts: parts}
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.parts) }

// Expr returns the segments as expressions for an issue path literal.
func (p Path) Expr() []ir.Expr {
	out := make([]ir.Expr, len(p.parts))
	copy(out, p.parts)
	return out
}
