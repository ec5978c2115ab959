package compiler

import (
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
)

// TypeUnit is the state of one type export: the chain of lazy nodes being
// expanded.
type TypeUnit struct {
	active []*dsl.LazyNode
}

func NewTypeUnit() *TypeUnit { return &TypeUnit{} }

// Of returns the Go type of the values n produces.
func (t *TypeUnit) Of(n dsl.Node) (jen.Code, error) {
	r, err := Lookup(n)
	if err != nil {
		return nil, err
	}
	return r.GoType(t)
}

// nilable reports whether the Go type of n already has a nil value, so an
// optional or nullable wrapper does not need a pointer.
func nilable(n dsl.Node) bool {
	switch dsl.Unwrap(n).Kind() {
	case dsl.KindString, dsl.KindNumber, dsl.KindBoolean, dsl.KindDate,
		dsl.KindLiteral, dsl.KindEnum, dsl.KindNativeEnum, dsl.KindObject,
		dsl.KindTuple, dsl.KindNaN, dsl.KindNever:
		return false
	case dsl.KindDefault, dsl.KindCatch, dsl.KindLazy:
		inner := dsl.Unwrap(n)
		if w, ok := inner.(dsl.Wrapper); ok {
			return nilable(w.Inner())
		}
		if l, ok := inner.(*dsl.LazyNode); ok {
			return nilable(l.Resolve())
		}
	}
	return true
}

// exportName turns a property name into an exported Go identifier, so
// "user_id" becomes UserId.
func exportName(key string) string {
	var b strings.Builder
	upper := true
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	s := b.String()
	if s == "" || !unicode.IsLetter([]rune(s)[0]) {
		s = "F" + s
	}
	return s
}
