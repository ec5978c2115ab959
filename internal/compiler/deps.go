package compiler

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/ir"
	"github.com/reoring/goskemac/verify"
)

// InliningMode selects which runtime values compiled code embeds as literals
// instead of reading them from the dependency table.
type InliningMode int

const (
	// InlineNone hoists every value into the dependency table.
	InlineNone InliningMode = iota
	// InlineDefault inlines strings, numbers, big integers, booleans, nil and
	// verify.Undefined.
	InlineDefault
	// InlineAggressive additionally rebuilds arrays, objects, maps, sets,
	// dates and regular expressions from literal construction code. Values
	// without a literal form fail the compile.
	InlineAggressive
)

func (m InliningMode) String() string {
	switch m {
	case InlineNone:
		return "none"
	case InlineDefault:
		return "default"
	case InlineAggressive:
		return "aggressive"
	}
	return "InliningMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseInliningMode maps "none", "default" and "aggressive" to a mode.
func ParseInliningMode(s string) (InliningMode, error) {
	switch s {
	case "none":
		return InlineNone, nil
	case "", "default":
		return InlineDefault, nil
	case "aggressive":
		return InlineAggressive, nil
	}
	return InlineDefault, fmt.Errorf("unknown inlining mode %q", s)
}

// Dependencies is the append-only table of runtime values referenced by
// compiled code. Index i is read as ctx.Dependencies[i].
type Dependencies struct {
	ctx    ir.Expr
	mode   InliningMode
	values []any
}

// NewDependencies creates a table addressed through the verifier context ctx.
func NewDependencies(ctx ir.Expr, mode InliningMode) *Dependencies {
	return &Dependencies{ctx: ctx, mode: mode}
}

// Add hoists v and returns the expression that reads it back.
func (d *Dependencies) Add(v any) ir.Expr {
	d.values = append(d.values, v)
	return ir.Dep{Ctx: d.ctx, Index: len(d.values) - 1}
}

// AddOrInline returns a literal for v when the inlining mode allows one and
// hoists v otherwise.
func (d *Dependencies) AddOrInline(v any) (ir.Expr, error) {
	if d.mode == InlineNone {
		return d.Add(v), nil
	}
	e, ok, err := toLiteral(v, d.mode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return d.Add(v), nil
	}
	return e, nil
}

// Values returns the table in index order.
func (d *Dependencies) Values() []any { return slices.Clone(d.values) }

// Len returns the number of hoisted values.
func (d *Dependencies) Len() int { return len(d.values) }

func toLiteral(v any, mode InliningMode) (ir.Expr, bool, error) {
	switch x := v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return ir.L(x), true, nil
	case *big.Int:
		if x == nil {
			return ir.L(nil), true, nil
		}
		return ir.L(new(big.Int).Set(x)), true, nil
	}
	if verify.IsUndefined(v) {
		return ir.L(verify.Undefined), true, nil
	}
	if mode != InlineAggressive {
		return nil, false, nil
	}

	switch x := v.(type) {
	case []any:
		elems := make([]ir.Expr, len(x))
		for i, e := range x {
			lit, err := mustLiteral(e, mode)
			if err != nil {
				return nil, false, err
			}
			elems[i] = lit
		}
		return ir.ArrayLit{Elems: elems}, true, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		vals := make([]ir.Expr, len(keys))
		for i, k := range keys {
			lit, err := mustLiteral(x[k], mode)
			if err != nil {
				return nil, false, err
			}
			vals[i] = lit
		}
		return ir.ObjectLit{Keys: keys, Values: vals}, true, nil
	case *verify.Map:
		out := ir.MapLit{}
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			kl, err := mustLiteral(k, mode)
			if err != nil {
				return nil, false, err
			}
			vl, err := mustLiteral(val, mode)
			if err != nil {
				return nil, false, err
			}
			out.Keys = append(out.Keys, kl)
			out.Values = append(out.Values, vl)
		}
		return out, true, nil
	case *verify.Set:
		out := ir.SetLit{}
		for _, e := range x.Values() {
			lit, err := mustLiteral(e, mode)
			if err != nil {
				return nil, false, err
			}
			out.Elems = append(out.Elems, lit)
		}
		return out, true, nil
	case time.Time:
		return ir.DateLit{UnixMilli: x.UnixMilli()}, true, nil
	case *regexp.Regexp:
		return ir.RegexpLit{Source: x.String()}, true, nil
	case *verify.Symbol:
		return nil, false, fmt.Errorf("%w: symbols have unique identity", ErrNotInlinable)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func:
		return nil, false, fmt.Errorf("%w: functions cannot be inlined", ErrNotInlinable)
	case reflect.Chan:
		return nil, false, fmt.Errorf("%w: channels cannot be inlined", ErrNotInlinable)
	}
	return nil, false, fmt.Errorf("%w: %T", ErrNotInlinable, v)
}

func mustLiteral(v any, mode InliningMode) (ir.Expr, error) {
	e, ok, err := toLiteral(v, mode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotInlinable, v)
	}
	return e, nil
}

// Unit is the state of one compile call: the dependency table, the
// unique-name counter and the chain of lazy nodes being expanded.
type Unit struct {
	Deps *Dependencies
	// Ctx is the verifier context parameter of the compiled function.
	Ctx ir.Expr
	// Input is the input parameter of the compiled function.
	Input ir.Expr

	names  map[string]int
	active []*dsl.LazyNode
}

// NewUnit prepares a compile call whose function takes parameters named
// input and ctx.
func NewUnit(mode InliningMode) *Unit {
	ctx := ir.Id("ctx")
	return &Unit{
		Deps:  NewDependencies(ctx, mode),
		Ctx:   ctx,
		Input: ir.Id("input"),
		names: reservedNames(),
	}
}

// reservedNames holds the parameters and the package names a generated file
// may import.
func reservedNames() map[string]int {
	m := map[string]int{}
	for _, n := range []string{"input", "ctx", "verify", "time", "regexp", "math", "big", "json"} {
		m[n] = 1
	}
	return m
}

// Name returns an identifier unique within the unit, derived from base.
func (u *Unit) Name(base string) string {
	n := u.names[base]
	u.names[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "_" + strconv.Itoa(n)
}
