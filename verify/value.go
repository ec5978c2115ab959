package verify

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"time"
)

// undefined is the type of Undefined.
type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks an absent value (a missing object key, an omitted optional).
// nil stands for an explicit null.
var Undefined any = undefined{}

// IsUndefined reports whether v is the absence marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Symbol is a unique-identity value. Two symbols are equal only when they
// are the same pointer.
type Symbol struct{ desc string }

// NewSymbol returns a fresh symbol with the given description.
func NewSymbol(desc string) *Symbol { return &Symbol{desc: desc} }

func (s *Symbol) String() string { return "Symbol(" + s.desc + ")" }

// InvalidDate is produced by date coercion when the input cannot be parsed.
// It reports as a date but fails the validity check.
type InvalidDate struct{}

func (InvalidDate) String() string { return "Invalid Date" }

// ParsedType is the runtime type tag of a value as seen by the validators.
type ParsedType string

const (
	ParsedString    ParsedType = "string"
	ParsedNaN       ParsedType = "nan"
	ParsedNumber    ParsedType = "number"
	ParsedInteger   ParsedType = "integer"
	ParsedFloat     ParsedType = "float"
	ParsedBoolean   ParsedType = "boolean"
	ParsedDate      ParsedType = "date"
	ParsedBigInt    ParsedType = "bigint"
	ParsedSymbol    ParsedType = "symbol"
	ParsedFunction  ParsedType = "function"
	ParsedUndefined ParsedType = "undefined"
	ParsedNull      ParsedType = "null"
	ParsedArray     ParsedType = "array"
	ParsedObject    ParsedType = "object"
	ParsedUnknown   ParsedType = "unknown"
	ParsedPromise   ParsedType = "promise"
	ParsedVoid      ParsedType = "void"
	ParsedNever     ParsedType = "never"
	ParsedMap       ParsedType = "map"
	ParsedSet       ParsedType = "set"
)

// TypeOf classifies v. Go numeric kinds and json.Number are numbers, NaN is
// reported separately; []any and other slices are arrays; map[string]any is
// an object while *Map and other Go maps are maps.
func TypeOf(v any) ParsedType {
	switch x := v.(type) {
	case nil:
		return ParsedNull
	case undefined:
		return ParsedUndefined
	case string:
		return ParsedString
	case bool:
		return ParsedBoolean
	case float64:
		if math.IsNaN(x) {
			return ParsedNaN
		}
		return ParsedNumber
	case float32:
		if math.IsNaN(float64(x)) {
			return ParsedNaN
		}
		return ParsedNumber
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ParsedNumber
	case json.Number:
		if _, err := x.Float64(); err != nil {
			return ParsedNaN
		}
		return ParsedNumber
	case *big.Int:
		if x == nil {
			return ParsedNull
		}
		return ParsedBigInt
	case time.Time, InvalidDate:
		return ParsedDate
	case *Symbol:
		return ParsedSymbol
	case []any:
		return ParsedArray
	case map[string]any:
		return ParsedObject
	case *Map:
		return ParsedMap
	case *Set:
		return ParsedSet
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Func:
		return ParsedFunction
	case reflect.Slice, reflect.Array:
		return ParsedArray
	case reflect.Map:
		if reflect.TypeOf(v).Key().Kind() == reflect.String {
			return ParsedObject
		}
		return ParsedMap
	case reflect.Chan:
		return ParsedPromise
	}
	return ParsedUnknown
}

// Map is an insertion-ordered map with arbitrary keys. Keys are compared
// with StrictEqual.
type Map struct {
	keys   []any
	vals   []any
	frozen bool
}

// NewMap returns an empty map.
func NewMap() *Map { return &Map{} }

// MapOf builds a map from alternating key/value arguments.
func MapOf(kv ...any) *Map {
	m := &Map{}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

func (m *Map) index(k any) int {
	for i, have := range m.keys {
		if StrictEqual(have, k) {
			return i
		}
	}
	return -1
}

// Set stores v under k. It panics on a frozen map.
func (m *Map) Set(k, v any) {
	if m.frozen {
		panic("verify: assignment to frozen Map")
	}
	if i := m.index(k); i >= 0 {
		m.vals[i] = v
		return
	}
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

// Get returns the value stored under k.
func (m *Map) Get(k any) (any, bool) {
	if i := m.index(k); i >= 0 {
		return m.vals[i], true
	}
	return nil, false
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any { return append([]any(nil), m.keys...) }

// Frozen reports whether Freeze was applied.
func (m *Map) Frozen() bool { return m.frozen }

// Set is an insertion-ordered set compared with StrictEqual.
type Set struct {
	vals   []any
	frozen bool
}

// NewSet returns an empty set.
func NewSet() *Set { return &Set{} }

// SetOf builds a set from its arguments, dropping duplicates.
func SetOf(vals ...any) *Set {
	s := &Set{}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add inserts v unless already present. It panics on a frozen set.
func (s *Set) Add(v any) {
	if s.frozen {
		panic("verify: assignment to frozen Set")
	}
	if s.Has(v) {
		return
	}
	s.vals = append(s.vals, v)
}

// Has reports membership.
func (s *Set) Has(v any) bool {
	for _, have := range s.vals {
		if StrictEqual(have, v) {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.vals) }

// Values returns the members in insertion order.
func (s *Set) Values() []any { return append([]any(nil), s.vals...) }

// Frozen reports whether Freeze was applied.
func (s *Set) Frozen() bool { return s.frozen }

// Freeze marks *Map and *Set values read-only and returns v. Plain Go maps
// and slices cannot be marked and are returned unchanged.
func Freeze(v any) any {
	switch x := v.(type) {
	case *Map:
		x.frozen = true
	case *Set:
		x.frozen = true
	}
	return v
}
