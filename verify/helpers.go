package verify

import (
	"encoding/json"
	"iter"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	gojson "github.com/goccy/go-json"
)

// IsString reports whether v is a string.
func IsString(v any) bool {
	_, ok := v.(string)
	return ok
}

// IsNumber reports whether v is a number other than NaN.
func IsNumber(v any) bool { return TypeOf(v) == ParsedNumber }

func IsNaN(v any) bool    { return TypeOf(v) == ParsedNaN }
func IsBigInt(v any) bool { return TypeOf(v) == ParsedBigInt }
func IsDate(v any) bool   { return TypeOf(v) == ParsedDate }
func IsSymbol(v any) bool { return TypeOf(v) == ParsedSymbol }
func IsNull(v any) bool   { return v == nil }
func IsArray(v any) bool  { return TypeOf(v) == ParsedArray }

func IsBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// IsValidDate reports whether v is a date with a usable timestamp.
func IsValidDate(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

// Float converts any numeric value to float64. Non-numbers yield NaN.
func Float(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// IsInteger reports whether v is a number without a fractional part.
func IsInteger(v any) bool {
	f := Float(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// IsFinite reports whether v is a finite number.
func IsFinite(v any) bool {
	f := Float(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FloatSafeRemainder computes val mod step on decimal representations so
// that 0.3 is a multiple of 0.1.
func FloatSafeRemainder(val, step float64) float64 {
	dec := max(decimals(val), decimals(step))
	vi, err1 := strconv.ParseInt(strings.Replace(strconv.FormatFloat(val, 'f', dec, 64), ".", "", 1), 10, 64)
	si, err2 := strconv.ParseInt(strings.Replace(strconv.FormatFloat(step, 'f', dec, 64), ".", "", 1), 10, 64)
	if err1 != nil || err2 != nil {
		return math.Mod(val, step)
	}
	if si == 0 {
		return math.NaN()
	}
	return float64(vi%si) / math.Pow10(dec)
}

func decimals(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// BigInt converts a bigint-compatible value. Non-integers yield nil.
func BigInt(v any) *big.Int {
	switch x := v.(type) {
	case *big.Int:
		return x
	case string:
		if b, ok := new(big.Int).SetString(x, 10); ok {
			return b
		}
	}
	return nil
}

// MustBigInt parses a decimal literal; generated code uses it for inlined
// bigint values.
func MustBigInt(s string) *big.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("verify: invalid bigint literal " + strconv.Quote(s))
	}
	return b
}

// BigCmp compares two bigint values like big.Int.Cmp. Missing values
// compare as zero.
func BigCmp(a, b any) int {
	x, y := BigInt(a), BigInt(b)
	if x == nil {
		x = new(big.Int)
	}
	if y == nil {
		y = new(big.Int)
	}
	return x.Cmp(y)
}

// BigMultipleOf reports whether v is divisible by step.
func BigMultipleOf(v, step any) bool {
	x, y := BigInt(v), BigInt(step)
	if x == nil || y == nil || y.Sign() == 0 {
		return false
	}
	return new(big.Int).Rem(x, y).Sign() == 0
}

// UnixMilli returns the timestamp of a date in milliseconds.
func UnixMilli(v any) int64 {
	if t, ok := v.(time.Time); ok {
		return t.UnixMilli()
	}
	return 0
}

// StringLength counts UTF-16 code units, the unit string length constraints
// are expressed in.
func StringLength(v any) int {
	s, _ := v.(string)
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func StartsWith(v any, prefix string) bool {
	s, _ := v.(string)
	return strings.HasPrefix(s, prefix)
}

func EndsWith(v any, suffix string) bool {
	s, _ := v.(string)
	return strings.HasSuffix(s, suffix)
}

// Includes reports whether sub occurs in v at or after the UTF-16 offset pos.
func Includes(v any, sub string, pos int) bool {
	s, _ := v.(string)
	if pos > 0 {
		u := utf16.Encode([]rune(s))
		if pos >= len(u) {
			return sub == ""
		}
		s = string(utf16.Decode(u[pos:]))
	}
	return strings.Contains(s, sub)
}

func Trim(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

func ToLower(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v
}

func ToUpper(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToUpper(s)
	}
	return v
}

// MatchRegexp reports whether v is a string matched by re.
func MatchRegexp(re *regexp.Regexp, v any) bool {
	s, ok := v.(string)
	return ok && re.MatchString(s)
}

// ArrayLen returns the length of an array value, or 0.
func ArrayLen(v any) int {
	switch x := v.(type) {
	case []any:
		return len(x)
	case *Set:
		return x.Len()
	case *Map:
		return x.Len()
	case nil, string:
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	}
	return 0
}

// NewArray allocates an output array of length n.
func NewArray(n int) []any { return make([]any, n) }

// NewObject allocates an output object.
func NewObject() map[string]any { return map[string]any{} }

// SetElem stores v at index i when i is in range.
func SetElem(arr []any, i int, v any) {
	if i >= 0 && i < len(arr) {
		arr[i] = v
	}
}

// Elem returns the element at index i of an array, or Undefined.
func Elem(v any, i int) any {
	switch x := v.(type) {
	case []any:
		if i >= 0 && i < len(x) {
			return x[i]
		}
		return Undefined
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && i >= 0 && i < rv.Len() {
		return rv.Index(i).Interface()
	}
	return Undefined
}

// Prop returns obj[key], or Undefined when obj is not an object or lacks key.
func Prop(obj any, key string) any {
	switch x := obj.(type) {
	case map[string]any:
		if v, ok := x[key]; ok {
			return v
		}
		return Undefined
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if mv.IsValid() {
			return mv.Interface()
		}
	}
	return Undefined
}

// SetProp stores v under the string form of key. Undefined values are
// omitted so absent optional fields stay absent.
func SetProp(obj map[string]any, key any, v any) {
	if IsUndefined(v) {
		return
	}
	k, ok := key.(string)
	if !ok {
		k = FormatValue(key)
	}
	obj[k] = v
}

// Elems iterates the elements of an array or set with their position.
func Elems(v any) iter.Seq2[int, any] {
	return ElemsFrom(v, 0)
}

// ElemsFrom iterates array elements starting at index start.
func ElemsFrom(v any, start int) iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		var vals []any
		switch x := v.(type) {
		case []any:
			vals = x
		case *Set:
			vals = x.vals
		default:
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				return
			}
			for i := start; i < rv.Len(); i++ {
				if !yield(i, rv.Index(i).Interface()) {
					return
				}
			}
			return
		}
		for i := start; i < len(vals); i++ {
			if !yield(i, vals[i]) {
				return
			}
		}
	}
}

// Fields iterates the properties of an object in sorted key order.
func Fields(v any) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range objectKeys(v) {
			if !yield(k, Prop(v, k)) {
				return
			}
		}
	}
}

func objectKeys(v any) []string {
	var keys []string
	switch x := v.(type) {
	case map[string]any:
		keys = make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
	}
	slices.Sort(keys)
	return keys
}

// Entries iterates the key/value pairs of a map value in insertion order
// (*Map) or sorted key order (Go maps).
func Entries(v any) iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		if m, ok := v.(*Map); ok {
			for i := range m.keys {
				if !yield(m.keys[i], m.vals[i]) {
					return
				}
			}
			return
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map {
			return
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(FormatValue(a.Interface()), FormatValue(b.Interface()))
		})
		for _, k := range keys {
			if !yield(k.Interface(), rv.MapIndex(k).Interface()) {
				return
			}
		}
	}
}

// ExtraKeys returns the sorted object keys not listed in known.
func ExtraKeys(v any, known []string) []string {
	var out []string
	for _, k := range objectKeys(v) {
		if !slices.Contains(known, k) {
			out = append(out, k)
		}
	}
	return out
}

// HasExtraKeys reports whether v carries keys outside known.
func HasExtraKeys(v any, known []string) bool { return len(ExtraKeys(v, known)) > 0 }

// CopyExtra copies the properties of src not listed in known into dst.
func CopyExtra(dst map[string]any, src any, known []string) {
	for _, k := range ExtraKeys(src, known) {
		dst[k] = Prop(src, k)
	}
}

// StrictEqual compares by value for scalars (all numeric kinds compare
// numerically, NaN never equals) and by identity for containers.
func StrictEqual(a, b any) bool {
	ta, tb := TypeOf(a), TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta {
	case ParsedNumber:
		return Float(a) == Float(b)
	case ParsedNaN:
		return false
	case ParsedBigInt:
		return BigCmp(a, b) == 0
	case ParsedNull, ParsedUndefined:
		return true
	case ParsedDate:
		x, okx := a.(time.Time)
		y, oky := b.(time.Time)
		return okx && oky && x.Equal(y)
	case ParsedArray, ParsedObject, ParsedMap, ParsedFunction:
		ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
		if ra.Kind() != rb.Kind() {
			return false
		}
		switch ra.Kind() {
		case reflect.Slice:
			return ra.Len() == rb.Len() && ra.Pointer() == rb.Pointer()
		case reflect.Map, reflect.Pointer, reflect.Func:
			return ra.Pointer() == rb.Pointer()
		}
		return false
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// MergeResult is the outcome of MergeValues.
type MergeResult struct {
	Valid bool
	Data  any
}

// MergeValues combines the outputs of both sides of an intersection.
// Objects merge key-wise, arrays of equal length index-wise, dates when their
// timestamps agree; anything else must be strictly equal.
func MergeValues(a, b any) MergeResult {
	if StrictEqual(a, b) {
		return MergeResult{Valid: true, Data: a}
	}
	ta, tb := TypeOf(a), TypeOf(b)
	switch {
	case ta == ParsedObject && tb == ParsedObject:
		out := map[string]any{}
		for k, v := range Fields(a) {
			out[k] = v
		}
		for k, v := range Fields(b) {
			prev, shared := out[k]
			if !shared {
				out[k] = v
				continue
			}
			m := MergeValues(prev, v)
			if !m.Valid {
				return MergeResult{}
			}
			out[k] = m.Data
		}
		return MergeResult{Valid: true, Data: out}
	case ta == ParsedArray && tb == ParsedArray:
		if ArrayLen(a) != ArrayLen(b) {
			return MergeResult{}
		}
		out := make([]any, 0, ArrayLen(a))
		for i, v := range Elems(a) {
			m := MergeValues(v, Elem(b, i))
			if !m.Valid {
				return MergeResult{}
			}
			out = append(out, m.Data)
		}
		return MergeResult{Valid: true, Data: out}
	case ta == ParsedDate && tb == ParsedDate:
		x, okx := a.(time.Time)
		y, oky := b.(time.Time)
		if okx && oky && x.UnixMilli() == y.UnixMilli() {
			return MergeResult{Valid: true, Data: a}
		}
	}
	return MergeResult{}
}

// Invoke calls a hoisted value factory.
func Invoke(f any) any {
	switch fn := f.(type) {
	case func() any:
		return fn()
	case nil:
		return Undefined
	}
	return f
}

// FormatValue renders v for messages and keys: strings verbatim, numbers in
// their shortest form, containers as JSON where possible.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case bool:
		return strconv.FormatBool(x)
	case *big.Int:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case ParsedType:
		return string(x)
	case interface{ String() string }:
		return x.String()
	}
	if TypeOf(v) == ParsedNumber || TypeOf(v) == ParsedNaN {
		return formatNumber(Float(v))
	}
	if b, err := gojson.Marshal(v); err == nil {
		return string(b)
	}
	return reflect.TypeOf(v).String()
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// "1e-07" -> "1e-7"
		if i := strings.LastIndexAny(s, "+-"); i > 0 && i+2 < len(s) && s[i+1] == '0' {
			s = s[:i+1] + s[i+2:]
		}
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// JoinValues renders values separated by sep, quoting strings.
func JoinValues(vals []any, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			parts[i] = "'" + s + "'"
			continue
		}
		parts[i] = FormatValue(v)
	}
	return strings.Join(parts, sep)
}
