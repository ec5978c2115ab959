package verify

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// ToString coerces v the way String(v) does in the validators' reference
// semantics.
func ToString(v any) any {
	return toString(v)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format("Mon Jan 02 2006 15:04:05 GMT-0700")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e == nil || IsUndefined(e) {
				continue
			}
			parts[i] = toString(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	return FormatValue(v)
}

// ToNumber coerces v to a float64, yielding NaN when v has no numeric
// reading.
func ToNumber(v any) any {
	switch x := v.(type) {
	case nil:
		return 0.0
	case bool:
		if x {
			return 1.0
		}
		return 0.0
	case string:
		return parseNumber(x)
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case time.Time:
		return float64(x.UnixMilli())
	case []any:
		return parseNumber(toString(x))
	}
	if TypeOf(v) == ParsedNumber || TypeOf(v) == ParsedNaN {
		return Float(v)
	}
	return math.NaN()
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "_xXpP") || strings.EqualFold(s, "inf") || strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	return f
}

// ToBigInt coerces v to a *big.Int. Values without an integer reading are
// returned unchanged so the subsequent type guard reports them.
func ToBigInt(v any) any {
	switch x := v.(type) {
	case *big.Int:
		return x
	case bool:
		if x {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return big.NewInt(0)
		}
		if b, ok := new(big.Int).SetString(s, 0); ok {
			return b
		}
		return v
	}
	if IsNumber(v) && IsInteger(v) {
		b, _ := new(big.Float).SetFloat64(Float(v)).Int(nil)
		return b
	}
	return v
}

// ToBool coerces v by truthiness.
func ToBool(v any) any {
	switch x := v.(type) {
	case nil, undefined:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case *big.Int:
		return x.Sign() != 0
	}
	if t := TypeOf(v); t == ParsedNumber || t == ParsedNaN {
		f := Float(v)
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// maxDateMillis bounds dates to 100,000,000 days either side of the epoch.
const maxDateMillis = 8.64e15

// ToDate coerces v to a time.Time. Unparsable input becomes InvalidDate.
func ToDate(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x
	case nil:
		return time.UnixMilli(0).UTC()
	case bool:
		if x {
			return time.UnixMilli(1).UTC()
		}
		return time.UnixMilli(0).UTC()
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return InvalidDate{}
	}
	if IsNumber(v) && IsFinite(v) {
		if ms := Float(v); math.Abs(ms) <= maxDateMillis {
			return time.UnixMilli(int64(ms)).UTC()
		}
	}
	return InvalidDate{}
}
