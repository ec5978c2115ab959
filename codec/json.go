package codec

import (
	"math"
	"time"

	"github.com/reoring/goskemac/verify"
)

// JSON converts a parsed value into something encoding/json compatible
// marshalers accept:
//
//   - time.Time becomes an RFC3339 string and InvalidDate null;
//   - *verify.Map becomes an object when every key is a string, otherwise
//     a list of [key, value] pairs;
//   - *verify.Set becomes an array;
//   - Undefined is dropped from objects and becomes null in arrays;
//   - NaN and infinities become null; symbols their description.
//
// *big.Int is left alone since it marshals as a JSON number.
func JSON(v any) any {
	switch x := v.(type) {
	case time.Time:
		return FormatRFC3339(x)
	case verify.InvalidDate:
		return nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case *verify.Symbol:
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if !verify.IsUndefined(e) {
				out[k] = JSON(e)
			}
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = JSON(e)
		}
		return out
	case *verify.Set:
		return JSON(x.Values())
	case *verify.Map:
		return mapJSON(x)
	}
	if verify.IsUndefined(v) {
		return nil
	}
	return v
}

func mapJSON(m *verify.Map) any {
	keys := m.Keys()
	obj := make(map[string]any, len(keys))
	for _, k := range keys {
		s, ok := k.(string)
		if !ok {
			pairs := make([]any, 0, len(keys))
			for _, k := range keys {
				v, _ := m.Get(k)
				pairs = append(pairs, []any{JSON(k), JSON(v)})
			}
			return pairs
		}
		v, _ := m.Get(k)
		if !verify.IsUndefined(v) {
			obj[s] = JSON(v)
		}
	}
	return obj
}
