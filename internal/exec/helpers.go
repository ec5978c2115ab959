package exec

import (
	"regexp"

	"github.com/reoring/goskemac/verify"
)

type helper struct {
	arity int
	fn    func(a []any) any
}

func h1(fn func(any) any) helper       { return helper{1, func(a []any) any { return fn(a[0]) }} }
func b1(fn func(any) bool) helper      { return helper{1, func(a []any) any { return fn(a[0]) }} }
func h2(fn func(any, any) any) helper  { return helper{2, func(a []any) any { return fn(a[0], a[1]) }} }
func b2(fn func(any, any) bool) helper { return helper{2, func(a []any) any { return fn(a[0], a[1]) }} }

// helpers mirrors the verify functions compiled code calls.
var helpers = map[string]helper{
	"TypeOf":      {1, func(a []any) any { return verify.TypeOf(a[0]) }},
	"IsString":    b1(verify.IsString),
	"IsNumber":    b1(verify.IsNumber),
	"IsNaN":       b1(verify.IsNaN),
	"IsBigInt":    b1(verify.IsBigInt),
	"IsBool":      b1(verify.IsBool),
	"IsDate":      b1(verify.IsDate),
	"IsValidDate": b1(verify.IsValidDate),
	"IsSymbol":    b1(verify.IsSymbol),
	"IsNull":      b1(verify.IsNull),
	"IsUndefined": b1(verify.IsUndefined),
	"IsArray":     b1(verify.IsArray),
	"IsInteger":   b1(verify.IsInteger),
	"IsFinite":    b1(verify.IsFinite),
	"IsURL":       b1(verify.IsURL),
	"StrictEqual": b2(verify.StrictEqual),

	"Float":              {1, func(a []any) any { return verify.Float(a[0]) }},
	"FloatSafeRemainder": {2, func(a []any) any { return verify.FloatSafeRemainder(a[0].(float64), a[1].(float64)) }},
	"BigCmp":             {2, func(a []any) any { return verify.BigCmp(a[0], a[1]) }},
	"BigMultipleOf":      b2(verify.BigMultipleOf),
	"UnixMilli":          {1, func(a []any) any { return verify.UnixMilli(a[0]) }},
	"StringLength":       {1, func(a []any) any { return verify.StringLength(a[0]) }},
	"ArrayLen":           {1, func(a []any) any { return verify.ArrayLen(a[0]) }},

	"ToString": h1(verify.ToString),
	"ToNumber": h1(verify.ToNumber),
	"ToBigInt": h1(verify.ToBigInt),
	"ToBool":   h1(verify.ToBool),
	"ToDate":   h1(verify.ToDate),
	"Trim":     h1(verify.Trim),
	"ToLower":  h1(verify.ToLower),
	"ToUpper":  h1(verify.ToUpper),
	"Invoke":   h1(verify.Invoke),
	"Freeze":   h1(verify.Freeze),

	"CheckFormat": {2, func(a []any) any { return verify.CheckFormat(a[0].(string), a[1]) }},
	"MatchRegexp": {2, func(a []any) any { return verify.MatchRegexp(a[0].(*regexp.Regexp), a[1]) }},
	"IsIP":        {2, func(a []any) any { return verify.IsIP(a[0], a[1].(string)) }},
	"IsCIDR":      {2, func(a []any) any { return verify.IsCIDR(a[0], a[1].(string)) }},
	"IsValidJWT":  {2, func(a []any) any { return verify.IsValidJWT(a[0], a[1].(string)) }},
	"StartsWith":  {2, func(a []any) any { return verify.StartsWith(a[0], a[1].(string)) }},
	"EndsWith":    {2, func(a []any) any { return verify.EndsWith(a[0], a[1].(string)) }},
	"Includes":    {3, func(a []any) any { return verify.Includes(a[0], a[1].(string), a[2].(int)) }},

	"NewArray":  {1, func(a []any) any { return verify.NewArray(a[0].(int)) }},
	"NewObject": {0, func([]any) any { return verify.NewObject() }},
	"NewMap":    {0, func([]any) any { return verify.NewMap() }},
	"NewSet":    {0, func([]any) any { return verify.NewSet() }},
	"Elem":      {2, func(a []any) any { return verify.Elem(a[0], a[1].(int)) }},
	"Prop":      {2, func(a []any) any { return verify.Prop(a[0], a[1].(string)) }},
	"SetElem": {3, func(a []any) any {
		verify.SetElem(a[0].([]any), a[1].(int), a[2])
		return nil
	}},
	"SetProp": {3, func(a []any) any {
		verify.SetProp(a[0].(map[string]any), a[1], a[2])
		return nil
	}},
	"Elems":        {1, func(a []any) any { return verify.Elems(a[0]) }},
	"ElemsFrom":    {2, func(a []any) any { return verify.ElemsFrom(a[0], a[1].(int)) }},
	"Fields":       {1, func(a []any) any { return verify.Fields(a[0]) }},
	"Entries":      {1, func(a []any) any { return verify.Entries(a[0]) }},
	"ExtraKeys":    {2, func(a []any) any { return verify.ExtraKeys(a[0], a[1].([]string)) }},
	"HasExtraKeys": {2, func(a []any) any { return verify.HasExtraKeys(a[0], a[1].([]string)) }},
	"CopyExtra": {3, func(a []any) any {
		verify.CopyExtra(a[0].(map[string]any), a[1], a[2].([]string))
		return nil
	}},
	"MergeValues": h2(func(x, y any) any { return verify.MergeValues(x, y) }),
	"MustBigInt":  {1, func(a []any) any { return verify.MustBigInt(a[0].(string)) }},
}

// methods mirrors the methods compiled code calls on runtime values.
var methods = map[string]helper{
	"Fork": {0, func(a []any) any { return a[0].(*verify.Context).Fork() }},
	"Adopt": {1, func(a []any) any {
		a[0].(*verify.Context).Adopt(a[1].(*verify.Context))
		return nil
	}},
	"Collect": {1, func(a []any) any { return a[0].(verify.IssueSets).Collect(a[1].(*verify.Context)) }},
	"Add": {1, func(a []any) any {
		a[0].(*verify.Set).Add(a[1])
		return nil
	}},
	"Set": {2, func(a []any) any {
		a[0].(*verify.Map).Set(a[1], a[2])
		return nil
	}},
}
