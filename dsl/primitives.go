package dsl

import (
	"math"
	"math/big"
	"regexp"
	"slices"
	"time"
)

// StringCheckKind names a string constraint.
type StringCheckKind string

const (
	StringMin         StringCheckKind = "min"
	StringMax         StringCheckKind = "max"
	StringLength      StringCheckKind = "length"
	StringEmail       StringCheckKind = "email"
	StringURL         StringCheckKind = "url"
	StringEmoji       StringCheckKind = "emoji"
	StringUUID        StringCheckKind = "uuid"
	StringNanoID      StringCheckKind = "nanoid"
	StringCUID        StringCheckKind = "cuid"
	StringCUID2       StringCheckKind = "cuid2"
	StringULID        StringCheckKind = "ulid"
	StringRegex       StringCheckKind = "regex"
	StringIncludes    StringCheckKind = "includes"
	StringStartsWith  StringCheckKind = "startsWith"
	StringEndsWith    StringCheckKind = "endsWith"
	StringDatetime    StringCheckKind = "datetime"
	StringDate        StringCheckKind = "date"
	StringTime        StringCheckKind = "time"
	StringDuration    StringCheckKind = "duration"
	StringIP          StringCheckKind = "ip"
	StringCIDR        StringCheckKind = "cidr"
	StringBase64      StringCheckKind = "base64"
	StringBase64URL   StringCheckKind = "base64url"
	StringJWT         StringCheckKind = "jwt"
	StringTrim        StringCheckKind = "trim"
	StringToLowerCase StringCheckKind = "toLowerCase"
	StringToUpperCase StringCheckKind = "toUpperCase"
)

// AnyPrecision accepts any number of fractional second digits.
const AnyPrecision = -1

// StringCheck is one string constraint. Only the fields relevant to Kind are
// set.
type StringCheck struct {
	Kind      StringCheckKind
	Value     int            // min, max, length
	Text      string         // includes, startsWith, endsWith
	Position  int            // includes
	Regex     *regexp.Regexp // regex
	Precision int            // datetime, time; AnyPrecision when unset
	Offset    bool           // datetime
	Local     bool           // datetime
	Version   string         // ip, cidr: "v4", "v6" or ""
	Alg       string         // jwt
	Message   string
}

// StringNode validates strings.
type StringNode struct {
	checks []StringCheck
	coerce bool
}

// String returns a string schema.
func String() *StringNode { return &StringNode{} }

func (*StringNode) Kind() Kind { return KindString }

// Checks returns the constraints in declaration order.
func (n *StringNode) Checks() []StringCheck { return slices.Clone(n.checks) }

// Coerced reports whether inputs are converted to strings first.
func (n *StringNode) Coerced() bool { return n.coerce }

// Coerce converts any input to a string before validation.
func (n *StringNode) Coerce() *StringNode {
	c := clone(n)
	c.coerce = true
	return c
}

func (n *StringNode) with(ck StringCheck) *StringNode {
	c := clone(n)
	c.checks = append(slices.Clone(n.checks), ck)
	return c
}

func (n *StringNode) Min(v int, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringMin, Value: v, Message: firstMessage(msg)})
}

func (n *StringNode) Max(v int, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringMax, Value: v, Message: firstMessage(msg)})
}

func (n *StringNode) Length(v int, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringLength, Value: v, Message: firstMessage(msg)})
}

// NonEmpty is Min(1).
func (n *StringNode) NonEmpty(msg ...string) *StringNode { return n.Min(1, msg...) }

func (n *StringNode) Email(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringEmail, Message: firstMessage(msg)})
}

func (n *StringNode) URL(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringURL, Message: firstMessage(msg)})
}

func (n *StringNode) Emoji(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringEmoji, Message: firstMessage(msg)})
}

func (n *StringNode) UUID(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringUUID, Message: firstMessage(msg)})
}

func (n *StringNode) NanoID(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringNanoID, Message: firstMessage(msg)})
}

func (n *StringNode) CUID(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringCUID, Message: firstMessage(msg)})
}

func (n *StringNode) CUID2(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringCUID2, Message: firstMessage(msg)})
}

func (n *StringNode) ULID(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringULID, Message: firstMessage(msg)})
}

// Regex requires a match of re anywhere in the input.
func (n *StringNode) Regex(re *regexp.Regexp, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringRegex, Regex: re, Message: firstMessage(msg)})
}

func (n *StringNode) Includes(s string, msg ...string) *StringNode {
	return n.IncludesAt(s, 0, msg...)
}

// IncludesAt requires s to occur at or after the UTF-16 offset pos.
func (n *StringNode) IncludesAt(s string, pos int, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringIncludes, Text: s, Position: pos, Message: firstMessage(msg)})
}

func (n *StringNode) StartsWith(s string, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringStartsWith, Text: s, Message: firstMessage(msg)})
}

func (n *StringNode) EndsWith(s string, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringEndsWith, Text: s, Message: firstMessage(msg)})
}

// DatetimeOpts tunes Datetime. A nil Precision accepts any fraction.
type DatetimeOpts struct {
	Precision *int
	Offset    bool
	Local     bool
}

// Datetime requires an ISO 8601 timestamp in UTC ("Z").
func (n *StringNode) Datetime(msg ...string) *StringNode {
	return n.DatetimeWith(DatetimeOpts{}, msg...)
}

func (n *StringNode) DatetimeWith(opts DatetimeOpts, msg ...string) *StringNode {
	p := AnyPrecision
	if opts.Precision != nil {
		p = *opts.Precision
	}
	return n.with(StringCheck{Kind: StringDatetime, Precision: p, Offset: opts.Offset, Local: opts.Local, Message: firstMessage(msg)})
}

// Date requires a YYYY-MM-DD calendar date.
func (n *StringNode) Date(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringDate, Message: firstMessage(msg)})
}

// Time requires HH:MM:SS with precision fractional digits, or any number
// when precision is AnyPrecision.
func (n *StringNode) Time(precision int, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringTime, Precision: precision, Message: firstMessage(msg)})
}

func (n *StringNode) Duration(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringDuration, Message: firstMessage(msg)})
}

// IP accepts "v4", "v6" or "" for either.
func (n *StringNode) IP(version string, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringIP, Version: version, Message: firstMessage(msg)})
}

func (n *StringNode) CIDR(version string, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringCIDR, Version: version, Message: firstMessage(msg)})
}

func (n *StringNode) Base64(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringBase64, Message: firstMessage(msg)})
}

func (n *StringNode) Base64URL(msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringBase64URL, Message: firstMessage(msg)})
}

// JWT requires a token whose header declares alg (any alg when empty).
func (n *StringNode) JWT(alg string, msg ...string) *StringNode {
	return n.with(StringCheck{Kind: StringJWT, Alg: alg, Message: firstMessage(msg)})
}

func (n *StringNode) Trim() *StringNode { return n.with(StringCheck{Kind: StringTrim}) }

func (n *StringNode) ToLowerCase() *StringNode { return n.with(StringCheck{Kind: StringToLowerCase}) }

func (n *StringNode) ToUpperCase() *StringNode { return n.with(StringCheck{Kind: StringToUpperCase}) }

// NumberCheckKind names a number constraint.
type NumberCheckKind string

const (
	NumberMin        NumberCheckKind = "min"
	NumberMax        NumberCheckKind = "max"
	NumberInt        NumberCheckKind = "int"
	NumberMultipleOf NumberCheckKind = "multipleOf"
	NumberFinite     NumberCheckKind = "finite"
)

// NumberCheck is one number constraint.
type NumberCheck struct {
	Kind      NumberCheckKind
	Value     float64
	Inclusive bool
	Message   string
}

// NumberNode validates numbers. NaN is rejected as a type mismatch.
type NumberNode struct {
	checks []NumberCheck
	coerce bool
}

func Number() *NumberNode { return &NumberNode{} }

func (*NumberNode) Kind() Kind { return KindNumber }

func (n *NumberNode) Checks() []NumberCheck { return slices.Clone(n.checks) }

func (n *NumberNode) Coerced() bool { return n.coerce }

func (n *NumberNode) Coerce() *NumberNode {
	c := clone(n)
	c.coerce = true
	return c
}

func (n *NumberNode) with(ck NumberCheck) *NumberNode {
	c := clone(n)
	c.checks = append(slices.Clone(n.checks), ck)
	return c
}

func (n *NumberNode) Gt(v float64, msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberMin, Value: v, Message: firstMessage(msg)})
}

func (n *NumberNode) Gte(v float64, msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberMin, Value: v, Inclusive: true, Message: firstMessage(msg)})
}

func (n *NumberNode) Lt(v float64, msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberMax, Value: v, Message: firstMessage(msg)})
}

func (n *NumberNode) Lte(v float64, msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberMax, Value: v, Inclusive: true, Message: firstMessage(msg)})
}

// Min is Gte.
func (n *NumberNode) Min(v float64, msg ...string) *NumberNode { return n.Gte(v, msg...) }

// Max is Lte.
func (n *NumberNode) Max(v float64, msg ...string) *NumberNode { return n.Lte(v, msg...) }

func (n *NumberNode) Int(msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberInt, Message: firstMessage(msg)})
}

func (n *NumberNode) Positive(msg ...string) *NumberNode    { return n.Gt(0, msg...) }
func (n *NumberNode) NonNegative(msg ...string) *NumberNode { return n.Gte(0, msg...) }
func (n *NumberNode) Negative(msg ...string) *NumberNode    { return n.Lt(0, msg...) }
func (n *NumberNode) NonPositive(msg ...string) *NumberNode { return n.Lte(0, msg...) }

func (n *NumberNode) MultipleOf(v float64, msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberMultipleOf, Value: v, Message: firstMessage(msg)})
}

// Step is MultipleOf.
func (n *NumberNode) Step(v float64, msg ...string) *NumberNode { return n.MultipleOf(v, msg...) }

func (n *NumberNode) Finite(msg ...string) *NumberNode {
	return n.with(NumberCheck{Kind: NumberFinite, Message: firstMessage(msg)})
}

// Safe bounds the value to the range of exactly representable integers.
func (n *NumberNode) Safe(msg ...string) *NumberNode {
	const maxSafe = 1<<53 - 1
	return n.Gte(-maxSafe, msg...).Lte(maxSafe, msg...)
}

// BigIntCheck is one bigint constraint. Kind is min, max or multipleOf.
type BigIntCheck struct {
	Kind      NumberCheckKind
	Value     *big.Int
	Inclusive bool
	Message   string
}

// BigIntNode validates *big.Int values.
type BigIntNode struct {
	checks []BigIntCheck
	coerce bool
}

func BigInt() *BigIntNode { return &BigIntNode{} }

func (*BigIntNode) Kind() Kind { return KindBigInt }

func (n *BigIntNode) Checks() []BigIntCheck { return slices.Clone(n.checks) }

func (n *BigIntNode) Coerced() bool { return n.coerce }

func (n *BigIntNode) Coerce() *BigIntNode {
	c := clone(n)
	c.coerce = true
	return c
}

func (n *BigIntNode) with(ck BigIntCheck) *BigIntNode {
	c := clone(n)
	c.checks = append(slices.Clone(n.checks), ck)
	return c
}

func (n *BigIntNode) Gt(v *big.Int, msg ...string) *BigIntNode {
	return n.with(BigIntCheck{Kind: NumberMin, Value: v, Message: firstMessage(msg)})
}

func (n *BigIntNode) Gte(v *big.Int, msg ...string) *BigIntNode {
	return n.with(BigIntCheck{Kind: NumberMin, Value: v, Inclusive: true, Message: firstMessage(msg)})
}

func (n *BigIntNode) Lt(v *big.Int, msg ...string) *BigIntNode {
	return n.with(BigIntCheck{Kind: NumberMax, Value: v, Message: firstMessage(msg)})
}

func (n *BigIntNode) Lte(v *big.Int, msg ...string) *BigIntNode {
	return n.with(BigIntCheck{Kind: NumberMax, Value: v, Inclusive: true, Message: firstMessage(msg)})
}

func (n *BigIntNode) Min(v *big.Int, msg ...string) *BigIntNode { return n.Gte(v, msg...) }
func (n *BigIntNode) Max(v *big.Int, msg ...string) *BigIntNode { return n.Lte(v, msg...) }

func (n *BigIntNode) Positive(msg ...string) *BigIntNode    { return n.Gt(new(big.Int), msg...) }
func (n *BigIntNode) NonNegative(msg ...string) *BigIntNode { return n.Gte(new(big.Int), msg...) }
func (n *BigIntNode) Negative(msg ...string) *BigIntNode    { return n.Lt(new(big.Int), msg...) }
func (n *BigIntNode) NonPositive(msg ...string) *BigIntNode { return n.Lte(new(big.Int), msg...) }

func (n *BigIntNode) MultipleOf(v *big.Int, msg ...string) *BigIntNode {
	return n.with(BigIntCheck{Kind: NumberMultipleOf, Value: v, Message: firstMessage(msg)})
}

// BooleanNode validates bools.
type BooleanNode struct{ coerce bool }

func Boolean() *BooleanNode { return &BooleanNode{} }

func (*BooleanNode) Kind() Kind { return KindBoolean }

func (n *BooleanNode) Coerced() bool { return n.coerce }

// Coerce converts the input by truthiness.
func (n *BooleanNode) Coerce() *BooleanNode { return &BooleanNode{coerce: true} }

// DateCheck bounds a date. Kind is min or max, both inclusive.
type DateCheck struct {
	Kind    NumberCheckKind
	Value   time.Time
	Message string
}

// DateNode validates time.Time values.
type DateNode struct {
	checks []DateCheck
	coerce bool
}

func Date() *DateNode { return &DateNode{} }

func (*DateNode) Kind() Kind { return KindDate }

func (n *DateNode) Checks() []DateCheck { return slices.Clone(n.checks) }

func (n *DateNode) Coerced() bool { return n.coerce }

func (n *DateNode) Coerce() *DateNode {
	c := clone(n)
	c.coerce = true
	return c
}

func (n *DateNode) Min(t time.Time, msg ...string) *DateNode {
	c := clone(n)
	c.checks = append(slices.Clone(n.checks), DateCheck{Kind: NumberMin, Value: t, Message: firstMessage(msg)})
	return c
}

func (n *DateNode) Max(t time.Time, msg ...string) *DateNode {
	c := clone(n)
	c.checks = append(slices.Clone(n.checks), DateCheck{Kind: NumberMax, Value: t, Message: firstMessage(msg)})
	return c
}

// Trivial schemas.
type (
	SymbolNode    struct{}
	UndefinedNode struct{}
	NullNode      struct{}
	VoidNode      struct{}
	AnyNode       struct{}
	UnknownNode   struct{}
	NeverNode     struct{}
	NaNNode       struct{}
)

func Symbol() *SymbolNode       { return &SymbolNode{} }
func Undefined() *UndefinedNode { return &UndefinedNode{} }
func Null() *NullNode           { return &NullNode{} }
func Void() *VoidNode           { return &VoidNode{} }
func Any() *AnyNode             { return &AnyNode{} }
func Unknown() *UnknownNode     { return &UnknownNode{} }
func Never() *NeverNode         { return &NeverNode{} }
func NaN() *NaNNode             { return &NaNNode{} }

func (*SymbolNode) Kind() Kind    { return KindSymbol }
func (*UndefinedNode) Kind() Kind { return KindUndefined }
func (*NullNode) Kind() Kind      { return KindNull }
func (*VoidNode) Kind() Kind      { return KindVoid }
func (*AnyNode) Kind() Kind       { return KindAny }
func (*UnknownNode) Kind() Kind   { return KindUnknown }
func (*NeverNode) Kind() Kind     { return KindNever }
func (*NaNNode) Kind() Kind       { return KindNaN }

// LiteralNode accepts exactly one value.
type LiteralNode struct{ value any }

// Literal accepts values strictly equal to v: a string, number, *big.Int,
// bool, nil or verify.Undefined.
func Literal(v any) *LiteralNode { return &LiteralNode{value: v} }

func (*LiteralNode) Kind() Kind { return KindLiteral }

func (n *LiteralNode) Value() any { return n.value }

// EnumNode accepts one of a fixed set of strings.
type EnumNode struct{ values []string }

func Enum(values ...string) *EnumNode { return &EnumNode{values: slices.Clone(values)} }

func (*EnumNode) Kind() Kind { return KindEnum }

func (n *EnumNode) Values() []string { return slices.Clone(n.values) }

// Extract keeps only the listed values.
func (n *EnumNode) Extract(values ...string) *EnumNode {
	var out []string
	for _, v := range n.values {
		if slices.Contains(values, v) {
			out = append(out, v)
		}
	}
	return &EnumNode{values: out}
}

// Exclude drops the listed values.
func (n *EnumNode) Exclude(values ...string) *EnumNode {
	var out []string
	for _, v := range n.values {
		if !slices.Contains(values, v) {
			out = append(out, v)
		}
	}
	return &EnumNode{values: out}
}

// NativeEnumNode accepts the values of a named constant set.
type NativeEnumNode struct {
	names  []string
	values []any
}

// NativeEnum builds an enum from name/value pairs. Values must be strings or
// numbers. Members are ordered by name; duplicate values are kept once.
func NativeEnum(members map[string]any) *NativeEnumNode {
	names := make([]string, 0, len(members))
	for k := range members {
		names = append(names, k)
	}
	slices.Sort(names)
	n := &NativeEnumNode{}
	for _, name := range names {
		v := members[name]
		dup := false
		for _, have := range n.values {
			if sameScalar(have, v) {
				dup = true
				break
			}
		}
		if !dup {
			n.names = append(n.names, name)
			n.values = append(n.values, v)
		}
	}
	return n
}

func (*NativeEnumNode) Kind() Kind { return KindNativeEnum }

// Values returns the distinct member values.
func (n *NativeEnumNode) Values() []any { return slices.Clone(n.values) }

// Names returns the member name of each value.
func (n *NativeEnumNode) Names() []string { return slices.Clone(n.names) }

func sameScalar(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb && !math.IsNaN(fa)
	}
	sa, ok := a.(string)
	sb, okb := b.(string)
	return ok && okb && sa == sb
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
