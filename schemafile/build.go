package schemafile

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"slices"
	"sort"
	"strconv"

	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/verify"
)

type builder struct {
	named map[string]dsl.Node
	refs  map[string]*dsl.LazyNode
	// first use of each ref, for error messages
	sites map[string][]any
}

func newBuilder() *builder {
	return &builder{named: map[string]dsl.Node{}, refs: map[string]*dsl.LazyNode{}, sites: map[string][]any{}}
}

func (b *builder) document(v any, index int) (Document, error) {
	path := []any{index}
	m, ok := v.(*mapping)
	if ok && m.has("schema") {
		p := params{m: m, path: path, used: map[string]bool{}}
		name, _, err := p.str("name")
		if err != nil {
			return Document{}, err
		}
		node, err := b.node(p.raw("schema"), append(slices.Clip(path), "schema"))
		if err != nil {
			return Document{}, err
		}
		if err := p.done(); err != nil {
			return Document{}, err
		}
		return Document{Name: name, Node: node}, nil
	}
	node, err := b.node(v, path)
	if err != nil {
		return Document{}, err
	}
	return Document{Node: node}, nil
}

func (b *builder) ref(name string, path []any) dsl.Node {
	if l, ok := b.refs[name]; ok {
		return l
	}
	l := dsl.Lazy(func() dsl.Node { return b.named[name] })
	b.refs[name] = l
	b.sites[name] = path
	return l
}

func (b *builder) checkRefs() error {
	names := make([]string, 0, len(b.refs))
	for name := range b.refs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := b.named[name]; !ok {
			return fmt.Errorf("%w: %q at %s", ErrUnknownRef, name, verify.Pointer(b.sites[name]))
		}
	}
	return nil
}

func invalid(path []any, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidDocument, verify.Pointer(path), fmt.Sprintf(format, args...))
}

func (b *builder) node(v any, path []any) (dsl.Node, error) {
	if s, ok := v.(string); ok {
		m := newMapping()
		m.set("type", s)
		v = m
	}
	m, ok := v.(*mapping)
	if !ok {
		return nil, invalid(path, "expected a node, got %s", verify.TypeOf(v))
	}
	p := params{m: m, path: path, used: map[string]bool{}}
	typ, ok, err := p.str("type")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid(path, "missing type")
	}
	n, err := b.kind(dsl.Kind(typ), &p)
	if err != nil {
		return nil, err
	}
	if n, err = b.wrap(n, &p); err != nil {
		return nil, err
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *builder) kind(k dsl.Kind, p *params) (dsl.Node, error) {
	switch k {
	case dsl.KindString:
		return stringNode(p)
	case dsl.KindNumber:
		return numberNode(p)
	case dsl.KindBigInt:
		return bigintNode(p)
	case dsl.KindBoolean:
		n := dsl.Boolean()
		on, err := p.flag("coerce")
		if on {
			n = n.Coerce()
		}
		return n, err
	case dsl.KindDate:
		return dateNode(p)
	case dsl.KindSymbol:
		return dsl.Symbol(), nil
	case dsl.KindUndefined:
		return dsl.Undefined(), nil
	case dsl.KindNull:
		return dsl.Null(), nil
	case dsl.KindVoid:
		return dsl.Void(), nil
	case dsl.KindAny:
		return dsl.Any(), nil
	case dsl.KindUnknown:
		return dsl.Unknown(), nil
	case dsl.KindNever:
		return dsl.Never(), nil
	case dsl.KindNaN:
		return dsl.NaN(), nil
	case dsl.KindLiteral:
		if s, ok, err := p.str("bigint"); err != nil {
			return nil, err
		} else if ok {
			i, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, invalid(p.at("bigint"), "not an integer: %q", s)
			}
			return dsl.Literal(i), nil
		}
		v, ok := p.value("value")
		if !ok {
			return nil, invalid(p.path, "literal without value")
		}
		return dsl.Literal(v), nil
	case dsl.KindEnum:
		vals, err := p.strs("values")
		if err != nil {
			return nil, err
		}
		return dsl.Enum(vals...), nil
	case dsl.KindNativeEnum:
		members, ok := p.raw("members").(*mapping)
		if !ok {
			return nil, invalid(p.at("members"), "expected a mapping")
		}
		return dsl.NativeEnum(plain(members).(map[string]any)), nil
	case dsl.KindObject:
		return b.object(p)
	case dsl.KindArray:
		return b.array(p)
	case dsl.KindSet:
		return b.set(p)
	case dsl.KindTuple:
		items, err := b.nodes(p, "items")
		if err != nil {
			return nil, err
		}
		n := dsl.Tuple(items...)
		if p.m.has("rest") {
			rest, err := b.child(p, "rest")
			if err != nil {
				return nil, err
			}
			n = n.Rest(rest)
		}
		return n, nil
	case dsl.KindRecord:
		values, err := b.child(p, "values")
		if err != nil {
			return nil, err
		}
		if !p.m.has("key") {
			return dsl.Record(values), nil
		}
		key, err := b.child(p, "key")
		if err != nil {
			return nil, err
		}
		return dsl.RecordOf(key, values), nil
	case dsl.KindMap:
		key, err := b.child(p, "key")
		if err != nil {
			return nil, err
		}
		values, err := b.child(p, "values")
		if err != nil {
			return nil, err
		}
		return dsl.Map(key, values), nil
	case dsl.KindUnion:
		opts, err := b.nodes(p, "options")
		if err != nil {
			return nil, err
		}
		return dsl.Union(opts...), nil
	case dsl.KindDiscriminatedUnion:
		disc, ok, err := p.str("discriminator")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalid(p.path, "discriminatedUnion without discriminator")
		}
		opts, err := b.nodes(p, "options")
		if err != nil {
			return nil, err
		}
		objs := make([]*dsl.ObjectNode, len(opts))
		for i, o := range opts {
			obj, ok := o.(*dsl.ObjectNode)
			if !ok {
				return nil, invalid(append(p.at("options"), i), "discriminatedUnion options must be plain objects")
			}
			objs[i] = obj
		}
		return dsl.DiscriminatedUnion(disc, objs...), nil
	case dsl.KindIntersection:
		left, err := b.child(p, "left")
		if err != nil {
			return nil, err
		}
		right, err := b.child(p, "right")
		if err != nil {
			return nil, err
		}
		return dsl.Intersection(left, right), nil
	case "ref":
		name, ok, err := p.str("ref")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalid(p.path, "ref without a name")
		}
		return b.ref(name, p.path), nil
	}
	return nil, invalid(p.at("type"), "unknown type %q", k)
}

// wrap applies the wrapper keys, innermost first.
func (b *builder) wrap(n dsl.Node, p *params) (dsl.Node, error) {
	if on, err := p.flag("nullable"); err != nil {
		return nil, err
	} else if on {
		n = dsl.Nullable(n)
	}
	if on, err := p.flag("optional"); err != nil {
		return nil, err
	} else if on {
		n = dsl.Optional(n)
	}
	if v, ok := p.value("default"); ok {
		n = dsl.Default(n, v)
	}
	if v, ok := p.value("catch"); ok {
		n = dsl.Catch(n, v)
	}
	if brand, ok, err := p.str("brand"); err != nil {
		return nil, err
	} else if ok {
		n = dsl.Branded(n, brand)
	}
	if on, err := p.flag("readonly"); err != nil {
		return nil, err
	} else if on {
		n = dsl.Readonly(n)
	}
	if text, ok, err := p.str("description"); err != nil {
		return nil, err
	} else if ok {
		n = dsl.Describe(n, text)
	}
	return n, nil
}

func (b *builder) child(p *params, key string) (dsl.Node, error) {
	if !p.m.has(key) {
		return nil, invalid(p.path, "missing %s", key)
	}
	return b.node(p.raw(key), p.at(key))
}

func (b *builder) nodes(p *params, key string) ([]dsl.Node, error) {
	list, ok := p.raw(key).([]any)
	if !ok {
		return nil, invalid(p.at(key), "expected a list of nodes")
	}
	out := make([]dsl.Node, len(list))
	for i, v := range list {
		n, err := b.node(v, append(p.at(key), i))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (b *builder) object(p *params) (dsl.Node, error) {
	n := dsl.Object()
	if p.m.has("properties") {
		props, ok := p.raw("properties").(*mapping)
		if !ok {
			return nil, invalid(p.at("properties"), "expected a mapping")
		}
		for _, k := range props.keys {
			child, err := b.node(props.values[k], append(p.at("properties"), k))
			if err != nil {
				return nil, err
			}
			n = n.Field(k, child)
		}
	}
	policy, _, err := p.str("unknownKeys")
	if err != nil {
		return nil, err
	}
	switch policy {
	case "", "strip":
	case "strict":
		n = n.Strict()
	case "passthrough":
		n = n.Passthrough()
	default:
		return nil, invalid(p.at("unknownKeys"), "unknown policy %q", policy)
	}
	return n, nil
}

func (b *builder) array(p *params) (dsl.Node, error) {
	elem, err := b.child(p, "items")
	if err != nil {
		return nil, err
	}
	n := dsl.Array(elem)
	if v, ok, err := p.int("min"); err != nil {
		return nil, err
	} else if ok {
		n = n.Min(v)
	}
	if v, ok, err := p.int("max"); err != nil {
		return nil, err
	} else if ok {
		n = n.Max(v)
	}
	if v, ok, err := p.int("length"); err != nil {
		return nil, err
	} else if ok {
		n = n.Length(v)
	}
	if on, err := p.flag("nonempty"); err != nil {
		return nil, err
	} else if on {
		n = n.NonEmpty()
	}
	return n, nil
}

func (b *builder) set(p *params) (dsl.Node, error) {
	elem, err := b.child(p, "items")
	if err != nil {
		return nil, err
	}
	n := dsl.Set(elem)
	if v, ok, err := p.int("min"); err != nil {
		return nil, err
	} else if ok {
		n = n.Min(v)
	}
	if v, ok, err := p.int("max"); err != nil {
		return nil, err
	} else if ok {
		n = n.Max(v)
	}
	if v, ok, err := p.int("size"); err != nil {
		return nil, err
	} else if ok {
		n = n.Size(v)
	}
	return n, nil
}

var stringFlags = []struct {
	key   string
	apply func(*dsl.StringNode) *dsl.StringNode
}{
	// transforms run before the checks that follow them
	{"trim", (*dsl.StringNode).Trim},
	{"toLowerCase", (*dsl.StringNode).ToLowerCase},
	{"toUpperCase", (*dsl.StringNode).ToUpperCase},
	{"email", func(n *dsl.StringNode) *dsl.StringNode { return n.Email() }},
	{"url", func(n *dsl.StringNode) *dsl.StringNode { return n.URL() }},
	{"emoji", func(n *dsl.StringNode) *dsl.StringNode { return n.Emoji() }},
	{"uuid", func(n *dsl.StringNode) *dsl.StringNode { return n.UUID() }},
	{"nanoid", func(n *dsl.StringNode) *dsl.StringNode { return n.NanoID() }},
	{"cuid", func(n *dsl.StringNode) *dsl.StringNode { return n.CUID() }},
	{"cuid2", func(n *dsl.StringNode) *dsl.StringNode { return n.CUID2() }},
	{"ulid", func(n *dsl.StringNode) *dsl.StringNode { return n.ULID() }},
	{"datetime", func(n *dsl.StringNode) *dsl.StringNode { return n.Datetime() }},
	{"date", func(n *dsl.StringNode) *dsl.StringNode { return n.Date() }},
	{"duration", func(n *dsl.StringNode) *dsl.StringNode { return n.Duration() }},
	{"base64", func(n *dsl.StringNode) *dsl.StringNode { return n.Base64() }},
	{"base64url", func(n *dsl.StringNode) *dsl.StringNode { return n.Base64URL() }},
}

func stringNode(p *params) (dsl.Node, error) {
	n := dsl.String()
	if on, err := p.flag("coerce"); err != nil {
		return nil, err
	} else if on {
		n = n.Coerce()
	}
	for _, f := range stringFlags {
		on, err := p.flag(f.key)
		if err != nil {
			return nil, err
		}
		if on {
			n = f.apply(n)
		}
	}
	for _, lim := range []struct {
		key   string
		apply func(*dsl.StringNode, int) *dsl.StringNode
	}{
		{"min", func(n *dsl.StringNode, v int) *dsl.StringNode { return n.Min(v) }},
		{"max", func(n *dsl.StringNode, v int) *dsl.StringNode { return n.Max(v) }},
		{"length", func(n *dsl.StringNode, v int) *dsl.StringNode { return n.Length(v) }},
	} {
		v, ok, err := p.int(lim.key)
		if err != nil {
			return nil, err
		}
		if ok {
			n = lim.apply(n, v)
		}
	}
	if p.m.has("time") {
		precision := dsl.AnyPrecision
		if v, ok := p.raw("time").(float64); ok {
			precision = int(v)
		}
		n = n.Time(precision)
	}
	for _, key := range []string{"ip", "cidr", "jwt"} {
		if !p.m.has(key) {
			continue
		}
		arg, _ := p.raw(key).(string)
		switch key {
		case "ip":
			n = n.IP(arg)
		case "cidr":
			n = n.CIDR(arg)
		case "jwt":
			n = n.JWT(arg)
		}
	}
	if src, ok, err := p.str("regex"); err != nil {
		return nil, err
	} else if ok {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, invalid(p.at("regex"), "%v", err)
		}
		n = n.Regex(re)
	}
	if s, ok, err := p.str("includes"); err != nil {
		return nil, err
	} else if ok {
		pos, _, err := p.int("position")
		if err != nil {
			return nil, err
		}
		n = n.IncludesAt(s, pos)
	}
	if s, ok, err := p.str("startsWith"); err != nil {
		return nil, err
	} else if ok {
		n = n.StartsWith(s)
	}
	if s, ok, err := p.str("endsWith"); err != nil {
		return nil, err
	} else if ok {
		n = n.EndsWith(s)
	}
	return n, nil
}

func numberNode(p *params) (dsl.Node, error) {
	n := dsl.Number()
	flags := []struct {
		key   string
		apply func(*dsl.NumberNode) *dsl.NumberNode
	}{
		{"coerce", (*dsl.NumberNode).Coerce},
		{"int", func(n *dsl.NumberNode) *dsl.NumberNode { return n.Int() }},
		{"finite", func(n *dsl.NumberNode) *dsl.NumberNode { return n.Finite() }},
		{"safe", func(n *dsl.NumberNode) *dsl.NumberNode { return n.Safe() }},
		{"positive", func(n *dsl.NumberNode) *dsl.NumberNode { return n.Positive() }},
		{"nonnegative", func(n *dsl.NumberNode) *dsl.NumberNode { return n.NonNegative() }},
		{"negative", func(n *dsl.NumberNode) *dsl.NumberNode { return n.Negative() }},
		{"nonpositive", func(n *dsl.NumberNode) *dsl.NumberNode { return n.NonPositive() }},
	}
	for _, f := range flags {
		on, err := p.flag(f.key)
		if err != nil {
			return nil, err
		}
		if on {
			n = f.apply(n)
		}
	}
	bounds := []struct {
		key   string
		apply func(*dsl.NumberNode, float64) *dsl.NumberNode
	}{
		{"min", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.Gte(v) }},
		{"gte", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.Gte(v) }},
		{"gt", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.Gt(v) }},
		{"max", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.Lte(v) }},
		{"lte", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.Lte(v) }},
		{"lt", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.Lt(v) }},
		{"multipleOf", func(n *dsl.NumberNode, v float64) *dsl.NumberNode { return n.MultipleOf(v) }},
	}
	for _, bd := range bounds {
		v, ok, err := p.num(bd.key)
		if err != nil {
			return nil, err
		}
		if ok {
			n = bd.apply(n, v)
		}
	}
	return n, nil
}

func bigintNode(p *params) (dsl.Node, error) {
	n := dsl.BigInt()
	if on, err := p.flag("coerce"); err != nil {
		return nil, err
	} else if on {
		n = n.Coerce()
	}
	bounds := []struct {
		key   string
		apply func(*dsl.BigIntNode, *big.Int) *dsl.BigIntNode
	}{
		{"min", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.Gte(v) }},
		{"gte", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.Gte(v) }},
		{"gt", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.Gt(v) }},
		{"max", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.Lte(v) }},
		{"lte", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.Lte(v) }},
		{"lt", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.Lt(v) }},
		{"multipleOf", func(n *dsl.BigIntNode, v *big.Int) *dsl.BigIntNode { return n.MultipleOf(v) }},
	}
	for _, bd := range bounds {
		v, ok, err := p.bigint(bd.key)
		if err != nil {
			return nil, err
		}
		if ok {
			n = bd.apply(n, v)
		}
	}
	return n, nil
}

func dateNode(p *params) (dsl.Node, error) {
	n := dsl.Date()
	if on, err := p.flag("coerce"); err != nil {
		return nil, err
	} else if on {
		n = n.Coerce()
	}
	for _, key := range []string{"min", "max"} {
		s, ok, err := p.str(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		t, err := codec.ParseRFC3339(s)
		if err != nil {
			return nil, invalid(p.at(key), "%v", err)
		}
		if key == "min" {
			n = n.Min(t)
		} else {
			n = n.Max(t)
		}
	}
	return n, nil
}

// params reads the keys of one node and remembers which were consumed.
type params struct {
	m    *mapping
	path []any
	used map[string]bool
}

func (p *params) at(key string) []any { return append(slices.Clip(p.path), key) }

func (p *params) raw(key string) any {
	p.used[key] = true
	return p.m.values[key]
}

// value returns the plain runtime form of key.
func (p *params) value(key string) (any, bool) {
	if !p.m.has(key) {
		return nil, false
	}
	return plain(p.raw(key)), true
}

func (p *params) str(key string) (string, bool, error) {
	if !p.m.has(key) {
		return "", false, nil
	}
	s, ok := p.raw(key).(string)
	if !ok {
		return "", false, invalid(p.at(key), "expected a string")
	}
	return s, true, nil
}

func (p *params) strs(key string) ([]string, error) {
	list, ok := p.raw(key).([]any)
	if !ok {
		return nil, invalid(p.at(key), "expected a list of strings")
	}
	out := make([]string, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, invalid(append(p.at(key), i), "expected a string")
		}
		out[i] = s
	}
	return out, nil
}

func (p *params) flag(key string) (bool, error) {
	if !p.m.has(key) {
		return false, nil
	}
	b, ok := p.raw(key).(bool)
	if !ok {
		return false, invalid(p.at(key), "expected a boolean")
	}
	return b, nil
}

func (p *params) num(key string) (float64, bool, error) {
	if !p.m.has(key) {
		return 0, false, nil
	}
	f, ok := p.raw(key).(float64)
	if !ok {
		return 0, false, invalid(p.at(key), "expected a number")
	}
	return f, true, nil
}

func (p *params) int(key string) (int, bool, error) {
	f, ok, err := p.num(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, false, invalid(p.at(key), "expected a non-negative integer")
	}
	return int(f), true, nil
}

// bigint accepts integral numbers and decimal strings.
func (p *params) bigint(key string) (*big.Int, bool, error) {
	if !p.m.has(key) {
		return nil, false, nil
	}
	switch x := p.raw(key).(type) {
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			i, _ := big.NewFloat(x).Int(nil)
			return i, true, nil
		}
	case string:
		if i, ok := new(big.Int).SetString(x, 10); ok {
			return i, true, nil
		}
	}
	return nil, false, invalid(p.at(key), "expected an integer")
}

// done rejects keys no reader consumed.
func (p *params) done() error {
	var extra []string
	for _, k := range p.m.keys {
		if !p.used[k] {
			extra = append(extra, strconv.Quote(k))
		}
	}
	if len(extra) > 0 {
		return invalid(p.path, "unknown keys %v", extra)
	}
	return nil
}
