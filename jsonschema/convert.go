package jsonschema

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sort"

	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/dsl"
)

// ErrUnrepresentable is returned for nodes JSON Schema cannot describe.
var ErrUnrepresentable = errors.New("jsonschema: node has no JSON Schema representation")

var stringFormats = map[dsl.StringCheckKind]string{
	dsl.StringEmail:    "email",
	dsl.StringURL:      "uri",
	dsl.StringUUID:     "uuid",
	dsl.StringDatetime: "date-time",
	dsl.StringDate:     "date",
	dsl.StringTime:     "time",
	dsl.StringDuration: "duration",
}

// FromNode projects node onto a JSON Schema document. Recursive schemas
// built with dsl.Lazy are emitted as $ref into $defs.
func FromNode(node dsl.Node) (*Schema, error) {
	c := &converter{names: map[*dsl.LazyNode]string{}, active: map[*dsl.LazyNode]bool{}, defs: map[string]*Schema{}}
	s, err := c.node(node)
	if err != nil {
		return nil, err
	}
	s.Dialect = Draft
	if len(c.defs) > 0 {
		s.Defs = c.defs
	}
	return s, nil
}

// Marshal projects node and renders it as indented JSON.
func Marshal(node dsl.Node) ([]byte, error) {
	s, err := FromNode(node)
	if err != nil {
		return nil, err
	}
	return s.Marshal()
}

type converter struct {
	names  map[*dsl.LazyNode]string
	active map[*dsl.LazyNode]bool
	defs   map[string]*Schema
}

func (c *converter) node(n dsl.Node) (*Schema, error) {
	switch x := n.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil node", ErrUnrepresentable)
	case *dsl.StringNode:
		return stringSchema(x), nil
	case *dsl.NumberNode:
		return numberSchema(x), nil
	case *dsl.BigIntNode:
		return bigintSchema(x), nil
	case *dsl.BooleanNode:
		return &Schema{Type: "boolean"}, nil
	case *dsl.DateNode:
		return &Schema{Type: "string", Format: "date-time"}, nil
	case *dsl.NullNode:
		return &Schema{Type: "null"}, nil
	case *dsl.AnyNode, *dsl.UnknownNode, *dsl.UndefinedNode, *dsl.VoidNode:
		return &Schema{}, nil
	case *dsl.NeverNode:
		return &Schema{Not: &Schema{}}, nil
	case *dsl.NaNNode, *dsl.SymbolNode:
		return nil, fmt.Errorf("%w: %s", ErrUnrepresentable, n.Kind())
	case *dsl.LiteralNode:
		return &Schema{Const: jsonValue(x.Value())}, nil
	case *dsl.EnumNode:
		vals := make([]any, 0, len(x.Values()))
		for _, v := range x.Values() {
			vals = append(vals, v)
		}
		return &Schema{Type: "string", Enum: vals}, nil
	case *dsl.NativeEnumNode:
		return &Schema{Enum: x.Values()}, nil
	case *dsl.ObjectNode:
		return c.object(x)
	case *dsl.ArrayNode:
		items, err := c.node(x.Element())
		if err != nil {
			return nil, err
		}
		s := &Schema{Type: "array", Items: items}
		if ck := x.ExactLength(); ck != nil {
			s.MinItems, s.MaxItems = intp(ck.Value), intp(ck.Value)
		}
		if ck := x.MinLength(); ck != nil {
			s.MinItems = intp(ck.Value)
		}
		if ck := x.MaxLength(); ck != nil {
			s.MaxItems = intp(ck.Value)
		}
		return s, nil
	case *dsl.SetNode:
		items, err := c.node(x.Element())
		if err != nil {
			return nil, err
		}
		s := &Schema{Type: "array", Items: items, UniqueItems: true}
		if ck := x.MinSize(); ck != nil {
			s.MinItems = intp(ck.Value)
		}
		if ck := x.MaxSize(); ck != nil {
			s.MaxItems = intp(ck.Value)
		}
		return s, nil
	case *dsl.TupleNode:
		s := &Schema{Type: "array", MinItems: intp(len(x.Items()))}
		for _, it := range x.Items() {
			is, err := c.node(it)
			if err != nil {
				return nil, err
			}
			s.PrefixItems = append(s.PrefixItems, is)
		}
		if rest := x.RestElement(); rest != nil {
			rs, err := c.node(rest)
			if err != nil {
				return nil, err
			}
			s.Items = rs
		} else {
			s.Items = false
			s.MaxItems = intp(len(x.Items()))
		}
		return s, nil
	case *dsl.RecordNode:
		return c.keyed(x.Key(), x.Value())
	case *dsl.MapNode:
		return c.keyed(x.Key(), x.Value())
	case *dsl.UnionNode:
		return c.list(x.Options(), func(s *Schema, l []*Schema) { s.AnyOf = l })
	case *dsl.DiscriminatedUnionNode:
		opts := make([]dsl.Node, len(x.Options()))
		for i, o := range x.Options() {
			opts[i] = o
		}
		return c.list(opts, func(s *Schema, l []*Schema) { s.OneOf = l })
	case *dsl.IntersectionNode:
		return c.list([]dsl.Node{x.Left(), x.Right()}, func(s *Schema, l []*Schema) { s.AllOf = l })
	case *dsl.OptionalNode:
		return c.node(x.Inner())
	case *dsl.NullableNode:
		inner, err := c.node(x.Inner())
		if err != nil {
			return nil, err
		}
		return &Schema{AnyOf: []*Schema{inner, {Type: "null"}}}, nil
	case *dsl.DefaultNode:
		s, err := c.node(x.Inner())
		if err != nil {
			return nil, err
		}
		if v, static := x.Value(); static {
			s.Default = jsonValue(v)
		}
		return s, nil
	case *dsl.CatchNode:
		return c.node(x.Inner())
	case *dsl.BrandedNode:
		return c.node(x.Inner())
	case *dsl.ReadonlyNode:
		s, err := c.node(x.Inner())
		if err != nil {
			return nil, err
		}
		s.ReadOnly = true
		return s, nil
	case *dsl.DescribedNode:
		s, err := c.node(x.Inner())
		if err != nil {
			return nil, err
		}
		s.Description = x.Text()
		return s, nil
	case *dsl.LazyNode:
		return c.lazy(x)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnrepresentable, n.Kind())
}

func (c *converter) lazy(x *dsl.LazyNode) (*Schema, error) {
	if c.active[x] {
		name, ok := c.names[x]
		if !ok {
			name = fmt.Sprintf("lazy%d", len(c.names))
			c.names[x] = name
		}
		return &Schema{Ref: "#/$defs/" + name}, nil
	}
	c.active[x] = true
	s, err := c.node(x.Resolve())
	delete(c.active, x)
	if err != nil {
		return nil, err
	}
	name, recursive := c.names[x]
	if !recursive {
		return s, nil
	}
	c.defs[name] = s
	return &Schema{Ref: "#/$defs/" + name}, nil
}

func (c *converter) object(x *dsl.ObjectNode) (*Schema, error) {
	s := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for _, f := range x.Fields() {
		ps, err := c.node(f.Node)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", f.Name, err)
		}
		s.Properties[f.Name] = ps
		if !dsl.IsOptional(f.Node) {
			s.Required = append(s.Required, f.Name)
		}
	}
	sort.Strings(s.Required)
	// strip accepts unknown keys before discarding them.
	s.AdditionalProperties = x.Policy() != dsl.UnknownStrict
	return s, nil
}

func (c *converter) keyed(key, value dsl.Node) (*Schema, error) {
	vs, err := c.node(value)
	if err != nil {
		return nil, err
	}
	s := &Schema{Type: "object", AdditionalProperties: vs}
	if k, ok := dsl.Unwrap(key).(*dsl.StringNode); ok {
		if ks := stringSchema(k); ks.MinLength != nil || ks.MaxLength != nil || ks.Pattern != "" || ks.Format != "" {
			s.PropertyNames = ks
		}
		return s, nil
	}
	ks, err := c.node(key)
	if err != nil {
		return nil, err
	}
	s.PropertyNames = ks
	return s, nil
}

func (c *converter) list(nodes []dsl.Node, set func(*Schema, []*Schema)) (*Schema, error) {
	out := make([]*Schema, 0, len(nodes))
	for _, n := range nodes {
		s, err := c.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	s := &Schema{}
	set(s, out)
	return s, nil
}

func stringSchema(x *dsl.StringNode) *Schema {
	s := &Schema{Type: "string"}
	pattern := func(p string) {
		if s.Pattern == "" {
			s.Pattern = p
			return
		}
		s.AllOf = append(s.AllOf, &Schema{Pattern: p})
	}
	for _, ck := range x.Checks() {
		if f, ok := stringFormats[ck.Kind]; ok {
			s.Format = f
			continue
		}
		switch ck.Kind {
		case dsl.StringMin:
			s.MinLength = intp(ck.Value)
		case dsl.StringMax:
			s.MaxLength = intp(ck.Value)
		case dsl.StringLength:
			s.MinLength, s.MaxLength = intp(ck.Value), intp(ck.Value)
		case dsl.StringIP:
			s.Format = "ipv4"
			if ck.Version == "v6" {
				s.Format = "ipv6"
			}
		case dsl.StringRegex:
			if ck.Regex != nil {
				pattern(ck.Regex.String())
			}
		case dsl.StringIncludes:
			pattern(regexp.QuoteMeta(ck.Text))
		case dsl.StringStartsWith:
			pattern("^" + regexp.QuoteMeta(ck.Text))
		case dsl.StringEndsWith:
			pattern(regexp.QuoteMeta(ck.Text) + "$")
		case dsl.StringBase64:
			s.ContentEncoding = "base64"
		case dsl.StringBase64URL:
			s.ContentEncoding = "base64url"
		}
	}
	return s
}

func numberSchema(x *dsl.NumberNode) *Schema {
	s := &Schema{Type: "number"}
	for _, ck := range x.Checks() {
		v := ck.Value
		switch ck.Kind {
		case dsl.NumberInt:
			s.Type = "integer"
		case dsl.NumberMin:
			if ck.Inclusive {
				s.Minimum = &v
			} else {
				s.ExclusiveMinimum = &v
			}
		case dsl.NumberMax:
			if ck.Inclusive {
				s.Maximum = &v
			} else {
				s.ExclusiveMaximum = &v
			}
		case dsl.NumberMultipleOf:
			s.MultipleOf = &v
		}
	}
	return s
}

func bigintSchema(x *dsl.BigIntNode) *Schema {
	s := &Schema{Type: "integer", Format: "int64"}
	for _, ck := range x.Checks() {
		if ck.Value == nil {
			continue
		}
		v, _ := new(big.Float).SetInt(ck.Value).Float64()
		switch ck.Kind {
		case dsl.NumberMin:
			if ck.Inclusive {
				s.Minimum = &v
			} else {
				s.ExclusiveMinimum = &v
			}
		case dsl.NumberMax:
			if ck.Inclusive {
				s.Maximum = &v
			} else {
				s.ExclusiveMaximum = &v
			}
		case dsl.NumberMultipleOf:
			s.MultipleOf = &v
		}
	}
	return s
}

// jsonValue converts literal and default values into their JSON form.
func jsonValue(v any) any { return codec.JSON(v) }

func intp(v int) *int { return &v }
