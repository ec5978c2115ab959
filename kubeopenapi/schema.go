package kubeopenapi

import (
	"regexp"
	"slices"

	"github.com/reoring/goskemac/dsl"
)

// stringFormats maps OpenAPI string formats onto string checks. Formats
// missing here are accepted without a check and reported as warnings.
var stringFormats = map[string]func(*dsl.StringNode) *dsl.StringNode{
	"date-time": func(n *dsl.StringNode) *dsl.StringNode { return n.Datetime() },
	"date":      func(n *dsl.StringNode) *dsl.StringNode { return n.Date() },
	"uuid":      func(n *dsl.StringNode) *dsl.StringNode { return n.UUID() },
	"email":     func(n *dsl.StringNode) *dsl.StringNode { return n.Email() },
	"uri":       func(n *dsl.StringNode) *dsl.StringNode { return n.URL() },
	"url":       func(n *dsl.StringNode) *dsl.StringNode { return n.URL() },
	"byte":      func(n *dsl.StringNode) *dsl.StringNode { return n.Base64() },
	"ipv4":      func(n *dsl.StringNode) *dsl.StringNode { return n.IP("v4") },
	"ipv6":      func(n *dsl.StringNode) *dsl.StringNode { return n.IP("v6") },
	"cidr":      func(n *dsl.StringNode) *dsl.StringNode { return n.CIDR("") },
}

// unenforced lists keywords that are accepted but not checked.
var unenforced = []string{
	"uniqueItems", "x-kubernetes-list-type", "x-kubernetes-list-map-keys",
	"contains", "patternProperties", "minProperties", "maxProperties",
	"not", "x-kubernetes-validations",
}

// schema imports one schema object and applies nullable, default and
// description.
func (im *importer) schema(ps map[string]any, path string) (dsl.Node, error) {
	if ref, ok := ps["$ref"].(string); ok {
		return im.ref(ref, path)
	}
	n, err := im.typed(ps, path)
	if err != nil {
		return nil, err
	}
	for _, k := range unenforced {
		if _, ok := ps[k]; ok {
			im.warnf(path, "%s is not enforced", k)
		}
	}
	if b, _ := ps["nullable"].(bool); b {
		n = dsl.Nullable(n)
	}
	if def, ok := ps["default"]; ok && im.opts.DefaultMode == DefaultApply {
		n = dsl.Default(n, def)
	}
	if desc, ok := ps["description"].(string); ok && desc != "" {
		n = dsl.Describe(n, desc)
	}
	return n, nil
}

func (im *importer) typed(ps map[string]any, path string) (dsl.Node, error) {
	if b, _ := ps["x-kubernetes-int-or-string"].(bool); b {
		return dsl.Union(dsl.Number().Int(), dsl.String()), nil
	}
	if c, ok := ps["const"]; ok {
		return dsl.Literal(c), nil
	}
	if vals, ok := ps["enum"].([]any); ok {
		return im.enum(vals, path)
	}
	t, _ := ps["type"].(string)
	if t == "" {
		if n, ok, err := im.composite(ps, path); ok || err != nil {
			return n, err
		}
	}
	switch t {
	case "string":
		return im.str(ps, path)
	case "integer":
		return im.number(dsl.Number().Int(), ps), nil
	case "number":
		return im.number(dsl.Number(), ps), nil
	case "boolean":
		return dsl.Boolean(), nil
	case "null":
		return dsl.Null(), nil
	case "array":
		return im.array(ps, path)
	case "object":
		return im.object(ps, path)
	case "":
		if _, ok := ps["properties"]; ok {
			return im.object(ps, path)
		}
		if b, _ := ps["x-kubernetes-preserve-unknown-fields"].(bool); b {
			return dsl.Any(), nil
		}
		if im.opts.Profile == ProfileLoose {
			im.warnf(path, "schema without type treated as any")
			return dsl.Any(), nil
		}
		return nil, im.invalid(path, "schema without type is not structural")
	}
	return nil, im.invalid(path, "unknown type %q", t)
}

// composite imports an untyped anyOf, oneOf or allOf.
func (im *importer) composite(ps map[string]any, path string) (dsl.Node, bool, error) {
	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		raw, ok := ps[key].([]any)
		if !ok {
			continue
		}
		nodes, err := im.list(raw, path+"/"+key)
		if err != nil {
			return nil, true, err
		}
		if len(nodes) == 0 {
			return nil, true, im.invalid(path, "empty %s", key)
		}
		if key == "allOf" {
			n := nodes[0]
			for _, next := range nodes[1:] {
				n = dsl.Intersection(n, next)
			}
			return n, true, nil
		}
		if key == "oneOf" {
			im.warnf(path, "oneOf accepts values matching several branches")
		}
		if len(nodes) == 1 {
			return nodes[0], true, nil
		}
		return dsl.Union(nodes...), true, nil
	}
	return nil, false, nil
}

func (im *importer) list(raw []any, path string) ([]dsl.Node, error) {
	nodes := make([]dsl.Node, 0, len(raw))
	for i, r := range raw {
		ps, ok := r.(map[string]any)
		if !ok {
			return nil, im.invalid(path, "branch %d is not a schema", i)
		}
		n, err := im.schema(ps, path)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (im *importer) enum(vals []any, path string) (dsl.Node, error) {
	if len(vals) == 0 {
		return nil, im.invalid(path, "empty enum")
	}
	strs := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			strs = append(strs, s)
		}
	}
	if len(strs) == len(vals) {
		return dsl.Enum(strs...), nil
	}
	if len(vals) == 1 {
		return dsl.Literal(vals[0]), nil
	}
	lits := make([]dsl.Node, len(vals))
	for i, v := range vals {
		lits[i] = dsl.Literal(v)
	}
	return dsl.Union(lits...), nil
}

func (im *importer) str(ps map[string]any, path string) (dsl.Node, error) {
	n := dsl.String()
	if f, ok := ps["format"].(string); ok && f != "" {
		if apply, ok := stringFormats[f]; ok {
			n = apply(n)
		} else {
			im.warnf(path, "string format %q is not checked", f)
		}
	}
	if v, ok := intParam(ps, "minLength"); ok {
		n = n.Min(v)
	}
	if v, ok := intParam(ps, "maxLength"); ok {
		n = n.Max(v)
	}
	if p, ok := ps["pattern"].(string); ok {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, im.invalid(path, "pattern: %v", err)
		}
		n = n.Regex(re)
	}
	return n, nil
}

// number applies minimum and maximum in both the OpenAPI 3.0 form
// (exclusiveMinimum: true) and the 3.1 form (exclusiveMinimum: 5).
func (im *importer) number(n *dsl.NumberNode, ps map[string]any) dsl.Node {
	exMin, _ := ps["exclusiveMinimum"].(bool)
	exMax, _ := ps["exclusiveMaximum"].(bool)
	if v, ok := num(ps, "minimum"); ok {
		if exMin {
			n = n.Gt(v)
		} else {
			n = n.Gte(v)
		}
	}
	if v, ok := num(ps, "exclusiveMinimum"); ok {
		n = n.Gt(v)
	}
	if v, ok := num(ps, "maximum"); ok {
		if exMax {
			n = n.Lt(v)
		} else {
			n = n.Lte(v)
		}
	}
	if v, ok := num(ps, "exclusiveMaximum"); ok {
		n = n.Lt(v)
	}
	if v, ok := num(ps, "multipleOf"); ok && v > 0 {
		n = n.MultipleOf(v)
	}
	return n
}

func (im *importer) array(ps map[string]any, path string) (dsl.Node, error) {
	var elem dsl.Node = dsl.Any()
	if items, ok := ps["items"].(map[string]any); ok {
		n, err := im.schema(items, path+"/items")
		if err != nil {
			return nil, err
		}
		elem = n
	} else {
		im.warnf(path, "array without items treated as array of any")
	}
	n := dsl.Array(elem)
	if v, ok := intParam(ps, "minItems"); ok {
		n = n.Min(v)
	}
	if v, ok := intParam(ps, "maxItems"); ok {
		n = n.Max(v)
	}
	return n, nil
}

func (im *importer) object(ps map[string]any, path string) (dsl.Node, error) {
	props, _ := ps["properties"].(map[string]any)
	preserve, _ := ps["x-kubernetes-preserve-unknown-fields"].(bool)

	if ap, ok := ps["additionalProperties"].(map[string]any); ok {
		if len(props) == 0 {
			value, err := im.schema(ap, path+"/additionalProperties")
			if err != nil {
				return nil, err
			}
			return dsl.Record(value), nil
		}
		im.warnf(path, "additionalProperties schema next to properties is not enforced")
	}

	required := map[string]bool{}
	if req, ok := ps["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	obj := dsl.Object()
	for _, name := range names {
		sub, ok := props[name].(map[string]any)
		if !ok {
			return nil, im.invalid(path, "property %q is not a schema", name)
		}
		n, err := im.schema(sub, path+"/properties/"+name)
		if err != nil {
			return nil, err
		}
		if !required[name] && !dsl.IsOptional(n) {
			n = dsl.Optional(n)
		}
		obj = obj.Field(name, n)
	}
	for _, name := range sortedKeys(required) {
		if _, ok := props[name]; !ok {
			im.warnf(path, "required property %q has no schema; accepting any value", name)
			obj = obj.Field(name, dsl.Any())
		}
	}
	if isEmbedded(ps) && im.opts.EnableEmbeddedChecks {
		obj = embeddedResource(obj)
	}

	ap, hasAP := ps["additionalProperties"].(bool)
	switch {
	case preserve:
		return obj.Passthrough(), nil
	case hasAP && !ap:
		return obj.Strict(), nil
	case hasAP && ap:
		return obj.Passthrough(), nil
	}
	switch im.opts.Unknown {
	case UnknownStrict:
		return obj.Strict(), nil
	case UnknownPreserve:
		return obj.Passthrough(), nil
	}
	return obj, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// num reads a numeric keyword. Decoded documents hold float64; schemas
// built in Go may use ints.
func num(ps map[string]any, key string) (float64, bool) {
	switch v := ps[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// intParam reads a non-negative integral keyword.
func intParam(ps map[string]any, key string) (int, bool) {
	v, ok := num(ps, key)
	if !ok || v < 0 || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}
