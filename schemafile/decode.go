package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/goskemac/verify"
)

// mapping is a decoded object that remembers key order.
type mapping struct {
	keys   []string
	values map[string]any
}

func newMapping() *mapping { return &mapping{values: map[string]any{}} }

func (m *mapping) has(k string) bool {
	_, ok := m.values[k]
	return ok
}

func (m *mapping) set(k string, v any) {
	if !m.has(k) {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func duplicate(path []any, key string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateKey, verify.Pointer(append(slices.Clip(path), key)))
}

// decodeJSON reads exactly one JSON value. Numbers become float64.
func decodeJSON(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := next(dec)
	if err != nil {
		return nil, err
	}
	v, err := readJSON(dec, tok, nil)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after the top-level value", ErrSyntax)
	}
	return v, nil
}

func next(dec *gojson.Decoder) (gojson.Token, error) {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return tok, nil
}

func readJSON(dec *gojson.Decoder, tok gojson.Token, path []any) (any, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			obj := newMapping()
			for {
				kt, err := next(dec)
				if err != nil {
					return nil, err
				}
				if kt == gojson.Delim('}') {
					return obj, nil
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("%w: object key at %s is not a string", ErrSyntax, verify.Pointer(path))
				}
				if obj.has(key) {
					return nil, duplicate(path, key)
				}
				vt, err := next(dec)
				if err != nil {
					return nil, err
				}
				v, err := readJSON(dec, vt, append(slices.Clip(path), key))
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			}
		case '[':
			arr := []any{}
			for i := 0; ; i++ {
				et, err := next(dec)
				if err != nil {
					return nil, err
				}
				if et == gojson.Delim(']') {
					return arr, nil
				}
				v, err := readJSON(dec, et, append(slices.Clip(path), i))
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
		}
		return nil, fmt.Errorf("%w: unexpected %v at %s", ErrSyntax, t, verify.Pointer(path))
	case gojson.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s at %s", ErrSyntax, t, verify.Pointer(path))
		}
		return f, nil
	case string, bool, nil:
		return t, nil
	}
	return nil, fmt.Errorf("%w: unexpected token %T at %s", ErrSyntax, tok, verify.Pointer(path))
}

// decodeYAML reads every document of a YAML stream.
func decodeYAML(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		v, err := fromYAML(&doc, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func fromYAML(n *yaml.Node, path []any) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0], path)
	case yaml.AliasNode:
		return fromYAML(n.Alias, path)
	case yaml.MappingNode:
		obj := newMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.ShortTag() == "!!merge" {
				return nil, fmt.Errorf("%w: merge keys are not supported (line %d)", ErrSyntax, k.Line)
			}
			if obj.has(k.Value) {
				return nil, duplicate(path, k.Value)
			}
			val, err := fromYAML(v, append(slices.Clip(path), k.Value))
			if err != nil {
				return nil, err
			}
			obj.set(k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for i, e := range n.Content {
			v, err := fromYAML(e, append(slices.Clip(path), i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			return b, nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			return f, nil
		}
		return n.Value, nil
	}
	return nil, fmt.Errorf("%w: unsupported YAML node at line %d", ErrSyntax, n.Line)
}

// plain converts decoded values into the runtime representation validators
// consume.
func plain(v any) any {
	switch x := v.(type) {
	case *mapping:
		out := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			out[k] = plain(x.values[k])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	}
	return v
}
