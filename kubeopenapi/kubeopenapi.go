// Package kubeopenapi imports OpenAPI v3 schemas, including the
// openAPIV3Schema of Kubernetes CustomResourceDefinitions, as dsl nodes.
package kubeopenapi

import (
	"errors"
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/schemafile"
)

var (
	// ErrInvalidSchema is returned for schemas that cannot be imported.
	ErrInvalidSchema = errors.New("kubeopenapi: invalid schema")
	// ErrNotFound is returned when a bundle holds no matching CRD.
	ErrNotFound = errors.New("kubeopenapi: CRD not found")
)

// Import converts an OpenAPI v3 schema into a dsl node. The input can be a
// decoded map[string]any, raw JSON bytes, or any value that marshals to a
// JSON object. A CRD document is unwrapped to its served version's
// openAPIV3Schema.
func Import(schema any, opts Options) (dsl.Node, Diag, error) {
	d := &simpleDiag{}
	if opts.Profile == "" {
		opts.Profile = ProfileStructuralV1
	}
	if schema == nil {
		return nil, d, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	var root map[string]any
	switch t := schema.(type) {
	case []byte:
		vals, err := schemafile.DecodeData(t, schemafile.FormatJSON)
		if err != nil {
			return nil, d, err
		}
		m, ok := vals[0].(map[string]any)
		if !ok {
			return nil, d, fmt.Errorf("%w: schema is not an object", ErrInvalidSchema)
		}
		root = m
	case map[string]any:
		root = t
	default:
		b, err := gojson.Marshal(t)
		if err != nil {
			return nil, d, fmt.Errorf("kubeopenapi: cannot marshal input: %w", err)
		}
		if err := gojson.Unmarshal(b, &root); err != nil {
			return nil, d, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
	}

	doc := root
	if spec, ok := root["openAPIV3Schema"].(map[string]any); ok {
		doc = spec
	} else if unwrapped := unwrapCRDSchema(root); unwrapped != nil {
		doc = unwrapped
	}
	im := &importer{opts: opts, d: d, root: root, refs: map[string]*dsl.LazyNode{}}
	n, err := im.schema(doc, "")
	if err != nil {
		return nil, d, err
	}
	return n, d, nil
}

// unwrapCRDSchema extracts openAPIV3Schema from a CustomResourceDefinition,
// preferring a served version, then falling back to the legacy
// spec.validation.
func unwrapCRDSchema(root map[string]any) map[string]any {
	spec, ok := root["spec"].(map[string]any)
	if !ok {
		return nil
	}
	if vers, ok := spec["versions"].([]any); ok {
		var firstFound map[string]any
		for _, v := range vers {
			vm, _ := v.(map[string]any)
			if vm == nil {
				continue
			}
			served := true
			if sv, ok := vm["served"].(bool); ok {
				served = sv
			}
			sch, _ := vm["schema"].(map[string]any)
			oas, ok := sch["openAPIV3Schema"].(map[string]any)
			if !ok {
				continue
			}
			if served {
				return oas
			}
			if firstFound == nil {
				firstFound = oas
			}
		}
		if firstFound != nil {
			return firstFound
		}
	}
	if val, ok := spec["validation"].(map[string]any); ok {
		if oas, ok := val["openAPIV3Schema"].(map[string]any); ok {
			return oas
		}
	}
	return nil
}

type importer struct {
	opts Options
	d    *simpleDiag
	root map[string]any
	refs map[string]*dsl.LazyNode
}

func (im *importer) invalid(path, f string, a ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidSchema, pathOrRoot(path), fmt.Sprintf(f, a...))
}

func (im *importer) warnf(path, f string, a ...any) { im.d.warnf(pathOrRoot(path), f, a...) }

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
