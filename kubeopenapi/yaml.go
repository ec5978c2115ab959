package kubeopenapi

import (
	"fmt"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/schemafile"
)

// ImportYAMLForCRDKind scans a multi-document YAML (e.g., CRD bundle) and imports
// the first CustomResourceDefinition matching the given spec.names.kind.
// Duplicate keys anywhere in the bundle are errors.
func ImportYAMLForCRDKind(data []byte, kind string, opts Options) (dsl.Node, Diag, error) {
	return importMatching(data, opts, "kind "+kind, func(m map[string]any) bool {
		spec, _ := m["spec"].(map[string]any)
		names, _ := spec["names"].(map[string]any)
		k, _ := names["kind"].(string)
		return k == kind
	})
}

// ImportYAMLForCRDName scans a multi-document YAML and imports the CRD
// with given metadata.name.
func ImportYAMLForCRDName(data []byte, name string, opts Options) (dsl.Node, Diag, error) {
	return importMatching(data, opts, "name "+name, func(m map[string]any) bool {
		meta, _ := m["metadata"].(map[string]any)
		n, _ := meta["name"].(string)
		return n == name
	})
}

func importMatching(data []byte, opts Options, what string, match func(map[string]any) bool) (dsl.Node, Diag, error) {
	docs, err := schemafile.DecodeData(data, schemafile.FormatYAML)
	if err != nil {
		return nil, &simpleDiag{}, err
	}
	for _, doc := range docs {
		m, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if k, _ := m["kind"].(string); k != "CustomResourceDefinition" {
			continue
		}
		if match(m) {
			return Import(m, opts)
		}
	}
	return nil, &simpleDiag{}, fmt.Errorf("%w: no CustomResourceDefinition with %s", ErrNotFound, what)
}
