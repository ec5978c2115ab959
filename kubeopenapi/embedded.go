package kubeopenapi

import "github.com/reoring/goskemac/dsl"

// embeddedResource requires the fields every embedded Kubernetes object
// carries:
//
//   - apiVersion: string
//   - kind:       string
//   - metadata:   object
//
// Fields the schema declares itself are kept as declared.
func embeddedResource(obj *dsl.ObjectNode) *dsl.ObjectNode {
	required := []struct {
		name string
		node dsl.Node
	}{
		{"apiVersion", dsl.String()},
		{"kind", dsl.String()},
		{"metadata", dsl.Record(dsl.Any())},
	}
	for _, f := range required {
		if _, ok := obj.Get(f.name); !ok {
			obj = obj.Field(f.name, f.node)
		}
	}
	return obj
}

func isEmbedded(ps map[string]any) bool {
	b, _ := ps["x-kubernetes-embedded-resource"].(bool)
	return b
}
