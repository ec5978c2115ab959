package kubeopenapi

import (
	"strings"

	"github.com/reoring/goskemac/dsl"
)

// refPrefixes are the local reference forms that resolve against the
// imported document.
var refPrefixes = [][]string{
	{"#/$defs/", "$defs"},
	{"#/definitions/", "definitions"},
	{"#/components/schemas/", "components", "schemas"},
}

// lookupRef finds the schema a local $ref points at.
func (im *importer) lookupRef(ref string) (map[string]any, bool) {
	for _, p := range refPrefixes {
		key, ok := strings.CutPrefix(ref, p[0])
		if !ok {
			continue
		}
		cur := im.root
		for _, seg := range p[1:] {
			cur, _ = cur[seg].(map[string]any)
		}
		sch, ok := cur[unescapeRef(key)].(map[string]any)
		return sch, ok
	}
	return nil, false
}

func unescapeRef(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// ref imports the target of a local $ref once. Every use shares one lazy
// node, so recursive definitions stay finite.
func (im *importer) ref(ref, path string) (dsl.Node, error) {
	if l, ok := im.refs[ref]; ok {
		return l, nil
	}
	def, ok := im.lookupRef(ref)
	if !ok {
		return nil, im.invalid(path, "unresolvable $ref %q", ref)
	}
	var target dsl.Node
	l := dsl.Lazy(func() dsl.Node { return target })
	im.refs[ref] = l
	n, err := im.schema(def, strings.TrimPrefix(ref, "#"))
	if err != nil {
		return nil, err
	}
	target = n
	return l, nil
}
