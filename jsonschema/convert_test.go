package jsonschema_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/jsonschema"
)

func TestObjectProjection(t *testing.T) {
	node := dsl.Object().
		Field("name", dsl.Describe(dsl.String().Min(1).Max(20), "display name")).
		Field("email", dsl.Optional(dsl.String().Email())).
		Field("age", dsl.Number().Int().Gte(0).Lt(150)).
		Field("role", dsl.Default(dsl.Enum("admin", "user"), "user")).
		Strict()
	s, err := jsonschema.FromNode(node)
	if err != nil {
		t.Fatal(err)
	}
	if s.Dialect != jsonschema.Draft || s.Type != "object" {
		t.Fatalf("root = %+v", s)
	}
	if !reflect.DeepEqual(s.Required, []string{"age", "name"}) {
		t.Errorf("required = %v", s.Required)
	}
	if s.AdditionalProperties != false {
		t.Errorf("strict objects forbid additional properties, got %v", s.AdditionalProperties)
	}
	name := s.Properties["name"]
	if name.Description != "display name" || *name.MinLength != 1 || *name.MaxLength != 20 {
		t.Errorf("name = %+v", name)
	}
	if got := s.Properties["email"].Format; got != "email" {
		t.Errorf("email format = %q", got)
	}
	age := s.Properties["age"]
	if age.Type != "integer" || *age.Minimum != 0 || *age.ExclusiveMaximum != 150 {
		t.Errorf("age = %+v", age)
	}
	if role := s.Properties["role"]; role.Default != "user" || len(role.Enum) != 2 {
		t.Errorf("role = %+v", role)
	}
}

func TestCombinators(t *testing.T) {
	s, err := jsonschema.FromNode(dsl.Union(dsl.Nullable(dsl.String()), dsl.Tuple(dsl.Number()).Rest(dsl.Boolean())))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.AnyOf) != 2 || len(s.AnyOf[0].AnyOf) != 2 || s.AnyOf[0].AnyOf[1].Type != "null" {
		t.Fatalf("union = %+v", s)
	}
	tuple := s.AnyOf[1]
	if len(tuple.PrefixItems) != 1 || tuple.Items.(*jsonschema.Schema).Type != "boolean" {
		t.Fatalf("tuple = %+v", tuple)
	}

	closed, err := jsonschema.FromNode(dsl.Tuple(dsl.String(), dsl.String()))
	if err != nil {
		t.Fatal(err)
	}
	if closed.Items != false || *closed.MaxItems != 2 {
		t.Fatalf("closed tuple = %+v", closed)
	}
}

func TestRecursiveLazyUsesDefs(t *testing.T) {
	var tree *dsl.LazyNode
	tree = dsl.Lazy(func() dsl.Node {
		return dsl.Object().Field("children", dsl.Array(tree))
	})
	s, err := jsonschema.FromNode(tree)
	if err != nil {
		t.Fatal(err)
	}
	if s.Ref != "#/$defs/lazy0" || s.Defs["lazy0"] == nil {
		t.Fatalf("root = %+v", s)
	}
	items := s.Defs["lazy0"].Properties["children"].Items.(*jsonschema.Schema)
	if items.Ref != "#/$defs/lazy0" {
		t.Fatalf("children items = %+v", items)
	}
}

func TestMarshal(t *testing.T) {
	b, err := jsonschema.Marshal(dsl.Record(dsl.Set(dsl.String())))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := gojson.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	add, ok := doc["additionalProperties"].(map[string]any)
	if !ok || add["uniqueItems"] != true || add["type"] != "array" {
		t.Fatalf("document:\n%s", b)
	}
	if !strings.Contains(string(b), "\n  \"$schema\"") {
		t.Fatalf("expected indented output:\n%s", b)
	}
}

func TestUnrepresentable(t *testing.T) {
	for _, n := range []dsl.Node{dsl.Symbol(), dsl.Object().Field("s", dsl.Symbol())} {
		if _, err := jsonschema.FromNode(n); !errors.Is(err, jsonschema.ErrUnrepresentable) {
			t.Fatalf("%s: err = %v", n.Kind(), err)
		}
	}
}
