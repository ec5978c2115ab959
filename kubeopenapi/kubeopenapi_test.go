package kubeopenapi_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/kubeopenapi"
	"github.com/reoring/goskemac/schemafile"
	"github.com/reoring/goskemac/verify"
)

const widgetBundle = `
apiVersion: v1
kind: ConfigMap
metadata:
  name: unrelated
---
apiVersion: apiextensions.k8s.io/v1
kind: CustomResourceDefinition
metadata:
  name: widgets.demo.example.com
spec:
  group: demo.example.com
  names:
    kind: Widget
    plural: widgets
  versions:
    - name: v1alpha1
      served: false
      schema:
        openAPIV3Schema:
          type: object
          properties:
            legacy: {type: string}
    - name: v1
      served: true
      schema:
        openAPIV3Schema:
          type: object
          required: [spec]
          properties:
            apiVersion: {type: string}
            kind: {type: string}
            metadata: {type: object, x-kubernetes-preserve-unknown-fields: true}
            spec:
              type: object
              additionalProperties: false
              required: [name, replicas]
              properties:
                name: {type: string, minLength: 1, pattern: "^[a-z-]+$"}
                note: {type: string, nullable: true}
                replicas: {type: integer, minimum: 0, maximum: 10}
                port: {x-kubernetes-int-or-string: true}
                mode: {type: string, enum: [fast, safe], default: safe}
                labels:
                  type: object
                  additionalProperties: {type: string}
                ports:
                  type: array
                  x-kubernetes-list-type: set
                  items: {type: integer}
`

func parseWith(t *testing.T, kind string, opts kubeopenapi.Options, v any) goskemac.Result {
	t.Helper()
	node, _, err := kubeopenapi.ImportYAMLForCRDKind([]byte(widgetBundle), kind, opts)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	p, err := goskemac.Compile(node)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p.SafeParse(v)
}

func decode(t *testing.T, js string) any {
	t.Helper()
	vals, err := schemafile.DecodeData([]byte(js), schemafile.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	return vals[0]
}

func TestImportYAMLForCRDKind(t *testing.T) {
	_, diag, err := kubeopenapi.ImportYAMLForCRDKind([]byte(widgetBundle), "Widget", kubeopenapi.Options{})
	if err != nil {
		t.Fatal(err)
	}
	warnings := strings.Join(diag.Warnings(), "\n")
	if !strings.Contains(warnings, "/properties/spec/properties/ports: x-kubernetes-list-type is not enforced") {
		t.Fatalf("warnings = %v", diag.Warnings())
	}

	cases := []struct {
		name  string
		js    string
		valid bool
	}{
		{"minimal", `{"spec": {"name": "w", "replicas": 1}}`, true},
		{"nullable note", `{"spec": {"name": "w", "replicas": 1, "note": null}}`, true},
		{"int or string", `{"spec": {"name": "w", "replicas": 1, "port": "http"}}`, true},
		{"fractional port", `{"spec": {"name": "w", "replicas": 1, "port": 1.5}}`, false},
		{"missing spec", `{"kind": "Widget"}`, false},
		{"pattern", `{"spec": {"name": "W", "replicas": 1}}`, false},
		{"maximum", `{"spec": {"name": "w", "replicas": 11}}`, false},
		{"strict spec", `{"spec": {"name": "w", "replicas": 1, "extra": true}}`, false},
		{"label values", `{"spec": {"name": "w", "replicas": 1, "labels": {"a": 1}}}`, false},
		{"enum", `{"spec": {"name": "w", "replicas": 1, "mode": "slow"}}`, false},
		{"served version only", `{"spec": {"name": "w", "replicas": 1}, "legacy": 3}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := parseWith(t, "Widget", kubeopenapi.Options{}, decode(t, tc.js))
			if r.Success != tc.valid {
				t.Fatalf("success = %v, issues = %v", r.Success, r.Error)
			}
		})
	}
}

func TestPruneAndDefaults(t *testing.T) {
	in := decode(t, `{"spec": {"name": "w", "replicas": 2}, "status": {"ready": true}}`)
	r := parseWith(t, "Widget", kubeopenapi.Options{DefaultMode: kubeopenapi.DefaultApply}, in)
	if !r.Success {
		t.Fatal(r.Error)
	}
	want := map[string]any{"spec": map[string]any{"name": "w", "replicas": 2.0, "mode": "safe"}}
	if !reflect.DeepEqual(r.Data, want) {
		t.Fatalf("data = %#v", r.Data)
	}

	r = parseWith(t, "Widget", kubeopenapi.Options{Unknown: kubeopenapi.UnknownStrict}, in)
	if r.Success || r.Error[0].Code != verify.CodeUnrecognizedKeys {
		t.Fatalf("strict root should reject status: %v", r.Error)
	}
}

func TestImportYAMLForCRDName(t *testing.T) {
	if _, _, err := kubeopenapi.ImportYAMLForCRDName([]byte(widgetBundle), "widgets.demo.example.com", kubeopenapi.Options{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := kubeopenapi.ImportYAMLForCRDName([]byte(widgetBundle), "unrelated", kubeopenapi.Options{}); !errors.Is(err, kubeopenapi.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	dup := "kind: CustomResourceDefinition\nkind: CustomResourceDefinition\n"
	if _, _, err := kubeopenapi.ImportYAMLForCRDKind([]byte(dup), "Widget", kubeopenapi.Options{}); !errors.Is(err, schemafile.ErrDuplicateKey) {
		t.Fatalf("err = %v", err)
	}
}

func TestImportRefsAndComposites(t *testing.T) {
	schema := []byte(`{
	  "type": "object",
	  "required": ["shape"],
	  "properties": {
	    "shape": {"anyOf": [{"$ref": "#/$defs/circle"}, {"$ref": "#/$defs/square"}]},
	    "tags": {"type": "array", "items": {"$ref": "#/$defs/tag"}, "maxItems": 2}
	  },
	  "$defs": {
	    "circle": {"type": "object", "required": ["r"], "properties": {"r": {"type": "number", "minimum": 0, "exclusiveMinimum": true}}, "additionalProperties": false},
	    "square": {"type": "object", "required": ["side"], "properties": {"side": {"type": "number"}}, "additionalProperties": false},
	    "tag": {"type": "string", "maxLength": 3}
	  }
	}`)
	node, _, err := kubeopenapi.Import(schema, kubeopenapi.Options{})
	if err != nil {
		t.Fatal(err)
	}
	p := goskemac.MustCompile(node)
	for js, want := range map[string]bool{
		`{"shape": {"r": 1}}`:                          true,
		`{"shape": {"side": 2}, "tags": ["a"]}`:        true,
		`{"shape": {"r": 0}}`:                          false,
		`{"shape": {"r": 1}, "tags": ["toolong"]}`:     false,
		`{"shape": {"r": 1}, "tags": ["a", "b", "c"]}`: false,
	} {
		if got := p.Is(decode(t, js)); got != want {
			t.Errorf("%s: valid = %v, want %v", js, got, want)
		}
	}
}

func TestImportErrors(t *testing.T) {
	cases := []struct {
		name   string
		schema map[string]any
		opts   kubeopenapi.Options
		ok     bool
	}{
		{"untyped structural", map[string]any{"type": "object", "properties": map[string]any{"x": map[string]any{}}}, kubeopenapi.Options{}, false},
		{"untyped loose", map[string]any{"type": "object", "properties": map[string]any{"x": map[string]any{}}}, kubeopenapi.Options{Profile: kubeopenapi.ProfileLoose}, true},
		{"unknown type", map[string]any{"type": "decimal"}, kubeopenapi.Options{}, false},
		{"bad pattern", map[string]any{"type": "string", "pattern": "("}, kubeopenapi.Options{}, false},
		{"missing ref", map[string]any{"$ref": "#/$defs/nope"}, kubeopenapi.Options{}, false},
		{"empty enum", map[string]any{"enum": []any{}}, kubeopenapi.Options{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := kubeopenapi.Import(tc.schema, tc.opts)
			if tc.ok && err != nil {
				t.Fatal(err)
			}
			if !tc.ok && !errors.Is(err, kubeopenapi.ErrInvalidSchema) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestEmbeddedResource(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{
				"type":                                 "object",
				"x-kubernetes-embedded-resource":       true,
				"x-kubernetes-preserve-unknown-fields": true,
			},
		},
	}
	node, _, err := kubeopenapi.Import(schema, kubeopenapi.Options{EnableEmbeddedChecks: true})
	if err != nil {
		t.Fatal(err)
	}
	p := goskemac.MustCompile(node)
	r := p.SafeParse(map[string]any{"template": map[string]any{"kind": "Pod"}})
	if r.Success {
		t.Fatal("embedded resources need apiVersion and metadata")
	}
	paths := map[string]bool{}
	for _, it := range r.Error {
		paths[it.Pointer()] = true
	}
	if !paths["/template/apiVersion"] || !paths["/template/metadata"] {
		t.Fatalf("issues = %v", r.Error)
	}
	if !p.Is(map[string]any{"template": map[string]any{"apiVersion": "v1", "kind": "Pod", "metadata": map[string]any{}, "spec": 1.0}}) {
		t.Fatal("complete embedded resource rejected")
	}
}
