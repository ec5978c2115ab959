package gen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/compiler"
)

// Types renders the Go type of the values node produces. With export set the
// result is the declaration "type name T", otherwise the bare type
// expression.
func Types(node dsl.Node, name string, export bool) (string, error) {
	typ, err := compiler.NewTypeUnit().Of(node)
	if err != nil {
		return "", err
	}
	var st *jen.Statement
	if export {
		st = jen.Type().Id(name).Add(typ)
	} else {
		st = jen.Var().Id("_").Add(typ)
	}
	buf := &bytes.Buffer{}
	if err := st.Render(buf); err != nil {
		return "", fmt.Errorf("gen: render type %s: %w", name, err)
	}
	out := strings.TrimSpace(buf.String())
	if !export {
		out = strings.TrimPrefix(out, "var _ ")
	}
	return out, nil
}

// TypesFile renders the declaration "type name T" as a complete Go source
// file in package pkg, importing whatever T references.
func TypesFile(pkg string, node dsl.Node, name string) (string, error) {
	typ, err := compiler.NewTypeUnit().Of(node)
	if err != nil {
		return "", err
	}
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by goskemac. DO NOT EDIT.")
	f.Type().Id(name).Add(typ)
	buf := &bytes.Buffer{}
	if err := f.Render(buf); err != nil {
		return "", fmt.Errorf("gen: render type %s: %w", name, err)
	}
	return buf.String(), nil
}
