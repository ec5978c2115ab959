package goskemac

import (
	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/internal/compiler"
	"github.com/reoring/goskemac/internal/gen"
)

// StandaloneOutput is a generated Go source file and the dependency table
// its function reads through ctx.Dependencies.
type StandaloneOutput struct {
	Source       string
	Dependencies []any
}

// HasDependencies reports whether the generated function needs a dependency
// table. Sources without one can be wrapped with Standalone(fn, nil).
func (o *StandaloneOutput) HasDependencies() bool { return len(o.Dependencies) > 0 }

// CompileStandalone compiles node into a complete Go source file declaring
// one validator function.
func CompileStandalone(node dsl.Node, opts ...CompileOpt) (*StandaloneOutput, error) {
	cfg := newCompileConfig(opts)
	res, err := compiler.Compile(node, cfg.inlining, cfg.funcName)
	if err != nil {
		return nil, err
	}
	src, err := gen.File(cfg.pkg, res.Func)
	if err != nil {
		return nil, err
	}
	return &StandaloneOutput{Source: src, Dependencies: res.Dependencies}, nil
}

// Types renders the Go type of the values node produces.
func Types(node dsl.Node, opts ...TypesOpt) (string, error) {
	cfg := typesConfig{name: defaultTypeName, export: true}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return gen.Types(node, cfg.name, cfg.export)
}

// TypesFile renders the type declaration of node as a complete Go source
// file in package pkg.
func TypesFile(node dsl.Node, pkg string, opts ...TypesOpt) (string, error) {
	cfg := typesConfig{name: defaultTypeName, export: true}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	if pkg == "" {
		pkg = defaultPackage
	}
	return gen.TypesFile(pkg, node, cfg.name)
}
