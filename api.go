package goskemac

import (
	"fmt"

	"github.com/reoring/goskemac/dsl"
	"github.com/reoring/goskemac/i18n"
	"github.com/reoring/goskemac/internal/compiler"
	"github.com/reoring/goskemac/internal/exec"
	"github.com/reoring/goskemac/verify"
)

// Parser runs a compiled validator. It is immutable after construction and
// safe for concurrent use; every call gets its own verifier context.
type Parser struct {
	schema   dsl.Node
	fn       verify.ParserFunc
	deps     []any
	errorMap verify.ErrorMap
}

// Result is the outcome of SafeParse. Data holds the parsed value when
// Success is true; Error holds the issues otherwise.
type Result struct {
	Success bool
	Data    any
	Error   Issues
}

// Compile compiles node into an in-process Parser.
func Compile(node dsl.Node, opts ...CompileOpt) (*Parser, error) {
	cfg := newCompileConfig(opts)
	res, err := compiler.Compile(node, cfg.inlining, cfg.funcName)
	if err != nil {
		return nil, err
	}
	fn, err := exec.Compile(res.Func)
	if err != nil {
		return nil, fmt.Errorf("goskemac: %w", err)
	}
	return &Parser{schema: node, fn: fn, deps: res.Dependencies, errorMap: cfg.errorMap}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(node dsl.Node, opts ...CompileOpt) *Parser {
	p, err := Compile(node, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Standalone wraps a validator function produced by CompileStandalone
// together with its dependency list. Only WithErrorMap is honored among opts.
func Standalone(fn verify.ParserFunc, deps []any, opts ...CompileOpt) *Parser {
	cfg := newCompileConfig(opts)
	return &Parser{fn: fn, deps: deps, errorMap: cfg.errorMap}
}

// Schema returns the node p was compiled from, or nil for Standalone parsers.
func (p *Parser) Schema() dsl.Node { return p.schema }

// Parse validates v and returns the parsed value. Validation failures are
// returned as Issues.
func (p *Parser) Parse(v any, opts ...ParseOpt) (any, error) {
	r := p.SafeParse(v, opts...)
	if !r.Success {
		return nil, r.Error
	}
	return r.Data, nil
}

// SafeParse validates v without failing.
func (p *Parser) SafeParse(v any, opts ...ParseOpt) Result {
	var cfg parseConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	ctx := verify.NewContext(p.deps, cfg.path, cfg.errorMap, p.errorMap, i18n.English)
	status := p.fn(v, ctx)
	if status == verify.Valid && len(ctx.Issues) == 0 {
		return Result{Success: true, Data: ctx.Output}
	}
	if len(ctx.Issues) == 0 {
		// wrapped functions may fail without reporting.
		ctx.Report(verify.Issue{Code: verify.CodeCustom}, v)
	}
	return Result{Error: ctx.Issues}
}

// Is reports whether v validates.
func (p *Parser) Is(v any, opts ...ParseOpt) bool { return p.SafeParse(v, opts...).Success }
