package goskemac

import "github.com/reoring/goskemac/verify"

const (
	defaultFuncName = "Validate"
	defaultPackage  = "schemas"
	defaultTypeName = "Schema"
)

type compileConfig struct {
	inlining InliningMode
	errorMap verify.ErrorMap
	funcName string
	pkg      string
}

func newCompileConfig(opts []CompileOpt) compileConfig {
	cfg := compileConfig{inlining: InlineDefault, funcName: defaultFuncName, pkg: defaultPackage}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}

// CompileOpt configures Compile, CompileStandalone and Standalone.
type CompileOpt func(*compileConfig)

// WithInlining selects the inlining mode. The default is InlineDefault.
func WithInlining(m InliningMode) CompileOpt {
	return func(c *compileConfig) { c.inlining = m }
}

// WithErrorMap installs an error map that takes precedence over i18n.English
// for every parse of the compiled schema.
func WithErrorMap(m verify.ErrorMap) CompileOpt {
	return func(c *compileConfig) { c.errorMap = m }
}

// WithFuncName names the generated validator function. The default is
// "Validate".
func WithFuncName(name string) CompileOpt {
	return func(c *compileConfig) {
		if name != "" {
			c.funcName = name
		}
	}
}

// WithPackage sets the package clause of standalone sources. The default is
// "schemas".
func WithPackage(name string) CompileOpt {
	return func(c *compileConfig) {
		if name != "" {
			c.pkg = name
		}
	}
}

type parseConfig struct {
	path     []any
	errorMap verify.ErrorMap
}

// ParseOpt configures a single Parse, SafeParse or Is call.
type ParseOpt func(*parseConfig)

// WithPath prefixes every reported issue path with path.
func WithPath(path ...any) ParseOpt {
	return func(c *parseConfig) { c.path = append(c.path, path...) }
}

// WithParseErrorMap installs an error map with the highest priority for one
// call.
func WithParseErrorMap(m verify.ErrorMap) ParseOpt {
	return func(c *parseConfig) { c.errorMap = m }
}

type typesConfig struct {
	name   string
	export bool
}

// TypesOpt configures Types.
type TypesOpt func(*typesConfig)

// AsExport selects between a full "type Name T" declaration (the default)
// and the bare type expression.
func AsExport(export bool) TypesOpt {
	return func(c *typesConfig) { c.export = export }
}

// WithTypeName names the declared type. The default is "Schema".
func WithTypeName(name string) TypesOpt {
	return func(c *typesConfig) {
		if name != "" {
			c.name = name
		}
	}
}
