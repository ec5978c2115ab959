// Package goskemac compiles declarative schemas into validators.
//
// A schema is a dsl.Node tree. Compile lowers it to straight-line validation
// code and returns a Parser that runs that code in process; CompileStandalone
// renders the same code as a Go source file that can be checked in and
// wrapped with Standalone.
//
//   - Validation failures are data: Parse returns verify.Issues as an error
//     and SafeParse returns them in a Result.
//   - Compile failures are Go errors wrapping the sentinels in errors.go.
//   - Messages come from error maps layered parse > compile > i18n.English.
//
// Typical usage:
//
//	user := dsl.Object().
//		Field("name", dsl.String().Min(1)).
//		Field("age", dsl.Optional(dsl.Number().Int()))
//	p, err := goskemac.Compile(user)
//	v, err := p.Parse(map[string]any{"name": "ada"})
//
//	out, err := goskemac.CompileStandalone(user, goskemac.WithPackage("schemas"))
//	os.WriteFile("user_gen.go", []byte(out.Source), 0o644)
package goskemac
