package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/pterm/pterm"

	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/codec"
	"github.com/reoring/goskemac/i18n"
	"github.com/reoring/goskemac/jsonschema"
	"github.com/reoring/goskemac/kubeopenapi"
	"github.com/reoring/goskemac/schemafile"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitError   = 2
)

// errInvalidData is returned by validate after the issues were reported.
var errInvalidData = errors.New("data does not match the schema")

// usageError reports bad invocations.
type usageError string

func (e usageError) Error() string { return string(e) }

var commands = map[string]func([]string) error{
	"compile":    compileCmd,
	"types":      typesCmd,
	"validate":   validateCmd,
	"jsonschema": jsonSchemaCmd,
}

func main() {
	pterm.SetDefaultOutput(os.Stderr)
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return exitError
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		return exitError
	}
	switch err := cmd(args[1:]); {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errInvalidData):
		return exitInvalid
	default:
		pterm.Error.Println(err.Error())
		return exitError
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `goskemac compiles declarative schemas into Go validators

Usage:
  goskemac compile    -schema file [-name Doc] [-o out.go] [-pkg name] [-func Name] [-inline mode]
  goskemac types      -schema file [-name Doc] [-type Name] [-o out.go] [-pkg name]
  goskemac validate   -schema file [-name Doc] [-lang en] data-file...
  goskemac jsonschema -schema file [-name Doc] [-o out.json]

Every command accepts -config (default ./goskemac.toml) and -v. With
-crd Kind the schema file is read as a Kubernetes CRD bundle instead.`)
}

// common holds the flags every subcommand shares.
type common struct {
	schema  string
	name    string
	crd     string
	config  string
	verbose bool
}

func newFlagSet(name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&c.schema, "schema", "", "schema file (YAML or JSON)")
	fs.StringVar(&c.name, "name", "", "document to use; the first one by default")
	fs.StringVar(&c.crd, "crd", "", "treat the schema file as a CRD bundle and import the CRD of this kind")
	fs.StringVar(&c.config, "config", "", "config file; "+configFileName+" in the working directory by default")
	fs.BoolVar(&c.verbose, "v", false, "enable verbose logs")
	return fs
}

// parseFlags parses args and loads the schema document and config file.
func parseFlags(fs *flag.FlagSet, c *common, args []string) (schemafile.Document, *config, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return schemafile.Document{}, nil, err
		}
		return schemafile.Document{}, nil, usageError(err.Error())
	}
	if c.verbose {
		pterm.EnableDebugMessages()
	}
	if c.schema == "" {
		fs.Usage()
		return schemafile.Document{}, nil, usageError(fs.Name() + ": -schema is required")
	}
	cfg, err := loadConfig(c.config)
	if err != nil {
		return schemafile.Document{}, nil, err
	}
	if c.crd != "" {
		doc, err := importCRD(c.schema, c.crd)
		return doc, cfg, err
	}
	docs, err := schemafile.Load(c.schema)
	if err != nil {
		return schemafile.Document{}, nil, err
	}
	doc, err := schemafile.Pick(docs, c.name)
	if err != nil {
		return schemafile.Document{}, nil, err
	}
	pterm.Debug.Printfln("%s: loaded %d document(s) from %s, using %q", fs.Name(), len(docs), c.schema, doc.Name)
	return doc, cfg, nil
}

// importCRD reads a Kubernetes CRD bundle and imports the schema of kind.
func importCRD(path, kind string) (schemafile.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schemafile.Document{}, err
	}
	node, diag, err := kubeopenapi.ImportYAMLForCRDKind(data, kind, kubeopenapi.Options{})
	if err != nil {
		return schemafile.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	for _, w := range diag.Warnings() {
		pterm.Warning.Println(w)
	}
	pterm.Debug.Printfln("imported CRD %s from %s", kind, path)
	return schemafile.Document{Name: kind, Node: node}, nil
}

func compileCmd(args []string) error {
	var c common
	var out, pkg, fn, inline string
	fs := newFlagSet("compile", &c)
	fs.StringVar(&out, "o", "", "output filename; stdout when empty")
	fs.StringVar(&pkg, "pkg", "", "package clause of the generated file")
	fs.StringVar(&fn, "func", "", "name of the generated function")
	fs.StringVar(&inline, "inline", "", "inlining mode: none, default or aggressive")
	doc, cfg, err := parseFlags(fs, &c, args)
	if err != nil {
		return err
	}

	mode, err := goskemac.ParseInliningMode(firstNonEmpty(inline, cfg.Compile.Inlining, "default"))
	if err != nil {
		return usageError(err.Error())
	}
	fn = firstNonEmpty(fn, cfg.Compile.Func, "Validate"+exportedName(doc.Name, ""))
	out = outputPath(out, cfg.Compile.OutputDir, strings.ToLower(fn)+"_gen.go")
	pkg = firstNonEmpty(pkg, cfg.Compile.Package, packageNameFor(out))
	pterm.Debug.Printfln("compile: func=%s pkg=%s inline=%s out=%s", fn, pkg, mode, out)

	res, err := goskemac.CompileStandalone(doc.Node,
		goskemac.WithInlining(mode),
		goskemac.WithFuncName(fn),
		goskemac.WithPackage(pkg),
	)
	if err != nil {
		return err
	}
	if res.HasDependencies() {
		pterm.Warning.Printfln("%s reads %d value(s) through ctx.Dependencies; wrap it with goskemac.Standalone and a matching table, or use -inline aggressive", fn, len(res.Dependencies))
		for i, d := range res.Dependencies {
			pterm.Debug.Printfln("dependency %d: %T", i, d)
		}
	}
	return emit(out, []byte(res.Source))
}

func typesCmd(args []string) error {
	var c common
	var out, pkg, name string
	fs := newFlagSet("types", &c)
	fs.StringVar(&out, "o", "", "output filename; the bare declaration goes to stdout when empty")
	fs.StringVar(&pkg, "pkg", "", "package clause of the generated file")
	fs.StringVar(&name, "type", "", "name of the declared type")
	doc, cfg, err := parseFlags(fs, &c, args)
	if err != nil {
		return err
	}
	name = firstNonEmpty(name, exportedName(doc.Name, "Schema"))
	out = outputPath(out, cfg.Compile.OutputDir, strings.ToLower(name)+"_types_gen.go")
	if out == "" {
		src, err := goskemac.Types(doc.Node, goskemac.WithTypeName(name))
		if err != nil {
			return err
		}
		fmt.Println(src)
		return nil
	}
	pkg = firstNonEmpty(pkg, cfg.Compile.Package, packageNameFor(out))
	src, err := goskemac.TypesFile(doc.Node, pkg, goskemac.WithTypeName(name))
	if err != nil {
		return err
	}
	return emit(out, []byte(src))
}

func validateCmd(args []string) error {
	var c common
	var lang string
	fs := newFlagSet("validate", &c)
	fs.StringVar(&lang, "lang", "", "message language: "+strings.Join(i18n.Languages(), ", "))
	doc, cfg, err := parseFlags(fs, &c, args)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("validate: no data files given")
	}
	lang = firstNonEmpty(lang, cfg.Validate.Language, "en")
	messages, ok := i18n.ForLanguage(lang)
	if !ok {
		return usageError(fmt.Sprintf("validate: unknown language %q", lang))
	}
	p, err := goskemac.Compile(doc.Node, goskemac.WithErrorMap(messages))
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range fs.Args() {
		values, err := schemafile.LoadData(path)
		if err != nil {
			return err
		}
		for i, v := range values {
			label := path
			if len(values) > 1 {
				label = fmt.Sprintf("%s#%d", path, i)
			}
			r := p.SafeParse(v)
			if r.Success {
				pterm.Success.Printfln("%s is valid", label)
				if err := printJSON(r.Data); err != nil {
					return err
				}
				continue
			}
			failed++
			if err := reportIssues(label, r.Error); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return errInvalidData
	}
	return nil
}

func jsonSchemaCmd(args []string) error {
	var c common
	var out string
	fs := newFlagSet("jsonschema", &c)
	fs.StringVar(&out, "o", "", "output filename; stdout when empty")
	doc, _, err := parseFlags(fs, &c, args)
	if err != nil {
		return err
	}
	b, err := jsonschema.Marshal(doc.Node)
	if err != nil {
		return err
	}
	return emit(out, append(b, '\n'))
}

func printJSON(v any) error {
	b, err := gojson.MarshalIndent(codec.JSON(v), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stdout, "%s\n", b)
	return err
}

// emit writes data to path, or to stdout when path is empty.
func emit(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	pterm.Success.Printfln("wrote %s", path)
	return nil
}

func outputPath(out, dir, file string) string {
	if out != "" || dir == "" {
		return out
	}
	return filepath.Join(dir, file)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// exportedName turns a document name into an exported Go identifier, or
// returns fallback when nothing usable remains.
func exportedName(name, fallback string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9' && b.Len() > 0:
			if upper {
				r = []rune(strings.ToUpper(string(r)))[0]
				upper = false
			}
			b.WriteRune(r)
		default:
			upper = true
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
