package main

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
)

const configFileName = "goskemac.toml"

// config is goskemac.toml. Command-line flags take precedence over it.
type config struct {
	Compile  compileConfig  `toml:"compile"`
	Validate validateConfig `toml:"validate"`
}

type compileConfig struct {
	Inlining  string `toml:"inlining"`
	Package   string `toml:"package"`
	Func      string `toml:"func"`
	OutputDir string `toml:"output-dir"`
}

type validateConfig struct {
	Language string `toml:"language"`
}

// loadConfig reads the config file at path. With an empty path the default
// file is used when it exists.
func loadConfig(path string) (*config, error) {
	cfg := &config{}
	explicit := path != ""
	if !explicit {
		path = configFileName
	}
	buff, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(buff, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// packageNameFor returns the package clause of the Go files already living
// next to out, or "" when there are none.
func packageNameFor(out string) string {
	if out == "" {
		return ""
	}
	dir := filepath.Dir(out)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		return f.Name.Name
	}
	return ""
}
