// Package config loads predgen.cue, the optional project configuration.
//
// The file is validated against an embedded CUE schema; omitted fields take
// the schema defaults. A configuration round-trips through Canonical, whose
// JSON output is itself a valid configuration file, so the ledger can store
// the exact configuration a run used and replay can load it back.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/predgen/internal/macro"
	"github.com/roach88/predgen/internal/syntax"
)

//go:embed schema.cue
var schemaCUE string

// FileName is the configuration file looked up in the working directory.
const FileName = "predgen.cue"

// Config is a validated configuration.
type Config struct {
	Marker      string            `json:"marker"`
	Binding     string            `json:"binding"`
	Receiver    string            `json:"receiver"`
	Style       string            `json:"style"`
	Concurrency int               `json:"concurrency"`
	Macros      map[string]string `json:"macros"`
	Go          GoConfig          `json:"go"`
}

// GoConfig configures the Go frontend.
type GoConfig struct {
	Directive   string `json:"directive"`
	Constructor string `json:"constructor"`
	Suffix      string `json:"suffix"`
}

// Error is a configuration error with its CUE source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() *Config {
	cfg, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Discover returns the path of predgen.cue in dir, or "" when there is none.
func Discover(dir string) string {
	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// Load reads and validates a configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE (or JSON) source against the schema and decodes it.
func Parse(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err, filename)
	}
	if cfg.Macros == nil {
		cfg.Macros = map[string]string{}
	}
	return &cfg, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, filename string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	return &Error{Message: first.Error(), Pos: errorPos(first, filename)}
}

// errorPos picks the position to report for a CUE error: the first one in
// filename, else the first one anywhere, else the error's own position.
func errorPos(err errors.Error, filename string) token.Pos {
	positions := errors.Positions(err)
	for _, p := range positions {
		if p.Filename() == filename {
			return p
		}
	}
	if len(positions) > 0 {
		return positions[0]
	}
	return err.Position()
}

// Canonical returns the configuration as JSON with a fixed field order and
// sorted map keys.
func (c *Config) Canonical() ([]byte, error) {
	return json.Marshal(c)
}

// MacroOptions returns the options shared by every macro.
func (c *Config) MacroOptions() macro.Options {
	return macro.Options{
		Marker:   c.Marker,
		Binding:  c.Binding,
		Receiver: c.Receiver,
	}
}

// MacroTable returns the attribute → kind table. An empty table means the
// built-in one.
func (c *Config) MacroTable() map[string]macro.Kind {
	table := make(map[string]macro.Kind, len(c.Macros))
	for attr, kind := range c.Macros {
		table[attr] = macro.Kind(kind)
	}
	return table
}

// Registry builds the macro registry the configuration describes.
func (c *Config) Registry() (*macro.Registry, error) {
	return macro.NewRegistryFromTable(c.MacroTable(), c.MacroOptions())
}

// SyntaxStyle returns the configured output style.
func (c *Config) SyntaxStyle() syntax.Style {
	style, err := syntax.ParseStyle(c.Style)
	if err != nil {
		return syntax.Multiline
	}
	return style
}
