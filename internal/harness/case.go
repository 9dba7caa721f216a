package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/predgen/internal/store"
	"github.com/roach88/predgen/internal/syntax"
)

// Case defines a conformance case: one input file and what expanding it
// must produce.
type Case struct {
	// Name uniquely identifies this case. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this case validates.
	Description string `yaml:"description"`

	// Lang selects the frontend: "swift" (default) or "go".
	Lang string `yaml:"lang,omitempty"`

	// Style overrides the configured output style.
	Style string `yaml:"style,omitempty"`

	// Macro restricts the checked expansions to one attribute name.
	// If empty, every expansion is checked.
	Macro string `yaml:"macro,omitempty"`

	// Config is inline predgen.cue source applied before expanding.
	Config string `yaml:"config,omitempty"`

	// Input is the source text to expand.
	Input string `yaml:"input"`

	// Expect describes the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected expansion outcome.
type Expect struct {
	// Peers are the exact generated declarations, printed without
	// indentation, in source order.
	Peers []string `yaml:"peers,omitempty"`

	// Contains lists snippets the expanded output must contain.
	Contains []string `yaml:"contains,omitempty"`

	// Error is the expected failure. If nil, every checked expansion must
	// succeed.
	Error *ExpectError `yaml:"error,omitempty"`
}

// ExpectError specifies an expected expansion failure.
type ExpectError struct {
	// Code is the diagnostic code (e.g., "E201", "E202").
	Code string `yaml:"code"`

	// Text is the error detail. If empty, only the code is validated.
	Text string `yaml:"text,omitempty"`
}

// LoadCase reads and parses a case YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	return ParseCase(data)
}

// ParseCase parses and validates case YAML.
func ParseCase(data []byte) (*Case, error) {
	// Strict field validation catches typos like "peer:" vs "peers:"
	var c Case
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}

	return &c, nil
}

// validateCase checks that required fields are present and valid.
func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if c.Description == "" {
		return fmt.Errorf("description is required")
	}

	if c.Input == "" {
		return fmt.Errorf("input is required")
	}

	switch c.Lang {
	case "", store.LangSwift, store.LangGo:
	default:
		return fmt.Errorf("unknown lang %q (valid: %s, %s)", c.Lang, store.LangSwift, store.LangGo)
	}

	if c.Style != "" {
		if _, err := syntax.ParseStyle(c.Style); err != nil {
			return err
		}
	}

	e := c.Expect
	if len(e.Peers) == 0 && len(e.Contains) == 0 && e.Error == nil {
		return fmt.Errorf("expect needs peers, contains or error")
	}
	if e.Error != nil {
		if e.Error.Code == "" {
			return fmt.Errorf("expect.error: code is required")
		}
		if len(e.Peers) > 0 {
			return fmt.Errorf("expect: peers and error are mutually exclusive")
		}
	}

	return nil
}

// FileName returns the name the input is expanded under.
func (c *Case) FileName() string {
	if c.Lang == store.LangGo {
		return c.Name + ".go"
	}
	return c.Name + ".swift"
}
