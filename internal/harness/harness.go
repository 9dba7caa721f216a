package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/expand"
	"github.com/roach88/predgen/internal/pipeline"
	"github.com/roach88/predgen/internal/store"
)

// Harness executes cases with a fixed configuration.
type Harness struct {
	config *config.Config
	logger *slog.Logger
}

// New creates a harness. Cases without inline config use base; a nil base
// means the defaults.
func New(base *config.Config, logger *slog.Logger) *Harness {
	if base == nil {
		base = config.Default()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}
	return &Harness{config: base, logger: logger}
}

// Run executes a case with the default configuration.
func Run(c *Case) (*Result, error) {
	return New(nil, nil).Run(context.Background(), c)
}

// Run expands the case input and checks the expectations.
//
// Execution flow:
// 1. Resolve the configuration (inline config, then style override)
// 2. Expand the input with the case's frontend
// 3. Collect the peers of the checked expansions
// 4. Evaluate expectations and return the result
//
// An error is returned only when the case cannot be executed at all: bad
// inline config or an input that does not parse.
func (h *Harness) Run(ctx context.Context, c *Case) (*Result, error) {
	cfg, err := h.resolveConfig(c)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", c.Name, err)
	}

	lang := c.Lang
	if lang == "" {
		lang = store.LangSwift
	}
	exp, err := pipeline.NewExpander(cfg, lang, false, h.logger)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", c.Name, err)
	}

	res, err := exp.ExpandSource(ctx, c.FileName(), []byte(c.Input))
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", c.Name, err)
	}

	result := NewResult()
	result.Output = res.Output
	result.Diagnostics = res.Diagnostics

	checked := checkedExpansions(res, c.Macro)
	for _, e := range checked {
		result.Peers = append(result.Peers, e.Generated...)
	}

	for _, msg := range EvaluateExpectations(c.Expect, result, checked) {
		result.AddError(msg)
	}

	h.logger.Debug("case executed", "case", c.Name, "pass", result.Pass)
	return result, nil
}

func (h *Harness) resolveConfig(c *Case) (*config.Config, error) {
	cfg := h.config
	if strings.TrimSpace(c.Config) != "" {
		var err error
		cfg, err = config.Parse(c.Name+".cue", []byte(c.Config))
		if err != nil {
			return nil, err
		}
	}
	if c.Style != "" {
		override := *cfg
		override.Style = c.Style
		cfg = &override
	}
	return cfg, nil
}

// checkedExpansions returns the expansions of macro, or all of them when
// macro is empty.
func checkedExpansions(res *expand.Result, macro string) []*expand.Expansion {
	var out []*expand.Expansion
	for i := range res.Expansions {
		if macro == "" || res.Expansions[i].Macro == macro {
			out = append(out, &res.Expansions[i])
		}
	}
	return out
}
