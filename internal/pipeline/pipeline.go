// Package pipeline wires configuration, the two source frontends and the
// expansion ledger together.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/expand"
	"github.com/roach88/predgen/internal/gotarget"
	"github.com/roach88/predgen/internal/macro"
	"github.com/roach88/predgen/internal/store"
)

// Expander expands one source file.
type Expander interface {
	ExpandSource(ctx context.Context, name string, src []byte) (*expand.Result, error)
}

// CodeParse is the error code regenerated for a recorded input that no
// longer parses.
const CodeParse = "E010"

// replayPackage is the package clause put in front of a recorded Go factory.
const replayPackage = "package replay\n\n"

// LangOf returns the frontend language for a source path.
func LangOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".go") {
		return store.LangGo
	}
	return store.LangSwift
}

// NewExpander returns the expander for lang configured by cfg. peersOnly
// applies to the attribute frontend only; the Go frontend always renders a
// separate file.
func NewExpander(cfg *config.Config, lang string, peersOnly bool, logger *slog.Logger) (Expander, error) {
	switch lang {
	case store.LangGo:
		return gotarget.NewGenerator(gotarget.Options{
			Directive:   cfg.Go.Directive,
			Constructor: cfg.Go.Constructor,
			Binding:     cfg.Binding,
			Receiver:    cfg.Receiver,
		}, logger), nil
	case store.LangSwift:
		reg, err := cfg.Registry()
		if err != nil {
			return nil, err
		}
		return expand.NewDriver(reg, expand.Options{
			Style:       cfg.SyntaxStyle(),
			Concurrency: cfg.Concurrency,
			PeersOnly:   peersOnly,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown language %q", lang)
	}
}

// GeneratedPath returns where the Go frontend writes the methods generated
// for a source file.
func GeneratedPath(cfg *config.Config, path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + cfg.Go.Suffix
}

// RecordResult stores every expansion of res in the ledger under run.
func RecordResult(ctx context.Context, st *store.Store, run store.Run, lang string, res *expand.Result) ([]store.Record, error) {
	records := make([]store.Record, 0, len(res.Expansions))
	for i := range res.Expansions {
		exp := &res.Expansions[i]
		rec, err := st.RecordExpansion(ctx, store.Record{
			RunID:        run.ID,
			File:         res.File,
			Lang:         lang,
			Decl:         exp.Decl,
			Macro:        exp.Macro,
			Line:         exp.Span.Start.Line,
			Input:        exp.Input,
			Output:       strings.Join(exp.Generated, "\n\n"),
			ErrorCode:    exp.Code,
			ErrorMessage: exp.Message,
		})
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Regenerate returns a store.RegenerateFunc that expands a recorded input
// again under the configuration stored with its run.
func Regenerate(logger *slog.Logger) store.RegenerateFunc {
	configs := make(map[string]*config.Config)

	return func(ctx context.Context, run store.Run, rec store.Record) (store.Regenerated, error) {
		cfg, ok := configs[run.ID]
		if !ok {
			var err error
			cfg, err = config.Parse("run-"+run.ID+".json", []byte(run.Config))
			if err != nil {
				return store.Regenerated{}, fmt.Errorf("run %s config: %w", run.ID, err)
			}
			configs[run.ID] = cfg
		}

		exp, err := NewExpander(cfg, rec.Lang, false, logger)
		if err != nil {
			return store.Regenerated{}, err
		}

		src := rec.Input
		if rec.Lang == store.LangGo {
			src = replayPackage + src
		}
		res, err := exp.ExpandSource(ctx, rec.File, []byte(src))
		if err != nil {
			var perr *expand.ParseError
			if errors.As(err, &perr) {
				return store.Regenerated{ErrorCode: CodeParse}, nil
			}
			return store.Regenerated{}, err
		}

		for i := range res.Expansions {
			e := &res.Expansions[i]
			if e.Decl == rec.Decl && e.Macro == rec.Macro {
				return store.Regenerated{
					Output:    strings.Join(e.Generated, "\n\n"),
					ErrorCode: e.Code,
				}, nil
			}
		}
		return store.Regenerated{ErrorCode: macro.CodeExpansionFailed}, nil
	}
}
