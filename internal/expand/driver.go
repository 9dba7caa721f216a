package expand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/predgen/internal/macro"
	"github.com/roach88/predgen/internal/syntax"
)

// Options control how a file is expanded and rendered.
type Options struct {
	Style       syntax.Style
	Concurrency int  // maximum expansions in flight, at least 1
	PeersOnly   bool // render only the generated peers, not the whole file
}

// DefaultOptions returns multiline output with four workers.
func DefaultOptions() Options {
	return Options{Style: syntax.Multiline, Concurrency: 4}
}

// Expansion is the outcome of one macro applied to one declaration.
type Expansion struct {
	Macro     string      `json:"macro"`
	Kind      macro.Kind  `json:"kind"`
	Decl      string      `json:"decl"`
	Span      syntax.Span `json:"span"`
	Generated []string    `json:"generated,omitempty"` // peers printed without indentation
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`

	// Input is the original declaration text.
	Input string `json:"-"`

	// Err is the macro's error; nil on success.
	Err error `json:"-"`

	// Diagnostics holds everything reported for this declaration.
	Diagnostics []macro.Diagnostic `json:"diagnostics,omitempty"`

	peers  []syntax.Decl
	indent string
}

// Failed reports whether the macro returned an error.
func (e *Expansion) Failed() bool {
	return e.Err != nil
}

// Result is the outcome of expanding one file.
type Result struct {
	File        string             `json:"file"`
	Output      string             `json:"output"`
	Expansions  []Expansion        `json:"expansions"`
	Diagnostics []macro.Diagnostic `json:"diagnostics,omitempty"`
}

// Failed returns the number of failed expansions.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Expansions {
		if r.Expansions[i].Failed() {
			n++
		}
	}
	return n
}

// ParseError reports a file that could not be tokenized or parsed.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Pos returns the position of the underlying syntax error, if any.
func (e *ParseError) Pos() syntax.Pos {
	var se *syntax.Error
	if errors.As(e.Err, &se) {
		return se.Pos
	}
	return syntax.Pos{}
}

// Driver expands files through a macro registry.
//
// Thread-safety: Driver holds no mutable state and is safe for concurrent use.
type Driver struct {
	registry *macro.Registry
	opts     Options
	logger   *slog.Logger
}

// NewDriver creates a driver. A nil logger discards log output.
func NewDriver(registry *macro.Registry, opts Options, logger *slog.Logger) *Driver {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{registry: registry, opts: opts, logger: logger}
}

type job struct {
	decl  syntax.Decl
	attr  syntax.Attribute
	macro macro.Macro
}

// ExpandSource parses src and expands every declaration carrying a
// registered attribute. Failed declarations yield diagnostics; only parse
// failures and context cancellation return an error.
func (d *Driver) ExpandSource(ctx context.Context, name string, src []byte) (*Result, error) {
	file, err := syntax.Parse(name, string(src))
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	jobs := d.jobs(file)
	d.logger.Debug("expanding file", "file", name, "declarations", len(jobs))

	expansions := make([]Expansion, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			expansions[i] = d.expandOne(name, j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{File: name, Expansions: expansions}
	for i := range expansions {
		result.Diagnostics = append(result.Diagnostics, expansions[i].Diagnostics...)
	}
	result.Output = d.render(file, expansions)

	d.logger.Info("file expanded",
		"file", name,
		"expansions", len(expansions),
		"failed", result.Failed(),
	)
	return result, nil
}

// jobs lists (declaration, attribute) pairs in source order.
func (d *Driver) jobs(file *syntax.File) []job {
	var jobs []job
	for _, decl := range file.Decls {
		for _, attr := range decl.Attrs() {
			if m, ok := d.registry.Lookup(attr.Name); ok {
				jobs = append(jobs, job{decl: decl, attr: attr, macro: m})
			}
		}
	}
	return jobs
}

func (d *Driver) expandOne(file string, j job) Expansion {
	span := j.decl.DeclSpan()
	exp := Expansion{
		Macro:  j.attr.Name,
		Kind:   j.macro.Kind(),
		Decl:   j.decl.DeclName(),
		Span:   span,
		Input:  j.decl.DeclSource(),
		indent: j.decl.DeclIndent(),
	}

	d.logger.Debug("expanding declaration",
		"file", file,
		"macro", exp.Macro,
		"decl", exp.Decl,
		"line", span.Start.Line,
	)

	ectx := macro.NewDeclContext(file, j.decl)
	peers, err := j.macro.ExpandPeers(j.attr, j.decl, ectx)
	exp.Diagnostics = ectx.Diagnostics()
	if err != nil {
		exp.Err = err
		exp.Code = macro.ErrorCode(err)
		exp.Message = err.Error()
		exp.Diagnostics = append(exp.Diagnostics, macro.NewDiagnostic(file, j.decl, j.attr, err))
		d.logger.Warn("expansion failed",
			"file", file,
			"macro", exp.Macro,
			"decl", exp.Decl,
			"line", span.Start.Line,
			"code", exp.Code,
			"error", err,
		)
		return exp
	}

	exp.peers = peers
	for _, peer := range peers {
		exp.Generated = append(exp.Generated, syntax.Print(peer, d.opts.Style, ""))
	}
	return exp
}

// render produces the output text: the original file with peers inserted
// after their declarations, or only the peers in PeersOnly mode.
func (d *Driver) render(file *syntax.File, exps []Expansion) string {
	if d.opts.PeersOnly {
		var parts []string
		for i := range exps {
			parts = append(parts, exps[i].Generated...)
		}
		if len(parts) == 0 {
			return ""
		}
		return strings.Join(parts, "\n\n") + "\n"
	}

	src := file.Source
	var b strings.Builder
	last := 0
	for i := range exps {
		exp := &exps[i]
		if len(exp.peers) == 0 {
			continue
		}
		end := exp.Span.End.Offset
		b.WriteString(src[last:end])
		last = end
		for _, peer := range exp.peers {
			b.WriteString("\n\n")
			b.WriteString(syntax.Print(peer, d.opts.Style, exp.indent))
		}
	}
	b.WriteString(src[last:])
	return b.String()
}
