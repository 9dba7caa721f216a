package gotarget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/roach88/predgen/internal/expand"
	"github.com/roach88/predgen/internal/macro"
	"github.com/roach88/predgen/internal/syntax"
)

// Defaults for Options.
const (
	DefaultDirective   = "predgen:helper"
	DefaultConstructor = "NewPredicate"
)

// Options configure the Go generator.
type Options struct {
	Directive   string // comment directive without the leading "//"
	Constructor string // name of the predicate constructor
	Binding     string // base name of the decision variable
	Receiver    string // base name of the method receiver
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		Directive:   DefaultDirective,
		Constructor: DefaultConstructor,
		Binding:     macro.DefaultBinding,
		Receiver:    macro.DefaultReceiver,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Directive == "" {
		o.Directive = def.Directive
	}
	if o.Constructor == "" {
		o.Constructor = def.Constructor
	}
	if o.Binding == "" {
		o.Binding = def.Binding
	}
	if o.Receiver == "" {
		o.Receiver = def.Receiver
	}
	return o
}

// Generator expands Go predicate factories into methods.
//
// Thread-safety: Generator holds no mutable state and is safe for concurrent
// use.
type Generator struct {
	opts   Options
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil logger discards log output.
func NewGenerator(opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{opts: opts.withDefaults(), logger: logger}
}

// method is an extracted factory, ready to be emitted.
type method struct {
	name     string
	recvName string
	recvType string
	params   []param
	stmts    []string
	binding  string
	closure  string
}

type param struct {
	names []string
	typ   string
}

// ExpandSource parses a Go file and generates a method for every marked
// factory. Result.Output holds the generated file, or is empty when no
// factory expanded. Each expansion's Input is the factory's source text,
// directive included, so it can be expanded again on its own.
func (g *Generator) ExpandSource(ctx context.Context, name string, src []byte) (*expand.Result, error) {
	fset := token.NewFileSet()
	// An empty file name keeps positions in parse errors relative, the
	// ParseError adds the name.
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, &expand.ParseError{File: name, Err: err}
	}

	var decls []*ast.FuncDecl
	insp := inspector.New([]*ast.File{file})
	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fd := n.(*ast.FuncDecl)
		if hasDirective(fd.Doc, g.opts.Directive) {
			decls = append(decls, fd)
		}
	})
	g.logger.Debug("expanding file", "file", name, "declarations", len(decls))

	result := &expand.Result{File: name, Expansions: make([]expand.Expansion, 0, len(decls))}
	var methods []*method
	for _, fd := range decls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		exp, m := g.expandOne(fset, name, src, fd)
		result.Expansions = append(result.Expansions, exp)
		result.Diagnostics = append(result.Diagnostics, exp.Diagnostics...)
		if m != nil {
			methods = append(methods, m)
		}
	}

	if len(methods) > 0 {
		out, generated, err := render(name, file, methods)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		result.Output = string(out)

		i := 0
		for j := range result.Expansions {
			if !result.Expansions[j].Failed() {
				result.Expansions[j].Generated = []string{generated[i]}
				i++
			}
		}
	}

	g.logger.Info("file expanded",
		"file", name,
		"expansions", len(result.Expansions),
		"failed", result.Failed(),
	)
	return result, nil
}

func (g *Generator) expandOne(fset *token.FileSet, file string, src []byte, fd *ast.FuncDecl) (expand.Expansion, *method) {
	start := fd.Pos()
	if fd.Doc != nil {
		start = fd.Doc.Pos()
	}
	span := syntax.Span{Start: position(fset, start), End: position(fset, fd.End())}

	exp := expand.Expansion{
		Macro: g.opts.Directive,
		Kind:  macro.KindSplice,
		Decl:  fd.Name.Name,
		Span:  span,
		Input: string(src[span.Start.Offset:span.End.Offset]),
	}

	g.logger.Debug("expanding declaration",
		"file", file,
		"macro", exp.Macro,
		"decl", exp.Decl,
		"line", span.Start.Line,
	)

	m, err := g.extract(fset, fd)
	if err != nil {
		exp.Err = err
		exp.Code = macro.ErrorCode(err)
		exp.Message = err.Error()
		exp.Diagnostics = []macro.Diagnostic{{
			File:     file,
			Pos:      position(fset, fd.Pos()),
			End:      span.End,
			Severity: macro.SeverityError,
			Code:     exp.Code,
			Message:  exp.Message,
			Macro:    exp.Macro,
			Detail:   macro.ErrorDetail(err),
		}}
		g.logger.Warn("expansion failed",
			"file", file,
			"macro", exp.Macro,
			"decl", exp.Decl,
			"line", span.Start.Line,
			"code", exp.Code,
			"error", err,
		)
		return exp, nil
	}
	return exp, m
}

// extract runs the matcher and extractor on a factory.
func (g *Generator) extract(fset *token.FileSet, fd *ast.FuncDecl) (*method, error) {
	switch {
	case fd.Recv != nil:
		return nil, &macro.NoAttachedFunctionError{Reason: "must be applied to a package-level function"}
	case fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0:
		return nil, &macro.NoAttachedFunctionError{Reason: "generic functions cannot become methods"}
	case fd.Body == nil:
		return nil, &macro.NoAttachedFunctionError{Reason: "function has no body"}
	case fd.Type.Results == nil || len(fd.Type.Results.List) != 1:
		return nil, &macro.NoAttachedFunctionError{Reason: "function must return a single predicate"}
	case len(fd.Body.List) == 0:
		return nil, &macro.NoAttachedFunctionError{Reason: "function body is empty"}
	}

	recvType, err := predicateType(fd.Type.Results.List[0].Type)
	if err != nil {
		return nil, err
	}

	stmts := fd.Body.List
	tail := stmts[len(stmts)-1]
	lit, ok := g.closure(tail)
	if !ok {
		text, err := nodeText(fset, tail)
		if err != nil {
			return nil, err
		}
		return nil, &macro.NoPredicateError{Text: text}
	}

	m := &method{name: fd.Name.Name, recvType: recvType}
	for _, field := range fd.Type.Params.List {
		typ, err := nodeText(fset, field.Type)
		if err != nil {
			return nil, err
		}
		p := param{typ: typ}
		for _, n := range field.Names {
			p.names = append(p.names, n.Name)
		}
		m.params = append(m.params, p)
	}
	for _, stmt := range stmts[:len(stmts)-1] {
		text, err := nodeText(fset, stmt)
		if err != nil {
			return nil, err
		}
		m.stmts = append(m.stmts, text)
	}
	if m.closure, err = nodeText(fset, lit); err != nil {
		return nil, err
	}

	names := macro.NewContext("", identifiers(fd))
	m.recvName = names.MakeUniqueName(g.opts.Receiver)
	m.binding = names.MakeUniqueName(g.opts.Binding)
	return m, nil
}

// closure returns the function literal of `return <pkg.>Constructor(func...)`.
func (g *Generator) closure(stmt ast.Stmt) (*ast.FuncLit, bool) {
	ret, ok := stmt.(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return nil, false
	}
	call, ok := ret.Results[0].(*ast.CallExpr)
	if !ok || len(call.Args) != 1 || call.Ellipsis.IsValid() {
		return nil, false
	}
	if calleeName(call.Fun) != g.opts.Constructor {
		return nil, false
	}
	lit, ok := call.Args[0].(*ast.FuncLit)
	return lit, ok
}

// calleeName returns the final name of NewPredicate, pkg.NewPredicate or
// either of them with explicit type arguments.
func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	case *ast.IndexExpr:
		return calleeName(f.X)
	case *ast.IndexListExpr:
		return calleeName(f.X)
	}
	return ""
}

// predicateType returns the receiver type for a `Predicate[T]` result:
// T, or *T for a pointer argument.
func predicateType(result ast.Expr) (string, error) {
	idx, ok := result.(*ast.IndexExpr)
	if !ok {
		return "", &macro.NoAttachedFunctionError{Reason: "return type must be a predicate with one type argument"}
	}

	arg := idx.Index
	prefix := ""
	if star, ok := arg.(*ast.StarExpr); ok {
		arg = star.X
		prefix = "*"
	}
	id, ok := arg.(*ast.Ident)
	if !ok || types.Universe.Lookup(id.Name) != nil {
		return "", &macro.NoAttachedFunctionError{Reason: "predicate type argument must be a type declared in this package"}
	}
	return prefix + id.Name, nil
}

// render builds the generated file with jennifer, copies the imports the
// methods need and returns the file plus each method's own text.
func render(name string, src *ast.File, methods []*method) ([]byte, []string, error) {
	f := jen.NewFile(src.Name.Name)
	f.HeaderComment("Code generated by predgen. DO NOT EDIT.")

	for _, m := range methods {
		params := make([]jen.Code, 0, len(m.params))
		for _, p := range m.params {
			if len(p.names) == 0 {
				params = append(params, jen.Id(p.typ))
				continue
			}
			ids := make([]jen.Code, 0, len(p.names))
			for _, n := range p.names {
				ids = append(ids, jen.Id(n))
			}
			params = append(params, jen.List(ids...).Id(p.typ))
		}

		// Statement and closure texts are already formatted Go; jen.Id
		// writes them verbatim.
		body := make([]jen.Code, 0, len(m.stmts)+2)
		for _, s := range m.stmts {
			body = append(body, jen.Id(s))
		}
		body = append(body,
			jen.Id(m.binding).Op(":=").Id(m.closure),
			jen.Return(jen.Id(m.binding).Call(jen.Id(m.recvName))),
		)

		f.Func().Params(jen.Id(m.recvName).Id(m.recvType)).Id(m.name).Params(params...).Bool().Block(body...)
		f.Line()
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, nil, err
	}

	fset := token.NewFileSet()
	out, err := parser.ParseFile(fset, name, buf.Bytes(), parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	addImports(fset, src, out)

	var file bytes.Buffer
	if err := format.Node(&file, fset, out); err != nil {
		return nil, nil, err
	}

	var generated []string
	for _, decl := range out.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		text, err := nodeText(fset, fd)
		if err != nil {
			return nil, nil, err
		}
		generated = append(generated, text)
	}
	if len(generated) != len(methods) {
		return nil, nil, errors.New("generated file does not hold one function per method")
	}
	return file.Bytes(), generated, nil
}

func hasDirective(doc *ast.CommentGroup, directive string) bool {
	if doc == nil {
		return false
	}
	want := "//" + directive
	for _, c := range doc.List {
		if c.Text == want || strings.HasPrefix(c.Text, want+" ") {
			return true
		}
	}
	return false
}

// identifiers lists every identifier of the factory.
func identifiers(fd *ast.FuncDecl) []string {
	var ids []string
	ast.Inspect(fd, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			ids = append(ids, id.Name)
		}
		return true
	})
	return ids
}

// nodeText prints a node in gofmt style. Comments are not carried.
func nodeText(fset *token.FileSet, node ast.Node) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func position(fset *token.FileSet, p token.Pos) syntax.Pos {
	pos := fset.Position(p)
	return syntax.Pos{Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
}
