package macro

import (
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/predgen/internal/syntax"
)

// Context is what a macro may ask of its host during one expansion.
type Context interface {
	// Diagnose records a diagnostic that does not abort the expansion.
	Diagnose(d Diagnostic)

	// MakeUniqueName returns an identifier derived from base that collides
	// with no identifier of the declaration being expanded, nor with any
	// name handed out earlier in the same expansion.
	MakeUniqueName(base string) string
}

// ExpansionContext is the Context for a single declaration.
//
// Names are derived deterministically: base itself when it is free, then
// base1, base2, ...
//
// Thread-safety: ExpansionContext is safe for concurrent use.
type ExpansionContext struct {
	mu    sync.Mutex
	file  string
	taken map[string]bool
	diags []Diagnostic
}

// NewContext creates a context whose unique names avoid the given identifiers.
func NewContext(file string, identifiers []string) *ExpansionContext {
	c := &ExpansionContext{
		file:  file,
		taken: make(map[string]bool, len(identifiers)),
	}
	for _, id := range identifiers {
		c.taken[strings.Trim(id, "`")] = true
	}
	return c
}

// NewDeclContext creates a context seeded with every identifier appearing in
// the declaration, including the closure that will be re-embedded.
func NewDeclContext(file string, decl syntax.Decl) *ExpansionContext {
	var toks []syntax.Token
	switch d := decl.(type) {
	case *syntax.FuncDecl:
		toks = d.Tokens
	case *syntax.OtherDecl:
		toks = d.Tokens
	}

	var ids []string
	for _, tok := range toks {
		if tok.Kind == syntax.Ident {
			ids = append(ids, tok.Text)
		}
	}
	return NewContext(file, ids)
}

// File returns the name of the file being expanded.
func (c *ExpansionContext) File() string {
	return c.file
}

// Diagnose records a diagnostic. The file is filled in when missing.
func (c *ExpansionContext) Diagnose(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.File == "" {
		d.File = c.file
	}
	c.diags = append(c.diags, d)
}

// MakeUniqueName returns base, or base followed by the smallest positive
// integer suffix that is still free.
func (c *ExpansionContext) MakeUniqueName(base string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := base
	for i := 1; c.taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	c.taken[name] = true
	return name
}

// Diagnostics returns the recorded diagnostics in order.
func (c *ExpansionContext) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}
