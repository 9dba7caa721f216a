package macro

import (
	"fmt"
	"strings"

	"github.com/roach88/predgen/internal/syntax"
)

// PredicateHelper is the splice macro. Given
//
//	@PredicateHelper static func isOver(beforeDate: Date) -> Predicate<Item> {
//	    let distantPast = Date.distantPast
//	    return #Predicate<Item> { item in item.endDate ?? distantPast >= beforeDate }
//	}
//
// it emits the peer
//
//	func isOver(beforeDate: Date) -> Bool {
//	    let distantPast = Date.distantPast
//	    let decider: (Item) -> Bool = { item in item.endDate ?? distantPast >= beforeDate }
//	    return decider(self)
//	}
type PredicateHelper struct {
	opts Options
}

// NewPredicateHelper creates the splice macro.
func NewPredicateHelper(opts Options) *PredicateHelper {
	return &PredicateHelper{opts: opts.withDefaults()}
}

// Kind returns KindSplice.
func (m *PredicateHelper) Kind() Kind { return KindSplice }

// ExpandPeers runs the match, extract, rewrite and emit steps.
func (m *PredicateHelper) ExpandPeers(attr syntax.Attribute, decl syntax.Decl, ctx Context) ([]syntax.Decl, error) {
	fn, err := MatchFunction(decl)
	if err != nil {
		return nil, err
	}

	x, err := Extract(fn, m.opts.Marker)
	if err != nil {
		return nil, err
	}

	return emit(m.rewrite(x, ctx)), nil
}

// Extraction holds the parts of a matched declaration the rewrite needs.
type Extraction struct {
	Decl        *syntax.FuncDecl
	Name        string
	Params      []syntax.Param
	ParamClause string
	Statements  []string      // text of every statement, tail included
	Prior       []syntax.Stmt // every statement but the tail
	Tail        string
	GenericArg  string
	Closure     string
}

// MatchFunction checks the declaration is a function with a body, a return
// type and at least one statement.
func MatchFunction(decl syntax.Decl) (*syntax.FuncDecl, error) {
	fn, ok := decl.(*syntax.FuncDecl)
	if !ok {
		if name := decl.DeclName(); name != "" {
			return nil, &NoAttachedFunctionError{Reason: fmt.Sprintf("%q declaration is not a function", name)}
		}
		return nil, &NoAttachedFunctionError{Reason: "declaration is not a function"}
	}
	if fn.Body == nil {
		return nil, &NoAttachedFunctionError{Reason: fmt.Sprintf("function %q has no body", fn.Name)}
	}
	if strings.TrimSpace(fn.ReturnType) == "" {
		return nil, &NoAttachedFunctionError{Reason: fmt.Sprintf("function %q has no return type", fn.Name)}
	}
	if len(fn.Body.Stmts) == 0 {
		return nil, &NoAttachedFunctionError{Reason: fmt.Sprintf("function %q has an empty body", fn.Name)}
	}
	return fn, nil
}

// Extract pulls name, parameters, statements, generic argument and closure
// literal out of a matched function. The final statement must start with
// marker.
func Extract(fn *syntax.FuncDecl, marker string) (*Extraction, error) {
	arg, ok := GenericArgument(fn.ReturnType)
	if !ok {
		return nil, &NoAttachedFunctionError{
			Reason: fmt.Sprintf("return type %q of function %q has no generic argument", fn.ReturnType, fn.Name),
		}
	}

	stmts := fn.Body.Stmts
	x := &Extraction{
		Decl:        fn,
		Name:        fn.Name,
		Params:      fn.Params,
		ParamClause: fn.ParamClause,
		Prior:       stmts[:len(stmts)-1],
		GenericArg:  arg,
	}
	for _, stmt := range stmts {
		x.Statements = append(x.Statements, strings.TrimSpace(syntax.PrintStmt(stmt)))
	}
	x.Tail = x.Statements[len(x.Statements)-1]

	if !strings.HasPrefix(x.Tail, marker) {
		return nil, &NoPredicateError{Text: x.Tail}
	}

	tail, ok := stmts[len(stmts)-1].(*syntax.RawStmt)
	if !ok {
		return nil, &NoPredicateError{Text: x.Tail}
	}
	closure, ok := ClosureLiteral(tail.Tokens)
	if !ok {
		return nil, &NoPredicateError{Text: x.Tail}
	}
	x.Closure = closure

	return x, nil
}

// GenericArgument returns the text between the first '<' of a type and its
// matching '>', trimmed. The '>' of an arrow inside the argument does not
// close it.
func GenericArgument(typeText string) (string, bool) {
	open := strings.IndexByte(typeText, '<')
	if open < 0 {
		return "", false
	}
	depth := 0
	for i := open; i < len(typeText); i++ {
		switch typeText[i] {
		case '<':
			depth++
		case '>':
			if i > 0 && typeText[i-1] == '-' {
				continue
			}
			depth--
			if depth == 0 {
				arg := strings.TrimSpace(typeText[open+1 : i])
				return arg, arg != ""
			}
		}
	}
	return "", false
}

// ClosureLiteral returns the text from the first '{' token of a statement to
// the end of the statement. The brace must be closed by the statement's last
// token; braces inside string literals are never considered.
func ClosureLiteral(toks []syntax.Token) (string, bool) {
	start := -1
	for i, tok := range toks {
		if tok.Kind == syntax.LBrace {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	for i := start; i < len(toks); i++ {
		switch toks[i].Kind {
		case syntax.LBrace:
			depth++
		case syntax.RBrace:
			depth--
			if depth == 0 {
				if i != len(toks)-1 {
					return "", false
				}
				return syntax.JoinTokens(toks[start:]), true
			}
		}
	}
	return "", false
}

func (m *PredicateHelper) rewrite(x *Extraction, ctx Context) *syntax.FuncDecl {
	binding := ctx.MakeUniqueName(m.opts.Binding)

	body := make([]syntax.Stmt, 0, len(x.Prior)+2)
	body = append(body, x.Prior...)
	body = append(body,
		&syntax.LetStmt{
			Name: binding,
			Type: &syntax.FuncType{
				Params: []syntax.Type{&syntax.NamedType{Name: x.GenericArg}},
				Result: &syntax.NamedType{Name: "Bool"},
			},
			Value: &syntax.RawExpr{Text: x.Closure},
		},
		&syntax.ReturnStmt{
			Value: &syntax.CallExpr{
				Fun:  &syntax.IdentExpr{Name: binding},
				Args: []syntax.Arg{{Value: &syntax.IdentExpr{Name: m.opts.Receiver}}},
			},
		},
	)

	return &syntax.FuncDecl{
		Modifiers:   accessModifiers(x.Decl.Modifiers),
		Name:        x.Name,
		Generics:    x.Decl.Generics,
		Params:      x.Params,
		ParamClause: x.ParamClause,
		Effects:     x.Decl.Effects,
		ReturnType:  "Bool",
		Where:       x.Decl.Where,
		Body:        &syntax.Block{Stmts: body},
		Indent:      x.Decl.Indent,
	}
}

// accessModifiers keeps only the access level of the original declaration.
func accessModifiers(mods []string) []string {
	var out []string
	for _, mod := range mods {
		switch mod {
		case "public", "package", "internal", "fileprivate", "private":
			out = append(out, mod)
		}
	}
	return out
}

// emit wraps a generated declaration as the single peer of its original.
func emit(peer *syntax.FuncDecl) []syntax.Decl {
	return []syntax.Decl{peer}
}
