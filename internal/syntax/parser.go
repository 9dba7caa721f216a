package syntax

import (
	"fmt"
	"strings"
)

// modifierWords are the declaration modifiers the parser skips over.
var modifierWords = map[string]bool{
	"static": true, "class": true, "public": true, "private": true,
	"fileprivate": true, "internal": true, "package": true, "open": true,
	"final": true, "override": true, "mutating": true, "nonmutating": true,
	"nonisolated": true, "dynamic": true, "required": true,
	"convenience": true, "lazy": true, "weak": true, "unowned": true,
	"indirect": true, "consuming": true, "borrowing": true, "optional": true,
}

// declKeywords introduce declarations.
var declKeywords = map[string]bool{
	"func": true, "var": true, "let": true, "struct": true, "class": true,
	"enum": true, "protocol": true, "extension": true, "init": true,
	"deinit": true, "subscript": true, "typealias": true, "actor": true,
	"case": true, "macro": true, "associatedtype": true, "import": true,
	"operator": true, "precedencegroup": true,
}

// effectWords may follow a parameter clause.
var effectWords = map[string]bool{
	"async": true, "reasync": true, "throws": true, "rethrows": true,
}

type parser struct {
	file *File
	toks []Token
	pos  int
}

// Parse tokenizes src and collects every attributed declaration. Function
// declarations are parsed into FuncDecl; anything else becomes OtherDecl.
//
// The bodies of parsed functions are skipped, so attributes inside them are
// not reported. Bodies of other declarations (types, extensions) are
// scanned, so attributed members are found.
func Parse(name, src string) (*File, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{
		file: &File{Name: name, Source: src, Tokens: toks},
		toks: toks,
	}

	for p.pos < len(p.toks) {
		if p.toks[p.pos].Kind != AtIdent {
			p.pos++
			continue
		}
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		p.file.Decls = append(p.file.Decls, decl)
	}

	return p.file, nil
}

func (p *parser) cur() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

// adjacent reports whether the current token has the given kind and follows
// the previous token without whitespace.
func (p *parser) adjacent(kind Kind) bool {
	tok, ok := p.cur()
	return ok && tok.Kind == kind && tok.Trivia == "" && !tok.Newline
}

func (p *parser) parseDecl() (Decl, error) {
	startIdx := p.pos

	var attrs []Attribute
	for {
		tok, ok := p.cur()
		if !ok || tok.Kind != AtIdent {
			break
		}
		attr := Attribute{Name: tok.Text[1:], Pos: tok.Pos}
		p.pos++
		if p.adjacent(LParen) {
			end, err := p.matching(p.pos)
			if err != nil {
				return nil, err
			}
			attr.Args = JoinTokens(p.toks[p.pos : end+1])
			p.pos = end + 1
		}
		attrs = append(attrs, attr)
	}

	var mods []string
	for {
		tok, ok := p.cur()
		if !ok || !p.isModifier(tok) {
			break
		}
		mod := tok.Text
		p.pos++
		if p.adjacent(LParen) {
			end, err := p.matching(p.pos)
			if err != nil {
				return nil, err
			}
			mod += JoinTokens(p.toks[p.pos : end+1])
			p.pos = end + 1
		}
		mods = append(mods, mod)
	}

	tok, ok := p.cur()
	if ok && tok.Is("func") {
		return p.parseFunc(startIdx, attrs, mods)
	}

	keyword := ""
	if ok {
		keyword = tok.Text
		p.pos++
	}
	toks := p.toks[startIdx:p.pos]
	return &OtherDecl{
		Attributes: attrs,
		Modifiers:  mods,
		Keyword:    keyword,
		Span:       spanOf(toks),
		Indent:     p.indentAt(toks[0].Pos),
		Source:     p.source(toks),
		Tokens:     toks,
	}, nil
}

func (p *parser) isModifier(tok Token) bool {
	if tok.Kind != Ident || !modifierWords[tok.Text] {
		return false
	}
	if tok.Text != "class" {
		return true
	}
	// "class" is a modifier only when another modifier or a member keyword follows.
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.Kind == Ident && (modifierWords[next.Text] || next.Text == "func" ||
		next.Text == "var" || next.Text == "let" || next.Text == "subscript")
}

func (p *parser) parseFunc(startIdx int, attrs []Attribute, mods []string) (*FuncDecl, error) {
	funcTok := p.toks[p.pos]
	p.pos++

	d := &FuncDecl{Attributes: attrs, Modifiers: mods}

	nameTok, ok := p.cur()
	if !ok || (nameTok.Kind != Ident && nameTok.Kind != Operator) {
		return nil, &Error{Pos: funcTok.End, Message: "expected function name"}
	}
	d.Name = nameTok.Text
	p.pos++

	if tok, ok := p.cur(); ok && tok.Kind == Operator && strings.HasPrefix(tok.Text, "<") {
		end, err := p.matchingAngle(p.pos)
		if err != nil {
			return nil, err
		}
		d.Generics = JoinTokens(p.toks[p.pos : end+1])
		p.pos = end + 1
	}

	tok, ok := p.cur()
	if !ok || tok.Kind != LParen {
		return nil, &Error{Pos: nameTok.End, Message: fmt.Sprintf("expected '(' after function name %q", d.Name)}
	}
	end, err := p.matching(p.pos)
	if err != nil {
		return nil, err
	}
	inner := p.toks[p.pos+1 : end]
	d.ParamClause = JoinTokens(inner)
	d.Params = splitParams(inner)
	p.pos = end + 1

	for {
		tok, ok := p.cur()
		if !ok || tok.Kind != Ident || !effectWords[tok.Text] {
			break
		}
		effect := tok.Text
		p.pos++
		if effect == "throws" && p.adjacent(LParen) {
			end, err := p.matching(p.pos)
			if err != nil {
				return nil, err
			}
			effect += JoinTokens(p.toks[p.pos : end+1])
			p.pos = end + 1
		}
		d.Effects = append(d.Effects, effect)
	}

	if tok, ok := p.cur(); ok && tok.Kind == Operator && tok.Text == "->" {
		p.pos++
		d.ReturnType = JoinTokens(p.clauseTokens())
	}

	if tok, ok := p.cur(); ok && tok.Is("where") {
		d.Where = JoinTokens(p.clauseTokens())
	}

	if tok, ok := p.cur(); ok && tok.Kind == LBrace {
		end, err := p.matching(p.pos)
		if err != nil {
			return nil, err
		}
		d.Body = &Block{
			Stmts:  splitStatements(p.toks[p.pos+1 : end]),
			Lbrace: tok.Pos,
			Rbrace: p.toks[end].Pos,
		}
		p.pos = end + 1
	}

	toks := p.toks[startIdx:p.pos]
	d.Span = spanOf(toks)
	d.Indent = p.indentAt(toks[0].Pos)
	d.Source = p.source(toks)
	d.Tokens = toks
	return d, nil
}

// clauseTokens consumes tokens up to the body's opening brace, a where
// clause, the enclosing scope's closing brace, or the start of the next
// declaration on a new line.
func (p *parser) clauseTokens() []Token {
	start := p.pos
	depth := 0
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		if depth == 0 {
			if tok.Kind == LBrace || tok.Kind == RBrace {
				break
			}
			if p.pos > start && (tok.Is("where") || (tok.Newline && startsDecl(tok))) {
				break
			}
		}
		switch tok.Kind {
		case LParen, LBracket:
			depth++
		case RParen, RBracket:
			depth--
		}
		p.pos++
	}
	return p.toks[start:p.pos]
}

func startsDecl(tok Token) bool {
	if tok.Kind == AtIdent {
		return true
	}
	return tok.Kind == Ident && (declKeywords[tok.Text] || modifierWords[tok.Text])
}

// matching returns the index of the delimiter closing the one at i.
func (p *parser) matching(i int) (int, error) {
	var stack []Kind
	for j := i; j < len(p.toks); j++ {
		tok := p.toks[j]
		switch tok.Kind {
		case LParen:
			stack = append(stack, RParen)
		case LBracket:
			stack = append(stack, RBracket)
		case LBrace:
			stack = append(stack, RBrace)
		case RParen, RBracket, RBrace:
			if len(stack) == 0 || stack[len(stack)-1] != tok.Kind {
				return 0, &Error{Pos: tok.Pos, Message: fmt.Sprintf("unexpected %q", tok.Text)}
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return j, nil
			}
		}
	}
	return 0, &Error{Pos: p.toks[i].Pos, Message: fmt.Sprintf("unclosed %q", p.toks[i].Text)}
}

// matchingAngle returns the index of the token closing the generic clause
// opened at i.
func (p *parser) matchingAngle(i int) (int, error) {
	depth := 0
	for j := i; j < len(p.toks); j++ {
		tok := p.toks[j]
		switch tok.Kind {
		case Operator:
			depth += angleDelta(tok.Text)
			if depth <= 0 {
				return j, nil
			}
		case LBrace, RBrace, Semicolon:
			return 0, &Error{Pos: p.toks[i].Pos, Message: "unclosed generic parameter clause"}
		}
	}
	return 0, &Error{Pos: p.toks[i].Pos, Message: "unclosed generic parameter clause"}
}

// angleDelta counts opening minus closing angle brackets in an operator,
// ignoring the '>' of an arrow.
func angleDelta(op string) int {
	delta := 0
	for i := 0; i < len(op); i++ {
		switch op[i] {
		case '<':
			delta++
		case '>':
			if i > 0 && op[i-1] == '-' {
				continue
			}
			delta--
		}
	}
	return delta
}

func (p *parser) indentAt(pos Pos) string {
	src := p.file.Source
	lineStart := strings.LastIndexByte(src[:pos.Offset], '\n') + 1
	end := lineStart
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[lineStart:end]
}

func (p *parser) source(toks []Token) string {
	if len(toks) == 0 {
		return ""
	}
	return p.file.Source[toks[0].Pos.Offset:toks[len(toks)-1].End.Offset]
}

// splitParams splits the tokens of a parameter clause into parameters.
// Commas inside nested delimiters or generic arguments of the type do not
// split.
func splitParams(toks []Token) []Param {
	var params []Param
	var seg []Token
	depth, angle := 0, 0
	inDefault := false

	flush := func() {
		if len(seg) > 0 {
			params = append(params, parseParam(seg))
		}
		seg = nil
		angle = 0
		inDefault = false
	}

	for _, tok := range toks {
		switch tok.Kind {
		case LParen, LBracket, LBrace:
			depth++
		case RParen, RBracket, RBrace:
			depth--
		case Operator:
			if depth == 0 && !inDefault {
				if tok.Text == "=" && angle == 0 {
					inDefault = true
				} else {
					angle += angleDelta(tok.Text)
				}
			}
		case Comma:
			if depth == 0 && (angle <= 0 || inDefault) {
				flush()
				continue
			}
		}
		seg = append(seg, tok)
	}
	flush()
	return params
}

func parseParam(seg []Token) Param {
	param := Param{Text: JoinTokens(seg)}

	colon := -1
	for i, tok := range seg {
		if tok.Kind == Colon {
			colon = i
			break
		}
	}
	if colon < 0 {
		param.FirstName = param.Text
		return param
	}

	names := seg[:colon]
	if len(names) > 0 {
		param.FirstName = names[0].Text
	}
	if len(names) > 1 {
		param.SecondName = names[1].Text
	}

	rest := seg[colon+1:]
	depth := 0
	for i, tok := range rest {
		switch tok.Kind {
		case LParen, LBracket, LBrace:
			depth++
		case RParen, RBracket, RBrace:
			depth--
		case Operator:
			if depth == 0 && tok.Text == "=" {
				param.Type = JoinTokens(rest[:i])
				param.Default = JoinTokens(rest[i+1:])
				return param
			}
		}
	}
	param.Type = JoinTokens(rest)
	return param
}

// splitStatements splits body tokens into statements at semicolons and at
// line breaks that do not continue the previous line.
func splitStatements(toks []Token) []Stmt {
	var stmts []Stmt
	var cur []Token
	depth := 0

	flush := func() {
		if len(cur) > 0 {
			stmts = append(stmts, &RawStmt{Text: JoinTokens(cur), Tokens: cur, Pos: cur[0].Pos})
		}
		cur = nil
	}

	for i, tok := range toks {
		if depth == 0 {
			if tok.Kind == Semicolon {
				flush()
				continue
			}
			if tok.Newline && len(cur) > 0 && !continuesLine(cur[len(cur)-1], toks, i) {
				flush()
			}
		}
		switch tok.Kind {
		case LParen, LBracket, LBrace:
			depth++
		case RParen, RBracket, RBrace:
			depth--
		}
		cur = append(cur, tok)
	}
	flush()
	return stmts
}

// continuesLine reports whether toks[i], which starts a new line, continues
// the statement ending in prev.
func continuesLine(prev Token, toks []Token, i int) bool {
	switch prev.Kind {
	case Comma, Colon:
		return true
	case Operator:
		// A postfix '!' or '?' ends an expression.
		if prev.Trivia == "" && (prev.Text == "!" || prev.Text == "?") {
			return false
		}
		return true
	case Ident:
		if prev.Text == "return" {
			return true
		}
	}

	next := toks[i]
	switch next.Kind {
	case Operator:
		if strings.HasPrefix(next.Text, ".") || strings.HasPrefix(next.Text, "?.") {
			return true
		}
		// Whitespace after the operator makes it binary.
		return i+1 < len(toks) && toks[i+1].Trivia != ""
	case Colon:
		return true
	case Ident:
		return next.Text == "else" || next.Text == "catch"
	}
	return false
}
