package syntax

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	PoundIdent // #Predicate
	AtIdent    // @PredicateHelper
	Number
	String
	Operator
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Colon
	Semicolon
)

var kindNames = map[Kind]string{
	EOF:        "EOF",
	Ident:      "IDENT",
	PoundIdent: "POUND_IDENT",
	AtIdent:    "AT_IDENT",
	Number:     "NUMBER",
	String:     "STRING",
	Operator:   "OPERATOR",
	LParen:     "LPAREN",
	RParen:     "RPAREN",
	LBracket:   "LBRACKET",
	RBracket:   "RBRACKET",
	LBrace:     "LBRACE",
	RBrace:     "RBRACE",
	Comma:      "COMMA",
	Colon:      "COLON",
	Semicolon:  "SEMICOLON",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a position in source text.
// Line and Column are 1-indexed; Offset is a 0-indexed byte offset.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsValid reports whether the position was set.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is the half-open range [Start, End) of a node.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// Token is a single lexical token.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
	End  Pos

	// Trivia is the whitespace preceding the token with comments removed.
	Trivia string

	// Newline reports whether a line break preceded the token, including
	// line breaks that belonged to removed comments.
	Newline bool
}

// Is reports whether the token is an identifier with the given text.
func (t Token) Is(text string) bool {
	return t.Kind == Ident && t.Text == text
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Pos)
}

// JoinTokens renders a token run as source text: the first token's trivia is
// dropped and every following token keeps the whitespace before it.
func JoinTokens(toks []Token) string {
	var b strings.Builder
	for i, tok := range toks {
		if i > 0 {
			b.WriteString(tok.Trivia)
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

// spanOf returns the span covering a non-empty token run.
func spanOf(toks []Token) Span {
	if len(toks) == 0 {
		return Span{}
	}
	return Span{Start: toks[0].Pos, End: toks[len(toks)-1].End}
}
