package syntax

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Error is a lexical or structural error with a source position.
type Error struct {
	Pos     Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// operatorChars are the characters that form operator runs.
const operatorChars = "/=-+!*%<>&|^~?."

type lexer struct {
	src     string
	pos     int
	line    int
	col     int
	trivia  []byte
	newline bool
	tokens  []Token
}

// Tokenize splits src into tokens. Comments are removed from the trivia of
// the following token; trailing trivia at the end of input is dropped.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	for {
		if err := l.skipTrivia(); err != nil {
			return nil, err
		}
		if l.atEnd() {
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) here() Pos {
	return Pos{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *lexer) runeAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+n:])
	return r
}

func (l *lexer) advanceRune() {
	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	l.col++
}

func (l *lexer) emit(kind Kind, start Pos) {
	l.tokens = append(l.tokens, Token{
		Kind:    kind,
		Text:    l.src[start.Offset:l.pos],
		Pos:     start,
		End:     l.here(),
		Trivia:  string(l.trivia),
		Newline: l.newline,
	})
	l.trivia = l.trivia[:0]
	l.newline = false
}

// Trivia handling

func (l *lexer) skipTrivia() error {
	for !l.atEnd() {
		ch := l.src[l.pos]
		switch {
		case ch == '\n':
			l.advance()
			l.trivia = append(l.trivia, '\n')
			l.newline = true
		case ch == '\r':
			l.advance()
		case ch == ' ' || ch == '\t':
			l.advance()
			l.trivia = append(l.trivia, ch)
		case ch == '/' && l.peekAt(1) == '/':
			for !l.atEnd() && l.src[l.pos] != '\n' {
				l.advance()
			}
			l.dropComment()
		case ch == '/' && l.peekAt(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
			l.dropComment()
		default:
			return nil
		}
	}
	return nil
}

// ownLine reports whether only blanks separate the current trivia from the
// start of a line.
func (l *lexer) ownLine() bool {
	t := bytes.TrimRight(l.trivia, " \t")
	if len(t) == 0 {
		return len(l.tokens) == 0
	}
	return t[len(t)-1] == '\n'
}

// dropComment fixes up trivia after a removed comment. A comment on a line
// of its own disappears together with its line break; an inline comment
// leaves a single space.
func (l *lexer) dropComment() {
	if l.ownLine() {
		rest := 0
		for l.peekAt(rest) == ' ' || l.peekAt(rest) == '\t' || l.peekAt(rest) == '\r' {
			rest++
		}
		if l.peekAt(rest) == '\n' || l.pos+rest >= len(l.src) {
			l.trivia = bytes.TrimRight(l.trivia, " \t")
			for i := 0; i <= rest && !l.atEnd(); i++ {
				if l.advance() == '\n' {
					l.newline = true
				}
			}
			return
		}
	}
	if n := len(l.trivia); n == 0 || !isBlank(l.trivia[n-1]) {
		l.trivia = append(l.trivia, ' ')
	}
	for l.peekAt(0) == ' ' || l.peekAt(0) == '\t' {
		if l.atEnd() {
			break
		}
		l.advance()
	}
}

func (l *lexer) skipBlockComment() error {
	start := l.here()
	depth := 0
	for {
		if l.atEnd() {
			return &Error{Pos: start, Message: "unterminated block comment"}
		}
		if l.src[l.pos] == '/' && l.peekAt(1) == '*' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if l.src[l.pos] == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			depth--
			if depth == 0 {
				return nil
			}
			continue
		}
		if l.advance() == '\n' {
			l.newline = true
		}
	}
}

// Tokens

func (l *lexer) scanToken() error {
	start := l.here()
	ch := l.src[l.pos]

	switch {
	case isIdentStart(l.runeAt(0)):
		l.scanIdentifier()
		l.emit(Ident, start)
	case ch == '`':
		l.advance()
		for !l.atEnd() && l.src[l.pos] != '`' && l.src[l.pos] != '\n' {
			l.advance()
		}
		if l.atEnd() || l.src[l.pos] != '`' {
			return &Error{Pos: start, Message: "unterminated escaped identifier"}
		}
		l.advance()
		l.emit(Ident, start)
	case isDigit(ch):
		l.scanNumber()
		l.emit(Number, start)
	case ch == '"':
		if err := l.scanString(start, 0); err != nil {
			return err
		}
		l.emit(String, start)
	case ch == '#':
		pounds := 0
		for l.peekAt(pounds) == '#' {
			pounds++
		}
		switch {
		case l.peekAt(pounds) == '"':
			for i := 0; i < pounds; i++ {
				l.advance()
			}
			if err := l.scanString(start, pounds); err != nil {
				return err
			}
			l.emit(String, start)
		case pounds == 1 && isIdentStart(l.runeAt(1)):
			l.advance()
			l.scanIdentifier()
			l.emit(PoundIdent, start)
		default:
			l.advance()
			l.emit(Operator, start)
		}
	case ch == '@':
		l.advance()
		if isIdentStart(l.runeAt(0)) {
			l.scanIdentifier()
			l.emit(AtIdent, start)
		} else {
			l.emit(Operator, start)
		}
	case ch == '\\':
		l.advance()
		l.emit(Operator, start)
	case strings.IndexByte(operatorChars, ch) >= 0:
		l.advance()
		for !l.atEnd() && strings.IndexByte(operatorChars, l.src[l.pos]) >= 0 {
			if l.src[l.pos] == '/' && (l.peekAt(1) == '/' || l.peekAt(1) == '*') {
				break
			}
			l.advance()
		}
		l.emit(Operator, start)
	default:
		kind, ok := punctuation[ch]
		if !ok {
			return &Error{Pos: start, Message: fmt.Sprintf("unexpected character %q", l.runeAt(0))}
		}
		l.advance()
		l.emit(kind, start)
	}
	return nil
}

var punctuation = map[byte]Kind{
	'(': LParen,
	')': RParen,
	'[': LBracket,
	']': RBracket,
	'{': LBrace,
	'}': RBrace,
	',': Comma,
	':': Colon,
	';': Semicolon,
}

func (l *lexer) scanIdentifier() {
	for !l.atEnd() && isIdentPart(l.runeAt(0)) {
		l.advanceRune()
	}
}

func (l *lexer) scanNumber() {
	for !l.atEnd() {
		ch := l.src[l.pos]
		switch {
		case isDigit(ch) || ch == '_' || isASCIILetter(ch):
			l.advance()
		case ch == '.' && isDigit(l.peekAt(1)):
			l.advance()
		default:
			return
		}
	}
}

// scanString scans a string literal starting at the opening quote. pounds is
// the number of '#' delimiters of a raw string, already consumed.
func (l *lexer) scanString(start Pos, pounds int) error {
	multi := strings.HasPrefix(l.src[l.pos:], `"""`)
	if multi {
		l.advance()
		l.advance()
		l.advance()
	} else {
		l.advance()
	}

	for {
		if l.atEnd() {
			return &Error{Pos: start, Message: "unterminated string literal"}
		}
		ch := l.src[l.pos]
		switch {
		case ch == '\n' && !multi:
			return &Error{Pos: start, Message: "unterminated string literal"}
		case ch == '\\' && l.hasPounds(1, pounds):
			for i := 0; i <= pounds; i++ {
				l.advance()
			}
			if !l.atEnd() && l.src[l.pos] == '(' {
				l.advance()
				if err := l.scanInterpolation(start); err != nil {
					return err
				}
				continue
			}
			if !l.atEnd() {
				l.advance()
			}
		case ch == '"' && multi && strings.HasPrefix(l.src[l.pos:], `"""`) && l.hasPounds(3, pounds):
			for i := 0; i < 3+pounds; i++ {
				l.advance()
			}
			return nil
		case ch == '"' && !multi && l.hasPounds(1, pounds):
			for i := 0; i < 1+pounds; i++ {
				l.advance()
			}
			return nil
		default:
			l.advance()
		}
	}
}

// scanInterpolation consumes an interpolated expression up to and including
// its closing parenthesis.
func (l *lexer) scanInterpolation(start Pos) error {
	depth := 1
	for {
		if l.atEnd() {
			return &Error{Pos: start, Message: "unterminated string interpolation"}
		}
		switch l.src[l.pos] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				l.advance()
				return nil
			}
		case '"':
			if err := l.scanString(start, 0); err != nil {
				return err
			}
			continue
		}
		l.advance()
	}
}

// hasPounds reports whether the n '#' characters starting at offset from the
// current position are all present.
func (l *lexer) hasPounds(offset, n int) bool {
	for i := 0; i < n; i++ {
		if l.peekAt(offset+i) != '#' {
			return false
		}
	}
	return true
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n'
}
