package syntax

// Decl is a declaration found in a source file: either a parsed function or
// any other attributed declaration.
type Decl interface {
	// Attrs returns the attributes written before the declaration.
	Attrs() []Attribute

	// DeclName returns the declared name, or the declaration keyword when
	// the declaration has no name predgen understands.
	DeclName() string

	// DeclSpan returns the source range from the first attribute to the end
	// of the declaration.
	DeclSpan() Span

	// DeclSource returns the original text of the declaration, or "" for
	// generated declarations.
	DeclSource() string

	// DeclIndent returns the leading whitespace of the line the declaration
	// starts on.
	DeclIndent() string

	declNode()
}

// Attribute is an `@Name` or `@Name(args)` attribute.
type Attribute struct {
	Name string `json:"name"`
	Args string `json:"args,omitempty"` // raw text including parentheses
	Pos  Pos    `json:"pos"`
}

// Param is a single function parameter.
type Param struct {
	FirstName  string // argument label, or "_"
	SecondName string // local name when it differs from the label
	Type       string
	Default    string
	Text       string
}

// LocalName returns the identifier the parameter is bound to inside the body.
func (p Param) LocalName() string {
	if p.SecondName != "" {
		return p.SecondName
	}
	return p.FirstName
}

// Label returns the argument label callers must write, or "" when the
// parameter is unlabelled.
func (p Param) Label() string {
	if p.FirstName == "_" {
		return ""
	}
	return p.FirstName
}

// FuncDecl is a function declaration.
//
// Parsed declarations carry RawStmt bodies and their Source and Tokens.
// Generated declarations carry typed statements and no source.
type FuncDecl struct {
	Attributes  []Attribute
	Modifiers   []string
	Name        string
	Generics    string // raw generic parameter clause, e.g. "<T>"
	Params      []Param
	ParamClause string // text between the parameter parentheses
	Effects     []string
	ReturnType  string // "" when there is no return clause
	Where       string // raw where clause, e.g. "where T: Equatable"
	Body        *Block // nil when the declaration has no body

	Span   Span
	Indent string  // leading whitespace of the line the declaration starts on
	Source string  // original source text of the declaration
	Tokens []Token // all tokens of the declaration
}

func (d *FuncDecl) Attrs() []Attribute { return d.Attributes }
func (d *FuncDecl) DeclName() string    { return d.Name }
func (d *FuncDecl) DeclSpan() Span      { return d.Span }
func (d *FuncDecl) DeclSource() string  { return d.Source }
func (d *FuncDecl) DeclIndent() string  { return d.Indent }
func (*FuncDecl) declNode()             {}

// HasModifier reports whether the declaration carries the modifier.
func (d *FuncDecl) HasModifier(name string) bool {
	for _, m := range d.Modifiers {
		if m == name {
			return true
		}
	}
	return false
}

// OtherDecl is an attributed declaration that is not a function.
type OtherDecl struct {
	Attributes []Attribute
	Modifiers  []string
	Keyword    string

	Span   Span
	Indent string
	Source string
	Tokens []Token
}

func (d *OtherDecl) Attrs() []Attribute { return d.Attributes }
func (d *OtherDecl) DeclName() string    { return d.Keyword }
func (d *OtherDecl) DeclSpan() Span      { return d.Span }
func (d *OtherDecl) DeclSource() string  { return d.Source }
func (d *OtherDecl) DeclIndent() string  { return d.Indent }
func (*OtherDecl) declNode()             {}

// Block is a brace-delimited statement list.
type Block struct {
	Stmts  []Stmt
	Lbrace Pos
	Rbrace Pos
}

// Stmt is a statement node.
type Stmt interface{ stmtNode() }

// RawStmt is a statement copied from source. It is never parsed further.
type RawStmt struct {
	Text   string
	Tokens []Token
	Pos    Pos
}

// LetStmt is `let Name: Type = Value`. Type may be nil.
type LetStmt struct {
	Name  string
	Type  Type
	Value Expr
}

// ReturnStmt is `return Value`. Value may be nil.
type ReturnStmt struct {
	Value Expr
}

func (*RawStmt) stmtNode()    {}
func (*LetStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}

// Expr is an expression node.
type Expr interface{ exprNode() }

// RawExpr is an opaque expression re-embedded verbatim.
type RawExpr struct {
	Text string
}

// IdentExpr is a bare identifier.
type IdentExpr struct {
	Name string
}

// MemberExpr is `X.Name`.
type MemberExpr struct {
	X    Expr
	Name string
}

// CallExpr is `Fun(Args...)`.
type CallExpr struct {
	Fun  Expr
	Args []Arg
}

// Arg is a call argument with an optional label.
type Arg struct {
	Label string
	Value Expr
}

// TryExpr is `try X`, or `try! X` when Force is set.
type TryExpr struct {
	Force bool
	X     Expr
}

func (*RawExpr) exprNode()    {}
func (*IdentExpr) exprNode()  {}
func (*MemberExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*TryExpr) exprNode()    {}

// Type is a type node.
type Type interface{ typeNode() }

// NamedType is a type written as text, e.g. `Item` or `Bar.Baz`.
type NamedType struct {
	Name string
}

// FuncType is `(Params...) -> Result`.
type FuncType struct {
	Params []Type
	Result Type
}

func (*NamedType) typeNode() {}
func (*FuncType) typeNode()  {}

// File is a parsed source file.
type File struct {
	Name   string
	Source string
	Tokens []Token
	Decls  []Decl
}
