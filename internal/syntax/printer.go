package syntax

import (
	"fmt"
	"strings"
)

// Style selects how declarations are laid out.
type Style int

const (
	// Multiline puts every statement on its own indented line.
	Multiline Style = iota
	// Compact puts the whole declaration on one line, statements separated
	// by "; ".
	Compact
)

// IndentUnit is the indentation added per nesting level.
const IndentUnit = "    "

func (s Style) String() string {
	switch s {
	case Multiline:
		return "multiline"
	case Compact:
		return "compact"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle converts a style name to a Style.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(name) {
	case "", "multiline":
		return Multiline, nil
	case "compact":
		return Compact, nil
	default:
		return Multiline, fmt.Errorf("unknown style %q (valid: multiline, compact)", name)
	}
}

// Print renders a declaration. Every line of the result starts with indent
// except continuation lines of multi-line statements, which keep the
// whitespace they had in the source.
func Print(d Decl, style Style, indent string) string {
	switch d := d.(type) {
	case *FuncDecl:
		return printFunc(d, style, indent)
	case *OtherDecl:
		return indent + d.Source
	default:
		return ""
	}
}

func printFunc(d *FuncDecl, style Style, indent string) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(funcHeader(d))

	if d.Body == nil {
		return b.String()
	}
	if len(d.Body.Stmts) == 0 {
		b.WriteString(" {}")
		return b.String()
	}

	if style == Compact {
		b.WriteString(" { ")
		for i, stmt := range d.Body.Stmts {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(PrintStmt(stmt))
		}
		b.WriteString(" }")
		return b.String()
	}

	b.WriteString(" {\n")
	for _, stmt := range d.Body.Stmts {
		b.WriteString(indent)
		b.WriteString(IndentUnit)
		b.WriteString(PrintStmt(stmt))
		b.WriteString("\n")
	}
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

func funcHeader(d *FuncDecl) string {
	var parts []string
	for _, attr := range d.Attributes {
		parts = append(parts, "@"+attr.Name+attr.Args)
	}
	parts = append(parts, d.Modifiers...)

	var sig strings.Builder
	sig.WriteString("func ")
	sig.WriteString(d.Name)
	sig.WriteString(d.Generics)
	sig.WriteString("(")
	sig.WriteString(d.ParamClause)
	sig.WriteString(")")
	for _, effect := range d.Effects {
		sig.WriteString(" ")
		sig.WriteString(effect)
	}
	if d.ReturnType != "" {
		sig.WriteString(" -> ")
		sig.WriteString(d.ReturnType)
	}
	if d.Where != "" {
		sig.WriteString(" ")
		sig.WriteString(d.Where)
	}
	parts = append(parts, sig.String())

	return strings.Join(parts, " ")
}

// PrintStmt renders a single statement.
func PrintStmt(s Stmt) string {
	switch s := s.(type) {
	case *RawStmt:
		return s.Text
	case *LetStmt:
		var b strings.Builder
		b.WriteString("let ")
		b.WriteString(s.Name)
		if s.Type != nil {
			b.WriteString(": ")
			b.WriteString(PrintType(s.Type))
		}
		if s.Value != nil {
			b.WriteString(" = ")
			b.WriteString(PrintExpr(s.Value))
		}
		return b.String()
	case *ReturnStmt:
		if s.Value == nil {
			return "return"
		}
		return "return " + PrintExpr(s.Value)
	default:
		return ""
	}
}

// PrintExpr renders an expression.
func PrintExpr(e Expr) string {
	switch e := e.(type) {
	case *RawExpr:
		return e.Text
	case *IdentExpr:
		return e.Name
	case *MemberExpr:
		return PrintExpr(e.X) + "." + e.Name
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			if arg.Label != "" {
				args[i] = arg.Label + ": " + PrintExpr(arg.Value)
			} else {
				args[i] = PrintExpr(arg.Value)
			}
		}
		return PrintExpr(e.Fun) + "(" + strings.Join(args, ", ") + ")"
	case *TryExpr:
		if e.Force {
			return "try! " + PrintExpr(e.X)
		}
		return "try " + PrintExpr(e.X)
	default:
		return ""
	}
}

// PrintType renders a type.
func PrintType(t Type) string {
	switch t := t.(type) {
	case *NamedType:
		return t.Name
	case *FuncType:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = PrintType(p)
		}
		return "(" + strings.Join(params, ", ") + ") -> " + PrintType(t.Result)
	default:
		return ""
	}
}
