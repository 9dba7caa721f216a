package macro

import (
	"github.com/roach88/predgen/internal/syntax"
)

// forwardBinding is the base name of the local holding the built predicate.
const forwardBinding = "predicate"

// PredicateForwarder is the forward macro. Given
//
//	@PredicateForwarder static func isOver(beforeDate: Date) -> Predicate<Item> { ... }
//
// it emits the peer
//
//	func isOver(beforeDate: Date) -> Bool {
//	    let predicate = Self.isOver(beforeDate: beforeDate)
//	    return try! predicate.evaluate(self)
//	}
//
// Other attributes and modifiers of the original are kept; the triggering
// attribute and `static` are dropped.
type PredicateForwarder struct {
	opts Options
}

// NewPredicateForwarder creates the forward macro.
func NewPredicateForwarder(opts Options) *PredicateForwarder {
	return &PredicateForwarder{opts: opts.withDefaults()}
}

// Kind returns KindForward.
func (m *PredicateForwarder) Kind() Kind { return KindForward }

// ExpandPeers builds the forwarding instance method.
func (m *PredicateForwarder) ExpandPeers(attr syntax.Attribute, decl syntax.Decl, ctx Context) ([]syntax.Decl, error) {
	fn, ok := decl.(*syntax.FuncDecl)
	if !ok || !fn.HasModifier("static") {
		return nil, &NoAttachedFunctionError{Reason: "must be applied on a static method"}
	}

	var attrs []syntax.Attribute
	for _, a := range fn.Attributes {
		if a.Name != attr.Name {
			attrs = append(attrs, a)
		}
	}
	var mods []string
	for _, mod := range fn.Modifiers {
		if mod != "static" {
			mods = append(mods, mod)
		}
	}

	binding := ctx.MakeUniqueName(forwardBinding)
	body := []syntax.Stmt{
		&syntax.LetStmt{
			Name: binding,
			Value: &syntax.CallExpr{
				Fun:  &syntax.MemberExpr{X: &syntax.IdentExpr{Name: "Self"}, Name: fn.Name},
				Args: forwardArgs(fn.Params),
			},
		},
		&syntax.ReturnStmt{
			Value: &syntax.TryExpr{
				Force: true,
				X: &syntax.CallExpr{
					Fun:  &syntax.MemberExpr{X: &syntax.IdentExpr{Name: binding}, Name: "evaluate"},
					Args: []syntax.Arg{{Value: &syntax.IdentExpr{Name: m.opts.Receiver}}},
				},
			},
		},
	}

	peer := &syntax.FuncDecl{
		Attributes:  attrs,
		Modifiers:   mods,
		Name:        fn.Name,
		Generics:    fn.Generics,
		Params:      fn.Params,
		ParamClause: fn.ParamClause,
		Effects:     fn.Effects,
		ReturnType:  "Bool",
		Where:       fn.Where,
		Body:        &syntax.Block{Stmts: body},
		Indent:      fn.Indent,
	}
	return emit(peer), nil
}

// forwardArgs passes every parameter through under its own label.
func forwardArgs(params []syntax.Param) []syntax.Arg {
	args := make([]syntax.Arg, 0, len(params))
	for _, p := range params {
		args = append(args, syntax.Arg{
			Label: p.Label(),
			Value: &syntax.IdentExpr{Name: p.LocalName()},
		})
	}
	return args
}
