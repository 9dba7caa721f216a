// Package macro implements the predicate helper peer macros.
//
// A macro receives an attribute, the declaration it is attached to and an
// expansion Context, and returns the peer declarations to insert next to the
// original. Expansion is a pure function of its input: no I/O, no shared
// state, and identical input always yields identical output.
//
// # Pipeline
//
// The splice macro (PredicateHelper) runs four steps:
//
//   - Matcher: the declaration must be a function with a body, a non-empty
//     return clause and at least one statement (NoAttachedFunctionError).
//   - Extractor: name, parameters, statements, the generic argument of the
//     return type and the closure literal of the final
//     `return #Predicate<T> { ... }` statement (NoPredicateError).
//   - Rewriter: a typed declaration `func name(params) -> Bool` whose body
//     replays the prior statements, binds the closure as `(T) -> Bool` under a
//     fresh name and returns the binding applied to `self`.
//   - Emitter: the declaration becomes the single peer of the original.
//
// The forward macro (PredicateForwarder) turns a static predicate factory
// into an instance method that builds the predicate and evaluates it.
//
// # Registry
//
// Attribute names map to macros through a static Registry built once at
// start-up from a table of attribute name to Kind.
//
// # Errors
//
// Failures are tagged error values carrying structured data and a code:
//
//	E201  NoAttachedFunctionError{Reason}
//	E202  NoPredicateError{Text}
//
// A failure aborts the expansion of one declaration only.
package macro
