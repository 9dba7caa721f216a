// Package syntax provides the source model predgen expands.
//
// The package holds three layers:
//
//   - A lexer that turns source text into tokens. Every token records its
//     position and the whitespace that precedes it, with comments removed.
//   - A declaration parser. It does not parse a whole language; it finds the
//     declarations introduced by attributes (`@Name`) and parses function
//     declarations far enough to expose name, parameters, return clause and
//     body statements. Statements stay opaque: they are token runs whose text
//     is re-rendered verbatim.
//   - Typed nodes and a printer for generated declarations. Generated code is
//     built as a tree of statements and expressions and pretty-printed, never
//     assembled by concatenating header strings.
//
// # Statement Text
//
// A statement's text is the concatenation of its tokens with the original
// whitespace between them. Leading and trailing whitespace is dropped and
// comments are elided, so
//
//	let distantPast = Date.distantPast // fallback
//
// renders as `let distantPast = Date.distantPast`.
package syntax
