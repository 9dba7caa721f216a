// Package gotarget applies the predicate helper transformation to Go sources.
//
// A predicate factory is a package-level function marked with a comment
// directive, returning a one-argument generic predicate type and ending with
// a call to the predicate constructor on a function literal:
//
//	//predgen:helper
//	func IsOver(beforeDate time.Time) pred.Predicate[Item] {
//		distantPast := time.Time{}
//		return pred.NewPredicate(func(item Item) bool {
//			return item.EndDate.After(beforeDate) || distantPast.IsZero()
//		})
//	}
//
// For each factory the generator emits a method on the predicate's type
// argument that replays the prior statements, binds the literal and applies
// it to the receiver:
//
//	func (self Item) IsOver(beforeDate time.Time) bool {
//		distantPast := time.Time{}
//		decider := func(item Item) bool { ... }
//		return decider(self)
//	}
//
// Methods are collected into one generated file per source file. Imports of
// the source are carried over when the generated code uses them.
package gotarget
