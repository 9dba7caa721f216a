// Package harness runs conformance cases against the expanders.
//
// # Case Format
//
// Cases are YAML files with the following structure:
//
//	name: is_over
//	description: "Statements are replayed before the closure binding"
//	lang: swift          # or go; default swift
//	style: compact       # optional, overrides the configuration
//	macro: PredicateHelper # optional, only check expansions of this macro
//	config: |            # optional inline predgen.cue
//	  binding: "check"
//	input: |
//	  @PredicateHelper
//	  static func isOver(beforeDate: Date) -> Predicate<Item> { ... }
//	expect:
//	  peers:
//	    - "func isOver(beforeDate: Date) -> Bool { ... }"
//	  contains:
//	    - "return check(self)"
//
// A case expecting a failure names the code and, optionally, the detail of
// the error (the reason of NoAttachedFunction or the statement of
// NoPredicate):
//
//	expect:
//	  error:
//	    code: E202
//	    text: "return someOtherThing()"
//
// # Golden Files
//
// RunWithGolden compares the complete expanded file against
// testdata/golden/{case.Name}.golden. To regenerate:
//
//	go test ./internal/harness -update
//
// # Usage
//
//	c, err := harness.LoadCase("testdata/cases/is_over.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(c)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
