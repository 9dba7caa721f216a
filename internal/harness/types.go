package harness

import "github.com/roach88/predgen/internal/macro"

// Result is the outcome of running a case.
type Result struct {
	// Pass indicates overall case success.
	// True if every expectation matches.
	Pass bool `json:"pass"`

	// Peers holds the generated declarations of the checked expansions, in
	// source order.
	Peers []string `json:"peers"`

	// Output is the complete expanded file: the input with peers inserted,
	// or the generated file for Go cases.
	Output string `json:"output"`

	// Diagnostics holds everything the expander reported.
	Diagnostics []macro.Diagnostic `json:"diagnostics,omitempty"`

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Peers:  []string{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
