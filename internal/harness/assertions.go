package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/predgen/internal/expand"
	"github.com/roach88/predgen/internal/macro"
)

// ExpectationError is returned when an expectation fails.
// It includes the expected and actual outcome to help debug the failure.
type ExpectationError struct {
	Type     string // "peers", "contains" or "error"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks the expansion outcome against expect and
// returns one message per failed expectation.
func EvaluateExpectations(expect Expect, result *Result, checked []*expand.Expansion) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if expect.Error != nil {
		add(expectError(*expect.Error, checked))
	} else {
		add(expectSuccess(checked))
	}
	if len(expect.Peers) > 0 {
		add(expectPeers(expect.Peers, result.Peers))
	}
	for _, snippet := range expect.Contains {
		add(expectContains(snippet, result.Output))
	}
	return errs
}

// expectPeers compares the generated peers exactly. A trailing newline left
// by a YAML block scalar is ignored.
func expectPeers(want, got []string) error {
	trimmed := make([]string, len(want))
	for i, w := range want {
		trimmed[i] = strings.TrimRight(w, "\n")
	}

	if len(trimmed) != len(got) {
		return &ExpectationError{
			Type:     "peers",
			Expected: fmt.Sprintf("%d peer(s)", len(trimmed)),
			Actual:   fmt.Sprintf("%d peer(s): %q", len(got), got),
		}
	}
	for i := range trimmed {
		if trimmed[i] != got[i] {
			return &ExpectationError{
				Type:     "peers",
				Expected: fmt.Sprintf("peer %d = %q", i, trimmed[i]),
				Actual:   fmt.Sprintf("%q", got[i]),
			}
		}
	}
	return nil
}

func expectContains(snippet, output string) error {
	if strings.Contains(output, snippet) {
		return nil
	}
	return &ExpectationError{
		Type:     "contains",
		Expected: fmt.Sprintf("output containing %q", snippet),
		Actual:   fmt.Sprintf("%q", output),
	}
}

// expectError checks that some checked expansion failed with the expected
// code and detail.
func expectError(want ExpectError, checked []*expand.Expansion) error {
	var failures []string
	for _, e := range checked {
		if !e.Failed() {
			continue
		}
		detail := macro.ErrorDetail(e.Err)
		if e.Code == want.Code && (want.Text == "" || detail == want.Text) {
			return nil
		}
		failures = append(failures, fmt.Sprintf("%s %s(%q)", e.Decl, e.Code, detail))
	}

	actual := "no expansion failed"
	if len(failures) > 0 {
		actual = strings.Join(failures, ", ")
	}
	expected := want.Code
	if want.Text != "" {
		expected = fmt.Sprintf("%s(%q)", want.Code, want.Text)
	}
	return &ExpectationError{Type: "error", Expected: expected, Actual: actual}
}

func expectSuccess(checked []*expand.Expansion) error {
	if len(checked) == 0 {
		return &ExpectationError{
			Type:     "expansion",
			Expected: "at least one expansion",
			Actual:   "no annotated declaration found",
		}
	}
	for _, e := range checked {
		if e.Failed() {
			return &ExpectationError{
				Type:     "expansion",
				Expected: fmt.Sprintf("%s to expand", e.Decl),
				Actual:   e.Message,
			}
		}
	}
	return nil
}
