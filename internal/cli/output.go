package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/predgen/internal/macro"
)

// Values accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// CLIResponse is the envelope every JSON-mode command writes to stdout.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes why a command or file failed.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter renders results, failures and expansion diagnostics.
//
// In JSON mode Writer receives exactly one CLIResponse; diagnostics travel
// inside it. In text mode results go to Writer and progress lines to
// ErrWriter.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// JSON reports whether the formatter writes the JSON envelope.
func (f *OutputFormatter) JSON() bool {
	return f.Format == FormatJSON
}

// Respond writes the JSON envelope around data. A non-nil failure turns the
// status into "error".
func (f *OutputFormatter) Respond(data any, failure *CLIError) error {
	resp := CLIResponse{Status: "ok", Data: data}
	if failure != nil {
		resp.Status = "error"
		resp.Error = failure
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Success writes data as an "ok" envelope, or its default text form.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.Respond(data, nil)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a command-level failure. Text mode shows details only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.Respond(nil, &CLIError{Code: code, Message: message, Details: details})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// severityMark prefixes a diagnostic line.
func severityMark(s macro.Severity) string {
	switch s {
	case macro.SeverityWarning:
		return "!"
	case macro.SeverityNote:
		return "·"
	default:
		return "✗"
	}
}

// Diagnostic writes d as one line. Verbose output adds the triggering
// attribute and the span the diagnostic covers.
func (f *OutputFormatter) Diagnostic(w io.Writer, d macro.Diagnostic) {
	fmt.Fprintf(w, "%s %s\n", severityMark(d.Severity), d)
	if !f.Verbose {
		return
	}
	if d.Macro != "" {
		fmt.Fprintf(w, "    @%s, %s-%s\n", d.Macro, d.Pos, d.End)
	} else if d.End.IsValid() {
		fmt.Fprintf(w, "    %s-%s\n", d.Pos, d.End)
	}
}

// FileProblems writes the file-level error of fr, then its diagnostics.
func (f *OutputFormatter) FileProblems(w io.Writer, fr FileResult) {
	if fr.Error != nil {
		fmt.Fprintf(w, "✗ %s: [%s] %s\n", fr.File, fr.Error.Code, fr.Error.Message)
		if fr.Error.Details != nil {
			fmt.Fprintf(w, "  %v\n", fr.Error.Details)
		}
	}
	for _, d := range fr.Diagnostics {
		f.Diagnostic(w, d)
	}
}

// VerboseLog writes a progress line to ErrWriter when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, or Writer when none is set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// expansionFailure builds the envelope error for failed files. Details holds
// the first file error or error diagnostic.
func expansionFailure(files []FileResult, failed int) *CLIError {
	if failed == 0 {
		return nil
	}
	failure := &CLIError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%d declaration(s) or file(s) failed", failed),
	}
	for _, fr := range files {
		if fr.Error != nil {
			failure.Code = fr.Error.Code
			failure.Details = fr.Error
			return failure
		}
		for _, d := range fr.Diagnostics {
			if d.Severity == macro.SeverityError {
				failure.Code = d.Code
				failure.Details = d
				return failure
			}
		}
	}
	return failure
}
