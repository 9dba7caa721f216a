package macro

import (
	"errors"
	"fmt"

	"github.com/roach88/predgen/internal/syntax"
)

// Expansion error codes (E200-E299)
const (
	CodeExpansionFailed    = "E200" // macro failed for another reason
	CodeNoAttachedFunction = "E201" // declaration shape not supported
	CodeNoPredicate        = "E202" // final statement is not a predicate construction
)

// NoAttachedFunctionError reports that the annotated declaration is not a
// function with a body, a return type and at least one statement.
type NoAttachedFunctionError struct {
	Reason string
}

func (e *NoAttachedFunctionError) Error() string {
	return fmt.Sprintf("no attached function: %s", e.Reason)
}

// Code returns the diagnostic code.
func (e *NoAttachedFunctionError) Code() string { return CodeNoAttachedFunction }

// NoPredicateError reports that the final statement does not construct a
// predicate. Text is the offending statement.
type NoPredicateError struct {
	Text string
}

func (e *NoPredicateError) Error() string {
	return fmt.Sprintf("no predicate: final statement %q does not construct a predicate", e.Text)
}

// Code returns the diagnostic code.
func (e *NoPredicateError) Code() string { return CodeNoPredicate }

// ErrorCode returns the diagnostic code for an expansion error.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeExpansionFailed
}

// ErrorDetail returns the structured payload of a tagged error: the reason
// of a NoAttachedFunctionError or the statement of a NoPredicateError.
func ErrorDetail(err error) string {
	var noFunc *NoAttachedFunctionError
	if errors.As(err, &noFunc) {
		return noFunc.Reason
	}
	var noPred *NoPredicateError
	if errors.As(err, &noPred) {
		return noPred.Text
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Diagnostic is a message anchored to a source range.
type Diagnostic struct {
	File     string     `json:"file,omitempty"`
	Pos      syntax.Pos `json:"pos"`
	End      syntax.Pos `json:"end"`
	Severity Severity   `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Macro    string     `json:"macro,omitempty"`
	Detail   string     `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	loc := d.Pos.String()
	if d.File != "" {
		loc = d.File + ":" + loc
	}
	return fmt.Sprintf("%s: %s: [%s] %s", loc, d.Severity, d.Code, d.Message)
}

// NewDiagnostic converts an expansion error into an error diagnostic covering
// the whole declaration.
func NewDiagnostic(file string, decl syntax.Decl, attr syntax.Attribute, err error) Diagnostic {
	span := decl.DeclSpan()
	return Diagnostic{
		File:     file,
		Pos:      span.Start,
		End:      span.End,
		Severity: SeverityError,
		Code:     ErrorCode(err),
		Message:  err.Error(),
		Macro:    attr.Name,
		Detail:   ErrorDetail(err),
	}
}
