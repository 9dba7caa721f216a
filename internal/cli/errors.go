package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/expand"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // failed expansions, failed cases, replay drift
	ExitCommandError = 2 // no input, bad config, ledger unavailable
)

// ExitError carries the exit code a command failure maps to.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in the CLIError envelope. Expansion diagnostics carry
// their own codes (E200, E201, E202).
const (
	ErrCodeGeneric  = "E001"
	ErrCodeNoFiles  = "E003"
	ErrCodeNotFound = "E005"
	ErrCodeWrite    = "E007"
	ErrCodeConfig   = "E008"
	ErrCodeLedger   = "E009"
	ErrCodeParse    = "E010"
)

// errorCode maps an error to its CLI error code.
func errorCode(err error) string {
	var cfgErr *config.Error
	var parseErr *expand.ParseError
	switch {
	case errors.As(err, &cfgErr):
		return ErrCodeConfig
	case errors.As(err, &parseErr):
		return ErrCodeParse
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// reportError prints err through the formatter and returns an ExitError so
// the process exits with code.
func reportError(f *OutputFormatter, exit int, code, message string, err error) error {
	details := interface{}(nil)
	if err != nil {
		details = err.Error()
	}
	if outErr := f.Error(code, message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}
