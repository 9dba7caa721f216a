package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/expand"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "no input files"), ExitCommandError},
		{"wrapped", fmt.Errorf("run: %w", NewExitError(ExitFailure, "1 declaration(s) failed")), ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestWrapExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to write output", cause)

	assert.Equal(t, "failed to write output: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "no input files", NewExitError(ExitCommandError, "no input files").Error())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeConfig, errorCode(fmt.Errorf("load: %w", &config.Error{Message: "bad"})))
	assert.Equal(t, ErrCodeParse, errorCode(&expand.ParseError{File: "a.swift", Err: errors.New("x")}))
	assert.Equal(t, ErrCodeNotFound, errorCode(fs.ErrNotExist))
	assert.Equal(t, ErrCodeGeneric, errorCode(errors.New("boom")))
}
