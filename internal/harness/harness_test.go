package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/predgen/internal/config"
)

func TestRun_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/cases/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		c, err := LoadCase(path)
		require.NoError(t, err, path)

		t.Run(c.Name, func(t *testing.T) {
			result, err := Run(c)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_PeerMismatch(t *testing.T) {
	c := &Case{
		Name:        "mismatch",
		Description: "d",
		Style:       "compact",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return #Predicate<A> { _ in true } }",
		Expect:      Expect{Peers: []string{"func f() -> Bool { true }"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expectation failed: peers")
	assert.Equal(t, []string{"func f() -> Bool { let decider: (A) -> Bool = { _ in true }; return decider(self) }"}, result.Peers)
}

func TestRun_PeerCountMismatch(t *testing.T) {
	c := &Case{
		Name:        "count",
		Description: "d",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return #Predicate<A> { _ in true } }",
		Expect:      Expect{Peers: []string{"a", "b"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "2 peer(s)")
}

func TestRun_UnexpectedFailure(t *testing.T) {
	c := &Case{
		Name:        "unexpected",
		Description: "d",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return other() }",
		Expect:      Expect{Contains: []string{"func f"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "Expectation failed: expansion")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "E202", result.Diagnostics[0].Code)
}

func TestRun_WrongErrorCode(t *testing.T) {
	c := &Case{
		Name:        "wrong_code",
		Description: "d",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return other() }",
		Expect:      Expect{Error: &ExpectError{Code: "E201"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `f E202("return other()")`)
}

func TestRun_ErrorExpectedButSucceeded(t *testing.T) {
	c := &Case{
		Name:        "no_failure",
		Description: "d",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return #Predicate<A> { _ in true } }",
		Expect:      Expect{Error: &ExpectError{Code: "E202"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "no expansion failed")
}

func TestRun_NoAnnotatedDeclaration(t *testing.T) {
	c := &Case{
		Name:        "nothing",
		Description: "d",
		Input:       "func f() -> Bool { true }",
		Expect:      Expect{Contains: []string{"func f"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "no annotated declaration found")
}

func TestRun_MacroFilter(t *testing.T) {
	c := &Case{
		Name:        "filter",
		Description: "d",
		Style:       "compact",
		Macro:       "PredicateForwarder",
		Input: "@PredicateHelper static func a() -> Predicate<A> { return other() }\n" +
			"@PredicateForwarder static func b() -> Predicate<A> { return #Predicate<A> { _ in true } }\n",
		Expect: Expect{Peers: []string{"func b() -> Bool { let predicate = Self.b(); return try! predicate.evaluate(self) }"}},
	}

	result, err := Run(c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ExecutionErrors(t *testing.T) {
	tests := []struct {
		name string
		c    *Case
	}{
		{"bad config", &Case{Name: "c", Config: `binding: 1`, Input: "x"}},
		{"parse failure", &Case{Name: "p", Input: "@PredicateHelper static func f() -> Predicate<A> {"}},
		{"go parse failure", &Case{Name: "g", Lang: "go", Input: "package"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.c)
			assert.Error(t, err)
		})
	}
}

func TestHarness_BaseConfig(t *testing.T) {
	base, err := config.Parse("predgen.cue", []byte(`receiver: "this", style: "compact"`))
	require.NoError(t, err)

	c := &Case{
		Name:        "base",
		Description: "d",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return #Predicate<A> { _ in true } }",
		Expect:      Expect{Contains: []string{"return decider(this)"}},
	}

	result, err := New(base, nil).Run(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestHarness_StyleOverrideKeepsBase(t *testing.T) {
	base := config.Default()
	c := &Case{
		Name:        "override",
		Description: "d",
		Style:       "compact",
		Input:       "@PredicateHelper static func f() -> Predicate<A> { return #Predicate<A> { _ in true } }",
		Expect:      Expect{Contains: []string{"{ let decider"}},
	}

	result, err := New(base, nil).Run(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "multiline", base.Style)
}
