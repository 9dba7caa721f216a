package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/predgen/internal/store"
	"github.com/roach88/predgen/internal/testutil"
)

// recordLedger expands the given files into a fresh ledger and returns its
// path.
func recordLedger(t *testing.T, dir string, files ...string) string {
	t.Helper()
	db := filepath.Join(dir, "predgen.db")
	args := append(append([]string{}, files...), "--ledger", db, "--style", "compact")
	_, _, err := execute(NewExpandCommand(newTestOptions("text")), args...)
	if err != nil {
		// failed declarations are still recorded
		require.Equal(t, ExitFailure, GetExitCode(err), err)
	}
	return db
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	cmd := NewReplayCommand(newTestOptions("text"))
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayNonExistentDatabase(t *testing.T) {
	cmd := NewReplayCommand(newTestOptions("text"))
	out, _, err := execute(cmd, "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: ledger not found")
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cmd := NewReplayCommand(newTestOptions("text"))
	out, _, err := execute(cmd, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in ledger.")
}

func TestReplayDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "Item.swift", isOverSource+"\n"+brokenSource)
	b := writeFile(t, dir, "catalog.go", goSource)
	db := recordLedger(t, dir, a, b)

	cmd := NewReplayCommand(newTestOptions("text"))
	out, _, err := execute(cmd, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 run(s)")
	assert.Contains(t, out, "Declarations: 3")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplayDeterministicJSON(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "Item.swift", isOverSource)
	db := recordLedger(t, dir, a)

	cmd := NewReplayCommand(newTestOptions("json"))
	out, _, err := execute(cmd, "--db", db)
	require.NoError(t, err)

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllDeterministic)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, 1, result.Runs[0].Checked)
	assert.Equal(t, Version, result.Runs[0].ToolVersion)
}

// seedDrift records a run whose stored output no longer matches what the
// expander produces.
func seedDrift(t *testing.T, db string) string {
	t.Helper()

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run := testutil.BeginRun(t, st, "run-drift", nil)
	testutil.Record(t, st, run, store.Record{
		File:   "Item.swift",
		Lang:   store.LangSwift,
		Decl:   "isOver",
		Macro:  "PredicateHelper",
		Line:   1,
		Input:  isOverSource,
		Output: "func isOver() -> Bool { return true }",
	})
	return run.ID
}

func TestReplayDetectsDrift(t *testing.T) {
	db := filepath.Join(t.TempDir(), "drift.db")
	seedDrift(t, db)

	opts := newTestOptions("text")
	opts.Verbose = true
	cmd := NewReplayCommand(opts)
	out, _, err := execute(cmd, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: run-drift")
	assert.Contains(t, out, "Item.swift isOver (PredicateHelper): output differs")
	assert.Contains(t, out, "want: func isOver() -> Bool { return true }")
	assert.Contains(t, out, "✗ Determinism verification failed")
}

func TestReplaySpecificRun(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "Item.swift", isOverSource)
	db := recordLedger(t, dir, a)
	seedDrift(t, db)

	// The recorded run alone is deterministic.
	st, err := store.Open(db)
	require.NoError(t, err)
	runs, err := st.ReadRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, runs, 2)

	var clean string
	for _, r := range runs {
		if r.ID != "run-drift" {
			clean = r.ID
		}
	}

	cmd := NewReplayCommand(newTestOptions("json"))
	out, _, err := execute(cmd, "--db", db, "--run", clean)
	require.NoError(t, err)

	var result ReplayResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, clean, result.Runs[0].RunID)

	cmd = NewReplayCommand(newTestOptions("json"))
	out, _, err = execute(cmd, "--db", db, "--run", "run-drift")
	require.Error(t, err)

	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.Len(t, result.Runs, 1)
	require.NotEmpty(t, result.Runs[0].Mismatches)
	assert.Equal(t, "output", result.Runs[0].Mismatches[0].Field)
}

func TestReplayUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "drift.db")
	seedDrift(t, db)

	cmd := NewReplayCommand(newTestOptions("text"))
	out, _, err := execute(cmd, "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run nope not found")
}

func TestReplayHelpText(t *testing.T) {
	cmd := NewReplayCommand(newTestOptions("text"))
	out, _, err := execute(cmd, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-expand every declaration recorded in a ledger")
	assert.Contains(t, out, "--db")
	assert.Contains(t, out, "Exit codes:")
}
