// Package testutil provides ledger fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/store"
)

// ToolVersion is the tool version recorded by BeginRun.
const ToolVersion = "test"

// OpenLedger opens a fresh ledger in a temporary directory. It is closed
// when the test ends.
func OpenLedger(t testing.TB) *store.Store {
	t.Helper()
	return OpenLedgerAt(t, filepath.Join(t.TempDir(), "ledger.db"))
}

// OpenLedgerAt opens the ledger at path and closes it when the test ends.
func OpenLedgerAt(t testing.TB, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// BeginRun starts a run with a fixed ID under cfg. A nil cfg means the
// defaults.
func BeginRun(t testing.TB, st *store.Store, id string, cfg *config.Config) store.Run {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	canonical, err := cfg.Canonical()
	require.NoError(t, err)

	run, err := st.BeginRun(context.Background(), store.NewFixedGenerator(id), canonical, ToolVersion)
	require.NoError(t, err)
	return run
}

// Record stores rec under run and returns the stored record.
func Record(t testing.TB, st *store.Store, run store.Run, rec store.Record) store.Record {
	t.Helper()
	rec.RunID = run.ID
	out, err := st.RecordExpansion(context.Background(), rec)
	require.NoError(t, err)
	return out
}
