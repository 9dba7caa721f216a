package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadRuns returns every run ordered by seq.
//
// Returns an empty slice (not nil) if the ledger holds no runs.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.query(ctx, `
		SELECT id, seq, config, config_hash, tool_version
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Seq, &run.Config, &run.ConfigHash, &run.ToolVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadRun returns the run with the given ID, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, config, config_hash, tool_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.Config, &run.ConfigHash, &run.ToolVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ReadExpansions returns the expansions of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run recorded nothing.
func (s *Store) ReadExpansions(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.query(ctx, `
		SELECT id, run_id, seq, file, lang, decl, macro, line,
		       input, input_hash, output, output_hash, error_code, error_message
		FROM expansions
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query expansions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.Seq, &rec.File, &rec.Lang, &rec.Decl, &rec.Macro, &rec.Line,
			&rec.Input, &rec.InputHash, &rec.Output, &rec.OutputHash, &rec.ErrorCode, &rec.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan expansion: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expansions: %w", err)
	}

	return records, nil
}
