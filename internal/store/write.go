package store

import (
	"context"
	"fmt"
)

// Languages recorded in the expansions.lang column.
const (
	LangSwift = "swift"
	LangGo    = "go"
)

// Run is one recorded invocation of the expander.
type Run struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Config      string `json:"config"` // canonical JSON of the configuration
	ConfigHash  string `json:"config_hash"`
	ToolVersion string `json:"tool_version"`
}

// Record is one recorded expansion.
type Record struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	Seq          int64  `json:"seq"`
	File         string `json:"file"`
	Lang         string `json:"lang"`
	Decl         string `json:"decl"`
	Macro        string `json:"macro"`
	Line         int    `json:"line"`
	Input        string `json:"-"`
	InputHash    string `json:"input_hash"`
	Output       string `json:"-"`
	OutputHash   string `json:"output_hash"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// BeginRun records a new run and returns it.
// config is the canonical JSON of the configuration the run expands under.
func (s *Store) BeginRun(ctx context.Context, gen RunIDGenerator, config []byte, toolVersion string) (Run, error) {
	run := Run{
		ID:          gen.Generate(),
		Seq:         s.clock.Next(),
		Config:      string(config),
		ConfigHash:  ConfigHash(config),
		ToolVersion: toolVersion,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, config, config_hash, tool_version)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Seq, run.Config, run.ConfigHash, run.ToolVersion)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}

	return run, nil
}

// RecordExpansion stamps rec with the next seq, computes its hashes and ID
// and inserts it. The returned record carries the filled-in fields.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the same
// declaration twice in one run keeps the first row.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) RecordExpansion(ctx context.Context, rec Record) (Record, error) {
	rec.Seq = s.clock.Next()
	rec.InputHash = InputHash(rec.Input)
	rec.OutputHash = OutputHash(rec.Output)
	rec.ID = ExpansionID(rec.RunID, rec.File, rec.Macro, rec.Line, rec.InputHash)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expansions
		(id, run_id, seq, file, lang, decl, macro, line, input, input_hash, output, output_hash, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RunID,
		rec.Seq,
		rec.File,
		rec.Lang,
		rec.Decl,
		rec.Macro,
		rec.Line,
		rec.Input,
		rec.InputHash,
		rec.Output,
		rec.OutputHash,
		rec.ErrorCode,
		rec.ErrorMessage,
	)
	if err != nil {
		return Record{}, fmt.Errorf("record expansion: %w", err)
	}

	return rec, nil
}
