package store

import (
	"context"
	"fmt"
)

// Regenerated is the outcome of expanding a recorded input again.
type Regenerated struct {
	Output    string
	ErrorCode string
}

// RegenerateFunc expands a recorded input again under the run's config.
type RegenerateFunc func(ctx context.Context, run Run, rec Record) (Regenerated, error)

// Mismatch describes a recorded expansion whose regeneration differs.
type Mismatch struct {
	Seq   int64  `json:"seq"`
	File  string `json:"file"`
	Decl  string `json:"decl"`
	Macro string `json:"macro"`
	Field string `json:"field"` // "output" or "error_code"
	Want  string `json:"want"`
	Got   string `json:"got"`
}

// RunReplay is the replay outcome of one run.
type RunReplay struct {
	RunID      string     `json:"run_id"`
	Checked    int        `json:"checked"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Deterministic reports whether every expansion regenerated identically.
func (r RunReplay) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// Replay regenerates every expansion of a run in seq order and compares the
// output hash and error code with what was recorded.
func (s *Store) Replay(ctx context.Context, runID string, regen RegenerateFunc) (RunReplay, error) {
	report := RunReplay{RunID: runID}

	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	records, err := s.ReadExpansions(ctx, runID)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		got, err := regen(ctx, run, rec)
		if err != nil {
			return report, fmt.Errorf("replay %s:%d (%s): %w", rec.File, rec.Line, rec.Decl, err)
		}
		report.Checked++

		if hash := OutputHash(got.Output); hash != rec.OutputHash {
			report.Mismatches = append(report.Mismatches, mismatch(rec, "output", rec.Output, got.Output))
		}
		if got.ErrorCode != rec.ErrorCode {
			report.Mismatches = append(report.Mismatches, mismatch(rec, "error_code", rec.ErrorCode, got.ErrorCode))
		}
	}

	return report, nil
}

func mismatch(rec Record, field, want, got string) Mismatch {
	return Mismatch{
		Seq:   rec.Seq,
		File:  rec.File,
		Decl:  rec.Decl,
		Macro: rec.Macro,
		Field: field,
		Want:  want,
		Got:   got,
	}
}
