package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const isOverCase = `name: is_over
description: "Prior statements are replayed"
style: compact
input: |
  @PredicateHelper static func isOver(beforeDate: Date) -> Predicate<Item> { let distantPast = Date.distantPast; return #Predicate<Item> { item in item.endDate ?? distantPast >= beforeDate } }
expect:
  peers:
    - "func isOver(beforeDate: Date) -> Bool { let distantPast = Date.distantPast; let decider: (Item) -> Bool = { item in item.endDate ?? distantPast >= beforeDate }; return decider(self) }"
`

const wrongPeerCase = `name: wrong_peer
description: "Expectation that does not hold"
style: compact
input: |
  @PredicateHelper static func hasEnded() -> Predicate<Item> { return #Predicate<Item> { $0.endDate != nil } }
expect:
  peers:
    - "func hasEnded() -> Bool { return true }"
`

const noPredicateCase = `name: no_predicate
description: "Rejected final statement"
input: |
  @PredicateHelper
  static func broken() -> Predicate<Item> {
      return someOtherThing()
  }
expect:
  error:
    code: E202
`

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(newTestOptions("text"))
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentCasesDir(t *testing.T) {
	cmd := NewTestCommand(newTestOptions("text"))
	_, _, err := execute(cmd, "/nonexistent/cases")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cases directory not found")
}

func TestTestCommandEmptyCasesDir(t *testing.T) {
	cmd := NewTestCommand(newTestOptions("text"))
	out, _, err := execute(cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No cases found.")
}

func TestTestCommandEmptyCasesDirJSON(t *testing.T) {
	cmd := NewTestCommand(newTestOptions("json"))
	out, _, err := execute(cmd, t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Cases)
}

func TestTestCommandRunsCases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "is_over.yaml", isOverCase)
	writeFile(t, dir, "errors/no_predicate.yaml", noPredicateCase)

	cmd := NewTestCommand(newTestOptions("text"))
	out, _, err := execute(cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ is_over")
	assert.Contains(t, out, "✓ no_predicate")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All cases passed")
}

func TestTestCommandFailingCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "is_over.yaml", isOverCase)
	writeFile(t, dir, "wrong_peer.yaml", wrongPeerCase)

	cmd := NewTestCommand(newTestOptions("json"))
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)

	for _, c := range result.Cases {
		if c.Name == "wrong_peer" {
			assert.False(t, c.Pass)
			assert.NotEmpty(t, c.Errors)
		}
	}
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "is_over.yaml", isOverCase)
	writeFile(t, dir, "wrong_peer.yaml", wrongPeerCase)

	cmd := NewTestCommand(newTestOptions("text"))
	out, _, err := execute(cmd, dir, "--filter", "is_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: bad\n")

	cmd := NewTestCommand(newTestOptions("text"))
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load case")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "is_over.yaml", isOverCase)
	goldenPath := filepath.Join(dir, "golden", "is_over.golden")

	// --update writes the expanded output
	cmd := NewTestCommand(newTestOptions("text"))
	out, _, err := execute(cmd, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ is_over (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "return decider(self) }")

	// a matching golden passes
	cmd = NewTestCommand(newTestOptions("text"))
	_, _, err = execute(cmd, dir)
	require.NoError(t, err)

	// a stale golden fails
	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0644))
	cmd = NewTestCommand(newTestOptions("text"))
	out, _, err = execute(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, out, "output does not match golden file")
}

func TestTestHelpText(t *testing.T) {
	cmd := NewTestCommand(newTestOptions("text"))
	out, _, err := execute(cmd, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Run YAML conformance cases")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "--update")
}

func TestFindCaseFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "")
	writeFile(t, dir, "b.yml", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := findCaseFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindCaseFilesWithFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go_factory.yaml", "")
	writeFile(t, dir, "go_alias.yaml", "")
	writeFile(t, dir, "is_over.yaml", "")

	files, err := findCaseFiles(dir, "go_*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findCaseFiles(dir, "[")
	assert.Error(t, err)
}

func TestFindCaseFilesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.yaml", "")
	writeFile(t, dir, "nested/deep/inner.yaml", "")

	files, err := findCaseFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	tests := []struct {
		caseFile string
		want     string
	}{
		{"cases/is_over.yaml", filepath.Join("cases", "golden", "is_over.golden")},
		{"cases/go/factory.yml", filepath.Join("cases", "go", "golden", "factory.golden")},
	}

	for _, tt := range tests {
		t.Run(tt.caseFile, func(t *testing.T) {
			assert.Equal(t, tt.want, goldenFilePath(tt.caseFile))
		})
	}
}
