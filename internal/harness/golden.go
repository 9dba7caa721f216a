package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a case and compares the expanded output against a
// golden file. The golden file is stored in testdata/golden/{c.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the case cannot be executed. Expectation failures are
// reported through t; a golden mismatch fails the test via goldie.
func RunWithGolden(t *testing.T, c *Case) error {
	t.Helper()

	result, err := New(nil, nil).Run(context.Background(), c)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Error(e)
	}

	return AssertGolden(t, c.Name, result)
}

// AssertGolden compares an already computed result against the golden file
// named name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Output))

	return nil
}
