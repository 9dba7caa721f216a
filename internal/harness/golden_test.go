package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"is_over", "item_struct"} {
		t.Run(name, func(t *testing.T) {
			c, err := LoadCase("testdata/cases/" + name + ".yaml")
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, c))
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	c, err := LoadCase("testdata/cases/is_over.yaml")
	require.NoError(t, err)

	result, err := Run(c)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	require.NoError(t, AssertGolden(t, "is_over", result))
}
