package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var groceryBase = []string{"celery", "garlic", "onions", "salmon", "tomatoes", "wine"}
var groceryA = []string{"celery", "salmon", "tomatoes", "garlic", "onions", "wine"}

func TestBuildCorrespondenceMonotonic(t *testing.T) {
	for _, algo := range []Algorithm{Myers, Histogram, Patience} {
		c := BuildCorrespondence(groceryBase, groceryA, algo)
		last := 0
		for _, k := range c.Keys() {
			v, ok := c.Get(k)
			require.True(t, ok)
			require.Greater(t, v, last, "algorithm %s must be strictly increasing", algo)
			require.Equal(t, groceryBase[k-1], groceryA[v-1])
			last = v
		}
	}
}

func TestEmptyInputsYieldEmptyCorrespondence(t *testing.T) {
	for _, algo := range []Algorithm{Myers, Histogram, Patience} {
		c := BuildCorrespondence([]string{}, []string{}, algo)
		require.Equal(t, 0, c.Len())
	}
}

func TestIdenticalInputsFullyMatch(t *testing.T) {
	for _, algo := range []Algorithm{Myers, Histogram, Patience} {
		c := BuildCorrespondence(groceryBase, groceryBase, algo)
		require.Equal(t, len(groceryBase), c.Len())
		for i := 1; i <= len(groceryBase); i++ {
			v, ok := c.Get(i)
			require.True(t, ok)
			require.Equal(t, i, v)
		}
	}
}

func TestNextStable(t *testing.T) {
	c := BuildCorrespondence(groceryBase, groceryA, Histogram)
	first := c.Keys()[0]
	next, ok := c.NextStable(0)
	require.True(t, ok)
	require.Equal(t, first, next)
}

func TestParseAlgorithm(t *testing.T) {
	require.Equal(t, Myers, ParseAlgorithm("myers"))
	require.Equal(t, Histogram, ParseAlgorithm("histogram"))
	require.Equal(t, Patience, ParseAlgorithm("ndiff"))
	require.Equal(t, Unspecified, ParseAlgorithm("bogus"))
}

func TestComputeNormalizesUnspecifiedToHistogram(t *testing.T) {
	a := Compute(groceryBase, groceryA, Unspecified)
	b := Compute(groceryBase, groceryA, Histogram)
	require.Equal(t, b, a)
}
