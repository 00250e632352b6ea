package diff3

import (
	"testing"

	"github.com/antgroup/merge3/diff"
	"github.com/stretchr/testify/require"
)

func TestMergeTextGroceryListMyers(t *testing.T) {
	o := "celery\ngarlic\nonions\nsalmon\ntomatoes\nwine\n"
	a := "celery\nsalmon\ntomatoes\ngarlic\nonions\nwine\n"
	b := "celery\nsalmon\ngarlic\nonions\ntomatoes\nwine\n"

	res := MergeText(o, a, b, Options{Algorithm: diff.Myers, Strategy: StrategyOrt})

	require.True(t, res.HasConflicts())
	require.Len(t, res.Conflicts, 1)
	require.Equal(t, ConflictRange{
		O: Range{Lo: 1, Hi: 4},
		A: Range{Lo: 1, Hi: 2},
		B: Range{Lo: 1, Hi: 4},
	}, res.Conflicts[0])

	want := "celery\n" +
		"<<<<<<<<< alice\n" +
		"salmon\n" +
		"||||||||| ancestor\n" +
		"garlic\nonions\nsalmon\n" +
		"========= \n" +
		"salmon\ngarlic\nonions\n" +
		">>>>>>>>> bob\n" +
		"tomatoes\ngarlic\nonions\nwine\n"
	require.Equal(t, want, res.Text)
}

func TestMergeTextNoConflictWhenOneSideUnchanged(t *testing.T) {
	o := "a\nb\nc\n"
	a := "a\nb\nc\n"
	b := "a\nx\nc\n"
	res := MergeText(o, a, b, Options{Algorithm: diff.Histogram, Strategy: StrategyOrt})
	require.False(t, res.HasConflicts())
	require.Equal(t, "a\nx\nc\n", res.Text)
}

func TestMergeTextIdenticalChangeIsNotAConflict(t *testing.T) {
	o := "a\nb\nc\n"
	a := "a\nz\nc\n"
	b := "a\nz\nc\n"
	res := MergeText(o, a, b, Options{Algorithm: diff.Histogram, Strategy: StrategyOrt})
	require.False(t, res.HasConflicts())
	require.Equal(t, "a\nz\nc\n", res.Text)
}

func TestMergeTextOrtOursResolvesWithoutMarkup(t *testing.T) {
	o := "a\nb\nc\n"
	a := "a\nX\nc\n"
	b := "a\nY\nc\n"
	res := MergeText(o, a, b, Options{Algorithm: diff.Histogram, Strategy: StrategyOrtOurs})
	require.False(t, res.HasConflicts())
	require.Equal(t, "a\nX\nc\n", res.Text)
}

func TestMergeTextOrtTheirsResolvesWithoutMarkup(t *testing.T) {
	o := "a\nb\nc\n"
	a := "a\nX\nc\n"
	b := "a\nY\nc\n"
	res := MergeText(o, a, b, Options{Algorithm: diff.Histogram, Strategy: StrategyOrtTheirs})
	require.False(t, res.HasConflicts())
	require.Equal(t, "a\nY\nc\n", res.Text)
}

func TestMergeTextMissingTrailingNewlinePreserved(t *testing.T) {
	o := "a\nb\n"
	a := "a\nb"
	b := "a\nb\n"
	res := MergeText(o, a, b, Options{Algorithm: diff.Myers, Strategy: StrategyOrt})
	require.False(t, res.HasConflicts())
	require.Equal(t, "a\nb", res.Text)
}

func TestMergeTextCustomLabels(t *testing.T) {
	o := "a\n"
	a := "X\n"
	b := "Y\n"
	res := MergeText(o, a, b, Options{
		Algorithm: diff.Myers,
		Strategy:  StrategyOrt,
		Labels:    Labels{Base: "base", A: "mine", B: "theirs"},
	})
	require.True(t, res.HasConflicts())
	require.Contains(t, res.Text, "<<<<<<<<< mine\n")
	require.Contains(t, res.Text, "||||||||| base\n")
	require.Contains(t, res.Text, ">>>>>>>>> theirs\n")
}

func TestMergeTextMinimalStyleHidesBase(t *testing.T) {
	o := "a\n"
	a := "X\n"
	b := "Y\n"
	res := MergeText(o, a, b, Options{Algorithm: diff.Myers, Strategy: StrategyOrt, Style: StyleMinimal})
	require.True(t, res.HasConflicts())
	require.NotContains(t, res.Text, "ancestor")
	require.Contains(t, res.Text, "<<<<<<<<< alice\nX\n========= \nY\n>>>>>>>>> bob\n")
}
