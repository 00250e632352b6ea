package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/merge3/diff"
	"github.com/antgroup/merge3/diff3"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, diff.Unspecified, cfg.Algorithm())
	require.Equal(t, diff3.StrategyOrt, cfg.Strategy())
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge3.toml")
	cfg := &Config{
		Diff:  Diff{Algorithm: "histogram"},
		Merge: Merge{Strategy: "ort-ours", Style: "minimal", LabelBase: "base", LabelOurs: "mine", LabelTheirs: "theirs"},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, diff.Histogram, loaded.Algorithm())
	require.Equal(t, diff3.StrategyOrtOurs, loaded.Strategy())
	require.Equal(t, diff3.StyleMinimal, loaded.Style())
	require.Equal(t, diff3.Labels{Base: "base", A: "mine", B: "theirs"}, loaded.Labels())
}

func TestStrategyFallsBackOnUnrecognized(t *testing.T) {
	cfg := &Config{Merge: Merge{Strategy: "bogus"}}
	require.Equal(t, diff3.StrategyOrt, cfg.Strategy())
}

func TestOverwriteLayersNonEmptyFields(t *testing.T) {
	base := &Config{Diff: Diff{Algorithm: "myers"}, Merge: Merge{Strategy: "ort"}}
	local := &Config{Merge: Merge{Strategy: "recursive"}}
	base.Overwrite(local)
	require.Equal(t, "myers", base.Diff.Algorithm)
	require.Equal(t, "recursive", base.Merge.Strategy)
}
