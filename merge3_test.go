package merge3

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/merge3/diff"
	"github.com/antgroup/merge3/diff3"
	"github.com/antgroup/merge3/internal/cid"
	"github.com/antgroup/merge3/objstore"
)

// fixture builds a tiny three-commit graph (base -> this, base -> other)
// in a MemStore and returns a Repository wired to walk it.
type fixture struct {
	store   *objstore.MemStore
	parents map[cid.ID][]cid.ID
	stamps  map[cid.ID]time.Time
}

func newFixture() *fixture {
	return &fixture{
		store:   objstore.NewMemStore(),
		parents: map[cid.ID][]cid.ID{},
		stamps:  map[cid.ID]time.Time{},
	}
}

func (f *fixture) commit(t *testing.T, treeID cid.ID, when int64, parents ...cid.ID) cid.ID {
	ctx := context.Background()
	id, err := f.store.AddCommit(ctx, &objstore.Commit{Tree: treeID, Parents: parents, Time: time.Unix(when, 0)})
	require.NoError(t, err)
	f.parents[id] = parents
	f.stamps[id] = time.Unix(when, 0)
	return id
}

func (f *fixture) repo() Repository {
	return Repository{
		Store:   f.store,
		Parents: func(_ context.Context, id cid.ID) ([]cid.ID, error) { return f.parents[id], nil },
		Stamp:   func(_ context.Context, id cid.ID) (time.Time, error) { return f.stamps[id], nil },
	}
}

func TestMergeCleanFastForwardLikeCase(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	blob, err := f.store.AddBlob(ctx, []byte("hello\n"))
	require.NoError(t, err)
	baseTree, err := f.store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blob}})
	require.NoError(t, err)
	base := f.commit(t, baseTree, 1)

	newBlob, err := f.store.AddBlob(ctx, []byte("hello world\n"))
	require.NoError(t, err)
	thisTree, err := f.store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: newBlob}})
	require.NoError(t, err)
	this := f.commit(t, thisTree, 2, base)

	other := f.commit(t, baseTree, 2, base)

	res, err := Merge(ctx, f.repo(), this, other, Options{Algorithm: diff.Histogram, Strategy: diff3.StrategyOrt})
	require.NoError(t, err)
	require.True(t, res.Ok())
	require.NotEqual(t, cid.ID{}, res.Tree)

	merged, err := f.store.GetTree(ctx, res.Tree)
	require.NoError(t, err)
	entry, ok := merged.Find("f.txt")
	require.True(t, ok)
	require.Equal(t, newBlob, entry.ID)
}

func TestMergeUnrelatedHistoriesRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	treeA, err := f.store.AddTree(ctx, nil)
	require.NoError(t, err)
	treeB, err := f.store.AddTree(ctx, nil)
	require.NoError(t, err)

	this := f.commit(t, treeA, 1)
	other := f.commit(t, treeB, 2)

	_, err = Merge(ctx, f.repo(), this, other, Options{Strategy: diff3.StrategyOrt})
	require.ErrorIs(t, err, ErrUnrelatedHistories)
}

func TestMergeIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	blobBase, err := f.store.AddBlob(ctx, []byte("one\ntwo\nthree\n"))
	require.NoError(t, err)
	baseTree, err := f.store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blobBase}})
	require.NoError(t, err)
	base := f.commit(t, baseTree, 1)

	blobA, err := f.store.AddBlob(ctx, []byte("one\ntwo\nTHREE\n"))
	require.NoError(t, err)
	aTree, err := f.store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blobA}})
	require.NoError(t, err)
	this := f.commit(t, aTree, 2, base)

	blobB, err := f.store.AddBlob(ctx, []byte("ONE\ntwo\nthree\n"))
	require.NoError(t, err)
	bTree, err := f.store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blobB}})
	require.NoError(t, err)
	other := f.commit(t, bTree, 2, base)

	opts := Options{Algorithm: diff.Histogram, Strategy: diff3.StrategyOrt}
	res1, err := Merge(ctx, f.repo(), this, other, opts)
	require.NoError(t, err)
	res2, err := Merge(ctx, f.repo(), this, other, opts)
	require.NoError(t, err)
	require.Equal(t, res1.Tree, res2.Tree)
}
