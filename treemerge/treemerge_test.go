package treemerge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/merge3/diff"
	"github.com/antgroup/merge3/diff3"
	"github.com/antgroup/merge3/objstore"
)

func TestMergeModifyBothSidesProducesChunkConflict(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemStore()

	baseBlob, err := store.AddBlob(ctx, []byte("celery\ngarlic\nonions\nsalmon\ntomatoes\nwine\n"))
	require.NoError(t, err)
	aBlob, err := store.AddBlob(ctx, []byte("celery\nsalmon\ntomatoes\ngarlic\nonions\nwine\n"))
	require.NoError(t, err)
	bBlob, err := store.AddBlob(ctx, []byte("celery\nsalmon\ngarlic\nonions\ntomatoes\nwine\n"))
	require.NoError(t, err)

	baseTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "list.txt", Mode: objstore.ModeFile, ID: baseBlob}})
	require.NoError(t, err)
	aTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "list.txt", Mode: objstore.ModeFile, ID: aBlob}})
	require.NoError(t, err)
	bTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "list.txt", Mode: objstore.ModeFile, ID: bBlob}})
	require.NoError(t, err)

	res, err := Merge(ctx, store, baseTree, aTree, bTree, Options{Algorithm: diff.Myers, Strategy: diff3.StrategyOrt})
	require.NoError(t, err)
	require.True(t, res.Ok())
	require.Len(t, res.Chunks, 1)
	require.Equal(t, "list.txt", res.Chunks[0].Path)
	require.Contains(t, res.Entries, "list.txt")
}

func TestReconcileModeAgreesOnOthersModeDespiteBaseMismatch(t *testing.T) {
	// base is a regular file; both sides independently chmod +x, and also
	// edit the content differently. §4.5: A's mode matches other's, so the
	// merge uses other's mode rather than reporting it unsupported.
	base := &objstore.TreeEntry{Mode: objstore.ModeFile}
	a := &objstore.TreeEntry{Mode: objstore.ModeExecutable}
	b := &objstore.TreeEntry{Mode: objstore.ModeExecutable}

	mode, unsupported := reconcileMode(base, a, b)
	require.False(t, unsupported)
	require.Equal(t, objstore.ModeExecutable, mode)
}

func TestReconcileModeUnsupportedWhenAllThreeDisagree(t *testing.T) {
	base := &objstore.TreeEntry{Mode: objstore.ModeFile}
	a := &objstore.TreeEntry{Mode: objstore.ModeExecutable}
	b := &objstore.TreeEntry{Mode: objstore.ModeSymlink}

	_, unsupported := reconcileMode(base, a, b)
	require.True(t, unsupported)
}

func TestMergeAddAddDifferentContentIsStructuralConflict(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemStore()

	baseTree, err := store.AddTree(ctx, nil)
	require.NoError(t, err)

	blobA, err := store.AddBlob(ctx, []byte("a"))
	require.NoError(t, err)
	blobB, err := store.AddBlob(ctx, []byte("b"))
	require.NoError(t, err)

	aTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "new.txt", Mode: objstore.ModeFile, ID: blobA}})
	require.NoError(t, err)
	bTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "new.txt", Mode: objstore.ModeFile, ID: blobB}})
	require.NoError(t, err)

	res, err := Merge(ctx, store, baseTree, aTree, bTree, Options{Strategy: diff3.StrategyOrt})
	require.NoError(t, err)
	require.False(t, res.Ok())
	require.Len(t, res.Structural, 1)
	require.Equal(t, ConflictBothAdded, res.Structural[0].Kind)
}

func TestMergeDeleteUnchangedIsClean(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemStore()

	blob, err := store.AddBlob(ctx, []byte("x"))
	require.NoError(t, err)
	baseTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blob}})
	require.NoError(t, err)
	aTree := baseTree // unchanged on A
	bTree, err := store.AddTree(ctx, nil)
	require.NoError(t, err)

	res, err := Merge(ctx, store, baseTree, aTree, bTree, Options{Strategy: diff3.StrategyOrt})
	require.NoError(t, err)
	require.True(t, res.Ok())
	entry, ok := res.Entries["f.txt"]
	require.True(t, ok)
	require.Nil(t, entry)
}

func TestMergeModifyDeleteIsStructuralConflict(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemStore()

	blob, err := store.AddBlob(ctx, []byte("x\n"))
	require.NoError(t, err)
	blobModified, err := store.AddBlob(ctx, []byte("y\n"))
	require.NoError(t, err)

	baseTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blob}})
	require.NoError(t, err)
	aTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.txt", Mode: objstore.ModeFile, ID: blobModified}})
	require.NoError(t, err)
	bTree, err := store.AddTree(ctx, nil)
	require.NoError(t, err)

	res, err := Merge(ctx, store, baseTree, aTree, bTree, Options{Strategy: diff3.StrategyOrt})
	require.NoError(t, err)
	require.False(t, res.Ok())
	require.Equal(t, ConflictModifyDelete, res.Structural[0].Kind)
}

func TestMergeUnknownStrategyIsRejected(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemStore()
	baseTree, err := store.AddTree(ctx, nil)
	require.NoError(t, err)

	res, err := Merge(ctx, store, baseTree, baseTree, baseTree, Options{Strategy: diff3.StrategyInvalid})
	require.NoError(t, err)
	require.False(t, res.Ok())
	require.Equal(t, ConflictUnknownStrategy, res.Structural[0].Kind)
}

func TestMergeBinaryUnsupported(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemStore()

	baseBlob, err := store.AddBlob(ctx, []byte("a\n"))
	require.NoError(t, err)
	aBlob, err := store.AddBlob(ctx, append([]byte{0x00, 0x01}, "binary-a"...))
	require.NoError(t, err)
	bBlob, err := store.AddBlob(ctx, append([]byte{0x00, 0x02}, "binary-b"...))
	require.NoError(t, err)

	baseTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.bin", Mode: objstore.ModeFile, ID: baseBlob}})
	require.NoError(t, err)
	aTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.bin", Mode: objstore.ModeFile, ID: aBlob}})
	require.NoError(t, err)
	bTree, err := store.AddTree(ctx, []objstore.TreeEntry{{Path: "f.bin", Mode: objstore.ModeFile, ID: bBlob}})
	require.NoError(t, err)

	res, err := Merge(ctx, store, baseTree, aTree, bTree, Options{Strategy: diff3.StrategyOrt})
	require.NoError(t, err)
	require.False(t, res.Ok())
	require.Equal(t, ConflictBinaryUnsupported, res.Structural[0].Kind)
}
