package objstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/merge3/internal/cid"
)

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	blobID, err := s.AddBlob(ctx, []byte("celery\n"))
	require.NoError(t, err)

	treeID, err := s.AddTree(ctx, []TreeEntry{{Path: "celery.txt", Mode: ModeFile, ID: blobID}})
	require.NoError(t, err)

	tree, err := s.GetTree(ctx, treeID)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)
	require.Equal(t, "celery.txt", tree.Entries[0].Path)

	got, err := s.GetBlob(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, "celery\n", string(got))
}

func TestMemStoreNoSuchObject(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, err := s.GetBlob(ctx, cid.Sum([]byte("missing")))
	require.Error(t, err)
	require.True(t, IsNoSuchObject(err))
}

func TestChangesBetweenFlat(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	blobA, _ := s.AddBlob(ctx, []byte("a\n"))
	blobB, _ := s.AddBlob(ctx, []byte("b\n"))

	base, err := s.AddTree(ctx, []TreeEntry{
		{Path: "same.txt", Mode: ModeFile, ID: blobA},
		{Path: "removed.txt", Mode: ModeFile, ID: blobA},
	})
	require.NoError(t, err)

	other, err := s.AddTree(ctx, []TreeEntry{
		{Path: "same.txt", Mode: ModeFile, ID: blobA},
		{Path: "added.txt", Mode: ModeFile, ID: blobB},
	})
	require.NoError(t, err)

	changes, err := s.ChangesBetween(ctx, base, other)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	byPath := map[string]Change{}
	for _, c := range changes {
		byPath[c.Path()] = c
	}
	require.Equal(t, Add, byPath["added.txt"].Kind)
	require.Equal(t, Delete, byPath["removed.txt"].Kind)
}

func TestChangesBetweenNestedDirectory(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	blob, _ := s.AddBlob(ctx, []byte("x\n"))
	sub, err := s.AddTree(ctx, []TreeEntry{{Path: "a.txt", Mode: ModeFile, ID: blob}})
	require.NoError(t, err)

	root, err := s.AddTree(ctx, []TreeEntry{{Path: "dir", Mode: ModeDir, ID: sub}})
	require.NoError(t, err)

	changes, err := s.ChangesBetween(ctx, EmptyTreeID, root)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "dir/a.txt", changes[0].Path())
	require.Equal(t, Add, changes[0].Kind)
}
