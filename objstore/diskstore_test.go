// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/merge3/internal/cid"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

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

	commitID, err := s.AddCommit(ctx, &Commit{Tree: treeID, Time: time.Unix(1000, 0)})
	require.NoError(t, err)

	commit, err := s.GetCommit(ctx, commitID)
	require.NoError(t, err)
	require.Equal(t, treeID, commit.Tree)
	require.Empty(t, commit.Parents)
}

func TestDiskStoreWriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	id1, err := s.AddBlob(ctx, []byte("same content\n"))
	require.NoError(t, err)
	id2, err := s.AddBlob(ctx, []byte("same content\n"))
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	got, err := s.GetBlob(ctx, id1)
	require.NoError(t, err)
	require.Equal(t, "same content\n", string(got))
}

func TestDiskStoreNoSuchObject(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetBlob(ctx, cid.Sum([]byte("missing")))
	require.Error(t, err)
	require.True(t, IsNoSuchObject(err))
}

func TestDiskStoreChangesBetween(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	blobA, err := s.AddBlob(ctx, []byte("a\n"))
	require.NoError(t, err)
	blobB, err := s.AddBlob(ctx, []byte("b\n"))
	require.NoError(t, err)

	base, err := s.AddTree(ctx, []TreeEntry{{Path: "same.txt", Mode: ModeFile, ID: blobA}})
	require.NoError(t, err)
	other, err := s.AddTree(ctx, []TreeEntry{
		{Path: "same.txt", Mode: ModeFile, ID: blobA},
		{Path: "added.txt", Mode: ModeFile, ID: blobB},
	})
	require.NoError(t, err)

	changes, err := s.ChangesBetween(ctx, base, other)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "added.txt", changes[0].Path())
	require.Equal(t, Add, changes[0].Kind)
}
