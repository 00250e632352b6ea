// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package objstore defines the data model and storage interface the merge
// core requires from its backing object store: blobs, trees and commits
// addressed by content identifier, plus the change-detection primitive the
// tree merger drives its case analysis from. Physical formats (loose
// objects, packfiles, compression) are a concern of the concrete store
// implementations in this package, not of the interface itself.
package objstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/antgroup/merge3/internal/cid"
)

// FileMode mirrors the narrow set of Unix file modes the merge core
// distinguishes; it never interprets the full permission bitmask.
type FileMode uint32

const (
	ModeFile       FileMode = 0o100644
	ModeExecutable FileMode = 0o100755
	ModeSymlink    FileMode = 0o120000
	ModeDir        FileMode = 0o040000
)

func (m FileMode) IsDir() bool { return m == ModeDir }

func (m FileMode) String() string {
	return fmt.Sprintf("%06o", uint32(m))
}

// TreeEntry is the ⟨path, mode, CID⟩ triple from §3 of the data model.
type TreeEntry struct {
	Path string
	Mode FileMode
	ID   cid.ID
}

// Tree is an immutable, path-unique set of entries. Entries are kept
// sorted by path so that iteration order is deterministic without the
// caller needing to sort again.
type Tree struct {
	Entries []TreeEntry
}

// NewTree builds a Tree from unordered entries, sorting and de-duplicating
// by path (last write wins, matching a naive overlay semantics).
func NewTree(entries []TreeEntry) *Tree {
	byPath := make(map[string]TreeEntry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}
	sorted := make([]TreeEntry, 0, len(byPath))
	for _, e := range byPath {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return &Tree{Entries: sorted}
}

// Find returns the entry at path, if present.
func (t *Tree) Find(path string) (TreeEntry, bool) {
	// Trees are expected to be small enough per directory level that a
	// linear scan beats maintaining a parallel map; callers that walk many
	// paths build their own index (as treemerge.Merge does with its
	// byOldPath/byNewPath maps).
	for _, e := range t.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return TreeEntry{}, false
}

func (t *Tree) Equal(o *Tree) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if len(t.Entries) != len(o.Entries) {
		return false
	}
	for i, e := range t.Entries {
		if o.Entries[i] != e {
			return false
		}
	}
	return true
}

// Commit is the immutable DAG node the merge-base finder and virtual-base
// synthesizer operate over.
type Commit struct {
	ID         cid.ID
	Tree       cid.ID
	Parents    []cid.ID
	Time       time.Time
	Virtual    bool   // synthesized during recursive base synthesis; never user-visible
	VirtualTag string // nonce distinguishing concurrent synthesis runs
}

// ChangeKind classifies a per-path diff between two trees.
type ChangeKind int8

const (
	Unchanged ChangeKind = iota
	Add
	Copy
	Delete
	Modify
	Rename
)

func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "add"
	case Copy:
		return "copy"
	case Delete:
		return "delete"
	case Modify:
		return "modify"
	case Rename:
		return "rename"
	default:
		return "unchanged"
	}
}

// Change is a single per-path outcome of diffing two trees, per §3.
type Change struct {
	Kind ChangeKind
	Old  *TreeEntry // nil for Add/Copy
	New  *TreeEntry // nil for Delete
}

// Path returns the path a change is indexed by for the purposes of tree
// merging: the new path when present (Add/Copy/Modify/Rename/Unchanged),
// otherwise the old path (Delete).
func (c Change) Path() string {
	if c.New != nil {
		return c.New.Path
	}
	if c.Old != nil {
		return c.Old.Path
	}
	return ""
}

// OldPath returns the path the entry had before the change, or "" if the
// change has no old side (Add/Copy).
func (c Change) OldPath() string {
	if c.Old != nil {
		return c.Old.Path
	}
	return ""
}

// Store is the narrow interface the merge core requires of the object
// store (§6). Implementations are external collaborators: the core never
// assumes a particular physical encoding, compression, or transport.
type Store interface {
	GetBlob(ctx context.Context, id cid.ID) ([]byte, error)
	GetTree(ctx context.Context, id cid.ID) (*Tree, error)
	GetCommit(ctx context.Context, id cid.ID) (*Commit, error)

	AddBlob(ctx context.Context, data []byte) (cid.ID, error)
	AddTree(ctx context.Context, entries []TreeEntry) (cid.ID, error)
	AddCommit(ctx context.Context, c *Commit) (cid.ID, error)

	RemoveObject(ctx context.Context, id cid.ID) error

	// ChangesBetween diffs two trees (either may be the zero ID, meaning
	// "empty tree") and returns one Change per affected path, recursively
	// across subdirectories, sorted by path.
	ChangesBetween(ctx context.Context, a, b cid.ID) ([]Change, error)
}

// EmptyTreeID is the CID of the canonical empty tree, computed once and
// reused so every store agrees on its identity without a round trip.
var EmptyTreeID = cid.Sum([]byte("tree\x00"))

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
