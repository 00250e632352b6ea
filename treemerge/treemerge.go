// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package treemerge implements the Tree Merger: diff-of-diffs case
// analysis over two trees' changes relative to a common base, delegating
// same-file conflicts to the Diff3 Merger and reporting anything that
// can't be resolved by content merge alone as a structural conflict.
// Adapted from the teacher's ChangeEntry/Conflict case analysis in
// pkg/zeta/odb/merge.go, generalized from the teacher's path-rename-aware
// tree diff onto the simpler add/delete/modify/rename change model this
// core's object store produces (rename *detection* is out of scope; a
// Rename change here is exactly what the object store already reports).
package treemerge

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/antgroup/merge3/diff"
	"github.com/antgroup/merge3/diff3"
	"github.com/antgroup/merge3/internal/cid"
	"github.com/antgroup/merge3/objstore"
)

// ConflictKind names a structural (non-text) conflict category.
type ConflictKind string

const (
	ConflictBothAdded         ConflictKind = "both-added"
	ConflictModifyDelete      ConflictKind = "modify-delete"
	ConflictRenameRename      ConflictKind = "rename-rename"
	ConflictRenameDelete      ConflictKind = "rename-delete"
	ConflictBinaryUnsupported ConflictKind = "binary-merge-unsupported"
	ConflictModeUnsupported   ConflictKind = "mode-three-way-unsupported"
	ConflictUnknownStrategy   ConflictKind = "unknown-strategy"
)

// StructuralConflict reports a path the tree merger could not resolve into
// a single entry.
type StructuralConflict struct {
	Path string
	Kind ConflictKind
}

func (c StructuralConflict) String() string {
	return fmt.Sprintf("CONFLICT (%s): %s", c.Kind, c.Path)
}

// ChunkConflict reports a path whose content merged with inline diff3
// markup rather than cleanly.
type ChunkConflict struct {
	Path   string
	Ranges []diff3.ConflictRange
}

// Options configures a tree merge.
type Options struct {
	Algorithm diff.Algorithm
	Strategy  diff3.Strategy
	Style     diff3.Style
	Labels    diff3.Labels
	// BinaryThreshold bounds how many leading bytes are scanned for a NUL
	// byte when classifying a blob as binary (§4.5). Zero means 8 KiB.
	BinaryThreshold int
}

func (o Options) threshold() int {
	if o.BinaryThreshold > 0 {
		return o.BinaryThreshold
	}
	return 8 * 1024
}

// Result is the outcome of merging two trees against a base.
type Result struct {
	// Entries holds every path whose value changed relative to `this`
	// (§4.5's "updated entries" to overlay onto this_tree). A nil Entry
	// at a path means the path is deleted.
	Entries    map[string]*objstore.TreeEntry
	Structural []StructuralConflict
	Chunks     []ChunkConflict
}

// Ok reports whether the merge produced no structural conflicts — i.e.
// Entries can be safely overlaid onto `this` to form the final tree
// (§4.5 step 5 / §4.6 step 5).
func (r Result) Ok() bool { return len(r.Structural) == 0 }

// sink serializes writes into a Result from the concurrent per-path
// workers Merge fans out, the way the teacher guards a shared OStats
// accumulator across its errgroup workers in pkg/serve/odb/unpack.go.
type sink struct {
	mu  sync.Mutex
	res *Result
}

func (s *sink) setEntry(path string, entry *objstore.TreeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.res.Entries[path] = entry
}

func (s *sink) addStructural(c StructuralConflict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.res.Structural = append(s.res.Structural, c)
}

func (s *sink) addChunk(c ChunkConflict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.res.Chunks = append(s.res.Chunks, c)
}

// Merge implements §4.5's contract: compute Δ_A = changes(base, this),
// Δ_B = changes(base, other), and case-analyze Δ_B against Δ_A by path.
func Merge(ctx context.Context, store objstore.Store, baseTree, thisTree, otherTree cid.ID, opts Options) (*Result, error) {
	if !diff3.ValidStrategy(opts.Strategy) {
		return &Result{Structural: []StructuralConflict{{Kind: ConflictUnknownStrategy}}}, nil
	}

	deltaA, err := store.ChangesBetween(ctx, baseTree, thisTree)
	if err != nil {
		return nil, err
	}
	deltaB, err := store.ChangesBetween(ctx, baseTree, otherTree)
	if err != nil {
		return nil, err
	}

	byOldPath := make(map[string]objstore.Change, len(deltaA))
	byNewPath := make(map[string]objstore.Change, len(deltaA))
	for _, c := range deltaA {
		if c.Old != nil {
			byOldPath[c.Old.Path] = c
		}
		if c.New != nil {
			byNewPath[c.New.Path] = c
		}
	}

	res := &Result{Entries: make(map[string]*objstore.TreeEntry)}
	s := &sink{res: res}

	// Each path's case analysis (and any file-level delegation it triggers)
	// is independent of every other path, so they run concurrently; the
	// sink above serializes the handful of map/slice writes back into res.
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range deltaB {
		b := b
		g.Go(func() error {
			return mergeOne(gctx, store, b, byOldPath, byNewPath, opts, s)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(res.Structural, func(i, j int) bool { return res.Structural[i].Path < res.Structural[j].Path })
	sort.Slice(res.Chunks, func(i, j int) bool { return res.Chunks[i].Path < res.Chunks[j].Path })
	return res, nil
}

func mergeOne(ctx context.Context, store objstore.Store, b objstore.Change, byOldPath, byNewPath map[string]objstore.Change, opts Options, res *sink) error {
	switch b.Kind {
	case objstore.Add, objstore.Copy:
		newPath := b.New.Path
		a, ok := byNewPath[newPath]
		switch {
		case !ok:
			res.setEntry(newPath, b.New)
		case ok && a.New != nil && a.New.ID == b.New.ID && a.New.Mode == b.New.Mode:
			// identical add on both sides: nothing to do
		case ok && a.New != nil:
			res.addStructural(StructuralConflict{Path: newPath, Kind: ConflictBothAdded})
		default:
			res.setEntry(newPath, b.New)
		}

	case objstore.Delete:
		oldPath := b.Old.Path
		a, hasA := byOldPath[oldPath]
		if !hasA || a.Kind == objstore.Delete {
			res.setEntry(oldPath, nil)
			return nil
		}
		res.addStructural(StructuralConflict{Path: oldPath, Kind: ConflictModifyDelete})

	case objstore.Rename:
		oldPath := b.Old.Path
		a, hasA := byOldPath[oldPath]
		switch {
		case !hasA:
			res.setEntry(oldPath, nil)
			res.setEntry(b.New.Path, b.New)
		case a.Kind == objstore.Rename && a.New.Path == b.New.Path:
			return delegateFileMerge(ctx, store, b.New.Path, b.Old, a.New, b.New, opts, res)
		case a.Kind == objstore.Rename:
			res.addStructural(StructuralConflict{Path: b.New.Path, Kind: ConflictRenameRename})
		case a.Kind == objstore.Modify:
			return delegateFileMerge(ctx, store, b.New.Path, b.Old, a.New, b.New, opts, res)
		case a.Kind == objstore.Delete:
			res.addStructural(StructuralConflict{Path: oldPath, Kind: ConflictRenameDelete})
		default:
			res.setEntry(oldPath, nil)
			res.setEntry(b.New.Path, b.New)
		}

	case objstore.Modify:
		path := b.New.Path
		a, hasA := byNewPath[path]
		if !hasA {
			// A deletion on this side has no new path; look it up by old path.
			if d, ok := byOldPath[path]; ok && d.Kind == objstore.Delete {
				a, hasA = d, true
			}
		}
		if !hasA {
			res.setEntry(path, b.New)
			return nil
		}
		switch a.Kind {
		case objstore.Delete:
			res.addStructural(StructuralConflict{Path: path, Kind: ConflictModifyDelete})
		case objstore.Modify, objstore.Rename:
			return delegateFileMerge(ctx, store, path, b.Old, a.New, b.New, opts, res)
		default:
			res.setEntry(path, b.New)
		}
	}
	return nil
}

// delegateFileMerge implements §4.5's "File-level delegation" and "Mode
// reconciliation": base is the base-tree entry (may be nil, e.g. an
// add/add rename case never reaches here since that's handled above), a
// and b are this/other's resulting entries at the merge target path.
func delegateFileMerge(ctx context.Context, store objstore.Store, path string, base, a, b *objstore.TreeEntry, opts Options, res *sink) error {
	if a.ID == b.ID {
		res.setEntry(path, a)
		return nil
	}

	mode, unsupported := reconcileMode(base, a, b)
	if unsupported {
		res.addStructural(StructuralConflict{Path: path, Kind: ConflictModeUnsupported})
		return nil
	}

	baseBytes, aBytes, bBytes, err := readThree(ctx, store, base, a, b)
	if err != nil {
		return err
	}

	if isBinary(aBytes, opts.threshold()) || isBinary(bBytes, opts.threshold()) || isBinary(baseBytes, opts.threshold()) {
		switch opts.Strategy.Favor() {
		case 1:
			res.setEntry(path, &objstore.TreeEntry{Path: path, Mode: mode, ID: a.ID})
		case -1:
			res.setEntry(path, &objstore.TreeEntry{Path: path, Mode: mode, ID: b.ID})
		default:
			res.addStructural(StructuralConflict{Path: path, Kind: ConflictBinaryUnsupported})
		}
		return nil
	}

	merged := diff3.MergeText(string(baseBytes), string(aBytes), string(bBytes), diff3.Options{
		Algorithm: opts.Algorithm,
		Strategy:  opts.Strategy,
		Style:     opts.Style,
		Labels:    opts.Labels,
	})

	newID, err := store.AddBlob(ctx, []byte(merged.Text))
	if err != nil {
		return err
	}
	res.setEntry(path, &objstore.TreeEntry{Path: path, Mode: mode, ID: newID})
	if merged.HasConflicts() {
		res.addChunk(ChunkConflict{Path: path, Ranges: merged.Conflicts})
	}
	return nil
}

func readThree(ctx context.Context, store objstore.Store, base, a, b *objstore.TreeEntry) (baseBytes, aBytes, bBytes []byte, err error) {
	if base != nil {
		if baseBytes, err = store.GetBlob(ctx, base.ID); err != nil {
			return nil, nil, nil, err
		}
	}
	if aBytes, err = store.GetBlob(ctx, a.ID); err != nil {
		return nil, nil, nil, err
	}
	if bBytes, err = store.GetBlob(ctx, b.ID); err != nil {
		return nil, nil, nil, err
	}
	return baseBytes, aBytes, bBytes, nil
}

// reconcileMode implements §4.5's mode-reconciliation rule: "if A's mode
// matches base's or other's, use other's mode; else if base's mode equals
// other's, use A's; else report unsupported."
func reconcileMode(base, a, b *objstore.TreeEntry) (objstore.FileMode, bool) {
	var baseMode objstore.FileMode
	if base != nil {
		baseMode = base.Mode
	}
	switch {
	case base == nil:
		if a.Mode == b.Mode {
			return a.Mode, false
		}
		return a.Mode, true
	case a.Mode == baseMode || a.Mode == b.Mode:
		return b.Mode, false
	case baseMode == b.Mode:
		return a.Mode, false
	default:
		return a.Mode, true
	}
}

// isBinary applies §6's NUL-byte heuristic over the first n bytes.
func isBinary(data []byte, n int) bool {
	if len(data) < n {
		n = len(data)
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}
