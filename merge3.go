// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package merge3 is the Merge Orchestrator: the top-level entry point
// tying the merge-base finder, virtual-base synthesizer, and tree merger
// together into a single two-commit merge, adapted from the teacher's
// MergeTree/mergeTree in pkg/zeta/merge_tree.go.
package merge3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antgroup/merge3/diff"
	"github.com/antgroup/merge3/diff3"
	"github.com/antgroup/merge3/internal/cid"
	"github.com/antgroup/merge3/mergebase"
	"github.com/antgroup/merge3/objstore"
	"github.com/antgroup/merge3/treemerge"
	"github.com/antgroup/merge3/virtualbase"
)

// Sentinel errors, named after the teacher's own for the same conditions.
var (
	ErrUnrelatedHistories = errors.New("merge3: refusing to merge unrelated histories")
	ErrHasConflicts       = errors.New("merge3: there are conflicting files")
	ErrNotAncestor        = errors.New("merge3: not an ancestor")
)

// Options configures a top-level merge.
type Options struct {
	Algorithm               diff.Algorithm
	Strategy                diff3.Strategy
	Style                   diff3.Style
	Labels                  diff3.Labels
	AllowUnrelatedHistories bool
}

// Result is what a successful (or conflicted-but-completed) merge
// produces.
type Result struct {
	// Tree is the merged tree's CID. Zero if structural conflicts
	// prevented materializing a tree.
	Tree       cid.ID
	MergeBases []cid.ID
	Structural []treemerge.StructuralConflict
	Chunks     []treemerge.ChunkConflict
}

func (r Result) Ok() bool { return len(r.Structural) == 0 }

// Repository is the minimal commit-graph surface the orchestrator needs
// beyond objstore.Store (blob/tree/commit storage): parent and timestamp
// lookups for merge-base search.
type Repository struct {
	Store   objstore.Store
	Parents mergebase.ParentLookup
	Stamp   mergebase.StampLookup
}

func (r Repository) finder() mergebase.Finder {
	return mergebase.Finder{Parents: r.Parents, Stamp: r.Stamp}
}

// Merge implements §4.6: find the merge base(s) of this and other,
// synthesize a single virtual base when necessary, run the Tree Merger,
// and — if no structural conflicts arose — overlay the result onto
// this's tree to produce the final merged tree.
func Merge(ctx context.Context, repo Repository, this, other cid.ID, opts Options) (*Result, error) {
	if !diff3.ValidStrategy(opts.Strategy) {
		return &Result{Structural: []treemerge.StructuralConflict{{Kind: treemerge.ConflictUnknownStrategy}}}, nil
	}

	finder := repo.finder()
	lcas, err := finder.Find(ctx, this, []cid.ID{other}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("merge3: finding merge base: %w", err)
	}
	if len(lcas) == 0 && !opts.AllowUnrelatedHistories {
		return nil, ErrUnrelatedHistories
	}

	merger := treeMergerFor(opts)

	var base cid.ID
	var virtuals []cid.ID
	switch {
	case len(lcas) == 0:
		base, virtuals, err = virtualbase.Synthesize(ctx, repo.Store, finder, merger, nil)
	case len(lcas) == 1:
		base = lcas[0]
	case opts.Strategy == diff3.StrategyRecursive || opts.Strategy == diff3.StrategyOrt ||
		opts.Strategy == diff3.StrategyOrtOurs || opts.Strategy == diff3.StrategyOrtTheirs:
		base, virtuals, err = virtualbase.Synthesize(ctx, repo.Store, finder, merger, lcas)
	default:
		// resolve / resolve-ours / resolve-theirs: use only the newest
		// LCA, no synthesis (§4.4's family restriction).
		base = lcas[len(lcas)-1]
	}
	if err != nil {
		return nil, fmt.Errorf("merge3: synthesizing virtual base: %w", err)
	}
	defer func() {
		_ = virtualbase.Cleanup(ctx, repo.Store, virtuals)
	}()

	baseCommit, err := repo.Store.GetCommit(ctx, base)
	if err != nil {
		return nil, err
	}
	thisCommit, err := repo.Store.GetCommit(ctx, this)
	if err != nil {
		return nil, err
	}
	otherCommit, err := repo.Store.GetCommit(ctx, other)
	if err != nil {
		return nil, err
	}

	tmResult, err := treemerge.Merge(ctx, repo.Store, baseCommit.Tree, thisCommit.Tree, otherCommit.Tree, treemerge.Options{
		Algorithm: opts.Algorithm,
		Strategy:  opts.Strategy,
		Style:     opts.Style,
		Labels:    opts.Labels,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{MergeBases: []cid.ID{base}, Structural: tmResult.Structural, Chunks: tmResult.Chunks}
	if !tmResult.Ok() {
		return result, nil
	}

	mergedTree, err := overlay(ctx, repo.Store, thisCommit.Tree, tmResult.Entries)
	if err != nil {
		return nil, err
	}
	result.Tree = mergedTree
	return result, nil
}

// overlay implements §4.6 step 5: a path not mentioned by the tree merger
// retains this's value; a nil entry means the path is deleted.
func overlay(ctx context.Context, store objstore.Store, thisTree cid.ID, updates map[string]*objstore.TreeEntry) (cid.ID, error) {
	base, err := flattenTree(ctx, store, thisTree)
	if err != nil {
		return cid.ID{}, err
	}
	for path, entry := range updates {
		if entry == nil {
			delete(base, path)
			continue
		}
		base[path] = *entry
	}
	entries := make([]objstore.TreeEntry, 0, len(base))
	for _, e := range base {
		entries = append(entries, e)
	}
	return store.AddTree(ctx, entries)
}

func flattenTree(ctx context.Context, store objstore.Store, treeID cid.ID) (map[string]objstore.TreeEntry, error) {
	changes, err := store.ChangesBetween(ctx, objstore.EmptyTreeID, treeID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]objstore.TreeEntry, len(changes))
	for _, c := range changes {
		if c.New != nil {
			out[c.New.Path] = *c.New
		}
	}
	return out, nil
}

// treeMergerFor adapts treemerge.Merge into the narrower TreeMerger shape
// the virtual-base synthesizer needs (a simple clean-tree-or-structural-
// conflict function, not the full chunk-conflict-reporting contract).
func treeMergerFor(opts Options) virtualbase.TreeMerger {
	return func(ctx context.Context, store objstore.Store, baseTree, aTree, bTree cid.ID) (cid.ID, bool, error) {
		res, err := treemerge.Merge(ctx, store, baseTree, aTree, bTree, treemerge.Options{
			Algorithm: opts.Algorithm,
			Strategy:  opts.Strategy,
			Style:     opts.Style,
			Labels:    opts.Labels,
		})
		if err != nil {
			return cid.ID{}, false, err
		}
		if !res.Ok() {
			return cid.ID{}, true, nil
		}
		merged, err := overlay(ctx, store, aTree, res.Entries)
		if err != nil {
			return cid.ID{}, false, err
		}
		return merged, false, nil
	}
}

// IsAncestor reports whether c1 is an ancestor of c2 in repo's commit
// graph.
func IsAncestor(ctx context.Context, repo Repository, c1, c2 cid.ID) (bool, error) {
	return repo.finder().IsAncestor(ctx, c1, c2)
}
