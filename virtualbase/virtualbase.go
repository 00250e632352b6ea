// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package virtualbase implements the Virtual-Base Synthesizer: folding
// multiple lowest common ancestors into a single synthetic base commit by
// recursive pairwise three-way merge, adapted from the teacher's
// resolveAncestorTree0/resolveAncestorTree in pkg/zeta/merge_tree.go. The
// list of LCAs is folded in a loop, not by recursion over the list. When a
// folded pair itself has more than one LCA, resolvePairBase calls
// Synthesize again, so that nested case uses native Go recursion and its
// depth grows with the nesting of criss-cross merges.
package virtualbase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/antgroup/merge3/internal/cid"
	"github.com/antgroup/merge3/mergebase"
	"github.com/antgroup/merge3/objstore"
)

// TreeMerger merges two tree-bearing commits against a base tree,
// tolerating chunk conflicts (resolved via the strategy's rules) but
// reporting structural conflicts, which abort synthesis of that pair. It
// is implemented by the orchestrator layer (package merge3) and injected
// here to avoid a package import cycle between tree-level merging and
// base synthesis, which call into each other recursively.
type TreeMerger func(ctx context.Context, store objstore.Store, baseTree, aTree, bTree cid.ID) (mergedTree cid.ID, structuralConflict bool, err error)

// ErrStructuralConflict is returned (wrapped) by Synthesize when folding
// two bases together hit a structural conflict instead of a clean (if
// textually conflicted) merge.
type ErrStructuralConflict struct {
	A, B cid.ID
}

func (e *ErrStructuralConflict) Error() string {
	return fmt.Sprintf("virtualbase: structural conflict synthesizing base from %s and %s", e.A, e.B)
}

// foldJob names one pairwise fold of `base` (running virtual base) with
// the next LCA `next`. Synthesize performs its folds directly through
// foldOne and does not queue foldJob values.
type foldJob struct {
	base, next cid.ID
}

// Synthesize implements §4.4: given more than one LCA (already computed by
// the merge-base finder) it folds them pairwise, newest-first, into one
// virtual base commit, using merger to combine trees and finder to
// recursively resolve the merge-base of each folded pair. It returns the
// final base commit id, and the list of every virtual commit id created
// along the way (for §4.4's end-of-merge cleanup) so the caller can remove
// them after the top-level merge completes.
//
// If exactly one LCA is given, Synthesize returns it directly, with no
// folding and no virtual commits to clean up. For zero LCAs it returns a
// freshly synthesized virtual commit over the empty tree (§4.4's
// empty-base fallback), and that commit is the one entry of virtuals.
func Synthesize(ctx context.Context, store objstore.Store, finder mergebase.Finder, merger TreeMerger, lcas []cid.ID) (base cid.ID, virtuals []cid.ID, err error) {
	if len(lcas) == 0 {
		vc, err := newVirtualCommit(ctx, store, objstore.EmptyTreeID, nil)
		if err != nil {
			return cid.ID{}, nil, err
		}
		return vc, []cid.ID{vc}, nil
	}
	if len(lcas) == 1 {
		return lcas[0], nil, nil
	}

	sorted, err := sortByStampDesc(ctx, store, lcas)
	if err != nil {
		return cid.ID{}, nil, err
	}

	running := sorted[0]
	for _, next := range sorted[1:] {
		running, virtuals, err = foldOne(ctx, store, finder, merger, running, next, virtuals)
		if err != nil {
			// Structural conflict: fall back to the first (newest)
			// LCA as the base, per §4.4 step 3.
			var sc *ErrStructuralConflict
			if isStructuralConflict(err, &sc) {
				return sorted[0], virtuals, nil
			}
			return cid.ID{}, virtuals, err
		}
	}
	return running, virtuals, nil
}

func foldOne(ctx context.Context, store objstore.Store, finder mergebase.Finder, merger TreeMerger, base, next cid.ID, virtuals []cid.ID) (cid.ID, []cid.ID, error) {
	pairBase, pairVirtuals, err := resolvePairBase(ctx, store, finder, merger, base, next)
	virtuals = append(virtuals, pairVirtuals...)
	if err != nil {
		return cid.ID{}, virtuals, err
	}

	baseCommit, err := store.GetCommit(ctx, base)
	if err != nil {
		return cid.ID{}, virtuals, err
	}
	nextCommit, err := store.GetCommit(ctx, next)
	if err != nil {
		return cid.ID{}, virtuals, err
	}
	var pairBaseTree cid.ID = objstore.EmptyTreeID
	if !pairBase.IsZero() {
		pbCommit, err := store.GetCommit(ctx, pairBase)
		if err != nil {
			return cid.ID{}, virtuals, err
		}
		pairBaseTree = pbCommit.Tree
	}

	mergedTree, structuralConflict, err := merger(ctx, store, pairBaseTree, baseCommit.Tree, nextCommit.Tree)
	if err != nil {
		return cid.ID{}, virtuals, err
	}
	if structuralConflict {
		return cid.ID{}, virtuals, &ErrStructuralConflict{A: base, B: next}
	}

	vc, err := newVirtualCommit(ctx, store, mergedTree, []cid.ID{base, next})
	if err != nil {
		return cid.ID{}, virtuals, err
	}
	virtuals = append(virtuals, vc)
	return vc, virtuals, nil
}

// resolvePairBase finds the merge-base of (base, next), re-entering
// Synthesize itself if that pair has multiple LCAs of its own (§4.4: "the
// merge-base of that pair, re-entering this procedure if that pair itself
// has multiple LCAs").
func resolvePairBase(ctx context.Context, store objstore.Store, finder mergebase.Finder, merger TreeMerger, base, next cid.ID) (cid.ID, []cid.ID, error) {
	lcas, err := finder.Find(ctx, base, []cid.ID{next}, time.Time{})
	if err != nil {
		return cid.ID{}, nil, err
	}
	if len(lcas) == 0 {
		return cid.ID{}, nil, nil
	}
	if len(lcas) == 1 {
		return lcas[0], nil, nil
	}
	return Synthesize(ctx, store, finder, merger, lcas)
}

func newVirtualCommit(ctx context.Context, store objstore.Store, tree cid.ID, parents []cid.ID) (cid.ID, error) {
	c := &objstore.Commit{
		Tree:       tree,
		Parents:    parents,
		Time:       time.Time{},
		Virtual:    true,
		VirtualTag: fmt.Sprintf("virtual-merge-base-%d", time.Now().UnixNano()),
	}
	return store.AddCommit(ctx, c)
}

func sortByStampDesc(ctx context.Context, store objstore.Store, ids []cid.ID) ([]cid.ID, error) {
	type pair struct {
		id cid.ID
		t  time.Time
	}
	pairs := make([]pair, 0, len(ids))
	for _, id := range ids {
		c, err := store.GetCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{id, c.Time})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].t.After(pairs[j].t) })
	out := make([]cid.ID, len(pairs))
	for i, p := range pairs {
		out[i] = p.id
	}
	return out, nil
}

// Cleanup removes every virtual commit created by Synthesize from the
// object store, per §4.4: trees they reference are left in place since
// they may participate in the final merged tree.
func Cleanup(ctx context.Context, store objstore.Store, virtuals []cid.ID) error {
	for _, id := range virtuals {
		if err := store.RemoveObject(ctx, id); err != nil && !objstore.IsNoSuchObject(err) {
			return err
		}
	}
	return nil
}

func isStructuralConflict(err error, target **ErrStructuralConflict) bool {
	if sc, ok := err.(*ErrStructuralConflict); ok {
		*target = sc
		return true
	}
	return false
}
