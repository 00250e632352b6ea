// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mergebase implements the Merge-Base Finder: lowest-common-ancestor
// discovery over a commit DAG via flag propagation on a timestamp-ordered
// max-heap, adapted from the teacher's commitIteratorByCTime walker (see
// modules/zeta/object/commit_walker_ctime.go) but generalized from a single
// linear walk into the two-rooted flag-intersection search described by
// the core's LCA contract.
package mergebase

import (
	"context"
	"sort"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/antgroup/merge3/internal/cid"
)

// Flag is one bit of ancestry state tracked per visited commit during the
// search.
type Flag uint8

const (
	AncOf1 Flag = 1 << iota
	AncOf2
	DNC // "do not consider": a strict ancestor of an already-found LCA
	LCA
)

// ParentLookup returns the direct parents of a commit.
type ParentLookup func(ctx context.Context, id cid.ID) ([]cid.ID, error)

// StampLookup returns a commit's timestamp, used both to order the search
// (newest-first pop) and to break ties deterministically.
type StampLookup func(ctx context.Context, id cid.ID) (time.Time, error)

type node struct {
	id    cid.ID
	stamp time.Time
	flags Flag
}

// Finder runs repeated LCA searches against a fixed pair of lookup
// functions, avoiding needing to thread them through every call.
type Finder struct {
	Parents ParentLookup
	Stamp   StampLookup
}

// Find returns the lowest common ancestors of root and (any of) others,
// sorted oldest-first by commit timestamp, per §4.3. minStamp, if
// non-zero, prunes any parent edge into a commit strictly older than it —
// used by IsAncestor to bound the search to root's own timestamp.
func (f Finder) Find(ctx context.Context, root cid.ID, others []cid.ID, minStamp time.Time) ([]cid.ID, error) {
	if len(others) == 0 {
		return nil, nil
	}

	nodes := make(map[cid.ID]*node)
	heap := binaryheap.NewWith(func(a, b any) int {
		na, nb := a.(*node), b.(*node)
		if na.stamp.Equal(nb.stamp) {
			return lexCompare(na.id, nb.id)
		}
		if na.stamp.Before(nb.stamp) {
			return 1
		}
		return -1
	})

	get := func(id cid.ID) (*node, bool, error) {
		if n, ok := nodes[id]; ok {
			return n, true, nil
		}
		stamp, err := f.Stamp(ctx, id)
		if err != nil {
			return nil, false, err
		}
		n := &node{id: id, stamp: stamp}
		nodes[id] = n
		return n, false, nil
	}

	rootNode, _, err := get(root)
	if err != nil {
		return nil, err
	}
	rootNode.flags |= AncOf1
	heap.Push(rootNode)

	sameAsRoot := false
	for _, o := range others {
		if o == root {
			sameAsRoot = true
			continue
		}
		n, _, err := get(o)
		if err != nil {
			return nil, err
		}
		n.flags |= AncOf2
		heap.Push(n)
	}
	if sameAsRoot && len(others) == 1 {
		// root is trivially its own sole LCA with itself.
		return []cid.ID{root}, nil
	}

	var candidates []*node
	for heap.Size() > 0 {
		raw, _ := heap.Pop()
		n := raw.(*node)
		flags := n.flags & (AncOf1 | AncOf2)
		carried := n.flags & (AncOf1 | AncOf2 | DNC)
		if flags == (AncOf1|AncOf2) && n.flags&(LCA|DNC) == 0 {
			n.flags |= LCA
			candidates = append(candidates, n)
			// parents of an LCA are not themselves LCAs
			carried |= DNC
		}

		parents, err := f.Parents(ctx, n.id)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			pn, _, err := get(p)
			if err != nil {
				return nil, err
			}
			if !minStamp.IsZero() && pn.stamp.Before(minStamp) {
				continue
			}
			before := pn.flags
			pn.flags |= carried
			if pn.flags != before {
				heap.Push(pn)
			}
		}
	}

	// A candidate that later acquired DNC is a strict ancestor of a younger
	// LCA on the same line.
	kept := candidates[:0]
	for _, c := range candidates {
		if c.flags&DNC == 0 {
			kept = append(kept, c)
		}
	}
	return finalize(kept), nil
}

// IsAncestor reports whether c1 is an ancestor of (or equal to) c2, per
// §4.3's reduction: running Find rooted at c1 against {c2}, bounded below
// by stamp(c1), must yield exactly [c1].
func (f Finder) IsAncestor(ctx context.Context, c1, c2 cid.ID) (bool, error) {
	if c1 == c2 {
		return true, nil
	}
	stamp, err := f.Stamp(ctx, c1)
	if err != nil {
		return false, err
	}
	lcas, err := f.Find(ctx, c1, []cid.ID{c2}, stamp)
	if err != nil {
		return false, err
	}
	return len(lcas) == 1 && lcas[0] == c1, nil
}

// OctopusBase reduces a list of commits to a merge base by repeated
// pairwise LCA search: start with {commits[0]}; for each subsequent
// commit, replace the running set with the union, over the previous set,
// of pairwise LCAs with that commit (§4.3).
func (f Finder) OctopusBase(ctx context.Context, commits []cid.ID) ([]cid.ID, error) {
	if len(commits) == 0 {
		return nil, nil
	}
	running := []cid.ID{commits[0]}
	for _, c := range commits[1:] {
		var next []cid.ID
		seen := make(map[cid.ID]bool)
		for _, r := range running {
			lcas, err := f.Find(ctx, r, []cid.ID{c}, time.Time{})
			if err != nil {
				return nil, err
			}
			for _, l := range lcas {
				if !seen[l] {
					seen[l] = true
					next = append(next, l)
				}
			}
		}
		running = next
	}
	return running, nil
}

func finalize(candidates []*node) []cid.ID {
	return sortByStamp(candidates)
}

func sortByStamp(candidates []*node) []cid.ID {
	sorted := make([]*node, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].stamp.Equal(sorted[j].stamp) {
			return lexCompare(sorted[i].id, sorted[j].id) < 0
		}
		return sorted[i].stamp.Before(sorted[j].stamp)
	})
	out := make([]cid.ID, len(sorted))
	for i, n := range sorted {
		out[i] = n.id
	}
	return out
}

func lexCompare(a, b cid.ID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
