// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/antgroup/merge3/internal/cid"
)

// walkChanges implements the shared, store-agnostic half of ChangesBetween:
// a recursive descent into subdirectory trees, the one recursion point
// named by §2 as "tree-walk descent into subdirectories". Each concrete
// Store delegates to it once it knows how to fetch a Tree by CID.
//
// Unchanged paths are never emitted: the tree merger treats "absent from
// the change set" as UNCHANGED (§4.5's case table is built on that
// absence), so reporting them would only double the work for no benefit.
func walkChanges(ctx context.Context, fetch func(context.Context, cid.ID) (*Tree, error), aID, bID cid.ID, prefix string) ([]Change, error) {
	var a, b *Tree
	var err error
	if !aID.IsZero() {
		if a, err = fetch(ctx, aID); err != nil {
			return nil, err
		}
	} else {
		a = &Tree{}
	}
	if !bID.IsZero() {
		if b, err = fetch(ctx, bID); err != nil {
			return nil, err
		}
	} else {
		b = &Tree{}
	}

	byName := make(map[string]struct{ a, b *TreeEntry })
	for i := range a.Entries {
		e := a.Entries[i]
		ent := byName[e.Path]
		ent.a = &a.Entries[i]
		byName[e.Path] = ent
	}
	for i := range b.Entries {
		e := b.Entries[i]
		ent := byName[e.Path]
		ent.b = &b.Entries[i]
		byName[e.Path] = ent
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var changes []Change
	for _, name := range names {
		pair := byName[name]
		full := path.Join(prefix, name)
		switch {
		case pair.a == nil:
			// Present only in b.
			if pair.b.Mode.IsDir() {
				added, err := enumerate(ctx, fetch, pair.b.ID, full)
				if err != nil {
					return nil, err
				}
				for _, e := range added {
					changes = append(changes, Change{Kind: Add, New: &e})
				}
				continue
			}
			entry := withPath(*pair.b, full)
			changes = append(changes, Change{Kind: Add, New: &entry})
		case pair.b == nil:
			// Present only in a.
			if pair.a.Mode.IsDir() {
				removed, err := enumerate(ctx, fetch, pair.a.ID, full)
				if err != nil {
					return nil, err
				}
				for _, e := range removed {
					changes = append(changes, Change{Kind: Delete, Old: &e})
				}
				continue
			}
			entry := withPath(*pair.a, full)
			changes = append(changes, Change{Kind: Delete, Old: &entry})
		case pair.a.Mode.IsDir() && pair.b.Mode.IsDir():
			if pair.a.ID == pair.b.ID {
				continue
			}
			sub, err := walkChanges(ctx, fetch, pair.a.ID, pair.b.ID, full)
			if err != nil {
				return nil, err
			}
			changes = append(changes, sub...)
		case pair.a.Mode.IsDir() != pair.b.Mode.IsDir():
			// A file replaced a directory, or vice versa: the whole
			// subtree on the directory side is a structural delete, and
			// the file side is a structural add, at the same path.
			var dirSide, fileSide *TreeEntry
			if pair.a.Mode.IsDir() {
				dirSide, fileSide = pair.a, pair.b
			} else {
				dirSide, fileSide = pair.b, pair.a
			}
			removed, err := enumerate(ctx, fetch, dirSide.ID, full)
			if err != nil {
				return nil, err
			}
			for _, e := range removed {
				changes = append(changes, Change{Kind: Delete, Old: &e})
			}
			fe := withPath(*fileSide, full)
			changes = append(changes, Change{Kind: Add, New: &fe})
		case pair.a.ID == pair.b.ID && pair.a.Mode == pair.b.Mode:
			continue
		default:
			oldE := withPath(*pair.a, full)
			newE := withPath(*pair.b, full)
			changes = append(changes, Change{Kind: Modify, Old: &oldE, New: &newE})
		}
	}
	return changes, nil
}

func withPath(e TreeEntry, full string) TreeEntry {
	e.Path = full
	return e
}

// enumerate lists every non-directory entry reachable under id, with paths
// rewritten relative to prefix. Used to flatten a whole-subtree add/delete
// into per-blob changes.
func enumerate(ctx context.Context, fetch func(context.Context, cid.ID) (*Tree, error), id cid.ID, prefix string) ([]TreeEntry, error) {
	if id.IsZero() {
		return nil, nil
	}
	t, err := fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", prefix, err)
	}
	var out []TreeEntry
	for _, e := range t.Entries {
		full := path.Join(prefix, e.Path)
		if e.Mode.IsDir() {
			children, err := enumerate(ctx, fetch, e.ID, full)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			continue
		}
		out = append(out, withPath(e, full))
	}
	return out, nil
}
