// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"sync"
	"time"

	"github.com/antgroup/merge3/internal/cid"
)

// MemStore is an in-memory Store, suitable for tests and for the
// short-lived virtual commits a single merge invocation synthesizes. All
// methods are safe for concurrent use: the orchestrator may merge distinct
// file paths in parallel (§5) and serializes only through this store.
type MemStore struct {
	mu      sync.RWMutex
	blobs   map[cid.ID][]byte
	trees   map[cid.ID]*Tree
	commits map[cid.ID]*Commit
}

func NewMemStore() *MemStore {
	s := &MemStore{
		blobs:   make(map[cid.ID][]byte),
		trees:   make(map[cid.ID]*Tree),
		commits: make(map[cid.ID]*Commit),
	}
	s.trees[EmptyTreeID] = &Tree{}
	return s
}

func (s *MemStore) GetBlob(_ context.Context, id cid.ID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, &NoSuchObject{ID: id}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *MemStore) GetTree(_ context.Context, id cid.ID) (*Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[id]
	if !ok {
		return nil, &NoSuchObject{ID: id}
	}
	return t, nil
}

func (s *MemStore) GetCommit(_ context.Context, id cid.ID) (*Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[id]
	if !ok {
		return nil, &NoSuchObject{ID: id}
	}
	return c, nil
}

func (s *MemStore) AddBlob(_ context.Context, data []byte) (cid.ID, error) {
	id := cid.Sum(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		s.blobs[id] = cp
	}
	return id, nil
}

func (s *MemStore) AddTree(_ context.Context, entries []TreeEntry) (cid.ID, error) {
	t := NewTree(entries)
	id := treeID(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[id] = t
	return id, nil
}

func (s *MemStore) AddCommit(_ context.Context, c *Commit) (cid.ID, error) {
	id := commitID(c)
	c.ID = id
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[id] = c
	return id, nil
}

func (s *MemStore) RemoveObject(_ context.Context, id cid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.commits[id]; ok {
		delete(s.commits, id)
		return nil
	}
	if _, ok := s.trees[id]; ok {
		delete(s.trees, id)
		return nil
	}
	delete(s.blobs, id)
	return nil
}

func (s *MemStore) ChangesBetween(ctx context.Context, a, b cid.ID) ([]Change, error) {
	return walkChanges(ctx, s.GetTree, a, b, "")
}

// treeID and commitID derive a content identifier from the canonical
// encoding of a tree/commit. Using a simple length-prefixed encoding
// (rather than reusing the store's own serialization format) keeps the
// merge core's identity notion independent of whatever wire format a real
// backing store chooses, per §1's exclusion of "pack/loose object
// formats" from this core's concerns.
func treeID(t *Tree) cid.ID {
	h := cid.NewHasher()
	h.Write([]byte("tree\x00"))
	for _, e := range t.Entries {
		h.Write([]byte(e.Mode.String()))
		h.Write([]byte{' '})
		h.Write([]byte(e.Path))
		h.Write([]byte{0})
		h.Write(e.ID[:])
	}
	return h.Sum()
}

func commitID(c *Commit) cid.ID {
	h := cid.NewHasher()
	h.Write([]byte("commit\x00"))
	h.Write(c.Tree[:])
	for _, p := range c.Parents {
		h.Write(p[:])
	}
	stamp := c.Time.UTC().Format(time.RFC3339Nano)
	h.Write([]byte(stamp))
	if c.Virtual {
		h.Write([]byte("virtual\x00"))
		h.Write([]byte(c.VirtualTag))
	}
	return h.Sum()
}
