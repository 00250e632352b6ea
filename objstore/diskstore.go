// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/antgroup/merge3/internal/cid"
)

// DiskStore is a loose-object store that keeps every blob/tree/commit as a
// single zstd-compressed file under baseDir, sharded by the first two hex
// digits of its CID the way git shards loose objects. It exists to give
// the merge core a realistic out-of-process backend to exercise against
// in tests without requiring a network service; production deployments
// are expected to supply their own Store wrapping whatever repository
// backend they already run (pack files, a database, S3 — see S3Store).
type DiskStore struct {
	baseDir string
	mu      sync.Mutex // serializes writes; reads need no lock, files are content-addressed and written once

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &DiskStore{baseDir: baseDir, encoder: enc, decoder: dec}, nil
}

func (s *DiskStore) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return nil
}

func (s *DiskStore) pathFor(id cid.ID) string {
	hex := id.String()
	return filepath.Join(s.baseDir, hex[:2], hex[2:])
}

func (s *DiskStore) readRaw(id cid.ID) ([]byte, error) {
	p := s.pathFor(id)
	compressed, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NoSuchObject{ID: id}
		}
		return nil, err
	}
	return s.decoder.DecodeAll(compressed, nil)
}

func (s *DiskStore) writeRaw(id cid.ID, data []byte) error {
	p := s.pathFor(id)
	if _, err := os.Stat(p); err == nil {
		return nil // content-addressed: already present, writes are idempotent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	compressed := s.encoder.EncodeAll(data, nil)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *DiskStore) GetBlob(_ context.Context, id cid.ID) ([]byte, error) {
	return s.readRaw(id)
}

type diskTree struct {
	Entries []diskEntry `json:"entries"`
}

type diskEntry struct {
	Path string `json:"path"`
	Mode uint32 `json:"mode"`
	ID   string `json:"id"`
}

func (s *DiskStore) GetTree(_ context.Context, id cid.ID) (*Tree, error) {
	if id == EmptyTreeID {
		return &Tree{}, nil
	}
	raw, err := s.readRaw(id)
	if err != nil {
		return nil, err
	}
	var dt diskTree
	if err := json.Unmarshal(raw, &dt); err != nil {
		return nil, fmt.Errorf("objstore: corrupt tree %s: %w", id, err)
	}
	t := &Tree{Entries: make([]TreeEntry, 0, len(dt.Entries))}
	for _, e := range dt.Entries {
		eid, err := cid.Parse(e.ID)
		if err != nil {
			return nil, err
		}
		t.Entries = append(t.Entries, TreeEntry{Path: e.Path, Mode: FileMode(e.Mode), ID: eid})
	}
	return t, nil
}

type diskCommit struct {
	Tree       string   `json:"tree"`
	Parents    []string `json:"parents"`
	TimeUnix   int64    `json:"time_unix"`
	Virtual    bool     `json:"virtual,omitempty"`
	VirtualTag string   `json:"virtual_tag,omitempty"`
}

func (s *DiskStore) GetCommit(_ context.Context, id cid.ID) (*Commit, error) {
	raw, err := s.readRaw(id)
	if err != nil {
		return nil, err
	}
	var dc diskCommit
	if err := json.Unmarshal(raw, &dc); err != nil {
		return nil, fmt.Errorf("objstore: corrupt commit %s: %w", id, err)
	}
	tid, err := cid.Parse(dc.Tree)
	if err != nil {
		return nil, err
	}
	parents := make([]cid.ID, 0, len(dc.Parents))
	for _, p := range dc.Parents {
		pid, err := cid.Parse(p)
		if err != nil {
			return nil, err
		}
		parents = append(parents, pid)
	}
	return &Commit{
		ID:         id,
		Tree:       tid,
		Parents:    parents,
		Time:       unixToTime(dc.TimeUnix),
		Virtual:    dc.Virtual,
		VirtualTag: dc.VirtualTag,
	}, nil
}

func (s *DiskStore) AddBlob(_ context.Context, data []byte) (cid.ID, error) {
	id := cid.Sum(data)
	if err := s.writeRaw(id, data); err != nil {
		return cid.Zero, err
	}
	return id, nil
}

func (s *DiskStore) AddTree(_ context.Context, entries []TreeEntry) (cid.ID, error) {
	t := NewTree(entries)
	id := treeID(t)
	if id == EmptyTreeID {
		return id, nil
	}
	dt := diskTree{Entries: make([]diskEntry, 0, len(t.Entries))}
	for _, e := range t.Entries {
		dt.Entries = append(dt.Entries, diskEntry{Path: e.Path, Mode: uint32(e.Mode), ID: e.ID.String()})
	}
	raw, err := json.Marshal(dt)
	if err != nil {
		return cid.Zero, err
	}
	if err := s.writeRaw(id, raw); err != nil {
		return cid.Zero, err
	}
	return id, nil
}

func (s *DiskStore) AddCommit(_ context.Context, c *Commit) (cid.ID, error) {
	id := commitID(c)
	c.ID = id
	dc := diskCommit{
		Tree:       c.Tree.String(),
		TimeUnix:   c.Time.Unix(),
		Virtual:    c.Virtual,
		VirtualTag: c.VirtualTag,
	}
	for _, p := range c.Parents {
		dc.Parents = append(dc.Parents, p.String())
	}
	raw, err := json.Marshal(dc)
	if err != nil {
		return cid.Zero, err
	}
	if err := s.writeRaw(id, raw); err != nil {
		return cid.Zero, err
	}
	return id, nil
}

func (s *DiskStore) RemoveObject(_ context.Context, id cid.ID) error {
	p := s.pathFor(id)
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) ChangesBetween(ctx context.Context, a, b cid.ID) ([]Change, error) {
	return walkChanges(ctx, s.GetTree, a, b, "")
}

var _ Store = (*DiskStore)(nil)
var _ io.Closer = (*DiskStore)(nil)
