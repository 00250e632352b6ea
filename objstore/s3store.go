// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/antgroup/merge3/internal/cid"
)

// s3API is the subset of *s3.Client the store needs, so tests can supply a
// fake without standing up network access.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store addresses objects as "<prefix>/<cid-hex>" keys in a single
// bucket; it exists for deployments that keep their object store in
// object storage rather than on local disk, and implements the exact same
// Store contract as MemStore/DiskStore so the merge core is indifferent
// to which one it is handed.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(id cid.ID) string {
	if s.prefix == "" {
		return id.String()
	}
	return s.prefix + "/" + id.String()
}

func (s *S3Store) get(ctx context.Context, id cid.ID) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, &NoSuchObject{ID: id}
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) put(ctx context.Context, id cid.ID, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (s *S3Store) GetBlob(ctx context.Context, id cid.ID) ([]byte, error) {
	return s.get(ctx, id)
}

func (s *S3Store) GetTree(ctx context.Context, id cid.ID) (*Tree, error) {
	if id == EmptyTreeID {
		return &Tree{}, nil
	}
	raw, err := s.get(ctx, id)
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

func (s *S3Store) GetCommit(ctx context.Context, id cid.ID) (*Commit, error) {
	raw, err := s.get(ctx, id)
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

func (s *S3Store) AddBlob(ctx context.Context, data []byte) (cid.ID, error) {
	id := cid.Sum(data)
	if err := s.put(ctx, id, data); err != nil {
		return cid.Zero, err
	}
	return id, nil
}

func (s *S3Store) AddTree(ctx context.Context, entries []TreeEntry) (cid.ID, error) {
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
	if err := s.put(ctx, id, raw); err != nil {
		return cid.Zero, err
	}
	return id, nil
}

func (s *S3Store) AddCommit(ctx context.Context, c *Commit) (cid.ID, error) {
	id := commitID(c)
	c.ID = id
	dc := diskCommit{Tree: c.Tree.String(), TimeUnix: c.Time.Unix(), Virtual: c.Virtual, VirtualTag: c.VirtualTag}
	for _, p := range c.Parents {
		dc.Parents = append(dc.Parents, p.String())
	}
	raw, err := json.Marshal(dc)
	if err != nil {
		return cid.Zero, err
	}
	if err := s.put(ctx, id, raw); err != nil {
		return cid.Zero, err
	}
	return id, nil
}

func (s *S3Store) RemoveObject(ctx context.Context, id cid.ID) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	return err
}

func (s *S3Store) ChangesBetween(ctx context.Context, a, b cid.ID) ([]Change, error) {
	return walkChanges(ctx, s.GetTree, a, b, "")
}

var _ Store = (*S3Store)(nil)
