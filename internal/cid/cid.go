// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cid implements the content identifier used to address blobs,
// trees and commits in the object store: a BLAKE3 digest of the object's
// canonical encoding.
package cid

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"hash"
	"sort"

	"github.com/zeebo/blake3"
)

const (
	Size    = 32
	HexSize = Size * 2
)

// ID is a BLAKE3-hashed content identifier.
type ID [Size]byte

// Zero is the empty identifier, used as a sentinel for "no object" (e.g. the
// old side of an ADD change, or the new side of a DELETE).
var Zero ID

func (id ID) IsZero() bool {
	return id == Zero
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse decodes a hex-encoded identifier. An all-zero or empty string
// decodes to Zero.
func Parse(s string) (ID, error) {
	var id ID
	if len(s) == 0 {
		return id, nil
	}
	if len(s) != HexSize {
		return Zero, &InvalidError{Value: s}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, &InvalidError{Value: s}
	}
	copy(id[:], b)
	return id, nil
}

// InvalidError reports a malformed hex identifier.
type InvalidError struct {
	Value string
}

func (e *InvalidError) Error() string {
	return "cid: not a valid content identifier: " + e.Value
}

// Sum hashes a single buffer in one call; used for blobs and the canonical
// tree/commit encodings.
func Sum(data []byte) ID {
	var id ID
	sum := blake3.Sum256(data)
	copy(id[:], sum[:])
	return id
}

// Hasher is an incremental BLAKE3 hash.Hash that yields an ID.
type Hasher struct {
	hash.Hash
}

func NewHasher() Hasher {
	return Hasher{Hash: blake3.New()}
}

func (h Hasher) Sum() (id ID) {
	copy(id[:], h.Hash.Sum(nil))
	return
}

// Sort orders ids lexicographically by byte value, ascending.
func Sort(ids []ID) {
	sort.Sort(Slice(ids))
}

// Slice implements sort.Interface over a slice of IDs.
type Slice []ID

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return bytes.Compare(s[i][:], s[j][:]) < 0 }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Less reports whether a sorts before b; used as the deterministic
// tie-break for commit-timestamp collisions during merge-base search.
func Less(a, b ID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
