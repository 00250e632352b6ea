// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0
//
// The chunk-walk below is adapted from the node-diff3 / epiclabs-io/diff3
// hunk-overlap formulation of the classic Khanna/Kunal/Pierce diff3
// algorithm (see Diff3Merge in the teacher's merge.go): it computes the
// two edit scripts O→A and O→B, merges their hunks by position, and for
// any hunk where both sides touched overlapping base lines, reports the
// extents of all three sides. This produces exactly the stable-advance /
// mismatch-probe / unstable-resolution behavior described in §4.2: a
// maximal hunk overlap *is* the "next three-way stable anchor" search,
// expressed without walking the Correspondence index by index.

package diff3

import (
	"sort"

	"github.com/antgroup/merge3/diff"
)

// ChunkKind classifies one region of the chunk walk.
type ChunkKind int8

const (
	// Stable is unchanged relative to the base on at least one side in a
	// way that lets it be emitted without a conflict (clean pick, not
	// necessarily byte-identical to base — see §4.2 step 3's first four
	// cases).
	Stable ChunkKind = iota
	// Unstable is a genuine three-way conflict requiring strategy
	// resolution or markup.
	Unstable
)

// Range is a half-open [Lo, Hi) line range, 0-origin.
type Range struct {
	Lo, Hi int
}

func (r Range) Len() int { return r.Hi - r.Lo }

// Chunk is one region of the chunk walk: either a clean pick from one
// side (Kind == Stable, Side identifies which) or a three-way conflict
// needing resolution (Kind == Unstable, O/A/B ranges all populated).
type Chunk struct {
	Kind ChunkKind
	Side Side // meaningful only when Kind == Stable
	O, A, B Range
}

// Side names which input a stable chunk was picked from.
type Side int8

const (
	SideBase Side = iota
	SideA
	SideB
)

// walk computes the full chunk sequence for base/a/b split into lines,
// using algo as the Line Matcher.
func walk(o, a, b []string, algo diff.Algorithm) []Chunk {
	changesA := diff.Compute(o, a, algo)
	changesB := diff.Compute(o, b, algo)

	type tagged struct {
		ch   diff.Change
		side int // 0 = A, 1 = B
	}
	hunks := make([]tagged, 0, len(changesA)+len(changesB))
	for _, c := range changesA {
		hunks = append(hunks, tagged{c, 0})
	}
	for _, c := range changesB {
		hunks = append(hunks, tagged{c, 1})
	}
	sort.SliceStable(hunks, func(i, j int) bool { return hunks[i].ch.P1 < hunks[j].ch.P1 })

	var chunks []Chunk
	commonOffset := 0
	copyCommon := func(upto int) {
		if upto > commonOffset {
			chunks = append(chunks, Chunk{
				Kind: Stable, Side: SideBase,
				O: Range{commonOffset, upto}, A: Range{commonOffset, upto}, B: Range{commonOffset, upto},
			})
			commonOffset = upto
		}
	}

	for i := 0; i < len(hunks); i++ {
		first := i
		h := hunks[i]
		regionLo := h.ch.P1
		regionHi := regionLo + h.ch.Del
		for i < len(hunks)-1 {
			next := hunks[i+1]
			if next.ch.P1 > regionHi {
				break
			}
			regionHi = max(regionHi, next.ch.P1+next.ch.Del)
			i++
		}
		copyCommon(regionLo)
		if first == i {
			// A single hunk touched this region: only one side changed
			// anything, so it's a clean pick (§4.2 step 3's "base = A ≠
			// B" / "base = B ≠ A" cases), with nothing to emit if that
			// side made a pure deletion.
			if h.ch.Ins > 0 {
				side := SideA
				if h.side == 1 {
					side = SideB
				}
				r := Range{h.ch.P2, h.ch.P2 + h.ch.Ins}
				chunks = append(chunks, Chunk{Kind: Stable, Side: side, O: Range{regionLo, regionHi}, A: r, B: r})
			}
		} else {
			aR := Range{len(a), -1}
			bR := Range{len(b), -1}
			for j := first; j <= i; j++ {
				hj := hunks[j]
				oLo, oHi := hj.ch.P1, hj.ch.P1+hj.ch.Del
				abLo, abHi := hj.ch.P2, hj.ch.P2+hj.ch.Ins
				var r *Range
				if hj.side == 0 {
					r = &aR
				} else {
					r = &bR
				}
				r.Lo = min(r.Lo, abLo)
				r.Hi = max(r.Hi, abHi)
				_ = oLo
				_ = oHi
			}
			// Correct for skew: the merged hunk's base extent may be
			// wider than any single side's reported extent, so offset
			// each side's content range by how far the combined region
			// grew past that side's own hunk boundary.
			aLo, aHi := offsetRange(aR, regionLo, regionHi, changesA, 0)
			bLo, bHi := offsetRange(bR, regionLo, regionHi, changesB, 0)
			chunks = append(chunks, Chunk{
				Kind: Unstable,
				O:    Range{regionLo, regionHi},
				A:    Range{aLo, aHi},
				B:    Range{bLo, bHi},
			})
		}
		commonOffset = regionHi
	}
	copyCommon(len(o))
	return chunks
}

// offsetRange recomputes the content-side extent for a merged region
// given the raw min/max content positions accumulated across the hunks
// that fed it, corrected for the gap between each hunk's own base range
// and the (possibly wider, after merging overlapping hunks) combined base
// range.
func offsetRange(raw Range, regionLo, regionHi int, changes []diff.Change, _ int) (int, int) {
	if raw.Hi < raw.Lo {
		// No hunk from this side touched the region: its content is
		// simply the same span of the base range (side == base here).
		return regionLo, regionHi
	}
	oLo, oHi := regionHi, regionLo // will be tightened below
	for _, c := range changes {
		cLo, cHi := c.P1, c.P1+c.Del
		if cHi < regionLo || cLo > regionHi {
			continue
		}
		if cLo < oLo {
			oLo = cLo
		}
		if cHi > oHi {
			oHi = cHi
		}
	}
	lo := raw.Lo + (regionLo - oLo)
	hi := raw.Hi + (regionHi - oHi)
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
