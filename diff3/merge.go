// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package diff3

import (
	"strings"

	"github.com/antgroup/merge3/diff"
)

// Options configures a MergeText call.
type Options struct {
	Algorithm diff.Algorithm
	Strategy  Strategy
	Style     Style
	Labels    Labels
}

// ConflictRange records one Unstable chunk's 0-origin line extents on all
// three sides, in the units MergeText was called with (lines, as split by
// splitLines).
type ConflictRange struct {
	O, A, B Range
}

// Result is MergeText's return value.
type Result struct {
	Text      string
	Conflicts []ConflictRange
}

// HasConflicts reports whether any chunk required conflict markup.
func (r Result) HasConflicts() bool { return len(r.Conflicts) > 0 }

// MergeText performs a three-way line-level merge of o (base), a, and b,
// selecting lines via the configured Line Matcher, auto-resolving chunks
// per Strategy where possible, and emitting §6-format conflict markup for
// whatever remains. It is the Diff3 Merger's sole entry point; tree-level
// callers invoke it once per modified file.
func MergeText(o, a, b string, opts Options) Result {
	oLines := splitLines(o)
	aLines := splitLines(a)
	bLines := splitLines(b)

	chunks := walk(oLines, aLines, bLines, opts.Algorithm)

	var sb strings.Builder
	var conflicts []ConflictRange
	favor := opts.Strategy.Favor()

	for _, c := range chunks {
		switch c.Kind {
		case Stable:
			switch c.Side {
			case SideA:
				writeLines(&sb, aLines[c.A.Lo:c.A.Hi])
			case SideB:
				writeLines(&sb, bLines[c.B.Lo:c.B.Hi])
			default:
				writeLines(&sb, oLines[c.O.Lo:c.O.Hi])
			}
		case Unstable:
			aSeg := aLines[c.A.Lo:c.A.Hi]
			oSeg := oLines[c.O.Lo:c.O.Hi]
			bSeg := bLines[c.B.Lo:c.B.Hi]
			if linesEqual(aSeg, bSeg) {
				// Both sides made the identical change: not a real
				// conflict regardless of strategy (§4.2's "A == B ≠
				// base" case).
				writeLines(&sb, aSeg)
				continue
			}
			switch favor {
			case 1:
				writeLines(&sb, aSeg)
			case -1:
				writeLines(&sb, bSeg)
			default:
				conflicts = append(conflicts, ConflictRange{O: c.O, A: c.A, B: c.B})
				writeConflict(&sb, aSeg, oSeg, bSeg, opts.Labels, opts.Style)
			}
		}
	}

	return Result{Text: sb.String(), Conflicts: conflicts}
}
