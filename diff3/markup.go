// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package diff3

import "strings"

// writeConflict appends one conflict block's markup to sb, following §6's
// exact template:
//
//	<<<<<<<<< alice
//	<side-A bytes>
//	||||||||| ancestor
//	<base bytes>
//	=========
//	<side-B bytes>
//	>>>>>>>>> bob
//
// with a trailing space on the "=========" line, adapted from the teacher's
// (*Sink).writeConflict but over the three named styles and §6's 9-character
// markers instead of git's usual 7.
func writeConflict(sb *strings.Builder, aLines, oLines, bLines []string, labels Labels, style Style) {
	labels = labels.withDefaults()

	switch style {
	case StyleZealousDiff3:
		if linesEqual(aLines, oLines) {
			writeLines(sb, bLines)
			return
		}
		if linesEqual(bLines, oLines) {
			writeLines(sb, aLines)
			return
		}
		if linesEqual(aLines, bLines) {
			writeLines(sb, aLines)
			return
		}
		writeFull(sb, aLines, oLines, bLines, labels)
	case StyleMinimal:
		writeMinimal(sb, aLines, bLines, labels)
	default: // StyleDiff3
		writeFull(sb, aLines, oLines, bLines, labels)
	}
}

func writeMinimal(sb *strings.Builder, aLines, bLines []string, labels Labels) {
	sb.WriteString(markerStart)
	sb.WriteByte(' ')
	sb.WriteString(labels.A)
	sb.WriteByte('\n')
	writeLines(sb, aLines)
	sb.WriteString(markerMid)
	sb.WriteByte(' ')
	sb.WriteByte('\n')
	writeLines(sb, bLines)
	sb.WriteString(markerEnd)
	sb.WriteByte(' ')
	sb.WriteString(labels.B)
	sb.WriteByte('\n')
}

func writeFull(sb *strings.Builder, aLines, oLines, bLines []string, labels Labels) {
	sb.WriteString(markerStart)
	sb.WriteByte(' ')
	sb.WriteString(labels.A)
	sb.WriteByte('\n')
	writeLines(sb, aLines)
	sb.WriteString(markerBase)
	sb.WriteByte(' ')
	sb.WriteString(labels.Base)
	sb.WriteByte('\n')
	writeLines(sb, oLines)
	sb.WriteString(markerMid)
	sb.WriteByte(' ')
	sb.WriteByte('\n')
	writeLines(sb, bLines)
	sb.WriteString(markerEnd)
	sb.WriteByte(' ')
	sb.WriteString(labels.B)
	sb.WriteByte('\n')
}

// writeLines emits each line's bytes verbatim. A line missing its trailing
// newline (only possible as the last line of a side, per splitLines) is
// emitted exactly as split — not patched with a synthesized "\n" — so a
// missing trailing newline survives into the merged output (§4.2, §8).
func writeLines(sb *strings.Builder, lines []string) {
	for _, l := range lines {
		sb.WriteString(l)
	}
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
