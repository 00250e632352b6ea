// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package diff3 implements the Diff3 Merger: three-way line-level text
// merge driven by a pluggable Line Matcher, producing merged bytes plus a
// precise list of conflicting line ranges.
package diff3

import "strings"

// splitLines breaks text into lines, retaining the trailing "\n" on every
// line except possibly the last (§4.2's edge case: "missing trailing
// newline on any side preserves the missing newline in the emitted
// chunk"). A final segment with no trailing newline is still returned as
// its own element so callers can tell it apart from a clean split.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i == -1 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}
