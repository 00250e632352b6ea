// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package diff3

// Style selects how much context a conflict marker block carries. The zero
// value, StyleDiff3, is the core's mandated default: the exact three-part
// template of §6, base text always shown between the two sides. The other
// two are opt-in variants adapted from the teacher's three-style conflict
// writer, for callers that want git's more familiar two-way markers.
type Style int8

const (
	// StyleDiff3 always shows the base text between the two sides, even
	// when one side is unchanged from it. This is §6's exact template
	// and the default when Options.Style is left zero.
	StyleDiff3 Style = iota
	// StyleMinimal hides the base text entirely: <<<<<<<<< A ... >>>>>>>>> B.
	StyleMinimal
	// StyleZealousDiff3 collapses a side's markers entirely when that
	// side's hunk matches base or the other side, falling back to the
	// full three-way template only when all three genuinely differ —
	// the way "zealous" diff3 minimizes trivial conflicts.
	StyleZealousDiff3
)

func (s Style) String() string {
	switch s {
	case StyleMinimal:
		return "minimal"
	case StyleZealousDiff3:
		return "zealous-diff3"
	default:
		return "diff3"
	}
}

// ParseStyle resolves one of the external style identifiers from §6/§9.
func ParseStyle(name string) Style {
	switch name {
	case "minimal":
		return StyleMinimal
	case "zealous-diff3":
		return StyleZealousDiff3
	default:
		return StyleDiff3
	}
}

// Labels names the three sides in conflict markup (§9: caller-configurable
// labels). The zero value falls back to §6's own placeholder names.
type Labels struct {
	Base, A, B string
}

func (l Labels) withDefaults() Labels {
	if l.Base == "" {
		l.Base = "ancestor"
	}
	if l.A == "" {
		l.A = "alice"
	}
	if l.B == "" {
		l.B = "bob"
	}
	return l
}

// Markers are the spec's exact 9-character conflict delimiters (§6),
// distinct from git's ordinary 7-character markers.
const (
	markerStart = "<<<<<<<<<"
	markerBase  = "|||||||||"
	markerMid   = "========="
	markerEnd   = ">>>>>>>>>"
)
