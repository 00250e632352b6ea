// Adapted from imara-diff's histogram algorithm (Rust), itself following
// git's own histogram diff. https://arxiv.org/abs/1902.02467

package diff

const maxChainLen = 63

type histogramIndex[E comparable] struct {
	occurrences map[E][]int
}

func (h *histogramIndex[E]) populate(a []E) {
	for i, e := range a {
		h.occurrences[e] = append(h.occurrences[e], i)
	}
}

func (h *histogramIndex[E]) count(e E) int {
	return len(h.occurrences[e])
}

func (h *histogramIndex[E]) clear() {
	clear(h.occurrences)
}

type lcsRange struct {
	beforeStart int
	afterStart  int
	length      int
}

type lcsSearch[E comparable] struct {
	lcs            lcsRange
	minOccurrences int
	foundCommon    bool
}

func (s *lcsSearch[E]) run(before, after []E, h *histogramIndex[E]) {
	pos := 0
	for pos < len(after) {
		e := after[pos]
		if n := h.count(e); n != 0 {
			s.foundCommon = true
			if n <= s.minOccurrences {
				pos = s.update(before, after, pos, e, h)
				continue
			}
		}
		pos++
	}
	h.clear()
}

func (s *lcsSearch[E]) update(before, after []E, afterPos int, token E, h *histogramIndex[E]) int {
	nextAfterPos := afterPos + 1
	occ := h.occurrences[token]
	beforeAnchor := occ[0]
	idx := 1
occurrences:
	for {
		n := h.count(token)
		s1, s2 := beforeAnchor, afterPos
		for s1 > 0 && s2 > 0 {
			t1, t2 := before[s1-1], after[s2-1]
			if t1 != t2 {
				break
			}
			s1--
			s2--
			n = min(n, h.count(t1))
		}
		e1, e2 := beforeAnchor+1, afterPos+1
		for e1 < len(before) && e2 < len(after) {
			t1, t2 := before[e1], after[e2]
			if t1 != t2 {
				break
			}
			n = min(n, h.count(t1))
			e1++
			e2++
		}
		if nextAfterPos < e2 {
			nextAfterPos = e2
		}
		length := e2 - s2
		if s.lcs.length < length || s.minOccurrences > n {
			s.minOccurrences = n
			s.lcs = lcsRange{beforeStart: s1, afterStart: s2, length: length}
		}
		for {
			if idx >= len(occ) {
				break occurrences
			}
			next := occ[idx]
			idx++
			if next > e2 {
				beforeAnchor = next
				break
			}
		}
	}
	return nextAfterPos
}

func (s *lcsSearch[E]) ok() bool {
	return !s.foundCommon || s.minOccurrences <= maxChainLen
}

func findLCS[E comparable](before, after []E, index *histogramIndex[E]) *lcsRange {
	s := lcsSearch[E]{minOccurrences: maxChainLen + 1}
	s.run(before, after, index)
	if s.ok() {
		return &s.lcs
	}
	return nil
}

type histogramOut struct {
	changes []Change
}

func (h *histogramIndex[E]) run(before []E, beforePos int, after []E, afterPos int, o *histogramOut) {
	for {
		if len(before) == 0 {
			if len(after) != 0 {
				o.changes = append(o.changes, Change{P1: beforePos, P2: afterPos, Ins: len(after)})
			}
			return
		}
		if len(after) == 0 {
			o.changes = append(o.changes, Change{P1: beforePos, P2: afterPos, Del: len(before)})
			return
		}
		h.populate(before)
		lcs := findLCS(before, after, h)
		if lcs == nil {
			// No common line is usable as an anchor (every candidate
			// repeats too often): fall back to ONP for this subrange
			// rather than declaring the whole thing unstable, so the
			// output stays a useful correspondence rather than one
			// giant replace.
			o.changes = append(o.changes, onpDiff(before, beforePos, after, afterPos)...)
			return
		}
		if lcs.length == 0 {
			o.changes = append(o.changes, Change{P1: beforePos, P2: afterPos, Del: len(before), Ins: len(after)})
			return
		}
		h.run(before[:lcs.beforeStart], beforePos, after[:lcs.afterStart], afterPos, o)
		e1 := lcs.beforeStart + lcs.length
		before = before[e1:]
		beforePos += e1
		e2 := lcs.afterStart + lcs.length
		after = after[e2:]
		afterPos += e2
	}
}

// HistogramDiff implements the recursive lowest-occurrence-anchor
// strategy from §4.1: find the rarest shared line, pair its occurrences
// in order, and recurse on the gaps before and after each anchor.
func HistogramDiff[E comparable](before, after []E) []Change {
	prefix := commonPrefixLength(before, after)
	before = before[prefix:]
	after = after[prefix:]
	suffix := commonSuffixLength(before, after)
	before = before[:len(before)-suffix]
	after = after[:len(after)-suffix]
	h := &histogramIndex[E]{occurrences: make(map[E][]int, len(before))}
	o := &histogramOut{changes: make([]Change, 0, 64)}
	h.run(before, prefix, after, prefix, o)
	return o.changes
}
