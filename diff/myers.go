/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See License.txt in the project root for license information.
 *--------------------------------------------------------------------------------------------*/
// Adapted from the shortest-edit-script formulation in VS Code's default
// line-diff computer (src/vs/editor/common/diff/defaultLinesDiffComputer).

package diff

import "slices"

// MyersDiff computes the classic O((m+n)·D) shortest edit script between
// two element sequences. Tie-breaks in the backtrack favor the most
// recently extended snake, which is what makes its output deterministic
// (§9): re-running it on identical input always walks the same path.
func MyersDiff[E comparable](seq1, seq2 []E) []Change {
	if len(seq1) == 0 && len(seq2) == 0 {
		return []Change{}
	}
	if len(seq1) == 0 {
		return []Change{{Ins: len(seq2)}}
	}
	if len(seq2) == 0 {
		return []Change{{Del: len(seq1)}}
	}
	seqX := seq1
	seqY := seq2
	getXAfterSnake := func(x, y int) int {
		for x < len(seqX) && y < len(seqY) && seqX[x] == seqY[y] {
			y++
			x++
		}
		return x
	}
	V := newFastIntArray()
	V.set(0, getXAfterSnake(0, 0))
	paths := &fastSnakeArray{
		positive: make(map[int]*snakePath),
		negative: make(map[int]*snakePath),
	}
	if V.get(0) == 0 {
		paths.set(0, nil)
	} else {
		paths.set(0, newSnakePath(nil, 0, 0, V.get(0)))
	}
	d := 0
	k := 0
outer:
	for {
		d++
		lowerBound := -min(d, len(seqY)+(d%2))
		upperBound := min(d, len(seqX)+(d%2))
		for k = lowerBound; k <= upperBound; k += 2 {
			maxXofDLineTop, maxXofDLineLeft := -1, -1
			if k != upperBound {
				maxXofDLineTop = V.get(k + 1)
			}
			if k != lowerBound {
				maxXofDLineLeft = V.get(k-1) + 1
			}
			x := min(max(maxXofDLineTop, maxXofDLineLeft), len(seqX))
			y := x - k
			if x > len(seqX) || y > len(seqY) {
				continue
			}
			newMaxX := getXAfterSnake(x, y)
			V.set(k, newMaxX)
			var lastPath *snakePath
			if x == maxXofDLineTop {
				lastPath = paths.get(k + 1)
			} else {
				lastPath = paths.get(k - 1)
			}
			if newMaxX != x {
				paths.set(k, newSnakePath(lastPath, x, y, newMaxX-x))
			} else {
				paths.set(k, lastPath)
			}
			if V.get(k) == len(seqX) && V.get(k)-k == len(seqY) {
				break outer
			}
		}
	}
	path := paths.get(k)
	lastX, lastY := len(seqX), len(seqY)
	changes := make([]Change, 0, 10)
	for {
		var endX, endY int
		if path != nil {
			endX = path.x + path.length
			endY = path.y + path.length
		}
		if endX != lastX || endY != lastY {
			changes = append(changes, Change{P1: endX, P2: endY, Del: lastX - endX, Ins: lastY - endY})
		}
		if path == nil {
			break
		}
		lastX, lastY = path.x, path.y
		path = path.pre
	}
	slices.Reverse(changes)
	return changes
}

type snakePath struct {
	pre          *snakePath
	x, y, length int
}

func newSnakePath(pre *snakePath, x, y, length int) *snakePath {
	return &snakePath{pre: pre, x: x, y: y, length: length}
}

// fastIntArray supports cheap negative indices without reallocating on
// every access, mirroring the diagonal-indexed V array from the paper.
type fastIntArray struct {
	positive []int
	negative []int
}

func newFastIntArray() *fastIntArray {
	return &fastIntArray{positive: make([]int, 10), negative: make([]int, 10)}
}

func (t *fastIntArray) get(i int) int {
	if i < 0 {
		return t.negative[-i-1]
	}
	return t.positive[i]
}

func (t *fastIntArray) set(i int, v int) {
	if i < 0 {
		i = -i - 1
		if i >= len(t.negative) {
			grown := make([]int, len(t.negative)*2)
			copy(grown, t.negative)
			t.negative = grown
		}
		t.negative[i] = v
		return
	}
	if i >= len(t.positive) {
		grown := make([]int, len(t.positive)*2)
		copy(grown, t.positive)
		t.positive = grown
	}
	t.positive[i] = v
}

type fastSnakeArray struct {
	positive map[int]*snakePath
	negative map[int]*snakePath
}

func (t *fastSnakeArray) get(i int) *snakePath {
	if i < 0 {
		return t.negative[-i-1]
	}
	return t.positive[i]
}

func (t *fastSnakeArray) set(i int, v *snakePath) {
	if i < 0 {
		t.negative[-i-1] = v
		return
	}
	t.positive[i] = v
}
