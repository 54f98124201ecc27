// SPDX-License-Identifier: MIT

package rendezvous

import "fmt"

// Link is an unordered node pair with A < B.
type Link struct {
	A int
	B int
}

// String renders the link as "A-B".
func (l Link) String() string { return fmt.Sprintf("%d-%d", l.A, l.B) }

// Links returns all 2-combinations of [0, n) in lexicographic order:
// (0,1), (0,2), …, (0,n-1), (1,2), …, (n-2,n-1). n < 2 yields nil.
func Links(n int) []Link {
	if n < 2 {
		return nil
	}
	out := make([]Link, 0, n*(n-1)/2)
	for a := 0; a < n-1; a++ {
		for b := a + 1; b < n; b++ {
			out = append(out, Link{A: a, B: b})
		}
	}
	return out
}

// LinkCount is n·(n−1)/2.
func LinkCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
