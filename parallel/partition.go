// SPDX-License-Identifier: MIT

package parallel

// Span is the half-open index range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns End - Start.
func (s Span) Len() int { return s.End - s.Start }

// Partition splits [0, total) into jobs contiguous spans of total/jobs
// items each; the last span absorbs the remainder.
//
// jobs is clamped to [1, total] so that no span is empty. A non-positive
// total yields nil.
//
// Complexity: O(jobs).
func Partition(total, jobs int) []Span {
	if total <= 0 {
		return nil
	}
	if jobs < 1 {
		jobs = 1
	}
	if jobs > total {
		jobs = total
	}

	size := total / jobs
	spans := make([]Span, jobs)
	for i := 0; i < jobs-1; i++ {
		spans[i] = Span{Start: i * size, End: (i + 1) * size}
	}
	spans[jobs-1] = Span{Start: (jobs - 1) * size, End: total}

	return spans
}
