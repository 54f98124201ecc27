// Package parallel splits an index range into ordered contiguous spans and
// maps a function over items on a bounded worker pool, returning results
// in input order.
//
// The pair is used to fan the rendezvous computation out over the slot
// axis: Partition decides the spans, Map runs one task per span, and the
// caller stacks the results back in span order. Because spans never
// overlap and results are placed by index, reassembly is exact.
//
// Guarantees:
//   - Partition is deterministic: same (total, jobs) ⇒ same spans.
//   - Map is synchronous and all-or-nothing: on the first error (or a
//     cancelled context) the remaining tasks are skipped and no partial
//     results are returned.
package parallel
