// Package rendezvous turns per-node activity into per-link rendezvous
// probabilities.
//
// For a row of node activities a[0..N) and a link (i, j), the probability
// that exactly i and j are active in that slot, and so meet without a
// third node colliding, is
//
//	a[i]·a[j] · Π_{k∉{i,j}} (1 − a[k])
//
// Links enumerate the unordered node pairs in lexicographic order; the
// column order of every matrix produced here follows that enumeration.
//
// Compute is the serial kernel. ComputeParallel splits the slot axis into
// contiguous partitions, runs Compute on read-only row views and stacks
// the results back in slot order; its output is bit-identical to Compute.
package rendezvous
