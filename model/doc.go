// Package model assembles a clique of duty-cycled nodes and answers
// discovery queries about it.
//
// A Model holds one activity column per node, shifted by that node's
// wake-up offset and cut to a common number of rows:
//
//	rows     = slots − max(offsets) − 1
//	column i = activity_i[offset_i : offset_i+rows]
//
// From that matrix it derives, on demand:
//
//   - Rendezvous: per slot and link, the probability that exactly the two
//     link nodes are active (computed on a worker pool, see
//     rendezvous.ComputeParallel);
//   - CDF: per link, the probability of at least one rendezvous by slot t;
//   - DiscoveryFraction: the mean CDF across links, with a convergence
//     warning when its final value stays below a threshold;
//   - DiscoveryQuantile and DiscoveryLatency: the first slot reaching a
//     fraction, and the expected slot of discovery.
//
// Homogeneous models (New) replicate one activity vector and, unless told
// otherwise, spread the node offsets evenly over one mean wake-up period.
// Heterogeneous models (NewHeterogeneous) synthesize one vector per
// distinct (scale, charging time) pair and require explicit offsets.
//
// A Model is immutable after construction; every query recomputes from
// the stored activity matrix and is safe for concurrent use.
package model
