// Package distribution provides the discrete wake-up delay distributions
// used by the discovery model.
//
// What is here?
//
//	A closed set of variants selected by Kind:
//	  • Geometric(p)  — delay k ≥ 0 with P(k) = p(1-p)^k
//	  • Uniform(n)    — delay k ∈ {0, …, n-1}, each with P(k) = 1/n
//	  • Poisson(λ)    — delay k ≥ 0 with P(k) = λ^k e^{-λ} / k!
//
//	Every variant is served by the same *Dist type and exposes:
//	  • PMF / CDF for single indices and for index slices
//	  • InverseCDF for sampling and for quantized firmware tables
//	  • Expectation and MinSupport (where the mass becomes negligible)
//	  • Renewal(n): an iterator over the pmfs of 1..n summed draws,
//	    each obtained by convolving the previous one with the base pmf
//	  • Sampler and Sample: seeded inverse-transform draws on PCG streams
//
// Indexing:
//
//	Slot indices are 0-based for all variants. The geometric variant is
//	1-indexed in the textbook sense (number of trials), and is shifted by
//	one here so that delay 0 means "wake in the first slot after charging".
//	Expectation keeps the textbook mean 1/p for the geometric variant; it is
//	only used to space default node offsets.
//
// Errors:
//
//	Out-of-domain inputs wrap disco.ErrInvalidArgument; NaN/Inf or values
//	outside [0,1] wrap disco.ErrNumericAnomaly.
//
// Usage:
//
//	d, err := distribution.New(distribution.Geometric, 0.5)
//	p, err := d.PMF(3)                     // 0.0625
//	it, err := d.Renewal(10)
//	for it.Next() {
//		pmf := it.PMF()                    // pmf of it.Index()+1 draws
//	}
//	if err := it.Err(); err != nil { ... }
package distribution
