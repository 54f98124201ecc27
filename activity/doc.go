// Package activity computes, for one node, the probability of being
// active in every slot of a finite horizon.
//
// Model:
//
//	A node charges for c slots, waits a random delay X drawn from a
//	distribution, and is active for one slot. It then charges again. Wake-up
//	times therefore form a renewal process with inter-arrival time c + X.
//	The probability of being active at slot t is the sum, over the wake-up
//	index i, of P(the i-th wake-up falls on t). The i-th term is the pmf of
//	i+1 summed delays, shifted by i·c.
//
// Convergence:
//
//	The sum settles into a steady state after a few periods. Once the
//	output has been flat over the last ten renewal periods (sample standard
//	deviation below 1e-9), the rest of the horizon is filled by repeating
//	that stable window and no more convolutions are performed.
//
// Usage:
//
//	d, _ := distribution.New(distribution.Geometric, 0.5)
//	p, err := activity.Synthesize(d, 100, 100000)
package activity
