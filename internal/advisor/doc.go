// Package advisor turns a session snapshot into a strategic recommendation
// for one seat.
//
// Preflop, the recommendation comes from the range book: an unopened pot
// uses the hero's open chart, a single raise uses the 3-bet chart and then
// the call chart against the raiser's seat. Everything else, and every
// postflop spot, falls back to an equity heuristic against the pot odds.
//
// # Frequencies
//
// A Recommendation carries a primary action with a frequency and up to two
// alternatives with their own frequencies. The frequencies are
// informational: the first alternative gets one minus the primary
// frequency, and the second alternative, listed only in marginal spots,
// is not carved out of the first. The reported frequencies are therefore
// NOT required to sum to 1 and must not be read as a full mixed strategy.
package advisor
