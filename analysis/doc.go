// Package analysis provides the function-level analyses consumed by the
// optimization passes: reference-count identity roots and post-dominance.
//
// Both analyses are computed per function and are not safe for concurrent
// use. The pass manager owns their lifetime and drops them when a pass
// reports that it changed the function.
package analysis
