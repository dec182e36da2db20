package analysis

import "github.com/wippyai/rcopt/ir"

// ExitReachable returns the indices of the blocks from which some path
// reaches a block that leaves the function (return or unreachable).
//
// Blocks caught in an infinite loop are not in the set.
func ExitReachable(fn *ir.Function) *BitSet {
	blocks := fn.Blocks()
	result := NewBitSet(len(blocks))
	for _, b := range blocks {
		if b.IsExit() {
			result.Set(b.Index())
		}
	}

	// Fixed-point iteration: keep expanding until no changes
	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			if result.Has(b.Index()) {
				continue
			}
			for _, s := range b.Successors() {
				if result.Has(s.Index()) {
					result.Set(b.Index())
					changed = true
					break
				}
			}
		}
	}
	return result
}
