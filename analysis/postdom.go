package analysis

import "github.com/wippyai/rcopt/ir"

// PostDominator answers instruction-level post-dominance queries.
type PostDominator interface {
	PostDominates(a, b *ir.Instruction) bool
}

// PostDominance holds the post-dominator sets of a function's blocks.
//
// Post-dominance is taken with respect to a virtual exit that succeeds every
// return and unreachable block. A block that cannot reach the exit has an
// empty set and is post-dominated by nothing, not even itself.
//
// The block-level sets stay valid while the pass only erases instructions;
// ordering within a block is read from the live instruction list.
type PostDominance struct {
	fn    *ir.Function
	pdoms []*BitSet
}

// NewPostDominance computes post-dominator sets with the iterative dataflow
//
//	pdom(b) = {b} ∪ ⋂ pdom(s) over the successors s of b
//
// starting from the full set for every exit-reaching block. A successor
// that cannot reach the exit is linked straight to the virtual exit, so a
// block branching into one is post-dominated only by itself.
func NewPostDominance(fn *ir.Function) *PostDominance {
	blocks := fn.Blocks()
	n := len(blocks)
	live := ExitReachable(fn)

	pdoms := make([]*BitSet, n)
	for _, b := range blocks {
		set := NewBitSet(n)
		switch {
		case !live.Has(b.Index()):
		case b.IsExit():
			set.Set(b.Index())
		default:
			set.Fill(n)
		}
		pdoms[b.Index()] = set
	}

	// Backward problem: visit blocks in reverse layout order so that most
	// successors are settled first.
	changed := true
	for changed {
		changed = false
		for i := n - 1; i >= 0; i-- {
			b := blocks[i]
			if !live.Has(i) || b.IsExit() {
				continue
			}
			var next *BitSet
			for _, s := range b.Successors() {
				if !live.Has(s.Index()) {
					next = NewBitSet(n)
					break
				}
				if next == nil {
					next = pdoms[s.Index()].Copy()
				} else {
					next.Intersect(pdoms[s.Index()])
				}
			}
			if next == nil {
				next = NewBitSet(n)
			}
			next.Set(i)
			if !next.Equal(pdoms[i]) {
				pdoms[i] = next
				changed = true
			}
		}
	}
	return &PostDominance{fn: fn, pdoms: pdoms}
}

// BlockPostDominates reports whether every path from b to the exit passes
// through a.
func (p *PostDominance) BlockPostDominates(a, b *ir.Block) bool {
	if a.Function() != p.fn || b.Function() != p.fn {
		return false
	}
	return p.pdoms[b.Index()].Has(a.Index())
}

// PostDominates reports whether every path from b to the exit passes
// through a. An instruction post-dominates itself.
func (p *PostDominance) PostDominates(a, b *ir.Instruction) bool {
	ab, bb := a.Block(), b.Block()
	if ab == nil || bb == nil {
		return false
	}
	if !p.BlockPostDominates(ab, bb) {
		return false
	}
	if ab != bb {
		return true
	}
	return a == b || b.ComesBefore(a)
}
