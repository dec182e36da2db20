package guaranteed

import "github.com/wippyai/rcopt/ir"

// rewrite removes the verified scope c from its block and returns the
// instruction the scan resumes at.
func (s *scanner) rewrite(tr *tracker, c *candidate) *ir.Instruction {
	blk := c.begin.Block()
	resume := c.retain.Prev()

	for _, inst := range s.nestedPairs(c) {
		inst.Erase()
	}

	tr.forget(c.retain)
	c.retain.Erase()
	c.release.Erase()
	c.end.Erase()

	ir.DeleteAllDebugUses(c.value.value)
	ir.DeleteAllDebugUses(c.token.value)
	tuple := c.tuple()
	if tuple != nil {
		ir.DeleteAllDebugUses(tuple)
	}

	c.value.value.ReplaceAllUsesWith(c.operand)
	if c.value.extract != nil {
		c.value.extract.Erase()
	}
	if c.token.extract != nil {
		c.token.extract.Erase()
	}
	if tuple != nil {
		tuple.ReplaceAllUsesWith(c.operand)
	}
	c.begin.Erase()

	if resume == nil || resume.Block() != blk {
		return blk.First()
	}
	return resume
}

// nestedPairs finds retain/release pairs of c.root strictly inside the
// scope that can go together with the outer pair. It only applies when the
// whole scope lives in one block.
//
// A single candidate retain is tracked. Side effects other than calls and
// debug info clear it; a release of the same root while it is set pairs
// with it.
func (s *scanner) nestedPairs(c *candidate) []*ir.Instruction {
	blk := c.begin.Block()
	if c.end.Block() != blk || c.retain.Block() != blk || c.release.Block() != blk {
		return nil
	}

	var dead []*ir.Instruction
	var cand *ir.Instruction
	for cur := c.begin; cur != nil && cur != c.release && cur != c.end; cur = cur.Next() {
		if cur != c.retain && cur.IsIncrement() && s.id.Root(cur.Operand(0)) == c.root {
			cand = cur
			continue
		}
		if !cur.MayHaveSideEffects() || cur.IsDebugValue() || cur.IsCallLike() {
			continue
		}
		if cand != nil && cur.IsDecrement() && s.id.Root(cur.Operand(0)) == c.root {
			dead = append(dead, cand, cur)
		}
		cand = nil
	}
	return dead
}
