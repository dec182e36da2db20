package guaranteed

import "github.com/wippyai/rcopt/ir"

// verify checks that removing the retain/release pair of c is sound and
// locates the release.
func (s *scanner) verify(c *candidate) reason {
	if !s.am.PostDominance().PostDominates(c.end, c.begin) {
		return reasonNotPostDominated
	}
	c.release = s.findRelease(c)
	if c.release == nil {
		return reasonNoRelease
	}
	return reasonNone
}

// findRelease searches the end's block for a decrement of c.root, first
// after the end and then before it. Decrements of other roots are skipped;
// any other side effect except debug info stops the search. The backward
// search never passes the begin.
func (s *scanner) findRelease(c *candidate) *ir.Instruction {
	for cur := c.end.Next(); cur != nil; cur = cur.Next() {
		rel, stop := s.releaseStep(c, cur)
		if rel != nil {
			return rel
		}
		if stop {
			break
		}
	}
	for cur := c.end.Prev(); cur != nil && cur != c.begin; cur = cur.Prev() {
		rel, stop := s.releaseStep(c, cur)
		if rel != nil {
			return rel
		}
		if stop {
			break
		}
	}
	return nil
}

// releaseStep classifies cur during the release search.
func (s *scanner) releaseStep(c *candidate, cur *ir.Instruction) (release *ir.Instruction, stop bool) {
	if cur.IsDecrement() {
		if s.id.Root(cur.Operand(0)) == c.root {
			return cur, false
		}
		return nil, false
	}
	return nil, cur.MayHaveSideEffects() && !cur.IsDebugValue()
}
