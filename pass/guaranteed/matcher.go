package guaranteed

import "github.com/wippyai/rcopt/ir"

// projection is one logical result of a guarantee_begin. In the tuple
// encoding extract is the projecting instruction; for direct results it is
// nil.
type projection struct {
	value   *ir.Value
	extract *ir.Instruction
}

// candidate is a guarantee scope under consideration.
type candidate struct {
	retain  *ir.Instruction
	begin   *ir.Instruction
	end     *ir.Instruction
	release *ir.Instruction // set by verify

	operand *ir.Value
	root    *ir.Value
	value   projection
	token   projection
}

// tuple returns the single tuple result of a begin in the tuple encoding.
func (c *candidate) tuple() *ir.Value {
	if c.begin.NumResults() == 1 {
		return c.begin.Result(0)
	}
	return nil
}

// match builds a candidate for the guarantee_begin g from the tracked
// retains of the current block.
func (s *scanner) match(tr *tracker, g *ir.Instruction) (*candidate, reason) {
	c := &candidate{begin: g, operand: g.Operand(0)}
	c.root = s.id.Root(c.operand)

	retain, ok := tr.lookup(c.root)
	if !ok {
		return nil, reasonNoRetain
	}
	if !adjacent(retain, g) {
		return nil, reasonRetainNotAdjacent
	}
	c.retain = retain

	if r := resolveResults(c); r != reasonNone {
		return nil, r
	}

	end, r := endUser(c.token.value)
	if r != reasonNone {
		return nil, r
	}
	c.end = end
	return c, reasonNone
}

// adjacent reports whether only retains, side-effect free instructions and
// debug info lie between retain and g.
func adjacent(retain, g *ir.Instruction) bool {
	cur := retain.Next()
	for cur != nil && cur != g {
		if !cur.IsIncrement() && cur.MayHaveSideEffects() && !cur.IsDebugValue() {
			return false
		}
		cur = cur.Next()
	}
	return cur == g
}

// resolveResults fills in the value and token projections of c.begin.
func resolveResults(c *candidate) reason {
	g := c.begin
	if g.NumResults() == 2 {
		c.value = projection{value: g.Result(0)}
		c.token = projection{value: g.Result(1)}
		return reasonNone
	}

	for _, u := range g.Result(0).NonDebugUses() {
		user := u.User
		switch {
		case user.Op() == ir.OpExtract && user.Imm == 0:
			if c.value.extract != nil {
				return reasonAmbiguousResult
			}
			c.value = projection{value: user.Result(0), extract: user}
		case user.Op() == ir.OpExtract && user.Imm == 1:
			if c.token.extract != nil {
				return reasonAmbiguousResult
			}
			c.token = projection{value: user.Result(0), extract: user}
		case user.Op() == ir.OpRetainValue, user.Op() == ir.OpReleaseValue:
			// Rewritten to the operand together with the value.
		default:
			return reasonForeignUse
		}
	}
	if c.value.extract == nil || c.token.extract == nil {
		return reasonUnresolvedResult
	}
	return reasonNone
}

// endUser returns the single guarantee_end consuming token.
func endUser(token *ir.Value) (*ir.Instruction, reason) {
	uses := token.NonDebugUses()
	switch {
	case len(uses) == 0:
		return nil, reasonNoEnd
	case len(uses) > 1:
		return nil, reasonManyEnds
	case !uses[0].User.IsEndGuarantee():
		return nil, reasonTokenEscapes
	}
	return uses[0].User, reasonNone
}
