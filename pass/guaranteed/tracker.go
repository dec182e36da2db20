package guaranteed

import (
	"github.com/wippyai/rcopt/analysis"
	"github.com/wippyai/rcopt/ir"
)

// tracker maps identity roots to the most recent increment seen in the
// current block.
type tracker struct {
	id   analysis.Identity
	last map[*ir.Value]*ir.Instruction
}

func newTracker(id analysis.Identity) *tracker {
	return &tracker{id: id, last: make(map[*ir.Value]*ir.Instruction)}
}

// record remembers inc as the latest increment of its operand's root.
func (t *tracker) record(inc *ir.Instruction) {
	t.last[t.id.Root(inc.Operand(0))] = inc
}

// lookup returns the latest increment of root, if any.
func (t *tracker) lookup(root *ir.Value) (*ir.Instruction, bool) {
	inc, ok := t.last[root]
	return inc, ok
}

// forget drops inc, which is about to be erased.
func (t *tracker) forget(inc *ir.Instruction) {
	for root, cur := range t.last {
		if cur == inc {
			delete(t.last, root)
		}
	}
}
