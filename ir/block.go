package ir

// Block is a basic block: a straight-line instruction sequence ending in a
// terminator.
type Block struct {
	Label string

	fn    *Function
	first *Instruction
	last  *Instruction
	n     int
	index int
}

// Function returns the function owning the block.
func (b *Block) Function() *Function { return b.fn }

// Index returns the block's position in its function's layout.
func (b *Block) Index() int { return b.index }

// First returns the first instruction, or nil for an empty block.
func (b *Block) First() *Instruction { return b.first }

// Last returns the last instruction, or nil for an empty block.
func (b *Block) Last() *Instruction { return b.last }

// Len returns the number of instructions in the block.
func (b *Block) Len() int { return b.n }

// Instructions returns a snapshot of the block's instructions in order.
func (b *Block) Instructions() []*Instruction {
	out := make([]*Instruction, 0, b.n)
	for cur := b.first; cur != nil; cur = cur.next {
		out = append(out, cur)
	}
	return out
}

// Terminator returns the block's terminator, or nil if the block does not
// end with one.
func (b *Block) Terminator() *Instruction {
	if b.last != nil && b.last.IsTerminator() {
		return b.last
	}
	return nil
}

// Successors returns the blocks control may transfer to from b.
func (b *Block) Successors() []*Block {
	if t := b.Terminator(); t != nil {
		return t.targets
	}
	return nil
}

// IsExit reports whether control leaves the function at the end of b.
func (b *Block) IsExit() bool {
	t := b.Terminator()
	return t != nil && (t.op == OpReturn || t.op == OpUnreachable)
}

// Append adds inst at the end of the block.
func (b *Block) Append(inst *Instruction) {
	b.insertAfter(inst, b.last)
}

// InsertBefore links inst into the block immediately before pos. A nil pos
// appends.
func (b *Block) InsertBefore(inst, pos *Instruction) {
	if pos == nil {
		b.Append(inst)
		return
	}
	if pos.block != b {
		panic("BUG: insertion point belongs to another block")
	}
	b.insertAfter(inst, pos.prev)
}

// Prepend adds inst at the start of the block.
func (b *Block) Prepend(inst *Instruction) {
	b.insertAfter(inst, nil)
}

// insertAfter links inst after prev; a nil prev inserts at the front.
func (b *Block) insertAfter(inst, prev *Instruction) {
	if inst.block != nil {
		panic("BUG: instruction " + inst.op.String() + " is already in a block")
	}
	inst.block = b
	inst.prev = prev
	if prev == nil {
		inst.next = b.first
		b.first = inst
	} else {
		inst.next = prev.next
		prev.next = inst
	}
	if inst.next != nil {
		inst.next.prev = inst
	} else {
		b.last = inst
	}
	b.n++
}

func (b *Block) unlink(inst *Instruction) {
	if inst.prev != nil {
		inst.prev.next = inst.next
	} else {
		b.first = inst.next
	}
	if inst.next != nil {
		inst.next.prev = inst.prev
	} else {
		b.last = inst.prev
	}
	inst.prev, inst.next, inst.block = nil, nil, nil
	b.n--
}

func (b *Block) String() string {
	return "$" + b.Label
}
