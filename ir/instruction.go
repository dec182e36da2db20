package ir

// Instruction is a single IR operation. It lives in exactly one Block until
// it is erased.
type Instruction struct {
	// Callee names the called function for apply/partial_apply, the allocated
	// type for alloc, the symbol for literal and the operation for op.
	Callee string
	// Imm is the extracted tuple index for extract and the constant for literal.
	Imm int64
	// Line is the source line the instruction was read from, if any.
	Line int

	targets  []*Block
	operands []*Value
	results  []*Value
	block    *Block
	prev     *Instruction
	next     *Instruction
	op       Opcode
}

// Op returns the instruction's opcode.
func (i *Instruction) Op() Opcode { return i.op }

// Block returns the block containing the instruction, or nil once erased.
func (i *Instruction) Block() *Block { return i.block }

// Next returns the following instruction in the block, or nil.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the preceding instruction in the block, or nil.
func (i *Instruction) Prev() *Instruction { return i.prev }

// Operands returns the instruction's operands. The slice must not be modified.
func (i *Instruction) Operands() []*Value { return i.operands }

// Operand returns the n-th operand.
func (i *Instruction) Operand(n int) *Value { return i.operands[n] }

// NumOperands returns the number of operands.
func (i *Instruction) NumOperands() int { return len(i.operands) }

// Results returns the values defined by the instruction.
func (i *Instruction) Results() []*Value { return i.results }

// Result returns the n-th result.
func (i *Instruction) Result(n int) *Value { return i.results[n] }

// NumResults returns the number of results.
func (i *Instruction) NumResults() int { return len(i.results) }

// Targets returns the successor blocks of a terminator.
func (i *Instruction) Targets() []*Block { return i.targets }

// SetOperand replaces the n-th operand, keeping use lists consistent.
func (i *Instruction) SetOperand(n int, v *Value) {
	old := i.operands[n]
	if old == v {
		return
	}
	if old != nil {
		old.removeUse(Use{User: i, Index: n})
	}
	i.operands[n] = v
	if v != nil {
		v.addUse(Use{User: i, Index: n})
	}
}

// MayHaveSideEffects reports whether the instruction may write memory,
// change reference counts or otherwise be observable.
func (i *Instruction) MayHaveSideEffects() bool { return i.op.Info().SideEffects }

// IsTerminator reports whether the instruction ends its block.
func (i *Instruction) IsTerminator() bool { return i.op.Info().Terminator }

// IsIncrement reports whether the instruction is retain or retain_value.
func (i *Instruction) IsIncrement() bool { return i.op.IsIncrement() }

// IsDecrement reports whether the instruction is release or release_value.
func (i *Instruction) IsDecrement() bool { return i.op.IsDecrement() }

// IsBeginGuarantee reports whether the instruction is guarantee_begin.
func (i *Instruction) IsBeginGuarantee() bool { return i.op == OpGuaranteeBegin }

// IsEndGuarantee reports whether the instruction is guarantee_end.
func (i *Instruction) IsEndGuarantee() bool { return i.op == OpGuaranteeEnd }

// IsDebugValue reports whether the instruction only carries debug info.
func (i *Instruction) IsDebugValue() bool { return i.op == OpDebugValue }

// IsCallLike reports whether the instruction is apply or partial_apply.
func (i *Instruction) IsCallLike() bool { return i.op.IsCallLike() }

// IsErased reports whether the instruction has been removed from its block.
func (i *Instruction) IsErased() bool { return i.block == nil }

// Erase removes the instruction from its block and drops its operand uses.
// All results must already be unused.
func (i *Instruction) Erase() {
	if i.block == nil {
		panic("BUG: erasing an instruction twice: " + i.op.String())
	}
	for _, r := range i.results {
		if r.HasUses() {
			panic("BUG: erasing " + i.op.String() + " while " + r.String() + " is still used")
		}
	}
	for n, v := range i.operands {
		if v != nil {
			v.removeUse(Use{User: i, Index: n})
		}
	}
	i.operands = nil
	i.block.unlink(i)
}

// ComesBefore reports whether i precedes other within the same block.
// It returns false when they are in different blocks.
func (i *Instruction) ComesBefore(other *Instruction) bool {
	if i.block == nil || i.block != other.block {
		return false
	}
	for cur := i.next; cur != nil; cur = cur.next {
		if cur == other {
			return true
		}
	}
	return false
}

func (i *Instruction) String() string {
	return FormatInstruction(i)
}
