package ir

// Builder appends instructions to a block of a function.
type Builder struct {
	fn  *Function
	blk *Block
}

// NewBuilder creates a builder for fn. Call SetBlock before emitting.
func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn}
}

// Function returns the function being built.
func (b *Builder) Function() *Function { return b.fn }

// Block returns the current insertion block.
func (b *Builder) Block() *Block { return b.blk }

// SetBlock sets the insertion block.
func (b *Builder) SetBlock(blk *Block) {
	if blk.fn != b.fn {
		panic("BUG: block " + blk.Label + " belongs to another function")
	}
	b.blk = blk
}

// Emit appends an instruction with the given opcode, result count and
// operands to the current block.
func (b *Builder) Emit(op Opcode, numResults int, operands ...*Value) *Instruction {
	inst := b.fn.newInstruction(op, numResults, len(operands))
	for n, v := range operands {
		inst.SetOperand(n, v)
	}
	b.blk.Append(inst)
	return inst
}

// Retain emits a strong retain of v.
func (b *Builder) Retain(v *Value) *Instruction { return b.Emit(OpRetain, 0, v) }

// RetainValue emits a retain of an aggregate value.
func (b *Builder) RetainValue(v *Value) *Instruction { return b.Emit(OpRetainValue, 0, v) }

// Release emits a strong release of v.
func (b *Builder) Release(v *Value) *Instruction { return b.Emit(OpRelease, 0, v) }

// ReleaseValue emits a release of an aggregate value.
func (b *Builder) ReleaseValue(v *Value) *Instruction { return b.Emit(OpReleaseValue, 0, v) }

// GuaranteeBegin emits a guarantee_begin with a single tuple result. Its
// value and token are projected with Extract.
func (b *Builder) GuaranteeBegin(v *Value) *Instruction { return b.Emit(OpGuaranteeBegin, 1, v) }

// GuaranteeBeginPair emits a guarantee_begin with direct value and token
// results.
func (b *Builder) GuaranteeBeginPair(v *Value) (value, token *Value) {
	inst := b.Emit(OpGuaranteeBegin, 2, v)
	return inst.results[0], inst.results[1]
}

// GuaranteeEnd emits a guarantee_end consuming token.
func (b *Builder) GuaranteeEnd(token *Value) *Instruction { return b.Emit(OpGuaranteeEnd, 0, token) }

// Extract emits a projection of tuple element idx.
func (b *Builder) Extract(tuple *Value, idx int) *Value {
	inst := b.Emit(OpExtract, 1, tuple)
	inst.Imm = int64(idx)
	return inst.results[0]
}

// Apply emits a call without result.
func (b *Builder) Apply(callee string, args ...*Value) *Instruction {
	inst := b.Emit(OpApply, 0, args...)
	inst.Callee = callee
	return inst
}

// ApplyValue emits a call producing one result.
func (b *Builder) ApplyValue(callee string, args ...*Value) *Value {
	inst := b.Emit(OpApply, 1, args...)
	inst.Callee = callee
	return inst.results[0]
}

// PartialApply emits a closure construction.
func (b *Builder) PartialApply(callee string, args ...*Value) *Value {
	inst := b.Emit(OpPartialApply, 1, args...)
	inst.Callee = callee
	return inst.results[0]
}

// DebugValue emits debug info for v.
func (b *Builder) DebugValue(v *Value) *Instruction { return b.Emit(OpDebugValue, 0, v) }

// Cast emits a reference-identity preserving conversion.
func (b *Builder) Cast(v *Value) *Value { return b.Emit(OpCast, 1, v).results[0] }

// Alloc emits an allocation of the named type.
func (b *Builder) Alloc(typ string) *Value {
	inst := b.Emit(OpAlloc, 1)
	inst.Callee = typ
	return inst.results[0]
}

// Literal emits an integer constant.
func (b *Builder) Literal(n int64) *Value {
	inst := b.Emit(OpLiteral, 1)
	inst.Imm = n
	return inst.results[0]
}

// Symbol emits a reference to a named global or function.
func (b *Builder) Symbol(name string) *Value {
	inst := b.Emit(OpLiteral, 1)
	inst.Callee = name
	return inst.results[0]
}

// Load emits a memory read.
func (b *Builder) Load(addr *Value) *Value { return b.Emit(OpLoad, 1, addr).results[0] }

// Store emits a memory write of v to addr.
func (b *Builder) Store(v, addr *Value) *Instruction { return b.Emit(OpStore, 0, v, addr) }

// Phi emits a merge of incoming values, one per predecessor.
func (b *Builder) Phi(incoming ...*Value) *Value { return b.Emit(OpPhi, 1, incoming...).results[0] }

// Op emits a generic side-effect free operation.
func (b *Builder) Op(name string, args ...*Value) *Value {
	inst := b.Emit(OpOp, 1, args...)
	inst.Callee = name
	return inst.results[0]
}

// Br emits an unconditional branch.
func (b *Builder) Br(target *Block) *Instruction {
	inst := b.Emit(OpBr, 0)
	inst.targets = []*Block{target}
	return inst
}

// CondBr emits a two-way conditional branch.
func (b *Builder) CondBr(cond *Value, then, els *Block) *Instruction {
	inst := b.Emit(OpCondBr, 0, cond)
	inst.targets = []*Block{then, els}
	return inst
}

// Return emits a function return.
func (b *Builder) Return(vals ...*Value) *Instruction { return b.Emit(OpReturn, 0, vals...) }

// Unreachable emits a trap.
func (b *Builder) Unreachable() *Instruction { return b.Emit(OpUnreachable, 0) }

// SetTargets sets the successor blocks of a terminator. Used by readers that
// create terminators before all blocks are known.
func (i *Instruction) SetTargets(targets ...*Block) {
	i.targets = targets
}

// NewDetached allocates an instruction that is not yet in any block. Link
// it with Block.Append, Block.Prepend or Block.InsertBefore.
func (f *Function) NewDetached(op Opcode, numResults int, operands ...*Value) *Instruction {
	inst := f.newInstruction(op, numResults, len(operands))
	for n, v := range operands {
		inst.SetOperand(n, v)
	}
	return inst
}
