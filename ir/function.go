package ir

// Module is a compilation unit: an ordered list of functions.
type Module struct {
	Functions []*Function
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// AddFunction appends fn to the module.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// Function returns the function with the given name, or nil.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Clone returns a deep copy of the module.
func (m *Module) Clone() *Module {
	out := &Module{Functions: make([]*Function, len(m.Functions))}
	for i, fn := range m.Functions {
		out.Functions[i] = fn.Clone()
	}
	return out
}

// Function is an ordered list of basic blocks with arguments.
type Function struct {
	Name string

	args   []*Value
	blocks []*Block
	nextID int
}

// NewFunction creates an empty function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// AddArg appends a function argument.
func (f *Function) AddArg(name string) *Value {
	v := f.newValue(name)
	v.index = len(f.args)
	f.args = append(f.args, v)
	return v
}

// Args returns the function arguments.
func (f *Function) Args() []*Value { return f.args }

// NewBlock appends an empty block to the function layout.
func (f *Function) NewBlock(label string) *Block {
	b := &Block{Label: label, fn: f, index: len(f.blocks)}
	f.blocks = append(f.blocks, b)
	return b
}

// Blocks returns the function's blocks in layout order.
func (f *Function) Blocks() []*Block { return f.blocks }

// Entry returns the entry block, or nil for a function without a body.
func (f *Function) Entry() *Block {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// Block returns the block with the given label, or nil.
func (f *Function) Block(label string) *Block {
	for _, b := range f.blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Predecessors maps each block to the blocks branching to it, in layout
// order of the branching blocks.
func (f *Function) Predecessors() map[*Block][]*Block {
	preds := make(map[*Block][]*Block, len(f.blocks))
	for _, b := range f.blocks {
		for _, s := range b.Successors() {
			preds[s] = appendUniqueBlock(preds[s], b)
		}
	}
	return preds
}

// NumInstructions returns the total instruction count over all blocks.
func (f *Function) NumInstructions() int {
	n := 0
	for _, b := range f.blocks {
		n += b.n
	}
	return n
}

// Clone returns a deep copy of the function. Values and blocks keep their
// names, so the copy prints identically.
func (f *Function) Clone() *Function {
	out := NewFunction(f.Name)
	vals := make(map[*Value]*Value)
	for _, a := range f.args {
		na := out.AddArg(a.Name)
		na.id = a.id
		vals[a] = na
	}
	blocks := make(map[*Block]*Block, len(f.blocks))
	for _, b := range f.blocks {
		blocks[b] = out.NewBlock(b.Label)
	}

	type pending struct {
		src, dst *Instruction
	}
	var insts []pending
	for _, b := range f.blocks {
		nb := blocks[b]
		for cur := b.first; cur != nil; cur = cur.next {
			ni := out.newInstruction(cur.op, len(cur.results), len(cur.operands))
			ni.Callee = cur.Callee
			ni.Imm = cur.Imm
			ni.Line = cur.Line
			for n, r := range cur.results {
				ni.results[n].Name = r.Name
				ni.results[n].id = r.id
				vals[r] = ni.results[n]
			}
			for _, t := range cur.targets {
				ni.targets = append(ni.targets, blocks[t])
			}
			nb.Append(ni)
			insts = append(insts, pending{src: cur, dst: ni})
		}
	}
	// Operands are wired after all results exist since phis may refer
	// forward.
	for _, p := range insts {
		for n, v := range p.src.operands {
			p.dst.SetOperand(n, vals[v])
		}
	}
	out.nextID = f.nextID
	return out
}

func (f *Function) newValue(name string) *Value {
	v := &Value{Name: name, fn: f, id: f.nextID}
	f.nextID++
	return v
}

// newInstruction allocates a detached instruction with the given number of
// fresh results and empty operand slots.
func (f *Function) newInstruction(op Opcode, numResults, numOperands int) *Instruction {
	inst := &Instruction{op: op, operands: make([]*Value, numOperands)}
	if numResults > 0 {
		inst.results = make([]*Value, numResults)
		for n := range inst.results {
			v := f.newValue("")
			v.def = inst
			v.index = n
			inst.results[n] = v
		}
	}
	return inst
}

func appendUniqueBlock(slice []*Block, b *Block) []*Block {
	for _, cur := range slice {
		if cur == b {
			return slice
		}
	}
	return append(slice, b)
}
