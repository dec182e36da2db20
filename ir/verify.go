package ir

import (
	"fmt"

	"github.com/wippyai/rcopt/errors"
)

// Verify checks the structural well-formedness of every function in m.
func Verify(m *Module) error {
	var errs errors.Errors
	for _, fn := range m.Functions {
		errs = append(errs, verifyFunction(fn)...)
	}
	return errs.OrNil()
}

// VerifyFunction checks the structural well-formedness of fn:
//   - every block ends with exactly one terminator
//   - operand, result and successor counts match the opcode
//   - operands are defined in fn, and before their use within a block
//     (phi operands excepted)
//   - use lists agree with operand slots
func VerifyFunction(fn *Function) error {
	return errors.Errors(verifyFunction(fn)).OrNil()
}

func verifyFunction(fn *Function) []*errors.Error {
	v := &verifier{fn: fn}
	preds := fn.Predecessors()
	for _, blk := range fn.blocks {
		v.block(blk, len(preds[blk]))
	}
	return v.errs
}

type verifier struct {
	fn   *Function
	errs []*errors.Error
}

func (v *verifier) fail(blk *Block, inst *Instruction, format string, args ...any) {
	path := []string{v.fn.Name}
	if blk != nil {
		path = append(path, blk.Label)
	}
	e := errors.Malformed(path, format, args...)
	if inst != nil {
		e.Line = inst.Line
		e.Value = FormatInstruction(inst)
	}
	v.errs = append(v.errs, e)
}

func (v *verifier) block(blk *Block, numPreds int) {
	if blk.fn != v.fn {
		v.fail(blk, nil, "block belongs to another function")
		return
	}
	if blk.first == nil {
		v.fail(blk, nil, "empty block")
		return
	}
	if !blk.last.IsTerminator() {
		v.fail(blk, blk.last, "block does not end with a terminator")
	}

	seen := make(map[*Instruction]bool, blk.n)
	for cur := blk.first; cur != nil; cur = cur.next {
		if cur.block != blk {
			v.fail(blk, cur, "instruction linked into the wrong block")
		}
		if cur.IsTerminator() && cur != blk.last {
			v.fail(blk, cur, "terminator %s in the middle of the block", cur.op)
		}
		v.shape(blk, cur, numPreds)
		v.operands(blk, cur, seen)
		v.results(blk, cur)
		seen[cur] = true
	}
}

func (v *verifier) shape(blk *Block, inst *Instruction, numPreds int) {
	info := inst.op.Info()
	if inst.op == OpInvalid || inst.op >= numOpcodes {
		v.fail(blk, inst, "invalid opcode %d", inst.op)
		return
	}
	if info.Operands != Variadic && len(inst.operands) != info.Operands {
		v.fail(blk, inst, "%s expects %d operands, has %d", inst.op, info.Operands, len(inst.operands))
	}
	if inst.op == OpReturn && len(inst.operands) > 1 {
		v.fail(blk, inst, "return takes at most one operand")
	}
	if n := len(inst.results); n < info.MinResults || n > info.MaxResults {
		v.fail(blk, inst, "%s defines %d results, want %s", inst.op, n, resultRange(info))
	}
	if len(inst.targets) != info.Targets {
		v.fail(blk, inst, "%s has %d successors, want %d", inst.op, len(inst.targets), info.Targets)
	}
	for _, t := range inst.targets {
		if t == nil || t.fn != v.fn {
			v.fail(blk, inst, "branch target outside the function")
		}
	}
	if inst.op == OpExtract && inst.Imm < 0 {
		v.fail(blk, inst, "negative extract index %d", inst.Imm)
	}
	if inst.op == OpPhi && len(inst.operands) != numPreds {
		v.fail(blk, inst, "phi has %d incoming values for %d predecessors", len(inst.operands), numPreds)
	}
}

func (v *verifier) operands(blk *Block, inst *Instruction, seen map[*Instruction]bool) {
	for n, op := range inst.operands {
		if op == nil {
			v.fail(blk, inst, "operand %d is nil", n)
			continue
		}
		if op.fn != v.fn {
			v.fail(blk, inst, "operand %s belongs to another function", op)
			continue
		}
		if !hasUse(op, Use{User: inst, Index: n}) {
			v.fail(blk, inst, "operand %s does not record its use", op)
		}
		def := op.def
		if def == nil {
			continue
		}
		if def.block == nil {
			v.fail(blk, inst, "operand %s is defined by an erased instruction", op)
			continue
		}
		if def.block.fn != v.fn {
			v.fail(blk, inst, "operand %s is defined in another function", op)
			continue
		}
		if def.block == blk && inst.op != OpPhi && !seen[def] {
			v.fail(blk, inst, "operand %s is used before its definition", op)
		}
	}
}

func (v *verifier) results(blk *Block, inst *Instruction) {
	for _, r := range inst.results {
		if r.def != inst {
			v.fail(blk, inst, "result %s is not owned by its instruction", r)
		}
		for _, u := range r.uses {
			if u.User.block == nil {
				v.fail(blk, inst, "result %s is used by an erased instruction", r)
				continue
			}
			if u.Index >= len(u.User.operands) || u.User.operands[u.Index] != r {
				v.fail(blk, inst, "stale use of %s", r)
			}
		}
	}
}

func hasUse(v *Value, u Use) bool {
	for _, cur := range v.uses {
		if cur == u {
			return true
		}
	}
	return false
}

func resultRange(info Info) string {
	if info.MinResults == info.MaxResults {
		return fmt.Sprint(info.MinResults)
	}
	return fmt.Sprintf("%d..%d", info.MinResults, info.MaxResults)
}
