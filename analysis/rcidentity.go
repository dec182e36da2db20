package analysis

import "github.com/wippyai/rcopt/ir"

// Identity maps a value to the root whose reference count it shares.
type Identity interface {
	Root(v *ir.Value) *ir.Value
}

// RCIdentity is the default Identity. It looks through operations that
// forward their operand's reference unchanged:
//   - cast
//   - the value result of guarantee_begin, either the first of a direct
//     pair or "extract 0" of a single tuple result
//
// Results are memoized; the memo must be dropped when instructions are
// erased.
type RCIdentity struct {
	roots map[*ir.Value]*ir.Value
}

// NewRCIdentity creates an empty identity analysis.
func NewRCIdentity() *RCIdentity {
	return &RCIdentity{roots: make(map[*ir.Value]*ir.Value)}
}

// Root returns the identity root of v.
func (r *RCIdentity) Root(v *ir.Value) *ir.Value {
	if v == nil {
		return nil
	}
	if root, ok := r.roots[v]; ok {
		return root
	}
	root := v
	for {
		next := forwarded(root)
		if next == nil || next == root {
			break
		}
		root = next
	}
	r.roots[v] = root
	return root
}

// Invalidate drops all memoized roots.
func (r *RCIdentity) Invalidate() {
	clear(r.roots)
}

// forwarded returns the value whose reference v forwards, or nil.
func forwarded(v *ir.Value) *ir.Value {
	def := v.Def()
	if def == nil {
		return nil
	}
	switch def.Op() {
	case ir.OpCast:
		return def.Operand(0)
	case ir.OpGuaranteeBegin:
		if def.NumResults() == 2 && v.ResultIndex() == 0 {
			return def.Operand(0)
		}
	case ir.OpExtract:
		if def.Imm != 0 {
			return nil
		}
		tuple := def.Operand(0).Def()
		if tuple != nil && tuple.IsBeginGuarantee() && tuple.NumResults() == 1 {
			return tuple.Operand(0)
		}
	}
	return nil
}
