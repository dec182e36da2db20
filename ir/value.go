package ir

import "strconv"

// Use is a single operand slot of an instruction referring to a Value.
type Use struct {
	User  *Instruction
	Index int
}

// Value is an SSA definition. It is defined either by an instruction result
// or by a function argument.
type Value struct {
	Name string

	def   *Instruction // nil for arguments
	fn    *Function
	uses  []Use
	id    int
	index int // result index in def, or argument index
}

// ID returns the function-unique identifier of the value.
func (v *Value) ID() int { return v.id }

// Def returns the instruction defining v, or nil for function arguments.
func (v *Value) Def() *Instruction { return v.def }

// Function returns the function the value belongs to.
func (v *Value) Function() *Function { return v.fn }

// IsArgument reports whether v is a function argument.
func (v *Value) IsArgument() bool { return v.def == nil }

// ResultIndex returns the position of v among its defining instruction's
// results, or its position in the argument list.
func (v *Value) ResultIndex() int { return v.index }

// Uses returns a snapshot of the value's uses.
func (v *Value) Uses() []Use {
	out := make([]Use, len(v.uses))
	copy(out, v.uses)
	return out
}

// NumUses returns the number of uses.
func (v *Value) NumUses() int { return len(v.uses) }

// HasUses reports whether v is used at all.
func (v *Value) HasUses() bool { return len(v.uses) > 0 }

// NonDebugUses returns the uses of v that are not debug_value instructions.
func (v *Value) NonDebugUses() []Use {
	var out []Use
	for _, u := range v.uses {
		if !u.User.IsDebugValue() {
			out = append(out, u)
		}
	}
	return out
}

// ReplaceAllUsesWith rewrites every use of v to refer to nv instead.
func (v *Value) ReplaceAllUsesWith(nv *Value) {
	if v == nv {
		return
	}
	for len(v.uses) > 0 {
		u := v.uses[len(v.uses)-1]
		u.User.SetOperand(u.Index, nv)
	}
}

// String returns the value's text name including the % sigil.
func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.Name != "" {
		return "%" + v.Name
	}
	return "%" + strconv.Itoa(v.id)
}

func (v *Value) addUse(u Use) {
	v.uses = append(v.uses, u)
}

func (v *Value) removeUse(u Use) {
	for i, cur := range v.uses {
		if cur == u {
			last := len(v.uses) - 1
			v.uses[i] = v.uses[last]
			v.uses = v.uses[:last]
			return
		}
	}
	panic("BUG: use not registered on " + v.String())
}

// DeleteAllDebugUses erases every debug_value instruction that refers to v.
func DeleteAllDebugUses(v *Value) {
	for _, u := range v.Uses() {
		if u.User.IsDebugValue() {
			u.User.Erase()
		}
	}
}
