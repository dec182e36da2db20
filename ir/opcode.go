package ir

// Opcode identifies the operation an Instruction performs.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Reference counting
	OpRetain
	OpRetainValue
	OpRelease
	OpReleaseValue

	// Lifetime guarantee intrinsics
	OpGuaranteeBegin
	OpGuaranteeEnd
	OpExtract

	// Calls
	OpApply
	OpPartialApply

	// Debug info
	OpDebugValue

	// Values
	OpCast
	OpAlloc
	OpLiteral
	OpLoad
	OpStore
	OpPhi
	OpOp

	// Terminators
	OpBr
	OpCondBr
	OpReturn
	OpUnreachable

	numOpcodes
)

// Variadic marks an operand or result count that is not fixed.
const Variadic = -1

// Info describes the static properties of an opcode.
type Info struct {
	Name        string
	Operands    int // Variadic when any count is allowed
	MinResults  int
	MaxResults  int
	SideEffects bool
	Terminator  bool
	Targets     int // number of successor blocks for terminators
	HasCallee   bool
	HasImm      bool
}

var infos = [numOpcodes]Info{
	OpInvalid: {Name: "invalid"},

	OpRetain:       {Name: "retain", Operands: 1, SideEffects: true},
	OpRetainValue:  {Name: "retain_value", Operands: 1, SideEffects: true},
	OpRelease:      {Name: "release", Operands: 1, SideEffects: true},
	OpReleaseValue: {Name: "release_value", Operands: 1, SideEffects: true},

	OpGuaranteeBegin: {Name: "guarantee_begin", Operands: 1, MinResults: 1, MaxResults: 2, SideEffects: true},
	OpGuaranteeEnd:   {Name: "guarantee_end", Operands: 1, SideEffects: true},
	OpExtract:        {Name: "extract", Operands: 1, MinResults: 1, MaxResults: 1, HasImm: true},

	OpApply:        {Name: "apply", Operands: Variadic, MaxResults: 1, SideEffects: true, HasCallee: true},
	OpPartialApply: {Name: "partial_apply", Operands: Variadic, MinResults: 1, MaxResults: 1, SideEffects: true, HasCallee: true},

	// debug_value reports side effects so that it is never moved or dropped
	// by generic code; passes that tolerate it check IsDebugValue explicitly.
	OpDebugValue: {Name: "debug_value", Operands: 1, SideEffects: true},

	OpCast:    {Name: "cast", Operands: 1, MinResults: 1, MaxResults: 1},
	OpAlloc:   {Name: "alloc", Operands: 0, MinResults: 1, MaxResults: 1, SideEffects: true, HasCallee: true},
	OpLiteral: {Name: "literal", Operands: 0, MinResults: 1, MaxResults: 1, HasCallee: true, HasImm: true},
	OpLoad:    {Name: "load", Operands: 1, MinResults: 1, MaxResults: 1},
	OpStore:   {Name: "store", Operands: 2, SideEffects: true},
	OpPhi:     {Name: "phi", Operands: Variadic, MinResults: 1, MaxResults: 1},
	OpOp:      {Name: "op", Operands: Variadic, MaxResults: 1, HasCallee: true},

	OpBr:          {Name: "br", Operands: 0, Terminator: true, Targets: 1},
	OpCondBr:      {Name: "cond_br", Operands: 1, Terminator: true, Targets: 2},
	OpReturn:      {Name: "return", Operands: Variadic, Terminator: true},
	OpUnreachable: {Name: "unreachable", Operands: 0, Terminator: true},
}

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, numOpcodes)
	for op := OpInvalid + 1; op < numOpcodes; op++ {
		m[infos[op].Name] = op
	}
	return m
}()

// LookupOpcode returns the opcode with the given text mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

// Info returns the static properties of op.
func (op Opcode) Info() Info {
	if op >= numOpcodes {
		return infos[OpInvalid]
	}
	return infos[op]
}

func (op Opcode) String() string {
	return op.Info().Name
}

// IsIncrement reports whether op increments a reference count.
func (op Opcode) IsIncrement() bool {
	return op == OpRetain || op == OpRetainValue
}

// IsDecrement reports whether op decrements a reference count.
func (op Opcode) IsDecrement() bool {
	return op == OpRelease || op == OpReleaseValue
}

// IsCallLike reports whether op is a full or partial application.
func (op Opcode) IsCallLike() bool {
	return op == OpApply || op == OpPartialApply
}
