// Package ir defines the mid-level intermediate representation rcopt passes
// operate on.
//
// A Module holds Functions; a Function holds an ordered list of Blocks, the
// first of which is the entry. Each Block owns an intrusive doubly linked list
// of Instructions, so an instruction keeps its identity while others around
// it are erased. Instructions define SSA Values, and every Value tracks its
// uses so that passes can rewrite them in place.
//
// # Reference counting
//
// The opcode set is centered on reference-counting idioms:
//
//	retain / retain_value          increment the reference count of a value
//	release / release_value        decrement it
//	guarantee_begin %x             start a scope where %x is kept alive externally
//	guarantee_end %token           close that scope
//
// guarantee_begin produces two logical results, the guaranteed value and an
// opaque token. They are either direct results of the instruction or are
// projected out of a single tuple result by extract instructions:
//
//	(%v %t = guarantee_begin %x)
//
//	(%g = guarantee_begin %x)
//	(%v = extract %g 0)
//	(%t = extract %g 1)
//
// Both encodings are equivalent to the passes.
//
// # Mutation
//
// Instruction.Erase requires all results to be unused; rewrite uses with
// Value.ReplaceAllUsesWith first. Erasing never touches neighbouring
// instructions, so a cursor holding any other instruction stays valid.
package ir
