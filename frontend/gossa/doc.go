// Package gossa lowers Go source to rcopt IR through golang.org/x/tools/go/ssa.
//
// Reference counting is not part of Go, so the lowering recognizes calls to
// package-level functions with reserved names and turns them into the IR
// intrinsics:
//
//	retain(x)             -> retain
//	retainValue(x)        -> retain_value
//	release(x)            -> release
//	releaseValue(x)       -> release_value
//	guaranteeBegin(x)     -> guarantee_begin, results projected with extract
//	guaranteeEnd(token)   -> guarantee_end
//	debugValue(x)         -> debug_value
//
// guaranteeBegin must return two values; all other intrinsics return
// nothing. Every other call becomes apply. Constants, globals and function
// values are materialized as literal instructions at the top of the entry
// block. Instructions without an IR counterpart are lowered to op when they
// are pure and to apply otherwise, which keeps the pass conservative.
package gossa
