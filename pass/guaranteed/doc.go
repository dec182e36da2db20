// Package guaranteed removes retain/release pairs made redundant by a
// guarantee scope.
//
// A guarantee_begin instruction declares that its operand is kept alive by
// an outside owner until the matching guarantee_end. When such a scope is
// bracketed by a retain of the operand right before the begin and a release
// of it around the end, the retain/release pair, the two markers, and the
// projections of the begin results are redundant:
//
//	(retain %x)
//	(%g = guarantee_begin %x)
//	(%v = extract %g 0)
//	(%t = extract %g 1)
//	(apply $use %v)
//	(guarantee_end %t)
//	(release %x)
//
// becomes
//
//	(apply $use %x)
//
// Each block is processed in four stages. A tracker remembers the most
// recent retain per reference-count identity root. On a guarantee_begin the
// matcher checks that the tracked retain immediately precedes it, resolves
// the begin results and finds the unique guarantee_end. The verifier
// requires the end to post-dominate the begin and locates the balancing
// release next to the end. The mutator prunes nested retain/release pairs of
// the same root inside the scope, erases the matched instructions, rewrites
// uses of the guaranteed value to the operand and rewinds the scan.
//
// Whenever any precondition fails the candidate is left untouched; the
// reason is logged at debug level.
package guaranteed
