package guaranteed

// reason explains why a guarantee_begin was left untransformed.
type reason string

const (
	reasonNone              reason = ""
	reasonNoRetain          reason = "no tracked retain of the operand"
	reasonRetainNotAdjacent reason = "side effect between retain and begin"
	reasonAmbiguousResult   reason = "begin result is projected more than once"
	reasonUnresolvedResult  reason = "begin value or token not projected"
	reasonForeignUse        reason = "begin result has an unexpected user"
	reasonNoEnd             reason = "token has no guarantee_end"
	reasonManyEnds          reason = "token has several users"
	reasonTokenEscapes      reason = "token is used by a non-end instruction"
	reasonNotPostDominated  reason = "end does not post-dominate begin"
	reasonNoRelease         reason = "no matching release next to the end"
)
