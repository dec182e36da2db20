package guaranteed

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/rcopt/analysis"
	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/pass"
)

// Name is the registry name of the pass.
const Name = "guaranteed-peephole"

// Pass is the guaranteed-scope retain/release peephole. It holds no
// per-function state and may run on several functions at once.
type Pass struct {
	rewrites atomic.Int64
}

// New creates the pass.
func New() *Pass {
	return &Pass{}
}

// Register adds the pass to r under Name.
func Register(r *pass.Registry) {
	r.Register(Name, func() pass.FunctionPass { return New() })
}

// Name implements pass.FunctionPass.
func (p *Pass) Name() string { return Name }

// Rewrites returns the number of guarantee scopes removed so far.
func (p *Pass) Rewrites() int64 { return p.rewrites.Load() }

// Run implements pass.FunctionPass.
func (p *Pass) Run(fn *ir.Function, am *pass.AnalysisManager) bool {
	s := &scanner{
		am:  am,
		id:  am.Identity(),
		log: Logger().With(zap.String("func", fn.Name)),
	}
	changed := false
	for _, blk := range fn.Blocks() {
		n := s.block(blk)
		if n > 0 {
			changed = true
			p.rewrites.Add(int64(n))
		}
	}
	return changed
}

// scanner carries the analyses of one function through the block scans.
type scanner struct {
	am  *pass.AnalysisManager
	id  analysis.Identity
	log *zap.Logger
}

// block scans blk and returns the number of scopes removed.
func (s *scanner) block(blk *ir.Block) int {
	tr := newTracker(s.id)
	rewrites := 0

	cur := blk.First()
	for cur != nil {
		inst := cur
		cur = cur.Next()

		if inst.IsIncrement() {
			tr.record(inst)
			continue
		}
		if !inst.IsBeginGuarantee() {
			continue
		}

		c, r := s.match(tr, inst)
		if r == reasonNone {
			r = s.verify(c)
		}
		if r != reasonNone {
			s.log.Debug("guarantee scope kept",
				zap.String("block", blk.Label),
				zap.Stringer("begin", inst),
				zap.String("reason", string(r)))
			continue
		}

		s.log.Debug("guarantee scope removed",
			zap.String("block", blk.Label),
			zap.Stringer("begin", inst),
			zap.Stringer("retain", c.retain),
			zap.Stringer("release", c.release))
		cur = s.rewrite(tr, c)
		rewrites++
	}
	return rewrites
}
