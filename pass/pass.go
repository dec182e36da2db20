package pass

import (
	"github.com/wippyai/rcopt/analysis"
	"github.com/wippyai/rcopt/ir"
)

// FunctionPass transforms a single function.
//
// Run returns true when the function was modified. A pass never fails: any
// situation it cannot handle safely is left untransformed.
type FunctionPass interface {
	Name() string
	Run(fn *ir.Function, am *AnalysisManager) bool
}

// Func is an adapter to use ordinary functions as FunctionPasses.
type Func struct {
	PassName string
	Fn       func(fn *ir.Function, am *AnalysisManager) bool
}

// Name implements FunctionPass.
func (f Func) Name() string { return f.PassName }

// Run implements FunctionPass.
func (f Func) Run(fn *ir.Function, am *AnalysisManager) bool { return f.Fn(fn, am) }

// AnalysisManager hands out the analyses of one function. Each analysis is
// computed on first request and cached until invalidated.
//
// An AnalysisManager belongs to a single function and a single goroutine.
type AnalysisManager struct {
	fn       *ir.Function
	identity *analysis.RCIdentity
	postdom  *analysis.PostDominance

	// Computed counts analysis constructions, for tests and stats.
	Computed int
}

// NewAnalysisManager creates an analysis manager for fn.
func NewAnalysisManager(fn *ir.Function) *AnalysisManager {
	return &AnalysisManager{fn: fn}
}

// Function returns the function the analyses describe.
func (am *AnalysisManager) Function() *ir.Function { return am.fn }

// Identity returns the reference-count identity analysis.
func (am *AnalysisManager) Identity() analysis.Identity {
	if am.identity == nil {
		am.identity = analysis.NewRCIdentity()
		am.Computed++
	}
	return am.identity
}

// PostDominance returns the post-dominance analysis.
func (am *AnalysisManager) PostDominance() analysis.PostDominator {
	if am.postdom == nil {
		am.postdom = analysis.NewPostDominance(am.fn)
		am.Computed++
	}
	return am.postdom
}

// InvalidateInstructions drops analyses that depend on individual
// instructions. Block-level results survive since passes never change the
// control flow graph.
func (am *AnalysisManager) InvalidateInstructions() {
	am.identity = nil
}

// InvalidateAll drops every cached analysis.
func (am *AnalysisManager) InvalidateAll() {
	am.identity = nil
	am.postdom = nil
}
