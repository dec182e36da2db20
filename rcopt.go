package rcopt

import (
	"context"

	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/pass"
	"github.com/wippyai/rcopt/pass/guaranteed"
)

func init() {
	guaranteed.Register(pass.Default)
}

// Options configures Optimize. The zero value is ready to use.
type Options struct {
	// Passes names the pipeline in pass.Default. Empty runs the guaranteed peephole.
	Passes []string
	// Workers bounds the number of functions processed at once.
	// Zero uses GOMAXPROCS.
	Workers int
	// Verify runs the IR verifier after every pass that changes a function.
	Verify bool
}

// Optimize runs the pipeline over mod in place.
func Optimize(ctx context.Context, mod *ir.Module, opts Options) (pass.Stats, error) {
	names := opts.Passes
	if len(names) == 0 {
		names = []string{guaranteed.Name}
	}
	passes, err := pass.Default.Pipeline(names)
	if err != nil {
		return pass.Stats{}, err
	}
	m := &pass.Manager{
		Passes:     passes,
		Workers:    opts.Workers,
		VerifyEach: opts.Verify,
	}
	return m.Run(ctx, mod)
}
