// Package pass schedules function passes over an IR module.
//
// A FunctionPass transforms one function at a time and reports whether it
// changed anything. The Manager runs a pipeline of passes over every
// function of a module, in parallel across functions, giving each function
// its own AnalysisManager. Analyses are computed lazily and dropped when a
// pass reports a change:
//
//	mgr := &pass.Manager{Passes: []pass.FunctionPass{p}, Workers: 4}
//	stats, err := mgr.Run(ctx, mod)
//
// Passes are looked up by name through a Registry so pipelines can be
// described in configuration files.
package pass
