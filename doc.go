// Package rcopt removes redundant reference-count traffic around guaranteed
// scopes in a small SSA intermediate representation.
//
// A guaranteed scope is a region bracketed by guarantee_begin and
// guarantee_end that promises its operand stays alive. When a retain
// immediately precedes the begin and the matching release sits next to the
// end, the pair and the markers are redundant: uses of the guaranteed value
// are rewritten to the operand and all four instructions are removed.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	rcopt/               Root package with the Optimize entry point
//	├── ir/              Instructions, blocks, functions, verifier and printer
//	├── irtext/          S-expression text format parser
//	├── analysis/        Reference-count identity and post-dominance
//	├── pass/            Pass interface, analysis manager, registry, parallel manager
//	│   └── guaranteed/  The guaranteed-scope peephole
//	├── frontend/gossa/  Lowering of Go SSA into ir
//	├── config/          YAML pipeline configuration
//	├── errors/          Structured error types for debugging
//	└── cmd/rcopt/       Command line tool and interactive viewer
//
// # Quick Start
//
// Optimize a module written in the text format:
//
//	mod, err := irtext.Parse(src)
//	if err != nil {
//	    return err
//	}
//	stats, err := rcopt.Optimize(ctx, mod, rcopt.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(mod)
//	fmt.Println(stats)
//
// # Passes
//
// Passes are registered by name in pass.Default. The guaranteed peephole is
// registered under "guaranteed-peephole" when this package is imported.
// Custom pipelines are built with pass.Registry.Pipeline or loaded from YAML
// with the config package.
//
// # Logging
//
// The pass and pass/guaranteed packages log through zap. Both default to a
// no-op logger; call SetLogger to see scheduling and per-scope decisions.
package rcopt
