package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/rcopt/config"
	"github.com/wippyai/rcopt/frontend/gossa"
	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/irtext"
	"github.com/wippyai/rcopt/pass"
	"github.com/wippyai/rcopt/pass/guaranteed"
)

func init() {
	guaranteed.Register(pass.Default)
}

type options struct {
	inFile     string
	goFile     string
	configFile string
	funcName   string
	color      string
	stats      bool
	diff       bool
	verbose    bool
}

func main() {
	var (
		inFile      = flag.String("in", "", "Path to IR text file")
		goFile      = flag.String("go", "", "Path to Go source file (lowered through go/ssa)")
		configFile  = flag.String("config", "", "Pipeline configuration (YAML)")
		funcName    = flag.String("func", "", "Only print this function")
		color       = flag.String("color", "", "Highlight removed lines: auto, always or never")
		stats       = flag.Bool("stats", false, "Print pipeline statistics")
		diff        = flag.Bool("diff", false, "Print a before/after listing instead of the result")
		verbose     = flag.Bool("v", false, "Log pass decisions to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if (*inFile == "") == (*goFile == "") {
		fmt.Fprintln(os.Stderr, "Usage: rcopt -in <file.rcir> [-config pipeline.yaml] [-func name] [-stats] [-diff] [-v]")
		fmt.Fprintln(os.Stderr, "       rcopt -go <file.go> [-config pipeline.yaml] [-func name] [-stats] [-diff] [-v]")
		fmt.Fprintln(os.Stderr, "       rcopt -in <file.rcir> -i  (interactive mode)")
		os.Exit(1)
	}

	opts := options{
		inFile:     *inFile,
		goFile:     *goFile,
		configFile: *configFile,
		funcName:   *funcName,
		color:      *color,
		stats:      *stats,
		diff:       *diff,
		verbose:    *verbose,
	}

	if *interactive {
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, w io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, opts.verbose)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	pass.SetLogger(log.Named("pass"))
	guaranteed.SetLogger(log.Named("guaranteed"))

	mod, err := loadModule(opts)
	if err != nil {
		return err
	}
	before := mod.Clone()

	mgr, err := cfg.Manager(pass.Default)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	stats, err := mgr.Run(ctx, mod)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if opts.diff {
		styled := useColor(cfg.Color, w)
		st := newListingStyles(w, styled)
		for i, fn := range mod.Functions {
			if opts.funcName != "" && fn.Name != opts.funcName {
				continue
			}
			fmt.Fprintln(w, st.header.Render(fn.Name))
			fmt.Fprintln(w, st.render(diffLines(before.Functions[i].String(), fn.String())))
		}
	} else if opts.funcName != "" {
		fn := mod.Function(opts.funcName)
		if fn == nil {
			return fmt.Errorf("function %q not found", opts.funcName)
		}
		fmt.Fprintln(w, fn.String())
	} else {
		fmt.Fprint(w, mod.String())
	}

	if opts.stats {
		fmt.Fprintln(w, stats.String())
	}
	return nil
}

// loadConfig reads the configuration file, if any, and applies flag overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		cfg, err = config.Load(opts.configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("config: %w", err)
		}
	}
	if opts.color != "" {
		cfg.Color = opts.color
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if level == zapcore.InvalidLevel {
		return zap.NewNop(), nil
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func loadModule(opts options) (*ir.Module, error) {
	if opts.goFile != "" {
		src, err := os.ReadFile(opts.goFile)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		mod, err := gossa.LowerSource(filepath.Base(opts.goFile), src)
		if err != nil {
			return nil, fmt.Errorf("lower: %w", err)
		}
		return mod, nil
	}

	data, err := os.ReadFile(opts.inFile)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	mod, err := irtext.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return mod, nil
}

// useColor resolves a color mode against the output writer.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
