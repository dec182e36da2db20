package pass

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/rcopt/errors"
	"github.com/wippyai/rcopt/ir"
)

// Stats summarizes a pipeline run.
type Stats struct {
	// PerPass counts, per pass name, the functions the pass changed.
	PerPass map[string]int
	// Functions is the number of functions the pipeline ran on.
	Functions int
	// Changed is the number of functions changed by at least one pass.
	Changed int
}

// Add merges other into s.
func (s *Stats) Add(other Stats) {
	s.Functions += other.Functions
	s.Changed += other.Changed
	for name, n := range other.PerPass {
		if s.PerPass == nil {
			s.PerPass = make(map[string]int)
		}
		s.PerPass[name] += n
	}
}

func (s Stats) String() string {
	var b strings.Builder
	b.WriteString("functions=")
	b.WriteString(strconv.Itoa(s.Functions))
	b.WriteString(" changed=")
	b.WriteString(strconv.Itoa(s.Changed))

	names := make([]string, 0, len(s.PerPass))
	for name := range s.PerPass {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(s.PerPass[name]))
	}
	return b.String()
}

// Manager runs a pipeline of function passes over a module.
//
// Functions are processed in parallel, each by a single goroutine with its
// own AnalysisManager. Passes must therefore be safe to run concurrently on
// different functions.
type Manager struct {
	Passes []FunctionPass
	// Workers bounds the number of functions processed at once.
	// Zero uses GOMAXPROCS.
	Workers int
	// VerifyEach runs the IR verifier after every pass that reports a change.
	VerifyEach bool
}

type funcResult struct {
	err     error
	changed []string
	done    bool
}

// Run applies the pipeline to every function of mod.
//
// Cancelling ctx stops scheduling further functions; functions already
// being transformed run to completion. The returned Stats cover the
// functions that were processed. Errors of individual functions are
// collected and returned together in module order.
func (m *Manager) Run(ctx context.Context, mod *ir.Module) (Stats, error) {
	fns := mod.Functions
	results := make([]funcResult, len(fns))

	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, len(fns)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = m.runFunction(fns[i])
			}
		}()
	}

	var canceled error
schedule:
	for i := range fns {
		if err := ctx.Err(); err != nil {
			canceled = err
			break
		}
		select {
		case <-ctx.Done():
			canceled = ctx.Err()
			break schedule
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stats := Stats{PerPass: make(map[string]int)}
	var errs errors.Errors
	for _, r := range results {
		if !r.done {
			continue
		}
		stats.Functions++
		if len(r.changed) > 0 {
			stats.Changed++
		}
		for _, name := range r.changed {
			stats.PerPass[name]++
		}
		if r.err != nil {
			if e, ok := r.err.(*errors.Error); ok {
				errs = append(errs, e)
			} else {
				errs = append(errs, errors.Wrap(errors.PhasePass, errors.KindMalformedIR, r.err, ""))
			}
		}
	}
	if canceled != nil {
		errs = append(errs, errors.New(errors.PhasePass, errors.KindCanceled).
			Cause(canceled).
			Detail("%d of %d functions processed", stats.Functions, len(fns)).
			Build())
	}

	Logger().Debug("pipeline finished",
		zap.Int("functions", stats.Functions),
		zap.Int("changed", stats.Changed),
		zap.Int("errors", len(errs)))
	return stats, errs.OrNil()
}

// RunFunction applies the pipeline to a single function on the calling
// goroutine and reports whether any pass changed it.
func (m *Manager) RunFunction(fn *ir.Function) (bool, error) {
	r := m.runFunction(fn)
	return len(r.changed) > 0, r.err
}

func (m *Manager) runFunction(fn *ir.Function) funcResult {
	res := funcResult{done: true}
	am := NewAnalysisManager(fn)
	for _, p := range m.Passes {
		if !p.Run(fn, am) {
			continue
		}
		res.changed = append(res.changed, p.Name())
		am.InvalidateInstructions()
		Logger().Debug("pass changed function",
			zap.String("pass", p.Name()),
			zap.String("func", fn.Name))

		if m.VerifyEach {
			if err := ir.VerifyFunction(fn); err != nil {
				res.err = errors.New(errors.PhaseVerify, errors.KindMalformedIR).
					Path(fn.Name).
					Detail("IR invalid after pass %s", p.Name()).
					Cause(err).
					Build()
				return res
			}
		}
	}
	return res
}
