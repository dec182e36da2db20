package pass

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/rcopt/errors"
	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/irtext"
)

const moduleSource = `
(module
  (func $a (args %x)
    (block $entry
      (retain %x)
      (release %x)
      (return)))
  (func $b (args %x)
    (block $entry
      (apply $f %x)
      (return)))
  (func $c (args %x)
    (block $entry
      (retain %x)
      (apply $f %x)
      (release %x)
      (return))))
`

// dropRetains erases every retain and reports whether it found one.
var dropRetains = Func{
	PassName: "drop-retains",
	Fn: func(fn *ir.Function, am *AnalysisManager) bool {
		changed := false
		for _, b := range fn.Blocks() {
			for _, inst := range b.Instructions() {
				if inst.Op() == ir.OpRetain {
					inst.Erase()
					changed = true
				}
			}
		}
		return changed
	},
}

func TestManager_Run(t *testing.T) {
	for _, workers := range []int{0, 1, 2, 8} {
		mod := irtext.MustParse(moduleSource)
		mgr := &Manager{Passes: []FunctionPass{dropRetains}, Workers: workers, VerifyEach: true}

		stats, err := mgr.Run(context.Background(), mod)
		if err != nil {
			t.Fatalf("workers=%d: Run: %v", workers, err)
		}
		want := Stats{Functions: 3, Changed: 2, PerPass: map[string]int{"drop-retains": 2}}
		if diff := cmp.Diff(want, stats); diff != "" {
			t.Errorf("workers=%d: stats mismatch (-want +got):\n%s", workers, diff)
		}
		if got := mod.Function("c").Entry().First().Op(); got != ir.OpApply {
			t.Errorf("workers=%d: retain not removed, first op %v", workers, got)
		}
	}
}

func TestManager_InvalidatesOnChange(t *testing.T) {
	var identities []any
	probe := Func{
		PassName: "probe",
		Fn: func(fn *ir.Function, am *AnalysisManager) bool {
			identities = append(identities, am.Identity())
			am.PostDominance()
			return true
		},
	}
	mod := irtext.MustParse(moduleSource)
	mgr := &Manager{Passes: []FunctionPass{probe, probe}}
	if _, err := mgr.RunFunction(mod.Functions[0]); err != nil {
		t.Fatal(err)
	}
	if len(identities) != 2 || identities[0] == identities[1] {
		t.Error("identity should be recomputed after a change")
	}
}

func TestManager_VerifyEach(t *testing.T) {
	breakIR := Func{
		PassName: "break-ir",
		Fn: func(fn *ir.Function, am *AnalysisManager) bool {
			fn.Entry().Last().Erase()
			return true
		},
	}
	mod := irtext.MustParse(moduleSource)
	mgr := &Manager{Passes: []FunctionPass{breakIR}, Workers: 2, VerifyEach: true}

	stats, err := mgr.Run(context.Background(), mod)
	if err == nil {
		t.Fatal("expected verifier error")
	}
	if !stderrors.Is(err, errors.New(errors.PhaseVerify, errors.KindMalformedIR).Build()) {
		t.Errorf("error = %v", err)
	}
	var errs errors.Errors
	if !stderrors.As(err, &errs) || len(errs) != 3 {
		t.Errorf("expected one error per function, got %v", err)
	}
	if errs[0].Path[0] != "a" || errs[2].Path[0] != "c" {
		t.Errorf("errors not in module order: %v", errs)
	}
	if stats.Functions != 3 {
		t.Errorf("Functions = %d", stats.Functions)
	}
}

func TestManager_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	count := Func{
		PassName: "count",
		Fn: func(fn *ir.Function, am *AnalysisManager) bool {
			calls.Add(1)
			return false
		},
	}
	mgr := &Manager{Passes: []FunctionPass{count}}
	stats, err := mgr.Run(ctx, irtext.MustParse(moduleSource))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if !stderrors.Is(err, errors.New(errors.PhasePass, errors.KindCanceled).Build()) {
		t.Errorf("error kind = %v", err)
	}
	if stats.Functions != 0 || calls.Load() != 0 {
		t.Errorf("functions processed after cancel: %d", stats.Functions)
	}
}

func TestManager_EmptyModule(t *testing.T) {
	mgr := &Manager{Passes: []FunctionPass{dropRetains}}
	stats, err := mgr.Run(context.Background(), ir.NewModule())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Functions != 0 {
		t.Errorf("Functions = %d", stats.Functions)
	}
}

func TestAnalysisManager_Lazy(t *testing.T) {
	fn := irtext.MustParse(moduleSource).Functions[0]
	am := NewAnalysisManager(fn)
	if am.Computed != 0 {
		t.Fatal("analyses computed eagerly")
	}

	id := am.Identity()
	pd := am.PostDominance()
	if am.Identity() != id || am.PostDominance() != pd || am.Computed != 2 {
		t.Errorf("analyses not cached, Computed = %d", am.Computed)
	}

	am.InvalidateInstructions()
	am.PostDominance()
	if am.Computed != 2 {
		t.Error("post-dominance should survive instruction invalidation")
	}
	am.Identity()
	if am.Computed != 3 {
		t.Error("identity should be recomputed after instruction invalidation")
	}

	am.InvalidateAll()
	am.PostDominance()
	if am.Computed != 4 {
		t.Error("post-dominance should be recomputed after InvalidateAll")
	}
	if am.Function() != fn {
		t.Error("wrong function")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("drop-retains", func() FunctionPass { return dropRetains })
	r.Register("a-noop", func() FunctionPass {
		return Func{PassName: "a-noop", Fn: func(*ir.Function, *AnalysisManager) bool { return false }}
	})

	if diff := cmp.Diff([]string{"a-noop", "drop-retains"}, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if !r.Has("a-noop") || r.Has("missing") {
		t.Error("Has wrong")
	}

	p, err := r.New("drop-retains")
	if err != nil || p.Name() != "drop-retains" {
		t.Fatalf("New = %v, %v", p, err)
	}

	_, err = r.New("missing")
	if !stderrors.Is(err, errors.New(errors.PhaseConfig, errors.KindNotFound).Build()) {
		t.Errorf("New(missing) error = %v", err)
	}

	passes, err := r.Pipeline([]string{"a-noop", "drop-retains"})
	if err != nil || len(passes) != 2 || passes[1].Name() != "drop-retains" {
		t.Errorf("Pipeline = %v, %v", passes, err)
	}

	_, err = r.Pipeline([]string{"x", "a-noop", "y"})
	var errs errors.Errors
	if !stderrors.As(err, &errs) || len(errs) != 2 {
		t.Errorf("Pipeline error = %v", err)
	}
}

func TestStats(t *testing.T) {
	var s Stats
	s.Add(Stats{Functions: 2, Changed: 1, PerPass: map[string]int{"b": 1}})
	s.Add(Stats{Functions: 1, Changed: 1, PerPass: map[string]int{"a": 1, "b": 1}})
	if got, want := s.String(), "functions=3 changed=2 a=1 b=2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
