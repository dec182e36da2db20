package guaranteed

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/irtext"
	"github.com/wippyai/rcopt/pass"
)

// run applies the pass to every function of src and checks the result
// still verifies.
func run(t *testing.T, src string) (*ir.Module, bool) {
	t.Helper()
	mod := irtext.MustParse(src)
	p := New()
	changed := false
	for _, fn := range mod.Functions {
		if p.Run(fn, pass.NewAnalysisManager(fn)) {
			changed = true
		}
		if err := ir.VerifyFunction(fn); err != nil {
			t.Fatalf("IR invalid after pass: %v\n%s", err, fn)
		}
	}
	return mod, changed
}

func TestPass(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // empty when the input must stay unchanged
	}{
		{
			name: "scenario A tuple encoding",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%g = guarantee_begin %x)
    (%v = extract %g 0)
    (%t = extract %g 1)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "scenario A direct encoding",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "scenario B call between retain and begin",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (apply $other)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "scenario B store between retain and begin",
			src: `
(func $f (args %x %p)
  (block $entry
    (retain %x)
    (store %x %p)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "side-effect free filler before begin",
			src: `
(func $f (args %x %y %p)
  (block $entry
    (retain %x)
    (retain %y)
    (%l = load %p)
    (debug_value %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v %l)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %y %p)
  (block $entry
    (retain %y)
    (%l = load %p)
    (debug_value %x)
    (apply $use %x %l)
    (return)))`,
		},
		{
			name: "scenario C end on one branch",
			src: `
(func $f (args %x %c)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (cond_br %c $then $else))
  (block $then
    (guarantee_end %t)
    (release %x)
    (br $join))
  (block $else
    (br $join))
  (block $join
    (return)))`,
		},
		{
			name: "end in post-dominating block",
			src: `
(func $f (args %x %c)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (cond_br %c $then $else))
  (block $then
    (apply $use %v)
    (br $join))
  (block $else
    (br $join))
  (block $join
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %c)
  (block $entry
    (cond_br %c $then $else))
  (block $then
    (apply $use %x)
    (br $join))
  (block $else
    (br $join))
  (block $join
    (return)))`,
		},
		{
			name: "end inside infinite loop",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (br $spin))
  (block $spin
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (br $spin)))`,
		},
		{
			name: "branch into infinite loop",
			src: `
(func $f (args %x %c)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (cond_br %c $spin $done))
  (block $spin
    (apply $use %v)
    (br $spin))
  (block $done
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "scenario D nested pair",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (retain %v)
    (apply $use %v)
    (release %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "nested pair separated by store",
			src: `
(func $f (args %x %p)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (retain %x)
    (store %v %p)
    (release %x)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %p)
  (block $entry
    (retain %x)
    (store %x %p)
    (release %x)
    (return)))`,
		},
		{
			name: "nested pairing is greedy",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (retain %x)
    (retain_value %v)
    (release %x)
    (release_value %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (release_value %x)
    (return)))`,
		},
		{
			name: "nested pair of another root is kept",
			src: `
(func $f (args %x %y)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (retain %y)
    (apply $use %v %y)
    (release %y)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %y)
  (block $entry
    (retain %y)
    (apply $use %x %y)
    (release %y)
    (return)))`,
		},
		{
			name: "scenario E two ends",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "token escapes",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $keep %t)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "token never ended",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (release %x)
    (return)))`,
		},
		{
			name: "no retain",
			src: `
(func $f (args %x)
  (block $entry
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "retain of another root",
			src: `
(func $f (args %x %y)
  (block $entry
    (retain %y)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %y)
    (return)))`,
		},
		{
			name: "retain in predecessor block",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (br $body))
  (block $body
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "duplicate value projection",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%g = guarantee_begin %x)
    (%v = extract %g 0)
    (%w = extract %g 0)
    (%t = extract %g 1)
    (apply $use %v %w)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "missing value projection",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%g = guarantee_begin %x)
    (%t = extract %g 1)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "tuple passed to a call",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%g = guarantee_begin %x)
    (%v = extract %g 0)
    (%t = extract %g 1)
    (apply $use %g)
    (guarantee_end %t)
    (release %x)
    (return)))`,
		},
		{
			name: "tuple retain_value is rewritten",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%g = guarantee_begin %x)
    (%v = extract %g 0)
    (%t = extract %g 1)
    (retain_value %g)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (retain_value %x)
    (apply $use %x)
    (return)))`,
		},
		{
			name: "debug uses are dropped",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%g = guarantee_begin %x)
    (debug_value %g)
    (%v = extract %g 0)
    (%t = extract %g 1)
    (debug_value %v)
    (debug_value %t)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "release before end",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (release %x)
    (guarantee_end %t)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "release after end preferred",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (retain %x)
    (%v %t = guarantee_begin %x)
    (release %x)
    (guarantee_end %t)
    (release_value %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (release %x)
    (return)))`,
		},
		{
			name: "unrelated release skipped",
			src: `
(func $f (args %x %y)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %y)
    (debug_value %y)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %y)
  (block $entry
    (apply $use %x)
    (release %y)
    (debug_value %y)
    (return)))`,
		},
		{
			name: "release before end when blocked after",
			src: `
(func $f (args %x %p)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (release %x)
    (guarantee_end %t)
    (store %x %p)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %p)
  (block $entry
    (apply $use %x)
    (store %x %p)
    (release %x)
    (return)))`,
		},
		{
			name: "release search stops at side effects",
			src: `
(func $f (args %x %p)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (store %x %p)
    (release %x)
    (return)))`,
		},
		{
			name: "release of the guaranteed value",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %v)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "retain through cast",
			src: `
(func $f (args %x)
  (block $entry
    (%c = cast %x)
    (retain %c)
    (%v %t = guarantee_begin %x)
    (%w = cast %v)
    (apply $use %w)
    (guarantee_end %t)
    (release %c)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (%c = cast %x)
    (%w = cast %x)
    (apply $use %w)
    (return)))`,
		},
		{
			name: "consecutive scopes",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v1 %t1 = guarantee_begin %x)
    (apply $use %v1)
    (guarantee_end %t1)
    (release %x)
    (retain %x)
    (%v2 %t2 = guarantee_begin %x)
    (apply $use %v2)
    (guarantee_end %t2)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (apply $use %x)
    (return)))`,
		},
		{
			name: "scope nested in another scope",
			src: `
(func $f (args %x)
  (block $entry
    (retain %x)
    (%v1 %t1 = guarantee_begin %x)
    (retain %v1)
    (%v2 %t2 = guarantee_begin %v1)
    (apply $use %v2)
    (guarantee_end %t2)
    (release %v1)
    (guarantee_end %t1)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x)
  (block $entry
    (apply $use %x)
    (return)))`,
		},
		{
			name: "scope after unrelated prefix",
			src: `
(func $f (args %x %y)
  (block $entry
    (apply $first %y)
    (retain %x)
    (%v %t = guarantee_begin %x)
    (apply $use %v)
    (guarantee_end %t)
    (release %x)
    (return)))`,
			want: `
(func $f (args %x %y)
  (block $entry
    (apply $first %y)
    (apply $use %x)
    (return)))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, changed := run(t, tt.src)
			want := tt.src
			if tt.want != "" {
				want = tt.want
			}
			if changed != (tt.want != "") {
				t.Errorf("changed = %v", changed)
			}
			if diff := cmp.Diff(irtext.MustParse(want).String(), mod.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
