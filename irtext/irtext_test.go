package irtext

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	rerrors "github.com/wippyai/rcopt/errors"
	"github.com/wippyai/rcopt/ir"
)

const roundTripSource = `(module
  (func $scenario (args %x %c)
    (block $entry
      (retain %x)
      (%g = guarantee_begin %x)
      (%v = extract %g 0)
      (%t = extract %g 1)
      (debug_value %v)
      (apply $use %v)
      (%r = apply "(*T).String" %v)
      (cond_br %c $then $else))
    (block $then
      (guarantee_end %t)
      (release %x)
      (br $join))
    (block $else
      (%one = literal 1)
      (%sym = literal $global)
      (br $join))
    (block $join
      (%p = phi %r %r)
      (return %p)))
  (func $pair (args %y)
    (block $entry
      (%v %t = guarantee_begin %y)
      (%c = cast %v)
      (%o = alloc $Foo)
      (store %c %o)
      (%l = load %o)
      (%s = op $add %l %l)
      (guarantee_end %t)
      (unreachable))))
`

func TestParse_RoundTrip(t *testing.T) {
	mod, err := Parse(roundTripSource)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff(roundTripSource, mod.String()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	again, err := Parse(mod.String())
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if again.String() != mod.String() {
		t.Error("printing is not stable")
	}
}

func TestParse_Structure(t *testing.T) {
	mod, err := Parse(roundTripSource)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(mod.Functions) != 2 {
		t.Fatalf("got %d functions, want 2", len(mod.Functions))
	}

	fn := mod.Function("scenario")
	if fn == nil {
		t.Fatal("function scenario not found")
	}
	if len(fn.Args()) != 2 {
		t.Errorf("got %d args, want 2", len(fn.Args()))
	}
	if got := len(fn.Blocks()); got != 4 {
		t.Fatalf("got %d blocks, want 4", got)
	}

	entry := fn.Entry()
	if entry.Label != "entry" {
		t.Errorf("entry label = %q", entry.Label)
	}
	succs := entry.Successors()
	if len(succs) != 2 || succs[0].Label != "then" || succs[1].Label != "else" {
		t.Errorf("entry successors = %v", succs)
	}

	x := fn.Args()[0]
	if x.NumUses() != 3 {
		t.Errorf("%%x has %d uses, want 3", x.NumUses())
	}

	begin := entry.First().Next()
	if !begin.IsBeginGuarantee() || begin.NumResults() != 1 {
		t.Fatalf("second instruction = %v", begin)
	}
	if got := begin.Result(0).NumUses(); got != 2 {
		t.Errorf("tuple has %d uses, want 2", got)
	}

	// %t is defined in entry and used in then.
	then := fn.Block("then")
	end := then.First()
	if !end.IsEndGuarantee() || end.Operand(0).Name != "t" {
		t.Errorf("then starts with %v", end)
	}

	apply := begin.Next().Next().Next().Next()
	if apply.Op() != ir.OpApply || apply.Callee != "use" {
		t.Errorf("apply = %v", apply)
	}
	named := apply.Next()
	if named.Callee != "(*T).String" {
		t.Errorf("quoted callee = %q", named.Callee)
	}

	pair := mod.Function("pair")
	pb := pair.Entry().First()
	if pb.NumResults() != 2 {
		t.Errorf("pair encoding has %d results", pb.NumResults())
	}
}

func TestParse_ForwardReference(t *testing.T) {
	src := `
(func $loop (args %n)
  (block $entry
    (br $head))
  (block $head
    (%i = phi %n %next)
    (%next = op $dec %i)
    (cond_br %next $head $exit))
  (block $exit
    (return %i)))`

	fn, err := ParseFunction(src)
	if err != nil {
		t.Fatalf("ParseFunction failed: %v", err)
	}
	phi := fn.Block("head").First()
	if phi.Operand(1).Name != "next" {
		t.Errorf("phi operand = %v", phi.Operand(1))
	}
	if fn.Block("head").Successors()[0] != fn.Block("head") {
		t.Error("self loop not resolved")
	}
}

func TestParse_Comments(t *testing.T) {
	src := `
;; leading comment
(func $f (args %x) (; inline ;)
  (block $b
    (retain %x) ;; trailing
    (release %x)
    (return)))`
	fn, err := ParseFunction(src)
	if err != nil {
		t.Fatalf("ParseFunction failed: %v", err)
	}
	if n := fn.NumInstructions(); n != 3 {
		t.Errorf("got %d instructions, want 3", n)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind rerrors.Kind
		line int
	}{
		{
			name: "unknown opcode",
			src:  "(func $f\n (block $b\n  (frobnicate)\n  (return)))",
			kind: rerrors.KindUnknownOpcode,
			line: 3,
		},
		{
			name: "undefined value",
			src:  "(func $f\n (block $b\n  (retain %nope)\n  (return)))",
			kind: rerrors.KindUndefinedValue,
			line: 3,
		},
		{
			name: "undefined block",
			src:  "(func $f\n (block $b\n  (br $nowhere)))",
			kind: rerrors.KindUndefinedBlock,
			line: 3,
		},
		{
			name: "duplicate value",
			src:  "(func $f (args %x)\n (block $b\n  (%x = literal 1)\n  (return)))",
			kind: rerrors.KindRedefinition,
			line: 3,
		},
		{
			name: "duplicate block",
			src:  "(func $f\n (block $b (return))\n (block $b (return)))",
			kind: rerrors.KindRedefinition,
			line: 3,
		},
		{
			name: "duplicate function",
			src:  "(func $f (block $b (return)))\n(func $f (block $b (return)))",
			kind: rerrors.KindRedefinition,
			line: 2,
		},
		{
			name: "too many results",
			src:  "(func $f (args %x)\n (block $b\n  (%a %b %c = guarantee_begin %x)\n  (return)))",
			kind: rerrors.KindResultCount,
			line: 3,
		},
		{
			name: "missing extract index",
			src:  "(func $f (args %x)\n (block $b\n  (%a = extract %x)\n  (return)))",
			kind: rerrors.KindSyntax,
			line: 3,
		},
		{
			name: "unterminated",
			src:  "(func $f (block $b (return)",
			kind: rerrors.KindSyntax,
			line: 1,
		},
		{
			name: "stray token",
			src:  "(func $f\n (block $b\n  (retain * )))",
			kind: rerrors.KindSyntax,
			line: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUnverified(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *rerrors.Error
			if !errors.As(err, &e) {
				t.Fatalf("error %v is not structured", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v (%v)", e.Kind, tt.kind, err)
			}
			if e.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", e.Line, tt.line, err)
			}
		})
	}
}

func TestParse_VerifiesResult(t *testing.T) {
	// Parses fine but the block lacks a terminator.
	src := "(func $f (args %x) (block $b (retain %x)))"
	if _, err := ParseUnverified(src); err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	_, err := Parse(src)
	if !errors.Is(err, &rerrors.Error{Phase: rerrors.PhaseVerify, Kind: rerrors.KindMalformedIR}) {
		t.Errorf("Parse error = %v, want malformed IR", err)
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on invalid input")
		}
	}()
	MustParse("(func")
}
