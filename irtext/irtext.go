package irtext

import (
	"fmt"

	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/irtext/internal/parser"
	"github.com/wippyai/rcopt/irtext/internal/token"
)

// Parse reads IR text and verifies the resulting module.
func Parse(source string) (*ir.Module, error) {
	mod, err := ParseUnverified(source)
	if err != nil {
		return nil, err
	}
	if err := ir.Verify(mod); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return mod, nil
}

// ParseUnverified reads IR text without running the verifier. Useful for
// inspecting malformed input.
func ParseUnverified(source string) (*ir.Module, error) {
	return parser.New(token.Tokenize(source)).Parse()
}

// ParseFunction reads a source holding exactly one function.
func ParseFunction(source string) (*ir.Function, error) {
	mod, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if len(mod.Functions) != 1 {
		return nil, fmt.Errorf("expected one function, got %d", len(mod.Functions))
	}
	return mod.Functions[0], nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(source string) *ir.Module {
	mod, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return mod
}
