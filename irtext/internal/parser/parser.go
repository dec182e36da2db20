package parser

import (
	"strconv"
	"strings"

	"github.com/wippyai/rcopt/errors"
	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/irtext/internal/token"
)

// Parser reads IR text into an ir.Module. Functions are parsed into a raw
// form first so that values and blocks may be referenced before they are
// defined.
type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

type rawFunc struct {
	name   string
	args   []string
	blocks []rawBlock
	line   int
}

type rawBlock struct {
	label  string
	instrs []rawInstr
	line   int
}

type rawInstr struct {
	imm      *int64
	results  []string
	operands []string
	symbols  []string
	name     string
	line     int
}

// Parse reads either a (module ...) form or a bare sequence of (func ...)
// forms.
func (p *Parser) Parse() (*ir.Module, error) {
	var funcs []rawFunc

	t := p.peek()
	if t != nil && t.Type == token.LParen && p.peekAt(1) != nil && p.peekAt(1).Value == "module" {
		p.next()
		p.next()
		for {
			t := p.peek()
			if t == nil {
				return nil, errors.Syntax(p.lastLine(), "unterminated module")
			}
			if t.Type == token.RParen {
				p.next()
				break
			}
			fn, err := p.parseFunc()
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, fn)
		}
	}
	for p.peek() != nil {
		fn, err := p.parseFunc()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	mod := ir.NewModule()
	seen := make(map[string]bool)
	for _, rf := range funcs {
		if seen[rf.name] {
			return nil, errors.New(errors.PhaseParse, errors.KindRedefinition).
				Line(rf.line).
				Detail("function %s defined twice", ir.FormatSymbol(rf.name)).
				Build()
		}
		seen[rf.name] = true
		fn, err := build(rf)
		if err != nil {
			return nil, err
		}
		mod.AddFunction(fn)
	}
	return mod, nil
}

func (p *Parser) peek() *token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) lastLine() int {
	if len(p.tokens) == 0 {
		return 1
	}
	return p.tokens[len(p.tokens)-1].Line
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(p.lastLine(), "unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, errors.Syntax(t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *Parser) expectKeyword(kw string) (*token.Token, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if t.Value != kw {
		return nil, errors.Syntax(t.Line, "expected %q, got %q", kw, t.Value)
	}
	return t, nil
}

// parseSymbol reads a $name or "quoted" symbol.
func (p *Parser) parseSymbol() (string, int, error) {
	t := p.next()
	if t == nil {
		return "", p.lastLine(), errors.Syntax(p.lastLine(), "unexpected end of input, expected symbol")
	}
	name, ok := symbolName(t)
	if !ok {
		return "", t.Line, errors.Syntax(t.Line, "expected symbol, got %q", t.Value)
	}
	return name, t.Line, nil
}

func symbolName(t *token.Token) (string, bool) {
	switch {
	case t.Type == token.Ident && strings.HasPrefix(t.Value, "$") && len(t.Value) > 1:
		return t.Value[1:], true
	case t.Type == token.String:
		s, err := strconv.Unquote(t.Value)
		if err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

func valueName(t *token.Token) string {
	return strings.TrimPrefix(t.Value, "%")
}

func (p *Parser) parseFunc() (rawFunc, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return rawFunc{}, err
	}
	kw, err := p.expectKeyword("func")
	if err != nil {
		return rawFunc{}, err
	}
	name, _, err := p.parseSymbol()
	if err != nil {
		return rawFunc{}, err
	}
	fn := rawFunc{name: name, line: kw.Line}

	for {
		t := p.peek()
		if t == nil {
			return rawFunc{}, errors.Syntax(p.lastLine(), "unterminated function %s", ir.FormatSymbol(name))
		}
		if t.Type == token.RParen {
			p.next()
			return fn, nil
		}
		if t.Type != token.LParen {
			return rawFunc{}, errors.Syntax(t.Line, "unexpected %q in function", t.Value)
		}
		head := p.peekAt(1)
		if head == nil {
			return rawFunc{}, errors.Syntax(t.Line, "unexpected end of input")
		}
		switch head.Value {
		case "args":
			if len(fn.args) > 0 || len(fn.blocks) > 0 {
				return rawFunc{}, errors.Syntax(head.Line, "args must come first and only once")
			}
			p.next()
			p.next()
			for {
				t := p.next()
				if t == nil {
					return rawFunc{}, errors.Syntax(p.lastLine(), "unterminated args")
				}
				if t.Type == token.RParen {
					break
				}
				if t.Type != token.Value {
					return rawFunc{}, errors.Syntax(t.Line, "expected argument value, got %q", t.Value)
				}
				fn.args = append(fn.args, valueName(t))
			}
		case "block":
			blk, err := p.parseBlock()
			if err != nil {
				return rawFunc{}, err
			}
			fn.blocks = append(fn.blocks, blk)
		default:
			return rawFunc{}, errors.Syntax(head.Line, "expected args or block, got %q", head.Value)
		}
	}
}

func (p *Parser) parseBlock() (rawBlock, error) {
	p.next() // (
	kw := p.next()
	label, _, err := p.parseSymbol()
	if err != nil {
		return rawBlock{}, err
	}
	blk := rawBlock{label: label, line: kw.Line}
	for {
		t := p.peek()
		if t == nil {
			return rawBlock{}, errors.Syntax(p.lastLine(), "unterminated block %s", ir.FormatSymbol(label))
		}
		if t.Type == token.RParen {
			p.next()
			return blk, nil
		}
		inst, err := p.parseInstr()
		if err != nil {
			return rawBlock{}, err
		}
		blk.instrs = append(blk.instrs, inst)
	}
}

func (p *Parser) parseInstr() (rawInstr, error) {
	open, err := p.expect(token.LParen)
	if err != nil {
		return rawInstr{}, err
	}
	inst := rawInstr{line: open.Line}

	// Optional result list: %a %b = ...
	if t := p.peek(); t != nil && t.Type == token.Value {
		for {
			t := p.next()
			if t == nil {
				return rawInstr{}, errors.Syntax(p.lastLine(), "unexpected end of input")
			}
			if t.Type == token.Equals {
				break
			}
			if t.Type != token.Value {
				return rawInstr{}, errors.Syntax(t.Line, "expected result value or '=', got %q", t.Value)
			}
			inst.results = append(inst.results, valueName(t))
		}
	}

	op, err := p.expect(token.Ident)
	if err != nil {
		return rawInstr{}, err
	}
	inst.name = op.Value

	for {
		t := p.next()
		if t == nil {
			return rawInstr{}, errors.Syntax(p.lastLine(), "unterminated instruction %s", inst.name)
		}
		switch t.Type {
		case token.RParen:
			return inst, nil
		case token.Value:
			inst.operands = append(inst.operands, valueName(t))
		case token.Number:
			if inst.imm != nil {
				return rawInstr{}, errors.Syntax(t.Line, "more than one immediate in %s", inst.name)
			}
			n, err := parseInt(t.Value)
			if err != nil {
				return rawInstr{}, errors.Syntax(t.Line, "invalid number %q", t.Value)
			}
			inst.imm = &n
		default:
			name, ok := symbolName(t)
			if !ok {
				return rawInstr{}, errors.Syntax(t.Line, "unexpected %q in %s", t.Value, inst.name)
			}
			inst.symbols = append(inst.symbols, name)
		}
	}
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 0, 64)
}

// build lowers a raw function into IR, resolving names.
func build(rf rawFunc) (*ir.Function, error) {
	fn := ir.NewFunction(rf.name)
	path := func(parts ...string) []string {
		return append([]string{rf.name}, parts...)
	}

	values := make(map[string]*ir.Value)
	define := func(name string, v *ir.Value, line int) error {
		if _, dup := values[name]; dup {
			return errors.New(errors.PhaseParse, errors.KindRedefinition).
				Path(path()...).
				Line(line).
				Detail("value %%%s defined twice", name).
				Build()
		}
		values[name] = v
		return nil
	}

	for _, a := range rf.args {
		if err := define(a, fn.AddArg(a), rf.line); err != nil {
			return nil, err
		}
	}

	blocks := make(map[string]*ir.Block, len(rf.blocks))
	for _, rb := range rf.blocks {
		if _, dup := blocks[rb.label]; dup {
			return nil, errors.New(errors.PhaseParse, errors.KindRedefinition).
				Path(path()...).
				Line(rb.line).
				Detail("block %s defined twice", ir.FormatSymbol(rb.label)).
				Build()
		}
		blocks[rb.label] = fn.NewBlock(rb.label)
	}

	type pending struct {
		inst *ir.Instruction
		raw  *rawInstr
		blk  string
	}
	var insts []pending

	for bi := range rf.blocks {
		rb := &rf.blocks[bi]
		blk := blocks[rb.label]
		for ii := range rb.instrs {
			ri := &rb.instrs[ii]
			op, ok := ir.LookupOpcode(ri.name)
			if !ok {
				e := errors.UnknownOpcode(ri.line, ri.name)
				e.Path = path(rb.label)
				return nil, e
			}
			inst, e := newInstruction(fn, op, ri, blocks)
			if e != nil {
				e.Path = path(rb.label)
				return nil, e
			}
			for n, name := range ri.results {
				inst.Result(n).Name = name
				if err := define(name, inst.Result(n), ri.line); err != nil {
					return nil, err
				}
			}
			blk.Append(inst)
			insts = append(insts, pending{inst: inst, raw: ri, blk: rb.label})
		}
	}

	for _, p := range insts {
		for n, name := range p.raw.operands {
			v, ok := values[name]
			if !ok {
				e := errors.UndefinedValue(errors.PhaseParse, path(p.blk), name)
				e.Line = p.raw.line
				return nil, e
			}
			p.inst.SetOperand(n, v)
		}
	}
	return fn, nil
}

// newInstruction creates a detached instruction and assigns its symbols and
// immediate according to the opcode. Operands are wired by the caller.
func newInstruction(fn *ir.Function, op ir.Opcode, ri *rawInstr, blocks map[string]*ir.Block) (*ir.Instruction, *errors.Error) {
	info := op.Info()
	if len(ri.results) < info.MinResults || len(ri.results) > info.MaxResults {
		return nil, errors.New(errors.PhaseParse, errors.KindResultCount).
			Line(ri.line).
			Detail("%s defines %d results, want %d..%d", op, len(ri.results), info.MinResults, info.MaxResults).
			Build()
	}

	inst := fn.NewDetached(op, len(ri.results), make([]*ir.Value, len(ri.operands))...)
	inst.Line = ri.line

	syms := ri.symbols
	switch {
	case info.Terminator:
		if len(syms) != info.Targets {
			return nil, errors.Syntax(ri.line, "%s has %d successors, want %d", op, len(syms), info.Targets)
		}
		targets := make([]*ir.Block, len(syms))
		for n, label := range syms {
			b, ok := blocks[label]
			if !ok {
				return nil, errors.New(errors.PhaseParse, errors.KindUndefinedBlock).
					Line(ri.line).
					Detail("block %s is not defined", ir.FormatSymbol(label)).
					Value(label).
					Build()
			}
			targets[n] = b
		}
		inst.SetTargets(targets...)
		syms = nil
	case info.HasCallee && len(syms) > 0:
		inst.Callee = syms[0]
		syms = syms[1:]
	}
	if len(syms) > 0 {
		return nil, errors.Syntax(ri.line, "unexpected symbol %s in %s", ir.FormatSymbol(syms[0]), op)
	}

	if ri.imm != nil {
		if !info.HasImm {
			return nil, errors.Syntax(ri.line, "unexpected immediate %d in %s", *ri.imm, op)
		}
		inst.Imm = *ri.imm
	} else if op == ir.OpExtract {
		return nil, errors.Syntax(ri.line, "extract requires a tuple index")
	}
	return inst, nil
}
