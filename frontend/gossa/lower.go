package gossa

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/wippyai/rcopt/errors"
	"github.com/wippyai/rcopt/ir"
)

var intrinsics = map[string]ir.Opcode{
	"retain":         ir.OpRetain,
	"retainValue":    ir.OpRetainValue,
	"release":        ir.OpRelease,
	"releaseValue":   ir.OpReleaseValue,
	"guaranteeBegin": ir.OpGuaranteeBegin,
	"guaranteeEnd":   ir.OpGuaranteeEnd,
	"debugValue":     ir.OpDebugValue,
}

// LowerSource parses, type-checks and builds a single Go file and lowers
// its functions.
func LowerSource(filename string, src []byte) (*ir.Module, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLower, errors.KindSyntax, err, filename)
	}

	conf := &types.Config{Importer: importer.Default()}
	pkg := types.NewPackage(file.Name.Name, file.Name.Name)
	ssaPkg, _, err := ssautil.BuildPackage(conf, fset, pkg, []*ast.File{file}, ssa.BuilderMode(0))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLower, errors.KindInvalidInput, err, filename)
	}
	return LowerPackage(ssaPkg)
}

// LowerPackage lowers every function of a built SSA package, including
// anonymous functions, in source order. Functions named like intrinsics are
// skipped.
func LowerPackage(pkg *ssa.Package) (*ir.Module, error) {
	var fns []*ssa.Function
	for _, mem := range pkg.Members {
		fn, ok := mem.(*ssa.Function)
		if !ok || fn.Blocks == nil || fn.Synthetic != "" {
			continue
		}
		if _, reserved := intrinsics[fn.Name()]; reserved {
			continue
		}
		fns = appendWithAnon(fns, fn)
	}
	// Members is a map; order by position for stable output.
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].Pos() < fns[j].Pos() })

	mod := ir.NewModule()
	var errs errors.Errors
	for _, fn := range fns {
		out, err := LowerFunction(fn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mod.AddFunction(out)
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	if err := ir.Verify(mod); err != nil {
		return nil, fmt.Errorf("lowered IR: %w", err)
	}
	return mod, nil
}

func appendWithAnon(fns []*ssa.Function, fn *ssa.Function) []*ssa.Function {
	fns = append(fns, fn)
	for _, anon := range fn.AnonFuncs {
		fns = appendWithAnon(fns, anon)
	}
	return fns
}

// LowerFunction lowers a single SSA function. Parameters and free variables
// become function arguments; blocks are labelled b0, b1, ... after their
// SSA index.
func LowerFunction(fn *ssa.Function) (*ir.Function, *errors.Error) {
	l := &lowerer{
		src:    fn,
		fn:     ir.NewFunction(fn.Name()),
		values: make(map[ssa.Value]*ir.Value),
		blocks: make(map[*ssa.BasicBlock]*ir.Block),
	}
	if fn.Pkg != nil {
		l.qual = types.RelativeTo(fn.Pkg.Pkg)
	}
	if err := l.lower(); err != nil {
		return nil, err
	}
	return l.fn, nil
}

type fixup struct {
	inst  *ir.Instruction
	index int
	value ssa.Value
}

type lowerer struct {
	src    *ssa.Function
	fn     *ir.Function
	qual   types.Qualifier
	values map[ssa.Value]*ir.Value
	blocks map[*ssa.BasicBlock]*ir.Block
	fixups []fixup
	b      *ir.Builder
}

func (l *lowerer) lower() *errors.Error {
	for _, p := range l.src.Params {
		l.values[p] = l.fn.AddArg(p.Name())
	}
	for _, fv := range l.src.FreeVars {
		l.values[fv] = l.fn.AddArg(fv.Name())
	}
	for _, sb := range l.src.Blocks {
		l.blocks[sb] = l.fn.NewBlock(fmt.Sprintf("b%d", sb.Index))
	}

	l.b = ir.NewBuilder(l.fn)
	l.b.SetBlock(l.blocks[l.src.Blocks[0]])
	for _, sb := range l.src.Blocks {
		for _, instr := range sb.Instrs {
			for _, v := range operandValues(instr) {
				l.materialize(v)
			}
		}
	}

	for _, sb := range l.src.Blocks {
		l.b.SetBlock(l.blocks[sb])
		for _, instr := range sb.Instrs {
			if err := l.instr(instr); err != nil {
				return err
			}
		}
	}

	for _, f := range l.fixups {
		v, ok := l.values[f.value]
		if !ok {
			return errors.UndefinedValue(errors.PhaseLower, []string{l.fn.Name}, f.value.Name())
		}
		f.inst.SetOperand(f.index, v)
	}
	return nil
}

// operandValues returns the SSA values instr reads. The callee of a static
// call is not a value.
func operandValues(instr ssa.Instruction) []ssa.Value {
	var out []ssa.Value
	if call, ok := instr.(ssa.CallInstruction); ok {
		common := call.Common()
		if common.StaticCallee() == nil {
			out = append(out, common.Value)
		}
		return append(out, common.Args...)
	}
	for _, op := range instr.Operands(nil) {
		if op != nil && *op != nil {
			out = append(out, *op)
		}
	}
	return out
}

// materialize emits a literal for constants, globals and functions.
func (l *lowerer) materialize(v ssa.Value) {
	if _, done := l.values[v]; done {
		return
	}
	switch v := v.(type) {
	case *ssa.Const:
		if v.Value != nil && v.Value.Kind() == constant.Int {
			if n, exact := constant.Int64Val(v.Value); exact {
				l.values[v] = l.b.Literal(n)
				return
			}
		}
		l.values[v] = l.b.Symbol(v.String())
	case *ssa.Global:
		l.values[v] = l.b.Symbol(v.Name())
	case *ssa.Function:
		l.values[v] = l.b.Symbol(v.RelString(l.pkg()))
	case *ssa.Builtin:
		l.values[v] = l.b.Symbol(v.Name())
	}
}

func (l *lowerer) pkg() *types.Package {
	if l.src.Pkg == nil {
		return nil
	}
	return l.src.Pkg.Pkg
}

// emit appends op with operands resolved after all blocks are lowered.
func (l *lowerer) emit(op ir.Opcode, numResults int, operands ...ssa.Value) *ir.Instruction {
	inst := l.fn.NewDetached(op, numResults, make([]*ir.Value, len(operands))...)
	for n, v := range operands {
		l.fixups = append(l.fixups, fixup{inst: inst, index: n, value: v})
	}
	l.b.Block().Append(inst)
	return inst
}

// define binds the SSA value v to the first result of inst.
func (l *lowerer) define(v ssa.Value, inst *ir.Instruction) {
	r := inst.Result(0)
	r.Name = v.Name()
	l.values[v] = r
}

func (l *lowerer) fail(instr ssa.Instruction, format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseLower, errors.KindUnsupported).
		Path(l.fn.Name, fmt.Sprintf("b%d", instr.Block().Index)).
		Value(instr.String()).
		Detail(format, args...).
		Build()
}

func (l *lowerer) instr(instr ssa.Instruction) *errors.Error {
	switch instr := instr.(type) {
	case *ssa.Call:
		return l.call(instr)
	case *ssa.ChangeType:
		l.define(instr, l.emit(ir.OpCast, 1, instr.X))
	case *ssa.ChangeInterface:
		l.define(instr, l.emit(ir.OpCast, 1, instr.X))
	case *ssa.Extract:
		inst := l.emit(ir.OpExtract, 1, instr.Tuple)
		inst.Imm = int64(instr.Index)
		l.define(instr, inst)
	case *ssa.Alloc:
		inst := l.emit(ir.OpAlloc, 1)
		inst.Callee = types.TypeString(deref(instr.Type()), l.qual)
		l.define(instr, inst)
	case *ssa.Store:
		l.emit(ir.OpStore, 0, instr.Val, instr.Addr)
	case *ssa.UnOp:
		switch instr.Op {
		case token.MUL:
			l.define(instr, l.emit(ir.OpLoad, 1, instr.X))
		case token.ARROW:
			l.define(instr, l.opaque("recv", instr.X))
		default:
			l.define(instr, l.pure(instr.Op.String(), instr.X))
		}
	case *ssa.BinOp:
		l.define(instr, l.pure(instr.Op.String(), instr.X, instr.Y))
	case *ssa.Phi:
		l.define(instr, l.emit(ir.OpPhi, 1, uniqueEdges(instr)...))
	case *ssa.DebugRef:
		l.emit(ir.OpDebugValue, 0, instr.X)
	case *ssa.Jump:
		l.b.Br(l.blocks[instr.Block().Succs[0]])
	case *ssa.If:
		succs := instr.Block().Succs
		l.emit(ir.OpCondBr, 0, instr.Cond).SetTargets(l.blocks[succs[0]], l.blocks[succs[1]])
	case *ssa.Return:
		l.ret(instr)
	case *ssa.Panic:
		l.emit(ir.OpApply, 0, instr.X).Callee = "panic"
		l.b.Unreachable()
	case *ssa.FieldAddr, *ssa.IndexAddr, *ssa.Field, *ssa.Index, *ssa.Slice,
		*ssa.Convert, *ssa.MakeInterface, *ssa.Lookup, *ssa.SliceToArrayPointer,
		*ssa.MultiConvert:
		v := instr.(ssa.Value)
		l.define(v, l.pure(kindName(instr), operandValues(instr)...))
	default:
		l.generic(instr)
	}
	return nil
}

// pure emits a side-effect free op.
func (l *lowerer) pure(name string, args ...ssa.Value) *ir.Instruction {
	inst := l.emit(ir.OpOp, 1, args...)
	inst.Callee = name
	return inst
}

// opaque emits an apply producing one value.
func (l *lowerer) opaque(name string, args ...ssa.Value) *ir.Instruction {
	inst := l.emit(ir.OpApply, 1, args...)
	inst.Callee = name
	return inst
}

// generic lowers any remaining instruction to apply, with a result when it
// defines a value.
func (l *lowerer) generic(instr ssa.Instruction) {
	v, isValue := instr.(ssa.Value)
	results := 0
	if isValue && !isVoid(v.Type()) {
		results = 1
	}
	inst := l.emit(ir.OpApply, results, operandValues(instr)...)
	inst.Callee = kindName(instr)
	if results == 1 {
		l.define(v, inst)
	}
}

func (l *lowerer) call(c *ssa.Call) *errors.Error {
	common := c.Common()
	callee := common.StaticCallee()
	if callee != nil && callee.Parent() == nil {
		if op, ok := intrinsics[callee.Name()]; ok {
			return l.intrinsic(c, op)
		}
	}

	results := 0
	if !isVoid(c.Type()) {
		results = 1
	}
	var inst *ir.Instruction
	switch {
	case callee != nil:
		inst = l.emit(ir.OpApply, results, common.Args...)
		inst.Callee = callee.RelString(l.pkg())
	case common.IsInvoke():
		inst = l.emit(ir.OpApply, results, append([]ssa.Value{common.Value}, common.Args...)...)
		inst.Callee = "invoke." + common.Method.Name()
	default:
		inst = l.emit(ir.OpApply, results, append([]ssa.Value{common.Value}, common.Args...)...)
	}
	if results == 1 {
		l.define(c, inst)
	}
	return nil
}

func (l *lowerer) intrinsic(c *ssa.Call, op ir.Opcode) *errors.Error {
	args := c.Common().Args
	if len(args) != 1 {
		return l.fail(c, "%s takes one argument, got %d", op, len(args))
	}
	if op == ir.OpGuaranteeBegin {
		tuple, ok := c.Type().(*types.Tuple)
		if !ok || tuple.Len() != 2 {
			return l.fail(c, "guaranteeBegin must return a value and a token")
		}
		l.define(c, l.emit(op, 1, args[0]))
		return nil
	}
	if !isVoid(c.Type()) {
		return l.fail(c, "%s must not return a value", op)
	}
	l.emit(op, 0, args[0])
	return nil
}

func (l *lowerer) ret(r *ssa.Return) {
	switch len(r.Results) {
	case 0:
		l.emit(ir.OpReturn, 0)
	case 1:
		l.emit(ir.OpReturn, 0, r.Results[0])
	default:
		tuple := l.pure("tuple", r.Results...)
		inst := l.fn.NewDetached(ir.OpReturn, 0, tuple.Result(0))
		l.b.Block().Append(inst)
	}
}

// uniqueEdges returns the phi edges for distinct predecessor blocks.
func uniqueEdges(phi *ssa.Phi) []ssa.Value {
	preds := phi.Block().Preds
	seen := make(map[*ssa.BasicBlock]bool, len(preds))
	var out []ssa.Value
	for i, e := range phi.Edges {
		if seen[preds[i]] {
			continue
		}
		seen[preds[i]] = true
		out = append(out, e)
	}
	return out
}

func isVoid(t types.Type) bool {
	tuple, ok := t.(*types.Tuple)
	return ok && tuple.Len() == 0
}

func deref(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// kindName returns the lower-case SSA instruction kind, e.g. "fieldaddr".
func kindName(instr ssa.Instruction) string {
	name := fmt.Sprintf("%T", instr)
	return strings.ToLower(strings.TrimPrefix(name, "*ssa."))
}
