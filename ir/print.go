package ir

import (
	"strconv"
	"strings"
)

// String renders the module in the IR text format.
func (m *Module) String() string {
	var b strings.Builder
	b.WriteString("(module")
	for _, fn := range m.Functions {
		b.WriteByte('\n')
		writeFunction(&b, fn, "  ")
	}
	b.WriteString(")\n")
	return b.String()
}

// String renders the function in the IR text format.
func (f *Function) String() string {
	var b strings.Builder
	writeFunction(&b, f, "")
	return b.String()
}

func writeFunction(b *strings.Builder, f *Function, indent string) {
	b.WriteString(indent)
	b.WriteString("(func ")
	b.WriteString(FormatSymbol(f.Name))
	if len(f.args) > 0 {
		b.WriteString(" (args")
		for _, a := range f.args {
			b.WriteByte(' ')
			b.WriteString(a.String())
		}
		b.WriteByte(')')
	}
	for _, blk := range f.blocks {
		b.WriteByte('\n')
		b.WriteString(indent)
		b.WriteString("  (block ")
		b.WriteString(FormatSymbol(blk.Label))
		for cur := blk.first; cur != nil; cur = cur.next {
			b.WriteByte('\n')
			b.WriteString(indent)
			b.WriteString("    ")
			b.WriteString(FormatInstruction(cur))
		}
		b.WriteByte(')')
	}
	b.WriteByte(')')
}

// FormatInstruction renders a single instruction in the IR text format.
func FormatInstruction(i *Instruction) string {
	var b strings.Builder
	b.WriteByte('(')
	if len(i.results) > 0 {
		for n, r := range i.results {
			if n > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(r.String())
		}
		b.WriteString(" = ")
	}
	b.WriteString(i.op.String())

	info := i.op.Info()
	if info.HasCallee && i.Callee != "" {
		b.WriteByte(' ')
		b.WriteString(FormatSymbol(i.Callee))
	}
	for _, v := range i.operands {
		b.WriteByte(' ')
		b.WriteString(v.String())
	}
	if i.op == OpExtract || (i.op == OpLiteral && i.Callee == "") {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(i.Imm, 10))
	}
	for _, t := range i.targets {
		b.WriteByte(' ')
		b.WriteString(FormatSymbol(t.Label))
	}
	b.WriteByte(')')
	return b.String()
}

// FormatSymbol renders a function, block or callee name. Names that are not
// plain identifiers are written as quoted strings.
func FormatSymbol(name string) string {
	if isPlainSymbol(name) {
		return "$" + name
	}
	return strconv.Quote(name)
}

func isPlainSymbol(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '$', r == '-':
		default:
			return false
		}
	}
	return true
}
