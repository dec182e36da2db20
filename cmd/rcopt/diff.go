package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"
)

type lineOp int

const (
	lineSame lineOp = iota
	lineRemoved
	lineAdded
)

type diffLine struct {
	text string
	op   lineOp
}

// diffLines compares two listings line by line. Removed lines are reported
// before the added lines that replace them.
func diffLines(before, after string) []diffLine {
	a := strings.Split(strings.TrimRight(before, "\n"), "\n")
	b := strings.Split(strings.TrimRight(after, "\n"), "\n")

	out := make([]diffLine, 0, max(len(a), len(b)))
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, l := range a[op.I1:op.I2] {
				out = append(out, diffLine{text: l, op: lineSame})
			}
			continue
		case 'd', 'r':
			for _, l := range a[op.I1:op.I2] {
				out = append(out, diffLine{text: l, op: lineRemoved})
			}
		}
		if op.Tag == 'i' || op.Tag == 'r' {
			for _, l := range b[op.J1:op.J2] {
				out = append(out, diffLine{text: l, op: lineAdded})
			}
		}
	}
	return out
}

// removedCount returns the number of lines only present before.
func removedCount(lines []diffLine) int {
	n := 0
	for _, l := range lines {
		if l.op == lineRemoved {
			n++
		}
	}
	return n
}

type listingStyles struct {
	header  lipgloss.Style
	same    lipgloss.Style
	removed lipgloss.Style
	added   lipgloss.Style
}

// newListingStyles builds styles bound to w. Without color the styles only
// carry the +/- markers.
func newListingStyles(w io.Writer, color bool) listingStyles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return listingStyles{
		header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		same: r.NewStyle(),
		removed: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Strikethrough(true),
		added: r.NewStyle().
			Foreground(lipgloss.Color("#90EE90")),
	}
}

// render prints lines with a one character marker column.
func (s listingStyles) render(lines []diffLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch l.op {
		case lineRemoved:
			b.WriteString(s.removed.Render("- " + l.text))
		case lineAdded:
			b.WriteString(s.added.Render("+ " + l.text))
		default:
			b.WriteString(s.same.Render("  " + l.text))
		}
	}
	return b.String()
}

// side renders only the lines of one side of a listing, highlighting the
// lines that differ.
func (s listingStyles) side(lines []diffLine, op lineOp) string {
	var b strings.Builder
	first := true
	for _, l := range lines {
		if l.op != lineSame && l.op != op {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		first = false
		if l.op == lineSame {
			b.WriteString(s.same.Render(l.text))
		} else if op == lineRemoved {
			b.WriteString(s.removed.Render(l.text))
		} else {
			b.WriteString(s.added.Render(l.text))
		}
	}
	return b.String()
}
