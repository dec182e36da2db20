package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/rcopt/ir"
	"github.com/wippyai/rcopt/pass"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))
)

type interactiveModel struct {
	err      error
	load     tea.Cmd
	filename string
	stats    pass.Stats
	funcs    []funcEntry
	visible  []int
	filter   textinput.Model
	before   viewport.Model
	after    viewport.Model
	selected int
	width    int
	height   int
	state    modelState
}

type funcEntry struct {
	name    string
	lines   []diffLine
	removed int
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateShowFunc
)

func newInteractiveModel(filename string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		filter:   ti,
		before:   viewport.New(40, 20),
		after:    viewport.New(40, 20),
		state:    stateSelectFunc,
	}
}

type loadedMsg struct {
	err   error
	stats pass.Stats
	funcs []funcEntry
}

func runInteractive(opts options) error {
	filename := opts.inFile
	if filename == "" {
		filename = opts.goFile
	}
	m := newInteractiveModel(filename)
	m.load = func() tea.Msg { return loadFunctions(opts) }
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// loadFunctions runs the pipeline and diffs every function against its
// original listing.
func loadFunctions(opts options) loadedMsg {
	cfg, err := loadConfig(opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	mod, err := loadModule(opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	mgr, err := cfg.Manager(pass.Default)
	if err != nil {
		return loadedMsg{err: err}
	}
	before := mod.Clone()
	stats, err := mgr.Run(context.Background(), mod)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{stats: stats, funcs: entries(before, mod)}
}

func entries(before, after *ir.Module) []funcEntry {
	funcs := make([]funcEntry, len(after.Functions))
	for i, fn := range after.Functions {
		lines := diffLines(before.Functions[i].String(), fn.String())
		funcs[i] = funcEntry{name: fn.Name, lines: lines, removed: removedCount(lines)}
	}
	return funcs
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc":
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "/":
			if m.state == stateSelectFunc {
				return m, m.filter.Focus()
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.visible)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			if m.state == stateSelectFunc && len(m.visible) > 0 {
				m.show(m.funcs[m.visible[m.selected]])
				m.state = stateShowFunc
				return m, nil
			}

		case "esc":
			if m.state == stateShowFunc {
				m.state = stateSelectFunc
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.funcs = msg.funcs
		m.stats = msg.stats
		m.applyFilter()
	}

	if m.state == stateShowFunc {
		var cmdBefore, cmdAfter tea.Cmd
		m.before, cmdBefore = m.before.Update(msg)
		m.after, cmdAfter = m.after.Update(msg)
		return m, tea.Batch(cmdBefore, cmdAfter)
	}
	return m, nil
}

// applyFilter recomputes the visible functions from the filter text.
func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, f := range m.funcs {
		if q == "" || strings.Contains(strings.ToLower(f.name), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) show(f funcEntry) {
	st := newListingStyles(os.Stdout, true)
	m.before.SetContent(st.side(f.lines, lineRemoved))
	m.after.SetContent(st.side(f.lines, lineAdded))
	m.before.GotoTop()
	m.after.GotoTop()
}

func (m *interactiveModel) resize() {
	w := max((m.width-4)/2, 10)
	h := max(m.height-6, 5)
	m.before.Width, m.before.Height = w, h
	m.after.Width, m.after.Height = w, h
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.funcs == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("rcopt"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(" ")
	b.WriteString(countStyle.Render(m.stats.String()))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, idx := range m.visible {
			f := m.funcs[idx]
			line := fmt.Sprintf("%s %s", f.name, countStyle.Render(fmt.Sprintf("-%d", f.removed)))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + funcStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • / filter • enter compare • q quit"))

	case stateShowFunc:
		f := m.funcs[m.visible[m.selected]]
		b.WriteString(fmt.Sprintf("%s before / after\n", funcStyle.Render(f.name)))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			paneStyle.Render(m.before.View()),
			paneStyle.Render(m.after.View()),
		))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}
