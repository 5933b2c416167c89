package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/hostbind/identity"
	"github.com/wippyai/hostbind/internal/gen"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelect modelState = iota
	statePreview
	stateEdit
)

// entry is one annotated type in the list.
type entry struct {
	pkg *gen.Package
	typ *gen.Type
}

type interactiveModel struct {
	err     error
	cfg     *gen.Config
	log     *zap.Logger
	status  string
	preview string
	pkgs    []*gen.Package
	entries []entry
	input   textinput.Model
	cursor  int
	state   modelState
	loaded  bool
}

func newInteractiveModel(cfg *gen.Config, log *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "tag: "
	ti.Width = 40
	return &interactiveModel{cfg: cfg, log: log, input: ti, state: stateSelect}
}

type loadedMsg struct {
	err  error
	pkgs []*gen.Package
}

type writtenMsg struct {
	err   error
	files []*gen.File
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	pkgs, err := gen.Load(m.cfg, m.log)
	return loadedMsg{pkgs: pkgs, err: err}
}

func (m *interactiveModel) write() tea.Msg {
	if diags := gen.CheckTags(m.pkgs); len(diags) > 0 {
		return writtenMsg{err: diags}
	}
	files, err := gen.Generate(m.cfg, m.pkgs)
	if err != nil {
		return writtenMsg{err: err}
	}
	if err := gen.Write(files, m.log); err != nil {
		return writtenMsg{err: err}
	}
	return writtenMsg{files: files}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pkgs = msg.pkgs
		for _, p := range m.pkgs {
			for _, t := range p.Identities() {
				m.entries = append(m.entries, entry{pkg: p, typ: t})
			}
		}
		return m, nil

	case writtenMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		names := make([]string, len(msg.files))
		for i, f := range msg.files {
			names[i] = f.Path
		}
		m.status = "wrote " + strings.Join(names, ", ")
		return m, nil

	case tea.KeyMsg:
		if m.state == stateEdit {
			return m.updateEdit(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelect && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.state == stateSelect && m.cursor < len(m.entries)-1 {
				m.cursor++
			}

		case "enter":
			switch m.state {
			case stateSelect:
				if len(m.entries) > 0 {
					m.preview = m.render(m.entries[m.cursor])
					m.state = statePreview
				}
			case statePreview:
				m.state = stateSelect
			}

		case "esc":
			m.state = stateSelect

		case "e":
			if len(m.entries) > 0 {
				m.input.SetValue(m.entries[m.cursor].typ.Tag)
				m.input.CursorEnd()
				m.input.Focus()
				m.state = stateEdit
				return m, textinput.Blink
			}

		case "w":
			m.status = "writing..."
			return m, m.write
		}
	}
	return m, nil
}

func (m *interactiveModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.state = stateSelect
		return m, nil
	case "enter":
		tag := strings.TrimSpace(m.input.Value())
		if !identity.ValidTag(tag) {
			m.status = fmt.Sprintf("Error: %q is not a valid identity tag", tag)
			return m, nil
		}
		e := m.entries[m.cursor]
		e.typ.Tag = tag
		if m.cfg.Tags == nil {
			m.cfg.Tags = map[string]string{}
		}
		m.cfg.Tags[e.pkg.Path+"."+e.typ.Name] = tag
		m.status = fmt.Sprintf("%s tagged %s (press w to write)", e.typ.Name, tag)
		if diags := gen.CheckTags(m.pkgs); len(diags) > 0 {
			m.status = "Error: " + diags.Error()
		}
		m.input.Blur()
		m.state = stateSelect
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) render(e entry) string {
	src, err := gen.Render(m.cfg, e.pkg.Name, []*gen.Type{e.typ})
	if err != nil {
		return "Error: " + err.Error()
	}
	return strings.TrimRight(string(src), "\n")
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading packages..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("hostbind-gen"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.cfg.Packages, " "))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString("No types carry //hostbind:identity.\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	switch m.state {
	case stateSelect, stateEdit:
		for i, e := range m.entries {
			line := fmt.Sprintf("%s %s %s", nameStyle.Render(e.typ.Name), dimStyle.Render("→"), tagStyle.Render(e.typ.Tag))
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + e.typ.Name + " → " + e.typ.Tag))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("  ")
			b.WriteString(dimStyle.Render(e.pkg.Path))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateEdit {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter apply • esc cancel"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter preview • e edit tag • w write • q quit"))
		}

	case statePreview:
		e := m.entries[m.cursor]
		b.WriteString(fmt.Sprintf("Generated for %s in %s:\n\n", nameStyle.Render(e.typ.Name), e.pkg.Dir))
		b.WriteString(codeStyle.Render(m.preview))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter back • e edit tag • w write • q quit"))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		if strings.HasPrefix(m.status, "Error:") {
			b.WriteString(errStyle.Render(m.status))
		} else {
			b.WriteString(okStyle.Render(m.status))
		}
	}
	return b.String()
}

func runInteractive(cfg *gen.Config, log *zap.Logger) error {
	// Log lines would corrupt the alternate screen.
	p := tea.NewProgram(newInteractiveModel(cfg, log.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
