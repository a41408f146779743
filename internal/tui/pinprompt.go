package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kevintanjc/bleep/auth"
)

// entry is the part of auth.PinEntry the prompt drives.
type entry interface {
	Submit(ctx context.Context, candidate string) (bool, error)
	Cancel()
}

type submittedMsg struct {
	ok  bool
	err error
}

type pinModel struct {
	entry  entry
	reason string
	input  textinput.Model

	status   string
	failed   bool
	checking bool
	done     bool
}

func newPinModel(e entry, reason string) pinModel {
	ti := textinput.New()
	ti.Placeholder = "4-8 digits"
	ti.CharLimit = 8
	ti.Width = 10
	ti.Prompt = "PIN: "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.PromptStyle = promptStyle
	ti.Focus()
	return pinModel{entry: e, reason: reason, input: ti}
}

func (m pinModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.checking {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.entry.Cancel()
			m.done = true
			m.status = "Cancelled"
			m.failed = true
			return m, tea.Quit
		case tea.KeyEnter:
			pin := m.input.Value()
			if auth.ValidatePIN(pin) != nil {
				m.status = "PIN must be 4 to 8 digits"
				m.failed = true
				return m, nil
			}
			m.checking = true
			m.status = "Checking..."
			m.failed = false
			return m, m.submit(pin)
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				if r < '0' || r > '9' {
					return m, nil
				}
			}
		}
	case submittedMsg:
		m.checking = false
		m.done = true
		m.failed = !msg.ok
		switch {
		case msg.err != nil:
			m.status = "This PIN request is no longer pending"
		case msg.ok:
			m.status = "Unlocked"
		default:
			m.status = "Incorrect PIN"
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m pinModel) submit(pin string) tea.Cmd {
	e := m.entry
	return func() tea.Msg {
		ok, err := e.Submit(context.Background(), pin)
		return submittedMsg{ok: ok, err: err}
	}
}

func (m pinModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Enter PIN"))
	b.WriteString("\n")
	if m.reason != "" {
		b.WriteString(reasonStyle.Render(m.reason))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if !m.done {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(errStyle.Render(m.status))
		} else {
			b.WriteString(okStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	if !m.done {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter submit • esc cancel"))
	}
	return boxStyle.Render(b.String()) + "\n"
}

// Prompter is an auth.PinPrompter that shows an inline bubbletea PIN
// dialog and blocks until it is answered.
type Prompter struct {
	reason string
	opts   []tea.ProgramOption
}

// NewPrompter returns a Prompter that shows reason above the input. in and
// out default to the process terminal when nil.
func NewPrompter(reason string, in io.Reader, out io.Writer) *Prompter {
	var opts []tea.ProgramOption
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return &Prompter{reason: reason, opts: opts}
}

func (p *Prompter) PresentPIN(e auth.PinEntry) {
	p.present(e)
}

func (p *Prompter) present(e entry) {
	final, err := tea.NewProgram(newPinModel(e, p.reason), p.opts...).Run()
	if err != nil {
		slog.Warn("PIN prompt failed", slog.String("error", err.Error()))
		e.Cancel()
		return
	}
	if m, ok := final.(pinModel); !ok || !m.done {
		e.Cancel()
	}
}
