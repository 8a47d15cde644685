package formatter

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinnerDoneMsg struct{ err error }

// ErrInterrupted is returned when the user cancels a running spinner.
var ErrInterrupted = errors.New("interrupted")

var cancelKey = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "cancel"))

// spinnerModel shows a dot spinner until the wrapped work finishes.
type spinnerModel struct {
	spin    spinner.Model
	message string
	work    func() error
	err     error
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return spinnerDoneMsg{err: m.work()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if key.Matches(msg, cancelKey) {
			m.err = ErrInterrupted
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	return "  " + m.spin.View() + " " + Dim(m.message) + "\n"
}

// RunWithSpinner runs work while a spinner with message is shown. The
// spinner clears itself when work returns.
func RunWithSpinner(message string, work func() error) error {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(StylePurple))
	final, err := tea.NewProgram(spinnerModel{spin: s, message: message, work: work}).Run()
	if err != nil {
		return err
	}
	return final.(spinnerModel).err
}
