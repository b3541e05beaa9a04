package gallerytui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/galleria/internal/actions"
	"github.com/tOgg1/galleria/internal/router"
)

const promptCharLimit = 255

// prompt is a one-line text input that turns its value into a command.
type prompt struct {
	origin router.Key
	title  string
	input  textinput.Model
	submit func(string) actions.Command
}

func newPrompt(msg openPromptMsg) *prompt {
	ti := textinput.New()
	ti.Prompt = msg.title + ": "
	ti.CharLimit = promptCharLimit
	ti.SetValue(msg.initial)
	ti.CursorEnd()
	return &prompt{
		origin: msg.origin,
		title:  msg.title,
		input:  ti,
		submit: msg.submit,
	}
}

func (p *prompt) focus() tea.Cmd {
	return p.input.Focus()
}

func (p *prompt) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *prompt) View() string {
	return p.input.View() + "  (enter save, esc cancel)"
}

// confirmation asks before running a destructive command.
type confirmation struct {
	origin   router.Key
	question string
	cmd      actions.Command
}
