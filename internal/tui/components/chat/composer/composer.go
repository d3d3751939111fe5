package composer

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
)

const (
	charLimit   = 500
	sendTimeout = 10 * time.Second
)

// Poster delivers a message to the chat server.
type Poster interface {
	PostMessage(ctx context.Context, userID, content string) error
}

// SentMsg reports the outcome of a submission.
type SentMsg struct {
	Content string
	Err     error
}

// Composer is the chat input form.
type Composer struct {
	input    textinput.Model
	poster   Poster
	identity string
	keyMap   KeyMap
	width    int
}

func New(poster Poster, identity string) *Composer {
	ti := textinput.New()
	ti.Placeholder = "Say something..."
	ti.Prompt = "> "
	ti.CharLimit = charLimit

	return &Composer{
		input:    ti,
		poster:   poster,
		identity: identity,
		keyMap:   DefaultKeyMap(),
	}
}

func (c *Composer) Init() tea.Cmd {
	return c.input.Focus()
}

func (c *Composer) Update(msg tea.Msg) (*Composer, tea.Cmd) {
	switch msg := msg.(type) {
	case SentMsg:
		if msg.Err != nil {
			slog.Debug("Message not delivered", "error", msg.Err)
			return c, nil
		}
		c.input.Reset()
		return c, nil

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, c.keyMap.Send), key.Matches(msg, c.keyMap.Submit):
			return c, c.Submit()
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// Submit posts the current text. Empty text is a no-op. The input is cleared
// when the returned command reports success through SentMsg.
func (c *Composer) Submit() tea.Cmd {
	content := c.input.Value()
	if content == "" {
		return nil
	}
	poster, identity := c.poster, c.identity
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		err := poster.PostMessage(ctx, identity, content)
		return SentMsg{Content: content, Err: err}
	}
}

func (c *Composer) View() string {
	return c.input.View()
}

func (c *Composer) SetWidth(width int) {
	c.width = width
	c.input.SetWidth(max(width-len(c.input.Prompt)-1, 1))
}

func (c *Composer) Value() string {
	return c.input.Value()
}

func (c *Composer) SetValue(s string) {
	c.input.SetValue(s)
}

func (c *Composer) Focus() tea.Cmd {
	return c.input.Focus()
}

func (c *Composer) Blur() {
	c.input.Blur()
}

func (c *Composer) KeyMap() KeyMap {
	return c.keyMap
}
