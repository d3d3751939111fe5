package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/chasedut/anonchat/internal/tui/page/chat"
	"github.com/chasedut/anonchat/internal/tui/styles"
)

const (
	minWidth  = 25
	minHeight = 10
)

var lastMouseEvent time.Time

// MouseEventFilter drops wheel and motion events that arrive faster than
// the page can redraw.
func MouseEventFilter(m tea.Model, msg tea.Msg) tea.Msg {
	switch msg.(type) {
	case tea.MouseWheelMsg, tea.MouseMotionMsg:
		now := time.Now()
		// trackpad is sending too many requests
		if now.Sub(lastMouseEvent) < 15*time.Millisecond {
			return nil
		}
		lastMouseEvent = now
	}
	return msg
}

// appModel is the program root. It owns the window and hands everything
// else to the chat page.
type appModel struct {
	wWidth, wHeight int
	keyMap          KeyMap

	page *chat.Model
}

// New wraps the chat page for tea.NewProgram.
func New(page *chat.Model) tea.Model {
	return NewWithSize(page, 0, 0)
}

// NewWithSize is like New but lays the page out for an initial window size.
func NewWithSize(page *chat.Model, width, height int) tea.Model {
	a := &appModel{
		keyMap: DefaultKeyMap(),
		page:   page,
	}
	if width > 0 && height > 0 {
		a.resize(width, height)
	}
	return a
}

func (a *appModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return tea.RequestWindowSize() },
		a.page.Init(),
	)
}

func (a *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil
	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, a.keyMap.Quit):
			a.page.Close()
			return a, tea.Quit
		case key.Matches(msg, a.keyMap.Suspend):
			return a, tea.Suspend
		}
	}

	var cmd tea.Cmd
	a.page, cmd = a.page.Update(msg)
	return a, cmd
}

func (a *appModel) resize(width, height int) {
	a.wWidth, a.wHeight = width, height
	a.page.SetSize(width, height)
}

func (a *appModel) View() tea.View {
	var view tea.View
	t := styles.CurrentTheme()

	// Nothing to draw until the first size arrives.
	if a.wWidth == 0 || a.wHeight == 0 {
		view.Layer = lipgloss.NewCanvas()
		return view
	}

	if a.wWidth < minWidth || a.wHeight < minHeight {
		view.Layer = lipgloss.NewCanvas(
			lipgloss.NewLayer(
				t.S().Base.Width(a.wWidth).Height(a.wHeight).
					Align(lipgloss.Center, lipgloss.Center).
					Render(
						t.S().Base.
							Padding(1, 4).
							Foreground(t.FgBase).
							BorderStyle(lipgloss.RoundedBorder()).
							BorderForeground(t.Primary).
							Render("Window too small!"),
					),
			),
		)
		return view
	}

	view.Layer = lipgloss.NewCanvas(lipgloss.NewLayer(a.page.View()))
	return view
}
