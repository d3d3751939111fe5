package chat

import (
	"context"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/chasedut/anonchat/internal/api/messages"
	"github.com/chasedut/anonchat/internal/palette"
	"github.com/chasedut/anonchat/internal/poller"
	"github.com/chasedut/anonchat/internal/tui/components/chat/composer"
	"github.com/chasedut/anonchat/internal/tui/styles"
)

const (
	Title      = "Anonymous Chat"
	selfMarker = "· you"
	sendButton = ">"
)

// Client is the part of the chat API the page talks to.
type Client interface {
	poller.Fetcher
	composer.Poster
}

type Options struct {
	Identity   string
	Client     Client
	Palette    palette.Palette
	Interval   time.Duration
	Reconciler poller.Reconciler
}

// Row is a message prepared for display.
type Row struct {
	Message messages.Message
	Self    bool
	Color   color.Color
}

// Model is the chat page: title, message region and input form.
type Model struct {
	width, height int

	ctx      context.Context
	identity string
	palette  palette.Palette
	keyMap   KeyMap

	poller   *poller.Poller
	composer *composer.Composer
	viewport viewport.Model
	scroller scroller
	help     help.Model

	// send button hit box, in page coordinates
	buttonX0, buttonX1, buttonY int

	mounted bool
}

func New(ctx context.Context, opts Options) *Model {
	keyMap := DefaultKeyMap()

	vp := viewport.New()
	vp.KeyMap = keyMap.viewportKeyMap()

	pal := opts.Palette
	if pal.Fallback() == nil {
		pal = palette.Default()
	}

	return &Model{
		ctx:      ctx,
		identity: opts.Identity,
		palette:  pal,
		keyMap:   keyMap,
		poller: poller.New(opts.Client,
			poller.WithInterval(opts.Interval),
			poller.WithReconciler(opts.Reconciler),
		),
		composer: composer.New(opts.Client, opts.Identity),
		viewport: vp,
		scroller: newScroller(),
		help:     help.New(),
	}
}

// Init mounts the page and starts polling from an empty message list.
func (m *Model) Init() tea.Cmd {
	m.mounted = true
	start := m.poller.Start(m.ctx)
	m.viewport.SetContent(m.renderMessages())
	return tea.Batch(m.composer.Init(), start)
}

// Close unmounts the page. Nothing arriving afterwards changes its state.
func (m *Model) Close() {
	m.mounted = false
	m.poller.Stop()
	m.scroller.cancel()
}

func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case composer.SentMsg:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd

	case scrollFrameMsg:
		if !m.mounted || !m.scroller.active || msg.id != m.scroller.id {
			return m, nil
		}
		offset, done := m.scroller.step()
		m.viewport.SetYOffset(offset)
		if done {
			return m, nil
		}
		return m, m.scroller.frame()

	case tea.KeyPressMsg:
		if key.Matches(msg, m.keyMap.scrolls()...) {
			m.scroller.cancel()
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd

	case tea.MouseWheelMsg:
		m.scroller.cancel()
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.MouseClickMsg:
		mouse := msg.Mouse()
		if mouse.Button == tea.MouseLeft && m.onButton(mouse.X, mouse.Y) {
			return m, m.composer.Submit()
		}
		return m, nil
	}

	change, pollCmd := m.poller.Update(msg)
	var scrollCmd tea.Cmd
	if change.Messages || change.Senders {
		scrollCmd = m.refresh(change.Messages)
	}

	var inputCmd tea.Cmd
	m.composer, inputCmd = m.composer.Update(msg)
	return m, tea.Batch(pollCmd, scrollCmd, inputCmd)
}

// refresh re-renders the message region. After the list itself changed it
// scrolls to the newest message unless that is already visible.
func (m *Model) refresh(listChanged bool) tea.Cmd {
	m.viewport.SetContent(m.renderMessages())
	if !listChanged || !m.mounted {
		return nil
	}
	total, visible := m.viewport.TotalLineCount(), m.viewport.Height()
	if atBottom(total, visible, m.viewport.YOffset()) {
		return nil
	}
	return m.scroller.start(m.viewport.YOffset(), bottomOffset(total, visible))
}

// Rows returns the current messages with their self marking and colour.
func (m *Model) Rows() []Row {
	t := styles.CurrentTheme()
	msgs := m.poller.Messages()
	rows := make([]Row, 0, len(msgs))
	for _, msg := range msgs {
		row := Row{Message: msg, Self: msg.UserID == m.identity}
		if row.Self {
			row.Color = t.Self
		} else {
			row.Color = m.palette.ColorFor(m.poller.SenderIndex(msg.UserID))
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *Model) renderMessages() string {
	t := styles.CurrentTheme()
	width := max(m.viewport.Width(), 1)

	lines := make([]string, 0, len(m.poller.Messages()))
	for _, row := range m.Rows() {
		style := t.S().Base.Foreground(row.Color)
		if !row.Self {
			lines = append(lines, style.Render(ansi.Wordwrap(row.Message.Content, width, "")))
			continue
		}
		marker := " " + t.S().SelfMarker.Render(selfMarker)
		text := ansi.Wordwrap(row.Message.Content, max(width-lipgloss.Width(marker), 1), "")
		line := style.Render(text) + marker
		lines = append(lines, lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height

	t := styles.CurrentTheme()
	messagesFrameW, messagesFrameH := t.S().Messages.GetFrameSize()
	formFrameW, formFrameH := t.S().Form.GetFrameSize()

	titleHeight := 1
	formHeight := 1 + formFrameH
	helpHeight := 1
	regionHeight := max(height-titleHeight-formHeight-helpHeight-messagesFrameH, 1)

	m.viewport.SetWidth(max(width-messagesFrameW, 1))
	m.viewport.SetHeight(regionHeight)

	button := t.S().Button.Render(sendButton)
	inner := max(width-formFrameW, 1)
	m.composer.SetWidth(max(inner-lipgloss.Width(button), 1))

	// The button sits at the right edge of the form's content row.
	m.buttonY = titleHeight + regionHeight + messagesFrameH + formFrameH/2
	m.buttonX1 = width - formFrameW/2
	m.buttonX0 = m.buttonX1 - lipgloss.Width(button)

	m.viewport.SetContent(m.renderMessages())
}

func (m *Model) onButton(x, y int) bool {
	return y == m.buttonY && x >= m.buttonX0 && x < m.buttonX1
}

func (m *Model) View() string {
	t := styles.CurrentTheme()

	title := t.S().Title.Render(Title)
	region := t.S().Messages.Render(m.viewport.View())

	button := t.S().Button.Render(sendButton)
	inputWidth := max(m.width-t.S().Form.GetHorizontalFrameSize()-lipgloss.Width(button), 1)
	input := lipgloss.NewStyle().Width(inputWidth).Render(m.composer.View())
	form := t.S().Form.Render(lipgloss.JoinHorizontal(lipgloss.Top, input, button))

	helpView := m.help.ShortHelpView(append(m.composer.KeyMap().ShortHelp(), m.keyMap.ShortHelp()...))

	return lipgloss.JoinVertical(lipgloss.Left, title, region, form, helpView)
}

func (m *Model) Identity() string {
	return m.identity
}

// Poller exposes the page's poller, mainly for status reporting.
func (m *Model) Poller() *poller.Poller {
	return m.poller
}
