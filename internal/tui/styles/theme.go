package styles

import (
	"image/color"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

type Theme struct {
	Name string

	Primary   color.Color
	Secondary color.Color

	FgBase      color.Color
	FgMuted     color.Color
	FgHalfMuted color.Color

	Border      color.Color
	BorderFocus color.Color

	// Self is the colour of the local user's own messages.
	Self color.Color

	styles *Styles
}

type Styles struct {
	Base       lipgloss.Style
	Title      lipgloss.Style
	Muted      lipgloss.Style
	SelfMarker lipgloss.Style
	Button     lipgloss.Style
	Messages   lipgloss.Style
	Form       lipgloss.Style
}

func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = buildStyles(t)
	}
	return t.styles
}

func buildStyles(t *Theme) *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)
	return &Styles{
		Base: base,
		Title: base.
			Bold(true).
			Foreground(t.Primary).
			Padding(0, 1),
		Muted:      base.Foreground(t.FgMuted),
		SelfMarker: base.Foreground(t.FgHalfMuted).Italic(true),
		Button: base.
			Bold(true).
			Foreground(t.Primary).
			Padding(0, 1),
		Messages: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Form: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),
	}
}

func NewCharmtoneTheme() *Theme {
	return &Theme{
		Name:        "charmtone",
		Primary:     charmtone.Charple,
		Secondary:   charmtone.Dolly,
		FgBase:      charmtone.Ash,
		FgMuted:     charmtone.Squid,
		FgHalfMuted: charmtone.Smoke,
		Border:      charmtone.Charcoal,
		BorderFocus: charmtone.Charple,
		Self:        charmtone.Salt,
	}
}

var current = NewCharmtoneTheme()

func CurrentTheme() *Theme {
	return current
}
