package chat

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/harmonica"
)

const scrollFPS = 60

type scrollFrameMsg struct {
	id int
}

// scroller animates the viewport offset towards a target line with a
// critically damped spring.
type scroller struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target int
	active bool
	id     int
}

func newScroller() scroller {
	return scroller{
		spring: harmonica.NewSpring(harmonica.FPS(scrollFPS), 8.0, 1.0),
	}
}

func (s *scroller) start(from, to int) tea.Cmd {
	s.id++
	s.pos = float64(from)
	s.vel = 0
	s.target = to
	s.active = true
	return s.frame()
}

// step advances one frame and returns the offset to apply.
func (s *scroller) step() (offset int, done bool) {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, float64(s.target))
	if math.Abs(s.pos-float64(s.target)) < 0.5 && math.Abs(s.vel) < 0.5 {
		s.active = false
		return s.target, true
	}
	return int(math.Round(s.pos)), false
}

func (s *scroller) cancel() {
	if s.active {
		s.id++
	}
	s.active = false
}

func (s *scroller) frame() tea.Cmd {
	id := s.id
	return tea.Tick(time.Second/scrollFPS, func(time.Time) tea.Msg {
		return scrollFrameMsg{id: id}
	})
}

// atBottom reports whether the last line is within the visible window.
func atBottom(totalLines, visibleLines, offset int) bool {
	return totalLines <= visibleLines+offset
}

func bottomOffset(totalLines, visibleLines int) int {
	return max(totalLines-visibleLines, 0)
}
