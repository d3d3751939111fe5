// Package poller keeps a local mirror of the server's message list by
// fetching full snapshots on a fixed interval.
package poller

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/chasedut/anonchat/internal/api/messages"
)

const DefaultInterval = time.Second

// Fetcher returns every message with an id at or after from.
type Fetcher interface {
	ListMessages(ctx context.Context, from int) ([]messages.Message, error)
}

// Change reports what an update did to the poller's state.
type Change struct {
	Messages bool
	Senders  bool
	// Err is set once, on the update that stopped the poller.
	Err error
}

type tickMsg struct {
	gen uint64
}

type fetchedMsg struct {
	gen      uint64
	messages []messages.Message
	err      error
}

// Poller is driven by a bubbletea model: Start and Update return commands,
// and all state changes happen inside Update on the event loop.
type Poller struct {
	fetcher   Fetcher
	interval  time.Duration
	from      int
	reconcile Reconciler

	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	inFlight bool
	err      error

	messages []messages.Message
	senders  []string
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithReconciler(r Reconciler) Option {
	return func(p *Poller) {
		if r != nil {
			p.reconcile = r
		}
	}
}

func WithFrom(from int) Option {
	return func(p *Poller) {
		p.from = from
	}
}

func New(fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:   fetcher,
		interval:  DefaultInterval,
		reconcile: ByLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins a new polling generation from an empty list: one fetch right
// away and a repeating tick. Anything still pending from an earlier
// generation is discarded when it arrives.
func (p *Poller) Start(ctx context.Context) tea.Cmd {
	p.Stop()
	p.gen++
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.err = nil
	p.messages, p.senders = nil, nil
	p.inFlight = true
	return tea.Batch(p.fetch(), p.tick())
}

// Stop cancels the in-flight request and ends the tick chain. It is safe to
// call more than once.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.running {
		p.gen++
	}
	p.running = false
	p.inFlight = false
}

func (p *Poller) Update(msg tea.Msg) (Change, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.gen != p.gen || !p.running {
			return Change{}, nil
		}
		if p.inFlight {
			slog.Debug("Skipping poll, previous request still in flight")
			return Change{}, p.tick()
		}
		p.inFlight = true
		return Change{}, tea.Batch(p.fetch(), p.tick())

	case fetchedMsg:
		if msg.gen != p.gen || !p.running {
			return Change{}, nil
		}
		p.inFlight = false
		if msg.err != nil {
			p.fail(msg.err)
			return Change{Err: msg.err}, nil
		}
		return p.apply(msg.messages), nil
	}
	return Change{}, nil
}

// Fetch returns a command that performs one request for the current
// generation.
func (p *Poller) Fetch() tea.Cmd {
	return p.fetch()
}

func (p *Poller) Messages() []messages.Message {
	return p.messages
}

func (p *Poller) Senders() []string {
	return p.senders
}

// SenderIndex is the position of userID among the observed senders, or -1.
func (p *Poller) SenderIndex(userID string) int {
	for i, id := range p.senders {
		if id == userID {
			return i
		}
	}
	return -1
}

func (p *Poller) Running() bool {
	return p.running
}

// Err is the error that stopped the poller, if any.
func (p *Poller) Err() error {
	return p.err
}

func (p *Poller) fail(err error) {
	slog.Error("Polling stopped", "error", err)
	p.Stop()
	p.err = err
}

func (p *Poller) apply(snapshot []messages.Message) Change {
	var change Change

	senders := distinctSenders(snapshot)
	if len(senders) != len(p.senders) {
		p.senders = senders
		change.Senders = true
	}

	if p.reconcile(p.messages, snapshot) {
		p.messages = snapshot
		change.Messages = true
	}
	return change
}

func (p *Poller) fetch() tea.Cmd {
	gen, ctx, from, fetcher := p.gen, p.ctx, p.from, p.fetcher
	if ctx == nil {
		ctx = context.Background()
	}
	return func() tea.Msg {
		msgs, err := fetcher.ListMessages(ctx, from)
		return fetchedMsg{gen: gen, messages: msgs, err: err}
	}
}

func (p *Poller) tick() tea.Cmd {
	gen := p.gen
	return tea.Tick(p.interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func distinctSenders(msgs []messages.Message) []string {
	seen := make(map[string]struct{}, len(msgs))
	senders := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		senders = append(senders, m.UserID)
	}
	return senders
}
