package poller

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasedut/anonchat/internal/api/messages"
)

type fakeFetcher struct {
	mu        sync.Mutex
	calls     int
	snapshots [][]messages.Message
	err       error
	block     bool
}

func (f *fakeFetcher) ListMessages(ctx context.Context, from int) ([]messages.Message, error) {
	f.mu.Lock()
	f.calls++
	block, err := f.block, f.err
	var snap []messages.Message
	if len(f.snapshots) > 0 {
		snap = f.snapshots[0]
		f.snapshots = f.snapshots[1:]
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return snap, err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// run executes cmd and flattens batches into the messages they produce.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func split(msgs []tea.Msg) (fetched []fetchedMsg, ticks []tickMsg) {
	for _, m := range msgs {
		switch m := m.(type) {
		case fetchedMsg:
			fetched = append(fetched, m)
		case tickMsg:
			ticks = append(ticks, m)
		}
	}
	return fetched, ticks
}

func threeFromTwo(contents ...string) []messages.Message {
	return []messages.Message{
		{ID: 1, UserID: "a", Content: contents[0]},
		{ID: 2, UserID: "b", Content: contents[1]},
		{ID: 3, UserID: "a", Content: contents[2]},
	}
}

func TestStartFetchesImmediatelyAndTicks(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{snapshots: [][]messages.Message{threeFromTwo("x", "y", "z")}}
	p := New(f, WithInterval(time.Millisecond))

	fetched, ticks := split(run(p.Start(context.Background())))
	require.Len(t, fetched, 1)
	require.Len(t, ticks, 1)
	assert.Equal(t, 1, f.Calls())
	assert.True(t, p.Running())

	change, _ := p.Update(fetched[0])
	assert.True(t, change.Messages)
	assert.True(t, change.Senders)
	assert.Len(t, p.Messages(), 3)
	assert.Equal(t, []string{"a", "b"}, p.Senders())

	fetched, ticks = split(run(func() tea.Cmd { _, cmd := p.Update(ticks[0]); return cmd }()))
	assert.Len(t, fetched, 1)
	assert.Len(t, ticks, 1)
	assert.Equal(t, 2, f.Calls())
}

func TestTickSkippedWhileInFlight(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	p := New(f, WithInterval(time.Millisecond))
	_ = p.Start(context.Background())

	_, cmd := p.Update(tickMsg{gen: p.gen})
	fetched, ticks := split(run(cmd))
	assert.Empty(t, fetched)
	assert.Len(t, ticks, 1)
	assert.Zero(t, f.Calls())
}

func TestLengthShortcutKeepsList(t *testing.T) {
	t.Parallel()

	p := New(&fakeFetcher{})
	_ = p.Start(context.Background())

	first := threeFromTwo("one", "two", "three")
	change, _ := p.Update(fetchedMsg{gen: p.gen, messages: first})
	require.True(t, change.Messages)

	_, _ = p.Update(tickMsg{gen: p.gen})
	change, _ = p.Update(fetchedMsg{gen: p.gen, messages: threeFromTwo("uno", "dos", "tres")})
	assert.False(t, change.Messages)
	assert.False(t, change.Senders)
	assert.Equal(t, first, p.Messages())
}

func TestSendersReplacedOnlyWhenCountChanges(t *testing.T) {
	t.Parallel()

	p := New(&fakeFetcher{})
	_ = p.Start(context.Background())

	_, _ = p.Update(fetchedMsg{gen: p.gen, messages: []messages.Message{
		{ID: 1, UserID: "a"}, {ID: 2, UserID: "b"},
	}})
	require.Equal(t, []string{"a", "b"}, p.Senders())

	_, _ = p.Update(tickMsg{gen: p.gen})
	change, _ := p.Update(fetchedMsg{gen: p.gen, messages: []messages.Message{
		{ID: 1, UserID: "b"}, {ID: 2, UserID: "c"}, {ID: 3, UserID: "b"},
	}})
	assert.False(t, change.Senders)
	assert.Equal(t, []string{"a", "b"}, p.Senders())
	assert.True(t, change.Messages)

	_, _ = p.Update(tickMsg{gen: p.gen})
	change, _ = p.Update(fetchedMsg{gen: p.gen, messages: []messages.Message{
		{ID: 1, UserID: "b"}, {ID: 2, UserID: "c"}, {ID: 3, UserID: "b"}, {ID: 4, UserID: "d"},
	}})
	assert.True(t, change.Senders)
	assert.Equal(t, []string{"b", "c", "d"}, p.Senders())
	assert.Equal(t, 2, p.SenderIndex("d"))
	assert.Equal(t, -1, p.SenderIndex("a"))
}

func TestFailureStopsPollingForGood(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{err: &messages.StatusError{Code: http.StatusServiceUnavailable}}
	p := New(f, WithInterval(time.Millisecond))

	fetched, ticks := split(run(p.Start(context.Background())))
	require.Len(t, fetched, 1)
	require.Len(t, ticks, 1)

	change, cmd := p.Update(fetched[0])
	require.Error(t, change.Err)
	assert.Nil(t, cmd)
	assert.False(t, p.Running())
	assert.Equal(t, change.Err, p.Err())

	_, cmd = p.Update(ticks[0])
	assert.Nil(t, cmd)

	// A tick carrying the current generation is ignored as well.
	_, cmd = p.Update(tickMsg{gen: p.gen})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, f.Calls())
}

func TestStopDropsLateResponses(t *testing.T) {
	t.Parallel()

	p := New(&fakeFetcher{})
	_ = p.Start(context.Background())
	gen := p.gen
	p.Stop()

	change, cmd := p.Update(fetchedMsg{gen: gen, messages: threeFromTwo("a", "b", "c")})
	assert.Equal(t, Change{}, change)
	assert.Nil(t, cmd)
	assert.Nil(t, p.Messages())

	_, cmd = p.Update(tickMsg{gen: gen})
	assert.Nil(t, cmd)
}

func TestStopCancelsInFlightRequest(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{block: true}
	p := New(f)
	_ = p.Start(context.Background())
	fetch := p.Fetch()

	done := make(chan tea.Msg, 1)
	go func() { done <- fetch() }()

	require.Eventually(t, func() bool { return f.Calls() == 1 }, time.Second, time.Millisecond)
	p.Stop()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(time.Second):
		t.Fatal("request was not cancelled")
	}
	fm, ok := msg.(fetchedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, fm.err, context.Canceled)

	change, _ := p.Update(fm)
	assert.NoError(t, change.Err)
	assert.NoError(t, p.Err())
}

func TestRestartAfterFailure(t *testing.T) {
	t.Parallel()

	p := New(&fakeFetcher{})
	_ = p.Start(context.Background())
	_, _ = p.Update(fetchedMsg{gen: p.gen, err: context.DeadlineExceeded})
	require.False(t, p.Running())

	_ = p.Start(context.Background())
	assert.True(t, p.Running())
	assert.NoError(t, p.Err())
}

func TestRestartBeginsFromEmptyList(t *testing.T) {
	t.Parallel()

	p := New(&fakeFetcher{})
	_ = p.Start(context.Background())
	change, _ := p.Update(fetchedMsg{gen: p.gen, messages: threeFromTwo("x", "y", "z")})
	require.True(t, change.Messages)
	require.Len(t, p.Messages(), 3)
	p.Stop()

	_ = p.Start(context.Background())
	assert.Empty(t, p.Messages())
	assert.Empty(t, p.Senders())
	assert.Equal(t, -1, p.SenderIndex("a"))

	// A same-length snapshot after remount still replaces the list.
	fresh := []messages.Message{
		{ID: 4, UserID: "c", Content: "new"},
		{ID: 5, UserID: "d", Content: "newer"},
		{ID: 6, UserID: "c", Content: "newest"},
	}
	change, _ = p.Update(fetchedMsg{gen: p.gen, messages: fresh})
	assert.True(t, change.Messages)
	assert.True(t, change.Senders)
	assert.Equal(t, fresh, p.Messages())
	assert.Equal(t, []string{"c", "d"}, p.Senders())
}

func TestByVersion(t *testing.T) {
	t.Parallel()

	current := threeFromTwo("a", "b", "c")
	same := threeFromTwo("x", "y", "z")
	assert.False(t, ByVersion(current, same))

	shifted := threeFromTwo("a", "b", "c")
	shifted[2].ID = 4
	assert.True(t, ByVersion(current, shifted))
	assert.True(t, ByVersion(current, current[:2]))
	assert.False(t, ByVersion(nil, nil))
}

func TestReconcilerFor(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", StrategyLength, StrategyVersion} {
		r, err := ReconcilerFor(s)
		require.NoError(t, err, s)
		assert.NotNil(t, r)
	}
	_, err := ReconcilerFor("deep")
	assert.Error(t, err)
}
