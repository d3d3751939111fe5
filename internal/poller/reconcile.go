package poller

import (
	"fmt"

	"github.com/chasedut/anonchat/internal/api/messages"
)

// Reconciler decides whether a fresh snapshot replaces the current list.
type Reconciler func(current, snapshot []messages.Message) bool

// ByLength replaces the list only when the message count changes. Edits that
// keep the count stable are not picked up.
func ByLength(current, snapshot []messages.Message) bool {
	return len(current) != len(snapshot)
}

// ByVersion also replaces the list when the newest message id differs.
func ByVersion(current, snapshot []messages.Message) bool {
	if len(current) != len(snapshot) {
		return true
	}
	if len(snapshot) == 0 {
		return false
	}
	return current[len(current)-1].ID != snapshot[len(snapshot)-1].ID
}

const (
	StrategyLength  = "length"
	StrategyVersion = "version"
)

func ReconcilerFor(strategy string) (Reconciler, error) {
	switch strategy {
	case "", StrategyLength:
		return ByLength, nil
	case StrategyVersion:
		return ByVersion, nil
	default:
		return nil, fmt.Errorf("unknown diff strategy %q", strategy)
	}
}
