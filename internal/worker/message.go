package worker

import (
	"sync"

	"github.com/verte-zerg/cipherbreak/internal/model"
)

// Kind identifies a progress message.
type Kind int

// Message kinds, in the order a run typically produces them.
const (
	KindTotal Kind = iota
	KindIndeterminate
	KindProgress
	KindTopK
	KindFailed
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindTotal:
		return "total"
	case KindIndeterminate:
		return "indeterminate"
	case KindProgress:
		return "progress"
	case KindTopK:
		return "topk"
	case KindFailed:
		return "failed"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Message is one event from a running solver. Only the fields of its Kind are set.
type Message struct {
	Kind Kind
	// Total is the key-space size for KindTotal.
	Total int
	// Count is the number of candidates tried for KindProgress.
	Count int
	// TopK is the best-first snapshot for KindTopK.
	TopK []model.Candidate
	// Err is the failure for KindFailed.
	Err error
	// Outcome is set for KindDone.
	Outcome model.Outcome
}

// mailbox is an unbounded ordered queue written by the worker and drained by the caller.
//
// Progress increments and snapshots commute when folded into a State, so an unread run
// of them is kept as at most one message of each kind: counts are summed and the newest
// snapshot replaces older ones.
type mailbox struct {
	mu    sync.Mutex
	queue []Message
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) push(msg Message) {
	m.mu.Lock()
	if !m.coalesce(msg) {
		m.queue = append(m.queue, msg)
	}
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox) coalesce(msg Message) bool {
	if msg.Kind != KindProgress && msg.Kind != KindTopK {
		return false
	}
	for i := len(m.queue) - 1; i >= 0; i-- {
		held := &m.queue[i]
		if held.Kind != KindProgress && held.Kind != KindTopK {
			return false
		}
		if held.Kind != msg.Kind {
			continue
		}
		if msg.Kind == KindProgress {
			held.Count += msg.Count
		} else {
			held.TopK = msg.TopK
		}
		return true
	}
	return false
}

func (m *mailbox) drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}
