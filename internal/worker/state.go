package worker

import "github.com/verte-zerg/cipherbreak/internal/model"

// State is the caller's view of a run, built by applying messages in arrival order.
type State struct {
	// Total is the announced key-space size; 0 until announced.
	Total         int
	Indeterminate bool
	Tried         int64
	TopK          []model.Candidate
	Finished      bool
	Outcome       model.Outcome
	Err           error
}

// Apply folds one message into the state. Messages after done are ignored.
func (s *State) Apply(msg Message) {
	if s.Finished {
		return
	}
	switch msg.Kind {
	case KindTotal:
		s.Total = msg.Total
		s.Indeterminate = false
	case KindIndeterminate:
		s.Total = 0
		s.Indeterminate = true
	case KindProgress:
		s.Tried += int64(msg.Count)
	case KindTopK:
		s.TopK = msg.TopK
	case KindFailed:
		s.Err = msg.Err
	case KindDone:
		s.Finished = true
		s.Outcome = msg.Outcome
	}
}

// ApplyAll folds a batch of messages.
func (s *State) ApplyAll(msgs []Message) {
	for _, msg := range msgs {
		s.Apply(msg)
	}
}

// Fraction returns tried/total clamped to [0, 1], or 0 when the total is unknown.
func (s *State) Fraction() float64 {
	if s.Total <= 0 {
		return 0
	}
	f := float64(s.Tried) / float64(s.Total)
	if f > 1 {
		return 1
	}
	return f
}
