package server

import (
	"sync"

	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

// maxRetainedRuns bounds how many finished runs stay queryable.
const maxRetainedRuns = 256

// Snapshot is the JSON view of a run.
type Snapshot struct {
	ID            string            `json:"id"`
	Cipher        string            `json:"cipher"`
	Total         int               `json:"total"`
	Indeterminate bool              `json:"indeterminate"`
	Tried         int64             `json:"tried"`
	Finished      bool              `json:"finished"`
	Outcome       model.Outcome     `json:"outcome,omitempty"`
	Error         string            `json:"error,omitempty"`
	Top           []model.Candidate `json:"top"`
}

// liveRun folds a worker's messages so any number of readers can observe it.
type liveRun struct {
	run *worker.Run

	mu      sync.Mutex
	state   worker.State
	changed chan struct{}
	// settled is closed once the final messages have been applied.
	settled chan struct{}
}

func newLiveRun(run *worker.Run) *liveRun {
	lr := &liveRun{run: run, changed: make(chan struct{}), settled: make(chan struct{})}
	go lr.pump()
	return lr
}

// cancel stops the run and waits until its final state is visible.
func (lr *liveRun) cancel() {
	lr.run.Cancel()
	<-lr.settled
}

func (lr *liveRun) pump() {
	defer close(lr.settled)
	for {
		select {
		case <-lr.run.Ready():
			lr.apply(lr.run.Poll())
		case <-lr.run.Done():
			lr.apply(lr.run.Poll())
			return
		}
	}
}

func (lr *liveRun) apply(msgs []worker.Message) {
	if len(msgs) == 0 {
		return
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.state.ApplyAll(msgs)
	close(lr.changed)
	lr.changed = make(chan struct{})
}

// snapshot returns the current view and a channel closed on the next change.
func (lr *liveRun) snapshot() (Snapshot, <-chan struct{}) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	s := Snapshot{
		ID:            lr.run.ID,
		Cipher:        lr.run.Cipher,
		Total:         lr.state.Total,
		Indeterminate: lr.state.Indeterminate,
		Tried:         lr.state.Tried,
		Finished:      lr.state.Finished,
		Outcome:       lr.state.Outcome,
		Top:           lr.state.TopK,
	}
	if s.Top == nil {
		s.Top = []model.Candidate{}
	}
	if lr.state.Err != nil {
		s.Error = lr.state.Err.Error()
	}
	return s, lr.changed
}

type runRegistry struct {
	mu    sync.Mutex
	limit int
	order []string
	runs  map[string]*liveRun
}

func newRunRegistry(limit int) *runRegistry {
	return &runRegistry{limit: limit, runs: map[string]*liveRun{}}
}

func (r *runRegistry) add(lr *liveRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[lr.run.ID] = lr
	r.order = append(r.order, lr.run.ID)
	if len(r.order) <= r.limit {
		return
	}
	kept := r.order[:0]
	excess := len(r.order) - r.limit
	for _, id := range r.order {
		if excess > 0 && isFinished(r.runs[id]) {
			delete(r.runs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func isFinished(lr *liveRun) bool {
	select {
	case <-lr.run.Done():
		return true
	default:
		return false
	}
}

func (r *runRegistry) get(id string) (*liveRun, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lr, ok := r.runs[id]
	return lr, ok
}

func (r *runRegistry) cancelAll() {
	r.mu.Lock()
	live := make([]*liveRun, 0, len(r.runs))
	for _, lr := range r.runs {
		live = append(live, lr)
	}
	r.mu.Unlock()
	for _, lr := range live {
		lr.cancel()
	}
}
