package recommend

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the published view of the most recent pipeline run.
type Snapshot struct {
	State      PipelineState     `json:"state"`
	Result     *ResolutionResult `json:"result,omitempty"`
	Source     Source            `json:"source,omitempty"`
	Busy       bool              `json:"busy"`
	Generation uint64            `json:"generation"`
	Notice     string            `json:"notice,omitempty"`
	Error      string            `json:"error,omitempty"`
	Prompt     string            `json:"prompt,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// StateStore holds the shared pipeline state. Runs are numbered by Begin;
// only the most recently started run may publish, so a slow superseded run
// can never overwrite a newer result.
//
// Snapshot results are shared with subscribers and must be treated as
// read-only.
type StateStore struct {
	mu        sync.Mutex
	snap      Snapshot
	latest    uint64
	subs      map[uint64]chan Snapshot
	nextSubID uint64
	now       func() time.Time
}

// NewStateStore returns an Idle store.
func NewStateStore() *StateStore {
	s := &StateStore{
		subs: make(map[uint64]chan Snapshot),
		now:  time.Now,
	}
	s.snap.UpdatedAt = s.now()
	return s
}

// Snapshot returns the current state.
func (s *StateStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Begin marks a new run as started and returns its generation. The previous
// result stays visible until the run publishes.
func (s *StateStore) Begin(prompt string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.snap.State = StateRunning
	s.snap.Busy = true
	s.snap.Generation = s.latest
	s.snap.Prompt = prompt
	s.snap.Notice = ""
	s.snap.Error = ""
	s.snap.UpdatedAt = s.now()
	s.broadcastLocked()
	return s.latest
}

// Publish records the outcome of run gen. It returns false, leaving the
// state untouched, when a newer run has started since gen began.
func (s *StateStore) Publish(gen uint64, outcome Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.latest {
		return false
	}
	result := outcome.Result
	s.snap.State = outcome.State
	s.snap.Result = &result
	s.snap.Source = outcome.Source
	s.snap.Busy = false
	s.snap.Notice = outcome.Notice
	s.snap.Error = ""
	s.snap.UpdatedAt = s.now()
	s.broadcastLocked()
	return true
}

// RecordValidation surfaces a rejected prompt without touching the current
// result or any run in flight.
func (s *StateStore) RecordValidation(prompt, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snap.Busy {
		s.snap.Prompt = prompt
	}
	s.snap.Error = message
	s.snap.UpdatedAt = s.now()
	s.broadcastLocked()
}

// Reset clears the store to Idle. Runs still in flight are superseded and
// their results discarded.
func (s *StateStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	s.snap = Snapshot{
		State:      StateIdle,
		Generation: s.latest,
		UpdatedAt:  s.now(),
	}
	s.broadcastLocked()
}

// Subscribe returns a channel that receives the current snapshot and then
// every change until ctx is done, at which point the channel is closed. Slow
// readers only ever see the newest snapshot.
func (s *StateStore) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	ch <- s.snap
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func (s *StateStore) broadcastLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		ch <- s.snap
	}
}
