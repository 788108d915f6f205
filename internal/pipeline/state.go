package pipeline

import (
	"errors"
	"sync"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// ErrStageInFlight is returned when a stage is submitted while another is running
var ErrStageInFlight = errors.New("pipeline: a stage is already in flight")

// Snapshot is a copy of the pipeline state. Result pointers are shared with
// the State and must be treated as read-only; a new run replaces them.
type Snapshot struct {
	Version    uint64 // Increases with every mutation
	Stage      model.Stage
	Document   *model.IngestedDocument
	Extraction *model.ExtractionResult
	Impact     *model.ImpactResult
	Score      *model.ScoreResult
}

// State tracks the active stage and the latest result of each stage
type State struct {
	mu         sync.Mutex
	snap       Snapshot
	inFlight   bool
	generation uint64 // Bumped by Reset so stale runs cannot write back
	subs       map[int]func(Snapshot)
	nextSub    int
}

// NewState returns an idle pipeline state with no results
func NewState() *State {
	return &State{subs: make(map[int]func(Snapshot))}
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to receive a snapshot after every mutation.
// fn runs outside the state lock and may call back into the State.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Reset clears all results and returns to idle in a single step.
// A run still in flight is orphaned: its outcome is discarded.
func (s *State) Reset() {
	s.mutate(func() {
		s.generation++
		s.inFlight = false
		s.snap = Snapshot{Version: s.snap.Version, Stage: model.StageIdle}
	})
}

// begin marks stage active and returns the token its outcome must present
func (s *State) begin(stage model.Stage) (uint64, error) {
	var token uint64
	var err error
	s.mutateIf(func() bool {
		if s.inFlight {
			err = ErrStageInFlight
			return false
		}
		s.inFlight = true
		s.snap.Stage = stage
		token = s.generation
		return true
	})
	return token, err
}

// succeed stores a result through store and advances past stage.
// It reports false when the run was orphaned by Reset.
func (s *State) succeed(token uint64, stage model.Stage, store func(*Snapshot)) bool {
	return s.mutateIf(func() bool {
		if token != s.generation {
			return false
		}
		store(&s.snap)
		s.snap.Stage = stage.Next()
		s.inFlight = false
		return true
	})
}

// fail returns to idle, leaving earlier results untouched
func (s *State) fail(token uint64) bool {
	return s.mutateIf(func() bool {
		if token != s.generation {
			return false
		}
		s.snap.Stage = model.StageIdle
		s.inFlight = false
		return true
	})
}

func (s *State) mutate(fn func()) {
	s.mutateIf(func() bool {
		fn()
		return true
	})
}

// mutateIf applies fn under the lock and notifies subscribers when it reports a change
func (s *State) mutateIf(fn func() bool) bool {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false
	}
	s.snap.Version++
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return true
}
