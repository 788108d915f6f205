package pipeline

import (
	"errors"
	"testing"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

func TestStateInitial(t *testing.T) {
	snap := NewState().Snapshot()
	if snap.Stage != model.StageIdle {
		t.Errorf("Stage = %v, want idle", snap.Stage)
	}
	if snap.Document != nil || snap.Extraction != nil || snap.Impact != nil || snap.Score != nil {
		t.Errorf("expected no results, got %+v", snap)
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		stage   model.Stage
		success model.Stage
	}{
		{model.StageIngesting, model.StageExtracting},
		{model.StageExtracting, model.StageCalculating},
		{model.StageCalculating, model.StageScoring},
		{model.StageScoring, model.StageDone},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			s := NewState()

			token, err := s.begin(tt.stage)
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			if got := s.Snapshot().Stage; got != tt.stage {
				t.Errorf("active stage = %v, want %v", got, tt.stage)
			}
			s.succeed(token, tt.stage, func(*Snapshot) {})
			if got := s.Snapshot().Stage; got != tt.success {
				t.Errorf("after success = %v, want %v", got, tt.success)
			}

			token, _ = s.begin(tt.stage)
			s.fail(token)
			if got := s.Snapshot().Stage; got != model.StageIdle {
				t.Errorf("after failure = %v, want idle", got)
			}
		})
	}
}

func TestStateDoneIsReenterable(t *testing.T) {
	s := NewState()
	for i := 0; i < 2; i++ {
		token, err := s.begin(model.StageScoring)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		s.succeed(token, model.StageScoring, func(*Snapshot) {})
	}
	if got := s.Snapshot().Stage; got != model.StageDone {
		t.Errorf("Stage = %v, want done", got)
	}
}

func TestStateFailureKeepsResults(t *testing.T) {
	s := NewState()
	impact := &model.ImpactResult{ProductName: "Miel", CO2Kg: 1}

	token, _ := s.begin(model.StageCalculating)
	s.succeed(token, model.StageCalculating, func(snap *Snapshot) { snap.Impact = impact })

	token, _ = s.begin(model.StageCalculating)
	s.fail(token)

	if got := s.Snapshot().Impact; got != impact {
		t.Errorf("Impact = %+v, want previous result kept", got)
	}
}

func TestStateRejectsConcurrentRun(t *testing.T) {
	s := NewState()
	if _, err := s.begin(model.StageExtracting); err != nil {
		t.Fatal(err)
	}
	if _, err := s.begin(model.StageCalculating); !errors.Is(err, ErrStageInFlight) {
		t.Errorf("err = %v, want ErrStageInFlight", err)
	}
	if got := s.Snapshot().Stage; got != model.StageExtracting {
		t.Errorf("rejected run changed stage to %v", got)
	}
}

func TestStateResetOrphansRun(t *testing.T) {
	s := NewState()

	token, _ := s.begin(model.StageIngesting)
	s.succeed(token, model.StageIngesting, func(snap *Snapshot) {
		snap.Document = &model.IngestedDocument{ID: "1"}
	})

	token, _ = s.begin(model.StageExtracting)
	s.Reset()

	if s.succeed(token, model.StageExtracting, func(snap *Snapshot) {
		snap.Extraction = &model.ExtractionResult{}
	}) {
		t.Error("succeed after Reset should be discarded")
	}

	snap := s.Snapshot()
	if snap.Stage != model.StageIdle || snap.Document != nil || snap.Extraction != nil {
		t.Errorf("unexpected state after reset: %+v", snap)
	}

	// Reset released the in-flight slot
	if _, err := s.begin(model.StageIngesting); err != nil {
		t.Errorf("begin after reset: %v", err)
	}
}

func TestStateSubscribers(t *testing.T) {
	s := NewState()

	var seen []model.Stage
	var versions []uint64
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Stage)
		versions = append(versions, snap.Version)
	})

	token, _ := s.begin(model.StageIngesting)
	s.succeed(token, model.StageIngesting, func(*Snapshot) {})
	s.Reset()

	want := []model.Stage{model.StageIngesting, model.StageExtracting, model.StageIdle}
	if len(seen) != len(want) {
		t.Fatalf("seen %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, seen[i], want[i])
		}
		if i > 0 && versions[i] <= versions[i-1] {
			t.Errorf("versions not increasing: %v", versions)
		}
	}

	unsubscribe()
	unsubscribe()
	s.Reset()
	if len(seen) != len(want) {
		t.Errorf("notified after unsubscribe: %v", seen)
	}
}

func TestStateSubscriberMayReadState(t *testing.T) {
	s := NewState()
	var stage model.Stage
	s.Subscribe(func(Snapshot) { stage = s.Snapshot().Stage })

	s.Reset()
	if stage != model.StageIdle {
		t.Errorf("stage = %v", stage)
	}
}
