package timer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
)

func standard(seconds float64, terminate bool) models.Snapshot {
	return models.Snapshot{
		SessionID:           "s-1",
		Status:              models.StatusActive,
		BillingMode:         models.BillingStandard,
		TimeSpentSeconds:    seconds,
		ShouldAutoTerminate: terminate,
	}
}

func TestObservePromptsOnce(t *testing.T) {
	m := NewMachine()

	if eff := m.Observe(standard(299, false)); eff != EffectNone {
		t.Fatalf("expected no effect before threshold, got %v", eff)
	}
	if eff := m.Observe(standard(300, true)); eff != EffectShowPrompt {
		t.Fatalf("expected prompt at threshold, got %v", eff)
	}
	if m.Phase() != PhasePrompting || !m.PromptOpen() {
		t.Fatalf("expected prompting phase, got %v", m.Phase())
	}
	if eff := m.Observe(standard(301, true)); eff != EffectNone {
		t.Errorf("prompt should not be shown twice, got %v", eff)
	}
	snap, ok := m.Snapshot()
	if !ok || snap.TimeSpentSeconds != 301 {
		t.Errorf("expected latest snapshot to be kept, got %+v", snap)
	}
}

func TestContinueAccepted(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))

	if !m.BeginDecision(DecisionContinue) {
		t.Fatal("continue should be allowed while prompting")
	}
	if m.BeginDecision(DecisionEnd) {
		t.Error("second decision must be refused while one is in flight")
	}
	if !m.PromptOpen() {
		t.Error("prompt stays visible while submitting")
	}

	premium := standard(300, false)
	premium.BillingMode = models.BillingPremium
	if eff := m.DecisionSettled(DecisionContinue, premium, nil); eff != EffectHidePrompt {
		t.Fatalf("expected prompt to close, got %v", eff)
	}
	if m.Phase() != PhasePolling {
		t.Errorf("expected polling after continue, got %v", m.Phase())
	}

	premium.TimeSpentSeconds = 400
	if eff := m.Observe(premium); eff != EffectNone {
		t.Errorf("premium snapshots never prompt, got %v", eff)
	}
}

func TestContinueOnlyWhilePrompting(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(10, false))
	if m.BeginDecision(DecisionContinue) {
		t.Error("continue before the prompt should be refused")
	}
	if m.BeginDecision(Decision("pause")) {
		t.Error("unknown decision should be refused")
	}
}

func TestEndStopsPolling(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(42, false))

	if !m.BeginDecision(DecisionEnd) {
		t.Fatal("end should be allowed at any time")
	}
	final := standard(42, false)
	final.Status = models.StatusEnded
	if eff := m.DecisionSettled(DecisionEnd, final, nil); eff != EffectStop {
		t.Fatalf("expected stop, got %v", eff)
	}
	if !m.Done() || m.Phase() != PhaseEnded {
		t.Errorf("expected ended, got %v", m.Phase())
	}
	if eff := m.Observe(standard(50, false)); eff != EffectNone {
		t.Errorf("late snapshots are ignored after end, got %v", eff)
	}
	if snap, _ := m.Snapshot(); snap.Status != models.StatusEnded {
		t.Errorf("final snapshot should stay, got %+v", snap)
	}
}

func TestObserveEndedElsewhere(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))

	ended := standard(310, false)
	ended.Status = models.StatusEnded
	if eff := m.Observe(ended); eff != EffectStop {
		t.Fatalf("expected stop, got %v", eff)
	}
	if m.Phase() != PhaseEnded || m.PromptOpen() {
		t.Errorf("expected ended without prompt, got %v", m.Phase())
	}
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		phase Phase
		eff   Effect
	}{
		{"transient", errors.New("connection refused"), PhasePolling, EffectNone},
		{"not found", fmt.Errorf("%w: gone", apperr.ErrNotFound), PhaseFailed, EffectStop},
		{"forbidden", apperr.ErrForbidden, PhaseFailed, EffectStop},
		{"unauthenticated", apperr.ErrUnauthenticated, PhaseFailed, EffectStop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			if eff := m.FetchFailed(tt.err); eff != tt.eff {
				t.Errorf("expected effect %v, got %v", tt.eff, eff)
			}
			if m.Phase() != tt.phase {
				t.Errorf("expected phase %v, got %v", tt.phase, m.Phase())
			}
			if !errors.Is(m.Err(), tt.err) {
				t.Errorf("expected error to be kept, got %v", m.Err())
			}
		})
	}
}

func TestSkippedTicksReset(t *testing.T) {
	m := NewMachine()
	m.FetchFailed(errors.New("timeout"))
	m.FetchFailed(errors.New("timeout"))
	if m.Skipped() != 2 {
		t.Fatalf("expected 2 skipped ticks, got %d", m.Skipped())
	}
	m.Observe(standard(5, false))
	if m.Skipped() != 0 || m.Err() != nil {
		t.Errorf("a good poll clears the failure state, got %d %v", m.Skipped(), m.Err())
	}
}

func TestDecisionConflictRefreshes(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))
	m.BeginDecision(DecisionContinue)

	if eff := m.DecisionSettled(DecisionContinue, models.Snapshot{}, apperr.ErrConflict); eff != EffectRefresh {
		t.Fatalf("expected refresh on conflict, got %v", eff)
	}
	if m.Phase() != PhasePolling {
		t.Errorf("expected polling, got %v", m.Phase())
	}
	// The authoritative state may still call for a decision
	if eff := m.Observe(standard(302, true)); eff != EffectShowPrompt {
		t.Errorf("expected prompt after refresh, got %v", eff)
	}
}

func TestDecisionTransientFailureReopensPrompt(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))
	m.BeginDecision(DecisionContinue)

	if eff := m.DecisionSettled(DecisionContinue, models.Snapshot{}, errors.New("timeout")); eff != EffectShowPrompt {
		t.Fatalf("expected prompt to reopen, got %v", eff)
	}
	if m.Phase() != PhasePrompting {
		t.Errorf("expected prompting, got %v", m.Phase())
	}
	if !m.BeginDecision(DecisionContinue) {
		t.Error("retry should be allowed")
	}
}

func TestDecisionSettledIgnoresStrays(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))
	if eff := m.DecisionSettled(DecisionEnd, models.Snapshot{}, nil); eff != EffectNone {
		t.Errorf("settle without a submission should be ignored, got %v", eff)
	}
	m.BeginDecision(DecisionContinue)
	if eff := m.DecisionSettled(DecisionEnd, models.Snapshot{}, nil); eff != EffectNone {
		t.Errorf("settle for a different decision should be ignored, got %v", eff)
	}
	if m.Phase() != PhaseSubmitting {
		t.Errorf("expected submitting, got %v", m.Phase())
	}
}

func TestObserveOtherParticipantContinued(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))

	premium := standard(310, false)
	premium.BillingMode = models.BillingPremium
	if eff := m.Observe(premium); eff != EffectHidePrompt {
		t.Fatalf("expected the prompt to close, got %v", eff)
	}
	if m.Phase() != PhasePolling || m.PromptOpen() {
		t.Errorf("expected polling with no prompt, got %v", m.Phase())
	}
	if m.BeginDecision(DecisionContinue) {
		t.Error("continue must be refused once the session is premium")
	}
	if eff := m.Observe(premium); eff != EffectNone {
		t.Errorf("expected no further effect, got %v", eff)
	}
}

func TestObserveContinuedWhileSubmitting(t *testing.T) {
	m := NewMachine()
	m.Observe(standard(300, true))
	m.BeginDecision(DecisionContinue)

	premium := standard(301, false)
	premium.BillingMode = models.BillingPremium
	m.Observe(premium)
	if m.PromptOpen() {
		t.Error("prompt must not stay open once the server stopped asking")
	}
	if eff := m.DecisionSettled(DecisionContinue, models.Snapshot{}, errors.New("timeout")); eff != EffectNone {
		t.Errorf("a failed submission must not reopen a settled prompt, got %v", eff)
	}
	if m.Phase() != PhasePolling {
		t.Errorf("expected polling, got %v", m.Phase())
	}
}
