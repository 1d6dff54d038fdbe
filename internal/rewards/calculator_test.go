package rewards

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func activeSession() *models.Session {
	return &models.Session{
		ID:          "s-1",
		VolunteerID: "vol-1",
		SeekerID:    "seek-1",
		Status:      models.StatusActive,
		BillingMode: models.BillingStandard,
		StartedAt:   t0,
	}
}

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func TestComputeStandardProperty(t *testing.T) {
	s := activeSession()
	for sec := 0; sec <= 900; sec++ {
		snap := ComputeAt(s, at(sec))
		want := int64(math.Round(float64(sec) * 40 / 60))
		if snap.CurrentPoints != want {
			t.Fatalf("t=%d: points %d, want %d", sec, snap.CurrentPoints, want)
		}
		if snap.AmountCents != snap.CurrentPoints*10 {
			t.Fatalf("t=%d: amount %d cents for %d points", sec, snap.AmountCents, snap.CurrentPoints)
		}
		if snap.ShouldAutoTerminate != (sec >= 300) {
			t.Fatalf("t=%d: should_auto_terminate=%v", sec, snap.ShouldAutoTerminate)
		}
	}
}

func TestComputeScenario(t *testing.T) {
	s := activeSession()

	snap := ComputeAt(s, at(299))
	if snap.ShouldAutoTerminate || snap.CurrentPoints != 199 {
		t.Fatalf("t=299: got %d points, auto=%v", snap.CurrentPoints, snap.ShouldAutoTerminate)
	}

	snap = ComputeAt(s, at(300))
	if !snap.ShouldAutoTerminate || snap.CurrentPoints != 200 {
		t.Fatalf("t=300: got %d points, auto=%v", snap.CurrentPoints, snap.ShouldAutoTerminate)
	}

	next, changed, err := Transition(s, ActionContinue, at(300))
	if err != nil || !changed {
		t.Fatalf("continue at 300: changed=%v err=%v", changed, err)
	}

	snap = ComputeAt(next, at(360))
	if snap.CurrentPoints != 260 {
		t.Errorf("t=360 premium: got %d points, want 260", snap.CurrentPoints)
	}
	if snap.CurrentAmount != 26.00 {
		t.Errorf("t=360 premium: got $%v, want $26.00", snap.CurrentAmount)
	}
	if snap.ShouldAutoTerminate {
		t.Error("premium session should not auto-terminate")
	}

	for sec := 360; sec < 7200; sec += 97 {
		if ComputeAt(next, at(sec)).ShouldAutoTerminate {
			t.Fatalf("t=%d: premium auto-terminate flag came back", sec)
		}
	}
}

func TestComputeLateContinue(t *testing.T) {
	s := activeSession()
	// Standard keeps accruing until the continue lands
	next, _, err := Transition(s, ActionContinue, at(330))
	if err != nil {
		t.Fatal(err)
	}
	got := ComputeAt(next, at(390)).CurrentPoints
	if got != 220+60 {
		t.Errorf("expected 280 points, got %d", got)
	}
}

func TestComputeClampsClockSkew(t *testing.T) {
	s := activeSession()
	snap := ComputeAt(s, t0.Add(-30*time.Second))
	if snap.TimeSpentSeconds != 0 || snap.CurrentPoints != 0 {
		t.Errorf("expected zero snapshot under skew, got %+v", snap)
	}
}

func TestComputeEndedFails(t *testing.T) {
	s := activeSession()
	s.Status = models.StatusEnded
	calc := NewCalculator(func() time.Time { return at(100) })
	_, err := calc.Compute(s)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestComputeUsesInjectedClock(t *testing.T) {
	calc := NewCalculator(func() time.Time { return at(90) })
	snap, err := calc.Compute(activeSession())
	if err != nil {
		t.Fatal(err)
	}
	if snap.TimeSpentSeconds != 90 || snap.TimeSpentMinutes != 1.5 || snap.CurrentPoints != 60 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestTransitionContinueBeforeThreshold(t *testing.T) {
	_, _, err := Transition(activeSession(), ActionContinue, at(299))
	if !errors.Is(err, apperr.ErrPrecondition) {
		t.Errorf("expected ErrPrecondition, got %v", err)
	}
}

func TestTransitionContinueIdempotent(t *testing.T) {
	s := activeSession()
	premium, _, _ := Transition(s, ActionContinue, at(300))

	again, changed, err := Transition(premium, ActionContinue, at(400))
	if err != nil || changed {
		t.Fatalf("second continue should be a no-op, changed=%v err=%v", changed, err)
	}
	if !again.PremiumStartedAt.Equal(at(300)) {
		t.Errorf("premium start moved to %v", again.PremiumStartedAt)
	}
}

func TestTransitionEnd(t *testing.T) {
	s := activeSession()
	ended, changed, err := Transition(s, ActionEnd, at(120))
	if err != nil || !changed {
		t.Fatalf("end: changed=%v err=%v", changed, err)
	}
	if ended.Status != models.StatusEnded || ended.AccruedPoints != 80 || ended.AccruedAmountCents != 800 {
		t.Errorf("unexpected ended session %+v", ended)
	}
	if s.Status != models.StatusActive {
		t.Error("Transition must not modify its input")
	}

	snap := Frozen(ended)
	if snap.CurrentPoints != 80 || snap.CurrentAmount != 8.00 || snap.TimeSpentSeconds != 120 {
		t.Errorf("unexpected frozen snapshot %+v", snap)
	}
	if snap.ShouldAutoTerminate {
		t.Error("ended sessions never ask for a decision")
	}

	_, changed, err = Transition(ended, ActionEnd, at(500))
	if err != nil || changed {
		t.Errorf("ending twice should be a no-op, changed=%v err=%v", changed, err)
	}
	_, _, err = Transition(ended, ActionContinue, at(500))
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("continue on ended session: expected ErrInvalidState, got %v", err)
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("continue"); err != nil || a != ActionContinue {
		t.Errorf("continue: %v %v", a, err)
	}
	if _, err := ParseAction("pause"); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}
