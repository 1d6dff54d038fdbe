// Package rewards computes and governs the running reward of active sessions.
package rewards

import (
	"fmt"
	"time"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rates"
)

// Action is a participant's answer to the decision prompt
type Action string

const (
	ActionContinue Action = "continue"
	ActionEnd      Action = "end"
)

// ParseAction validates an action string
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionContinue, ActionEnd:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q (use continue or end)", apperr.ErrBadRequest, s)
	}
}

// Calculator derives snapshots from persisted session state and the clock
type Calculator struct {
	now func() time.Time
}

// NewCalculator creates a calculator; a nil clock means time.Now
func NewCalculator(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

// Now returns the calculator's current time
func (c *Calculator) Now() time.Time {
	return c.now().UTC()
}

// Compute returns the live snapshot of an active session
func (c *Calculator) Compute(s *models.Session) (models.Snapshot, error) {
	if s.IsEnded() {
		return models.Snapshot{}, fmt.Errorf("compute %s: %w", s.ID, apperr.ErrInvalidState)
	}
	return ComputeAt(s, c.Now()), nil
}

// ComputeAt builds the snapshot of an active session at now
func ComputeAt(s *models.Session, now time.Time) models.Snapshot {
	elapsed := now.Sub(s.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	standard, premium := elapsed, time.Duration(0)
	if s.BillingMode == models.BillingPremium && s.PremiumStartedAt != nil {
		standard = min(s.PremiumStartedAt.Sub(s.StartedAt), elapsed)
		premium = now.Sub(*s.PremiumStartedAt)
	}

	points := rates.Points(standard, premium)
	cents := rates.AmountCents(points)

	return models.Snapshot{
		SessionID:           s.ID,
		Status:              s.Status,
		BillingMode:         s.BillingMode,
		TimeSpentSeconds:    elapsed.Seconds(),
		TimeSpentMinutes:    elapsed.Minutes(),
		CurrentPoints:       points,
		CurrentAmount:       rates.Dollars(cents),
		AmountCents:         cents,
		ShouldAutoTerminate: rates.ShouldAutoTerminate(s.BillingMode, elapsed),
		ComputedAt:          now,
	}
}

// Frozen returns the snapshot stored when the session ended
func Frozen(s *models.Session) models.Snapshot {
	snap := models.Snapshot{
		SessionID:        s.ID,
		Status:           s.Status,
		BillingMode:      s.BillingMode,
		TimeSpentSeconds: s.TimeSpentSeconds,
		TimeSpentMinutes: s.TimeSpentSeconds / 60,
		CurrentPoints:    s.AccruedPoints,
		CurrentAmount:    rates.Dollars(s.AccruedAmountCents),
		AmountCents:      s.AccruedAmountCents,
	}
	if s.EndedAt != nil {
		snap.ComputedAt = s.EndedAt.UTC()
	}
	return snap
}

// Transition applies action to s at now. It returns the next session state
// and whether anything changed; s is not modified.
//
//	standard --continue (t >= threshold)--> premium
//	standard|premium --end--> ended
func Transition(s *models.Session, action Action, now time.Time) (*models.Session, bool, error) {
	next := *s

	switch action {
	case ActionContinue:
		if s.IsEnded() {
			return nil, false, fmt.Errorf("continue %s: %w", s.ID, apperr.ErrInvalidState)
		}
		if s.BillingMode == models.BillingPremium {
			return &next, false, nil
		}
		snap := ComputeAt(s, now)
		if !snap.ShouldAutoTerminate {
			return nil, false, fmt.Errorf("continue %s after %.0fs: %w", s.ID, snap.TimeSpentSeconds, apperr.ErrPrecondition)
		}
		premiumAt := now
		next.BillingMode = models.BillingPremium
		next.PremiumStartedAt = &premiumAt
		applySnapshot(&next, snap)
		return &next, true, nil

	case ActionEnd:
		if s.IsEnded() {
			return &next, false, nil
		}
		snap := ComputeAt(s, now)
		endedAt := now
		next.Status = models.StatusEnded
		next.EndedAt = &endedAt
		applySnapshot(&next, snap)
		return &next, true, nil

	default:
		return nil, false, fmt.Errorf("%w: unknown action %q", apperr.ErrBadRequest, action)
	}
}

func applySnapshot(s *models.Session, snap models.Snapshot) {
	s.TimeSpentSeconds = snap.TimeSpentSeconds
	s.AccruedPoints = snap.CurrentPoints
	s.AccruedAmountCents = snap.AmountCents
}
