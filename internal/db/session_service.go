package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rates"
)

// SessionStore persists sessions and their reward history
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore wraps a gorm connection
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSession inserts a new session
func (s *SessionStore) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession loads a session by id
func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &session, nil
}

// ListSessions returns sessions the user participates in, newest first.
// An empty status matches every status.
func (s *SessionStore) ListSessions(ctx context.Context, participantID, status string) ([]models.Session, error) {
	var sessions []models.Session

	q := s.db.WithContext(ctx).Where("volunteer_id = ? OR seeker_id = ?", participantID, participantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("started_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// CompareAndSwap writes the mutable fields of next, but only if the stored
// status and billing mode still equal those of prev.
func (s *SessionStore) CompareAndSwap(ctx context.Context, prev, next *models.Session) error {
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ? AND billing_mode = ?", prev.ID, prev.Status, prev.BillingMode).
		Updates(map[string]any{
			"status":               next.Status,
			"billing_mode":         next.BillingMode,
			"premium_started_at":   next.PremiumStartedAt,
			"ended_at":             next.EndedAt,
			"time_spent_seconds":   next.TimeSpentSeconds,
			"accrued_points":       next.AccruedPoints,
			"accrued_amount_cents": next.AccruedAmountCents,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update session %s: %w", prev.ID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: either the row is gone or someone else moved it
	if _, err := s.GetSession(ctx, prev.ID); err != nil {
		return err
	}
	return fmt.Errorf("session %s: %w", prev.ID, apperr.ErrConflict)
}

// RecordAccrual stores a live snapshot on the session row. It never lowers
// the stored figures and never touches an ended session.
func (s *SessionStore) RecordAccrual(ctx context.Context, snap models.Snapshot) error {
	err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ? AND accrued_points <= ? AND time_spent_seconds <= ?",
			snap.SessionID, models.StatusActive, snap.CurrentPoints, snap.TimeSpentSeconds).
		Updates(map[string]any{
			"time_spent_seconds":   snap.TimeSpentSeconds,
			"accrued_points":       snap.CurrentPoints,
			"accrued_amount_cents": snap.AmountCents,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record accrual for %s: %w", snap.SessionID, err)
	}
	return nil
}

// AppendSnapshot writes an audit record
func (s *SessionStore) AppendSnapshot(ctx context.Context, rec *models.SnapshotRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the audit history of a session, oldest first
func (s *SessionStore) ListSnapshots(ctx context.Context, sessionID string) ([]models.SnapshotRecord, error) {
	var records []models.SnapshotRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("taken_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return records, nil
}

// VolunteerStats sums the frozen earnings of a volunteer's ended sessions
func (s *SessionStore) VolunteerStats(ctx context.Context, volunteerID string) (models.VolunteerStats, error) {
	var totals struct {
		Sessions int64
		Seconds  float64
		Points   int64
		Cents    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Select("COUNT(*) AS sessions, COALESCE(SUM(time_spent_seconds), 0) AS seconds, "+
			"COALESCE(SUM(accrued_points), 0) AS points, COALESCE(SUM(accrued_amount_cents), 0) AS cents").
		Where("volunteer_id = ? AND status = ?", volunteerID, models.StatusEnded).
		Scan(&totals).Error
	if err != nil {
		return models.VolunteerStats{}, fmt.Errorf("failed to sum volunteer sessions: %w", err)
	}

	var active int64
	err = s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("volunteer_id = ? AND status = ?", volunteerID, models.StatusActive).
		Count(&active).Error
	if err != nil {
		return models.VolunteerStats{}, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return models.VolunteerStats{
		VolunteerID:      volunteerID,
		SessionsEnded:    totals.Sessions,
		SessionsActive:   active,
		TotalMinutes:     totals.Seconds / 60,
		TotalPoints:      totals.Points,
		TotalAmountCents: totals.Cents,
		TotalAmount:      rates.Dollars(totals.Cents),
	}, nil
}
