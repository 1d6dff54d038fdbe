package rewards

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/auth"
	"github.com/balkashynov/listeningroom/internal/models"
)

// Store is the session storage the reward engine needs
type Store interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, participantID, status string) ([]models.Session, error)
	// CompareAndSwap fails with apperr.ErrConflict when prev is stale
	CompareAndSwap(ctx context.Context, prev, next *models.Session) error
	RecordAccrual(ctx context.Context, snap models.Snapshot) error
	AppendSnapshot(ctx context.Context, rec *models.SnapshotRecord) error
	ListSnapshots(ctx context.Context, sessionID string) ([]models.SnapshotRecord, error)
	VolunteerStats(ctx context.Context, volunteerID string) (models.VolunteerStats, error)
}

// Cache holds the latest snapshot per session
type Cache interface {
	Put(ctx context.Context, snap models.Snapshot) error
	Get(ctx context.Context, sessionID string) (models.Snapshot, bool, error)
}

// Service is the reward endpoint: it authorizes callers, serves snapshots
// and applies decisions.
type Service struct {
	store  Store
	cache  Cache
	calc   *Calculator
	logger *slog.Logger
}

// NewService wires the reward endpoint; cache may be nil
func NewService(store Store, cache Cache, calc *Calculator, logger *slog.Logger) *Service {
	if calc == nil {
		calc = NewCalculator(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, calc: calc, logger: logger}
}

// Start creates an active session for a freshly made match
func (s *Service) Start(ctx context.Context, volunteerID, seekerID string) (*models.Session, error) {
	if volunteerID == "" || seekerID == "" {
		return nil, fmt.Errorf("%w: volunteer and seeker are required", apperr.ErrBadRequest)
	}
	if volunteerID == seekerID {
		return nil, fmt.Errorf("%w: volunteer and seeker must differ", apperr.ErrBadRequest)
	}

	session := &models.Session{
		ID:          uuid.New().String(),
		VolunteerID: volunteerID,
		SeekerID:    seekerID,
		Status:      models.StatusActive,
		BillingMode: models.BillingStandard,
		StartedAt:   s.calc.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session started", "session_id", session.ID, "volunteer_id", volunteerID)
	return session, nil
}

// Snapshot returns the current reward figures of a session
func (s *Service) Snapshot(ctx context.Context, p auth.Principal, id string) (models.Snapshot, error) {
	session, err := s.load(ctx, p, id)
	if err != nil {
		return models.Snapshot{}, err
	}

	if session.IsEnded() {
		return s.frozen(ctx, session), nil
	}

	snap, err := s.calc.Compute(session)
	if err != nil {
		return models.Snapshot{}, err
	}

	if err := s.store.RecordAccrual(ctx, snap); err != nil {
		s.logger.Warn("failed to persist accrual", "session_id", id, "error", err)
	}
	s.cachePut(ctx, snap)
	return snap, nil
}

// Decide applies a continue or end decision and returns the resulting snapshot
func (s *Service) Decide(ctx context.Context, p auth.Principal, id string, action Action) (models.Snapshot, error) {
	session, err := s.load(ctx, p, id)
	if err != nil {
		return models.Snapshot{}, err
	}

	now := s.calc.Now()
	next, changed, err := Transition(session, action, now)
	if err != nil {
		return models.Snapshot{}, err
	}
	if !changed {
		if session.IsEnded() {
			return s.frozen(ctx, session), nil
		}
		return ComputeAt(session, now), nil
	}

	if err := s.store.CompareAndSwap(ctx, session, next); err != nil {
		s.logger.Info("decision rejected", "session_id", id, "action", action, "error", err)
		return models.Snapshot{}, err
	}

	var snap models.Snapshot
	if next.IsEnded() {
		snap = Frozen(next)
	} else {
		snap = ComputeAt(next, now)
	}

	rec := &models.SnapshotRecord{
		SessionID:        id,
		TakenAt:          now,
		Action:           string(action),
		BillingMode:      next.BillingMode,
		TimeSpentSeconds: next.TimeSpentSeconds,
		Points:           next.AccruedPoints,
		AmountCents:      next.AccruedAmountCents,
		Final:            next.IsEnded(),
	}
	if err := s.store.AppendSnapshot(ctx, rec); err != nil {
		s.logger.Warn("failed to append snapshot history", "session_id", id, "error", err)
	}
	s.cachePut(ctx, snap)

	s.logger.Info("decision applied",
		"session_id", id,
		"action", action,
		"by", p.UserID,
		"billing_mode", next.BillingMode,
		"status", next.Status,
		"points", snap.CurrentPoints,
	)
	return snap, nil
}

// End stops a session and returns its frozen snapshot
func (s *Service) End(ctx context.Context, p auth.Principal, id string) (models.Snapshot, error) {
	return s.Decide(ctx, p, id, ActionEnd)
}

// ListSessions returns the caller's sessions, optionally filtered by status
func (s *Service) ListSessions(ctx context.Context, p auth.Principal, status string) ([]models.Session, error) {
	switch status {
	case "", models.StatusActive, models.StatusEnded:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrBadRequest, status)
	}
	return s.store.ListSessions(ctx, p.UserID, status)
}

// History returns the decision audit trail of a session
func (s *Service) History(ctx context.Context, p auth.Principal, id string) ([]models.SnapshotRecord, error) {
	if _, err := s.load(ctx, p, id); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, id)
}

// VolunteerStats returns the caller's earnings as a volunteer
func (s *Service) VolunteerStats(ctx context.Context, p auth.Principal) (models.VolunteerStats, error) {
	return s.store.VolunteerStats(ctx, p.UserID)
}

// load fetches a session and checks the caller takes part in it
func (s *Service) load(ctx context.Context, p auth.Principal, id string) (*models.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", apperr.ErrBadRequest)
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(p.UserID) {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrForbidden)
	}
	return session, nil
}

// frozen serves the final snapshot of an ended session, cache first
func (s *Service) frozen(ctx context.Context, session *models.Session) models.Snapshot {
	if s.cache != nil {
		snap, ok, err := s.cache.Get(ctx, session.ID)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", "session_id", session.ID, "error", err)
		}
		if ok && snap.Status == models.StatusEnded {
			return snap
		}
	}

	snap := Frozen(session)
	s.cachePut(ctx, snap)
	return snap
}

func (s *Service) cachePut(ctx context.Context, snap models.Snapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, snap); err != nil {
		s.logger.Warn("snapshot cache write failed", "session_id", snap.SessionID, "error", err)
	}
}
