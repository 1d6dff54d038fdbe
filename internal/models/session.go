package models

import (
	"time"
)

// Session status values
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Billing modes
const (
	BillingStandard = "standard"
	BillingPremium  = "premium"
)

// Session represents a timed conversation between a seeker and a volunteer
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VolunteerID string `gorm:"not null;index" json:"volunteer_id"`
	SeekerID    string `gorm:"not null;index" json:"seeker_id"`
	Status      string `gorm:"not null;default:active;index" json:"status"`   // active, ended
	BillingMode string `gorm:"not null;default:standard" json:"billing_mode"` // standard, premium

	StartedAt        time.Time  `gorm:"not null" json:"started_at"`
	PremiumStartedAt *time.Time `json:"premium_started_at"`
	EndedAt          *time.Time `json:"ended_at"`

	// Last persisted snapshot; frozen once the session ends
	TimeSpentSeconds   float64 `json:"time_spent_seconds"`
	AccruedPoints      int64   `json:"accrued_points"`
	AccruedAmountCents int64   `json:"accrued_amount_cents"`
}

// IsParticipant reports whether userID is the volunteer or seeker of the session
func (s *Session) IsParticipant(userID string) bool {
	return userID != "" && (s.VolunteerID == userID || s.SeekerID == userID)
}

// IsEnded reports whether the session reached its terminal status
func (s *Session) IsEnded() bool {
	return s.Status == StatusEnded
}
