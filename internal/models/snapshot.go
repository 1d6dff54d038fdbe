package models

import (
	"time"
)

// Snapshot is the reward state of a session at a point in time, as served to clients
type Snapshot struct {
	SessionID           string    `json:"session_id"`
	Status              string    `json:"status"`
	BillingMode         string    `json:"billing_mode"`
	TimeSpentSeconds    float64   `json:"time_spent_seconds"`
	TimeSpentMinutes    float64   `json:"time_spent_minutes"`
	CurrentPoints       int64     `json:"current_points"`
	CurrentAmount       float64   `json:"current_amount"`
	AmountCents         int64     `json:"amount_cents"`
	ShouldAutoTerminate bool      `json:"should_auto_terminate"`
	ComputedAt          time.Time `json:"computed_at"`
}

// Elapsed returns the time spent as a duration
func (s Snapshot) Elapsed() time.Duration {
	return time.Duration(s.TimeSpentSeconds * float64(time.Second))
}

// SnapshotRecord is an audit row written whenever a decision changes a session
type SnapshotRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SessionID        string    `gorm:"not null;index;size:36" json:"session_id"`
	TakenAt          time.Time `gorm:"not null" json:"taken_at"`
	Action           string    `json:"action"` // continue, end
	BillingMode      string    `json:"billing_mode"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	Points           int64     `json:"points"`
	AmountCents      int64     `json:"amount_cents"`
	Final            bool      `gorm:"default:false" json:"final"`
}

// TableName keeps the audit table name stable
func (SnapshotRecord) TableName() string {
	return "reward_snapshots"
}

// VolunteerStats aggregates earnings over a volunteer's ended sessions
type VolunteerStats struct {
	VolunteerID      string  `json:"volunteer_id"`
	SessionsEnded    int64   `json:"sessions_ended"`
	SessionsActive   int64   `json:"sessions_active"`
	TotalMinutes     float64 `json:"total_minutes"`
	TotalPoints      int64   `json:"total_points"`
	TotalAmountCents int64   `json:"total_amount_cents"`
	TotalAmount      float64 `json:"total_amount"`
}
