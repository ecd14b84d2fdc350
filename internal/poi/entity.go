// AngelaMos | 2026
// entity.go

package poi

import (
	"time"
)

type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingValidation Status = "pending_validation"
	StatusUnderReview       Status = "under_review"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusBlocked           Status = "blocked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingValidation, StatusUnderReview,
		StatusApproved, StatusRejected, StatusBlocked:
		return true
	}
	return false
}

type POI struct {
	ID              string     `db:"id"`
	OwnerID         string     `db:"owner_id"`
	Name            string     `db:"name"`
	Description     string     `db:"description"`
	Category        string     `db:"category"`
	Latitude        float64    `db:"latitude"`
	Longitude       float64    `db:"longitude"`
	Address         string     `db:"address"`
	City            string     `db:"city"`
	Country         string     `db:"country"`
	Status          Status     `db:"status"`
	IsActive        bool       `db:"is_active"`
	IsVerified      bool       `db:"is_verified"`
	RejectionReason string     `db:"rejection_reason"`
	BlockedReason   string     `db:"blocked_reason"`
	SubmissionCount int        `db:"submission_count"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}

// ModerationState holds the visibility fields a status decision forces.
type ModerationState struct {
	Status          Status
	IsActive        bool
	IsVerified      bool
	RejectionReason string
	BlockedReason   string
}

// Moderate computes the state a status decision puts a point into.
// Approval publishes and verifies it and wipes any prior reasons.
// Rejection and blocking unpublish it and record exactly one reason.
// Every other status keeps the current visibility but clears reasons,
// so stale explanations never outlive the state that produced them.
func (p *POI) Moderate(status Status, reason string) ModerationState {
	state := ModerationState{
		Status:     status,
		IsActive:   p.IsActive,
		IsVerified: p.IsVerified,
	}

	switch status {
	case StatusApproved:
		state.IsActive = true
		state.IsVerified = true
	case StatusRejected:
		state.IsActive = false
		state.IsVerified = false
		state.RejectionReason = reason
	case StatusBlocked:
		state.IsActive = false
		state.IsVerified = false
		state.BlockedReason = reason
	}

	return state
}

// Resubmittable reports whether the owner may send this point back into
// the validation queue.
func (p *POI) Resubmittable() bool {
	return p.Status == StatusDraft || p.Status == StatusRejected
}
