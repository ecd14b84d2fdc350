// AngelaMos | 2026
// entity.go

package partner

import (
	"time"
)

type ProfileStatus string

const (
	ProfilePending   ProfileStatus = "pending"
	ProfileApproved  ProfileStatus = "approved"
	ProfileSuspended ProfileStatus = "suspended"
)

func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfilePending, ProfileApproved, ProfileSuspended:
		return true
	}
	return false
}

// Profile is the business-facing record behind a partner account. The
// API key authenticates server-to-server integrations.
type Profile struct {
	ID          string        `db:"id"`
	IdentityID  string        `db:"identity_id"`
	CompanyName string        `db:"company_name"`
	Website     string        `db:"website"`
	Phone       string        `db:"phone"`
	APIKey      string        `db:"api_key"`
	Status      ProfileStatus `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

type Commission struct {
	ID            string        `db:"id"`
	PartnerID     string        `db:"partner_id"`
	BookingRef    string        `db:"booking_ref"`
	Amount        float64       `db:"amount"`
	Rate          float64       `db:"rate"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	PaidAt        *time.Time    `db:"paid_at"`
	CreatedAt     time.Time     `db:"created_at"`
}
