// AngelaMos | 2026
// dto.go

package partner

import (
	"time"
)

type UpsertProfileRequest struct {
	CompanyName string `json:"company_name" validate:"required,min=1,max=200"`
	Website     string `json:"website"      validate:"omitempty,url,max=300"`
	Phone       string `json:"phone"        validate:"omitempty,max=40"`
}

type UpdateProfileStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved suspended"`
}

type UpdateCommissionStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending processing paid failed"`
}

type RecordCommissionRequest struct {
	BookingRef string  `json:"booking_ref" validate:"required,min=1,max=100"`
	Amount     float64 `json:"amount"      validate:"required,gt=0"`
	Rate       float64 `json:"rate"        validate:"required,gt=0,lte=1"`
}

type ProfileResponse struct {
	ID          string        `json:"id"`
	IdentityID  string        `json:"identity_id"`
	CompanyName string        `json:"company_name"`
	Website     string        `json:"website"`
	Phone       string        `json:"phone"`
	APIKey      string        `json:"api_key,omitempty"`
	Status      ProfileStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type CommissionResponse struct {
	ID            string        `json:"id"`
	PartnerID     string        `json:"partner_id"`
	BookingRef    string        `json:"booking_ref"`
	Amount        float64       `json:"amount"`
	Rate          float64       `json:"rate"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ToProfileResponse renders a profile. The API key is included only for
// the owner; admin listings pass includeKey false.
func ToProfileResponse(p *Profile, includeKey bool) ProfileResponse {
	resp := ProfileResponse{
		ID:          p.ID,
		IdentityID:  p.IdentityID,
		CompanyName: p.CompanyName,
		Website:     p.Website,
		Phone:       p.Phone,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if includeKey {
		resp.APIKey = p.APIKey
	}
	return resp
}

func ToCommissionResponse(c *Commission) CommissionResponse {
	return CommissionResponse{
		ID:            c.ID,
		PartnerID:     c.PartnerID,
		BookingRef:    c.BookingRef,
		Amount:        c.Amount,
		Rate:          c.Rate,
		PaymentStatus: c.PaymentStatus,
		PaidAt:        c.PaidAt,
		CreatedAt:     c.CreatedAt,
	}
}

func ToCommissionResponseList(cs []Commission) []CommissionResponse {
	responses := make([]CommissionResponse, 0, len(cs))
	for i := range cs {
		responses = append(responses, ToCommissionResponse(&cs[i]))
	}
	return responses
}
