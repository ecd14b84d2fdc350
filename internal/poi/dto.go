// AngelaMos | 2026
// dto.go

package poi

import (
	"time"
)

type CreatePOIRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Category    string  `json:"category"    validate:"required,min=1,max=100"`
	Latitude    float64 `json:"latitude"    validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude"   validate:"min=-180,max=180"`
	Address     string  `json:"address"     validate:"max=300"`
	City        string  `json:"city"        validate:"max=100"`
	Country     string  `json:"country"     validate:"max=100"`
}

type UpdatePOIRequest struct {
	Name        *string  `json:"name,omitempty"        validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string  `json:"category,omitempty"    validate:"omitempty,min=1,max=100"`
	Latitude    *float64 `json:"latitude,omitempty"    validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty"   validate:"omitempty,min=-180,max=180"`
	Address     *string  `json:"address,omitempty"     validate:"omitempty,max=300"`
	City        *string  `json:"city,omitempty"        validate:"omitempty,max=100"`
	Country     *string  `json:"country,omitempty"     validate:"omitempty,max=100"`
}

type ModerateRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending_validation under_review approved rejected blocked"`
	Reason string `json:"reason" validate:"max=1000,required_if=Status rejected,required_if=Status blocked"`
}

type POIResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Address         string    `json:"address"`
	City            string    `json:"city"`
	Country         string    `json:"country"`
	Status          Status    `json:"status"`
	IsActive        bool      `json:"is_active"`
	IsVerified      bool      `json:"is_verified"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	BlockedReason   string    `json:"blocked_reason,omitempty"`
	SubmissionCount int       `json:"submission_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListPOIParams struct {
	Page     int
	PageSize int
	Search   string
	Category string
	City     string
	Status   string
	OwnerID  string
}

func (p *ListPOIParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListPOIParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToPOIResponse(p *POI) POIResponse {
	return POIResponse{
		ID:              p.ID,
		OwnerID:         p.OwnerID,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		Address:         p.Address,
		City:            p.City,
		Country:         p.Country,
		Status:          p.Status,
		IsActive:        p.IsActive,
		IsVerified:      p.IsVerified,
		RejectionReason: p.RejectionReason,
		BlockedReason:   p.BlockedReason,
		SubmissionCount: p.SubmissionCount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToPOIResponseList(pois []POI) []POIResponse {
	responses := make([]POIResponse, 0, len(pois))
	for i := range pois {
		responses = append(responses, ToPOIResponse(&pois[i]))
	}
	return responses
}
