// AngelaMos | 2026
// dto.go

package identity

import (
	"time"
)

type UpdateIdentityRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=guest user partner editor admin super_admin"`
}

type UpdateSubscriptionRequest struct {
	Tier   string     `json:"tier"    validate:"required,oneof=trial standard premium"`
	EndsAt *time.Time `json:"ends_at" validate:"omitempty"`
}

type UpsertPermissionRequest struct {
	PermissionType string `json:"permission_type" validate:"required,oneof=user_management partner_management poi_management system_administration analytics_access content_moderation"`
	CanCreate      bool   `json:"can_create"`
	CanRead        bool   `json:"can_read"`
	CanUpdate      bool   `json:"can_update"`
	CanDelete      bool   `json:"can_delete"`
}

type IdentityResponse struct {
	ID                 string      `json:"id"`
	Email              string      `json:"email"`
	Name               string      `json:"name"`
	Role               Role        `json:"role"`
	PartnerTier        PartnerTier `json:"partner_tier,omitempty"`
	TrialEndsAt        *time.Time  `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time  `json:"subscription_ends_at,omitempty"`
	ContentApproved    bool        `json:"content_approved"`
	EmailVerified      bool        `json:"email_verified"`
	RequiresTwoFactor  bool        `json:"requires_2fa"`
	TwoFactorEnabled   bool        `json:"two_factor_enabled"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type PermissionResponse struct {
	ID             string         `json:"id"`
	AdminID        string         `json:"admin_id"`
	PermissionType PermissionType `json:"permission_type"`
	CanCreate      bool           `json:"can_create"`
	CanRead        bool           `json:"can_read"`
	CanUpdate      bool           `json:"can_update"`
	CanDelete      bool           `json:"can_delete"`
}

type ListIdentitiesParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Tier     string `json:"tier"`
}

func (p *ListIdentitiesParams) Normalize() {
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

func (p *ListIdentitiesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToIdentityResponse(i *Identity) IdentityResponse {
	return IdentityResponse{
		ID:                 i.ID,
		Email:              i.Email,
		Name:               i.Name,
		Role:               i.Role,
		PartnerTier:        i.PartnerTier,
		TrialEndsAt:        i.TrialEndsAt,
		SubscriptionEndsAt: i.SubscriptionEndsAt,
		ContentApproved:    i.ContentApproved,
		EmailVerified:      i.EmailVerified,
		RequiresTwoFactor:  i.RequiresTwoFactor,
		TwoFactorEnabled:   i.TwoFactorEnabled,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func ToIdentityResponseList(ids []Identity) []IdentityResponse {
	responses := make([]IdentityResponse, 0, len(ids))
	for _, i := range ids {
		responses = append(responses, ToIdentityResponse(&i))
	}
	return responses
}

func ToPermissionResponse(p *AdminPermission) PermissionResponse {
	return PermissionResponse{
		ID:             p.ID,
		AdminID:        p.AdminID,
		PermissionType: p.PermissionType,
		CanCreate:      p.CanCreate,
		CanRead:        p.CanRead,
		CanUpdate:      p.CanUpdate,
		CanDelete:      p.CanDelete,
	}
}
