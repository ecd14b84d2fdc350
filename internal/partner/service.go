// AngelaMos | 2026
// service.go

package partner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/identity"
)

type IdentitySource interface {
	GetIdentity(ctx context.Context, id string) (*identity.Identity, error)
}

type Service struct {
	repo       Repository
	identities IdentitySource
}

func NewService(repo Repository, identities IdentitySource) *Service {
	return &Service{repo: repo, identities: identities}
}

func (s *Service) GetProfile(
	ctx context.Context,
	identityID string,
) (*Profile, error) {
	return s.repo.GetProfileByIdentity(ctx, identityID)
}

// UpsertProfile creates or updates the business profile for a partner
// account. New profiles start pending with a fresh API key.
func (s *Service) UpsertProfile(
	ctx context.Context,
	identityID string,
	req UpsertProfileRequest,
) (*Profile, error) {
	ident, err := s.identities.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if !ident.IsPartner() {
		return nil, fmt.Errorf(
			"partner profile requires the partner role: %w",
			core.ErrForbidden,
		)
	}

	p := &Profile{
		ID:          uuid.New().String(),
		IdentityID:  identityID,
		CompanyName: req.CompanyName,
		Website:     req.Website,
		Phone:       req.Phone,
		APIKey:      uuid.New().String(),
		Status:      ProfilePending,
	}

	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) RotateAPIKey(
	ctx context.Context,
	identityID string,
) (*Profile, error) {
	return s.repo.RotateAPIKey(ctx, identityID, uuid.New().String())
}

func (s *Service) UpdateProfileStatus(
	ctx context.Context,
	identityID string,
	status string,
) (*Profile, error) {
	st := ProfileStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf(
			"update profile status: invalid status %q: %w",
			status,
			core.ErrInvalidInput,
		)
	}

	return s.repo.UpdateProfileStatus(ctx, identityID, st)
}

func (s *Service) ListProfiles(
	ctx context.Context,
	status string,
	page, pageSize int,
) ([]Profile, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	st := ProfileStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, fmt.Errorf(
			"list profiles: invalid status %q: %w",
			status,
			core.ErrInvalidInput,
		)
	}

	return s.repo.ListProfiles(ctx, st, pageSize, (page-1)*pageSize)
}

// RecordCommission books a commission entry for a partner. The partner
// must have a profile; booking integrations and the admin console feed
// this.
func (s *Service) RecordCommission(
	ctx context.Context,
	partnerID, bookingRef string,
	amount, rate float64,
) (*Commission, error) {
	if _, err := s.repo.GetProfileByIdentity(ctx, partnerID); err != nil {
		return nil, fmt.Errorf("record commission: %w", err)
	}

	c := &Commission{
		ID:            uuid.New().String(),
		PartnerID:     partnerID,
		BookingRef:    bookingRef,
		Amount:        amount,
		Rate:          rate,
		PaymentStatus: PaymentPending,
	}

	if err := s.repo.CreateCommission(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) ListCommissions(
	ctx context.Context,
	partnerID string,
	page, pageSize int,
) ([]Commission, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return s.repo.ListCommissions(ctx, partnerID, pageSize, (page-1)*pageSize)
}

func (s *Service) UpdateCommissionStatus(
	ctx context.Context,
	id, status string,
) (*Commission, error) {
	st := PaymentStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf(
			"update commission status: invalid status %q: %w",
			status,
			core.ErrInvalidInput,
		)
	}

	return s.repo.UpdateCommissionStatus(ctx, id, st)
}
