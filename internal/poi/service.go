// AngelaMos | 2026
// service.go

package poi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/entitlement"
	"github.com/atlastrail/atlas-backend/internal/identity"
)

type IdentitySource interface {
	GetIdentity(ctx context.Context, id string) (*identity.Identity, error)
}

type Service struct {
	repo       Repository
	identities IdentitySource
	checker    *entitlement.Checker
}

func NewService(
	repo Repository,
	identities IdentitySource,
	checker *entitlement.Checker,
) *Service {
	return &Service{
		repo:       repo,
		identities: identities,
		checker:    checker,
	}
}

// Create adds a new point in draft. The caller must either be staff or
// a partner with an active subscription and quota headroom.
func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreatePOIRequest,
) (*POI, error) {
	ident, err := s.identities.GetIdentity(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.checker.CanCreatePOI(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("create poi: %w", core.ErrForbidden)
	}

	p := &POI{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		Status:      StatusDraft,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Get returns a point. Unpublished points are visible only to their
// owner and to moderators.
func (s *Service) Get(
	ctx context.Context,
	id, requesterID string,
) (*POI, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status == StatusApproved && p.IsActive {
		return p, nil
	}

	if requesterID == "" {
		return nil, fmt.Errorf("get poi: %w", core.ErrNotFound)
	}

	if requesterID == p.OwnerID {
		return p, nil
	}

	ident, err := s.identities.GetIdentity(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if !entitlement.CanManagePOIs(ident) {
		return nil, fmt.Errorf("get poi: %w", core.ErrNotFound)
	}

	return p, nil
}

func (s *Service) Update(
	ctx context.Context,
	id, requesterID string,
	req UpdatePOIRequest,
) (*POI, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ident, err := s.identities.GetIdentity(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if !entitlement.CanEditPOI(ident, p.OwnerID, time.Now()) {
		return nil, fmt.Errorf("update poi: %w", core.ErrForbidden)
	}

	applyUpdate(p, req)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ident, err := s.identities.GetIdentity(ctx, requesterID)
	if err != nil {
		return err
	}

	if !entitlement.CanDeletePOI(ident, p.OwnerID) {
		return fmt.Errorf("delete poi: %w", core.ErrForbidden)
	}

	return s.repo.SoftDelete(ctx, id)
}

// ListPublic returns only approved, active points.
func (s *Service) ListPublic(
	ctx context.Context,
	params ListPOIParams,
) ([]POI, int, error) {
	params.Status = ""
	params.OwnerID = ""
	return s.repo.List(ctx, params, true)
}

func (s *Service) ListMine(
	ctx context.Context,
	ownerID string,
	params ListPOIParams,
) ([]POI, int, error) {
	params.OwnerID = ownerID
	return s.repo.List(ctx, params, false)
}

func (s *Service) ListAll(
	ctx context.Context,
	requesterID string,
	params ListPOIParams,
) ([]POI, int, error) {
	ident, err := s.identities.GetIdentity(ctx, requesterID)
	if err != nil {
		return nil, 0, err
	}

	if !entitlement.CanManagePOIs(ident) {
		return nil, 0, fmt.Errorf("list pois: %w", core.ErrForbidden)
	}

	return s.repo.List(ctx, params, false)
}

// ReviewQueue lists points awaiting a moderation decision.
func (s *Service) ReviewQueue(
	ctx context.Context,
	requesterID string,
	params ListPOIParams,
) ([]POI, int, error) {
	ident, err := s.identities.GetIdentity(ctx, requesterID)
	if err != nil {
		return nil, 0, err
	}

	if !entitlement.CanModerateContent(ident) {
		return nil, 0, fmt.Errorf("review queue: %w", core.ErrForbidden)
	}

	if params.Status == "" {
		params.Status = string(StatusPendingValidation)
	}

	switch Status(params.Status) {
	case StatusPendingValidation, StatusUnderReview:
	default:
		return nil, 0, fmt.Errorf(
			"review queue: status %q not reviewable: %w",
			params.Status,
			core.ErrInvalidInput,
		)
	}

	return s.repo.List(ctx, params, false)
}

// Submit sends an owner's draft or rejected point into the validation
// queue.
func (s *Service) Submit(
	ctx context.Context,
	id, requesterID string,
) (*POI, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.OwnerID != requesterID {
		return nil, fmt.Errorf("submit poi: %w", core.ErrForbidden)
	}

	if !p.Resubmittable() {
		return nil, fmt.Errorf(
			"submit poi: status %q cannot be submitted: %w",
			p.Status,
			core.ErrInvalidInput,
		)
	}

	return s.repo.Resubmit(ctx, id)
}

// Moderate applies a status decision. The target status is validated
// before anything is written; the forced visibility changes land in the
// same statement as the status itself.
func (s *Service) Moderate(
	ctx context.Context,
	id, moderatorID string,
	req ModerateRequest,
) (*POI, error) {
	status := Status(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf(
			"moderate poi: invalid status %q: %w",
			req.Status,
			core.ErrInvalidInput,
		)
	}

	ident, err := s.identities.GetIdentity(ctx, moderatorID)
	if err != nil {
		return nil, err
	}

	if !ident.HasRoleOrHigher(identity.RoleAdmin) {
		return nil, fmt.Errorf("moderate poi: %w", core.ErrForbidden)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.repo.SetModerationState(ctx, id, p.Moderate(status, req.Reason))
}

func (s *Service) CountActiveByOwner(
	ctx context.Context,
	ownerID string,
) (int, error) {
	return s.repo.CountActiveByOwner(ctx, ownerID)
}

func applyUpdate(p *POI, req UpdatePOIRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Latitude != nil {
		p.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		p.Longitude = *req.Longitude
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.Country != nil {
		p.Country = *req.Country
	}
}
