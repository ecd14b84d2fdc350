// AngelaMos | 2026
// service.go

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlastrail/atlas-backend/internal/auth"
	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/middleware"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(ident), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	ident, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(ident), nil
}

// Create registers a new account. Self-registration is limited to the
// user and partner roles; staff roles are assigned by admins afterward.
// Partners start on the trial tier with a 30 day window.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name, role string,
) (*auth.UserInfo, error) {
	r := Role(role)
	if r == "" {
		r = RoleUser
	}
	if r != RoleUser && r != RolePartner {
		return nil, fmt.Errorf(
			"create identity: role %q not open for registration: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	ident := &Identity{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         r,
	}

	if r == RolePartner {
		trialEnd := time.Now().Add(TrialPeriod)
		ident.PartnerTier = TierTrial
		ident.TrialEndsAt = &trialEnd
	}

	if err := s.repo.Create(ctx, ident); err != nil {
		return nil, err
	}

	s.syncProfile(ctx, ident)

	return toUserInfo(ident), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetIdentity(
	ctx context.Context,
	id string,
) (*Identity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, id string) (*Identity, error) {
	if id == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateIdentity(
	ctx context.Context,
	id string,
	req UpdateIdentityRequest,
) (*Identity, error) {
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		ident.Name = *req.Name
	}

	if err := s.repo.Update(ctx, ident); err != nil {
		return nil, err
	}

	s.syncProfile(ctx, ident)

	return ident, nil
}

// UpdateRole reassigns an account's role. The repository applies the
// coupled state changes in the same statement: a first-time promotion to
// partner starts the trial, and promotion to super_admin makes 2FA
// mandatory.
func (s *Service) UpdateRole(
	ctx context.Context,
	id string,
	role string,
) (*Identity, error) {
	r := Role(role)
	if !r.Valid() {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	ident, err := s.repo.UpdateRole(ctx, id, r, time.Now().Add(TrialPeriod))
	if err != nil {
		return nil, err
	}

	return ident, nil
}

func (s *Service) UpdateSubscription(
	ctx context.Context,
	id string,
	req UpdateSubscriptionRequest,
) (*Identity, error) {
	tier := PartnerTier(req.Tier)
	if !tier.Valid() {
		return nil, fmt.Errorf(
			"update subscription: invalid tier %q: %w",
			req.Tier,
			core.ErrInvalidInput,
		)
	}

	endsAt := req.EndsAt
	if tier == TierTrial && endsAt == nil {
		end := time.Now().Add(TrialPeriod)
		endsAt = &end
	}

	return s.repo.UpdateSubscription(ctx, id, tier, endsAt)
}

func (s *Service) SetContentApproved(
	ctx context.Context,
	id string,
	approved bool,
) error {
	return s.repo.SetContentApproved(ctx, id, approved)
}

func (s *Service) SetTwoFactorEnabled(
	ctx context.Context,
	id string,
	enabled bool,
) error {
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !enabled && ident.RequiresTwoFactor {
		return fmt.Errorf(
			"two factor is mandatory for this account: %w",
			core.ErrForbidden,
		)
	}

	return s.repo.SetTwoFactorEnabled(ctx, id, enabled)
}

func (s *Service) MarkEmailVerified(ctx context.Context, id string) error {
	return s.repo.MarkEmailVerified(ctx, id)
}

func (s *Service) ListIdentities(
	ctx context.Context,
	params ListIdentitiesParams,
) ([]Identity, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, strings.ToLower(email))
}

// CanDeactivate allows self-deactivation, otherwise requires an admin,
// and never allows removing the last super_admin.
func (s *Service) CanDeactivate(
	ctx context.Context,
	requesterID, targetID string,
) error {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if requesterID != targetID {
		requester, err := s.repo.GetByID(ctx, requesterID)
		if err != nil {
			return err
		}

		if !requester.HasRoleOrHigher(RoleAdmin) {
			return fmt.Errorf("deactivate identity: %w", core.ErrForbidden)
		}

		if target.HasRoleOrHigher(requester.Role) && !requester.IsSuperAdmin() {
			return fmt.Errorf(
				"cannot deactivate an account of equal or higher role: %w",
				core.ErrForbidden,
			)
		}
	}

	if target.IsSuperAdmin() {
		count, err := s.repo.CountByRole(ctx, RoleSuperAdmin)
		if err != nil {
			return err
		}
		if count <= 1 {
			return fmt.Errorf(
				"cannot deactivate the last super_admin: %w",
				core.ErrForbidden,
			)
		}
	}

	return nil
}

// Deactivate soft-deletes the account. The email is scrubbed in the
// identity row, so the mirrored profile is removed rather than left
// holding the old address.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	return s.repo.DeleteProfile(ctx, id)
}

func (s *Service) GetProfile(
	ctx context.Context,
	identityID string,
) (*Profile, error) {
	return s.repo.GetProfile(ctx, identityID)
}

func (s *Service) UpsertPermission(
	ctx context.Context,
	adminID string,
	req UpsertPermissionRequest,
) (*AdminPermission, error) {
	permType := PermissionType(req.PermissionType)
	if !permType.Valid() {
		return nil, fmt.Errorf(
			"upsert permission: invalid type %q: %w",
			req.PermissionType,
			core.ErrInvalidInput,
		)
	}

	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	if !admin.HasRoleOrHigher(RoleEditor) {
		return nil, fmt.Errorf(
			"permission rules apply to staff accounts only: %w",
			core.ErrInvalidInput,
		)
	}

	perm := &AdminPermission{
		ID:             uuid.New().String(),
		AdminID:        adminID,
		PermissionType: permType,
		CanCreate:      req.CanCreate,
		CanRead:        req.CanRead,
		CanUpdate:      req.CanUpdate,
		CanDelete:      req.CanDelete,
	}

	if err := s.repo.UpsertPermission(ctx, perm); err != nil {
		return nil, err
	}

	return perm, nil
}

func (s *Service) GetPermission(
	ctx context.Context,
	adminID string,
	permType PermissionType,
) (*AdminPermission, error) {
	return s.repo.GetPermission(ctx, adminID, permType)
}

func (s *Service) ListPermissions(
	ctx context.Context,
	adminID string,
) ([]AdminPermission, error) {
	return s.repo.ListPermissions(ctx, adminID)
}

func (s *Service) DeletePermission(
	ctx context.Context,
	adminID string,
	permType PermissionType,
) error {
	if !permType.Valid() {
		return fmt.Errorf(
			"delete permission: invalid type %q: %w",
			permType,
			core.ErrInvalidInput,
		)
	}

	return s.repo.DeletePermission(ctx, adminID, permType)
}

// LoadAccountState exposes the verification, 2FA, and subscription state
// the request enforcement chain needs, without handing it the full
// account record.
func (s *Service) LoadAccountState(
	ctx context.Context,
	id string,
) (*middleware.AccountState, error) {
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &middleware.AccountState{
		ID:                 ident.ID,
		Role:               string(ident.Role),
		EmailVerified:      ident.EmailVerified,
		RequiresTwoFactor:  ident.RequiresTwoFactor,
		TwoFactorEnabled:   ident.TwoFactorEnabled,
		SubscriptionActive: ident.SubscriptionActive(time.Now()),
	}, nil
}

// syncProfile mirrors identity fields into the public profile. Profile
// writes are best-effort; a failed sync never fails the identity write.
func (s *Service) syncProfile(ctx context.Context, ident *Identity) {
	existing, err := s.repo.GetProfile(ctx, ident.ID)
	if err != nil {
		existing = nil
	}

	profile := SyncProfile(ident, existing)
	_ = s.repo.UpsertProfile(ctx, &profile)
}

func toUserInfo(i *Identity) *auth.UserInfo {
	return &auth.UserInfo{
		ID:            i.ID,
		Email:         i.Email,
		Name:          i.Name,
		PasswordHash:  i.PasswordHash,
		Role:          string(i.Role),
		Tier:          string(i.PartnerTier),
		TokenVersion:  i.TokenVersion,
		EmailVerified: i.EmailVerified,
	}
}

var _ auth.UserProvider = (*Service)(nil)
var _ middleware.AccountLoader = (*Service)(nil)
