// AngelaMos | 2026
// service_test.go

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/identity"
)

// fakeRepo keeps identities in memory so service rules can be tested
// without a database. Only the methods the tests reach are meaningful.
type fakeRepo struct {
	identities  map[string]*identity.Identity
	profiles    map[string]*identity.Profile
	permissions map[string]*identity.AdminPermission
}

func newFakeRepo(idents ...*identity.Identity) *fakeRepo {
	repo := &fakeRepo{
		identities:  make(map[string]*identity.Identity),
		profiles:    make(map[string]*identity.Profile),
		permissions: make(map[string]*identity.AdminPermission),
	}
	for _, i := range idents {
		repo.identities[i.ID] = i
	}
	return repo
}

func (f *fakeRepo) Create(_ context.Context, i *identity.Identity) error {
	if _, exists := f.identities[i.ID]; exists {
		return core.ErrDuplicateKey
	}
	f.identities[i.ID] = i
	return nil
}

func (f *fakeRepo) GetByID(
	_ context.Context,
	id string,
) (*identity.Identity, error) {
	i, ok := f.identities[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *i
	return &copied, nil
}

func (f *fakeRepo) GetByEmail(
	_ context.Context,
	email string,
) (*identity.Identity, error) {
	for _, i := range f.identities {
		if i.Email == email {
			copied := *i
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) Update(_ context.Context, i *identity.Identity) error {
	if _, ok := f.identities[i.ID]; !ok {
		return core.ErrNotFound
	}
	f.identities[i.ID] = i
	return nil
}

func (f *fakeRepo) UpdateRole(
	_ context.Context,
	id string,
	role identity.Role,
	trialEnd time.Time,
) (*identity.Identity, error) {
	i, ok := f.identities[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	i.Role = role
	if role == identity.RoleSuperAdmin {
		i.RequiresTwoFactor = true
	}
	if role == identity.RolePartner && i.PartnerTier == "" {
		i.PartnerTier = identity.TierTrial
		i.TrialEndsAt = &trialEnd
	}
	copied := *i
	return &copied, nil
}

func (f *fakeRepo) UpdateSubscription(
	_ context.Context,
	id string,
	tier identity.PartnerTier,
	endsAt *time.Time,
) (*identity.Identity, error) {
	i, ok := f.identities[id]
	if !ok || i.Role != identity.RolePartner {
		return nil, core.ErrNotFound
	}
	i.PartnerTier = tier
	if tier == identity.TierTrial {
		i.TrialEndsAt = endsAt
	} else {
		i.SubscriptionEndsAt = endsAt
	}
	copied := *i
	return &copied, nil
}

func (f *fakeRepo) SetContentApproved(
	_ context.Context,
	id string,
	approved bool,
) error {
	i, ok := f.identities[id]
	if !ok || i.Role != identity.RoleEditor {
		return core.ErrNotFound
	}
	i.ContentApproved = approved
	return nil
}

func (f *fakeRepo) SetTwoFactorEnabled(
	_ context.Context,
	id string,
	enabled bool,
) error {
	i, ok := f.identities[id]
	if !ok {
		return core.ErrNotFound
	}
	i.TwoFactorEnabled = enabled
	return nil
}

func (f *fakeRepo) MarkEmailVerified(_ context.Context, id string) error {
	i, ok := f.identities[id]
	if !ok {
		return core.ErrNotFound
	}
	i.EmailVerified = true
	return nil
}

func (f *fakeRepo) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	i, ok := f.identities[id]
	if !ok {
		return core.ErrNotFound
	}
	i.PasswordHash = passwordHash
	return nil
}

func (f *fakeRepo) IncrementTokenVersion(_ context.Context, id string) error {
	i, ok := f.identities[id]
	if !ok {
		return core.ErrNotFound
	}
	i.TokenVersion++
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id string) error {
	i, ok := f.identities[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	i.DeactivatedAt = &now
	i.Email = "deactivated+" + id + "@invalid.local"
	return nil
}

func (f *fakeRepo) List(
	_ context.Context,
	_ identity.ListIdentitiesParams,
) ([]identity.Identity, int, error) {
	out := make([]identity.Identity, 0, len(f.identities))
	for _, i := range f.identities {
		out = append(out, *i)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	_, err := f.GetByEmail(context.Background(), email)
	return err == nil, nil
}

func (f *fakeRepo) CountByRole(
	_ context.Context,
	role identity.Role,
) (int, error) {
	count := 0
	for _, i := range f.identities {
		if i.Role == role && i.DeactivatedAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) GetProfile(
	_ context.Context,
	identityID string,
) (*identity.Profile, error) {
	p, ok := f.profiles[identityID]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) UpsertProfile(
	_ context.Context,
	p *identity.Profile,
) error {
	copied := *p
	f.profiles[p.IdentityID] = &copied
	return nil
}

func (f *fakeRepo) DeleteProfile(_ context.Context, identityID string) error {
	delete(f.profiles, identityID)
	return nil
}

func (f *fakeRepo) UpsertPermission(
	_ context.Context,
	p *identity.AdminPermission,
) error {
	copied := *p
	f.permissions[p.AdminID+"/"+string(p.PermissionType)] = &copied
	return nil
}

func (f *fakeRepo) GetPermission(
	_ context.Context,
	adminID string,
	permType identity.PermissionType,
) (*identity.AdminPermission, error) {
	p, ok := f.permissions[adminID+"/"+string(permType)]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) ListPermissions(
	_ context.Context,
	adminID string,
) ([]identity.AdminPermission, error) {
	var out []identity.AdminPermission
	for _, p := range f.permissions {
		if p.AdminID == adminID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeletePermission(
	_ context.Context,
	adminID string,
	permType identity.PermissionType,
) error {
	key := adminID + "/" + string(permType)
	if _, ok := f.permissions[key]; !ok {
		return core.ErrNotFound
	}
	delete(f.permissions, key)
	return nil
}

var _ identity.Repository = (*fakeRepo)(nil)

func ident(id string, role identity.Role) *identity.Identity {
	return &identity.Identity{
		ID:            id,
		Email:         id + "@example.com",
		PasswordHash:  "hash",
		Name:          "Account " + id,
		Role:          role,
		EmailVerified: true,
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty role defaults to user", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		svc := identity.NewService(repo)

		info, err := svc.Create(ctx, "New@Example.com", "hash", "New", "")
		require.NoError(t, err)
		require.Equal(t, "user", info.Role)
		require.Equal(t, "new@example.com", info.Email)

		stored, err := repo.GetByID(ctx, info.ID)
		require.NoError(t, err)
		require.Empty(t, stored.PartnerTier)
		require.Nil(t, stored.TrialEndsAt)
	})

	t.Run("partner registration starts a trial", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		svc := identity.NewService(repo)

		info, err := svc.Create(ctx, "p@example.com", "hash", "P", "partner")
		require.NoError(t, err)
		require.Equal(t, "partner", info.Role)
		require.Equal(t, "trial", info.Tier)

		stored, err := repo.GetByID(ctx, info.ID)
		require.NoError(t, err)
		require.Equal(t, identity.TierTrial, stored.PartnerTier)
		require.NotNil(t, stored.TrialEndsAt)
		require.WithinDuration(
			t,
			time.Now().Add(identity.TrialPeriod),
			*stored.TrialEndsAt,
			time.Minute,
		)
	})

	t.Run("staff roles are not open for registration", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		svc := identity.NewService(repo)

		for _, role := range []string{"editor", "admin", "super_admin", "bogus"} {
			_, err := svc.Create(ctx, role+"@example.com", "hash", "X", role)
			require.ErrorIs(t, err, core.ErrInvalidInput, role)
		}
	})

	t.Run("registration seeds a public profile", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		svc := identity.NewService(repo)

		info, err := svc.Create(ctx, "u@example.com", "hash", "U", "user")
		require.NoError(t, err)

		profile, err := repo.GetProfile(ctx, info.ID)
		require.NoError(t, err)
		require.Equal(t, "u@example.com", profile.Email)
		require.Equal(t, "U", profile.Name)
	})
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects unknown roles", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("a", identity.RoleUser)))

		_, err := svc.UpdateRole(ctx, "a", "owner")
		require.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("promotion to partner initializes the trial", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("a", identity.RoleUser)))

		updated, err := svc.UpdateRole(ctx, "a", "partner")
		require.NoError(t, err)
		require.Equal(t, identity.TierTrial, updated.PartnerTier)
		require.NotNil(t, updated.TrialEndsAt)
	})

	t.Run("promotion to super_admin mandates 2FA", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("a", identity.RoleAdmin)))

		updated, err := svc.UpdateRole(ctx, "a", "super_admin")
		require.NoError(t, err)
		require.True(t, updated.RequiresTwoFactor)
	})
}

func TestUpdateSubscription(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects unknown tiers", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("p", identity.RolePartner)))

		_, err := svc.UpdateSubscription(ctx, "p", identity.UpdateSubscriptionRequest{
			Tier: "platinum",
		})
		require.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("trial without an end date gets the default period", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("p", identity.RolePartner)))

		updated, err := svc.UpdateSubscription(ctx, "p", identity.UpdateSubscriptionRequest{
			Tier: "trial",
		})
		require.NoError(t, err)
		require.NotNil(t, updated.TrialEndsAt)
		require.WithinDuration(
			t,
			time.Now().Add(identity.TrialPeriod),
			*updated.TrialEndsAt,
			time.Minute,
		)
	})

	t.Run("paid tier sets the subscription end date", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("p", identity.RolePartner)))

		endsAt := time.Now().AddDate(1, 0, 0)
		updated, err := svc.UpdateSubscription(ctx, "p", identity.UpdateSubscriptionRequest{
			Tier:   "premium",
			EndsAt: &endsAt,
		})
		require.NoError(t, err)
		require.Equal(t, identity.TierPremium, updated.PartnerTier)
		require.NotNil(t, updated.SubscriptionEndsAt)
		require.True(t, updated.SubscriptionEndsAt.Equal(endsAt))
	})
}

func TestSetTwoFactorEnabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cannot disable when mandated", func(t *testing.T) {
		t.Parallel()

		acct := ident("sa", identity.RoleSuperAdmin)
		acct.RequiresTwoFactor = true
		acct.TwoFactorEnabled = true
		svc := identity.NewService(newFakeRepo(acct))

		err := svc.SetTwoFactorEnabled(ctx, "sa", false)
		require.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("optional accounts may toggle freely", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo(ident("u", identity.RoleUser))
		svc := identity.NewService(repo)

		require.NoError(t, svc.SetTwoFactorEnabled(ctx, "u", true))
		require.NoError(t, svc.SetTwoFactorEnabled(ctx, "u", false))
	})
}

func TestCanDeactivate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("self deactivation is allowed", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("u", identity.RoleUser)))
		require.NoError(t, svc.CanDeactivate(ctx, "u", "u"))
	})

	t.Run("non-admin cannot deactivate others", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(
			ident("e", identity.RoleEditor),
			ident("u", identity.RoleUser),
		))
		require.ErrorIs(t, svc.CanDeactivate(ctx, "e", "u"), core.ErrForbidden)
	})

	t.Run("admin cannot deactivate an equal or higher role", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(
			ident("a1", identity.RoleAdmin),
			ident("a2", identity.RoleAdmin),
			ident("sa", identity.RoleSuperAdmin),
		))
		require.ErrorIs(t, svc.CanDeactivate(ctx, "a1", "a2"), core.ErrForbidden)
		require.ErrorIs(t, svc.CanDeactivate(ctx, "a1", "sa"), core.ErrForbidden)
	})

	t.Run("admin can deactivate lower roles", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(
			ident("a", identity.RoleAdmin),
			ident("p", identity.RolePartner),
		))
		require.NoError(t, svc.CanDeactivate(ctx, "a", "p"))
	})

	t.Run("the last super_admin is protected", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("sa", identity.RoleSuperAdmin)))
		require.ErrorIs(t, svc.CanDeactivate(ctx, "sa", "sa"), core.ErrForbidden)
	})

	t.Run("a super_admin may go when another remains", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(
			ident("sa1", identity.RoleSuperAdmin),
			ident("sa2", identity.RoleSuperAdmin),
		))
		require.NoError(t, svc.CanDeactivate(ctx, "sa1", "sa1"))
	})
}

func TestDeactivate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo := newFakeRepo()
	svc := identity.NewService(repo)

	info, err := svc.Create(ctx, "gone@example.com", "hash", "Gone", "user")
	require.NoError(t, err)

	_, err = repo.GetProfile(ctx, info.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, info.ID))

	stored := repo.identities[info.ID]
	require.NotNil(t, stored.DeactivatedAt)
	require.NotContains(t, stored.Email, "gone@example.com")

	_, err = repo.GetProfile(ctx, info.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpsertPermission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects unknown permission types", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("a", identity.RoleAdmin)))

		_, err := svc.UpsertPermission(ctx, "a", identity.UpsertPermissionRequest{
			PermissionType: "root_access",
		})
		require.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("rejects non-staff targets", func(t *testing.T) {
		t.Parallel()

		svc := identity.NewService(newFakeRepo(ident("p", identity.RolePartner)))

		_, err := svc.UpsertPermission(ctx, "p", identity.UpsertPermissionRequest{
			PermissionType: "poi_management",
			CanRead:        true,
		})
		require.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("stores the rule for staff", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo(ident("e", identity.RoleEditor))
		svc := identity.NewService(repo)

		perm, err := svc.UpsertPermission(ctx, "e", identity.UpsertPermissionRequest{
			PermissionType: "content_moderation",
			CanRead:        true,
			CanUpdate:      true,
		})
		require.NoError(t, err)
		require.Equal(t, identity.PermissionType("content_moderation"), perm.PermissionType)

		stored, err := repo.GetPermission(ctx, "e", perm.PermissionType)
		require.NoError(t, err)
		require.True(t, stored.CanRead)
		require.True(t, stored.CanUpdate)
		require.False(t, stored.CanDelete)
	})
}

func TestLoadAccountState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	acct := ident("p", identity.RolePartner)
	acct.PartnerTier = identity.TierStandard
	acct.SubscriptionEndsAt = &future

	svc := identity.NewService(newFakeRepo(acct))

	state, err := svc.LoadAccountState(ctx, "p")
	require.NoError(t, err)
	require.Equal(t, "p", state.ID)
	require.Equal(t, "partner", state.Role)
	require.True(t, state.EmailVerified)
	require.True(t, state.SubscriptionActive)

	_, err = svc.LoadAccountState(ctx, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}
