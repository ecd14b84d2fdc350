// AngelaMos | 2026
// entity_test.go

package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/identity"
)

func TestRoleRankOrdering(t *testing.T) {
	t.Parallel()

	roles := identity.Roles()
	for i := 1; i < len(roles); i++ {
		require.Greater(t, roles[i].Rank(), roles[i-1].Rank(),
			"%s must outrank %s", roles[i], roles[i-1])
	}

	require.Equal(t, 0, identity.Role("made_up").Rank(),
		"unknown roles rank as guest")
	require.False(t, identity.Role("made_up").Valid())
}

func TestHasRoleOrHigher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		role identity.Role
		min  identity.Role
		want bool
	}{
		{"reflexive for user", identity.RoleUser, identity.RoleUser, true},
		{"reflexive for super_admin", identity.RoleSuperAdmin, identity.RoleSuperAdmin, true},
		{"admin satisfies editor", identity.RoleAdmin, identity.RoleEditor, true},
		{"super_admin satisfies everything", identity.RoleSuperAdmin, identity.RoleGuest, true},
		{"partner does not satisfy editor", identity.RolePartner, identity.RoleEditor, false},
		{"user does not satisfy partner", identity.RoleUser, identity.RolePartner, false},
		{"unknown role only satisfies guest", identity.Role("bogus"), identity.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ident := identity.Identity{Role: tt.role}
			require.Equal(t, tt.want, ident.HasRoleOrHigher(tt.min))
		})
	}
}

func TestSubscriptionActive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		ident identity.Identity
		want  bool
	}{
		{
			"trial with time remaining",
			identity.Identity{
				Role:        identity.RolePartner,
				PartnerTier: identity.TierTrial,
				TrialEndsAt: &future,
			},
			true,
		},
		{
			"trial lapsed",
			identity.Identity{
				Role:        identity.RolePartner,
				PartnerTier: identity.TierTrial,
				TrialEndsAt: &past,
			},
			false,
		},
		{
			"trial with no end date",
			identity.Identity{
				Role:        identity.RolePartner,
				PartnerTier: identity.TierTrial,
			},
			false,
		},
		{
			"standard with live subscription",
			identity.Identity{
				Role:               identity.RolePartner,
				PartnerTier:        identity.TierStandard,
				SubscriptionEndsAt: &future,
			},
			true,
		},
		{
			"standard expired",
			identity.Identity{
				Role:               identity.RolePartner,
				PartnerTier:        identity.TierStandard,
				SubscriptionEndsAt: &past,
			},
			false,
		},
		{
			"premium ignores trial date",
			identity.Identity{
				Role:               identity.RolePartner,
				PartnerTier:        identity.TierPremium,
				TrialEndsAt:        &past,
				SubscriptionEndsAt: &future,
			},
			true,
		},
		{
			"partner without tier or dates",
			identity.Identity{Role: identity.RolePartner},
			false,
		},
		{
			"non-partner never has a subscription",
			identity.Identity{
				Role:               identity.RoleEditor,
				SubscriptionEndsAt: &future,
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.ident.SubscriptionActive(now))
		})
	}
}

func TestMaxPOIs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ident identity.Identity
		want  int
	}{
		{"partner on trial", identity.Identity{Role: identity.RolePartner, PartnerTier: identity.TierTrial}, 1},
		{"partner without tier falls back to one", identity.Identity{Role: identity.RolePartner}, 1},
		{"partner on standard", identity.Identity{Role: identity.RolePartner, PartnerTier: identity.TierStandard}, 10},
		{"partner on premium", identity.Identity{Role: identity.RolePartner, PartnerTier: identity.TierPremium}, identity.UnlimitedPOIs},
		{"editor is unlimited", identity.Identity{Role: identity.RoleEditor}, identity.UnlimitedPOIs},
		{"admin is unlimited", identity.Identity{Role: identity.RoleAdmin}, identity.UnlimitedPOIs},
		{"regular user owns none", identity.Identity{Role: identity.RoleUser}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.ident.MaxPOIs())
		})
	}
}

func TestSyncProfile(t *testing.T) {
	t.Parallel()

	ident := identity.Identity{
		ID:    "id-1",
		Email: "new@example.com",
		Name:  "New Name",
	}

	t.Run("fresh profile", func(t *testing.T) {
		t.Parallel()

		p := identity.SyncProfile(&ident, nil)
		require.Equal(t, "id-1", p.IdentityID)
		require.Equal(t, "new@example.com", p.Email)
		require.Equal(t, "New Name", p.Name)
		require.True(t, p.IsPublic)
	})

	t.Run("preserves user-edited fields", func(t *testing.T) {
		t.Parallel()

		existing := identity.Profile{
			IdentityID: "id-1",
			Email:      "old@example.com",
			Name:       "Old Name",
			Bio:        "keeps bio",
			AvatarURL:  "keeps avatar",
			City:       "Lisbon",
			IsPublic:   false,
		}

		p := identity.SyncProfile(&ident, &existing)
		require.Equal(t, "new@example.com", p.Email)
		require.Equal(t, "New Name", p.Name)
		require.Equal(t, "keeps bio", p.Bio)
		require.Equal(t, "keeps avatar", p.AvatarURL)
		require.Equal(t, "Lisbon", p.City)
		require.False(t, p.IsPublic)
	})
}

func TestAdminPermissionAllows(t *testing.T) {
	t.Parallel()

	perm := identity.AdminPermission{
		CanCreate: false,
		CanRead:   true,
		CanUpdate: true,
		CanDelete: false,
	}

	require.True(t, perm.Allows(identity.ActionRead))
	require.True(t, perm.Allows(identity.ActionUpdate))
	require.False(t, perm.Allows(identity.ActionCreate))
	require.False(t, perm.Allows(identity.ActionDelete))
}
