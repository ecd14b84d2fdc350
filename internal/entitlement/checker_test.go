// AngelaMos | 2026
// checker_test.go

package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/entitlement"
	"github.com/atlastrail/atlas-backend/internal/identity"
)

type stubCounter struct {
	count int
	err   error
}

func (s stubCounter) CountActiveByOwner(
	_ context.Context,
	_ string,
) (int, error) {
	return s.count, s.err
}

func activePartner(tier identity.PartnerTier) *identity.Identity {
	future := time.Now().Add(24 * time.Hour)
	return &identity.Identity{
		ID:                 "partner-1",
		Role:               identity.RolePartner,
		PartnerTier:        tier,
		TrialEndsAt:        &future,
		SubscriptionEndsAt: &future,
	}
}

func expiredPartner() *identity.Identity {
	past := time.Now().Add(-24 * time.Hour)
	return &identity.Identity{
		ID:          "partner-1",
		Role:        identity.RolePartner,
		PartnerTier: identity.TierTrial,
		TrialEndsAt: &past,
	}
}

func TestCanCreatePOI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ident *identity.Identity
		count int
		want  bool
	}{
		{"editor always allowed", &identity.Identity{Role: identity.RoleEditor}, 999, true},
		{"admin always allowed", &identity.Identity{Role: identity.RoleAdmin}, 999, true},
		{"super_admin always allowed", &identity.Identity{Role: identity.RoleSuperAdmin}, 999, true},
		{"regular user never allowed", &identity.Identity{Role: identity.RoleUser}, 0, false},
		{"guest never allowed", &identity.Identity{Role: identity.RoleGuest}, 0, false},
		{"expired trial partner denied", expiredPartner(), 0, false},
		{"trial partner under quota", activePartner(identity.TierTrial), 0, true},
		{"trial partner at quota", activePartner(identity.TierTrial), 1, false},
		{"standard partner under quota", activePartner(identity.TierStandard), 9, true},
		{"standard partner at quota", activePartner(identity.TierStandard), 10, false},
		{"premium partner ignores count", activePartner(identity.TierPremium), 100000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := entitlement.NewChecker(stubCounter{count: tt.count})
			got, err := checker.CanCreatePOI(context.Background(), tt.ident)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCanEditPOI(t *testing.T) {
	t.Parallel()

	now := time.Now()
	owner := "owner-1"

	tests := []struct {
		name    string
		ident   *identity.Identity
		ownerID string
		want    bool
	}{
		{"admin edits anything", &identity.Identity{Role: identity.RoleAdmin}, owner, true},
		{"super_admin edits anything", &identity.Identity{Role: identity.RoleSuperAdmin}, owner, true},
		{
			"approved editor edits anything",
			&identity.Identity{Role: identity.RoleEditor, ContentApproved: true},
			owner,
			true,
		},
		{
			"unapproved editor denied",
			&identity.Identity{Role: identity.RoleEditor},
			owner,
			false,
		},
		{"subscribed owner allowed", activePartner(identity.TierTrial), "partner-1", true},
		{"subscribed non-owner denied", activePartner(identity.TierTrial), owner, false},
		{"expired owner denied", expiredPartner(), "partner-1", false},
		{"regular user denied", &identity.Identity{Role: identity.RoleUser}, owner, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want,
				entitlement.CanEditPOI(tt.ident, tt.ownerID, now))
		})
	}
}

func TestCanDeletePOI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ident   *identity.Identity
		ownerID string
		want    bool
	}{
		{"admin deletes anything", &identity.Identity{Role: identity.RoleAdmin}, "x", true},
		{
			"expired partner still deletes own",
			expiredPartner(),
			"partner-1",
			true,
		},
		{"partner cannot delete others", activePartner(identity.TierPremium), "x", false},
		{
			"editor cannot delete",
			&identity.Identity{Role: identity.RoleEditor, ContentApproved: true},
			"x",
			false,
		},
		{"user cannot delete", &identity.Identity{Role: identity.RoleUser}, "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want,
				entitlement.CanDeletePOI(tt.ident, tt.ownerID))
		})
	}
}

func TestRoleGates(t *testing.T) {
	t.Parallel()

	partner := &identity.Identity{Role: identity.RolePartner}
	editor := &identity.Identity{Role: identity.RoleEditor}
	admin := &identity.Identity{Role: identity.RoleAdmin}
	superAdmin := &identity.Identity{Role: identity.RoleSuperAdmin}
	user := &identity.Identity{Role: identity.RoleUser}

	require.True(t, entitlement.CanManageUsers(admin))
	require.True(t, entitlement.CanManageUsers(superAdmin))
	require.False(t, entitlement.CanManageUsers(editor))

	require.True(t, entitlement.CanManagePartners(admin))
	require.False(t, entitlement.CanManagePartners(partner))

	require.True(t, entitlement.CanModerateContent(editor))
	require.False(t, entitlement.CanModerateContent(partner))

	require.True(t, entitlement.CanAccessAnalytics(partner))
	require.True(t, entitlement.CanAccessAnalytics(editor))
	require.False(t, entitlement.CanAccessAnalytics(user))

	require.True(t, entitlement.CanManageSystemSettings(superAdmin))
	require.False(t, entitlement.CanManageSystemSettings(admin))
}

func TestResolveAdminPermission(t *testing.T) {
	t.Parallel()

	editor := &identity.Identity{Role: identity.RoleEditor}
	user := &identity.Identity{Role: identity.RoleUser}
	staffUser := &identity.Identity{Role: identity.RoleUser, IsStaff: true}

	t.Run("explicit rule wins even when it denies", func(t *testing.T) {
		t.Parallel()

		rule := &identity.AdminPermission{CanRead: false, CanUpdate: true}
		require.False(t,
			entitlement.ResolveAdminPermission(editor, rule, identity.ActionRead))
		require.True(t,
			entitlement.ResolveAdminPermission(editor, rule, identity.ActionUpdate))
	})

	t.Run("fallback grants editors and admins", func(t *testing.T) {
		t.Parallel()

		require.True(t,
			entitlement.ResolveAdminPermission(editor, nil, identity.ActionRead))
		require.True(t, entitlement.ResolveAdminPermission(
			&identity.Identity{Role: identity.RoleAdmin},
			nil,
			identity.ActionDelete,
		))
	})

	t.Run("fallback grants staff flag", func(t *testing.T) {
		t.Parallel()

		require.True(t,
			entitlement.ResolveAdminPermission(staffUser, nil, identity.ActionRead))
		require.False(t,
			entitlement.ResolveAdminPermission(user, nil, identity.ActionRead))
	})
}

func TestDashboardPermissions(t *testing.T) {
	t.Parallel()

	checker := entitlement.NewChecker(stubCounter{count: 0})

	perms, err := checker.DashboardPermissions(
		context.Background(),
		activePartner(identity.TierTrial),
	)
	require.NoError(t, err)

	require.True(t, perms["can_create_poi"])
	require.True(t, perms["can_access_analytics"])
	require.True(t, perms["has_active_subscription"])
	require.False(t, perms["can_manage_users"])
	require.False(t, perms["can_moderate_content"])
	require.False(t, perms["can_manage_system_settings"])
}
