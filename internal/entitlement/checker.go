// AngelaMos | 2026
// checker.go

package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/atlastrail/atlas-backend/internal/identity"
)

// POICounter reports how many active points of interest an owner has.
// The poi package provides the implementation.
type POICounter interface {
	CountActiveByOwner(ctx context.Context, ownerID string) (int, error)
}

// Checker answers every "may this account do X" question in one place.
// Role checks are pure; only creation quotas need a count lookup.
type Checker struct {
	pois POICounter
}

func NewChecker(pois POICounter) *Checker {
	return &Checker{pois: pois}
}

// CanCreatePOI grants staff unconditionally. Partners must hold an
// active subscription and stay under their tier quota.
func (c *Checker) CanCreatePOI(
	ctx context.Context,
	ident *identity.Identity,
) (bool, error) {
	if ident.HasRoleOrHigher(identity.RoleEditor) {
		return true, nil
	}

	if !ident.IsPartner() {
		return false, nil
	}

	if !ident.SubscriptionActive(time.Now()) {
		return false, nil
	}

	quota := ident.MaxPOIs()
	if quota == identity.UnlimitedPOIs {
		return true, nil
	}

	count, err := c.pois.CountActiveByOwner(ctx, ident.ID)
	if err != nil {
		return false, fmt.Errorf("count pois: %w", err)
	}

	return count < quota, nil
}

// CanEditPOI: admins edit anything, approved editors edit anything,
// partners edit only their own and only while subscribed.
func CanEditPOI(ident *identity.Identity, ownerID string, now time.Time) bool {
	if ident.HasRoleOrHigher(identity.RoleAdmin) {
		return true
	}

	if ident.IsEditor() {
		return ident.ContentApproved
	}

	if ident.IsPartner() {
		return ident.ID == ownerID && ident.SubscriptionActive(now)
	}

	return false
}

// CanDeletePOI requires only ownership from partners. A lapsed partner
// can still remove their own listings.
func CanDeletePOI(ident *identity.Identity, ownerID string) bool {
	if ident.HasRoleOrHigher(identity.RoleAdmin) {
		return true
	}

	if ident.IsPartner() {
		return ident.ID == ownerID
	}

	return false
}

func CanManageUsers(ident *identity.Identity) bool {
	return ident.HasRoleOrHigher(identity.RoleAdmin)
}

func CanManagePartners(ident *identity.Identity) bool {
	return ident.HasRoleOrHigher(identity.RoleAdmin)
}

func CanModerateContent(ident *identity.Identity) bool {
	return ident.HasRoleOrHigher(identity.RoleEditor)
}

func CanManagePOIs(ident *identity.Identity) bool {
	return ident.HasRoleOrHigher(identity.RoleEditor)
}

func CanAccessAnalytics(ident *identity.Identity) bool {
	return ident.HasRoleOrHigher(identity.RolePartner)
}

func CanManageSystemSettings(ident *identity.Identity) bool {
	return ident.IsSuperAdmin()
}

// ResolveAdminPermission decides a fine-grained action. An explicit rule
// always wins, whether it grants or denies. Without one, staff flags or
// an admin or editor role grant access.
func ResolveAdminPermission(
	ident *identity.Identity,
	rule *identity.AdminPermission,
	action identity.PermAction,
) bool {
	if rule != nil {
		return rule.Allows(action)
	}

	return ident.IsStaff ||
		ident.Role == identity.RoleAdmin ||
		ident.Role == identity.RoleEditor
}

// DashboardPermissions bundles every entitlement the frontend needs to
// decide what to render for this account.
func (c *Checker) DashboardPermissions(
	ctx context.Context,
	ident *identity.Identity,
) (map[string]bool, error) {
	canCreate, err := c.CanCreatePOI(ctx, ident)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	return map[string]bool{
		"can_create_poi":             canCreate,
		"can_manage_users":           CanManageUsers(ident),
		"can_manage_partners":        CanManagePartners(ident),
		"can_moderate_content":       CanModerateContent(ident),
		"can_manage_pois":            CanManagePOIs(ident),
		"can_access_analytics":       CanAccessAnalytics(ident),
		"can_manage_system_settings": CanManageSystemSettings(ident),
		"has_active_subscription":    ident.SubscriptionActive(now),
	}, nil
}
