// AngelaMos | 2026
// entity.go

package identity

import (
	"time"
)

// Role is the platform-wide account level. The numeric rank backs every
// "this role or higher" comparison; unknown values rank as guest.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleUser       Role = "user"
	RolePartner    Role = "partner"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleGuest:      0,
	RoleUser:       1,
	RolePartner:    2,
	RoleEditor:     3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

func (r Role) Rank() int {
	return roleRanks[r]
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

func Roles() []Role {
	return []Role{
		RoleGuest,
		RoleUser,
		RolePartner,
		RoleEditor,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// PartnerTier is the partner subscription level. Empty means the partner
// has not been assigned a tier yet.
type PartnerTier string

const (
	TierTrial    PartnerTier = "trial"
	TierStandard PartnerTier = "standard"
	TierPremium  PartnerTier = "premium"
)

// UnlimitedPOIs is the quota sentinel for accounts without a POI ceiling.
const UnlimitedPOIs = -1

// TrialPeriod is the free trial window granted on promotion to partner.
const TrialPeriod = 30 * 24 * time.Hour

func (t PartnerTier) Valid() bool {
	switch t {
	case TierTrial, TierStandard, TierPremium:
		return true
	}
	return false
}

// Quota returns the POI ceiling for the tier. A partner without a tier
// gets the trial quota of one.
func (t PartnerTier) Quota() int {
	switch t {
	case TierStandard:
		return 10
	case TierPremium:
		return UnlimitedPOIs
	default:
		return 1
	}
}

type Identity struct {
	ID                 string      `db:"id"`
	Email              string      `db:"email"`
	PasswordHash       string      `db:"password_hash"`
	Name               string      `db:"name"`
	Role               Role        `db:"role"`
	PartnerTier        PartnerTier `db:"partner_tier"`
	TrialEndsAt        *time.Time  `db:"trial_ends_at"`
	SubscriptionEndsAt *time.Time  `db:"subscription_ends_at"`
	ContentApproved    bool        `db:"content_approved"`
	EmailVerified      bool        `db:"email_verified"`
	RequiresTwoFactor  bool        `db:"requires_2fa"`
	TwoFactorEnabled   bool        `db:"two_factor_enabled"`
	IsStaff            bool        `db:"is_staff"`
	TokenVersion       int         `db:"token_version"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	DeactivatedAt      *time.Time  `db:"deactivated_at"`
}

func (i *Identity) IsPartner() bool {
	return i.Role == RolePartner
}

func (i *Identity) IsEditor() bool {
	return i.Role == RoleEditor
}

func (i *Identity) IsSuperAdmin() bool {
	return i.Role == RoleSuperAdmin
}

func (i *Identity) IsDeactivated() bool {
	return i.DeactivatedAt != nil
}

// HasRoleOrHigher reports whether the identity sits at or above the given
// role in the guest < user < partner < editor < admin < super_admin order.
func (i *Identity) HasRoleOrHigher(min Role) bool {
	return i.Role.Rank() >= min.Rank()
}

// SubscriptionActive reports whether a partner subscription is live at the
// given instant. Expiry is never swept by a background job; it is derived
// from the stored timestamps on every check.
func (i *Identity) SubscriptionActive(now time.Time) bool {
	if !i.IsPartner() {
		return false
	}
	if i.PartnerTier == TierTrial {
		return i.TrialEndsAt != nil && i.TrialEndsAt.After(now)
	}
	return i.SubscriptionEndsAt != nil && i.SubscriptionEndsAt.After(now)
}

// MaxPOIs returns how many tourist points the identity may own.
// UnlimitedPOIs means no ceiling.
func (i *Identity) MaxPOIs() int {
	switch i.Role {
	case RolePartner:
		return i.PartnerTier.Quota()
	case RoleEditor, RoleAdmin, RoleSuperAdmin:
		return UnlimitedPOIs
	default:
		return 0
	}
}
