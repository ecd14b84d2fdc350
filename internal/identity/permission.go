// AngelaMos | 2026
// permission.go

package identity

import (
	"time"
)

// PermissionType names an administrative capability area that can be
// overridden per admin.
type PermissionType string

const (
	PermUserManagement    PermissionType = "user_management"
	PermPartnerManagement PermissionType = "partner_management"
	PermPOIManagement     PermissionType = "poi_management"
	PermSystemAdmin       PermissionType = "system_administration"
	PermAnalyticsAccess   PermissionType = "analytics_access"
	PermContentModeration PermissionType = "content_moderation"
)

func (p PermissionType) Valid() bool {
	switch p {
	case PermUserManagement, PermPartnerManagement, PermPOIManagement,
		PermSystemAdmin, PermAnalyticsAccess, PermContentModeration:
		return true
	}
	return false
}

// PermAction is one of the four CRUD verbs an AdminPermission row grants
// or withholds.
type PermAction string

const (
	ActionCreate PermAction = "create"
	ActionRead   PermAction = "read"
	ActionUpdate PermAction = "update"
	ActionDelete PermAction = "delete"
)

// AdminPermission is an explicit per-admin override. At most one row per
// (admin, permission type) pair; when present it wins over role defaults.
type AdminPermission struct {
	ID             string         `db:"id"`
	AdminID        string         `db:"admin_id"`
	PermissionType PermissionType `db:"permission_type"`
	CanCreate      bool           `db:"can_create"`
	CanRead        bool           `db:"can_read"`
	CanUpdate      bool           `db:"can_update"`
	CanDelete      bool           `db:"can_delete"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Allows returns the stored flag for the given action.
func (p *AdminPermission) Allows(action PermAction) bool {
	switch action {
	case ActionCreate:
		return p.CanCreate
	case ActionRead:
		return p.CanRead
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	}
	return false
}
