// AngelaMos | 2026
// dto.go

package entitlement

type CheckPermissionRequest struct {
	AdminID        string `json:"admin_id" validate:"required,uuid"`
	PermissionType string `json:"permission_type" validate:"required,oneof=user_management partner_management poi_management system_administration analytics_access content_moderation"`
	Action         string `json:"action" validate:"required,oneof=create read update delete"`
}

type CheckPermissionResponse struct {
	AdminID        string `json:"admin_id"`
	PermissionType string `json:"permission_type"`
	Action         string `json:"action"`
	Allowed        bool   `json:"allowed"`
	Explicit       bool   `json:"explicit"`
}
