// AngelaMos | 2026
// handler_test.go

package entitlement_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/entitlement"
	"github.com/atlastrail/atlas-backend/internal/identity"
)

type stubIdentities map[string]*identity.Identity

func (s stubIdentities) GetIdentity(
	_ context.Context,
	id string,
) (*identity.Identity, error) {
	ident, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("get identity: %w", core.ErrNotFound)
	}
	return ident, nil
}

type stubRules map[string]*identity.AdminPermission

func (s stubRules) GetPermission(
	_ context.Context,
	adminID string,
	permType identity.PermissionType,
) (*identity.AdminPermission, error) {
	rule, ok := s[adminID+"/"+string(permType)]
	if !ok {
		return nil, fmt.Errorf("get admin permission: %w", core.ErrNotFound)
	}
	return rule, nil
}

func checkPermission(
	t *testing.T,
	h *entitlement.Handler,
	body entitlement.CheckPermissionRequest,
) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(
		http.MethodPost, "/admin/permission-checks", bytes.NewReader(payload),
	)
	rec := httptest.NewRecorder()
	h.CheckAdminPermission(rec, req)
	return rec
}

func decodeCheck(
	t *testing.T,
	rec *httptest.ResponseRecorder,
) entitlement.CheckPermissionResponse {
	t.Helper()

	var resp entitlement.CheckPermissionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCheckAdminPermission(t *testing.T) {
	t.Parallel()

	const (
		adminID  = "7b8e1c56-0c1f-4f7a-9a64-3f2d6a1e9b01"
		editorID = "9d4f2a10-5b6c-4e8d-8f01-2c3b4a5d6e7f"
	)

	idents := stubIdentities{
		adminID:  {ID: adminID, Role: identity.RoleAdmin},
		editorID: {ID: editorID, Role: identity.RoleEditor},
	}

	t.Run("explicit deny wins over admin role", func(t *testing.T) {
		t.Parallel()

		rules := stubRules{
			adminID + "/user_management": {
				AdminID:        adminID,
				PermissionType: identity.PermUserManagement,
				CanCreate:      true,
				CanRead:        true,
			},
		}
		h := entitlement.NewHandler(nil, idents, rules)

		rec := checkPermission(t, h, entitlement.CheckPermissionRequest{
			AdminID:        adminID,
			PermissionType: "user_management",
			Action:         "delete",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeCheck(t, rec)
		require.False(t, resp.Allowed)
		require.True(t, resp.Explicit)
	})

	t.Run("explicit grant is honored", func(t *testing.T) {
		t.Parallel()

		rules := stubRules{
			adminID + "/user_management": {
				AdminID:        adminID,
				PermissionType: identity.PermUserManagement,
				CanRead:        true,
			},
		}
		h := entitlement.NewHandler(nil, idents, rules)

		rec := checkPermission(t, h, entitlement.CheckPermissionRequest{
			AdminID:        adminID,
			PermissionType: "user_management",
			Action:         "read",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeCheck(t, rec)
		require.True(t, resp.Allowed)
		require.True(t, resp.Explicit)
	})

	t.Run("no rule falls back to role defaults", func(t *testing.T) {
		t.Parallel()

		h := entitlement.NewHandler(nil, idents, stubRules{})

		rec := checkPermission(t, h, entitlement.CheckPermissionRequest{
			AdminID:        editorID,
			PermissionType: "content_moderation",
			Action:         "update",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeCheck(t, rec)
		require.True(t, resp.Allowed)
		require.False(t, resp.Explicit)
	})

	t.Run("unknown admin is a 404", func(t *testing.T) {
		t.Parallel()

		h := entitlement.NewHandler(nil, idents, stubRules{})

		rec := checkPermission(t, h, entitlement.CheckPermissionRequest{
			AdminID:        "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d",
			PermissionType: "user_management",
			Action:         "read",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown permission type is rejected", func(t *testing.T) {
		t.Parallel()

		h := entitlement.NewHandler(nil, idents, stubRules{})

		rec := checkPermission(t, h, entitlement.CheckPermissionRequest{
			AdminID:        adminID,
			PermissionType: "galaxy_management",
			Action:         "read",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
