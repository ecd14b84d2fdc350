// AngelaMos | 2026
// handler.go

package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/identity"
	"github.com/atlastrail/atlas-backend/internal/middleware"
)

type IdentitySource interface {
	GetIdentity(ctx context.Context, id string) (*identity.Identity, error)
}

// PermissionSource looks up the explicit per-admin override row, if any.
type PermissionSource interface {
	GetPermission(ctx context.Context, adminID string, permType identity.PermissionType) (*identity.AdminPermission, error)
}

type Handler struct {
	checker    *Checker
	identities IdentitySource
	rules      PermissionSource
	validator  *validator.Validate
}

func NewHandler(checker *Checker, identities IdentitySource, rules PermissionSource) *Handler {
	return &Handler{
		checker:    checker,
		identities: identities,
		rules:      rules,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users/me/permissions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.GetDashboardPermissions)
	})
}

// RegisterAdminRoutes registers the permission resolution endpoint the
// admin console uses to check what a given admin may do.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/permission-checks", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/", h.CheckAdminPermission)
	})
}

// CheckAdminPermission resolves whether the named admin may perform an
// action in a capability area, honoring any explicit override row.
func (h *Handler) CheckAdminPermission(w http.ResponseWriter, r *http.Request) {
	var req CheckPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ident, err := h.identities.GetIdentity(r.Context(), req.AdminID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "admin")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	rule, err := h.rules.GetPermission(
		r.Context(), req.AdminID, identity.PermissionType(req.PermissionType),
	)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		core.InternalServerError(w, err)
		return
	}

	allowed := ResolveAdminPermission(ident, rule, identity.PermAction(req.Action))

	core.OK(w, CheckPermissionResponse{
		AdminID:        req.AdminID,
		PermissionType: req.PermissionType,
		Action:         req.Action,
		Allowed:        allowed,
		Explicit:       rule != nil,
	})
}

func (h *Handler) GetDashboardPermissions(
	w http.ResponseWriter,
	r *http.Request,
) {
	userID := middleware.GetUserID(r.Context())

	ident, err := h.identities.GetIdentity(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	perms, err := h.checker.DashboardPermissions(r.Context(), ident)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, perms)
}
