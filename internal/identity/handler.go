// AngelaMos | 2026
// handler.go

package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeactivateMe)
		r.Get("/me/profile", h.GetMyProfile)
	})
}

// RegisterAdminRoutes registers the user, role, and permission
// management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListIdentities)
		r.Get("/{userID}", h.GetIdentity)
		r.Put("/{userID}", h.UpdateIdentity)
		r.Put("/{userID}/role", h.UpdateRole)
		r.Put("/{userID}/subscription", h.UpdateSubscription)
		r.Put("/{userID}/content-approval", h.SetContentApproved)
		r.Delete("/{userID}", h.DeactivateIdentity)

		r.Get("/{userID}/permissions", h.ListPermissions)
		r.Put("/{userID}/permissions", h.UpsertPermission)
		r.Delete("/{userID}/permissions/{permType}", h.DeletePermission)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ident, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToIdentityResponse(ident))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ident, err := h.service.UpdateIdentity(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToIdentityResponse(ident))
}

func (h *Handler) DeactivateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.CanDeactivate(r.Context(), userID, userID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "account cannot be deactivated")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, profile)
}

// ListIdentities returns a paginated account list with optional role,
// tier, and search filters.
func (h *Handler) ListIdentities(w http.ResponseWriter, r *http.Request) {
	params := ListIdentitiesParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Tier:     r.URL.Query().Get("tier"),
	}

	identities, total, err := h.service.ListIdentities(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToIdentityResponseList(identities),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ident, err := h.service.GetIdentity(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToIdentityResponse(ident))
}

func (h *Handler) UpdateIdentity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ident, err := h.service.UpdateIdentity(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToIdentityResponse(ident))
}

// UpdateRole reassigns a user's role. Trial initialization and the 2FA
// mandate for super_admin happen server-side as part of the change.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ident, err := h.service.UpdateRole(r.Context(), userID, req.Role)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid role")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToIdentityResponse(ident))
}

func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ident, err := h.service.UpdateSubscription(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid tier")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "partner")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToIdentityResponse(ident))
}

type contentApprovalRequest struct {
	Approved bool `json:"approved"`
}

// SetContentApproved grants or revokes an editor's standing approval to
// edit published content.
func (h *Handler) SetContentApproved(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req contentApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	err := h.service.SetContentApproved(r.Context(), userID, req.Approved)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "editor")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeactivateIdentity(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userID")

	if err := h.service.CanDeactivate(r.Context(), requesterID, targetID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "insufficient permissions")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), targetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	adminID := chi.URLParam(r, "userID")

	perms, err := h.service.ListPermissions(r.Context(), adminID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]PermissionResponse, 0, len(perms))
	for i := range perms {
		responses = append(responses, ToPermissionResponse(&perms[i]))
	}

	core.OK(w, responses)
}

func (h *Handler) UpsertPermission(w http.ResponseWriter, r *http.Request) {
	adminID := chi.URLParam(r, "userID")

	var req UpsertPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	perm, err := h.service.UpsertPermission(r.Context(), adminID, req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid permission rule")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPermissionResponse(perm))
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	adminID := chi.URLParam(r, "userID")
	permType := PermissionType(chi.URLParam(r, "permType"))

	err := h.service.DeletePermission(r.Context(), adminID, permType)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid permission type")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "permission rule")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
