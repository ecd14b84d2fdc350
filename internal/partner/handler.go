// AngelaMos | 2026
// handler.go

package partner

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
	r.Route("/partners", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/profile", h.GetMyProfile)
		r.Put("/profile", h.UpsertMyProfile)
		r.Post("/profile/rotate-key", h.RotateAPIKey)
		r.Get("/commissions", h.ListMyCommissions)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/partners", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListProfiles)
		r.Put("/{identityID}/status", h.UpdateProfileStatus)
		r.Post("/{identityID}/commissions", h.RecordCommission)
		r.Put("/commissions/{commissionID}/status", h.UpdateCommissionStatus)
	})
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	identityID := middleware.GetUserID(r.Context())

	p, err := h.service.GetProfile(r.Context(), identityID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "partner profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, true))
}

func (h *Handler) UpsertMyProfile(w http.ResponseWriter, r *http.Request) {
	identityID := middleware.GetUserID(r.Context())

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.UpsertProfile(r.Context(), identityID, req)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "partner role required")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, true))
}

func (h *Handler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	identityID := middleware.GetUserID(r.Context())

	p, err := h.service.RotateAPIKey(r.Context(), identityID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "partner profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, true))
}

func (h *Handler) ListMyCommissions(w http.ResponseWriter, r *http.Request) {
	identityID := middleware.GetUserID(r.Context())
	page := parseIntQuery(r, "page", 1)
	pageSize := parseIntQuery(r, "page_size", 20)

	commissions, total, err := h.service.ListCommissions(
		r.Context(),
		identityID,
		page,
		pageSize,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToCommissionResponseList(commissions),
		page,
		pageSize,
		total,
	)
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	page := parseIntQuery(r, "page", 1)
	pageSize := parseIntQuery(r, "page_size", 20)
	status := r.URL.Query().Get("status")

	profiles, total, err := h.service.ListProfiles(
		r.Context(),
		status,
		page,
		pageSize,
	)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid status filter")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	responses := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, ToProfileResponse(&profiles[i], false))
	}

	core.Paginated(w, responses, page, pageSize, total)
}

func (h *Handler) UpdateProfileStatus(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "identityID")

	var req UpdateProfileStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.UpdateProfileStatus(r.Context(), identityID, req.Status)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid status")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "partner profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, false))
}

func (h *Handler) RecordCommission(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "identityID")

	var req RecordCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.RecordCommission(
		r.Context(),
		identityID,
		req.BookingRef,
		req.Amount,
		req.Rate,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "partner profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToCommissionResponse(c))
}

func (h *Handler) UpdateCommissionStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	commissionID := chi.URLParam(r, "commissionID")

	var req UpdateCommissionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.service.UpdateCommissionStatus(
		r.Context(),
		commissionID,
		req.PaymentStatus,
	)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid payment status")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "commission")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToCommissionResponse(c))
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
