// AngelaMos | 2026
// handler.go

package poi

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

// RegisterRoutes registers the public catalog endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/pois", func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/", h.ListPublic)
		r.Get("/{poiID}", h.Get)
	})
}

// RegisterPartnerRoutes registers the owner-facing management endpoints.
func (h *Handler) RegisterPartnerRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/partners/pois", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListMine)
		r.Post("/", h.Create)
		r.Put("/{poiID}", h.Update)
		r.Delete("/{poiID}", h.Delete)
		r.Post("/{poiID}/submit", h.Submit)
	})
}

// RegisterContentRoutes registers the moderation endpoints.
func (h *Handler) RegisterContentRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/content/pois", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)

		r.Get("/", h.ListAll)
		r.Get("/review-queue", h.ReviewQueue)
		r.Put("/{poiID}/status", h.Moderate)
	})
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	pois, total, err := h.service.ListPublic(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToPOIResponseList(pois), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poiID")
	requesterID := middleware.GetUserID(r.Context())

	p, err := h.service.Get(r.Context(), poiID, requesterID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "point of interest")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPOIResponse(p))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req CreatePOIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Create(r.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "creation quota reached or subscription inactive")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToPOIResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poiID")
	requesterID := middleware.GetUserID(r.Context())

	var req UpdatePOIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Update(r.Context(), poiID, requesterID, req)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "you cannot edit this point of interest")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "point of interest")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPOIResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poiID")
	requesterID := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), poiID, requesterID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "you cannot delete this point of interest")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "point of interest")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	params := listParams(r)

	pois, total, err := h.service.ListMine(r.Context(), ownerID, params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToPOIResponseList(pois), params.Page, params.PageSize, total)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poiID")
	requesterID := middleware.GetUserID(r.Context())

	p, err := h.service.Submit(r.Context(), poiID, requesterID)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "only the owner can submit")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "only draft or rejected points can be submitted")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "point of interest")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPOIResponse(p))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	params := listParams(r)

	pois, total, err := h.service.ListAll(r.Context(), requesterID, params)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "insufficient permissions")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToPOIResponseList(pois), params.Page, params.PageSize, total)
}

func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	params := listParams(r)

	pois, total, err := h.service.ReviewQueue(r.Context(), requesterID, params)
	if err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "insufficient permissions")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid queue status")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToPOIResponseList(pois), params.Page, params.PageSize, total)
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	poiID := chi.URLParam(r, "poiID")
	moderatorID := middleware.GetUserID(r.Context())

	var req ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Moderate(r.Context(), poiID, moderatorID, req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid status")
			return
		}
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "insufficient permissions")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "point of interest")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPOIResponse(p))
}

func listParams(r *http.Request) ListPOIParams {
	return ListPOIParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		City:     r.URL.Query().Get("city"),
		Status:   r.URL.Query().Get("status"),
	}
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
