package party

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seasky/seasky-api/internal/middleware"
	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
	"github.com/seasky/seasky-api/internal/pkg/response"
	"github.com/seasky/seasky-api/internal/pkg/validator"
)

type Handler struct {
	repo     *Repository
	resolver *Resolver
}

func NewHandler(repo *Repository, resolver *Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

type createPDVRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Code        string `json:"code" validate:"omitempty,min=4,max=32"`
	Province    string `json:"province" validate:"max=80"`
	Commune     string `json:"commune" validate:"max=80"`
	Address     string `json:"address" validate:"max=255"`
	AgentUserID *int64 `json:"agent_user_id" validate:"omitempty,gte=1"`
}

func (h *Handler) CreatePDV(w http.ResponseWriter, r *http.Request) {
	var req createPDVRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p := &PointOfSale{
		Code:        req.Code,
		Name:        req.Name,
		Province:    req.Province,
		Commune:     req.Commune,
		Address:     req.Address,
		AgentUserID: req.AgentUserID,
	}
	if err := h.repo.CreatePointOfSale(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

func (h *Handler) GetPDV(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return
	}

	p, err := h.repo.GetPointOfSale(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// ResolveSubject answers "who is behind this (type, id) pair" for any
// party kind a token can be bound to.
func (h *Handler) ResolveSubject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return
	}

	subject, err := h.resolver.Resolve(r.Context(), SubjectType(chi.URLParam(r, "type")), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, subject)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSubjectNotFound):
		response.NotFound(w, "subject not found")
	case errors.Is(err, ErrInvalidSubjectType):
		response.BadRequest(w, "invalid subject type")
	case errors.Is(err, pgerrors.ErrUniqueViolation):
		response.Conflict(w, "code already in use")
	case errors.Is(err, pgerrors.ErrStorageUnavailable):
		response.ServiceUnavailable(w)
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/subjects/{type}/{id}", h.ResolveSubject)
	r.Get("/points-of-sale/{id}", h.GetPDV)
	r.With(middleware.RequireAdmin()).Post("/points-of-sale", h.CreatePDV)
	return r
}
