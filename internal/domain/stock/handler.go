package stock

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
	"github.com/seasky/seasky-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	pdvID, err := strconv.ParseInt(chi.URLParam(r, "pdvID"), 10, 64)
	if err != nil || pdvID <= 0 {
		response.BadRequest(w, "invalid pdv id")
		return
	}

	s, err := h.svc.Get(r.Context(), pdvID)
	if err != nil {
		switch {
		case errors.Is(err, pgerrors.ErrForeignKeyViolation):
			response.NotFound(w, "point of sale not found")
		case errors.Is(err, pgerrors.ErrStorageUnavailable):
			response.ServiceUnavailable(w)
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{
		"pdv_id":         s.PDVID,
		"current_liters": s.CurrentLiters.StringFixed(2),
		"last_event_at":  s.LastEventAt,
	})
}

// Routes mounts the stock API. Mutations go through the logistics
// workflows; this surface is read-only.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{pdvID}", h.Get)
	return r
}
