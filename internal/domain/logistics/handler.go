package logistics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/seasky/seasky-api/internal/domain/party"
	"github.com/seasky/seasky-api/internal/domain/qr"
	"github.com/seasky/seasky-api/internal/domain/stock"
	"github.com/seasky/seasky-api/internal/middleware"
	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
	"github.com/seasky/seasky-api/internal/pkg/response"
	"github.com/seasky/seasky-api/internal/pkg/validator"
	"github.com/seasky/seasky-api/internal/realtime"
)

type Handler struct {
	svc  *Service
	feed *realtime.Hub
}

func NewHandler(svc *Service, feed *realtime.Hub) *Handler {
	return &Handler{svc: svc, feed: feed}
}

type confirmDeliveryRequest struct {
	Code           string `json:"code" validate:"required,min=16,max=100"`
	PDVID          int64  `json:"pdv_id" validate:"required,gte=1"`
	QuantityLiters string `json:"quantity_liters" validate:"required,amount"`
}

type reportSaleRequest struct {
	PDVID      int64  `json:"pdv_id" validate:"required,gte=1"`
	LitersSold string `json:"liters_sold" validate:"required,amount"`
	Notes      string `json:"notes" validate:"max=255"`
}

type recordCollectionRequest struct {
	SupplierID     int64  `json:"supplier_id" validate:"required,gte=1"`
	CourierID      int64  `json:"courier_id" validate:"required,gte=1"`
	QuantityLiters string `json:"quantity_liters" validate:"required,amount"`
	ValueAmount    string `json:"value_amount" validate:"required,amount"`
	Code           string `json:"code" validate:"omitempty,min=16,max=100"`
}

func (h *Handler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetActorID(r.Context())
	if actorID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req confirmDeliveryRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	qty, err := decimal.NewFromString(req.QuantityLiters)
	if err != nil {
		response.BadRequest(w, "invalid quantity")
		return
	}

	result, err := h.svc.ConfirmDelivery(r.Context(), req.Code, req.PDVID, qty, actorID, clientIP(r), r.UserAgent())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.feed.Publish(r.Context(), realtime.EventStockDelivery, map[string]interface{}{
		"pdv_id":         req.PDVID,
		"courier_id":     result.Courier.ID,
		"liters":         qty.StringFixed(2),
		"current_liters": result.Stock.CurrentLiters.StringFixed(2),
	})

	response.Created(w, result)
}

func (h *Handler) ReportSale(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetActorID(r.Context())
	if actorID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req reportSaleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	qty, err := decimal.NewFromString(req.LitersSold)
	if err != nil {
		response.BadRequest(w, "invalid quantity")
		return
	}

	sale, snapshot, err := h.svc.ReportSale(r.Context(), req.PDVID, qty, actorID, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.feed.Publish(r.Context(), realtime.EventStockSale, map[string]interface{}{
		"pdv_id":         req.PDVID,
		"liters":         qty.StringFixed(2),
		"current_liters": snapshot.CurrentLiters.StringFixed(2),
	})

	response.Created(w, map[string]interface{}{"sale": sale, "stock": snapshot})
}

func (h *Handler) RecordCollection(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetActorID(r.Context())
	if actorID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req recordCollectionRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	qty, err := decimal.NewFromString(req.QuantityLiters)
	if err != nil {
		response.BadRequest(w, "invalid quantity")
		return
	}
	value, err := decimal.NewFromString(req.ValueAmount)
	if err != nil {
		response.BadRequest(w, "invalid value amount")
		return
	}

	collection, err := h.svc.RecordCollection(r.Context(), req.SupplierID, req.CourierID, qty, value, actorID, req.Code, clientIP(r), r.UserAgent())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.feed.Publish(r.Context(), realtime.EventCollection, map[string]interface{}{
		"supplier_id": req.SupplierID,
		"courier_id":  req.CourierID,
		"liters":      qty.StringFixed(2),
	})

	response.Created(w, collection)
}

func (h *Handler) Deliveries(w http.ResponseWriter, r *http.Request) {
	pdvID, ok := idParam(w, r, "pdvID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.DeliveriesByPDV(r.Context(), pdvID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.WithMeta(w, out, response.Meta{Total: len(out), Limit: limit})
}

func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	pdvID, ok := idParam(w, r, "pdvID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.SalesByPDV(r.Context(), pdvID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.WithMeta(w, out, response.Meta{Total: len(out), Limit: limit})
}

func (h *Handler) Collections(w http.ResponseWriter, r *http.Request) {
	courierID, ok := idParam(w, r, "courierID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.CollectionsByCourier(r.Context(), courierID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.WithMeta(w, out, response.Meta{Total: len(out), Limit: limit})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		response.BadRequest(w, "quantity must be greater than zero")
	case errors.Is(err, ErrNotCourierToken):
		response.BadRequest(w, "token is not bound to a courier")
	case errors.Is(err, qr.ErrInvalidFormat):
		response.BadRequest(w, "invalid token format")
	case errors.Is(err, qr.ErrTokenNotFound):
		response.NotFound(w, "token not found")
	case errors.Is(err, qr.ErrTokenExpired):
		response.BadRequest(w, "token expired")
	case errors.Is(err, qr.ErrTokenAlreadyUsed):
		response.Conflict(w, "token already used")
	case errors.Is(err, stock.ErrInsufficientStock):
		var ise *stock.InsufficientStockError
		if errors.As(err, &ise) {
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_STOCK",
				"insufficient stock", map[string]string{
					"available": ise.Available.StringFixed(2),
					"requested": ise.Requested.StringFixed(2),
				})
			return
		}
		response.Conflict(w, "insufficient stock")
	case errors.Is(err, party.ErrSubjectNotFound):
		response.NotFound(w, "subject not found")
	case errors.Is(err, pgerrors.ErrConcurrencyConflict):
		response.Conflict(w, "concurrent update, retry the operation")
	case errors.Is(err, pgerrors.ErrStorageUnavailable):
		response.ServiceUnavailable(w)
	default:
		response.InternalError(w)
	}
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}

// Routes mounts the logistics workflows
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/deliveries/confirm-from-scan", h.ConfirmDelivery)
	r.Post("/sales/report", h.ReportSale)
	r.Post("/collections", h.RecordCollection)
	r.Get("/deliveries/pdv/{pdvID}", h.Deliveries)
	r.Get("/sales/pdv/{pdvID}", h.Sales)
	r.Get("/collections/courier/{courierID}", h.Collections)
	return r
}
