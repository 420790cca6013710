package wallet

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

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

// Amounts travel as strings so fixed-point values survive transport.
type mutationRequest struct {
	Amount string `json:"amount" validate:"required,amount"`
	Reason string `json:"reason" validate:"max=120"`
}

type transferRequest struct {
	ToWalletID int64  `json:"to_wallet_id" validate:"required"`
	Amount     string `json:"amount" validate:"required,amount"`
	Reason     string `json:"reason" validate:"max=120"`
}

type createRequest struct {
	OwnerID int64  `json:"owner_id" validate:"required,gte=1"`
	Phone   string `json:"phone" validate:"required,min=6,max=20"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	wlt, err := h.svc.CreateForOwner(r.Context(), req.OwnerID, req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, wlt)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := walletIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"wallet_id": id, "is_active": false})
}

func (h *Handler) MyWallet(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetActorID(r.Context())
	if actorID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wlt, err := h.svc.GetByOwner(r.Context(), actorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, wlt)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := walletIDParam(w, r)
	if !ok {
		return
	}

	wlt, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, wlt)
}

func (h *Handler) Platform(w http.ResponseWriter, r *http.Request) {
	wlt, err := h.svc.PlatformWallet(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, wlt)
}

func (h *Handler) SetPlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := walletIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.SetPlatformWallet(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"wallet_id": id, "is_platform_wallet": true})
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := walletIDParam(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.svc.ListTransactions(r.Context(), id, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.WithMeta(w, txs, response.Meta{Total: len(txs), Limit: limit})
}

func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, realtime.EventWalletCredit, h.svc.Credit)
}

func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, realtime.EventWalletDebit, h.svc.Debit)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := walletIDParam(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.BadRequest(w, "invalid amount")
		return
	}

	actorID := middleware.GetActorID(r.Context())
	outTx, inTx, err := h.svc.Transfer(r.Context(), id, req.ToWalletID, amount, req.Reason, &actorID, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.feed.Publish(r.Context(), realtime.EventWalletTransfer, map[string]interface{}{
		"from_wallet_id": id,
		"to_wallet_id":   req.ToWalletID,
		"amount":         amount.StringFixed(2),
	})

	response.Created(w, map[string]interface{}{"out_tx": outTx, "in_tx": inTx})
}

func (h *Handler) handleMutation(w http.ResponseWriter, r *http.Request, event realtime.EventType, fn func(ctx context.Context, walletID int64, amount decimal.Decimal, reason string, createdBy *int64, meta Meta) (*Transaction, error)) {
	id, ok := walletIDParam(w, r)
	if !ok {
		return
	}

	var req mutationRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.BadRequest(w, "invalid amount")
		return
	}

	actorID := middleware.GetActorID(r.Context())
	rec, err := fn(r.Context(), id, amount, req.Reason, &actorID, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.feed.Publish(r.Context(), event, map[string]interface{}{
		"wallet_id": id,
		"amount":    amount.StringFixed(2),
	})

	response.Created(w, rec)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, "amount must be greater than zero")
	case errors.Is(err, ErrInsufficientFunds):
		var ife *InsufficientFundsError
		if errors.As(err, &ife) {
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_BALANCE",
				"insufficient wallet balance", map[string]string{
					"balance":   ife.Balance.StringFixed(2),
					"requested": ife.Requested.StringFixed(2),
				})
			return
		}
		response.Conflict(w, "insufficient wallet balance")
	case errors.Is(err, ErrSameWalletTransfer):
		response.BadRequest(w, "source and destination wallets must differ")
	case errors.Is(err, ErrWalletNotFound):
		response.NotFound(w, "wallet not found")
	case errors.Is(err, ErrWalletInactive):
		response.Conflict(w, "wallet is deactivated")
	case errors.Is(err, ErrNoPlatformWallet):
		response.NotFound(w, "no platform wallet defined")
	case errors.Is(err, pgerrors.ErrConcurrencyConflict):
		response.Conflict(w, "concurrent update, retry the operation")
	case errors.Is(err, pgerrors.ErrStorageUnavailable):
		response.ServiceUnavailable(w)
	default:
		response.InternalError(w)
	}
}

func walletIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid wallet id")
		return 0, false
	}
	return id, true
}

// Routes mounts the wallet API
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/my-wallet", h.MyWallet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Post("/", h.Create)
		r.Get("/platform", h.Platform)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/set-platform", h.SetPlatform)
		r.Post("/{id}/deactivate", h.Deactivate)
		r.Post("/{id}/credit", h.Credit)
		r.Post("/{id}/debit", h.Debit)
		r.Post("/{id}/transfer", h.Transfer)
	})
	r.Get("/{id}/transactions", h.Transactions)
	return r
}
