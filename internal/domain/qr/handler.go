package qr

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seasky/seasky-api/internal/domain/party"
	"github.com/seasky/seasky-api/internal/middleware"
	"github.com/seasky/seasky-api/internal/pkg/pgerrors"
	"github.com/seasky/seasky-api/internal/pkg/response"
	"github.com/seasky/seasky-api/internal/pkg/validator"
	"github.com/seasky/seasky-api/internal/realtime"
)

type Handler struct {
	svc        *Service
	feed       *realtime.Hub
	defaultTTL time.Duration
}

func NewHandler(svc *Service, feed *realtime.Hub, defaultTTL time.Duration) *Handler {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Handler{svc: svc, feed: feed, defaultTTL: defaultTTL}
}

type generateRequest struct {
	SubjectType string `json:"subject_type" validate:"required,subject_type"`
	SubjectID   int64  `json:"subject_id" validate:"required,gte=1"`
	Purpose     string `json:"purpose" validate:"required,purpose"`
	TTLMinutes  int    `json:"ttl_minutes" validate:"gte=0,lte=1440"`
	OneTime     *bool  `json:"one_time"`
}

type scanRequest struct {
	Code string `json:"code" validate:"required,min=16,max=100"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	ttl := h.defaultTTL
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}
	oneTime := true
	if req.OneTime != nil {
		oneTime = *req.OneTime
	}

	t, err := h.svc.Issue(r.Context(), party.SubjectType(req.SubjectType), req.SubjectID, Purpose(req.Purpose), ttl, oneTime)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"token": t,
		"qr_data": map[string]interface{}{
			"code":        t.Code,
			"expires_at":  t.ExpiresAt,
			"ttl_seconds": t.TTLSeconds(time.Now()),
		},
	})
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetActorID(r.Context())
	if actorID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req scanRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	t, scan, subject, err := h.svc.Redeem(r.Context(), req.Code, actorID, clientIP(r), r.UserAgent())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.feed.Publish(r.Context(), realtime.EventTokenRedeemed, map[string]interface{}{
		"code":         t.Code,
		"subject_type": t.SubjectType,
		"subject_id":   t.SubjectID,
		"purpose":      t.Purpose,
	})

	response.OK(w, map[string]interface{}{
		"token":   t,
		"scan":    scan,
		"subject": subject,
	})
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.svc.Active(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	now := time.Now()
	out := make([]map[string]interface{}, 0, len(tokens))
	for i := range tokens {
		t := &tokens[i]
		out = append(out, map[string]interface{}{
			"token":       t,
			"ttl_seconds": t.TTLSeconds(now),
		})
	}
	response.WithMeta(w, out, response.Meta{Total: len(out)})
}

func (h *Handler) MyScans(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetActorID(r.Context())
	if actorID == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scans, err := h.svc.ScansByActor(r.Context(), actorID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.WithMeta(w, scans, response.Meta{Total: len(scans), Limit: limit})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		response.BadRequest(w, "invalid token format")
	case errors.Is(err, ErrInvalidPurpose):
		response.BadRequest(w, "invalid token purpose")
	case errors.Is(err, ErrInvalidTTL):
		response.BadRequest(w, "ttl must be greater than zero")
	case errors.Is(err, ErrTokenNotFound):
		response.NotFound(w, "token not found")
	case errors.Is(err, ErrTokenExpired):
		response.BadRequest(w, "token expired")
	case errors.Is(err, ErrTokenAlreadyUsed):
		response.Conflict(w, "token already used")
	case errors.Is(err, party.ErrSubjectNotFound):
		response.NotFound(w, "subject not found")
	case errors.Is(err, party.ErrInvalidSubjectType):
		response.BadRequest(w, "invalid subject type")
	case errors.Is(err, pgerrors.ErrConcurrencyConflict):
		response.Conflict(w, "concurrent update, retry the operation")
	case errors.Is(err, pgerrors.ErrStorageUnavailable):
		response.ServiceUnavailable(w)
	default:
		response.InternalError(w)
	}
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

// Routes mounts the QR token API
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/generate", h.Generate)
	r.Post("/scan", h.Scan)
	r.Get("/my-scans", h.MyScans)
	r.With(middleware.RequireAdmin()).Get("/active", h.Active)
	return r
}
