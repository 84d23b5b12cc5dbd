package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bondbook/internal/bond/models"
	id "bondbook/pkg/domain"
	dErrors "bondbook/pkg/domain-errors"
	"bondbook/pkg/platform/httputil"
	"bondbook/pkg/requestcontext"
)

// Service defines the bond operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, owner id.OwnerID, c *models.Candidate) (*models.Bond, error)
	List(ctx context.Context, owner id.OwnerID, filter models.Filter) ([]*models.Bond, error)
	Delete(ctx context.Context, owner id.OwnerID, isin string) error
}

// Handler wires bond endpoints to the bond service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts bond endpoints on the router. The router must already
// authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Post("/bonds", h.HandleCreate)
	r.Get("/bonds", h.HandleList)
	r.Delete("/bonds/{isin}", h.HandleDelete)
}

func (h *Handler) owner(ctx context.Context, w http.ResponseWriter) (id.OwnerID, bool) {
	owner := requestcontext.OwnerID(ctx)
	if owner.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.OwnerID{}, false
	}
	return owner, true
}

// HandleCreate handles POST /bonds.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateBondRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bond, err := h.service.Create(ctx, owner, req.ToCandidate())
	if err != nil {
		h.logFailure(ctx, "bond creation failed", requestID, owner, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bond created",
		"request_id", requestID,
		"owner_id", owner.String(),
		"isin", bond.ISIN,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, createdResponse{})
}

// HandleList handles GET /bonds with optional equality filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bonds, err := h.service.List(ctx, owner, filter)
	if err != nil {
		h.logFailure(ctx, "bond listing failed", requestID, owner, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBondResponses(bonds))
}

// HandleDelete handles DELETE /bonds/{isin}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	owner, ok := h.owner(ctx, w)
	if !ok {
		return
	}

	isin := chi.URLParam(r, "isin")
	if err := h.service.Delete(ctx, owner, isin); err != nil {
		h.logFailure(ctx, "bond deletion failed", requestID, owner, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bond deleted",
		"request_id", requestID,
		"owner_id", owner.String(),
		"isin", isin,
	)
	w.WriteHeader(http.StatusNoContent)
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg, requestID string, owner id.OwnerID, err error) {
	level := slog.LevelError
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestID,
		"owner_id", owner.String(),
		"error", err,
	)
}
