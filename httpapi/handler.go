// Package httpapi exposes the acceptance workflow over HTTP. Identity
// verification happens at the gateway; this layer trusts the identity
// headers it forwards.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/domain"
)

// Identity headers set by the gateway after token verification.
const (
	HeaderUserID = "X-User-Id"
	HeaderRole   = "X-User-Role"
)

// Accepter runs one acceptance attempt to a terminal outcome.
type Accepter interface {
	Accept(ctx context.Context, req accept.Request) (*accept.Result, error)
}

// Handler serves the acceptance endpoint.
type Handler struct {
	accepter Accepter
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(accepter Accepter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{accepter: accepter, logger: logger}
}

// Routes returns the router for the acceptance surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/v1/jobs/{jobID}/bids/{bidID}/accept", h.acceptBid)
	return r
}

func (h *Handler) acceptBid(w http.ResponseWriter, r *http.Request) {
	req := accept.Request{
		JobID: chi.URLParam(r, "jobID"),
		BidID: chi.URLParam(r, "bidID"),
		Caller: domain.Identity{
			UserID: r.Header.Get(HeaderUserID),
			Role:   domain.Role(r.Header.Get(HeaderRole)),
		},
	}

	result, err := h.accepter.Accept(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var outcome *accept.Error
	if errors.As(err, &outcome) {
		writeJSON(w, outcome.HTTPStatus(), map[string]string{"error": outcome.Reason})
		return
	}
	h.logger.Error("acceptance failed",
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
