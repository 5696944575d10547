// Package handler adapts the acceptance workflow to AWS Lambda behind an
// API Gateway HTTP API. The gateway's JWT authorizer has already
// verified the caller; this layer reads the claims it attached.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/domain"
)

// Claim names attached by the JWT authorizer.
const (
	claimSubject = "sub"
	claimRole    = "role"
)

// Accepter runs one acceptance attempt to a terminal outcome.
type Accepter interface {
	Accept(ctx context.Context, req accept.Request) (*accept.Result, error)
}

// Handler processes API Gateway events for the acceptance endpoint.
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

// HandleAcceptBid is the Lambda entry for
// POST /v1/jobs/{jobID}/bids/{bidID}/accept.
func (h *Handler) HandleAcceptBid(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req := accept.Request{
		JobID:  event.PathParameters["jobID"],
		BidID:  event.PathParameters["bidID"],
		Caller: callerIdentity(event),
	}

	result, err := h.accepter.Accept(ctx, req)
	if err != nil {
		return h.errorResponse(req, err), nil
	}

	return jsonResponse(http.StatusOK, result), nil
}

// callerIdentity extracts the verified identity from the authorizer
// claims. Missing claims yield an empty identity, which the workflow
// rejects.
func callerIdentity(event events.APIGatewayV2HTTPRequest) domain.Identity {
	auth := event.RequestContext.Authorizer
	if auth == nil || auth.JWT == nil {
		return domain.Identity{}
	}
	return domain.Identity{
		UserID: auth.JWT.Claims[claimSubject],
		Role:   domain.Role(auth.JWT.Claims[claimRole]),
	}
}

func (h *Handler) errorResponse(req accept.Request, err error) events.APIGatewayV2HTTPResponse {
	var outcome *accept.Error
	if errors.As(err, &outcome) {
		return jsonResponse(outcome.HTTPStatus(), map[string]string{"error": outcome.Reason})
	}
	h.logger.Error("acceptance failed",
		"jobID", req.JobID,
		"bidID", req.BidID,
		"error", err,
	)
	return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func jsonResponse(status int, body any) events.APIGatewayV2HTTPResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"internal error"}`,
		}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}
