package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/handler"
)

type fakeAccepter struct {
	req    accept.Request
	result *accept.Result
	err    error
}

func (f *fakeAccepter) Accept(_ context.Context, req accept.Request) (*accept.Result, error) {
	f.req = req
	return f.result, f.err
}

func acceptEvent() events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		PathParameters: map[string]string{"jobID": "j1", "bidID": "b1"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"sub": "c1", "role": "client"},
				},
			},
		},
	}
}

func TestHandleAcceptBid_Success(t *testing.T) {
	accepter := &fakeAccepter{result: &accept.Result{
		JobID:          "j1",
		ConversationID: "conv1",
		JobStatus:      domain.JobInProgress,
		AcceptedBidID:  "b1",
		Message:        "bid accepted",
	}}
	h := handler.NewHandler(accepter, nil)

	resp, err := h.HandleAcceptBid(context.Background(), acceptEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected application/json, got %q", resp.Headers["Content-Type"])
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["jobId"] != "j1" || body["acceptedBidId"] != "b1" {
		t.Errorf("unexpected body %v", body)
	}

	if accepter.req.Caller.UserID != "c1" || accepter.req.Caller.Role != domain.RoleClient {
		t.Errorf("unexpected caller %+v", accepter.req.Caller)
	}
}

func TestHandleAcceptBid_OutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &accept.Error{Kind: accept.KindValidation, Reason: "bad id"}, http.StatusBadRequest},
		{"not found", &accept.Error{Kind: accept.KindNotFound, Reason: "job not found"}, http.StatusNotFound},
		{"forbidden", &accept.Error{Kind: accept.KindForbidden, Reason: "not the owner"}, http.StatusForbidden},
		{"conflict", &accept.Error{Kind: accept.KindConflict, Reason: "lost the race"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHandler(&fakeAccepter{err: tt.err}, nil)
			resp, err := h.HandleAcceptBid(context.Background(), acceptEvent())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestHandleAcceptBid_InternalError(t *testing.T) {
	h := handler.NewHandler(&fakeAccepter{err: errors.New("store down")}, nil)
	resp, err := h.HandleAcceptBid(context.Background(), acceptEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("expected opaque error, got %q", body["error"])
	}
}

func TestHandleAcceptBid_MissingAuthorizer(t *testing.T) {
	accepter := &fakeAccepter{err: &accept.Error{Kind: accept.KindValidation, Reason: "caller identity required"}}
	h := handler.NewHandler(accepter, nil)

	event := acceptEvent()
	event.RequestContext.Authorizer = nil
	resp, err := h.HandleAcceptBid(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if accepter.req.Caller != (domain.Identity{}) {
		t.Errorf("expected empty identity, got %+v", accepter.req.Caller)
	}
}
