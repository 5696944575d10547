package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/httpapi"
)

// fakeAccepter scripts the workflow outcome and records the request it
// received.
type fakeAccepter struct {
	req    accept.Request
	result *accept.Result
	err    error
}

func (f *fakeAccepter) Accept(_ context.Context, req accept.Request) (*accept.Result, error) {
	f.req = req
	return f.result, f.err
}

func doAccept(t *testing.T, accepter *fakeAccepter) *httptest.ResponseRecorder {
	t.Helper()
	h := httpapi.NewHandler(accepter, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/j1/bids/b1/accept", nil)
	req.Header.Set(httpapi.HeaderUserID, "c1")
	req.Header.Set(httpapi.HeaderRole, "client")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestAcceptBid_Success(t *testing.T) {
	accepter := &fakeAccepter{result: &accept.Result{
		JobID:          "j1",
		ConversationID: "conv1",
		JobStatus:      domain.JobInProgress,
		AcceptedBidID:  "b1",
		Message:        "bid accepted",
	}}
	rec := doAccept(t, accepter)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["jobId"] != "j1" || body["conversationId"] != "conv1" || body["acceptedBidId"] != "b1" {
		t.Errorf("unexpected body %v", body)
	}
	if body["jobStatus"] != "in_progress" {
		t.Errorf("expected in_progress, got %q", body["jobStatus"])
	}

	if accepter.req.JobID != "j1" || accepter.req.BidID != "b1" {
		t.Errorf("unexpected request %+v", accepter.req)
	}
	if accepter.req.Caller.UserID != "c1" || accepter.req.Caller.Role != domain.RoleClient {
		t.Errorf("unexpected caller %+v", accepter.req.Caller)
	}
}

func TestAcceptBid_OutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &accept.Error{Kind: accept.KindValidation, Reason: "jobId must be a UUID"}, http.StatusBadRequest},
		{"not found", &accept.Error{Kind: accept.KindNotFound, Reason: "job not found"}, http.StatusNotFound},
		{"forbidden", &accept.Error{Kind: accept.KindForbidden, Reason: "not the job owner"}, http.StatusForbidden},
		{"invalid state", &accept.Error{Kind: accept.KindInvalidState, Reason: "job not open for acceptance"}, http.StatusConflict},
		{"conflict", &accept.Error{Kind: accept.KindConflict, Reason: "job state changed concurrently"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAccept(t, &fakeAccepter{err: tt.err})
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected an error reason in the body")
			}
		})
	}
}

func TestAcceptBid_InternalError(t *testing.T) {
	rec := doAccept(t, &fakeAccepter{err: errors.New("store unavailable")})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// Internal details never leak to the client.
	if body["error"] != "internal error" {
		t.Errorf("expected opaque error, got %q", body["error"])
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	h := httpapi.NewHandler(&fakeAccepter{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/j1/bids/b1/accept", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
