package accept

import "context"

// Notice is the context handed to the notification dispatcher after a
// successful acceptance.
type Notice struct {
	JobID          string `json:"job_id"`
	JobTitle       string `json:"job_title"`
	ClientID       string `json:"client_id"`
	BidID          string `json:"bid_id"`
	ConversationID string `json:"conversation_id"`
}

// Notifier delivers best-effort notifications to the affected
// contractors. Calls happen on a detached goroutine after the commit,
// outside the request's completion contract: errors are logged and
// swallowed, never surfaced to the caller and never retried as part of
// the acceptance.
type Notifier interface {
	NotifyAccepted(ctx context.Context, contractorID string, notice Notice) error
	NotifyRejectedBatch(ctx context.Context, contractorIDs []string, notice Notice) error
}
