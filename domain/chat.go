package domain

import "time"

// Conversation is the two-party messaging channel between a job's client
// and its assigned contractor. It is created exactly once, as part of the
// acceptance transaction, and never through any other path.
type Conversation struct {
	ID        string    `dynamodbav:"id"`
	JobID     string    `dynamodbav:"job_id"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// Membership records one participant of a conversation. Its existence is
// what the "conversations by participant" access pattern fans out over.
type Membership struct {
	ConversationID string    `dynamodbav:"conversation_id"`
	UserID         string    `dynamodbav:"user_id"`
	JoinedAt       time.Time `dynamodbav:"joined_at"`
}

// MessageKind distinguishes user-authored messages from system events.
type MessageKind string

const (
	MessageText   MessageKind = "text"
	MessageSystem MessageKind = "system"
)

// EventBidAccepted marks the system message appended when a conversation
// is created by a successful acceptance.
const EventBidAccepted = "bid_accepted"

// Message is a single entry in a conversation. System messages carry an
// Event and no SenderID.
type Message struct {
	ID             string      `dynamodbav:"id"`
	ConversationID string      `dynamodbav:"conversation_id"`
	SenderID       string      `dynamodbav:"sender_id,omitempty"`
	Kind           MessageKind `dynamodbav:"kind"`
	Event          string      `dynamodbav:"event,omitempty"`
	Body           string      `dynamodbav:"body"`
	BidID          string      `dynamodbav:"bid_id,omitempty"`
	ContractorID   string      `dynamodbav:"contractor_id,omitempty"`
	CreatedAt      time.Time   `dynamodbav:"created_at"`
}
