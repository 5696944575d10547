package domain

import "time"

// BidStatus is the decision state of a bid. Every bid starts Pending;
// exactly one bid per job may ever reach Accepted.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Bid is a contractor's proposal to perform a job.
type Bid struct {
	ID           string    `dynamodbav:"id"`
	JobID        string    `dynamodbav:"job_id"`
	ContractorID string    `dynamodbav:"contractor_id"`
	Price        int64     `dynamodbav:"price"`
	Comment      string    `dynamodbav:"comment,omitempty"`
	Status       BidStatus `dynamodbav:"status"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at"`
}
