// Package domain defines the marketplace entities the acceptance flow
// operates on.
package domain

import "time"

// JobStatus is the lifecycle state of a posted job.
type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobInProgress JobStatus = "in_progress"
	JobPaused     JobStatus = "paused"
	JobArchived   JobStatus = "archived"
)

// Job is a task posted by a client. AssignedContractorID and
// AcceptedBidID are empty until a bid is accepted; AcceptedBidID doubles
// as the idempotency marker for the acceptance flow and is written at
// most once, atomically with the status transition and the assignment.
type Job struct {
	ID                   string    `dynamodbav:"id"`
	ClientID             string    `dynamodbav:"client_id"`
	Title                string    `dynamodbav:"title"`
	Status               JobStatus `dynamodbav:"status"`
	AssignedContractorID string    `dynamodbav:"assigned_contractor_id,omitempty"`
	AcceptedBidID        string    `dynamodbav:"accepted_bid_id,omitempty"`
	Applications         int       `dynamodbav:"applications"`
	Views                int       `dynamodbav:"views"`
	CreatedAt            time.Time `dynamodbav:"created_at"`
	UpdatedAt            time.Time `dynamodbav:"updated_at"`
}
