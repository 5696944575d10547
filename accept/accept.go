// Package accept implements the application-acceptance workflow: the
// moment a client accepts one contractor's bid on a job. The whole
// decision (accept the chosen bid, reject every competitor, transition
// the job, materialize the conversation) commits as one atomic unit,
// and concurrent or repeated requests resolve through the store's
// conditional writes rather than any in-process coordination.
package accept

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/store"
)

// resultMessage is the success payload message. Idempotent retries must
// return the byte-identical response, so it is a fixed string.
const resultMessage = "bid accepted"

// JobReader loads jobs for the workflow.
type JobReader interface {
	FindByID(ctx context.Context, jobID string) (*domain.Job, error)
}

// BidReader loads bids for the workflow.
type BidReader interface {
	FindByID(ctx context.Context, jobID, bidID string) (*domain.Bid, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.Bid, error)
}

// ConversationReader re-derives the conversation created for a job, used
// by the idempotent short-circuit.
type ConversationReader interface {
	FindByJob(ctx context.Context, jobID string) (*domain.Conversation, error)
}

// Committer applies the acceptance transaction atomically.
type Committer interface {
	CommitAtomic(ctx context.Context, ops []store.WriteOp) error
}

// Request is one acceptance attempt.
type Request struct {
	JobID  string
	BidID  string
	Caller domain.Identity
}

// Result is the success payload. Retrying a request that already
// succeeded returns an identical Result.
type Result struct {
	JobID          string           `json:"jobId"`
	ConversationID string           `json:"conversationId"`
	JobStatus      domain.JobStatus `json:"jobStatus"`
	AcceptedBidID  string           `json:"acceptedBidId"`
	Message        string           `json:"message"`
}

// Orchestrator drives the acceptance workflow. Construct one at process
// start and share it; it is stateless apart from its collaborators.
type Orchestrator struct {
	jobs          JobReader
	bids          BidReader
	conversations ConversationReader
	committer     Committer
	notifier      Notifier
	logger        *slog.Logger
}

// New creates an Orchestrator. notifier may be nil, in which case no
// notifications are dispatched.
func New(jobs JobReader, bids BidReader, conversations ConversationReader, committer Committer, notifier Notifier, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		jobs:          jobs,
		bids:          bids,
		conversations: conversations,
		committer:     committer,
		notifier:      notifier,
		logger:        logger,
	}
}

// Accept runs the workflow to a terminal outcome. Non-success outcomes
// are returned as *Error with a kind and human-readable reason;
// infrastructure failures (store retries exhausted) propagate as-is and
// are safe to retry whole, because the workflow is idempotent.
func (o *Orchestrator) Accept(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	job, bid, err := o.load(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Caller.Role != domain.RoleClient || req.Caller.UserID != job.ClientID {
		return nil, forbiddenError("only the job's owning client may accept a bid")
	}

	// Idempotency marker first: a retry of an already-successful request
	// must short-circuit to the original response, and a different
	// accepted bid is a conflict, before any state-shape complaint.
	if job.AcceptedBidID != "" {
		if job.AcceptedBidID == req.BidID {
			return o.replaySuccess(ctx, job)
		}
		return nil, conflictError("a different bid was already accepted for this job")
	}

	if job.Status != domain.JobOpen {
		return nil, invalidStateError("job not open for acceptance")
	}
	if bid.Status != domain.BidPending {
		return nil, invalidStateError("bid already decided")
	}

	// Snapshot competing pending bids once, before the commit. A
	// competitor decided after this read aborts the commit via its own
	// precondition, and the caller retries the whole acceptance.
	all, err := o.bids.ListByJob(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("list bids for job %s: %w", req.JobID, err)
	}
	var competitors []domain.Bid
	for _, other := range all {
		if other.ID != bid.ID && other.Status == domain.BidPending {
			competitors = append(competitors, other)
		}
	}

	now := time.Now().UTC()
	p, err := buildPlan(job, bid, competitors, now, uuid.NewString(), uuid.NewString())
	if err != nil {
		return nil, err
	}

	if err := o.committer.CommitAtomic(ctx, p.ops); err != nil {
		return nil, o.interpretAbort(err, p, req)
	}

	o.logger.Info("bid accepted",
		"jobID", job.ID,
		"bidID", bid.ID,
		"contractorID", bid.ContractorID,
		"conversationID", p.conversationID,
		"rejectedBids", len(competitors),
	)

	o.dispatch(ctx, job, bid, p)

	return &Result{
		JobID:          job.ID,
		ConversationID: p.conversationID,
		JobStatus:      domain.JobInProgress,
		AcceptedBidID:  bid.ID,
		Message:        resultMessage,
	}, nil
}

// validate rejects missing or malformed identifiers before any store
// access.
func validate(req Request) error {
	if err := uuid.Validate(req.JobID); err != nil {
		return validationError("invalid job id")
	}
	if err := uuid.Validate(req.BidID); err != nil {
		return validationError("invalid bid id")
	}
	if req.Caller.UserID == "" {
		return validationError("missing caller identity")
	}
	return nil
}

// load fetches the job and bid concurrently.
func (o *Orchestrator) load(ctx context.Context, req Request) (*domain.Job, *domain.Bid, error) {
	var (
		wg     sync.WaitGroup
		job    *domain.Job
		bid    *domain.Bid
		jobErr error
		bidErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		job, jobErr = o.jobs.FindByID(ctx, req.JobID)
	}()
	go func() {
		defer wg.Done()
		bid, bidErr = o.bids.FindByID(ctx, req.JobID, req.BidID)
	}()
	wg.Wait()

	if errors.Is(jobErr, store.ErrNotFound) {
		return nil, nil, notFoundError("job not found")
	}
	if jobErr != nil {
		return nil, nil, fmt.Errorf("load job %s: %w", req.JobID, jobErr)
	}
	if errors.Is(bidErr, store.ErrNotFound) {
		return nil, nil, notFoundError("bid not found")
	}
	if bidErr != nil {
		return nil, nil, fmt.Errorf("load bid %s: %w", req.BidID, bidErr)
	}
	return job, bid, nil
}

// replaySuccess reconstructs the response of the acceptance that already
// happened, without re-executing any write.
func (o *Orchestrator) replaySuccess(ctx context.Context, job *domain.Job) (*Result, error) {
	conv, err := o.conversations.FindByJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("re-derive conversation for job %s: %w", job.ID, err)
	}
	return &Result{
		JobID:          job.ID,
		ConversationID: conv.ID,
		JobStatus:      domain.JobInProgress,
		AcceptedBidID:  job.AcceptedBidID,
		Message:        resultMessage,
	}, nil
}

// interpretAbort turns a commit abort into the caller-facing outcome.
// The job precondition failing means another acceptance won the race; any
// other precondition failure on a fresh read should not occur, but is
// still surfaced as a conflict rather than assumed away.
func (o *Orchestrator) interpretAbort(err error, p *plan, req Request) error {
	var aborted *store.CommitAbortedError
	if !errors.As(err, &aborted) {
		return fmt.Errorf("commit acceptance for job %s: %w", req.JobID, err)
	}
	o.logger.Warn("acceptance commit aborted",
		"jobID", req.JobID,
		"bidID", req.BidID,
		"failures", len(aborted.Reasons),
	)
	if aborted.PreconditionFailed(p.jobOpIndex) {
		return conflictError("job state changed concurrently; refresh and retry")
	}
	return conflictError("a competing update changed this job's bids; refresh and retry")
}

// dispatch hands the notification intent to a detached goroutine. It is
// not part of the request's completion contract: the caller may observe
// the response before, after, or without any notification landing.
func (o *Orchestrator) dispatch(ctx context.Context, job *domain.Job, bid *domain.Bid, p *plan) {
	if o.notifier == nil {
		return
	}
	notice := Notice{
		JobID:          job.ID,
		JobTitle:       job.Title,
		ClientID:       job.ClientID,
		BidID:          bid.ID,
		ConversationID: p.conversationID,
	}
	rejected := append([]string(nil), p.rejected...)
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := o.notifier.NotifyAccepted(detached, bid.ContractorID, notice); err != nil {
			o.logger.Warn("accepted notification failed",
				"jobID", notice.JobID,
				"contractorID", bid.ContractorID,
				"error", err,
			)
		}
		if len(rejected) == 0 {
			return
		}
		if err := o.notifier.NotifyRejectedBatch(detached, rejected, notice); err != nil {
			o.logger.Warn("rejected notifications failed",
				"jobID", notice.JobID,
				"contractors", len(rejected),
				"error", err,
			)
		}
	}()
}
