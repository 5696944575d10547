package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Retry bounds. Transient failures are retried with exponential backoff
// plus random jitter; after maxAttempts the last error surfaces to the
// caller unchanged.
const (
	maxAttempts = 3
	baseDelay   = 50 * time.Millisecond
)

// withRetry runs fn up to maxAttempts times. Precondition, validation,
// and not-found failures are returned immediately: retrying cannot change
// their outcome and would only mask a legitimate conflict as a transient
// blip.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !isRetryable(err) || attempt == maxAttempts {
			return err
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// backoff returns baseDelay * 2^(attempt-1) plus up to baseDelay of
// jitter.
func backoff(attempt int) time.Duration {
	d := baseDelay * (1 << (attempt - 1))
	return d + time.Duration(rand.Int63n(int64(baseDelay)))
}

// isRetryable classifies an error from the backend. Condition failures
// and request-shape problems are terminal; throughput and server-side
// failures, and anything transport-level, are worth another attempt.
func isRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return false
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == cancelConditionFailed {
				return false
			}
		}
		// Cancelled without a condition failure: conflict or throttling,
		// a fresh attempt can succeed.
		return true
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException", "AccessDeniedException", "SerializationException":
			return false
		case "ProvisionedThroughputExceededException", "ThrottlingException",
			"RequestLimitExceeded", "LimitExceededException",
			"InternalServerError", "ServiceUnavailable",
			"TransactionConflictException":
			return true
		}
		return apiErr.ErrorFault() == smithy.FaultServer
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Unrecognized errors are assumed transport-level.
	return true
}
