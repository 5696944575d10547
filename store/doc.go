// Package store provides the keyed data access layer for the marketplace:
// get/put/update/delete/query over a single DynamoDB table, plus an
// all-or-nothing multi-item commit used by the acceptance flow.
//
// # Write operations
//
// Writes are expressed as a closed set of operation kinds ([Put],
// [ConditionalCreate], [ConditionalUpdate], and [Delete]), each carrying
// its key, payload, and optional [Precondition] as typed fields. A
// precondition that does not hold at commit time aborts the operation
// (and, inside [Store.CommitAtomic], the whole set) with a
// [CommitAbortedError] reporting which items failed.
//
// # Retry policy
//
// Every call is retried up to three attempts with exponential backoff and
// random jitter. Precondition, validation, and not-found failures are
// never retried: retrying cannot change their outcome, and callers must
// see them as business conflicts rather than infrastructure faults.
// Exhausting retries surfaces the last underlying error.
//
// # Errors
//
//   - [ErrNotFound] - no item at the requested key
//   - [ErrConditionFailed] - a single-item precondition did not hold
//   - [CommitAbortedError] - a multi-item commit aborted
package store
