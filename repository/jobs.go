// Package repository provides thin CRUD over the keyed store for the
// marketplace entities, one type per access pattern. The acceptance flow
// consumes the read side; the write side covers posting and bidding.
package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/internal/keys"
	"github.com/jacentio/hirewire/store"
)

// Jobs is the job repository.
type Jobs struct {
	store *store.Store
}

// NewJobs creates a job repository over the given store.
func NewJobs(s *store.Store) *Jobs {
	return &Jobs{store: s}
}

// FindByID returns the job, or store.ErrNotFound.
func (r *Jobs) FindByID(ctx context.Context, jobID string) (*domain.Job, error) {
	item, err := r.store.Get(ctx, store.Key(keys.JobKey(jobID)))
	if err != nil {
		return nil, err
	}
	var job domain.Job
	if err := attributevalue.UnmarshalMap(item, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

// Create stores a new job, failing with store.ErrConditionFailed if the
// id is already taken.
func (r *Jobs) Create(ctx context.Context, job *domain.Job) error {
	item, err := marshalJob(job)
	if err != nil {
		return err
	}
	return r.store.Create(ctx, store.Key(keys.JobKey(job.ID)), item)
}

// ListByStatus returns up to limit jobs in the given lifecycle state, in
// descending job-ref order.
func (r *Jobs) ListByStatus(ctx context.Context, status domain.JobStatus, limit int32) ([]domain.Job, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Index:     store.ByStatus,
		Partition: keys.JobByStatus(string(status), "").PK,
		Limit:     limit,
		Reverse:   true,
	})
	if err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, 0, len(items))
	for _, item := range items {
		var job domain.Job
		if err := attributevalue.UnmarshalMap(item, &job); err != nil {
			return nil, fmt.Errorf("unmarshal job list: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// marshalJob renders a job as a store item with its by-status projection.
func marshalJob(job *domain.Job) (store.Item, error) {
	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	proj := keys.JobByStatus(string(job.Status), job.ID)
	item[store.AttrStatusPK] = &types.AttributeValueMemberS{Value: proj.PK}
	item[store.AttrStatusSK] = &types.AttributeValueMemberS{Value: proj.SK}
	return item, nil
}
