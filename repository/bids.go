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

// Bids is the bid repository.
type Bids struct {
	store *store.Store
}

// NewBids creates a bid repository over the given store.
func NewBids(s *store.Store) *Bids {
	return &Bids{store: s}
}

// FindByID returns the bid under the given job, or store.ErrNotFound.
func (r *Bids) FindByID(ctx context.Context, jobID, bidID string) (*domain.Bid, error) {
	item, err := r.store.Get(ctx, store.Key(keys.BidKey(jobID, bidID)))
	if err != nil {
		return nil, err
	}
	var bid domain.Bid
	if err := attributevalue.UnmarshalMap(item, &bid); err != nil {
		return nil, fmt.Errorf("unmarshal bid %s: %w", bidID, err)
	}
	return &bid, nil
}

// ListByJob returns every bid under the job, in bid-id order.
func (r *Bids) ListByJob(ctx context.Context, jobID string) ([]domain.Bid, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Partition:  keys.JobRef(jobID),
		SortPrefix: keys.BidPrefix,
	})
	if err != nil {
		return nil, err
	}
	return unmarshalBids(items)
}

// ListByContractor returns every bid the contractor has placed, across
// jobs.
func (r *Bids) ListByContractor(ctx context.Context, contractorID string) ([]domain.Bid, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Index:      store.ByActor,
		Partition:  keys.UserRef(contractorID),
		SortPrefix: keys.BidPrefix,
	})
	if err != nil {
		return nil, err
	}
	return unmarshalBids(items)
}

// Create stores a new bid and bumps the job's application counter in the
// same commit. Fails with a commit abort if the bid id is taken or the
// job does not exist.
func (r *Bids) Create(ctx context.Context, bid *domain.Bid) error {
	item, err := marshalBid(bid)
	if err != nil {
		return err
	}
	return r.store.CommitAtomic(ctx, []store.WriteOp{
		store.ConditionalCreate{
			Key:  store.Key(keys.BidKey(bid.JobID, bid.ID)),
			Item: item,
		},
		store.ConditionalUpdate{
			Key:          store.Key(keys.JobKey(bid.JobID)),
			Mutation:     store.Mutation{Add: map[string]int64{"applications": 1}},
			Precondition: store.Precondition{Exists: []string{store.AttrPK}},
		},
	})
}

// marshalBid renders a bid as a store item with its by-contractor
// projection.
func marshalBid(bid *domain.Bid) (store.Item, error) {
	item, err := attributevalue.MarshalMap(bid)
	if err != nil {
		return nil, fmt.Errorf("marshal bid %s: %w", bid.ID, err)
	}
	proj := keys.BidByContractor(bid.ContractorID, bid.JobID, bid.ID)
	item[store.AttrActorPK] = &types.AttributeValueMemberS{Value: proj.PK}
	item[store.AttrActorSK] = &types.AttributeValueMemberS{Value: proj.SK}
	return item, nil
}

func unmarshalBids(items []store.Item) ([]domain.Bid, error) {
	bids := make([]domain.Bid, 0, len(items))
	for _, item := range items {
		var bid domain.Bid
		if err := attributevalue.UnmarshalMap(item, &bid); err != nil {
			return nil, fmt.Errorf("unmarshal bid list: %w", err)
		}
		bids = append(bids, bid)
	}
	return bids, nil
}
