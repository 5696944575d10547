package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/internal/keys"
	"github.com/jacentio/hirewire/store"
)

// Conversations is the conversation repository. Conversations are only
// ever created inside the acceptance commit; this type covers the read
// side.
type Conversations struct {
	store *store.Store
}

// NewConversations creates a conversation repository over the given
// store.
func NewConversations(s *store.Store) *Conversations {
	return &Conversations{store: s}
}

// FindByJob returns the conversation created for the job, or
// store.ErrNotFound if acceptance has not happened. A job has at most
// one conversation, so the first projection under the job ref is the
// answer.
func (r *Conversations) FindByJob(ctx context.Context, jobID string) (*domain.Conversation, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Index:      store.ByActor,
		Partition:  keys.JobRef(jobID),
		SortPrefix: keys.ConversationPrefix,
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	var conv domain.Conversation
	if err := attributevalue.UnmarshalMap(items[0], &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation for job %s: %w", jobID, err)
	}
	return &conv, nil
}

// Memberships returns the participants of a conversation.
func (r *Conversations) Memberships(ctx context.Context, conversationID string) ([]domain.Membership, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Partition:  keys.ConversationRef(conversationID),
		SortPrefix: keys.MemberPrefix,
	})
	if err != nil {
		return nil, err
	}
	members := make([]domain.Membership, 0, len(items))
	for _, item := range items {
		var m domain.Membership
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("unmarshal membership: %w", err)
		}
		members = append(members, m)
	}
	return members, nil
}

// Messages returns up to limit messages of a conversation in
// chronological order (0 = all).
func (r *Conversations) Messages(ctx context.Context, conversationID string, limit int32) ([]domain.Message, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Partition:  keys.ConversationRef(conversationID),
		SortPrefix: keys.MessagePrefix,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(items))
	for _, item := range items {
		var m domain.Message
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// ListByParticipant returns the membership records of every conversation
// the user belongs to.
func (r *Conversations) ListByParticipant(ctx context.Context, userID string) ([]domain.Membership, error) {
	items, err := r.store.Query(ctx, store.QueryInput{
		Index:      store.ByActor,
		Partition:  keys.UserRef(userID),
		SortPrefix: keys.ConversationPrefix,
	})
	if err != nil {
		return nil, err
	}
	members := make([]domain.Membership, 0, len(items))
	for _, item := range items {
		var m domain.Membership
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("unmarshal membership list: %w", err)
		}
		members = append(members, m)
	}
	return members, nil
}
