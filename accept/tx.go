package accept

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/internal/keys"
	"github.com/jacentio/hirewire/store"
)

// plan is the assembled acceptance transaction. The operation shape is
// fixed: accept the chosen bid, reject each competing pending bid,
// transition the job, create the conversation, its two memberships, and
// the system message. jobOpIndex locates the job update, whose
// precondition is the single serialization point between concurrent
// acceptance attempts.
type plan struct {
	ops            []store.WriteOp
	jobOpIndex     int
	conversationID string
	rejected       []string
}

// buildPlan constructs the transaction against the state read before it.
// Every bid operation carries a "still pending" precondition so a racing
// writer aborts the commit instead of corrupting a decided bid.
func buildPlan(job *domain.Job, bid *domain.Bid, competitors []domain.Bid, now time.Time, conversationID, messageID string) (*plan, error) {
	updatedAt := avTime(now)
	stillPending := store.Precondition{
		Equals: store.Item{"status": avString(string(domain.BidPending))},
	}

	p := &plan{conversationID: conversationID}

	// Chosen bid: Pending -> Accepted.
	p.ops = append(p.ops, store.ConditionalUpdate{
		Key: store.Key(keys.BidKey(job.ID, bid.ID)),
		Mutation: store.Mutation{Set: store.Item{
			"status":     avString(string(domain.BidAccepted)),
			"updated_at": updatedAt,
		}},
		Precondition: stillPending,
	})

	// Competing pending bids: Pending -> Rejected. The list was
	// snapshotted before the commit; a competitor decided in between
	// fails its precondition and aborts the whole set (fail closed).
	for _, other := range competitors {
		p.ops = append(p.ops, store.ConditionalUpdate{
			Key: store.Key(keys.BidKey(job.ID, other.ID)),
			Mutation: store.Mutation{Set: store.Item{
				"status":     avString(string(domain.BidRejected)),
				"updated_at": updatedAt,
			}},
			Precondition: stillPending,
		})
		p.rejected = append(p.rejected, other.ContractorID)
	}

	// Job: Open -> InProgress, assign the contractor, set the
	// idempotency marker. Only one commit can ever satisfy this
	// precondition.
	statusProj := keys.JobByStatus(string(domain.JobInProgress), job.ID)
	p.jobOpIndex = len(p.ops)
	p.ops = append(p.ops, store.ConditionalUpdate{
		Key: store.Key(keys.JobKey(job.ID)),
		Mutation: store.Mutation{Set: store.Item{
			"status":                 avString(string(domain.JobInProgress)),
			"assigned_contractor_id": avString(bid.ContractorID),
			"accepted_bid_id":        avString(bid.ID),
			"updated_at":             updatedAt,
			store.AttrStatusPK:       avString(statusProj.PK),
			store.AttrStatusSK:       avString(statusProj.SK),
		}},
		Precondition: store.Precondition{
			Equals: store.Item{"status": avString(string(domain.JobOpen))},
			Absent: []string{"accepted_bid_id"},
		},
	})

	// Conversation between the client and the assigned contractor,
	// projected under the job so retries can re-derive it.
	convItem, err := attributevalue.MarshalMap(domain.Conversation{
		ID:        conversationID,
		JobID:     job.ID,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	convProj := keys.ConversationByJob(job.ID, conversationID)
	convItem[store.AttrActorPK] = avString(convProj.PK)
	convItem[store.AttrActorSK] = avString(convProj.SK)
	p.ops = append(p.ops, store.ConditionalCreate{
		Key:  store.Key(keys.ConversationKey(conversationID)),
		Item: convItem,
	})

	// One membership per participant.
	for _, userID := range []string{job.ClientID, bid.ContractorID} {
		memberItem, err := attributevalue.MarshalMap(domain.Membership{
			ConversationID: conversationID,
			UserID:         userID,
			JoinedAt:       now,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal membership: %w", err)
		}
		memberProj := keys.ConversationByParticipant(userID, conversationID)
		memberItem[store.AttrActorPK] = avString(memberProj.PK)
		memberItem[store.AttrActorSK] = avString(memberProj.SK)
		p.ops = append(p.ops, store.ConditionalCreate{
			Key:  store.Key(keys.MembershipKey(conversationID, userID)),
			Item: memberItem,
		})
	}

	// System message marking the transition for the parties.
	msgItem, err := attributevalue.MarshalMap(domain.Message{
		ID:             messageID,
		ConversationID: conversationID,
		Kind:           domain.MessageSystem,
		Event:          domain.EventBidAccepted,
		Body:           "Bid accepted. The job is now in progress.",
		BidID:          bid.ID,
		ContractorID:   bid.ContractorID,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal system message: %w", err)
	}
	p.ops = append(p.ops, store.Put{
		Key:  store.Key(keys.MessageKey(conversationID, now, messageID)),
		Item: msgItem,
	})

	return p, nil
}

func avString(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func avTime(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339Nano)}
}
