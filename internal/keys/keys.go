// Package keys computes single-table DynamoDB keys for marketplace entities.
//
// Every function here is a pure formatting function: the same identifiers
// always yield the same key, and no two distinct entities of any type
// collide (identifiers are UUIDs and never contain '#', the segment
// separator). Storage layout can change behind this package without
// touching orchestration code.
package keys

import (
	"fmt"
	"time"
)

// Key is a primary key pair in the marketplace table.
type Key struct {
	PK string
	SK string
}

// Projection is a GSI key pair for a secondary access pattern.
type Projection struct {
	PK string
	SK string
}

// Sort key prefixes used for range queries within a partition.
const (
	BidPrefix          = "bid#"
	MessagePrefix      = "msg#"
	MemberPrefix       = "member#"
	ConversationPrefix = "conv#"
)

// JobRef returns the type-qualified reference for a job.
func JobRef(jobID string) string { return "job#" + jobID }

// UserRef returns the type-qualified reference for a user.
func UserRef(userID string) string { return "user#" + userID }

// ConversationRef returns the type-qualified reference for a conversation.
func ConversationRef(conversationID string) string { return ConversationPrefix + conversationID }

// JobKey returns the primary key of a job record.
func JobKey(jobID string) Key {
	return Key{PK: JobRef(jobID), SK: "job"}
}

// BidKey returns the primary key of a bid record. Bids share their job's
// partition so all bids for a job are one key-range query.
func BidKey(jobID, bidID string) Key {
	return Key{PK: JobRef(jobID), SK: BidPrefix + bidID}
}

// ConversationKey returns the primary key of a conversation record.
func ConversationKey(conversationID string) Key {
	return Key{PK: ConversationRef(conversationID), SK: "conv"}
}

// MembershipKey returns the primary key of a (conversation, participant)
// membership record.
func MembershipKey(conversationID, userID string) Key {
	return Key{PK: ConversationRef(conversationID), SK: MemberPrefix + userID}
}

// messageTimeLayout is fixed width so that lexicographic sort-key order
// matches chronological order. RFC3339Nano trims trailing zeros, which
// would sort a whole-second timestamp after a fractional one.
const messageTimeLayout = "2006-01-02T15:04:05.000000000Z"

// MessageKey returns the primary key of a message record. The sort key
// orders messages chronologically within the conversation; the message id
// breaks ties between messages written in the same nanosecond.
func MessageKey(conversationID string, at time.Time, messageID string) Key {
	return Key{
		PK: ConversationRef(conversationID),
		SK: fmt.Sprintf("%s%s#%s", MessagePrefix, at.UTC().Format(messageTimeLayout), messageID),
	}
}

// BidByContractor projects a bid onto the by-actor index so a contractor
// can list every bid they have placed.
func BidByContractor(contractorID, jobID, bidID string) Projection {
	return Projection{PK: UserRef(contractorID), SK: BidPrefix + jobID + "#" + bidID}
}

// JobByStatus projects a job onto the by-status index.
func JobByStatus(status, jobID string) Projection {
	return Projection{PK: "status#" + status, SK: JobRef(jobID)}
}

// ConversationByJob projects a conversation onto the by-actor index under
// its job, letting the acceptance flow re-derive the conversation created
// for a job without storing its id anywhere else.
func ConversationByJob(jobID, conversationID string) Projection {
	return Projection{PK: JobRef(jobID), SK: ConversationRef(conversationID)}
}

// ConversationByParticipant projects a membership onto the by-actor index
// so a user can list the conversations they belong to.
func ConversationByParticipant(userID, conversationID string) Projection {
	return Projection{PK: UserRef(userID), SK: ConversationRef(conversationID)}
}
