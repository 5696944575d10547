package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cancelConditionFailed is the backend's cancellation code for a failed
// condition inside a multi-item commit.
const cancelConditionFailed = "ConditionalCheckFailed"

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store provides keyed operations over the marketplace table. Construct
// one at process start and pass it by reference; it is safe for
// concurrent use and holds no mutable state of its own.
type Store struct {
	client DynamoAPI
	config Config
}

// New creates a new Store instance.
func New(client DynamoAPI, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Get retrieves the item at key, returning ErrNotFound if absent. The
// read is strongly consistent: the acceptance flow's decisions hinge on
// the freshest visible state.
func (s *Store) Get(ctx context.Context, key Key) (Item, error) {
	var out Item
	err := withRetry(ctx, func(ctx context.Context) error {
		result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(s.config.TableName),
			Key:            keyAttrs(key),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		if result.Item == nil {
			return ErrNotFound
		}
		out = result.Item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put writes an item unconditionally.
func (s *Store) Put(ctx context.Context, key Key, item Item) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.config.TableName),
			Item:      withKey(key, item),
		})
		return err
	})
}

// Create writes an item only if nothing exists at the key, returning
// ErrConditionFailed otherwise.
func (s *Store) Create(ctx context.Context, key Key, item Item) error {
	pre := Precondition{Absent: []string{AttrPK}}
	expr, names, _ := pre.compile()
	err := withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.config.TableName),
			Item:                     withKey(key, item),
			ConditionExpression:      aws.String(expr),
			ExpressionAttributeNames: names,
		})
		return err
	})
	return mapConditionError(err)
}

// Update applies a mutation to the item at key. A non-empty precondition
// that does not hold yields ErrConditionFailed, never a retry.
func (s *Store) Update(ctx context.Context, key Key, mut Mutation, pre Precondition) error {
	updateExpr, names, values := mut.compile()
	input := &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.config.TableName),
		Key:                      keyAttrs(key),
		UpdateExpression:         aws.String(updateExpr),
		ExpressionAttributeNames: names,
	}
	if condExpr, condNames, condValues := pre.compile(); condExpr != "" {
		input.ConditionExpression = aws.String(condExpr)
		mergeNames(names, condNames)
		mergeValues(values, condValues)
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}

	err := withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.UpdateItem(ctx, input)
		return err
	})
	return mapConditionError(err)
}

// Delete removes the item at key. With a precondition, a mismatch yields
// ErrConditionFailed.
func (s *Store) Delete(ctx context.Context, key Key, pre Precondition) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       keyAttrs(key),
	}
	if expr, names, values := pre.compile(); expr != "" {
		input.ConditionExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
	}

	err := withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.DeleteItem(ctx, input)
		return err
	})
	return mapConditionError(err)
}

// Index selects the key space a query runs against.
type Index int

const (
	// Primary queries the table's own key.
	Primary Index = iota

	// ByActor queries the user/job-reference GSI.
	ByActor

	// ByStatus queries the status GSI.
	ByStatus
)

// QueryInput defines a key-range query.
type QueryInput struct {
	// Index selects the table key or one of the GSIs.
	Index Index

	// Partition is the partition key value.
	Partition string

	// SortPrefix optionally narrows the range to sort keys with this
	// prefix.
	SortPrefix string

	// Filter optionally requires attribute equality, evaluated
	// server-side after the key range is read. Filtered-out items still
	// count against Limit, so a returned page may hold fewer matches
	// than requested; callers must not treat the result count as the
	// post-filter total.
	Filter Item

	// Limit caps the number of range items examined (0 = no limit).
	Limit int32

	// Reverse returns items in descending sort-key order.
	Reverse bool
}

// Query runs a key-range query and returns the matching items in sort
// order.
func (s *Store) Query(ctx context.Context, input QueryInput) ([]Item, error) {
	pkAttr, skAttr, indexName := s.indexKeys(input.Index)

	names := map[string]string{"#pk": pkAttr}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: input.Partition},
	}
	keyCond := "#pk = :pk"
	if input.SortPrefix != "" {
		names["#sk"] = skAttr
		values[":skprefix"] = &types.AttributeValueMemberS{Value: input.SortPrefix}
		keyCond += " AND begins_with(#sk, :skprefix)"
	}

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if indexName != "" {
		queryInput.IndexName = aws.String(indexName)
	}
	if len(input.Filter) > 0 {
		var clauses []string
		i := 0
		for _, attr := range sortedKeys(input.Filter) {
			nameKey := fmt.Sprintf("#f%d", i)
			valueKey := fmt.Sprintf(":f%d", i)
			names[nameKey] = attr
			values[valueKey] = input.Filter[attr]
			clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
			i++
		}
		queryInput.FilterExpression = aws.String(joinClauses(clauses, " AND "))
	}
	if input.Limit > 0 {
		queryInput.Limit = aws.Int32(input.Limit)
	}
	if input.Reverse {
		queryInput.ScanIndexForward = aws.Bool(false)
	}

	var items []Item
	err := withRetry(ctx, func(ctx context.Context) error {
		items = items[:0]
		paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, raw := range page.Items {
				items = append(items, raw)
			}
			if input.Limit > 0 {
				// A bounded query is a single page by contract.
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CommitAtomic applies all operations or none of them. If any
// operation's precondition fails, the whole set aborts and the returned
// *CommitAbortedError reports which items failed, by position in ops.
// Aborts are never retried; cancellations without a condition failure
// (conflicting concurrent transactions, throttling) are.
func (s *Store) CommitAtomic(ctx context.Context, ops []WriteOp) error {
	items := make([]types.TransactWriteItem, len(ops))
	for i, op := range ops {
		items[i] = op.transactItem(s.config.TableName)
	}

	err := withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		return err
	})
	return mapCommitError(err)
}

// indexKeys resolves an Index to its key attribute names and GSI name.
func (s *Store) indexKeys(index Index) (pkAttr, skAttr, indexName string) {
	switch index {
	case ByActor:
		return AttrActorPK, AttrActorSK, s.config.ByActorIndex
	case ByStatus:
		return AttrStatusPK, AttrStatusSK, s.config.ByStatusIndex
	default:
		return AttrPK, AttrSK, ""
	}
}

// mapConditionError converts the backend's condition failure into the
// store's sentinel.
func mapConditionError(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}

// mapCommitError converts a cancelled transaction into a
// CommitAbortedError carrying the failing item positions. Cancellations
// with no condition failure (already retried as transient) surface
// unchanged.
func mapCommitError(err error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		var reasons []AbortReason
		for i, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == cancelConditionFailed {
				r := AbortReason{Index: i, Code: *reason.Code}
				if reason.Message != nil {
					r.Message = *reason.Message
				}
				reasons = append(reasons, r)
			}
		}
		if len(reasons) > 0 {
			return &CommitAbortedError{Reasons: reasons}
		}
	}

	return err
}
