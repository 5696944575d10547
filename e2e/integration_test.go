//go:build e2e

// Package e2e contains end-to-end tests of the acceptance flow against a
// real DynamoDB table.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/domain"
	"github.com/jacentio/hirewire/repository"
	"github.com/jacentio/hirewire/store"
)

// Test configuration
const (
	// Table name - unique per test run to avoid conflicts
	tablePrefix = "hirewire-e2e-test"

	byActorIndex  = "gsi1"
	byStatusIndex = "gsi2"
)

var (
	testID    string
	tableName string

	ddbClient *dynamodb.Client
	testStore *store.Store

	jobs          *repository.Jobs
	bids          *repository.Bids
	conversations *repository.Conversations
	orchestrator  *accept.Orchestrator
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Generate unique test ID
	testID = uuid.New().String()[:8]
	tableName = fmt.Sprintf("%s-%s", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Table: %s\n", tableName)

	ctx := context.Background()
	opts := []func(*config.LoadOptions) error{}
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg)

	if err := createTable(ctx); err != nil {
		fmt.Printf("Failed to create table: %v\n", err)
		os.Exit(1)
	}

	testStore = store.New(ddbClient, store.Config{
		TableName:     tableName,
		ByActorIndex:  byActorIndex,
		ByStatusIndex: byStatusIndex,
	})
	jobs = repository.NewJobs(testStore)
	bids = repository.NewBids(testStore)
	conversations = repository.NewConversations(testStore)
	orchestrator = accept.New(jobs, bids, conversations, testStore, nil, nil)

	code := m.Run()

	if err := deleteTable(ctx); err != nil {
		fmt.Printf("Failed to delete table: %v\n", err)
	}

	os.Exit(code)
}

func createTable(ctx context.Context) error {
	fmt.Println("Creating test table...")

	attr := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		}
	}
	schema := func(pk, sk string) []types.KeySchemaElement {
		return []types.KeySchemaElement{
			{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(sk), KeyType: types.KeyTypeRange},
		}
	}

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: schema("pk", "sk"),
		AttributeDefinitions: []types.AttributeDefinition{
			attr("pk"), attr("sk"),
			attr("gsi1pk"), attr("gsi1sk"),
			attr("gsi2pk"), attr("gsi2sk"),
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName:  aws.String(byActorIndex),
				KeySchema:  schema("gsi1pk", "gsi1sk"),
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName:  aws.String(byStatusIndex),
				KeySchema:  schema("gsi2pk", "gsi2sk"),
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", tableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(ddbClient)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", tableName, err)
	}

	fmt.Println("Table created and active")
	return nil
}

func deleteTable(ctx context.Context) error {
	fmt.Println("Deleting test table...")
	_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return fmt.Errorf("delete table %s: %w", tableName, err)
	}
	return nil
}

// --- Fixtures ---

func seedJobWithBids(t *testing.T, bidCount int) (domain.Job, []domain.Bid) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	job := domain.Job{
		ID:        uuid.New().String(),
		ClientID:  uuid.New().String(),
		Title:     "Assemble wardrobe",
		Status:    domain.JobOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := jobs.Create(ctx, &job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	placed := make([]domain.Bid, 0, bidCount)
	for i := 0; i < bidCount; i++ {
		bid := domain.Bid{
			ID:           uuid.New().String(),
			JobID:        job.ID,
			ContractorID: uuid.New().String(),
			Price:        int64(3000 + i*500),
			Comment:      "Can start this week",
			Status:       domain.BidPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := bids.Create(ctx, &bid); err != nil {
			t.Fatalf("create bid: %v", err)
		}
		placed = append(placed, bid)
	}
	return job, placed
}

func acceptRequest(job domain.Job, bidID string) accept.Request {
	return accept.Request{
		JobID:  job.ID,
		BidID:  bidID,
		Caller: domain.Identity{UserID: job.ClientID, Role: domain.RoleClient},
	}
}

// --- Acceptance Flow Tests ---

func TestAcceptance_FullFlow(t *testing.T) {
	ctx := context.Background()
	job, placed := seedJobWithBids(t, 3)
	chosen := placed[0]

	result, err := orchestrator.Accept(ctx, acceptRequest(job, chosen.ID))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Job transitioned with the idempotency marker
	updated, err := jobs.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if updated.Status != domain.JobInProgress {
		t.Errorf("expected in_progress, got %q", updated.Status)
	}
	if updated.AssignedContractorID != chosen.ContractorID {
		t.Errorf("expected contractor %s, got %s", chosen.ContractorID, updated.AssignedContractorID)
	}
	if updated.AcceptedBidID != chosen.ID {
		t.Errorf("expected marker %s, got %s", chosen.ID, updated.AcceptedBidID)
	}

	// Cascade: chosen accepted, every competitor rejected
	all, err := bids.ListByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	for _, bid := range all {
		want := domain.BidRejected
		if bid.ID == chosen.ID {
			want = domain.BidAccepted
		}
		if bid.Status != want {
			t.Errorf("bid %s: expected %q, got %q", bid.ID, want, bid.Status)
		}
	}

	// Conversation with both parties and the system message
	conv, err := conversations.FindByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("find conversation: %v", err)
	}
	if conv.ID != result.ConversationID {
		t.Errorf("expected conversation %s, got %s", result.ConversationID, conv.ID)
	}
	members, err := conversations.Memberships(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list memberships: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 memberships, got %d", len(members))
	}
	msgs, err := conversations.Messages(ctx, conv.ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Kind != domain.MessageSystem || msgs[0].Event != domain.EventBidAccepted {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

func TestAcceptance_IdempotentRetry(t *testing.T) {
	ctx := context.Background()
	job, placed := seedJobWithBids(t, 2)

	first, err := orchestrator.Accept(ctx, acceptRequest(job, placed[0].ID))
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	second, err := orchestrator.Accept(ctx, acceptRequest(job, placed[0].ID))
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if *first != *second {
		t.Errorf("expected identical payloads, got %+v and %+v", first, second)
	}
}

func TestAcceptance_SecondBidConflicts(t *testing.T) {
	ctx := context.Background()
	job, placed := seedJobWithBids(t, 2)

	if _, err := orchestrator.Accept(ctx, acceptRequest(job, placed[0].ID)); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := orchestrator.Accept(ctx, acceptRequest(job, placed[1].ID))
	var outcome *accept.Error
	if !errors.As(err, &outcome) || outcome.Kind != accept.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAcceptance_ConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	job, placed := seedJobWithBids(t, 4)

	var wg sync.WaitGroup
	results := make(chan error, len(placed))
	for _, bid := range placed {
		wg.Add(1)
		go func(bidID string) {
			defer wg.Done()
			_, err := orchestrator.Accept(ctx, acceptRequest(job, bidID))
			results <- err
		}(bid.ID)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var outcome *accept.Error
		if !errors.As(err, &outcome) || outcome.Kind != accept.KindConflict {
			t.Errorf("expected conflict for loser, got %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}

	all, err := bids.ListByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	accepted := 0
	for _, bid := range all {
		if bid.Status == domain.BidAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly 1 accepted bid, got %d", accepted)
	}
}
