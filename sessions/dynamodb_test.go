package sessions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	mu         sync.Mutex
	items      map[string]map[string]types.AttributeValue
	tables     int
	createErr  error
	ttlStatus  types.TimeToLiveStatus
	ttlUpdates []types.TimeToLiveSpecification
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key["SessionID"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.tables++
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if itemSize(params.Item) > 400*1024 {
		return nil, errors.New("ValidationException: Item size has exceeded the maximum allowed size")
	}
	f.items[keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTimeToLive(ctx context.Context, params *dynamodb.DescribeTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.ttlStatus
	if status == "" {
		status = types.TimeToLiveStatusDisabled
	}
	return &dynamodb.DescribeTimeToLiveOutput{
		TimeToLiveDescription: &types.TimeToLiveDescription{TimeToLiveStatus: status},
	}, nil
}

func (f *fakeDynamo) UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttlUpdates = append(f.ttlUpdates, *params.TimeToLiveSpecification)
	f.ttlStatus = types.TimeToLiveStatusEnabled
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(params.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoDBStore(t *testing.T) {
	exerciseStore(t, NewDynamoDBStore(newFakeDynamo(), "ChatSessions", time.Hour))
}

func TestDynamoDBStoreExpiresAt(t *testing.T) {
	db := newFakeDynamo()
	store := NewDynamoDBStore(db, "ChatSessions", time.Hour)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	s := sampleSession()
	require.NoError(t, store.Save(context.Background(), s))

	expires := db.items[s.ID]["ExpiresAt"].(*types.AttributeValueMemberN)
	assert.Equal(t, "1700003600", expires.Value)

	now = now.Add(time.Hour)
	_, err := store.Load(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoDBStoreEnsureTable(t *testing.T) {
	db := newFakeDynamo()
	store := NewDynamoDBStore(db, "ChatSessions", time.Hour)
	require.NoError(t, store.EnsureTable(context.Background()))
	assert.Equal(t, 1, db.tables)

	db.createErr = &types.ResourceInUseException{Message: aws.String("Table already exists")}
	assert.NoError(t, store.EnsureTable(context.Background()))

	db.createErr = errors.New("access denied")
	assert.Error(t, store.EnsureTable(context.Background()))
}

func TestDynamoDBStoreEnablesTTLOnce(t *testing.T) {
	db := newFakeDynamo()
	store := NewDynamoDBStore(db, "ChatSessions", time.Hour)

	require.NoError(t, store.EnsureTable(context.Background()))
	require.Len(t, db.ttlUpdates, 1)
	assert.Equal(t, "ExpiresAt", aws.ToString(db.ttlUpdates[0].AttributeName))
	assert.True(t, aws.ToBool(db.ttlUpdates[0].Enabled))

	db.createErr = &types.ResourceInUseException{Message: aws.String("Table already exists")}
	require.NoError(t, store.EnsureTable(context.Background()))
	assert.Len(t, db.ttlUpdates, 1, "already enabled")
}

func TestDynamoDBStoreWithoutTTLSkipsTTL(t *testing.T) {
	db := newFakeDynamo()
	require.NoError(t, NewDynamoDBStore(db, "ChatSessions", 0).EnsureTable(context.Background()))
	assert.Empty(t, db.ttlUpdates)
}

func TestDynamoDBStoreRejectsOversizedSession(t *testing.T) {
	db := newFakeDynamo()
	store := NewDynamoDBStore(db, "ChatSessions", time.Hour)

	s := sampleSession()
	s.ReportText = strings.Repeat("a", 500*1024)
	err := store.Save(context.Background(), s)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NotContains(t, db.items, s.ID)

	s.ReportText = strings.Repeat("a", 300*1024)
	assert.NoError(t, store.Save(context.Background(), s))
}

func TestDynamoDBStoreCorruptHistory(t *testing.T) {
	db := newFakeDynamo()
	db.items["bad"] = map[string]types.AttributeValue{
		"SessionID": &types.AttributeValueMemberS{Value: "bad"},
		"History":   &types.AttributeValueMemberS{Value: "{not json"},
	}
	_, err := NewDynamoDBStore(db, "ChatSessions", time.Hour).Load(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrCorrupt)
}
