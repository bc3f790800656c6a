package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"artemis/client"
	"artemis/config"
	"artemis/models"
)

type dynamoAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTimeToLive(ctx context.Context, params *dynamodb.DescribeTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTimeToLiveOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// DynamoDB rejects items larger than 400 KB.
const maxItemBytes = 400 * 1024

const ttlAttribute = "ExpiresAt"

// NewDynamoDBClient builds a client from the default AWS chain. With an explicit
// endpoint (DynamoDB Local) it uses static dummy credentials.
func NewDynamoDBClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint}, nil
		})
		opts = append(opts,
			awsconfig.WithEndpointResolverWithOptions(resolver),
			awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
				Value: aws.Credentials{
					AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy",
				},
			}),
		)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// DynamoDBStore keeps one item per session keyed by SessionID. DynamoDB deletes
// expired items lazily, so Load also treats them as missing.
type DynamoDBStore struct {
	db    dynamoAPI
	table string
	ttl   time.Duration
	now   func() time.Time
}

func NewDynamoDBStore(db dynamoAPI, table string, ttl time.Duration) *DynamoDBStore {
	return &DynamoDBStore{db: db, table: table, ttl: ttl, now: time.Now}
}

// EnsureTable creates the sessions table if it does not exist yet and turns on
// TTL deletion for ExpiresAt.
func (d *DynamoDBStore) EnsureTable(ctx context.Context) error {
	_, err := d.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("SessionID"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("SessionID"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("create table %s: %w", d.table, err)
	}
	if d.ttl <= 0 {
		return nil
	}
	return d.ensureTTL(ctx)
}

func (d *DynamoDBStore) ensureTTL(ctx context.Context) error {
	out, err := d.db.DescribeTimeToLive(ctx, &dynamodb.DescribeTimeToLiveInput{
		TableName: aws.String(d.table),
	})
	if err != nil {
		return fmt.Errorf("describe ttl %s: %w", d.table, err)
	}
	if desc := out.TimeToLiveDescription; desc != nil {
		switch desc.TimeToLiveStatus {
		case types.TimeToLiveStatusEnabled, types.TimeToLiveStatusEnabling:
			return nil
		}
	}
	_, err = d.db.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(d.table),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(ttlAttribute),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("enable ttl %s: %w", d.table, err)
	}
	return nil
}

func (d *DynamoDBStore) Save(ctx context.Context, s *client.Session) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	item := map[string]types.AttributeValue{
		"SessionID":  &types.AttributeValueMemberS{Value: s.ID},
		"History":    &types.AttributeValueMemberS{Value: string(history)},
		"ReportText": &types.AttributeValueMemberS{Value: s.ReportText},
		"ReportSent": &types.AttributeValueMemberBOOL{Value: s.ReportSent},
	}
	if d.ttl > 0 {
		expires := d.now().Add(d.ttl).Unix()
		item[ttlAttribute] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expires, 10)}
	}
	if size := itemSize(item); size > maxItemBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	_, err = d.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (d *DynamoDBStore) Load(ctx context.Context, id string) (*client.Session, error) {
	out, err := d.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"SessionID": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return d.decode(id, out.Item)
}

func (d *DynamoDBStore) decode(id string, item map[string]types.AttributeValue) (*client.Session, error) {
	if v, ok := item[ttlAttribute].(*types.AttributeValueMemberN); ok {
		expires, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: ExpiresAt: %v", ErrCorrupt, err)
		}
		if d.now().Unix() >= expires {
			return nil, ErrNotFound
		}
	}

	s := &client.Session{ID: id, History: []models.Message{}}
	if v, ok := item["History"].(*types.AttributeValueMemberS); ok && v.Value != "" {
		if err := json.Unmarshal([]byte(v.Value), &s.History); err != nil {
			return nil, fmt.Errorf("%w: history: %v", ErrCorrupt, err)
		}
		if s.History == nil {
			s.History = []models.Message{}
		}
	}
	if v, ok := item["ReportText"].(*types.AttributeValueMemberS); ok {
		s.ReportText = v.Value
	}
	if v, ok := item["ReportSent"].(*types.AttributeValueMemberBOOL); ok {
		s.ReportSent = v.Value
	}
	return s, nil
}

func (d *DynamoDBStore) Delete(ctx context.Context, id string) error {
	_, err := d.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"SessionID": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// itemSize approximates DynamoDB's item size: attribute names plus values.
func itemSize(item map[string]types.AttributeValue) int {
	n := 0
	for name, v := range item {
		n += len(name)
		switch v := v.(type) {
		case *types.AttributeValueMemberS:
			n += len(v.Value)
		case *types.AttributeValueMemberN:
			n += len(v.Value)
		case *types.AttributeValueMemberBOOL:
			n++
		}
	}
	return n
}
