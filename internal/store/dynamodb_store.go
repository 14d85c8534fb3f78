package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/klass-lk/postboard/internal/model"
)

const dynamoSortKey = "POSTS"

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type dynamoDBItem struct {
	PK        string `dynamodbav:"pk"`
	SK        string `dynamodbav:"sk"`
	Data      string `dynamodbav:"data"`
	UpdatedAt int64  `dynamodbav:"updatedAt"`
}

// DynamoDBStore keeps the collection document in one item of a pk/sk table.
type DynamoDBStore struct {
	client            DynamoDBAPI
	tableName         string
	pk                string
	skipTableCreation bool
	timeout           time.Duration
}

func NewDynamoDBStore(client DynamoDBAPI, cfg DynamoDBConfig, timeout time.Duration) *DynamoDBStore {
	pk := cfg.PartitionKey
	if pk == "" {
		pk = "BLOG"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &DynamoDBStore{
		client:            client,
		tableName:         cfg.TableName,
		pk:                pk,
		skipTableCreation: cfg.SkipTableCreation,
		timeout:           timeout,
	}
}

// Initialize creates the table when missing, then writes the seed item only
// if no item exists under the key.
func (s *DynamoDBStore) Initialize(ctx context.Context) error {
	if !s.skipTableCreation {
		if err := s.ensureTable(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item, err := s.item(model.SeedPosts())
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to initialize %s: %w", s.tableName, err)
	}
	return nil
}

func (s *DynamoDBStore) Load(ctx context.Context) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key, err := attributevalue.MarshalMap(map[string]string{
		"pk": s.pk,
		"sk": dynamoSortKey,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from %s: %w", s.tableName, err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotInitialized, s.tableName, s.pk)
	}

	var item dynamoDBItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decode([]byte(item.Data))
}

func (s *DynamoDBStore) Save(ctx context.Context, posts []model.Post) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item, err := s.item(posts)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item to %s: %w", s.tableName, err)
	}
	return nil
}

func (s *DynamoDBStore) item(posts []model.Post) (map[string]types.AttributeValue, error) {
	data, err := encode(posts)
	if err != nil {
		return nil, err
	}
	return attributevalue.MarshalMap(dynamoDBItem{
		PK:        s.pk,
		SK:        dynamoSortKey,
		Data:      string(data),
		UpdatedAt: time.Now().Unix(),
	})
}

func (s *DynamoDBStore) ensureTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err == nil {
		return nil
	}

	var notFoundEx *types.ResourceNotFoundException
	if !errors.As(err, &notFoundEx) {
		return fmt.Errorf("failed to describe DynamoDB table %s: %w", s.tableName, err)
	}

	log.Printf("DynamoDB table %s does not exist, creating it...", s.tableName)
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create DynamoDB table %s: %w", s.tableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}, 10*time.Second); err != nil {
		return fmt.Errorf("DynamoDB table %s did not become active: %w", s.tableName, err)
	}
	log.Printf("DynamoDB table %s created successfully.", s.tableName)
	return nil
}
