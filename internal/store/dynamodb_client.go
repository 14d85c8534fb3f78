package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type DynamoDBConfig struct {
	TableName         string `yaml:"table_name"`
	PartitionKey      string `yaml:"partition_key"`
	Region            string `yaml:"region"`
	Endpoint          string `yaml:"endpoint"`
	AccessKey         string `yaml:"access_key"`
	SecretKey         string `yaml:"secret_key"`
	SkipTableCreation bool   `yaml:"skip_table_creation"`
}

func NewDynamoDBConfig() *DynamoDBConfig {
	return &DynamoDBConfig{
		TableName:    "postboard",
		PartitionKey: "BLOG",
	}
}

func (c *DynamoDBConfig) WithTableName(name string) *DynamoDBConfig {
	c.TableName = name
	return c
}

func (c *DynamoDBConfig) WithPartitionKey(pk string) *DynamoDBConfig {
	c.PartitionKey = pk
	return c
}

func (c *DynamoDBConfig) WithEndpoint(region, endpoint string) *DynamoDBConfig {
	c.Region = region
	c.Endpoint = endpoint
	return c
}

func (c *DynamoDBConfig) WithSkipTableCreation(skip bool) *DynamoDBConfig {
	c.SkipTableCreation = skip
	return c
}

// NewDynamoDBClient creates and returns a new DynamoDB client for the
// configured region, honouring a local endpoint such as dynamodb-local.
func NewDynamoDBClient(ctx context.Context, cfg DynamoDBConfig) (*dynamodb.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
