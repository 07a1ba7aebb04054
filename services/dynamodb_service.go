package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/config"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// DynamoAPI is the part of *dynamodb.Client the stores use.
type DynamoAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// GetDynamoDBClient builds a client for the configured endpoint. An empty
// endpoint uses the regular AWS resolution chain.
func GetDynamoDBClient(ctx context.Context, cfg config.DynamoDB) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL: cfg.Endpoint,
			}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(customResolver))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: cfg.AccessKeyID, SecretAccessKey: cfg.SecretKey, SessionToken: "dummy",
			},
		}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// EnsureTables creates the vCon table with its recency index and the thread
// table. Existing tables are logged and left alone.
func EnsureTables(ctx context.Context, db DynamoAPI, cfg config.DynamoDB, logger *zap.Logger) {
	tables := []*dynamodb.CreateTableInput{
		{
			TableName: aws.String(cfg.VconTable),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("UUID"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("FeedKey"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("Recency"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("UUID"), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				{
					IndexName: aws.String(RecencyIndex),
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String("FeedKey"), KeyType: types.KeyTypeHash},
						{AttributeName: aws.String("Recency"), KeyType: types.KeyTypeRange},
					},
					Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName: aws.String(cfg.ThreadTable),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("ThreadID"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("Timestamp"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("ThreadID"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("Timestamp"), KeyType: types.KeyTypeRange},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
	}
	for _, in := range tables {
		if _, err := db.CreateTable(ctx, in); err != nil {
			logger.Debug("table might already exist", zap.String("table", aws.ToString(in.TableName)), zap.Error(err))
		}
	}
}

// encodeCursor turns a LastEvaluatedKey into an opaque string. An empty key
// encodes to "", meaning no further pages.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var flat map[string]string
	if err := attributevalue.UnmarshalMap(key, &flat); err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var flat map[string]string
	if err := json.Unmarshal(b, &flat); err != nil || len(flat) == 0 {
		return nil, ErrInvalidCursor
	}
	key, err := attributevalue.MarshalMap(flat)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return key, nil
}
