package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var (
	ErrMissingUUID     = errors.New("missing uuid")
	ErrNotFound        = errors.New("not found")
	ErrInvalidDocument = errors.New("invalid vcon document")
)

const DefaultPageSize = 5

const (
	// RecencyIndex orders every vCon newest first under one feed partition.
	RecencyIndex  = "RecencyIndex"
	feedPartition = "vcon"
)

type vconItem struct {
	UUID      string `dynamodbav:"UUID"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	FeedKey   string `dynamodbav:"FeedKey"`
	Recency   string `dynamodbav:"Recency"`
	Document  string `dynamodbav:"Document"`
}

// VconStore keeps one item per vCon holding the document exactly as it was
// received.
type VconStore struct {
	db     DynamoAPI
	table  string
	logger *zap.Logger
}

func NewVconStore(db DynamoAPI, table string, logger *zap.Logger) *VconStore {
	return &VconStore{db: db, table: table, logger: logger}
}

// recencyKey sorts by created_at, then uuid. Records without a usable
// created_at sort below every dated one.
func recencyKey(uuid, createdAt string) string {
	if t, ok := models.ParseTimestamp(createdAt); ok {
		return FormatTimestamp(t) + "#" + uuid
	}
	return "0#" + uuid
}

// SaveDocument stores a raw vCon document. Fields the dashboard does not model
// are kept as they were sent.
func (s *VconStore) SaveDocument(ctx context.Context, doc []byte) error {
	var v models.Vcon
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if v.UUID == "" {
		return ErrMissingUUID
	}
	item, err := attributevalue.MarshalMap(vconItem{
		UUID:      v.UUID,
		CreatedAt: v.CreatedAt,
		FeedKey:   feedPartition,
		Recency:   recencyKey(v.UUID, v.CreatedAt),
		Document:  string(doc),
	})
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", v.UUID, err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put vcon %s: %w", v.UUID, err)
	}
	s.logger.Debug("saved vcon", zap.String("uuid", v.UUID))
	return nil
}

// Document returns the stored document for uuid.
func (s *VconStore) Document(ctx context.Context, uuid string) (json.RawMessage, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"UUID": &types.AttributeValueMemberS{Value: uuid},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get vcon %s: %w", uuid, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var it vconItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return json.RawMessage(it.Document), nil
}

// FetchPage returns up to limit records after cursor, newest first. An empty
// NextCursor means the table is exhausted.
func (s *VconStore) FetchPage(ctx context.Context, cursor string, limit int) (models.VconPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	start, err := decodeCursor(cursor)
	if err != nil {
		return models.VconPage{}, err
	}
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(RecencyIndex),
		KeyConditionExpression: aws.String("#feed = :feed"),
		ExpressionAttributeNames: map[string]string{
			"#feed": "FeedKey",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":feed": &types.AttributeValueMemberS{Value: feedPartition},
		},
		ScanIndexForward:  aws.Bool(false),
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: start,
	})
	if err != nil {
		return models.VconPage{}, fmt.Errorf("query vcons: %w", err)
	}

	page := models.VconPage{Records: make([]models.Vcon, 0, len(out.Items))}
	for _, item := range out.Items {
		v, err := decodeVconItem(item)
		if err != nil {
			// A malformed document is skipped so one bad record cannot
			// block the rest of the feed.
			s.logger.Warn("skipping undecodable vcon", zap.Error(err))
			continue
		}
		page.Records = append(page.Records, v)
	}
	page.NextCursor, err = encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return models.VconPage{}, err
	}
	return page, nil
}

// FetchAll pages through the whole table.
func (s *VconStore) FetchAll(ctx context.Context, pageSize int) ([]models.Vcon, error) {
	var all []models.Vcon
	cursor := ""
	for {
		page, err := s.FetchPage(ctx, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Exhausted() {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func decodeVconItem(item map[string]types.AttributeValue) (models.Vcon, error) {
	var it vconItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return models.Vcon{}, fmt.Errorf("unmarshal item: %w", err)
	}
	var v models.Vcon
	if err := json.Unmarshal([]byte(it.Document), &v); err != nil {
		return models.Vcon{}, fmt.Errorf("decode vcon %s: %w", it.UUID, err)
	}
	if v.UUID == "" {
		v.UUID = it.UUID
	}
	return v, nil
}
