package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

var ErrThreadNotFound = errors.New("thread not found")

const (
	kindThread  = "thread"
	kindMessage = "message"
	// headerKey sorts before every timestamp key.
	headerKey = "#thread"
)

type threadItem struct {
	ThreadID  string `dynamodbav:"ThreadID"`
	Timestamp string `dynamodbav:"Timestamp"`
	Kind      string `dynamodbav:"Kind"`
	ID        string `dynamodbav:"ID"`
	UserID    string `dynamodbav:"UserID"`
	Role      string `dynamodbav:"Role,omitempty"`
	Content   string `dynamodbav:"Content,omitempty"`
}

// ThreadStore persists assistant threads. Each thread is a header item plus
// one item per message, range-keyed by a sortable timestamp.
type ThreadStore struct {
	db     DynamoAPI
	table  string
	logger *zap.Logger
	now    func() time.Time
}

func NewThreadStore(db DynamoAPI, table string, logger *zap.Logger) *ThreadStore {
	return &ThreadStore{db: db, table: table, logger: logger, now: time.Now}
}

func (s *ThreadStore) CreateThread(ctx context.Context, userID string) (string, error) {
	threadID := uuid.New().String()
	item, err := attributevalue.MarshalMap(threadItem{
		ThreadID:  threadID,
		Timestamp: headerKey,
		Kind:      kindThread,
		ID:        threadID,
		UserID:    userID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal thread: %w", err)
	}
	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: item}); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	s.logger.Debug("created thread", zap.String("thread_id", threadID), zap.String("user_id", userID))
	return threadID, nil
}

// Owner returns the user that created the thread.
func (s *ThreadStore) Owner(ctx context.Context, threadID string) (string, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"ThreadID":  &types.AttributeValueMemberS{Value: threadID},
			"Timestamp": &types.AttributeValueMemberS{Value: headerKey},
		},
	})
	if err != nil {
		return "", fmt.Errorf("get thread %s: %w", threadID, err)
	}
	if len(out.Item) == 0 {
		return "", ErrThreadNotFound
	}
	var it threadItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return "", fmt.Errorf("unmarshal thread %s: %w", threadID, err)
	}
	return it.UserID, nil
}

func (s *ThreadStore) SaveMessage(ctx context.Context, threadID, userID, role, content string) (models.ThreadMessage, error) {
	msg := models.ThreadMessage{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
	item, err := attributevalue.MarshalMap(threadItem{
		ThreadID: threadID,
		// the id suffix keeps keys unique within one clock tick
		Timestamp: FormatTimestamp(msg.Timestamp) + "#" + msg.ID[:8],
		Kind:      kindMessage,
		ID:        msg.ID,
		UserID:    userID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		return models.ThreadMessage{}, fmt.Errorf("marshal message: %w", err)
	}
	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: item}); err != nil {
		return models.ThreadMessage{}, fmt.Errorf("save message: %w", err)
	}
	return msg, nil
}

// RecentMessages returns up to limit of the newest messages, oldest first.
func (s *ThreadStore) RecentMessages(ctx context.Context, threadID string, limit int) ([]models.ThreadMessage, error) {
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("ThreadID = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: threadID},
		},
		ScanIndexForward: aws.Bool(false),
		// one extra for the header item
		Limit: aws.Int32(int32(limit + 1)),
	})
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	msgs, err := decodeMessages(out.Items)
	if err != nil {
		return nil, err
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListMessages pages through a thread oldest first.
func (s *ThreadStore) ListMessages(ctx context.Context, threadID, cursor string, limit int) (models.ThreadMessagePage, error) {
	if limit <= 0 {
		limit = 10
	}
	start, err := decodeCursor(cursor)
	if err != nil {
		return models.ThreadMessagePage{}, err
	}
	if start == nil {
		// the header sorts first; start after it so pages hold only messages
		start = map[string]types.AttributeValue{
			"ThreadID":  &types.AttributeValueMemberS{Value: threadID},
			"Timestamp": &types.AttributeValueMemberS{Value: headerKey},
		}
	}
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("ThreadID = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: threadID},
		},
		ScanIndexForward:  aws.Bool(true),
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: start,
	})
	if err != nil {
		return models.ThreadMessagePage{}, fmt.Errorf("query messages: %w", err)
	}
	msgs, err := decodeMessages(out.Items)
	if err != nil {
		return models.ThreadMessagePage{}, err
	}
	next, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return models.ThreadMessagePage{}, err
	}
	return models.ThreadMessagePage{Messages: msgs, NextCursor: next}, nil
}

func decodeMessages(items []map[string]types.AttributeValue) ([]models.ThreadMessage, error) {
	msgs := make([]models.ThreadMessage, 0, len(items))
	for _, item := range items {
		var it threadItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		if it.Kind != kindMessage {
			continue
		}
		ts, _ := ParseTimestamp(strings.SplitN(it.Timestamp, "#", 2)[0])
		msgs = append(msgs, models.ThreadMessage{
			ID:        it.ID,
			ThreadID:  it.ThreadID,
			UserID:    it.UserID,
			Role:      it.Role,
			Content:   it.Content,
			Timestamp: ts,
		})
	}
	return msgs, nil
}
