package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// memoryTable is an in-memory stand-in for one DynamoDB table. Items are
// ordered by their key attributes joined with a NUL.
type memoryTable struct {
	keys        []string
	indexes     map[string][2]string
	items       map[string]map[string]types.AttributeValue
	created     []string
	definitions []*dynamodb.CreateTableInput
	queryErr    error
}

func newMemoryTable(keys ...string) *memoryTable {
	return &memoryTable{
		keys:    keys,
		indexes: map[string][2]string{},
		items:   map[string]map[string]types.AttributeValue{},
	}
}

func newVconTable() *memoryTable {
	m := newMemoryTable("UUID")
	m.indexes[RecencyIndex] = [2]string{"FeedKey", "Recency"}
	return m
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (m *memoryTable) keyOf(item map[string]types.AttributeValue) string {
	parts := make([]string, len(m.keys))
	for i, k := range m.keys {
		parts[i] = stringAttr(item, k)
	}
	return strings.Join(parts, "\x00")
}

func (m *memoryTable) sortedKeys() []string {
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// page applies ExclusiveStartKey and Limit to an ordered key list. The
// returned LastEvaluatedKey carries the table keys plus any extra attributes.
func (m *memoryTable) page(keys []string, start map[string]types.AttributeValue, limit *int32, extra ...string) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	if len(start) > 0 {
		after := m.keyOf(start)
		for i, k := range keys {
			if k == after {
				keys = keys[i+1:]
				break
			}
		}
	}
	n := len(keys)
	if limit != nil && int(*limit) < n {
		n = int(*limit)
	}
	items := make([]map[string]types.AttributeValue, 0, n)
	for _, k := range keys[:n] {
		items = append(items, m.items[k])
	}
	var last map[string]types.AttributeValue
	if n < len(keys) {
		last = map[string]types.AttributeValue{}
		for _, k := range append(append([]string{}, m.keys...), extra...) {
			last[k] = items[n-1][k]
		}
	}
	return items, last
}

func (m *memoryTable) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	name := aws.ToString(in.TableName)
	for _, t := range m.created {
		if t == name {
			return nil, errors.New("ResourceInUseException")
		}
	}
	m.created = append(m.created, name)
	m.definitions = append(m.definitions, in)
	return &dynamodb.CreateTableOutput{}, nil
}

func (m *memoryTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.items[m.keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memoryTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: m.items[m.keyOf(in.Key)]}, nil
}

// Query supports a single "<hash> = :value" condition, against the table or
// against one registered index ordered by its range attribute.
func (m *memoryTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var want string
	for _, v := range in.ExpressionAttributeValues {
		want = v.(*types.AttributeValueMemberS).Value
	}

	var keys, extra []string
	if in.IndexName != nil {
		idx, ok := m.indexes[aws.ToString(in.IndexName)]
		if !ok {
			return nil, errors.New("ValidationException: unknown index")
		}
		for k, item := range m.items {
			if stringAttr(item, idx[0]) == want {
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(i, j int) bool {
			ri, rj := stringAttr(m.items[keys[i]], idx[1]), stringAttr(m.items[keys[j]], idx[1])
			if ri != rj {
				return ri < rj
			}
			return keys[i] < keys[j]
		})
		extra = idx[:]
	} else {
		for _, k := range m.sortedKeys() {
			if strings.HasPrefix(k, want+"\x00") {
				keys = append(keys, k)
			}
		}
	}
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	items, last := m.page(keys, in.ExclusiveStartKey, in.Limit, extra...)
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: last}, nil
}
