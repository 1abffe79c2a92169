package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"leona-console/internal/domain"
)

const (
	pkPrefix = "HISTORY#"
	skPrefix = "CHAT#"

	// maxBatchWrite is the BatchWriteItem request limit.
	maxBatchWrite    = 25
	maxBatchAttempts = 5
)


// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ReadWriter defines the history operations consumed by the use case.
type ReadWriter interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	ReplaceConversations(ctx context.Context, chats []domain.Conversation) error
	DeleteConversation(ctx context.Context, id string) error
}

// Client wraps a DynamoDB table holding one conversation list per partition.
type Client struct {
	api       dynamodbAPI
	tableName string
	partition string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName, partition string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(partition) == "" {
		return nil, errors.New("repository: partition must not be empty")
	}
	return &Client{api: api, tableName: tableName, partition: partition}, nil
}

func historyPK(partition string) string {
	return pkPrefix + partition
}

func chatSK(id string) string {
	return skPrefix + id
}

// ListConversations returns every stored conversation in list order.
func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	items, err := c.query(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("repository: ListConversations: %w", err)
	}

	type positioned struct {
		pos  int
		chat domain.Conversation
	}
	rows := make([]positioned, 0, len(items))
	for _, item := range items {
		chat, err := itemToConversation(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListConversations unmarshal: %w", err)
		}
		pos, err := intAttr(item, "position")
		if err != nil {
			pos = len(items)
		}
		rows = append(rows, positioned{pos: pos, chat: chat})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].pos < rows[j].pos })

	out := make([]domain.Conversation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.chat)
	}
	return out, nil
}

// ReplaceConversations makes the stored list equal to chats: every chat is
// written with its list position and stored chats missing from chats are
// deleted.
func (c *Client) ReplaceConversations(ctx context.Context, chats []domain.Conversation) error {
	existing, err := c.query(ctx, "SK")
	if err != nil {
		return fmt.Errorf("repository: ReplaceConversations list keys: %w", err)
	}

	keep := make(map[string]struct{}, len(chats))
	writes := make([]types.WriteRequest, 0, len(chats)+len(existing))
	for i, chat := range chats {
		if strings.TrimSpace(chat.ID) == "" {
			return errors.New("repository: ReplaceConversations: chat id is required")
		}
		item, err := conversationItem(c.partition, chat, i)
		if err != nil {
			return fmt.Errorf("repository: ReplaceConversations: %w", err)
		}
		keep[chatSK(chat.ID)] = struct{}{}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	for _, item := range existing {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return fmt.Errorf("repository: ReplaceConversations: %w", err)
		}
		if _, ok := keep[sk]; ok {
			continue
		}
		writes = append(writes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: c.key(sk)}})
	}

	for start := 0; start < len(writes); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(writes) {
			end = len(writes)
		}
		if err := c.batchWrite(ctx, writes[start:end]); err != nil {
			return fmt.Errorf("repository: ReplaceConversations: %w", err)
		}
	}
	return nil
}

// DeleteConversation removes one conversation. Deleting an id that is not
// stored succeeds.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("repository: DeleteConversation: id is required")
	}
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.key(chatSK(id)),
	})
	if err != nil {
		return fmt.Errorf("repository: DeleteConversation: %w", err)
	}
	return nil
}

func (c *Client) key(sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: historyPK(c.partition)},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// query reads every CHAT# item of the partition, following pagination.
func (c *Client) query(ctx context.Context, projection string) ([]map[string]types.AttributeValue, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: historyPK(c.partition)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
		ConsistentRead: aws.Bool(true),
	}
	if projection != "" {
		in.ProjectionExpression = aws.String(projection)
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// batchWrite submits one chunk and resubmits unprocessed items.
func (c *Client) batchWrite(ctx context.Context, writes []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{c.tableName: writes}
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		out, err := c.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
		if out == nil || len(out.UnprocessedItems[c.tableName]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("batch write: %d items unprocessed", len(pending[c.tableName]))
}

func conversationItem(partition string, chat domain.Conversation, position int) (map[string]types.AttributeValue, error) {
	body, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("encode chat %q: %w", chat.ID, err)
	}
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: historyPK(partition)},
		"SK":             &types.AttributeValueMemberS{Value: chatSK(chat.ID)},
		"conversationId": &types.AttributeValueMemberS{Value: chat.ID},
		"body":           &types.AttributeValueMemberS{Value: string(body)},
		"lastActivity":   &types.AttributeValueMemberS{Value: chat.LastActivity.UTC().Format(time.RFC3339)},
		"position":       &types.AttributeValueMemberN{Value: strconv.Itoa(position)},
	}, nil
}

// itemToConversation converts a DynamoDB attribute map to a Conversation.
func itemToConversation(item map[string]types.AttributeValue) (domain.Conversation, error) {
	body, err := strAttr(item, "body")
	if err != nil {
		return domain.Conversation{}, err
	}
	var chat domain.Conversation
	if err := json.Unmarshal([]byte(body), &chat); err != nil {
		return domain.Conversation{}, fmt.Errorf("repository: decode body: %w", err)
	}
	if chat.ID == "" {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return domain.Conversation{}, err
		}
		chat.ID = strings.TrimPrefix(sk, skPrefix)
	}
	return chat, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
