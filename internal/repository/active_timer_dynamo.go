package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"focusroom/backend/internal/model"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoActiveTimerStore keeps one item per user keyed by user_id. Deletes
// flip the present attribute instead of removing the item so the version
// counter is kept.
type DynamoActiveTimerStore struct {
	client    DynamoAPI
	tableName string
}

func NewDynamoActiveTimerStore(client DynamoAPI, tableName string) *DynamoActiveTimerStore {
	return &DynamoActiveTimerStore{client: client, tableName: tableName}
}

type activeTimerItem struct {
	model.ActiveTimerRecord
	Present bool `dynamodbav:"present"`
}

func (s *DynamoActiveTimerStore) Get(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("get active timer: %w", err)
	}
	if out.Item == nil {
		return model.ActiveTimerSnapshot{}, nil
	}
	return decodeActiveTimerItem(out.Item)
}

func (s *DynamoActiveTimerStore) Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error) {
	values, err := attributevalue.MarshalMap(activeTimerItem{ActiveTimerRecord: record, Present: true})
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("marshal active timer: %w", err)
	}
	delete(values, "user_id")
	delete(values, "version")

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names))
	exprNames := make(map[string]string, len(names))
	exprValues := make(map[string]types.AttributeValue, len(names)+1)
	for i, name := range names {
		placeholder := fmt.Sprintf("a%d", i)
		assignments = append(assignments, fmt.Sprintf("#%s = :%s", placeholder, placeholder))
		exprNames["#"+placeholder] = name
		exprValues[":"+placeholder] = values[name]
	}
	exprValues[":one"] = &types.AttributeValueMemberN{Value: "1"}

	return s.update(ctx, record.UserID, &dynamodb.UpdateItemInput{
		UpdateExpression:          aws.String("SET " + strings.Join(assignments, ", ") + " ADD #version :one"),
		ExpressionAttributeNames:  withVersionName(exprNames),
		ExpressionAttributeValues: exprValues,
	})
}

func (s *DynamoActiveTimerStore) Delete(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error) {
	return s.update(ctx, userID, &dynamodb.UpdateItemInput{
		UpdateExpression: aws.String("SET #present = :false, #is_active = :false ADD #version :one"),
		ExpressionAttributeNames: withVersionName(map[string]string{
			"#present":   "present",
			"#is_active": "is_active",
		}),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":one":   &types.AttributeValueMemberN{Value: "1"},
		},
	})
}

func (s *DynamoActiveTimerStore) update(ctx context.Context, userID string, input *dynamodb.UpdateItemInput) (model.ActiveTimerSnapshot, error) {
	input.TableName = aws.String(s.tableName)
	input.Key = s.key(userID)
	input.ReturnValues = types.ReturnValueAllNew

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("update active timer: %w", err)
	}
	return decodeActiveTimerItem(out.Attributes)
}

func (s *DynamoActiveTimerStore) key(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
	}
}

func withVersionName(names map[string]string) map[string]string {
	names["#version"] = "version"
	return names
}

func decodeActiveTimerItem(attrs map[string]types.AttributeValue) (model.ActiveTimerSnapshot, error) {
	var item activeTimerItem
	if err := attributevalue.UnmarshalMap(attrs, &item); err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("unmarshal active timer: %w", err)
	}

	snapshot := model.ActiveTimerSnapshot{Version: item.Version}
	if item.Present {
		record := item.ActiveTimerRecord
		snapshot.Record = &record
	}
	return snapshot, nil
}
