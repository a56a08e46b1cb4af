package repository_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"focusroom/backend/internal/model"
	"focusroom/backend/internal/repository"
)

// fakeDynamo understands the "SET #n = :v, ... ADD #n :v" updates the
// store issues and keeps items in memory.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := params.Key["user_id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	key := params.Key["user_id"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[key]
	if !ok {
		item = map[string]types.AttributeValue{"user_id": params.Key["user_id"]}
		f.items[key] = item
	}

	expr := strings.TrimPrefix(*params.UpdateExpression, "SET ")
	setPart, addPart, _ := strings.Cut(expr, " ADD ")
	for _, assignment := range strings.Split(setPart, ", ") {
		name, value, _ := strings.Cut(assignment, " = ")
		item[params.ExpressionAttributeNames[name]] = params.ExpressionAttributeValues[value]
	}

	name, value, _ := strings.Cut(addPart, " ")
	attr := params.ExpressionAttributeNames[name]
	delta, _ := strconv.ParseInt(params.ExpressionAttributeValues[value].(*types.AttributeValueMemberN).Value, 10, 64)
	var current int64
	if existing, ok := item[attr].(*types.AttributeValueMemberN); ok {
		current, _ = strconv.ParseInt(existing.Value, 10, 64)
	}
	item[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}

	if params.ReturnValues != types.ReturnValueAllNew {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func TestDynamoActiveTimerStore(t *testing.T) {
	fake := newFakeDynamo()
	store := repository.NewDynamoActiveTimerStore(fake, "active-timers")
	ctx := context.Background()

	snapshot, err := store.Get(ctx, "u1")
	if err != nil || snapshot.Version != 0 || snapshot.Record != nil {
		t.Fatalf("expected empty snapshot, got %+v err=%v", snapshot, err)
	}

	record := model.ActiveTimerRecord{
		UserID:          "u1",
		Mode:            model.ModeBreak,
		EndTime:         600_000,
		IsActive:        true,
		SessionID:       "s1",
		BaselineSeconds: 300,
		UpdatedAt:       300_000,
		DeviceID:        "phone",
	}
	snapshot, err = store.Put(ctx, record)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if snapshot.Version != 1 || snapshot.Record == nil {
		t.Fatalf("unexpected snapshot after put: %+v", snapshot)
	}
	record.Version = 1
	if *snapshot.Record != record {
		t.Fatalf("record did not round-trip: got %+v want %+v", *snapshot.Record, record)
	}

	snapshot, err = store.Delete(ctx, "u1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if snapshot.Version != 2 || snapshot.Record != nil {
		t.Fatalf("unexpected snapshot after delete: %+v", snapshot)
	}

	snapshot, err = store.Get(ctx, "u1")
	if err != nil || snapshot.Version != 2 || snapshot.Record != nil {
		t.Fatalf("unexpected snapshot from get: %+v err=%v", snapshot, err)
	}
}
