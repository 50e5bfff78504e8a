package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoItem = map[string]types.AttributeValue

// fakeDynamo is an in-memory DynamoAPI. It understands the handful of
// expressions the services send: SET assignments with if_not_exists,
// attribute_not_exists conditions and single-attribute index queries.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]dynamoItem
	errs   map[string]error
	calls  map[string]int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: map[string]map[string]dynamoItem{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func attrString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return fmt.Sprintf("%v", av)
}

func keyString(key dynamoItem) string {
	parts := make([]string, 0, len(key))
	for _, v := range key {
		parts = append(parts, attrString(v))
	}
	return strings.Join(parts, "|")
}

func (f *fakeDynamo) table(name string) map[string]dynamoItem {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]dynamoItem{}
		f.tables[name] = t
	}
	return t
}

func (f *fakeDynamo) begin(op string) error {
	f.calls[op]++
	return f.errs[op]
}

func copyItem(item dynamoItem) dynamoItem {
	out := make(dynamoItem, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// keyFromItem picks the partition key out of a full item
func keyFromItem(item dynamoItem) dynamoItem {
	for _, attr := range []string{"id", "roundId"} {
		if v, ok := item[attr]; ok {
			return dynamoItem{attr: v}
		}
	}
	return item
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}
	item, ok := f.table(*params.TableName)[keyString(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}
	t := f.table(*params.TableName)
	k := keyString(keyFromItem(params.Item))
	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists") {
		if _, exists := t[k]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
		}
	}
	t[k] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateItem"); err != nil {
		return nil, err
	}
	t := f.table(*params.TableName)
	k := keyString(params.Key)
	item, ok := t[k]
	if !ok {
		item = copyItem(params.Key)
	} else {
		item = copyItem(item)
	}

	name := func(n string) string {
		if real, ok := params.ExpressionAttributeNames[n]; ok {
			return real
		}
		return n
	}

	expr := strings.TrimPrefix(strings.TrimSpace(*params.UpdateExpression), "SET ")
	for _, assignment := range splitTopLevel(expr) {
		lhs, rhs, _ := strings.Cut(assignment, "=")
		attr := name(strings.TrimSpace(lhs))
		rhs = strings.TrimSpace(rhs)

		if strings.HasPrefix(rhs, "if_not_exists(") {
			args := strings.Split(strings.TrimSuffix(strings.TrimPrefix(rhs, "if_not_exists("), ")"), ",")
			existing := name(strings.TrimSpace(args[0]))
			if _, present := item[existing]; present {
				continue
			}
			rhs = strings.TrimSpace(args[1])
		}
		item[attr] = params.ExpressionAttributeValues[rhs]
	}

	t[k] = item
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}
	delete(f.table(*params.TableName), keyString(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Query"); err != nil {
		return nil, err
	}
	lhs, rhs, _ := strings.Cut(*params.KeyConditionExpression, "=")
	attr := strings.TrimSpace(lhs)
	want := attrString(params.ExpressionAttributeValues[strings.TrimSpace(rhs)])

	var items []dynamoItem
	for _, item := range f.table(*params.TableName) {
		if v, ok := item[attr]; ok && attrString(v) == want {
			items = append(items, copyItem(item))
		}
	}
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

// splitTopLevel splits on commas that are not inside parentheses
func splitTopLevel(expr string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(expr[start:]))
}
