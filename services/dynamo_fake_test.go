package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory DynamoAPI. It understands the handful of
// expressions the services emit: attribute_not_exists(x), "#a = :a" guards
// (optionally joined with OR),
// "x = :x" key conditions, begins_with via a ":<attr>Prefix" placeholder, and
// "#a <> :a" scan filters.
type fakeDynamo struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]types.AttributeValue
	keys    map[string][]string
	failPut map[string]error
	failGet map[string]error
	puts    int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
		keys: map[string][]string{
			"profiles":              {"userId"},
			"compatibility_answers": {"userId"},
			"daily_matches":         {"userId", "matchKey"},
			"matches":               {"matchId"},
			"swipes":                {"PK", "SK"},
			"membership_plans":      {"planId"},
			"user_subscriptions":    {"userId"},
			"webhook_audit":         {"auditId"},
		},
		failPut: map[string]error{},
		failGet: map[string]error{},
	}
}

func newFakeDynamoService() (*DynamoService, *fakeDynamo) {
	fake := newFakeDynamo()
	return &DynamoService{Client: fake}, fake
}

func (f *fakeDynamo) keyOf(table string, item map[string]types.AttributeValue) string {
	var parts []string
	for _, name := range f.keys[table] {
		if s, ok := item[name].(*types.AttributeValueMemberS); ok {
			parts = append(parts, s.Value)
		}
	}
	return strings.Join(parts, "|")
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		f.tables[name] = t
	}
	return t
}

func (f *fakeDynamo) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failGet[aws.ToString(in.TableName)]; err != nil {
		return nil, err
	}
	item := f.table(aws.ToString(in.TableName))[f.keyOf(aws.ToString(in.TableName), in.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if err := f.failPut[name]; err != nil {
		return nil, err
	}
	key := f.keyOf(name, in.Item)
	existing, exists := f.table(name)[key]
	if cond := aws.ToString(in.ConditionExpression); cond != "" && !evalCondition(cond, existing, exists, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.table(name)[key] = in.Item
	f.puts++
	return &dynamodb.PutItemOutput{}, nil
}

func evalCondition(cond string, existing map[string]types.AttributeValue, exists bool, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, clause := range strings.Split(cond, " OR ") {
		if evalClause(strings.TrimSpace(clause), existing, exists, names, values) {
			return true
		}
	}
	return false
}

func evalClause(clause string, existing map[string]types.AttributeValue, exists bool, names map[string]string, values map[string]types.AttributeValue) bool {
	resolve := func(attr string) string {
		if resolved, ok := names[attr]; ok {
			return resolved
		}
		return attr
	}
	if arg, ok := strings.CutPrefix(clause, "attribute_not_exists("); ok {
		_, has := existing[resolve(strings.TrimSuffix(arg, ")"))]
		return !exists || !has
	}
	parts := strings.SplitN(clause, " = ", 2)
	if len(parts) != 2 || !exists {
		return false
	}
	got, has := existing[resolve(parts[0])]
	return has && attrString(got) == attrString(values[parts[1]])
}

func attrString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	delete(f.table(name), f.keyOf(name, in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) sortedItems(name string) []map[string]types.AttributeValue {
	t := f.table(name)
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, t[k])
	}
	return items
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]types.AttributeValue
	for _, item := range f.sortedItems(aws.ToString(in.TableName)) {
		match := true
		for placeholder, value := range in.ExpressionAttributeValues {
			attr := strings.TrimPrefix(placeholder, ":")
			if strings.HasSuffix(attr, "Prefix") {
				attr = strings.TrimSuffix(attr, "Prefix")
				if !strings.HasPrefix(attrString(item[attr]), attrString(value)) {
					match = false
				}
				continue
			}
			if attrString(item[attr]) != attrString(value) {
				match = false
			}
		}
		if match {
			out = append(out, item)
		}
		if in.Limit != nil && int32(len(out)) >= *in.Limit {
			break
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]types.AttributeValue
	for _, item := range f.sortedItems(aws.ToString(in.TableName)) {
		keep := true
		for nameRef, attr := range in.ExpressionAttributeNames {
			if attrString(item[attr]) == attrString(in.ExpressionAttributeValues[":"+strings.TrimPrefix(nameRef, "#")]) {
				keep = false
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return &dynamodb.ScanOutput{Items: out}, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, requests := range in.RequestItems {
		if err := f.failPut[name]; err != nil {
			return nil, err
		}
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				f.table(name)[f.keyOf(name, req.PutRequest.Item)] = req.PutRequest.Item
			case req.DeleteRequest != nil:
				delete(f.table(name), f.keyOf(name, req.DeleteRequest.Key))
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

var errFakeDown = errors.New("service unavailable")
