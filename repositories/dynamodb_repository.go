package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chatmatch/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Single table layout:
//
//	roster: PK=ROSTER#<id>  SK=ROSTER                         GSI2PK=ROSTERS    GSI2SK=<created>#<id>
//	event:  PK=ROSTER#<id>  SK=EVENT#<created>#<event_id>    GSI1PK=EVENT#<event_id>
const (
	rosterSK        = "ROSTER"
	eventSKPrefix   = "EVENT#"
	rosterListKey   = "ROSTERS"
	eventIndexName  = "GSI1"
	rosterIndexName = "GSI2"
	sortableTime    = "2006-01-02T15:04:05.000000000Z07:00"

	maxRoundAttempts = 3
	batchWriteLimit  = 25
)

// DynamoDBAPI is the subset of *dynamodb.Client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type rosterItem struct {
	PK      string        `dynamodbav:"PK"`
	SK      string        `dynamodbav:"SK"`
	GSI2PK  string        `dynamodbav:"GSI2PK"`
	GSI2SK  string        `dynamodbav:"GSI2SK"`
	Version int64         `dynamodbav:"Version"`
	Roster  models.Roster `dynamodbav:"Roster"`
}

type eventItem struct {
	PK     string       `dynamodbav:"PK"`
	SK     string       `dynamodbav:"SK"`
	GSI1PK string       `dynamodbav:"GSI1PK"`
	GSI1SK string       `dynamodbav:"GSI1SK"`
	Event  models.Event `dynamodbav:"Event"`
}

func rosterPK(id string) string {
	return "ROSTER#" + id
}

func eventSK(e *models.Event) string {
	return eventSKPrefix + e.Created.UTC().Format(sortableTime) + "#" + e.EventID
}

func eventGSI1PK(eventID string) string {
	return "EVENT#" + eventID
}

func rosterKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: rosterPK(id)},
		"SK": &types.AttributeValueMemberS{Value: rosterSK},
	}
}

func newRosterItem(r *models.Roster, version int64) rosterItem {
	return rosterItem{
		PK:      rosterPK(r.ID),
		SK:      rosterSK,
		GSI2PK:  rosterListKey,
		GSI2SK:  r.Created.UTC().Format(sortableTime) + "#" + r.ID,
		Version: version,
		Roster:  *r,
	}
}

func newEventItem(e *models.Event) eventItem {
	return eventItem{
		PK:     rosterPK(e.RosterID),
		SK:     eventSK(e),
		GSI1PK: eventGSI1PK(e.EventID),
		GSI1SK: "EVENT",
		Event:  *e,
	}
}

// DynamoStore keeps rosters and their events in one DynamoDB table.
type DynamoStore struct {
	client    DynamoDBAPI
	tableName string
}

func NewDynamoStore(client DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) Rosters() RosterRepository {
	return &dynamoRosterRepository{store: s}
}

func (s *DynamoStore) Events() EventRepository {
	return &dynamoEventRepository{store: s}
}

type dynamoRosterRepository struct {
	store *DynamoStore
}

func (r *dynamoRosterRepository) Create(ctx context.Context, roster *models.Roster) error {
	item, err := attributevalue.MarshalMap(newRosterItem(roster, 1))
	if err != nil {
		return fmt.Errorf("failed to marshal roster item: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}
	_, err = r.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.store.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrRosterIDConflict
		}
		return fmt.Errorf("failed to put roster %s: %w", roster.ID, err)
	}
	return nil
}

func (r *dynamoRosterRepository) Exists(ctx context.Context, id string) (bool, error) {
	out, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.store.tableName),
		Key:                  rosterKey(id),
		ProjectionExpression: aws.String("PK"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check roster %s: %w", id, err)
	}
	return len(out.Item) > 0, nil
}

func (r *dynamoRosterRepository) get(ctx context.Context, id string) (*rosterItem, error) {
	out, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tableName),
		Key:            rosterKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get roster %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrRosterNotFound
	}
	var item rosterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roster %s: %w", id, err)
	}
	item.Roster.Normalize()
	return &item, nil
}

func (r *dynamoRosterRepository) GetByID(ctx context.Context, id string) (*models.Roster, error) {
	item, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &item.Roster, nil
}

func (r *dynamoRosterRepository) List(ctx context.Context, limit int) ([]*models.Roster, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(rosterListKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.tableName),
		IndexName:                 aws.String(rosterIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	rosters := make([]*models.Roster, 0)
	paginator := dynamodb.NewQueryPaginator(r.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list rosters: %w", err)
		}
		var items []rosterItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rosters: %w", err)
		}
		for i := range items {
			items[i].Roster.Normalize()
			rosters = append(rosters, &items[i].Roster)
			if limit > 0 && len(rosters) == limit {
				return rosters, nil
			}
		}
	}
	return rosters, nil
}

func (r *dynamoRosterRepository) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}
	_, err = r.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.store.tableName),
		Key:                      rosterKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrRosterNotFound
		}
		return fmt.Errorf("failed to delete roster %s: %w", id, err)
	}
	return nil
}

// ApplyRound uses the Version attribute for optimistic concurrency and retries
// a lost race a bounded number of times with a fresh snapshot.
func (r *dynamoRosterRepository) ApplyRound(ctx context.Context, id string, fn RoundFunc) (*models.Event, error) {
	for attempt := 1; attempt <= maxRoundAttempts; attempt++ {
		current, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}
		updated, event, err := fn(current.Roster.Clone())
		if err != nil {
			return nil, err
		}

		err = r.commitRound(ctx, current.Version, updated, event)
		if err == nil {
			return event, nil
		}
		var canceled *types.TransactionCanceledException
		if !errors.As(err, &canceled) {
			return nil, fmt.Errorf("failed to commit round for roster %s: %w", id, err)
		}
		if attempt < maxRoundAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
	}
	return nil, ErrConcurrentUpdate
}

func (r *dynamoRosterRepository) commitRound(ctx context.Context, version int64, updated *models.Roster, event *models.Event) error {
	rosterAV, err := attributevalue.MarshalMap(newRosterItem(updated, version+1))
	if err != nil {
		return fmt.Errorf("failed to marshal roster item: %w", err)
	}
	eventAV, err := attributevalue.MarshalMap(newEventItem(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event item: %w", err)
	}

	versionExpr, err := expression.NewBuilder().
		WithCondition(expression.Name("Version").Equal(expression.Value(version))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build version condition: %w", err)
	}
	absentExpr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build event condition: %w", err)
	}

	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                 aws.String(r.store.tableName),
				Item:                      rosterAV,
				ConditionExpression:       versionExpr.Condition(),
				ExpressionAttributeNames:  versionExpr.Names(),
				ExpressionAttributeValues: versionExpr.Values(),
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.store.tableName),
				Item:                     eventAV,
				ConditionExpression:      absentExpr.Condition(),
				ExpressionAttributeNames: absentExpr.Names(),
			}},
		},
	})
	return err
}

type dynamoEventRepository struct {
	store *DynamoStore
}

func (r *dynamoEventRepository) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(eventGSI1PK(eventID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}
	out, err := r.store.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.tableName),
		IndexName:                 aws.String(eventIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query event %s: %w", eventID, err)
	}
	if len(out.Items) == 0 {
		return nil, ErrEventNotFound
	}
	var item eventItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event %s: %w", eventID, err)
	}
	item.Event.Normalize()
	return &item.Event, nil
}

func (r *dynamoEventRepository) queryRosterEvents(ctx context.Context, rosterID string, keysOnly bool) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(rosterPK(rosterID))).
		And(expression.Key("SK").BeginsWith(eventSKPrefix))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if keysOnly {
		builder = builder.WithProjection(expression.NamesList(expression.Name("PK"), expression.Name("SK")))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ProjectionExpression:      expr.Projection(),
		ConsistentRead:            aws.Bool(true),
		ScanIndexForward:          aws.Bool(true),
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(r.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query events of roster %s: %w", rosterID, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (r *dynamoEventRepository) ListByRoster(ctx context.Context, rosterID string) ([]*models.Event, error) {
	raw, err := r.queryRosterEvents(ctx, rosterID, false)
	if err != nil {
		return nil, err
	}
	var items []eventItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	events := make([]*models.Event, 0, len(items))
	for i := range items {
		items[i].Event.Normalize()
		events = append(events, &items[i].Event)
	}
	return events, nil
}

func (r *dynamoEventRepository) DeleteByRoster(ctx context.Context, rosterID string) (int, error) {
	keys, err := r.queryRosterEvents(ctx, rosterID, true)
	if err != nil {
		return 0, err
	}

	removed := 0
	for start := 0; start < len(keys); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(keys) {
			end = len(keys)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{
					"PK": key["PK"],
					"SK": key["SK"],
				}},
			})
		}
		if err := r.batchDelete(ctx, requests); err != nil {
			return removed, err
		}
		removed += len(requests)
	}
	return removed, nil
}

// batchDelete resubmits unprocessed items a few times before giving up.
func (r *dynamoEventRepository) batchDelete(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.store.tableName: requests}
	for attempt := 0; attempt < 5 && len(pending[r.store.tableName]) > 0; attempt++ {
		out, err := r.store.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("failed to batch delete events: %w", err)
		}
		pending = out.UnprocessedItems
		if len(pending[r.store.tableName]) > 0 {
			time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
		}
	}
	if left := len(pending[r.store.tableName]); left > 0 {
		return fmt.Errorf("failed to delete %d events after retries", left)
	}
	return nil
}
