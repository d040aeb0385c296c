package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const dynamoPartitionIndex = "partition-index"

// dynamoItem is the table layout: hash key "collection", range key "doc_key",
// plus a GSI on collection_partition for per-partition queries.
type dynamoItem struct {
	Collection          string `dynamodbav:"collection"`
	Key                 string `dynamodbav:"doc_key"`
	Partition           string `dynamodbav:"partition"`
	CollectionPartition string `dynamodbav:"collection_partition"`
	Version             int64  `dynamodbav:"version"`
	Data                string `dynamodbav:"data"`
	UpdatedAt           string `dynamodbav:"updated_at"`
}

func (it dynamoItem) toDocument() Document {
	updated, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	return Document{
		Key:       it.Key,
		Partition: it.Partition,
		Version:   it.Version,
		Data:      []byte(it.Data),
		UpdatedAt: updated,
	}
}

type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoClient builds a client from the default AWS credential chain. A
// non-empty endpoint points it at DynamoDB Local or LocalStack.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) Get(ctx context.Context, collection, key string) (Document, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(collection, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, key, err)
	}
	if len(out.Item) == 0 {
		return Document{}, ErrNotFound
	}

	var it dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal %s/%s: %w", collection, key, err)
	}
	return it.toDocument(), nil
}

func (s *DynamoStore) Create(ctx context.Context, collection string, doc Document) (int64, error) {
	av, err := s.marshal(collection, doc, 1)
	if err != nil {
		return 0, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(doc_key)"),
	})
	if isConditionFailed(err) {
		return 0, ErrAlreadyExists
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create %s/%s: %w", collection, doc.Key, err)
	}
	return 1, nil
}

func (s *DynamoStore) Put(ctx context.Context, collection string, doc Document, expectedVersion int64) (int64, error) {
	if expectedVersion == AnyVersion {
		return s.upsert(ctx, collection, doc)
	}

	next := expectedVersion + 1
	av, err := s.marshal(collection, doc, next)
	if err != nil {
		return 0, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_exists(doc_key) AND #v = :v"),
		ExpressionAttributeNames: map[string]string{"#v": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		},
	})
	if isConditionFailed(err) {
		return 0, s.missOrConflict(ctx, collection, doc.Key)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to put %s/%s: %w", collection, doc.Key, err)
	}
	return next, nil
}

func (s *DynamoStore) upsert(ctx context.Context, collection string, doc Document) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              s.key(collection, doc.Key),
		UpdateExpression: aws.String("SET #p = :p, collection_partition = :cp, #d = :d, updated_at = :u ADD #v :one"),
		ExpressionAttributeNames: map[string]string{
			"#p": "partition",
			"#d": "data",
			"#v": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: doc.Partition},
			":cp":  &types.AttributeValueMemberS{Value: collectionPartition(collection, doc.Partition)},
			":d":   &types.AttributeValueMemberS{Value: string(doc.Data)},
			":u":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert %s/%s: %w", collection, doc.Key, err)
	}

	var res struct {
		Version int64 `dynamodbav:"version"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &res); err != nil {
		return 0, fmt.Errorf("failed to read version of %s/%s: %w", collection, doc.Key, err)
	}
	return res.Version, nil
}

func (s *DynamoStore) Delete(ctx context.Context, collection, key string, expectedVersion int64) error {
	in := &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 s.key(collection, key),
		ConditionExpression: aws.String("attribute_exists(doc_key)"),
	}
	if expectedVersion != AnyVersion {
		in.ConditionExpression = aws.String("attribute_exists(doc_key) AND #v = :v")
		in.ExpressionAttributeNames = map[string]string{"#v": "version"}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		}
	}

	_, err := s.client.DeleteItem(ctx, in)
	if isConditionFailed(err) {
		if expectedVersion == AnyVersion {
			return ErrNotFound
		}
		return s.missOrConflict(ctx, collection, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *DynamoStore) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(s.tableName),
		KeyConditionExpression:   aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": "collection"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: collection},
		},
		ConsistentRead:   aws.Bool(true),
		ScanIndexForward: aws.Bool(true),
	}
	if f.Partition != "" {
		// GSIs do not support consistent reads, so a write made just before
		// may not show up yet.
		in.IndexName = aws.String(dynamoPartitionIndex)
		in.KeyConditionExpression = aws.String("collection_partition = :cp")
		in.ExpressionAttributeNames = nil
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":cp": &types.AttributeValueMemberS{Value: collectionPartition(collection, f.Partition)},
		}
		in.ConsistentRead = nil
	} else if f.Limit > 0 {
		in.Limit = aws.Int32(int32(f.Limit))
	}

	var out []Document
	p := dynamodb.NewQueryPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", collection, err)
		}
		for _, it := range items {
			out = append(out, it.toDocument())
		}
		if f.Partition == "" && f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	return err
}

func (s *DynamoStore) Close(context.Context) error {
	return nil
}

// EnsureTable creates the documents table with on-demand billing when it
// does not exist yet.
func (s *DynamoStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("collection"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("doc_key"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("collection_partition"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("collection"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("doc_key"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(dynamoPartitionIndex),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("collection_partition"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("doc_key"), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *DynamoStore) key(collection, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: collection},
		"doc_key":    &types.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoStore) marshal(collection string, doc Document, version int64) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(dynamoItem{
		Collection:          collection,
		Key:                 doc.Key,
		Partition:           doc.Partition,
		CollectionPartition: collectionPartition(collection, doc.Partition),
		Version:             version,
		Data:                string(doc.Data),
		UpdatedAt:           time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s/%s: %w", collection, doc.Key, err)
	}
	return av, nil
}

func (s *DynamoStore) missOrConflict(ctx context.Context, collection, key string) error {
	if _, err := s.Get(ctx, collection, key); err != nil {
		return err
	}
	return ErrVersionConflict
}

func collectionPartition(collection, partition string) string {
	return collection + "#" + partition
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
