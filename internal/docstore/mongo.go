package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDocument struct {
	Key       string    `bson:"_id"`
	Partition string    `bson:"partition"`
	Version   int64     `bson:"version"`
	Data      bson.D    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore maps each logical collection onto a MongoDB collection of the
// same name, with the document key as _id.
type MongoStore struct {
	db *mongo.Database
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the partition index on every named collection.
func (s *MongoStore) EnsureIndexes(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "partition", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("partition_idx"),
		})
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var md mongoDocument
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&md)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, key, err)
	}
	return fromMongo(md)
}

func (s *MongoStore) Create(ctx context.Context, collection string, doc Document) (int64, error) {
	md, err := toMongo(doc)
	if err != nil {
		return 0, err
	}
	md.Version = 1
	md.UpdatedAt = time.Now().UTC()

	_, err = s.db.Collection(collection).InsertOne(ctx, md)
	if mongo.IsDuplicateKeyError(err) {
		return 0, ErrAlreadyExists
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create %s/%s: %w", collection, doc.Key, err)
	}
	return 1, nil
}

func (s *MongoStore) Put(ctx context.Context, collection string, doc Document, expectedVersion int64) (int64, error) {
	md, err := toMongo(doc)
	if err != nil {
		return 0, err
	}
	coll := s.db.Collection(collection)
	now := time.Now().UTC()

	if expectedVersion == AnyVersion {
		update := bson.M{
			"$set": bson.M{"partition": md.Partition, "data": md.Data, "updated_at": now},
			"$inc": bson.M{"version": 1},
		}
		opts := options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After).
			SetProjection(bson.M{"version": 1})

		var out struct {
			Version int64 `bson:"version"`
		}
		if err := coll.FindOneAndUpdate(ctx, bson.M{"_id": doc.Key}, update, opts).Decode(&out); err != nil {
			return 0, fmt.Errorf("failed to upsert %s/%s: %w", collection, doc.Key, err)
		}
		return out.Version, nil
	}

	md.Version = expectedVersion + 1
	md.UpdatedAt = now
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": doc.Key, "version": expectedVersion}, md)
	if err != nil {
		return 0, fmt.Errorf("failed to put %s/%s: %w", collection, doc.Key, err)
	}
	if res.MatchedCount == 0 {
		return 0, s.missOrConflict(ctx, coll, doc.Key)
	}
	return md.Version, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, key string, expectedVersion int64) error {
	coll := s.db.Collection(collection)
	filter := bson.M{"_id": key}
	if expectedVersion != AnyVersion {
		filter["version"] = expectedVersion
	}

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, key, err)
	}
	if res.DeletedCount == 0 {
		if expectedVersion == AnyVersion {
			return ErrNotFound
		}
		return s.missOrConflict(ctx, coll, key)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	filter := bson.M{}
	if f.Partition != "" {
		filter["partition"] = f.Partition
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var md mongoDocument
		if err := cur.Decode(&md); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
		}
		doc, err := fromMongo(md)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoStore) missOrConflict(ctx context.Context, coll *mongo.Collection, key string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to check %s/%s: %w", coll.Name(), key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// Payloads are stored as embedded documents so they stay queryable from the
// mongo shell.
func toMongo(doc Document) (mongoDocument, error) {
	data := bson.D{}
	if len(doc.Data) > 0 {
		if err := bson.UnmarshalExtJSON(doc.Data, false, &data); err != nil {
			return mongoDocument{}, fmt.Errorf("failed to convert %s to bson: %w", doc.Key, err)
		}
	}
	return mongoDocument{Key: doc.Key, Partition: doc.Partition, Data: data}, nil
}

func fromMongo(md mongoDocument) (Document, error) {
	if md.Data == nil {
		md.Data = bson.D{}
	}
	data, err := bson.MarshalExtJSON(md.Data, false, false)
	if err != nil {
		return Document{}, fmt.Errorf("failed to convert %s to json: %w", md.Key, err)
	}
	return Document{
		Key:       md.Key,
		Partition: md.Partition,
		Version:   md.Version,
		Data:      data,
		UpdatedAt: md.UpdatedAt,
	}, nil
}
