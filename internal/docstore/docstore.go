// Package docstore is the key/value document capability the shop runs on:
// get, create-if-absent, version-checked put, delete and partition queries
// over named collections. Drivers exist for MongoDB, SQL databases through
// gorm, DynamoDB and process memory.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrVersionConflict = errors.New("document version conflict")
)

// AnyVersion disables the version check on Put and Delete.
const AnyVersion int64 = 0

// Document is one stored record. Version is assigned by the store: 1 on
// create, +1 on every successful write.
type Document struct {
	Key       string
	Partition string
	Version   int64
	Data      json.RawMessage
	UpdatedAt time.Time
}

type Filter struct {
	// Partition restricts the query to one partition; empty means all.
	Partition string
	// Limit caps the result size; zero means no limit.
	Limit int
}

type Store interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	Create(ctx context.Context, collection string, doc Document) (int64, error)
	Put(ctx context.Context, collection string, doc Document, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, collection, key string, expectedVersion int64) error
	// Query returns documents sorted by key.
	Query(ctx context.Context, collection string, f Filter) ([]Document, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsDomainError reports whether err is one of the store's outcome sentinels
// rather than an infrastructure failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrVersionConflict)
}
