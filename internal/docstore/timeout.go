package docstore

import (
	"context"
	"time"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every call on next by d, on top of whatever deadline the
// caller's context already carries.
func WithTimeout(next Store, d time.Duration) Store {
	if d <= 0 {
		return next
	}
	return &timeoutStore{next: next, timeout: d}
}

func (s *timeoutStore) Get(ctx context.Context, collection, key string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Get(ctx, collection, key)
}

func (s *timeoutStore) Create(ctx context.Context, collection string, doc Document) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Create(ctx, collection, doc)
}

func (s *timeoutStore) Put(ctx context.Context, collection string, doc Document, expectedVersion int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Put(ctx, collection, doc, expectedVersion)
}

func (s *timeoutStore) Delete(ctx context.Context, collection, key string, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Delete(ctx, collection, key, expectedVersion)
}

func (s *timeoutStore) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Query(ctx, collection, f)
}

func (s *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Ping(ctx)
}

func (s *timeoutStore) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}
