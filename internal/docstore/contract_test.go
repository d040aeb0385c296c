package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every driver must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "baskets", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateThenGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		v, err := s.Create(ctx, "baskets", Document{Key: "u1", Partition: "u1", Data: json.RawMessage(`{"items":{}}`)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		doc, err := s.Get(ctx, "baskets", "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.Key)
		assert.Equal(t, "u1", doc.Partition)
		assert.Equal(t, int64(1), doc.Version)
		assert.JSONEq(t, `{"items":{}}`, string(doc.Data))
		assert.False(t, doc.UpdatedAt.IsZero())
	})

	t.Run("CreateIsIfAbsent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, "catalog", Document{Key: "1", Partition: "Coffee", Data: json.RawMessage(`{"name":"Espresso Shot"}`)})
		require.NoError(t, err)

		_, err = s.Create(ctx, "catalog", Document{Key: "1", Partition: "Coffee", Data: json.RawMessage(`{"name":"other"}`)})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		doc, err := s.Get(ctx, "catalog", "1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Espresso Shot"}`, string(doc.Data))
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, "baskets", Document{Key: "k", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)
		_, err = s.Create(ctx, "orders", Document{Key: "k", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)

		_, err = s.Get(ctx, "catalog", "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PutChecksVersion", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, "baskets", Document{Key: "u1", Partition: "u1", Data: json.RawMessage(`{"n":1}`)})
		require.NoError(t, err)

		v, err := s.Put(ctx, "baskets", Document{Key: "u1", Partition: "u1", Data: json.RawMessage(`{"n":2}`)}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		_, err = s.Put(ctx, "baskets", Document{Key: "u1", Partition: "u1", Data: json.RawMessage(`{"n":3}`)}, 1)
		assert.ErrorIs(t, err, ErrVersionConflict)

		doc, err := s.Get(ctx, "baskets", "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), doc.Version)
		assert.JSONEq(t, `{"n":2}`, string(doc.Data))
	})

	t.Run("PutMissingWithVersion", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(context.Background(), "baskets", Document{Key: "ghost", Data: json.RawMessage(`{}`)}, 4)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PutAnyVersionUpserts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		v, err := s.Put(ctx, "orders", Document{Key: "o1", Partition: "u1", Data: json.RawMessage(`{"a":1}`)}, AnyVersion)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = s.Put(ctx, "orders", Document{Key: "o1", Partition: "u1", Data: json.RawMessage(`{"a":2}`)}, AnyVersion)
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		doc, err := s.Get(ctx, "orders", "o1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), doc.Version)
		assert.JSONEq(t, `{"a":2}`, string(doc.Data))
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, "orders", Document{Key: "o1", Partition: "u1", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)

		assert.ErrorIs(t, s.Delete(ctx, "orders", "o1", 7), ErrVersionConflict)
		require.NoError(t, s.Delete(ctx, "orders", "o1", 1))
		assert.ErrorIs(t, s.Delete(ctx, "orders", "o1", AnyVersion), ErrNotFound)

		_, err = s.Get(ctx, "orders", "o1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("QueryFiltersAndSorts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, d := range []Document{
			{Key: "c", Partition: "u1"},
			{Key: "a", Partition: "u1"},
			{Key: "b", Partition: "u2"},
		} {
			d.Data = json.RawMessage(`{}`)
			_, err := s.Create(ctx, "orders", d)
			require.NoError(t, err)
		}

		all, err := s.Query(ctx, "orders", Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, keys(all))

		u1, err := s.Query(ctx, "orders", Filter{Partition: "u1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, keys(u1))

		one, err := s.Query(ctx, "orders", Filter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, one, 1)

		none, err := s.Query(ctx, "catalog", Filter{Limit: 1})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ConcurrentPutsOneWinner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, "baskets", Document{Key: "u1", Partition: "u1", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)

		const writers = 8
		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				data := json.RawMessage(fmt.Sprintf(`{"writer":%d}`, i))
				_, err := s.Put(ctx, "baskets", Document{Key: "u1", Partition: "u1", Data: data}, 1)
				if err == nil {
					wins.Add(1)
				} else if errors.Is(err, ErrVersionConflict) {
					conflicts.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(writers-1), conflicts.Load())
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func keys(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Key)
	}
	return out
}
