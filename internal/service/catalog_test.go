package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/brewhaven/internal/cache"
	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/repo"
	"github.com/Skotchmaster/brewhaven/internal/search"
)

type countingStore struct {
	*docstore.MemoryStore
	queries atomic.Int32
}

func (c *countingStore) Query(ctx context.Context, collection string, f docstore.Filter) ([]docstore.Document, error) {
	c.queries.Add(1)
	return c.MemoryStore.Query(ctx, collection, f)
}

type stubIndex struct {
	res     search.Result
	err     error
	indexed []models.CatalogItem
}

func (s *stubIndex) Search(context.Context, string, int, int) (search.Result, error) {
	return s.res, s.err
}

func (s *stubIndex) IndexItems(_ context.Context, items []models.CatalogItem) error {
	s.indexed = items
	return nil
}

func seededCatalog(t *testing.T, store docstore.Store) *repo.CatalogRepo {
	t.Helper()
	catalog := repo.NewCatalogRepo(store)
	_, err := NewSeeder(catalog, SeedCatalog(), nil, nil, "").EnsureSeeded(context.Background())
	require.NoError(t, err)
	return catalog
}

func TestCatalog_ListAndCategories(t *testing.T) {
	svc := NewCatalogService(seededCatalog(t, docstore.NewMemoryStore()), nil, nil)
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 13)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "13", all[12].ID)

	pastry, err := svc.ListProducts(ctx, "Pastry")
	require.NoError(t, err)
	assert.Len(t, pastry, 3)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Coffee", "Dessert", "Pastry", "Specialty Drinks"}, cats)
}

func TestCatalog_GetProduct(t *testing.T) {
	svc := NewCatalogService(seededCatalog(t, docstore.NewMemoryStore()), nil, nil)
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, "Matcha Latte", p.Name)

	_, err = svc.GetProduct(ctx, "99")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCatalog_ReadThroughCache(t *testing.T) {
	store := &countingStore{MemoryStore: docstore.NewMemoryStore()}
	catalog := seededCatalog(t, store)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewCatalogService(catalog, cache.NewCatalogCache(client, time.Minute), nil)
	ctx := context.Background()
	store.queries.Store(0)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := svc.ListProducts(ctx, "Coffee")
			assert.NoError(t, err)
			assert.Len(t, items, 4)
		}()
	}
	wg.Wait()
	first := store.queries.Load()
	assert.GreaterOrEqual(t, first, int32(1))

	_, err := svc.ListProducts(ctx, "Coffee")
	require.NoError(t, err)
	assert.Equal(t, first, store.queries.Load())

	svc.Refresh(ctx)
	_, err = svc.ListProducts(ctx, "Coffee")
	require.NoError(t, err)
	assert.Greater(t, store.queries.Load(), first)
}

func TestCatalog_CacheDownFallsThrough(t *testing.T) {
	catalog := seededCatalog(t, docstore.NewMemoryStore())
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	svc := NewCatalogService(catalog, cache.NewCatalogCache(client, time.Minute), nil)
	items, err := svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, items, 13)
}

func TestCatalog_SearchUsesIndex(t *testing.T) {
	idx := &stubIndex{res: search.Result{Total: 1, Items: []models.CatalogItem{{ID: "3", Name: "Café Latte"}}}}
	svc := NewCatalogService(seededCatalog(t, docstore.NewMemoryStore()), nil, idx)

	res, err := svc.Search(context.Background(), "latte", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, SourceIndex, res.Source)
	assert.Equal(t, int64(1), res.Total)
}

func TestCatalog_SearchFallsBackToStore(t *testing.T) {
	idx := &stubIndex{err: search.ErrUnavailable}
	svc := NewCatalogService(seededCatalog(t, docstore.NewMemoryStore()), nil, idx)
	ctx := context.Background()

	res, err := svc.Search(ctx, "LATTE", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, SourceStore, res.Source)
	names := []string{}
	for _, it := range res.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Café Latte", "Mocha Latte", "Iced Caramel Latte", "Matcha Latte"}, names)
	assert.Equal(t, int64(4), res.Total)

	res, err = svc.Search(ctx, "pastry", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Blueberry Muffin", res.Items[0].Name)

	_, err = svc.Search(ctx, "   ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_RefreshReindexes(t *testing.T) {
	idx := &stubIndex{}
	svc := NewCatalogService(seededCatalog(t, docstore.NewMemoryStore()), nil, idx)

	svc.Refresh(context.Background())
	assert.Len(t, idx.indexed, 13)
}

func TestCatalog_StoreDown(t *testing.T) {
	store := newFaultyStore()
	store.onQuery = func(string) error { return errors.New("no route to host") }
	svc := NewCatalogService(repo.NewCatalogRepo(store), nil, nil)

	_, err := svc.ListProducts(context.Background(), "")
	assert.ErrorIs(t, err, ErrPersistence)
}
