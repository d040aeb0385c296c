package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
	"github.com/Skotchmaster/brewhaven/internal/repo"
)

// faultyStore wraps a MemoryStore, counts writes and lets a test intercept
// calls before they reach the store. afterPut sees the outcome of a put that
// reached the store and may replace its error.
type faultyStore struct {
	*docstore.MemoryStore

	mu       sync.Mutex
	puts     map[string]int
	creates  map[string]int
	deletes  map[string]int
	onGet    func(collection string) error
	onPut    func(collection string, n int) error
	afterPut func(collection string, n int, err error) error
	onCreate func(collection string, n int) error
	onDelete func(collection string, n int) error
	onQuery  func(collection string) error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: docstore.NewMemoryStore(),
		puts:        map[string]int{},
		creates:     map[string]int{},
		deletes:     map[string]int{},
	}
}

func (f *faultyStore) Put(ctx context.Context, collection string, doc docstore.Document, expected int64) (int64, error) {
	f.mu.Lock()
	f.puts[collection]++
	n, hook := f.puts[collection], f.onPut
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, n); err != nil {
			return 0, err
		}
	}
	v, err := f.MemoryStore.Put(ctx, collection, doc, expected)

	f.mu.Lock()
	after := f.afterPut
	f.mu.Unlock()
	if after != nil {
		if aerr := after(collection, n, err); aerr != nil {
			return 0, aerr
		}
	}
	return v, err
}

func (f *faultyStore) Get(ctx context.Context, collection, key string) (docstore.Document, error) {
	f.mu.Lock()
	hook := f.onGet
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection); err != nil {
			return docstore.Document{}, err
		}
	}
	return f.MemoryStore.Get(ctx, collection, key)
}

func (f *faultyStore) Create(ctx context.Context, collection string, doc docstore.Document) (int64, error) {
	f.mu.Lock()
	f.creates[collection]++
	n, hook := f.creates[collection], f.onCreate
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, n); err != nil {
			return 0, err
		}
	}
	return f.MemoryStore.Create(ctx, collection, doc)
}

func (f *faultyStore) Delete(ctx context.Context, collection, key string, expected int64) error {
	f.mu.Lock()
	f.deletes[collection]++
	n, hook := f.deletes[collection], f.onDelete
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, n); err != nil {
			return err
		}
	}
	return f.MemoryStore.Delete(ctx, collection, key, expected)
}

func (f *faultyStore) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	f.mu.Lock()
	hook := f.onQuery
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection); err != nil {
			return nil, err
		}
	}
	return f.MemoryStore.Query(ctx, collection, filter)
}

func (f *faultyStore) writes(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts[collection] + f.creates[collection] + f.deletes[collection]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []mykafka.Event
	keys   []string
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(mykafka.Event); ok {
		p.events = append(p.events, ev)
		p.keys = append(p.keys, key)
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store   *faultyStore
	catalog *repo.CatalogRepo
	baskets *repo.BasketRepo
	orders  *repo.OrderRepo
	pub     *recordingPublisher
	basket  *BasketService
	order   *OrderService
}

func newFixture(t *testing.T, items ...models.CatalogItem) *fixture {
	t.Helper()
	store := newFaultyStore()
	f := &fixture{
		store:   store,
		catalog: repo.NewCatalogRepo(store),
		baskets: repo.NewBasketRepo(store),
		orders:  repo.NewOrderRepo(store),
		pub:     &recordingPublisher{},
	}
	raw := repo.NewCatalogRepo(store.MemoryStore)
	for _, it := range items {
		require.NoError(t, raw.Create(context.Background(), it))
	}
	f.basket = NewBasketService(f.baskets, f.catalog, 3, f.pub, "shop_events")
	f.order = NewOrderService(f.baskets, f.orders, 3, f.pub, "shop_events")
	return f
}

func product(id, name, price string) models.CatalogItem {
	return models.CatalogItem{
		ID:       id,
		Name:     name,
		Category: "Coffee",
		Price:    decimal.RequireFromString(price),
		Stock:    10,
	}
}
