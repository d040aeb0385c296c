package docstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory. It backs local runs without
// a database and the service tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Document
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: map[string]map[string]Document{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][key]
	if !ok {
		return Document{}, ErrNotFound
	}
	return clone(doc), nil
}

func (m *MemoryStore) Create(ctx context.Context, collection string, doc Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collection(collection)
	if _, ok := coll[doc.Key]; ok {
		return 0, ErrAlreadyExists
	}
	doc = clone(doc)
	doc.Version = 1
	doc.UpdatedAt = m.now()
	coll[doc.Key] = doc
	return doc.Version, nil
}

func (m *MemoryStore) Put(ctx context.Context, collection string, doc Document, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collection(collection)
	cur, ok := coll[doc.Key]
	switch {
	case !ok && expectedVersion != AnyVersion:
		return 0, ErrNotFound
	case ok && expectedVersion != AnyVersion && cur.Version != expectedVersion:
		return 0, ErrVersionConflict
	}

	doc = clone(doc)
	doc.Version = cur.Version + 1
	doc.UpdatedAt = m.now()
	coll[doc.Key] = doc
	return doc.Version, nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, key string, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collection(collection)
	cur, ok := coll[key]
	if !ok {
		return ErrNotFound
	}
	if expectedVersion != AnyVersion && cur.Version != expectedVersion {
		return ErrVersionConflict
	}
	delete(coll, key)
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Document, 0, len(m.data[collection]))
	for _, doc := range m.data[collection] {
		if f.Partition != "" && doc.Partition != f.Partition {
			continue
		}
		out = append(out, clone(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}

// must be called with mu held for writing
func (m *MemoryStore) collection(name string) map[string]Document {
	coll, ok := m.data[name]
	if !ok {
		coll = map[string]Document{}
		m.data[name] = coll
	}
	return coll
}

func clone(doc Document) Document {
	if doc.Data != nil {
		doc.Data = append([]byte(nil), doc.Data...)
	}
	return doc
}
