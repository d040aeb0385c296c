package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
)

type downStore struct{ *docstore.MemoryStore }

func (downStore) Ping(context.Context) error { return errors.New("server selection timeout") }

func TestHealth(t *testing.T) {
	ok := NewHealthService(docstore.NewMemoryStore(), "brewhaven-cafe-api", "1.0.0", "dev", "memory").Check(context.Background())
	assert.Equal(t, StatusHealthy, ok.Status)
	assert.True(t, ok.StoreReachable)
	assert.Equal(t, "memory", ok.StoreDriver)
	assert.Empty(t, ok.Detail)

	down := NewHealthService(downStore{docstore.NewMemoryStore()}, "brewhaven-cafe-api", "1.0.0", "dev", "mongo").Check(context.Background())
	assert.Equal(t, StatusDegraded, down.Status)
	assert.False(t, down.StoreReachable)
	assert.Contains(t, down.Detail, "server selection timeout")
}
