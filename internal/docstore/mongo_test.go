package docstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	n := 0
	runStoreContract(t, func(t *testing.T) Store {
		n++
		db, err := ConnectMongoDB(ctx, uri, fmt.Sprintf("testdb_%d", n))
		require.NoError(t, err)

		s := NewMongoStore(db)
		require.NoError(t, s.EnsureIndexes(ctx, "catalog", "baskets", "orders"))
		t.Cleanup(func() { _ = db.Drop(ctx) })
		return s
	})
}
