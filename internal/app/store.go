package app

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/brewhaven/internal/config"
	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/repo"
	"github.com/Skotchmaster/brewhaven/pkg/db"
)

// OpenStore connects the document store named by cfg.StoreDriver and wraps it
// with the per-call timeout.
func OpenStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	var store docstore.Store

	switch cfg.StoreDriver {
	case config.DriverMemory:
		store = docstore.NewMemoryStore()

	case config.DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required for the %s driver", cfg.StoreDriver)
		}
		mdb, err := docstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		ms := docstore.NewMongoStore(mdb)
		if err := ms.EnsureIndexes(ctx, repo.Collections...); err != nil {
			_ = ms.Close(ctx)
			return nil, err
		}
		store = ms

	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s driver", cfg.StoreDriver)
		}
		gdb, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		gs, err := docstore.NewGormStore(ctx, gdb)
		if err != nil {
			return nil, err
		}
		store = gs

	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		gs, err := docstore.NewGormStore(ctx, gdb)
		if err != nil {
			return nil, err
		}
		store = gs

	case config.DriverDynamo:
		client, err := docstore.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoURL)
		if err != nil {
			return nil, err
		}
		ds := docstore.NewDynamoStore(client, cfg.DynamoTable)
		if err := ds.EnsureTable(ctx); err != nil {
			return nil, err
		}
		store = ds

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	return docstore.WithTimeout(store, cfg.StoreTimeout), nil
}
