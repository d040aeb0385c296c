package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/brewhaven/internal/cache"
	"github.com/Skotchmaster/brewhaven/internal/config"
	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/httpserver"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
	"github.com/Skotchmaster/brewhaven/internal/repo"
	"github.com/Skotchmaster/brewhaven/internal/search"
	"github.com/Skotchmaster/brewhaven/internal/service"
)

type eventProducer interface {
	service.Publisher
	Close() error
}

// App holds the services of one process and the connections behind them.
type App struct {
	Store   docstore.Store
	Seeder  *service.Seeder
	Catalog *service.CatalogService
	Basket  *service.BasketService
	Orders  *service.OrderService
	Auth    *service.AuthService
	Health  *service.HealthService

	producer eventProducer
	redis    *redis.Client
}

// Build wires the services over store. Redis, Elasticsearch and Kafka are
// used when configured; a failing optional dependency is logged and skipped.
func Build(ctx context.Context, cfg *config.Config, store docstore.Store, buildTime string) (*App, error) {
	l := logging.FromContext(ctx).With("component", "app")

	a := &App{Store: store, producer: mykafka.Nop{}}

	var catalogCache service.CatalogCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			l.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			a.redis = client
			catalogCache = cache.NewCatalogCache(client, cfg.CatalogCacheTTL)
		}
	}

	var index service.SearchIndex
	if cfg.ESURL != "" {
		es, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			l.Warn("elasticsearch_unavailable", "url", cfg.ESURL, "error", err)
		} else {
			index = search.NewIndex(es, cfg.ESIndex)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.producer = mykafka.NewProducer(cfg.KafkaBrokers)
	}

	auth, err := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL, cfg.DemoUsername, cfg.DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	catalogRepo := repo.NewCatalogRepo(store)
	basketRepo := repo.NewBasketRepo(store)
	orderRepo := repo.NewOrderRepo(store)

	a.Auth = auth
	a.Catalog = service.NewCatalogService(catalogRepo, catalogCache, index)
	a.Basket = service.NewBasketService(basketRepo, catalogRepo, cfg.BasketMaxAttempts, a.producer, cfg.KafkaTopic)
	a.Orders = service.NewOrderService(basketRepo, orderRepo, cfg.BasketMaxAttempts, a.producer, cfg.KafkaTopic)
	a.Health = service.NewHealthService(store, cfg.ServiceName, cfg.Version, buildTime, cfg.StoreDriver)
	a.Seeder = service.NewSeeder(catalogRepo, service.SeedCatalog(), a.Catalog.Refresh, a.producer, cfg.KafkaTopic)

	l.Info("app_built",
		"store_driver", cfg.StoreDriver,
		"cache", catalogCache != nil,
		"search_index", index != nil,
		"kafka", len(cfg.KafkaBrokers) > 0)
	return a, nil
}

func (a *App) Deps() *httpserver.Deps {
	return &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: a.Auth},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: a.Catalog},
		BasketHandler:  &httpserver.BasketHTTP{Svc: a.Basket},
		OrderHandler:   &httpserver.OrderHTTP{Svc: a.Orders},
		HealthHandler:  &httpserver.HealthHTTP{Svc: a.Health},
		Resolver:       a.Auth,
	}
}

// Close releases every connection and returns the first error.
func (a *App) Close(ctx context.Context) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	keep(a.producer.Close())
	if a.redis != nil {
		keep(a.redis.Close())
	}
	keep(a.Store.Close(ctx))
	return first
}
