package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 3, cfg.BasketMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 60*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "barista", cfg.DemoUsername)
	assert.Equal(t, "shop_events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_DriverFromConnectionSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	assert.Equal(t, DriverMongo, Load().StoreDriver)

	t.Setenv("MONGO_URI", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/shop")
	assert.Equal(t, DriverPostgres, Load().StoreDriver)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("BASKET_MAX_ATTEMPTS", "0")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STORE_TIMEOUT", "750ms")

	cfg := Load()
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 1, cfg.BasketMaxAttempts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
}
