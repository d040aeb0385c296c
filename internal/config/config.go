package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/brewhaven/pkg/config"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDynamo   = "dynamodb"
)

type Config struct {
	ServiceName string
	Version     string
	ServerPort  int
	LogLevel    string

	StoreDriver  string
	StoreTimeout time.Duration
	MongoURI     string
	MongoDB      string
	DatabaseURL  string
	SQLitePath   string
	DynamoTable  string
	DynamoURL    string
	AWSRegion    string

	BasketMaxAttempts int

	JWTSecret    []byte
	TokenTTL     time.Duration
	DemoUsername string
	DemoPassword string

	RedisAddr       string
	RedisPassword   string
	CatalogCacheTTL time.Duration

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads .env (when present) and the process environment. It never fails:
// required values are checked by the commands that need them.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServiceName: pkgconfig.EnvDefault("SERVICE_NAME", "brewhaven-cafe-api"),
		Version:     pkgconfig.EnvDefault("SERVICE_VERSION", "1.0.0"),
		ServerPort:  pkgconfig.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		StoreTimeout: pkgconfig.EnvDurationDefault("STORE_TIMEOUT", 5*time.Second),
		MongoURI:     pkgconfig.EnvDefault("MONGO_URI", ""),
		MongoDB:      pkgconfig.EnvDefault("MONGO_DB", "cloudmart"),
		DatabaseURL:  pkgconfig.EnvDefault("DATABASE_URL", ""),
		SQLitePath:   pkgconfig.EnvDefault("SQLITE_PATH", "brewhaven.db"),
		DynamoTable:  pkgconfig.EnvDefault("DYNAMO_TABLE", "brewhaven-documents"),
		DynamoURL:    pkgconfig.EnvDefault("DYNAMO_ENDPOINT", ""),
		AWSRegion:    pkgconfig.EnvDefault("AWS_REGION", "us-east-1"),

		BasketMaxAttempts: pkgconfig.EnvIntDefault("BASKET_MAX_ATTEMPTS", 3),

		JWTSecret:    []byte(pkgconfig.EnvDefault("JWT_SECRET", "brewhaven-dev-secret-key")),
		TokenTTL:     pkgconfig.EnvDurationDefault("TOKEN_TTL", 60*time.Minute),
		DemoUsername: pkgconfig.EnvDefault("DEMO_USERNAME", "barista"),
		DemoPassword: pkgconfig.EnvDefault("DEMO_PASSWORD", "coffee123"),

		RedisAddr:       pkgconfig.EnvDefault("REDIS_ADDR", ""),
		RedisPassword:   pkgconfig.EnvDefault("REDIS_PASSWORD", ""),
		CatalogCacheTTL: pkgconfig.EnvDurationDefault("CATALOG_CACHE_TTL", 15*time.Minute),

		ESURL:      pkgconfig.EnvDefault("ES_URL", ""),
		ESUser:     pkgconfig.EnvDefault("ES_USER", ""),
		ESPassword: pkgconfig.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    pkgconfig.EnvDefault("ES_INDEX", "products"),

		KafkaBrokers: pkgconfig.CSV(pkgconfig.EnvDefault("KAFKA_BROKERS", "")),
		KafkaTopic:   pkgconfig.EnvDefault("KAFKA_TOPIC", "shop_events"),
	}

	cfg.StoreDriver = pkgconfig.EnvDefault("STORE_DRIVER", defaultDriver(cfg))
	pkgconfig.MustOneOf(cfg.StoreDriver, "STORE_DRIVER",
		DriverMemory, DriverMongo, DriverPostgres, DriverSQLite, DriverDynamo)

	if cfg.BasketMaxAttempts < 1 {
		cfg.BasketMaxAttempts = 1
	}

	return cfg
}

// defaultDriver picks the network store that has connection settings, and
// falls back to the in-process store for local runs without a database.
func defaultDriver(cfg *Config) string {
	switch {
	case cfg.MongoURI != "":
		return DriverMongo
	case cfg.DatabaseURL != "":
		return DriverPostgres
	default:
		return DriverMemory
	}
}
