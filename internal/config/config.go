package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRuntimeHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL      time.Duration
	AuthzEnabled  bool
	RuntimeConfig string

	Inventory InventoryConfig
}

type InventoryConfig struct {
	InitBatchSize int
	MaxInitDays   int
	InitLockTTL   time.Duration
	MaxRetries    int
	MaxStayNights int
}

// DefaultMaxStayNights bounds a single stay when INVENTORY_MAX_STAY_NIGHTS is unset.
const DefaultMaxStayNights = 365

// StayNightsLimit is the longest stay a reserve, availability or price request may span.
func (c InventoryConfig) StayNightsLimit() int {
	if c.MaxStayNights <= 0 {
		return DefaultMaxStayNights
	}
	return c.MaxStayNights
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		AppName:           v.GetString("APP_SERVICE"),
		AppVersion:        v.GetString("APP_VERSION"),
		Environment:       v.GetString("ENVIRONMENT"),
		HTTPAddr:          v.GetString("HTTP_ADDR"),
		NodeID:            v.GetInt64("NODE_ID"),
		OTLPEndpoint:      v.GetString("OTLP_ENDPOINT"),
		DBType:            strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_TYPE"))),
		DBHost:            v.GetString("DATABASE_HOST"),
		DBPort:            v.GetString("DATABASE_PORT"),
		DBName:            v.GetString("DATABASE_NAME"),
		DBUser:            v.GetString("DATABASE_USER"),
		DBPassword:        v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:         v.GetString("DATABASE_SSLMODE"),
		DBPath:            v.GetString("DATABASE_PATH"),
		DBMaxIdleConn:     v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:     v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime: v.GetInt("DATABASE_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTime: v.GetInt("DATABASE_CONN_MAX_IDLE_TIME"),
		RedisAddr:         strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		AuthzEnabled:      v.GetBool("AUTHZ_ENABLED"),
		RuntimeConfig:     strings.TrimSpace(v.GetString("CONFIG_FILE")),
		Inventory: InventoryConfig{
			InitBatchSize: v.GetInt("INVENTORY_INIT_BATCH_SIZE"),
			MaxInitDays:   v.GetInt("INVENTORY_MAX_INIT_DAYS"),
			InitLockTTL:   v.GetDuration("INVENTORY_INIT_LOCK_TTL"),
			MaxRetries:    v.GetInt("INVENTORY_MAX_RETRIES"),
			MaxStayNights: v.GetInt("INVENTORY_MAX_STAY_NIGHTS"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_SERVICE", "roomledger")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("NODE_ID", 1)
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("DATABASE_TYPE", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "roomledger")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_PATH", "roomledger.db")
	v.SetDefault("DATABASE_MAX_IDLE_CONN", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONN", 50)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 1800)
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", 300)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 30*time.Second)
	v.SetDefault("AUTHZ_ENABLED", true)
	v.SetDefault("INVENTORY_INIT_BATCH_SIZE", 100)
	v.SetDefault("INVENTORY_MAX_INIT_DAYS", 731)
	v.SetDefault("INVENTORY_INIT_LOCK_TTL", 5*time.Minute)
	v.SetDefault("INVENTORY_MAX_RETRIES", 3)
	v.SetDefault("INVENTORY_MAX_STAY_NIGHTS", DefaultMaxStayNights)
}
