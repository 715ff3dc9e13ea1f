package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"posture-service/internal/util"
)

// Config holds the full application configuration, loaded once at startup
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Clickhouse  ClickhouseConfig
	Elastic     ElasticsearchConfig
	Sources     SourcesConfig
	Sync        SyncConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers   []string
	SyncTopic string
}

type ClickhouseConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

type ElasticsearchConfig struct {
	URL        string
	Username   string
	Password   string
	AlertIndex string
}

// SourcesConfig maps each feed to its spreadsheet and read range
type SourcesConfig struct {
	BaseURL string
	APIKey  string

	IdentitySheetID string
	IdentityRange   string
	DeviceSheetID   string
	DeviceRange     string
	AlertSheetID    string
	AlertRange      string
	BreachSheetID   string
	BreachRange     string
}

type SyncConfig struct {
	BatchSize         int
	Interval          time.Duration
	SnapshotHour      int
	SnapshotTimezone  string
	DashboardCacheTTL time.Duration
}

// LoadConfig reads the .env file (if present) and builds the configuration
// from environment variables with sane defaults for local development.
func LoadConfig() *Config {
	// Missing .env is fine in containers where env is injected directly
	_ = godotenv.Load()

	return &Config{
		Environment: util.GetEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         util.GetEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  util.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: util.GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  util.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  util.GetEnv("LOG_LEVEL", "info"),
			Format: util.GetEnv("LOG_FORMAT", "json"),
		},
		Postgres: PostgresConfig{
			Host:         util.GetEnv("POSTGRES_HOST", "localhost"),
			Port:         util.GetEnvInt("POSTGRES_PORT", 5432),
			User:         util.GetEnv("POSTGRES_USER", "posture"),
			Password:     util.GetEnv("POSTGRES_PASSWORD", "posture"),
			Database:     util.GetEnv("POSTGRES_DB", "posture"),
			SSLMode:      util.GetEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns: util.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns: util.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 10),
		},
		Redis: RedisConfig{
			URL:      util.GetEnv("REDIS_URL", "redis://localhost:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvInt("REDIS_DB", 0),
			PoolSize: util.GetEnvInt("REDIS_POOL_SIZE", 20),
		},
		Kafka: KafkaConfig{
			Brokers:   util.GetEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			SyncTopic: util.GetEnv("KAFKA_SYNC_TOPIC", "posture.sync.completed"),
		},
		Clickhouse: ClickhouseConfig{
			URL:      util.GetEnv("CLICKHOUSE_URL", "localhost:9000"),
			Username: util.GetEnv("CLICKHOUSE_USER", "default"),
			Password: util.GetEnv("CLICKHOUSE_PASSWORD", ""),
			Database: util.GetEnv("CLICKHOUSE_DB", "posture"),
		},
		Elastic: ElasticsearchConfig{
			URL:        util.GetEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   util.GetEnv("ELASTICSEARCH_USER", ""),
			Password:   util.GetEnv("ELASTICSEARCH_PASSWORD", ""),
			AlertIndex: util.GetEnv("ELASTICSEARCH_ALERT_INDEX", "posture-alerts"),
		},
		Sources: SourcesConfig{
			BaseURL: util.GetEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com"),
			APIKey:  util.GetEnv("SHEETS_API_KEY", ""),

			IdentitySheetID: util.GetEnv("KB4_SHEET_ID", ""),
			IdentityRange:   util.GetEnv("KB4_SHEET_RANGE", "Users!A:Z"),
			DeviceSheetID:   util.GetEnv("NCM_SHEET_ID", ""),
			DeviceRange:     util.GetEnv("NCM_SHEET_RANGE", "Devices!A:Z"),
			AlertSheetID:    util.GetEnv("EDR_SHEET_ID", ""),
			AlertRange:      util.GetEnv("EDR_SHEET_RANGE", "Alerts!A:Z"),
			BreachSheetID:   util.GetEnv("HIBP_SHEET_ID", ""),
			BreachRange:     util.GetEnv("HIBP_SHEET_RANGE", "Breaches!A:Z"),
		},
		Sync: SyncConfig{
			BatchSize:         util.GetEnvInt("SYNC_BATCH_SIZE", 100),
			Interval:          util.GetEnvDuration("SYNC_INTERVAL", time.Hour),
			SnapshotHour:      util.GetEnvInt("SNAPSHOT_HOUR", 23),
			SnapshotTimezone:  util.GetEnv("SNAPSHOT_TIMEZONE", "UTC"),
			DashboardCacheTTL: util.GetEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
