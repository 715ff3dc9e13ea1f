package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"posture-service/internal/client"
	"posture-service/internal/config"
	"posture-service/internal/repository/clickhouse"
	"posture-service/internal/repository/postgres"
	redisrepo "posture-service/internal/repository/redis"
	"posture-service/internal/service"
	"posture-service/internal/source"
	"posture-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	// Clients
	postgresClient   *postgres.Client
	redisClient      *client.RedisClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	// Feed access
	gridClient *source.HTTPGridClient
	fetcher    *source.SheetFetcher

	// Repositories
	identityRepo postgres.IdentityStore
	deviceRepo   postgres.DeviceStore
	alertRepo    postgres.AlertStore
	breachRepo   postgres.BreachStore
	snapshotRepo postgres.SnapshotStore
	syncLogRepo  clickhouse.SyncLogStore
	cache        *redisrepo.DashboardCache

	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	if err := factory.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	factory.initializeRepositories()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Int("sync_batch_size", cfg.Sync.BatchSize),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// Postgres
	if pg, err := postgres.NewClient(f.config.Postgres, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("postgres: %w", err))
	} else {
		f.postgresClient = pg
		if err := f.postgresClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("postgres health check: %w", err))
		} else {
			util.Info("Postgres client initialized and healthy")
		}
	}

	// Redis
	if rc, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = rc
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	// Kafka
	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
		util.Info("Kafka producer initialized")
	}

	// Elasticsearch
	if es, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
	} else {
		f.esClient = es
		if err := f.esClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch health check: %w", err))
		} else {
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	// ClickHouse
	if ch, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
	} else {
		f.clickhouseClient = ch
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse health check: %w", err))
		} else {
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	f.gridClient = source.NewHTTPGridClient(f.config.Sources, util.Get())

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// migrate applies schemas on startup. All statements are idempotent.
func (f *Factory) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if f.postgresClient != nil {
		if err := f.postgresClient.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
		util.Info("Postgres schema applied")
	}

	if f.clickhouseClient != nil {
		repo := clickhouse.NewSyncLogRepository(f.clickhouseClient)
		if err := repo.Migrate(ctx); err != nil {
			if f.config.IsProduction() {
				return fmt.Errorf("clickhouse migrate: %w", err)
			}
			util.Warn("ClickHouse migrate failed - sync audit log unavailable", util.ErrorField(err))
		} else {
			f.syncLogRepo = repo
			util.Info("ClickHouse schema applied")
		}
	}

	return nil
}

// initializeRepositories wires the stores over the initialized clients
func (f *Factory) initializeRepositories() {
	if f.postgresClient != nil {
		f.identityRepo = postgres.NewIdentityRepository(f.postgresClient)
		f.deviceRepo = postgres.NewDeviceRepository(f.postgresClient)
		f.alertRepo = postgres.NewAlertRepository(f.postgresClient)
		f.breachRepo = postgres.NewBreachRepository(f.postgresClient)
		f.snapshotRepo = postgres.NewSnapshotRepository(f.postgresClient)
	}
	if f.syncLogRepo == nil && f.clickhouseClient != nil {
		f.syncLogRepo = clickhouse.NewSyncLogRepository(f.clickhouseClient)
	}
	if f.redisClient != nil {
		f.cache = redisrepo.NewDashboardCache(f.redisClient, f.config.Sync.DashboardCacheTTL)
	}
	f.fetcher = source.NewSheetFetcher(f.gridClient, f.config.Sources)
}

// ServiceFactory returns the service factory (singleton)
func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		f.serviceFactory = service.NewServiceFactory(
			f.config,
			f.fetcher,
			f.identityRepo,
			f.deviceRepo,
			f.alertRepo,
			f.breachRepo,
			f.snapshotRepo,
			f.syncLogRepo,
			f.cache,
			f.kafkaProducer,
			f.esClient,
			util.Get(),
		)
	}
	return f.serviceFactory
}

// HealthCheck probes every backing store
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.postgresClient != nil {
		if err := f.postgresClient.HealthCheck(ctx); err != nil {
			healthErrors["postgres"] = err
		}
	} else {
		healthErrors["postgres"] = fmt.Errorf("postgres client not initialized")
	}

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	} else {
		healthErrors["elasticsearch"] = fmt.Errorf("elasticsearch client not initialized")
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	} else {
		healthErrors["clickhouse"] = fmt.Errorf("clickhouse client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

// IsHealthy reports whether the critical stores are reachable. Kafka is
// advisory: sync events degrade to log lines without it.
func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			} else {
				util.Info("ClickHouse client closed")
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
			util.Info("Elasticsearch client closed")
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.postgresClient != nil {
			if err := f.postgresClient.Close(); err != nil {
				util.Error("Failed to close Postgres client", util.ErrorField(err))
			} else {
				util.Info("Postgres client closed")
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

// SyncLogStore exposes the audit log store for the HTTP layer.
func (f *Factory) SyncLogStore() clickhouse.SyncLogStore {
	return f.syncLogRepo
}
