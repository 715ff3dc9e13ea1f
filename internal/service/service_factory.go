package service

import (
	"go.uber.org/zap"

	"posture-service/internal/client"
	"posture-service/internal/config"
	"posture-service/internal/repository/clickhouse"
	"posture-service/internal/repository/postgres"
	redisrepo "posture-service/internal/repository/redis"
	"posture-service/internal/risk"
	"posture-service/internal/source"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	cfg      *config.Config
	fetcher  source.Fetcher
	identity postgres.IdentityStore
	device   postgres.DeviceStore
	alert    postgres.AlertStore
	breach   postgres.BreachStore
	snapshot postgres.SnapshotStore
	syncLog  clickhouse.SyncLogStore
	cache    *redisrepo.DashboardCache
	producer *client.KafkaProducer
	es       *client.ESClient
	riskCfg  *risk.ConfigStore
	logger   *zap.Logger

	statsCollector   *StatsCollector
	alertIndexer     *AlertIndexer
	syncService      *SyncService
	orchestrator     *Orchestrator
	dashboardService *DashboardService
	snapshotService  *SnapshotService
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(
	cfg *config.Config,
	fetcher source.Fetcher,
	identity postgres.IdentityStore,
	device postgres.DeviceStore,
	alert postgres.AlertStore,
	breach postgres.BreachStore,
	snapshot postgres.SnapshotStore,
	syncLog clickhouse.SyncLogStore,
	cache *redisrepo.DashboardCache,
	producer *client.KafkaProducer,
	es *client.ESClient,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		cfg:      cfg,
		fetcher:  fetcher,
		identity: identity,
		device:   device,
		alert:    alert,
		breach:   breach,
		snapshot: snapshot,
		syncLog:  syncLog,
		cache:    cache,
		producer: producer,
		es:       es,
		riskCfg:  risk.NewConfigStore(),
		logger:   logger,
	}
}

// RiskConfig returns the shared runtime scoring configuration.
func (f *ServiceFactory) RiskConfig() *risk.ConfigStore {
	return f.riskCfg
}

// StatsCollector returns the fleet stats collector (singleton)
func (f *ServiceFactory) StatsCollector() *StatsCollector {
	if f.statsCollector == nil {
		f.statsCollector = NewStatsCollector(f.identity, f.device, f.alert, f.breach)
	}
	return f.statsCollector
}

// AlertIndexer returns the alert search indexer (singleton)
func (f *ServiceFactory) AlertIndexer() *AlertIndexer {
	if f.alertIndexer == nil {
		f.alertIndexer = NewAlertIndexer(f.es, f.cfg.Elastic.AlertIndex, f.logger)
	}
	return f.alertIndexer
}

// SyncService returns the feed reconciliation service (singleton)
func (f *ServiceFactory) SyncService() *SyncService {
	if f.syncService == nil {
		f.syncService = NewSyncService(
			f.fetcher,
			f.identity,
			f.device,
			f.alert,
			f.breach,
			f.syncLog,
			f.AlertIndexer(),
			f.cfg.Sync.BatchSize,
			f.logger,
		)
	}
	return f.syncService
}

// Orchestrator returns the sync orchestrator (singleton)
func (f *ServiceFactory) Orchestrator() *Orchestrator {
	if f.orchestrator == nil {
		notifier := NewSyncNotifier(f.producer, f.cfg.Kafka.SyncTopic, f.logger)
		f.orchestrator = NewOrchestrator(f.SyncService(), f.cache, notifier, f.logger)
	}
	return f.orchestrator
}

// DashboardService returns the dashboard service (singleton)
func (f *ServiceFactory) DashboardService() *DashboardService {
	if f.dashboardService == nil {
		f.dashboardService = NewDashboardService(f.StatsCollector(), f.riskCfg, f.cache, f.logger)
	}
	return f.dashboardService
}

// SnapshotService returns the daily snapshot service (singleton)
func (f *ServiceFactory) SnapshotService() *SnapshotService {
	if f.snapshotService == nil {
		f.snapshotService = NewSnapshotService(
			f.StatsCollector(),
			f.riskCfg,
			f.snapshot,
			f.cfg.Sync.SnapshotTimezone,
			f.logger,
		)
	}
	return f.snapshotService
}
