package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/models"
	"posture-service/internal/risk"
	"posture-service/internal/util"
)

// DashboardCache is the read-model cache contract; a miss or failure
// always degrades to recompute.
type DashboardCache interface {
	Get(ctx context.Context) (*models.Dashboard, bool)
	Set(ctx context.Context, dash *models.Dashboard) error
}

// DashboardService computes the composite risk view over current
// aggregates.
type DashboardService struct {
	collector *StatsCollector
	riskCfg   *risk.ConfigStore
	cache     DashboardCache
	logger    *zap.Logger
}

func NewDashboardService(collector *StatsCollector, riskCfg *risk.ConfigStore, cache DashboardCache, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		collector: collector,
		riskCfg:   riskCfg,
		cache:     cache,
		logger:    logger,
	}
}

// ComputeDashboard scores the current posture. The cached payload is
// served when present; sync completion invalidates it.
func (s *DashboardService) ComputeDashboard(ctx context.Context) (*models.Dashboard, error) {
	if s.cache != nil {
		if dash, ok := s.cache.Get(ctx); ok {
			return dash, nil
		}
	}

	cfg := s.riskCfg.Snapshot()
	stats, err := s.collector.Collect(ctx, cfg.Factors)
	if err != nil {
		return nil, err
	}

	assessment := risk.Evaluate(cfg, stats)
	dash := &models.Dashboard{
		OverallScore: assessment.Overall,
		RiskLevel:    assessment.Level,
		Sources: map[string]models.SourceBreakdown{
			models.SourceIdentity: {
				SubScore: assessment.SubScores[models.SourceIdentity],
				Weight:   cfg.Weights.KB4,
				Stats:    stats.Identity,
			},
			models.SourceDevice: {
				SubScore: assessment.SubScores[models.SourceDevice],
				Weight:   cfg.Weights.NCM,
				Stats:    stats.Device,
			},
			models.SourceAlert: {
				SubScore: assessment.SubScores[models.SourceAlert],
				Weight:   cfg.Weights.EDR,
				Stats:    stats.Alert,
			},
			models.SourceBreach: {
				SubScore: assessment.SubScores[models.SourceBreach],
				Weight:   cfg.Weights.HIBP,
				Stats:    stats.Breach,
			},
		},
		GeneratedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dash); err != nil {
			util.Warn("Failed to cache dashboard", zap.Error(err))
		}
	}

	return dash, nil
}

// RiskConfig exposes the current scoring configuration.
func (s *DashboardService) RiskConfig() risk.Config {
	return s.riskCfg.Snapshot()
}

// UpdateRiskWeights applies a partial weight payload, normalizing the
// result; invalid payloads leave the stored weights untouched.
func (s *DashboardService) UpdateRiskWeights(update risk.WeightsUpdate) (risk.Weights, error) {
	return s.riskCfg.UpdateWeights(update)
}

// UpdateRiskThresholds applies a partial threshold payload.
func (s *DashboardService) UpdateRiskThresholds(update risk.ThresholdsUpdate) (risk.Thresholds, error) {
	return s.riskCfg.UpdateThresholds(update)
}

// UpdateRiskFactors applies a partial per-source factor payload.
func (s *DashboardService) UpdateRiskFactors(update risk.FactorsUpdate) (risk.Factors, error) {
	return s.riskCfg.UpdateFactors(update)
}
