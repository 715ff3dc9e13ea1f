package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"posture-service/internal/models"
	"posture-service/internal/repository/postgres"
	"posture-service/internal/risk"
)

// StatsCollector reads the four per-source aggregates. The queries are
// independent, so they run concurrently.
type StatsCollector struct {
	identities postgres.IdentityStore
	devices    postgres.DeviceStore
	alerts     postgres.AlertStore
	breaches   postgres.BreachStore
}

func NewStatsCollector(
	identities postgres.IdentityStore,
	devices postgres.DeviceStore,
	alerts postgres.AlertStore,
	breaches postgres.BreachStore,
) *StatsCollector {
	return &StatsCollector{
		identities: identities,
		devices:    devices,
		alerts:     alerts,
		breaches:   breaches,
	}
}

// Collect gathers current aggregates; the factors supply the high-risk
// identity cutoffs.
func (c *StatsCollector) Collect(ctx context.Context, f risk.Factors) (models.PostureStats, error) {
	var stats models.PostureStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Identity, err = c.identities.Stats(gctx, f.KB4RiskScoreThreshold, f.KB4PhishProneThreshold)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Device, err = c.devices.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Alert, err = c.alerts.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Breach, err = c.breaches.Stats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.PostureStats{}, err
	}
	return stats, nil
}
