package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/client"
	"posture-service/internal/models"
	"posture-service/internal/util"
)

const (
	dashboardKey    = "dashboard:v1"
	sourceKeyPrefix = "dashboard:source:"
)

// DashboardCache holds the computed dashboard payload between syncs.
// The pipeline never depends on it: every read degrades to recompute.
type DashboardCache struct {
	client *client.RedisClient
	ttl    time.Duration
}

func NewDashboardCache(client *client.RedisClient, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, ttl: ttl}
}

func (c *DashboardCache) Get(ctx context.Context) (*models.Dashboard, bool) {
	raw, err := c.client.Get(ctx, dashboardKey)
	if err != nil {
		return nil, false
	}

	var dash models.Dashboard
	if err := json.Unmarshal([]byte(raw), &dash); err != nil {
		util.Warn("Discarding unreadable cached dashboard", zap.Error(err))
		_ = c.client.Del(ctx, dashboardKey)
		return nil, false
	}
	return &dash, true
}

func (c *DashboardCache) Set(ctx context.Context, dash *models.Dashboard) error {
	raw, err := json.Marshal(dash)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKey, raw, c.ttl); err != nil {
		return fmt.Errorf("failed to cache dashboard: %w", err)
	}
	return nil
}

// Invalidate drops cached dashboard state for the given scope ("all" or
// a single source id).
func (c *DashboardCache) Invalidate(ctx context.Context, scope string) error {
	keys := []string{dashboardKey}
	if scope == models.ScopeAll {
		for _, src := range models.Sources {
			keys = append(keys, sourceKeyPrefix+src)
		}
	} else {
		keys = append(keys, sourceKeyPrefix+scope)
	}

	if err := c.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}

	util.Debug("Dashboard cache invalidated", zap.String("scope", scope))
	return nil
}
