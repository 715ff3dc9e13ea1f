package service

import (
	"context"
	"fmt"

	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"

	"posture-service/internal/client"
	"posture-service/internal/models"
	"posture-service/internal/util"
)

// AlertIndexer pushes alert records into the analyst search index.
// Document ids are derived from the alert's natural key, so re-indexing
// the same alert overwrites its document instead of duplicating it.
type AlertIndexer struct {
	es     *client.ESClient
	index  string
	logger *zap.Logger
}

func NewAlertIndexer(es *client.ESClient, index string, logger *zap.Logger) *AlertIndexer {
	return &AlertIndexer{es: es, index: index, logger: logger}
}

// IndexAlerts indexes a batch best-effort: failures are logged and
// swallowed, sync correctness never depends on the index.
func (ix *AlertIndexer) IndexAlerts(ctx context.Context, alerts []models.AlertRecord) {
	if ix == nil || ix.es == nil {
		return
	}

	indexed := 0
	for i := range alerts {
		res, err := ix.es.IndexDocument(ix.index, AlertDocID(alerts[i]), alerts[i])
		if err != nil {
			util.Warn("Alert indexing aborted",
				zap.String("index", ix.index),
				zap.Int("indexed", indexed),
				zap.Error(err))
			return
		}
		if res.IsError() {
			util.Warn("Alert document rejected by index",
				zap.String("index", ix.index),
				zap.String("status", res.Status()))
		} else {
			indexed++
		}
		res.Body.Close()
	}

	util.Debug("Alerts indexed",
		zap.String("index", ix.index),
		zap.Int("indexed", indexed))
}

// Search runs a free-text query over indexed alerts.
func (ix *AlertIndexer) Search(ctx context.Context, query string, limit int) ([]models.AlertRecord, error) {
	if ix == nil || ix.es == nil {
		return nil, fmt.Errorf("alert search index not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 25
	}

	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"hostname", "rule_name", "domain", "file_path", "file_hash"},
			},
		},
		"sort": []map[string]interface{}{
			{"detected_at": map[string]interface{}{"order": "desc"}},
		},
	}

	res, err := ix.es.Search(ix.index, body)
	if err != nil {
		return nil, fmt.Errorf("alert search failed: %w", err)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.AlertRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := ix.es.ParseResponse(res, &parsed); err != nil {
		return nil, err
	}

	alerts := make([]models.AlertRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		alerts = append(alerts, hit.Source)
	}
	return alerts, nil
}

// AlertDocID hashes the natural key into a stable document id.
func AlertDocID(a models.AlertRecord) string {
	h1, h2 := murmur3.Sum128([]byte(a.Key()))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
