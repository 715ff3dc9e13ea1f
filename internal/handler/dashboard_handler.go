package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"posture-service/internal/risk"
	"posture-service/internal/service"
	"posture-service/internal/util"
)

// DashboardHandler handles HTTP requests for the posture read model
type DashboardHandler struct {
	dashboard *service.DashboardService
	snapshots *service.SnapshotService
	indexer   *service.AlertIndexer
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	dashboard *service.DashboardService,
	snapshots *service.SnapshotService,
	indexer *service.AlertIndexer,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		snapshots: snapshots,
		indexer:   indexer,
		logger:    logger,
	}
}

// RegisterRoutes registers all dashboard routes
func (h *DashboardHandler) RegisterRoutes(router chi.Router) {
	router.Get("/dashboard", h.GetDashboard)

	router.Route("/snapshots", func(r chi.Router) {
		r.Post("/capture", h.CaptureSnapshot)
		r.Get("/", h.ListSnapshots)
	})

	router.Route("/risk", func(r chi.Router) {
		r.Get("/config", h.GetRiskConfig)
		r.Patch("/weights", h.UpdateWeights)
		r.Patch("/thresholds", h.UpdateThresholds)
		r.Patch("/factors", h.UpdateFactors)
	})

	router.Get("/alerts/search", h.SearchAlerts)
}

// GetDashboard serves the composite risk view.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	dash, err := h.dashboard.ComputeDashboard(ctx)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to compute dashboard")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(dash, "Dashboard retrieved"))
	h.logger.Debug("Dashboard served via HTTP",
		util.Int("overall_score", dash.OverallScore),
		util.String("risk_level", dash.RiskLevel),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "GetDashboard"),
	)
}

// CaptureSnapshot records today's rollup immediately, outside the
// scheduled capture window.
func (h *DashboardHandler) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	snap, err := h.snapshots.CaptureSnapshot(ctx)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to capture snapshot")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, successResponse(snap, "Snapshot captured"))
	h.logger.Info("Snapshot captured via HTTP",
		util.String("date", snap.SnapshotDate.Format("2006-01-02")),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "CaptureSnapshot"),
	)
}

// ListSnapshots returns the trailing trend window, oldest first.
func (h *DashboardHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 30 // default
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsedDays, err := strconv.Atoi(daysStr)
		if err != nil || parsedDays <= 0 || parsedDays > 365 {
			h.respondWithError(w, http.StatusBadRequest, errors.New("invalid days"), "Days must be between 1 and 365")
			return
		}
		days = parsedDays
	}

	snaps, err := h.snapshots.Snapshots(ctx, days)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to list snapshots")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(snaps, "Snapshots retrieved"))
}

// GetRiskConfig returns the current scoring configuration.
func (h *DashboardHandler) GetRiskConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.dashboard.RiskConfig()
	h.respondWithJSON(w, http.StatusOK, successResponse(cfg, "Risk config retrieved"))
}

// UpdateWeights applies a partial weight update. Invalid payloads leave
// the current configuration untouched.
func (h *DashboardHandler) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	var req risk.WeightsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	weights, err := h.dashboard.UpdateRiskWeights(req)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Failed to update weights")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(weights, "Weights updated"))
	h.logger.Info("Risk weights updated via HTTP",
		util.Float64("kb4", weights.KB4),
		util.Float64("ncm", weights.NCM),
		util.Float64("edr", weights.EDR),
		util.Float64("hibp", weights.HIBP),
		util.String("method", "UpdateWeights"),
	)
}

// UpdateThresholds applies a partial classification-threshold update.
func (h *DashboardHandler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var req risk.ThresholdsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	thresholds, err := h.dashboard.UpdateRiskThresholds(req)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Failed to update thresholds")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(thresholds, "Thresholds updated"))
	h.logger.Info("Risk thresholds updated via HTTP",
		util.Float64("critical", thresholds.Critical),
		util.Float64("high", thresholds.High),
		util.Float64("medium", thresholds.Medium),
		util.Float64("low", thresholds.Low),
		util.String("method", "UpdateThresholds"),
	)
}

// UpdateFactors applies a partial per-source factor update.
func (h *DashboardHandler) UpdateFactors(w http.ResponseWriter, r *http.Request) {
	var req risk.FactorsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	factors, err := h.dashboard.UpdateRiskFactors(req)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Failed to update factors")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(factors, "Factors updated"))
	h.logger.Info("Risk factors updated via HTTP", util.String("method", "UpdateFactors"))
}

// SearchAlerts runs a free-text query against the alert search index.
func (h *DashboardHandler) SearchAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.respondWithError(w, http.StatusBadRequest, errors.New("query is required"), "Query parameter q is required")
		return
	}

	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 || parsedLimit > 200 {
			h.respondWithError(w, http.StatusBadRequest, errors.New("invalid limit"), "Limit must be between 1 and 200")
			return
		}
		limit = parsedLimit
	}

	alerts, err := h.indexer.Search(ctx, query, limit)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to search alerts")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(alerts, "Alerts retrieved"))
	h.logger.Debug("Alert search via HTTP",
		util.String("query", query),
		util.Int("count", len(alerts)),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "SearchAlerts"),
	)
}

// respondWithJSON sends a JSON response
func (h *DashboardHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func (h *DashboardHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	h.logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	h.respondWithJSON(w, statusCode, errorResponse(err, message))
}
