package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"posture-service/internal/repository/clickhouse"
	"posture-service/internal/service"
	"posture-service/internal/util"
)

// SyncHandler handles HTTP requests for sync operations
type SyncHandler struct {
	orchestrator *service.Orchestrator
	syncLog      clickhouse.SyncLogStore
	logger       *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(orchestrator *service.Orchestrator, syncLog clickhouse.SyncLogStore, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		syncLog:      syncLog,
		logger:       logger,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// successResponse creates a successful response
func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// errorResponse creates an error response
func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

// RegisterRoutes registers all sync routes
func (h *SyncHandler) RegisterRoutes(router chi.Router) {
	router.Route("/sync", func(r chi.Router) {
		r.Post("/all", h.SyncAll)
		r.Post("/{source}", h.SyncSource)
		r.Get("/status", h.SyncStatus)
		r.Get("/log", h.SyncLog)
	})
}

// SyncAll triggers a full reconciliation of every feed. The call blocks
// until all four reconcilers finish and returns the combined result.
func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	combined, err := h.orchestrator.RunAll(ctx)
	if err != nil {
		statusCode := h.getStatusCode(err)
		h.respondWithError(w, statusCode, err, "Failed to run full sync")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(combined, "Sync completed"))
	h.logger.Info("Full sync triggered via HTTP",
		util.Bool("success", combined.Success),
		util.Int("total_count", combined.TotalCount),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "SyncAll"),
	)
}

// SyncSource triggers reconciliation of a single feed.
func (h *SyncHandler) SyncSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	sourceID := chi.URLParam(r, "source")
	result, err := h.orchestrator.RunSource(ctx, sourceID)
	if err != nil {
		statusCode := h.getStatusCode(err)
		h.respondWithError(w, statusCode, err, "Failed to sync source")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(result, "Sync completed"))
	h.logger.Info("Source sync triggered via HTTP",
		util.String("source", sourceID),
		util.Bool("success", result.Success),
		util.Int("count", result.Count),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "SyncSource"),
	)
}

// SyncStatus reports the in-memory orchestrator state.
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status := h.orchestrator.Status()
	h.respondWithJSON(w, http.StatusOK, successResponse(status, "Sync status retrieved"))
}

// SyncLog returns recent audit entries, newest first.
func (h *SyncHandler) SyncLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 || parsedLimit > 500 {
			h.respondWithError(w, http.StatusBadRequest, errors.New("invalid limit"), "Limit must be between 1 and 500")
			return
		}
		limit = parsedLimit
	}

	if h.syncLog == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, errors.New("audit log unavailable"), "Sync log store is not configured")
		return
	}

	entries, err := h.syncLog.Recent(ctx, limit)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err, "Failed to read sync log")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(entries, "Sync log retrieved"))
}

// Helper Methods

// respondWithJSON sends a JSON response
func (h *SyncHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func (h *SyncHandler) respondWithError(w http.ResponseWriter, statusCode int, err error, message string) {
	h.logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	h.respondWithJSON(w, statusCode, errorResponse(err, message))
}

// getStatusCode determines the appropriate HTTP status code for an error
func (h *SyncHandler) getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownSource):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
