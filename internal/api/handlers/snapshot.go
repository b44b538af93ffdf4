// Package handlers implements the HTTP API handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/pkg/logger"
	"github.com/wonny/vantage/pkg/redis"
)

// SnapshotHandler serves persisted market snapshots
// ⭐ SSOT: 스냅샷 API 핸들러는 이 구조체에서만
type SnapshotHandler struct {
	snapshots contracts.SnapshotRepository
	cache     *redis.Cache // optional hot path
	logger    *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler. cache may be nil.
func NewSnapshotHandler(snapshots contracts.SnapshotRepository, cache *redis.Cache, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		cache:     cache,
		logger:    log,
	}
}

// GetLatest returns the most recent snapshot for a symbol.
// GET /api/v1/snapshot/{symbol}
func (h *SnapshotHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := mux.Vars(r)["symbol"]

	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	// Hot path first: the runner caches every snapshot it publishes.
	if h.cache != nil {
		var cached contracts.MarketSnapshot
		if found, err := h.cache.Get(ctx, redis.SnapshotKey(symbol), &cached); err == nil && found {
			if cached.SchemaVersion == contracts.SnapshotSchemaVersion {
				respondJSON(w, http.StatusOK, &cached)
				return
			}
		}
	}

	snapshot, err := h.snapshots.Latest(ctx, symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load snapshot")
		respondError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "no snapshot for symbol")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// GetDiagnostics returns only the degradation state of the latest snapshot,
// for cheap monitoring probes.
// GET /api/v1/snapshot/{symbol}/diagnostics
func (h *SnapshotHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := mux.Vars(r)["symbol"]

	snapshot, err := h.snapshots.Latest(ctx, symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load snapshot")
		respondError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "no snapshot for symbol")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       snapshot.RunID,
		"generated_at": snapshot.GeneratedAt,
		"degraded":     snapshot.Degraded(),
		"diagnostics":  snapshot.Diagnostics,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
