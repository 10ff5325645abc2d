package handlers

import (
	"cryptochat/infrastructure/http/respond"
	"cryptochat/repositories"
	"cryptochat/runtime/workers"
	"log/slog"
	"net/http"
	"time"
)

// ProcessStatsProvider exposes the last resource sample of the process.
type ProcessStatsProvider interface {
	Stats() workers.ProcessStats
}

// ModerationStatsProvider exposes how many messages were censored, per word.
type ModerationStatsProvider interface {
	Stats() (uint64, map[string]uint64)
}

type moderationReport struct {
	Censored uint64            `json:"censored"`
	Words    map[string]uint64 `json:"words"`
}

type health struct {
	Status     string               `json:"status"`
	Uptime     string               `json:"uptime"`
	Store      string               `json:"store"`
	Process    workers.ProcessStats `json:"process"`
	Moderation moderationReport     `json:"moderation"`
}

// HealthHandler returns uptime, process usage and the store status.
type HealthHandler struct {
	startedAt time.Time
	pinger    repositories.Pinger
	monitor   ProcessStatsProvider
	censored  ModerationStatsProvider
	log       *slog.Logger
}

func NewHealthHandler(startedAt time.Time, pinger repositories.Pinger, monitor ProcessStatsProvider, censored ModerationStatsProvider, log *slog.Logger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, pinger: pinger, monitor: monitor, censored: censored, log: log}
}

func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	report := health{
		Status:  "ok",
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
		Store:   "ok",
		Process: h.monitor.Stats(),
	}
	report.Moderation.Censored, report.Moderation.Words = h.censored.Stats()
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.log.Warn("Store health check failed", "error", err)
		report.Status, report.Store = "degraded", "unavailable"
		respond.JSON(w, h.log, http.StatusServiceUnavailable, "degraded", report)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "ok", report)
}
