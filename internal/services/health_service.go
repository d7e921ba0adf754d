package services

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"pronafmonitor/pkg/contracts"
)

// ReadinessProbe reports whether the dataset and boundary caches are warm.
type ReadinessProbe interface {
	Ready() (dataset, boundaries bool)
}

// SessionCounter reports interactive session counters: active_sessions,
// total_sessions and broadcasts_sent.
type SessionCounter interface {
	Stats() map[string]int64
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	repoURL   string
	buildTime string
	buildID   string
	probe     ReadinessProbe
	sessions  SessionCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`

	Counters map[string]int64 `json:"counters,omitempty"`
}

// NewHealthService creates a new health service.
func NewHealthService(version, repoURL, buildTime, buildID string, probe ReadinessProbe, sessions SessionCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		repoURL:   repoURL,
		buildTime: buildTime,
		buildID:   buildID,
		probe:     probe,
		sessions:  sessions,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports "ready" once the dataset is loaded. The boundary
// document is informational: the dashboard falls back without it.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	var dataset, boundaries bool
	if hs.probe != nil {
		dataset, boundaries = hs.probe.Ready()
	}

	status.Services["dataset"] = check(dataset, "dataset loaded", "dataset not loaded")
	geo := check(boundaries, "boundary document cached", "boundary document not fetched yet")
	if !boundaries {
		geo.Status = "degraded"
	}
	status.Services["boundaries"] = geo
	stats := hs.sessionStats()
	status.Services["websocket"] = ServiceHealth{
		Status:   "ready",
		Message:  "sessions open: " + strconv.FormatInt(stats["active_sessions"], 10),
		Uptime:   time.Since(hs.startTime).String(),
		Counters: stats,
	}

	if !dataset {
		status.Status = "not_ready"
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"repo_url":     hs.repoURL,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
		"contracts":    contracts.Current(),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

func (hs *HealthService) sessionStats() map[string]int64 {
	if hs.sessions == nil {
		return map[string]int64{}
	}
	return hs.sessions.Stats()
}

func check(ok bool, readyMsg, notReadyMsg string) ServiceHealth {
	if ok {
		return ServiceHealth{Status: "ready", Message: readyMsg}
	}
	return ServiceHealth{Status: "not_ready", Message: notReadyMsg}
}
