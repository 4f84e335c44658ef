// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// Pinger is anything that can report liveness with a round trip
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueInspector is the subset of *asynq.Inspector used for queue health
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// BuildInfo identifies the running binary in health output
type BuildInfo struct {
	Version     string
	Environment string
}

// dependency is one backing service probed by the health endpoints.
// details is optional and only consulted after a successful ping.
type dependency struct {
	name    string
	ping    func(ctx context.Context) error
	details func(ctx context.Context) map[string]any
}

// HealthHandler serves the health endpoints. Any dependency may be nil;
// the seed catalog runs without a database.
type HealthHandler struct {
	deps      []dependency
	build     BuildInfo
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database ports.Database,
	cache Pinger,
	queues QueueInspector,
	build BuildInfo,
	logger *slog.Logger,
) *HealthHandler {
	var deps []dependency
	if database != nil {
		deps = append(deps, dependency{name: "database", ping: database.Ping, details: database.Health})
	}
	if cache != nil {
		deps = append(deps, dependency{name: "redis", ping: cache.Ping})
	}
	if queues != nil {
		deps = append(deps, dependency{
			name: "asynq",
			ping: func(context.Context) error {
				_, err := queues.Queues()
				return err
			},
			details: func(context.Context) map[string]any { return queueStats(queues) },
		})
	}

	return &HealthHandler{
		deps:      deps,
		build:     build,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo is the probe result for one dependency
type ServiceInfo struct {
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	ResponseTime string         `json:"response_time,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// SystemInfo is a runtime snapshot of the process
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.build.Version,
		Environment: h.build.Environment,
		Uptime:      h.uptime(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo, len(h.deps)),
		System:      systemInfo(),
	}

	for _, dep := range h.deps {
		info := h.probe(ctx, dep)
		if info.Status != "healthy" {
			health.Status = "degraded"
		}
		health.Services[dep.name] = info
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	noStore(w)
	respondJSON(w, h.logger, statusCode, health)
}

// Liveness handles GET /health/live. It never touches dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": h.uptime(),
	})
}

// Readiness handles GET /health/ready: ping only, no details
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string, len(h.deps))
	for _, dep := range h.deps {
		if err := dep.ping(ctx); err != nil {
			ready = false
			details[dep.name] = "not ready"
			continue
		}
		details[dep.name] = "ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	noStore(w)
	respondJSON(w, h.logger, statusCode, map[string]any{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) probe(ctx context.Context, dep dependency) ServiceInfo {
	start := time.Now()
	if err := dep.ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "health check failed",
			slog.String("dependency", dep.name),
			slog.String("error", err.Error()))
		return ServiceInfo{Status: "unhealthy", Message: err.Error()}
	}

	info := ServiceInfo{Status: "healthy"}
	if dep.details != nil {
		info.Details = dep.details(ctx)
	}
	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

func queueStats(queues QueueInspector) map[string]any {
	names, err := queues.Queues()
	if err != nil {
		return nil
	}
	stats := make(map[string]any, len(names))
	for _, name := range names {
		q, err := queues.GetQueueInfo(name)
		if err != nil {
			continue
		}
		stats[name] = map[string]int{
			"size":      q.Size,
			"active":    q.Active,
			"pending":   q.Pending,
			"scheduled": q.Scheduled,
			"retry":     q.Retry,
			"archived":  q.Archived,
		}
	}
	return map[string]any{"queues": stats}
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}

func systemInfo() SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: mem.Alloc >> 20,
		NumGC:         mem.NumGC,
	}
}
