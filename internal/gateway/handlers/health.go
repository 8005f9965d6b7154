package handlers

import (
	"net/http"
	"sync"
	"time"

	"castpilot/internal/agent"
)

var (
	startTime time.Time
	startOnce sync.Once
)

// InitStartTime initializes the daemon start time.
// Should be called when the daemon starts.
func InitStartTime() {
	startOnce.Do(func() {
		startTime = time.Now()
	})
}

// HealthResponse reports daemon liveness and a summary of the agent
// poll loops.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Agents        int    `json:"agents"`
	Polling       int    `json:"polling"`
}

// HealthHandler returns a health check handler. The agent summary
// counts registered agents and how many have a running poll loop.
func HealthHandler(version string, registry *agent.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(0)
		if !startTime.IsZero() {
			uptime = int64(time.Since(startTime).Seconds())
		}

		polling := 0
		statuses := registry.Statuses()
		for _, s := range statuses {
			if s.Running {
				polling++
			}
		}

		SendJSON(w, http.StatusOK, HealthResponse{
			Status:        "ok",
			Version:       version,
			UptimeSeconds: uptime,
			Agents:        len(statuses),
			Polling:       polling,
		})
	}
}
