package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/praxisos/praxis-server/internal/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	pipeline.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSystemHealth reports host and process statistics for operators.
func (s *Server) handleSystemHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":     "ok",
		"version":    s.version,
		"goroutines": runtime.NumGoroutine(),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	body["heap_alloc_bytes"] = m.HeapAlloc

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		body["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(percents) > 0 {
		body["cpu_percent"] = percents[0]
	}
	if uptime, err := host.UptimeWithContext(r.Context()); err == nil {
		body["host_uptime_seconds"] = uptime
	}

	pipeline.WriteJSON(w, http.StatusOK, body)
}
