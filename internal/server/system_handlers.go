package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// handleHealth reports process liveness and database integrity.
// Degraded databases return 503 so orchestration can restart us.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	checks := map[string]string{}

	if s.cfg.MarketDB != nil {
		if err := s.cfg.MarketDB.QuickCheck(r.Context()); err != nil {
			checks["market"] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks["market"] = "ok"
		}
	}
	if s.cfg.ViewCacheDB != nil {
		if err := s.cfg.ViewCacheDB.QuickCheck(r.Context()); err != nil {
			checks["viewcache"] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks["viewcache"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"databases": checks,
		"uptime_s":  int64(time.Since(startTime).Seconds()),
	})
}

// handleSystemStatus reports host resource usage
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent := 0.0
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	} else if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	memPercent := 0.0
	if memStat, err := mem.VirtualMemory(); err == nil {
		memPercent = memStat.UsedPercent
	} else {
		s.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{
			"cpu_percent":    cpuPercent,
			"memory_percent": memPercent,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_s":       int64(time.Since(startTime).Seconds()),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}
