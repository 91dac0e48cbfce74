// Package server provides the HTTP server and routing for the Phi service.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/avermex/qphi/internal/config"
	"github.com/avermex/qphi/internal/database"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	cfg         *config.Config
	resultsDB   *database.DB
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, cfg *config.Config, resultsDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		cfg:         cfg,
		resultsDB:   resultsDB,
		startupTime: time.Now(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string  `json:"status"` // "healthy" or "degraded"
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	Goroutines    int     `json:"goroutines"`
	Workers       int     `json:"workers"`
	SweepCount    int     `json:"sweep_count"`
	CacheEntries  int     `json:"cache_entries"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	SweepCount  int     `json:"sweep_count"`
	LastChecked string  `json:"last_checked"`
}

// HandleSystemStatus returns process and workload status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		Workers:       h.cfg.Workers,
	}

	if h.resultsDB != nil {
		if err := h.resultsDB.Conn().QueryRow(
			`SELECT COUNT(*) FROM sweeps`).Scan(&response.SweepCount); err != nil {
			h.log.Warn().Err(err).Msg("Failed to count sweeps")
			response.Status = "degraded"
		}
		if err := h.resultsDB.Conn().QueryRow(
			`SELECT COUNT(*) FROM phi_cache`).Scan(&response.CacheEntries); err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cache entries")
			response.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleDatabaseStats returns results database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	response := DatabaseStatsResponse{
		Name:        "results",
		LastChecked: time.Now().Format(time.RFC3339),
	}

	if h.resultsDB != nil {
		response.Path = h.resultsDB.Path()
		if info, err := os.Stat(h.resultsDB.Path()); err == nil {
			response.SizeMB = float64(info.Size()) / 1024 / 1024
		}
		if err := h.resultsDB.Conn().QueryRow(
			`SELECT COUNT(*) FROM sweeps`).Scan(&response.SweepCount); err != nil {
			h.log.Warn().Err(err).Msg("Failed to count sweeps")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) to avoid blocking the API call.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
