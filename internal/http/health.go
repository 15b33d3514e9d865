package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Time       string            `json:"time"`
	Version    string            `json:"version,omitempty"`
	Checks     map[string]string `json:"checks"`
	CoverSweep *CoverSweepHealth `json:"cover_sweep,omitempty"`
}

type CoverSweepHealth struct {
	Running bool   `json:"running"`
	NextRun string `json:"next_run,omitempty"`
}

// SweepStatus is the view of the orphan cover scheduler that /health reports.
type SweepStatus interface {
	IsRunning() bool
	NextRun() *time.Time
}

type HealthController struct {
	db      *database.Database
	sweep   SweepStatus
	version string
}

// NewHealthController builds the probe handlers. sweep may be nil when the
// scheduled cover sweep is disabled.
func NewHealthController(db *database.Database, sweep SweepStatus, version string) *HealthController {
	return &HealthController{
		db:      db,
		sweep:   sweep,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	// A stopped sweep only leaves orphans behind, so it does not fail the probe.
	if h.sweep != nil {
		sweep := &CoverSweepHealth{Running: h.sweep.IsRunning()}
		if next := h.sweep.NextRun(); next != nil {
			sweep.NextRun = next.Format(time.RFC3339)
		}
		health.CoverSweep = sweep
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
