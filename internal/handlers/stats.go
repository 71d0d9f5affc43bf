package handlers

import (
	"log"
	"time"

	"querydash/internal/services"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler serves the aggregated dashboard snapshot.
type StatsHandler struct {
	statsService *services.StatsService
	production   bool
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService *services.StatsService, production bool) *StatsHandler {
	return &StatsHandler{statsService: statsService, production: production}
}

// Get computes and returns a fresh snapshot
// GET /api/stats
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	start := time.Now()

	snapshot, err := h.statsService.ComputeSnapshot(c.UserContext())
	if err != nil {
		log.Printf("❌ Snapshot computation failed: %v", err)
		if m := services.GetMetrics(); m != nil {
			m.RecordSnapshotError()
		}

		// Driver details are only exposed outside production.
		body := fiber.Map{"error": "Statistics backend unavailable"}
		if !h.production {
			body["detail"] = err.Error()
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordSnapshot(time.Since(start).Seconds())
	}

	return c.JSON(snapshot)
}
