package handlers

import (
	"context"
	"log"
	"time"

	"querydash/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// defaultStreamInterval is how often a fresh snapshot is pushed to
// connected dashboard clients.
const defaultStreamInterval = 10 * time.Second

// StatsSocketHandler streams fresh snapshots over a websocket so the
// dashboard can refresh without polling.
type StatsSocketHandler struct {
	statsService *services.StatsService
	interval     time.Duration
}

// NewStatsSocketHandler creates a new stats socket handler.
func NewStatsSocketHandler(statsService *services.StatsService, interval time.Duration) *StatsSocketHandler {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &StatsSocketHandler{statsService: statsService, interval: interval}
}

// Handler returns the websocket handler for GET /ws/stats. The route
// must already be behind the auth guard and upgrade check.
func (h *StatsSocketHandler) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		if m := services.GetMetrics(); m != nil {
			m.RecordStreamOpen()
			defer m.RecordStreamClose()
		}

		// Reader goroutine: detect client disconnect.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		for {
			snapshot, err := h.statsService.ComputeSnapshot(context.Background())
			if err != nil {
				log.Printf("⚠️ Stream snapshot failed: %v", err)
			} else if err := c.WriteJSON(snapshot); err != nil {
				return
			}

			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	})
}
