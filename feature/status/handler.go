package status

import (
	"omi-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync status.
type Handler struct {
	tracker *Tracker
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(tracker *Tracker, logger *zap.Logger) *Handler {
	return &Handler{tracker: tracker, logger: logger}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	app.Get("/sync/status", h.HandleStatus)
}

// HandleHealth reports that the process is up.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleStatus returns the last cycle report.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	snap := h.tracker.Snapshot()
	logger.WithRayID(h.logger, c).Debug("Status requested", zap.Int("cycles", snap.Cycles))
	return c.JSON(snap)
}
