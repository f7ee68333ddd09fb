package integrity

import (
	"errors"

	"omi-sync/core/logger"
	"omi-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StateFunc returns the state to check.
type StateFunc func() *reconcile.State

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
	state   StateFunc
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, state StateFunc) *Handler {
	return &Handler{service: service, state: state}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/files", h.HandleFilesCheck)
	group.Get("/schema", h.HandleSchemaCheck)
}

// HandleIntegrityCheck runs every check and reports each one separately.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]any)

	if files, err := h.service.CheckFiles(ctx, h.state()); err != nil {
		report["files"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["files"] = fiber.Map{"status": "ok", "tracked": files.Tracked, "missing": files.Missing}
	}

	switch missing, err := h.service.CheckSchema(ctx); {
	case errors.Is(err, ErrNoDatabase):
		report["schema"] = fiber.Map{"status": "skipped"}
	case err != nil:
		report["schema"] = fiber.Map{"status": "error", "error": err.Error()}
	default:
		report["schema"] = fiber.Map{"status": "ok", "missing": missing}
	}

	return c.JSON(report)
}

// HandleFilesCheck reports tracked conversations whose documents are gone.
func (h *Handler) HandleFilesCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckFiles(c.Context(), h.state())
	if err != nil {
		l.Error("Files check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(report.Missing) > 0 {
		l.Warn("Tracked documents missing", zap.Int("count", len(report.Missing)))
	}
	return c.JSON(fiber.Map{
		"status":  "checked",
		"tracked": report.Tracked,
		"missing": report.Missing,
	})
}

// HandleSchemaCheck reports missing state table columns.
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	missing, err := h.service.CheckSchema(c.Context())
	if errors.Is(err, ErrNoDatabase) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "checked", "missing": missing})
}
