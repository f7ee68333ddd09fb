package status

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	tracker *Tracker
	handler *Handler
}

// NewFeature creates the status feature around tracker.
func NewFeature(tracker *Tracker, logger *zap.Logger) *Feature {
	return &Feature{tracker: tracker, handler: NewHandler(tracker, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "status"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.tracker != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
