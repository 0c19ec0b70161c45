package devices

import (
	"inventory-sync/core/oplog"
	"inventory-sync/feature/devices/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the devices feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, rec *oplog.Recorder, opts sync.Options) *Feature {
	svc := NewService(db, logger, rec, opts)
	h := NewHandler(svc, logger)
	return &Feature{service: svc, handler: h}
}

// Service exposes the device service for the CLI.
func (f *Feature) Service() *Service { return f.service }

// Name returns the name of the feature.
func (f *Feature) Name() string { return "devices" }

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool { return true }

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
