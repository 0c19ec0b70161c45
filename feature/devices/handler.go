package devices

import (
	"inventory-sync/core/appliance"
	"inventory-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles the device push endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the device routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/device")
	group.Get("/", h.HandleListImported)
	group.Post("/", h.HandlePushDevice)
	group.Post("/sync", h.HandleStageBatch)
	group.Post("/sync_start", h.HandleSyncStart)
	group.Post("/sync_end", h.HandleSyncEnd)
}

// HandlePushDevice ingests a single pushed device record.
// @Summary Push one device
// @Description Applies a single device record directly to the imported set. Body must be an array of length 1.
// @Tags devices
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /device [post]
func (h *Handler) HandlePushDevice(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var raws []appliance.RawDevice
	if err := c.BodyParser(&raws); err != nil {
		return validationError(c, fiber.Map{"body": "expected a JSON array of device records"})
	}
	if len(raws) != 1 {
		return validationError(c, fiber.Map{"body": "expected exactly one device record"})
	}

	_, errs, err := h.service.PushDevices(c.Context(), raws)
	if err != nil {
		l.Error("Device push failed", zap.Error(err))
		return internalError(c, err)
	}
	if len(errs) > 0 {
		return validationError(c, errs)
	}
	return success(c)
}

// HandleStageBatch stages a pushed device batch into the current import cycle.
// @Summary Stage a device batch
// @Tags devices
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /device/sync [post]
func (h *Handler) HandleStageBatch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var raws []appliance.RawDevice
	if err := c.BodyParser(&raws); err != nil {
		return validationError(c, fiber.Map{"body": "expected a JSON array of device records"})
	}

	// Bad records are skipped per-record during staging, never fatal.
	if _, err := h.service.ImportDevices(c.Context(), raws); err != nil {
		l.Error("Device staging failed", zap.Error(err))
		return internalError(c, err)
	}
	return success(c)
}

// HandleSyncStart truncates the staging table and begins a new cycle.
// @Summary Start a device import cycle
// @Tags devices
// @Produce json
// @Success 200 {object} map[string]string
// @Router /device/sync_start [post]
func (h *Handler) HandleSyncStart(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	if err := h.service.StartImport(c.Context()); err != nil {
		l.Error("Sync start failed", zap.Error(err))
		return internalError(c, err)
	}
	return success(c)
}

// HandleSyncEnd reconciles the staged batch against the imported set.
// @Summary Finish a device import cycle
// @Tags devices
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /device/sync_end [post]
func (h *Handler) HandleSyncEnd(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	body := struct {
		Delete *bool `json:"delete"`
	}{}
	// Body is optional; parted deletion defaults to on.
	_ = c.BodyParser(&body)
	deleteParted := body.Delete == nil || *body.Delete

	report, err := h.service.ProcessImport(c.Context(), deleteParted)
	if err != nil {
		l.Error("Sync end failed", zap.Error(err))
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "report": report})
}

// HandleListImported returns the imported-device set.
// @Summary List imported devices
// @Tags devices
// @Produce json
// @Success 200 {array} models.ImportedDevice
// @Router /device [get]
func (h *Handler) HandleListImported(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	rows, err := h.service.ListImported(c.Context(), c.QueryInt("limit", 500))
	if err != nil {
		l.Error("Imported device listing failed", zap.Error(err))
		return internalError(c, err)
	}
	return c.JSON(rows)
}

func success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success"})
}

func validationError(c *fiber.Ctx, errs any) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "errors": errs})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
}
