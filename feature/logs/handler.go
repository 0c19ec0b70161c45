package logs

import (
	"inventory-sync/core/logger"
	"inventory-sync/core/oplog"
	"inventory-sync/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the operational log to operators.
type Handler struct {
	rec    *oplog.Recorder
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(rec *oplog.Recorder, log *zap.Logger) *Handler {
	return &Handler{rec: rec, logger: log}
}

// RegisterRoutes registers the log routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/logs", h.HandleList)
}

// HandleList returns the newest operational log entries.
// @Summary List operational log entries
// @Tags logs
// @Produce json
// @Param limit query int false "maximum entries to return"
// @Success 200 {array} oplog.Entry
// @Router /logs [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	entries, err := h.rec.Recent(utils.ToInt(c.Query("limit")))
	if err != nil {
		l.Error("Log listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	if entries == nil {
		entries = []oplog.Entry{}
	}
	return c.JSON(entries)
}
