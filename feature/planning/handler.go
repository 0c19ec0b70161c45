package planning

import (
	"fmt"

	"inventory-sync/core/appliance"
	"inventory-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles the planning push endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the planning routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/planning")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleReplaceAll)
	group.Post("/sync", h.HandleSync)
	group.Post("/snapshot", h.HandlePushSnapshot)
}

// HandleReplaceAll syncs the planning set with full-replace semantics:
// plannings absent from the body are deleted along with their snapshots.
// @Summary Replace the planning set
// @Tags planning
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /planning [post]
func (h *Handler) HandleReplaceAll(c *fiber.Ctx) error {
	return h.sync(c, true)
}

// HandleSync syncs the planning set incrementally (no deletions).
// @Summary Sync plannings incrementally
// @Tags planning
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /planning/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	return h.sync(c, false)
}

func (h *Handler) sync(c *fiber.Ctx, deleteAbsent bool) error {
	l := logger.WithRayID(h.logger, c)

	var raws []appliance.RawPlanning
	if err := c.BodyParser(&raws); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"body": "expected a JSON array of planning records"},
		})
	}

	report, err := h.service.SyncPlannings(c.Context(), raws, deleteAbsent)
	if err != nil {
		l.Error("Planning sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success", "report": report})
}

// HandlePushSnapshot ingests pushed snapshot blobs.
// @Summary Push snapshots
// @Tags planning
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /planning/snapshot [post]
func (h *Handler) HandlePushSnapshot(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var snaps []Snapshot
	if err := c.BodyParser(&snaps); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"body": "expected a JSON array of snapshots"},
		})
	}

	errs := map[string]string{}
	for i, snap := range snaps {
		if snap.Hostname == "" || snap.PlanningID == 0 || snap.ResultType == "" {
			errs[snapshotKey(i, snap)] = "hostname, planning_id and result_type are required"
		}
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "errors": errs})
	}

	if _, err := h.service.UpsertSnapshots(c.Context(), snaps); err != nil {
		l.Error("Snapshot push failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func snapshotKey(i int, snap Snapshot) string {
	if snap.Hostname == "" {
		return fmt.Sprintf("record %d", i)
	}
	return fmt.Sprintf("%s/%d/%s", snap.Hostname, snap.PlanningID, snap.ResultType)
}

// HandleList returns the stored planning set.
// @Summary List plannings
// @Tags planning
// @Produce json
// @Success 200 {array} Planning
// @Router /planning [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	rows, err := h.service.List(c.Context())
	if err != nil {
		l.Error("Planning listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(rows)
}
