package reconcile

import (
	"errors"

	"inventory-sync/core/diff"
	"inventory-sync/core/logger"
	"inventory-sync/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the per-kind push endpoints and the reconcile review API.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the ingest and reconcile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/interface", h.ingest(KindInterface))
	app.Post("/ipam", h.ingest(KindIPAddress))
	app.Post("/prefix", h.ingest(KindPrefix))
	app.Post("/vlan", h.ingest(KindVLAN))

	group := app.Group("/reconcile")
	group.Get("/:kind", h.HandleListStaged)
	group.Post("/:kind/apply", h.HandleApply)
	group.Post("/:kind/decline", h.HandleDecline)
	group.Get("/:kind/settings", h.HandleGetSettings)
	group.Put("/:kind/settings", h.HandleSaveSettings)

	mappings := app.Group("/mappings")
	mappings.Get("/:kind", h.HandleListMappings)
	mappings.Post("/", h.HandleSaveMapping)
	mappings.Delete("/:id", h.HandleDeleteMapping)
}

// ingest builds the push handler for one record kind.
// @Summary Push candidate records
// @Tags reconcile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /{kind} [post]
func (h *Handler) ingest(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := logger.WithRayID(h.logger, c)

		var records []diff.Record
		if err := c.BodyParser(&records); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": "error",
				"errors": fiber.Map{"body": "expected a JSON array of records"},
			})
		}

		report, err := h.service.Ingest(c.Context(), kind, records)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "errors": verr.Errors})
			}
			l.Error("Ingest failed", zap.String("kind", string(kind)), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "success", "report": report})
	}
}

func (h *Handler) kindParam(c *fiber.Ctx) (Kind, error) {
	kind, err := ParseKind(c.Params("kind"))
	if err != nil {
		return "", c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"kind": err.Error()},
		})
	}
	return kind, nil
}

// selection is the body shared by apply and decline.
type selection struct {
	IDs []uint `json:"ids"`
	All bool   `json:"all"`
}

// HandleListStaged returns the staged candidates of a kind together with
// the field mappings that label them.
// @Summary List staged candidates
// @Tags reconcile
// @Produce json
// @Success 200 {object} map[string]string
// @Router /reconcile/{kind} [get]
func (h *Handler) HandleListStaged(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	kind, err := h.kindParam(c)
	if err != nil || kind == "" {
		return err
	}

	staged, err := h.service.ListStaged(c.Context(), kind)
	if err != nil {
		l.Error("Staged listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	mappings, err := h.service.ListMappings(c.Context(), kind)
	if err != nil {
		l.Error("Mapping listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"records": staged, "mappings": mappings})
}

// HandleApply accepts staged candidates into the inventory.
// @Summary Apply staged candidates
// @Tags reconcile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /reconcile/{kind}/apply [post]
func (h *Handler) HandleApply(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	kind, err := h.kindParam(c)
	if err != nil || kind == "" {
		return err
	}

	var sel selection
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&sel); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": "error",
				"errors": fiber.Map{"body": "expected ids or all"},
			})
		}
	}
	if !sel.All && len(sel.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"body": "expected ids or all"},
		})
	}

	report, err := h.service.Apply(c.Context(), kind, sel.IDs, sel.All)
	if err != nil {
		l.Error("Apply failed", zap.String("kind", string(kind)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success", "report": report})
}

// HandleDecline discards staged candidates.
// @Summary Decline staged candidates
// @Tags reconcile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /reconcile/{kind}/decline [post]
func (h *Handler) HandleDecline(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	kind, err := h.kindParam(c)
	if err != nil || kind == "" {
		return err
	}

	var sel selection
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&sel); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": "error",
				"errors": fiber.Map{"body": "expected ids or all"},
			})
		}
	}
	if !sel.All && len(sel.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"body": "expected ids or all"},
		})
	}

	declined, err := h.service.Decline(c.Context(), kind, sel.IDs, sel.All)
	if err != nil {
		l.Error("Decline failed", zap.String("kind", string(kind)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success", "declined": declined})
}

// HandleGetSettings returns the reconcile settings of a kind.
// @Summary Get reconcile settings
// @Tags reconcile
// @Produce json
// @Success 200 {object} Settings
// @Router /reconcile/{kind}/settings [get]
func (h *Handler) HandleGetSettings(c *fiber.Ctx) error {
	kind, err := h.kindParam(c)
	if err != nil || kind == "" {
		return err
	}
	settings, err := h.service.GetSettings(c.Context(), kind)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(settings)
}

// HandleSaveSettings updates the reconcile settings of a kind.
// @Summary Save reconcile settings
// @Tags reconcile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /reconcile/{kind}/settings [put]
func (h *Handler) HandleSaveSettings(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	kind, err := h.kindParam(c)
	if err != nil || kind == "" {
		return err
	}

	var settings Settings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"body": "expected a settings object"},
		})
	}
	settings.Kind = string(kind)

	if err := h.service.SaveSettings(c.Context(), settings); err != nil {
		l.Error("Settings save failed", zap.String("kind", string(kind)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleListMappings returns the field mappings of a kind.
// @Summary List field mappings
// @Tags reconcile
// @Produce json
// @Success 200 {array} FieldMapping
// @Router /mappings/{kind} [get]
func (h *Handler) HandleListMappings(c *fiber.Ctx) error {
	kind, err := h.kindParam(c)
	if err != nil || kind == "" {
		return err
	}
	rows, err := h.service.ListMappings(c.Context(), kind)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(rows)
}

// HandleSaveMapping upserts one field mapping.
// @Summary Save a field mapping
// @Tags reconcile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /mappings [post]
func (h *Handler) HandleSaveMapping(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var m FieldMapping
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"body": "expected a mapping object"},
		})
	}

	if err := h.service.SaveMapping(c.Context(), m); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "errors": verr.Errors})
		}
		l.Error("Mapping save failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// HandleDeleteMapping removes one field mapping.
// @Summary Delete a field mapping
// @Tags reconcile
// @Produce json
// @Success 200 {object} map[string]string
// @Router /mappings/{id} [delete]
func (h *Handler) HandleDeleteMapping(c *fiber.Ctx) error {
	id := utils.ToInt(c.Params("id"))
	if id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"errors": fiber.Map{"id": "expected a numeric mapping id"},
		})
	}
	if err := h.service.DeleteMapping(c.Context(), uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "errors": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "success"})
}
