package devices

import (
	"context"
	"fmt"

	"inventory-sync/core/appliance"
	"inventory-sync/core/oplog"
	"inventory-sync/feature/devices/models"
	"inventory-sync/feature/devices/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles device import operations.
type Service struct {
	db           *gorm.DB
	logger       *zap.Logger
	orchestrator *sync.Orchestrator
}

// NewService creates a new device service.
func NewService(db *gorm.DB, logger *zap.Logger, rec *oplog.Recorder, opts sync.Options) *Service {
	return &Service{
		db:           db,
		logger:       logger,
		orchestrator: sync.NewOrchestrator(db, logger, rec, opts),
	}
}

// Orchestrator exposes the sync orchestrator for the CLI and scheduler.
func (s *Service) Orchestrator() *sync.Orchestrator {
	return s.orchestrator
}

// StartImport begins a new full-sync cycle.
func (s *Service) StartImport(ctx context.Context) error {
	return s.orchestrator.StartImport(ctx)
}

// ImportDevices stages a pushed device batch.
func (s *Service) ImportDevices(ctx context.Context, raws []appliance.RawDevice) (int, error) {
	return s.orchestrator.ImportDevices(ctx, raws)
}

// ProcessImport finishes the cycle.
func (s *Service) ProcessImport(ctx context.Context, deleteParted bool) (*sync.Report, error) {
	return s.orchestrator.ProcessImport(ctx, deleteParted)
}

// PushDevices validates and applies a pushed device batch directly.
func (s *Service) PushDevices(ctx context.Context, raws []appliance.RawDevice) (*sync.Report, map[string]string, error) {
	if errs := sync.ValidateDevices(raws); len(errs) > 0 {
		return nil, errs, nil
	}
	report, err := s.orchestrator.SyncDevices(ctx, raws)
	return report, nil, err
}

// ListImported returns the imported-device set, newest first.
func (s *Service) ListImported(ctx context.Context, limit int) ([]models.ImportedDevice, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []models.ImportedDevice
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list imported devices: %w", err)
	}
	return rows, nil
}

// ListAllImported returns the entire imported-device set without the list
// view's cap. The snapshot pull walks every device, not the first page.
func (s *Service) ListAllImported(ctx context.Context) ([]models.ImportedDevice, error) {
	var rows []models.ImportedDevice
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list imported devices: %w", err)
	}
	return rows, nil
}
