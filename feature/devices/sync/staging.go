package sync

import (
	"context"
	"fmt"
	"time"

	"inventory-sync/core/appliance"
	"inventory-sync/core/oplog"
	"inventory-sync/feature/devices/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// batchSize bounds per-transaction size for bulk writes.
const batchSize = 256

// Staging is the transient holding area for freshly fetched device reports.
type Staging struct {
	db     *gorm.DB
	logger *zap.Logger
	rec    *oplog.Recorder
}

// NewStaging creates the staging store.
func NewStaging(db *gorm.DB, logger *zap.Logger, rec *oplog.Recorder) *Staging {
	return &Staging{db: db, logger: logger, rec: rec}
}

// BeginBatch clears all staged device rows so a fresh accumulation can start.
func (s *Staging) BeginBatch(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.StagedDevice{}).Error; err != nil {
		return fmt.Errorf("failed to truncate device staging: %w", err)
	}
	s.rec.Info("device-sync", "device staging cleared, import batch started")
	return nil
}

// Stage validates and bulk-inserts appliance device reports.
//
// Records missing a device type or carrying unparsable timestamps are dropped
// with a failure log entry each; a bad record never aborts the batch.
// Duplicate appliance IDs within one batch resolve to the last occurrence.
// Returns the number of rows inserted.
func (s *Staging) Stage(ctx context.Context, raws []appliance.RawDevice) (int, error) {
	rows := make([]models.StagedDevice, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		if raw.DeviceType == "" {
			s.rec.Failure("device-sync", fmt.Sprintf("device %s dropped: missing device_type", raw.Hostname))
			dropped++
			continue
		}
		created, err := time.Parse(models.TimestampLayout, raw.CreatedDate)
		if err != nil {
			s.rec.Failure("device-sync", fmt.Sprintf("device %s dropped: bad createddate %q", raw.Hostname, raw.CreatedDate))
			dropped++
			continue
		}
		changed, err := time.Parse(models.TimestampLayout, raw.ChangedDate)
		if err != nil {
			s.rec.Failure("device-sync", fmt.Sprintf("device %s dropped: bad changeddate %q", raw.Hostname, raw.ChangedDate))
			dropped++
			continue
		}
		rows = append(rows, models.StagedFromRaw(raw, created, changed))
	}

	rows = dedupeStaged(rows)

	if len(rows) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
			return 0, fmt.Errorf("failed to stage devices: %w", err)
		}
	}

	s.logger.Info("Device batch staged",
		zap.Int("received", len(raws)),
		zap.Int("inserted", len(rows)),
		zap.Int("dropped", dropped),
	)
	s.rec.Info("device-sync", fmt.Sprintf("staged %d devices (%d dropped)", len(rows), dropped))
	return len(rows), nil
}

// All returns the current staging batch.
func (s *Staging) All(ctx context.Context) ([]models.StagedDevice, error) {
	var rows []models.StagedDevice
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load staged devices: %w", err)
	}
	return rows, nil
}

// dedupeStaged keeps the last occurrence per appliance ID, preserving input
// order of the survivors.
func dedupeStaged(rows []models.StagedDevice) []models.StagedDevice {
	seen := make(map[int64]bool, len(rows))
	kept := make([]models.StagedDevice, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if seen[rows[i].SlurpitID] {
			continue
		}
		seen[rows[i].SlurpitID] = true
		kept = append(kept, rows[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
