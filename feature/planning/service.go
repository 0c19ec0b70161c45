package planning

import (
	"bytes"
	"context"
	"fmt"

	"inventory-sync/core/appliance"
	"inventory-sync/core/oplog"
	"inventory-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Report summarizes one planning sync.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Service handles planning and snapshot synchronization.
type Service struct {
	db      *gorm.DB
	logger  *zap.Logger
	rec     *oplog.Recorder
	client  storage.Client
	bucket  string
	archive bool
}

// NewService creates a new planning service. client may be nil; archiving
// only happens when both a client is present and archive is enabled.
func NewService(db *gorm.DB, logger *zap.Logger, rec *oplog.Recorder, client storage.Client, bucket string, archive bool) *Service {
	return &Service{
		db:      db,
		logger:  logger,
		rec:     rec,
		client:  client,
		bucket:  bucket,
		archive: archive && client != nil,
	}
}

// SyncPlannings reconciles the stored planning set against the incoming one
// inside a single transaction.
//
// Plannings present in both sets have name and comments refreshed in place.
// Plannings only in the incoming set are created. When deleteAbsent is set,
// stored plannings missing from the incoming set are deleted along with
// every snapshot they own.
func (s *Service) SyncPlannings(ctx context.Context, incoming []appliance.RawPlanning, deleteAbsent bool) (*Report, error) {
	report := &Report{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []Planning
		if err := tx.Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load plannings: %w", err)
		}

		incomingByID := make(map[int64]appliance.RawPlanning, len(incoming))
		for _, raw := range incoming {
			incomingByID[int64(raw.ID)] = raw
		}
		existingByID := make(map[int64]Planning, len(existing))
		for _, p := range existing {
			existingByID[p.ExternalID] = p
		}

		if deleteAbsent {
			for _, p := range existing {
				if _, ok := incomingByID[p.ExternalID]; ok {
					continue
				}
				if err := s.deletePlanning(tx, p); err != nil {
					return err
				}
				report.Deleted++
			}
		}

		for _, raw := range incoming {
			p, ok := existingByID[int64(raw.ID)]
			if !ok {
				p = Planning{
					ExternalID: int64(raw.ID),
					Name:       raw.Name,
					Comments:   raw.Comment,
					Disabled:   bool(raw.Disabled),
				}
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("failed to create planning %d: %w", raw.ID, err)
				}
				report.Created++
				continue
			}
			p.Name = raw.Name
			p.Comments = raw.Comment
			p.Disabled = bool(raw.Disabled)
			if err := tx.Save(&p).Error; err != nil {
				return fmt.Errorf("failed to update planning %d: %w", raw.ID, err)
			}
			report.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.rec.Success("planning-sync", fmt.Sprintf("planning sync completed: %d created, %d updated, %d deleted",
		report.Created, report.Updated, report.Deleted))
	return report, nil
}

// deletePlanning removes a planning and clears every snapshot it owns.
func (s *Service) deletePlanning(tx *gorm.DB, p Planning) error {
	if err := tx.Where("planning_id = ?", p.ExternalID).Delete(&Snapshot{}).Error; err != nil {
		return fmt.Errorf("failed to clear snapshots for planning %d: %w", p.ExternalID, err)
	}
	if err := tx.Delete(&Planning{}, p.ID).Error; err != nil {
		return fmt.Errorf("failed to delete planning %d: %w", p.ExternalID, err)
	}
	return nil
}

// UpsertSnapshots inserts snapshot blobs keyed by
// (hostname, planning_id, result_type). Conflicting rows are left untouched:
// within one batch the first writer wins.
func (s *Service) UpsertSnapshots(ctx context.Context, snaps []Snapshot) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(snaps, 256)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upsert snapshots: %w", res.Error)
	}

	if s.archive {
		for _, snap := range snaps {
			s.archiveSnapshot(ctx, snap)
		}
	}
	return int(res.RowsAffected), nil
}

// ClearSnapshots removes every snapshot owned by a planning. Used when a
// planning is re-synced with full-replace semantics.
func (s *Service) ClearSnapshots(ctx context.Context, planningID int64) error {
	if err := s.db.WithContext(ctx).Where("planning_id = ?", planningID).Delete(&Snapshot{}).Error; err != nil {
		return fmt.Errorf("failed to clear snapshots for planning %d: %w", planningID, err)
	}
	s.rec.Info("planning-sync", fmt.Sprintf("snapshots cleared for planning %d", planningID))
	return nil
}

// archiveSnapshot mirrors one snapshot into object storage, best effort.
func (s *Service) archiveSnapshot(ctx context.Context, snap Snapshot) {
	objectName := fmt.Sprintf("snapshots/%s/%d/%s.json", snap.Hostname, snap.PlanningID, snap.ResultType)
	data := []byte(snap.Content)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		s.logger.Warn("Snapshot archive write failed",
			zap.String("object", objectName),
			zap.Error(err),
		)
	}
}

// List returns all plannings.
func (s *Service) List(ctx context.Context) ([]Planning, error) {
	var rows []Planning
	if err := s.db.WithContext(ctx).Order("external_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list plannings: %w", err)
	}
	return rows, nil
}
