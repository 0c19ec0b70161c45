package reconcile

import (
	"context"
	"errors"
	"fmt"

	"inventory-sync/core/diff"
	"inventory-sync/core/oplog"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// chunkSize bounds how many candidates one transaction covers.
const chunkSize = 256

// ValidationError carries the per-record error map for a rejected batch.
// Validation is all-or-nothing: one bad record rejects the whole push.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d records", len(e.Errors))
}

// Report summarizes one ingest or apply run.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Noop    int `json:"noop"`
	Staged  int `json:"staged"`
	Skipped int `json:"skipped"`
	// Errors maps natural keys (or chunk labels) to per-record apply
	// failures. These never abort the run.
	Errors map[string]string `json:"errors,omitempty"`
}

// Service is the generic reconcile engine shared by every record kind.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	rec    *oplog.Recorder
}

// NewService creates a new reconcile service.
func NewService(db *gorm.DB, logger *zap.Logger, rec *oplog.Recorder) *Service {
	return &Service{db: db, logger: logger, rec: rec}
}

// Ingest takes one pushed batch of candidate records for a kind.
//
// The batch is first validated as a whole; any missing required field
// rejects the entire push with a ValidationError keyed by natural key.
// Surviving records are deduplicated last-wins, then either staged for
// operator review (reconcile mode on) or classified and written directly
// into the inventory (mode off), in fixed-size chunks with one transaction
// per chunk.
func (s *Service) Ingest(ctx context.Context, kind Kind, records []diff.Record) (*Report, error) {
	adapter, err := adapterFor(kind)
	if err != nil {
		return nil, err
	}

	if verr := s.validate(adapter, records); verr != nil {
		return nil, verr
	}
	records = diff.DedupeLast(records, adapter.NaturalKey)

	settings, err := s.GetSettings(ctx, kind)
	if err != nil {
		return nil, err
	}

	report := &Report{Errors: map[string]string{}}
	if settings.ReconcileEnabled {
		err = s.stageAll(ctx, adapter, records, report)
	} else {
		err = s.applyAll(ctx, adapter, records, settings.IgnoredSet(), report)
	}
	if err != nil {
		return nil, err
	}

	s.rec.Success(string(kind)+"-ingest", fmt.Sprintf(
		"%s ingest completed: %d created, %d updated, %d unchanged, %d staged, %d skipped",
		kind, report.Created, report.Updated, report.Noop, report.Staged, report.Skipped))
	return report, nil
}

// validate checks required fields across the whole batch before anything
// is written.
func (s *Service) validate(adapter Adapter, records []diff.Record) *ValidationError {
	errs := map[string]string{}
	for i, rec := range records {
		for _, f := range adapter.RequiredFields() {
			if diff.IsEmpty(rec[f]) {
				errs[recordKey(adapter, i, rec)] = fmt.Sprintf("field %q is required", f)
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// recordKey labels one record in an error map. Falls back to the batch
// position when the natural key itself is incomplete.
func recordKey(adapter Adapter, i int, rec diff.Record) string {
	for _, f := range adapter.RequiredFields() {
		if diff.IsEmpty(rec[f]) {
			return fmt.Sprintf("record %d", i)
		}
	}
	return adapter.NaturalKey(rec)
}

// stageAll writes candidates into the kind's staging table.
func (s *Service) stageAll(ctx context.Context, adapter Adapter, records []diff.Record, report *Report) error {
	for start := 0; start < len(records); start += chunkSize {
		chunk := records[start:min(start+chunkSize, len(records))]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, rec := range chunk {
				if err := adapter.Stage(tx, rec); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		report.Staged += len(chunk)
	}
	return nil
}

// applyAll classifies candidates against the inventory and writes the
// outcome, one transaction per chunk. Per-record parent lookups that fail
// skip the record; a store failure rolls back only the current chunk.
func (s *Service) applyAll(ctx context.Context, adapter Adapter, records []diff.Record, ignored map[string]bool, report *Report) error {
	for start := 0; start < len(records); start += chunkSize {
		chunk := records[start:min(start+chunkSize, len(records))]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, rec := range chunk {
				if err := s.applyOne(tx, adapter, rec, ignored, report); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			label := fmt.Sprintf("chunk %d", start/chunkSize)
			report.Errors[label] = err.Error()
			s.logger.Error("Reconcile chunk failed",
				zap.String("kind", string(adapter.Kind())),
				zap.String("chunk", label),
				zap.Error(err),
			)
		}
	}
	return nil
}

// applyOne classifies and writes a single candidate inside tx.
func (s *Service) applyOne(tx *gorm.DB, adapter Adapter, rec diff.Record, ignored map[string]bool, report *Report) error {
	existing, id, err := adapter.FindExisting(tx, rec)
	if errors.Is(err, ErrNoParent) {
		report.Skipped++
		report.Errors[adapter.NaturalKey(rec)] = err.Error()
		return nil
	}
	if err != nil {
		return err
	}

	res := diff.Classify(rec, existing, adapter.Fields(), ignored)
	switch res.Decision {
	case diff.DecisionCreate:
		if err := adapter.Create(tx, rec, res.Changes); err != nil {
			return err
		}
		report.Created++
	case diff.DecisionUpdate:
		if err := adapter.Update(tx, id, res.Changes); err != nil {
			return err
		}
		report.Updated++
	default:
		report.Noop++
	}
	return nil
}

// ListStaged returns the staged candidates of a kind, oldest first.
func (s *Service) ListStaged(ctx context.Context, kind Kind) ([]Staged, error) {
	adapter, err := adapterFor(kind)
	if err != nil {
		return nil, err
	}
	return adapter.LoadStaged(s.db.WithContext(ctx), nil, true)
}

// Apply accepts staged candidates into the inventory. When all is set the
// id list is ignored and every staged row of the kind is applied. Applied
// rows leave the staging table; rows whose parent is missing stay behind
// with an entry in the error map.
func (s *Service) Apply(ctx context.Context, kind Kind, ids []uint, all bool) (*Report, error) {
	adapter, err := adapterFor(kind)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx, kind)
	if err != nil {
		return nil, err
	}
	ignored := settings.IgnoredSet()

	staged, err := adapter.LoadStaged(s.db.WithContext(ctx), ids, all)
	if err != nil {
		return nil, err
	}

	report := &Report{Errors: map[string]string{}}
	for start := 0; start < len(staged); start += chunkSize {
		chunk := staged[start:min(start+chunkSize, len(staged))]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			applied := make([]uint, 0, len(chunk))
			for _, row := range chunk {
				before := report.Skipped
				if err := s.applyOne(tx, adapter, row.Record, ignored, report); err != nil {
					return err
				}
				if report.Skipped == before {
					applied = append(applied, row.ID)
				}
			}
			return adapter.DeleteStaged(tx, applied)
		})
		if err != nil {
			label := fmt.Sprintf("chunk %d", start/chunkSize)
			report.Errors[label] = err.Error()
			s.logger.Error("Reconcile apply chunk failed",
				zap.String("kind", string(kind)),
				zap.String("chunk", label),
				zap.Error(err),
			)
		}
	}

	s.rec.Success(string(kind)+"-apply", fmt.Sprintf(
		"%s apply completed: %d created, %d updated, %d unchanged, %d skipped",
		kind, report.Created, report.Updated, report.Noop, report.Skipped))
	return report, nil
}

// Decline discards staged candidates without touching the inventory.
func (s *Service) Decline(ctx context.Context, kind Kind, ids []uint, all bool) (int, error) {
	adapter, err := adapterFor(kind)
	if err != nil {
		return 0, err
	}

	staged, err := adapter.LoadStaged(s.db.WithContext(ctx), ids, all)
	if err != nil {
		return 0, err
	}
	drop := make([]uint, 0, len(staged))
	for _, row := range staged {
		drop = append(drop, row.ID)
	}
	if err := adapter.DeleteStaged(s.db.WithContext(ctx), drop); err != nil {
		return 0, err
	}

	s.rec.Info(string(kind)+"-decline", fmt.Sprintf("%s decline: %d staged records discarded", kind, len(drop)))
	return len(drop), nil
}

// GetSettings loads the settings row for a kind. A missing row yields the
// defaults: reconcile mode off, no ignored fields.
func (s *Service) GetSettings(ctx context.Context, kind Kind) (Settings, error) {
	var settings Settings
	err := s.db.WithContext(ctx).First(&settings, "kind = ?", string(kind)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Settings{Kind: string(kind)}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings for %s: %w", kind, err)
	}
	return settings, nil
}

// SaveSettings upserts the settings row for a kind.
func (s *Service) SaveSettings(ctx context.Context, settings Settings) error {
	if _, err := adapterFor(Kind(settings.Kind)); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&settings).Error
	if err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", settings.Kind, err)
	}
	s.rec.Info(settings.Kind+"-settings", fmt.Sprintf(
		"settings updated: reconcile=%t ignored=%q", settings.ReconcileEnabled, settings.IgnoredFields))
	return nil
}

// ListMappings returns the field mappings of a kind.
func (s *Service) ListMappings(ctx context.Context, kind Kind) ([]FieldMapping, error) {
	var rows []FieldMapping
	if err := s.db.WithContext(ctx).Where("kind = ?", string(kind)).Order("source_field").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list mappings for %s: %w", kind, err)
	}
	return rows, nil
}

// SaveMapping upserts one field mapping keyed by (kind, source_field).
func (s *Service) SaveMapping(ctx context.Context, m FieldMapping) error {
	if _, err := adapterFor(Kind(m.Kind)); err != nil {
		return err
	}
	if m.SourceField == "" || m.TargetField == "" {
		return &ValidationError{Errors: map[string]string{
			"mapping": "source_field and target_field are required",
		}}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "source_field"}},
			UpdateAll: true,
		}).
		Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save mapping %s.%s: %w", m.Kind, m.SourceField, err)
	}
	return nil
}

// DeleteMapping removes one field mapping.
func (s *Service) DeleteMapping(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&FieldMapping{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete mapping %d: %w", id, err)
	}
	return nil
}
