package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-sync/core/appliance"
	"inventory-sync/feature/devices/models"

	"gorm.io/gorm"
)

// ValidateDevices checks pushed device records before any store mutation.
// The returned map is keyed by the record's hostname (or position when the
// hostname itself is missing); a non-empty map rejects the whole batch.
func ValidateDevices(raws []appliance.RawDevice) map[string]string {
	errs := map[string]string{}
	for i, raw := range raws {
		key := raw.Hostname
		if key == "" {
			key = fmt.Sprintf("record %d", i)
			errs[key] = "hostname is required"
			continue
		}
		if raw.ID == 0 {
			errs[key] = "id is required"
			continue
		}
		if raw.DeviceType == "" {
			errs[key] = "device_type is required"
			continue
		}
		if _, err := time.Parse(models.TimestampLayout, raw.CreatedDate); err != nil {
			errs[key] = fmt.Sprintf("createddate %q is not a valid timestamp", raw.CreatedDate)
			continue
		}
		if _, err := time.Parse(models.TimestampLayout, raw.ChangedDate); err != nil {
			errs[key] = fmt.Sprintf("changeddate %q is not a valid timestamp", raw.ChangedDate)
		}
	}
	return errs
}

// SyncDevices ingests pushed device records directly against the imported
// set, bypassing the staging table. Records are assumed validated. The same
// classification rules as the full sync apply, so pushing the same batch
// twice is a no-op.
func (o *Orchestrator) SyncDevices(ctx context.Context, raws []appliance.RawDevice) (*Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := &Report{}

	rows := make([]models.StagedDevice, 0, len(raws))
	for _, raw := range raws {
		created, _ := time.Parse(models.TimestampLayout, raw.CreatedDate)
		changed, _ := time.Parse(models.TimestampLayout, raw.ChangedDate)
		rows = append(rows, models.StagedFromRaw(raw, created, changed))
	}
	rows = dedupeStaged(rows)

	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range rows {
			var imp models.ImportedDevice
			err := tx.Where("slurpit_id = ?", st.SlurpitID).First(&imp).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := o.createImported(tx, st, report); err != nil {
					return err
				}
			case err != nil:
				return fmt.Errorf("failed to look up imported device %d: %w", st.SlurpitID, err)
			default:
				if !st.DeviceChangedAt.After(imp.DeviceChangedAt) {
					continue
				}
				if err := o.applyChanged(tx, &imp, st, report); err != nil {
					return err
				}
				report.Changed++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.rec.Success("device-sync", fmt.Sprintf("device push applied: %d created, %d changed, %d conflicts", report.Created, report.Changed, report.Conflicts))
	return report, nil
}
