package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inventory-sync/core/appliance"
	"inventory-sync/core/diff"
	"inventory-sync/core/inventory"
	"inventory-sync/core/oplog"
	"inventory-sync/feature/devices/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options controls orchestrator behavior.
type Options struct {
	// UnattendedImport onboards an inventory device immediately for every
	// newly discovered appliance device.
	UnattendedImport bool
}

// Report summarizes one processed import.
type Report struct {
	Parted         int `json:"parted"`
	Decommissioned int `json:"decommissioned"`
	Changed        int `json:"changed"`
	Created        int `json:"created"`
	Conflicts      int `json:"conflicts"`
	Skipped        int `json:"skipped"`
}

// Orchestrator drives the device full-sync life cycle:
// stage, diff against the previously imported set, classify
// parted/changed/new, apply in batches, log the outcome.
//
// The whole life cycle is serialized behind a process-wide mutex so that a
// second sync cannot truncate the staging table out from under an in-flight
// run.
type Orchestrator struct {
	db      *gorm.DB
	logger  *zap.Logger
	rec     *oplog.Recorder
	staging *Staging
	opts    Options

	mu sync.Mutex
}

// NewOrchestrator creates the sync orchestrator.
func NewOrchestrator(db *gorm.DB, logger *zap.Logger, rec *oplog.Recorder, opts Options) *Orchestrator {
	return &Orchestrator{
		db:      db,
		logger:  logger,
		rec:     rec,
		staging: NewStaging(db, logger, rec),
		opts:    opts,
	}
}

// Staging exposes the staging store.
func (o *Orchestrator) Staging() *Staging { return o.staging }

// StartImport begins a new full-sync cycle by clearing the staging table.
func (o *Orchestrator) StartImport(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.staging.BeginBatch(ctx)
}

// ImportDevices stages a batch of appliance device reports.
func (o *Orchestrator) ImportDevices(ctx context.Context, raws []appliance.RawDevice) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.staging.Stage(ctx, raws)
}

// ProcessImport reconciles the staged batch against the imported-device set.
// When deleteParted is true, imported devices absent from the staged batch
// are swept first.
func (o *Orchestrator) ProcessImport(ctx context.Context, deleteParted bool) (*Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processImport(ctx, deleteParted)
}

// Run executes one full pull sync against the appliance. An unreachable
// appliance is logged and surfaced as a nil report; it never propagates as
// an error past the orchestrator boundary, and prior state is left untouched.
func (o *Orchestrator) Run(ctx context.Context, client *appliance.Client) (*Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	raws, err := client.ListAllDevices(ctx)
	if err != nil {
		o.rec.Warning("device-sync", fmt.Sprintf("device sync aborted, appliance fetch failed: %v", err))
		return nil, nil
	}

	if err := o.staging.BeginBatch(ctx); err != nil {
		return nil, err
	}
	if _, err := o.staging.Stage(ctx, raws); err != nil {
		return nil, err
	}
	return o.processImport(ctx, true)
}

func (o *Orchestrator) processImport(ctx context.Context, deleteParted bool) (*Report, error) {
	report := &Report{}

	staged, err := o.staging.All(ctx)
	if err != nil {
		return nil, err
	}

	var imported []models.ImportedDevice
	if err := o.db.WithContext(ctx).Find(&imported).Error; err != nil {
		return nil, fmt.Errorf("failed to load imported devices: %w", err)
	}

	stagedByID := make(map[int64]models.StagedDevice, len(staged))
	for _, st := range staged {
		stagedByID[st.SlurpitID] = st
	}
	importedByID := make(map[int64]models.ImportedDevice, len(imported))
	for _, imp := range imported {
		importedByID[imp.SlurpitID] = imp
	}

	// Phase ordering matters: parted happens-before changed happens-before
	// new, so changed_at comparisons always see the previous cycle's state.
	if deleteParted {
		if err := o.sweepParted(ctx, imported, stagedByID, report); err != nil {
			return nil, err
		}
	}
	if err := o.handleChanged(ctx, staged, importedByID, report); err != nil {
		return nil, err
	}
	if err := o.handleNewComers(ctx, staged, importedByID, report); err != nil {
		return nil, err
	}

	o.rec.Success("device-sync", fmt.Sprintf(
		"device import completed: %d parted, %d decommissioned, %d changed, %d created, %d conflicts",
		report.Parted, report.Decommissioned, report.Changed, report.Created, report.Conflicts))
	return report, nil
}

// sweepParted removes imported devices absent from the staged batch.
// Rows with a live inventory mapping are never deleted; the mapped device is
// reclassified as decommissioning instead.
func (o *Orchestrator) sweepParted(ctx context.Context, imported []models.ImportedDevice, stagedByID map[int64]models.StagedDevice, report *Report) error {
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, imp := range imported {
			if _, present := stagedByID[imp.SlurpitID]; present {
				continue
			}
			if imp.MappedDeviceID == nil {
				if err := tx.Delete(&models.ImportedDevice{}, imp.ID).Error; err != nil {
					return fmt.Errorf("failed to delete parted device %s: %w", imp.Hostname, err)
				}
				report.Parted++
				continue
			}
			res := tx.Model(&inventory.Device{}).
				Where("id = ?", *imp.MappedDeviceID).
				Update("status", inventory.StatusDecommissioning)
			if res.Error != nil {
				return fmt.Errorf("failed to decommission device %s: %w", imp.Hostname, res.Error)
			}
			report.Decommissioned++
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.rec.Info("device-sync", fmt.Sprintf("parted sweep: %d deleted, %d decommissioned", report.Parted, report.Decommissioned))
	return nil
}

// handleChanged applies staged rows whose changed_at strictly advanced.
func (o *Orchestrator) handleChanged(ctx context.Context, staged []models.StagedDevice, importedByID map[int64]models.ImportedDevice, report *Report) error {
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range staged {
			imp, ok := importedByID[st.SlurpitID]
			if !ok {
				continue
			}
			if !st.DeviceChangedAt.After(imp.DeviceChangedAt) {
				continue
			}
			if err := o.applyChanged(tx, &imp, st, report); err != nil {
				return err
			}
			importedByID[st.SlurpitID] = imp
			report.Changed++
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.rec.Info("device-sync", fmt.Sprintf("change detection: %d devices updated", report.Changed))
	return nil
}

func (o *Orchestrator) applyChanged(tx *gorm.DB, imp *models.ImportedDevice, st models.StagedDevice, report *Report) error {
	result := diff.Classify(stagedRecord(st), importedRecord(*imp), deviceFields, nil)
	applyToImported(imp, result.Changes)
	imp.Disabled = st.Disabled
	imp.DeviceChangedAt = st.DeviceChangedAt

	// Mapped sync runs first; a rename conflict flags the imported row, so
	// the flag has to land in the same save.
	if imp.MappedDeviceID != nil {
		if err := o.syncMappedDevice(tx, imp, st, report); err != nil {
			return err
		}
	}
	if err := tx.Save(imp).Error; err != nil {
		return fmt.Errorf("failed to update imported device %s: %w", imp.Hostname, err)
	}
	return nil
}

// syncMappedDevice pushes staged state onto the onboarded inventory device:
// status from the disabled flag, descriptive fields, management interface
// and primary IPv4, and finally the rename.
func (o *Orchestrator) syncMappedDevice(tx *gorm.DB, imp *models.ImportedDevice, st models.StagedDevice, report *Report) error {
	var dev inventory.Device
	if err := tx.First(&dev, *imp.MappedDeviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			o.rec.Warning("device-sync", fmt.Sprintf("mapped device %d for %s is gone", *imp.MappedDeviceID, imp.Hostname))
			return nil
		}
		return fmt.Errorf("failed to load mapped device: %w", err)
	}

	if st.Disabled {
		dev.Status = inventory.StatusOffline
	} else {
		dev.Status = inventory.StatusActive
	}
	// Descriptive fields follow the non-destructive rule: staged empties
	// never clobber.
	if st.FQDN != "" {
		dev.FQDN = st.FQDN
	}
	if st.DeviceOS != "" {
		dev.Platform = st.DeviceOS
	}
	if st.Brand != "" {
		dev.Manufacturer = st.Brand
	}
	if st.DeviceType != "" {
		dev.ModelName = st.DeviceType
	}
	if st.IPv4 != "" {
		if err := o.upsertManagement(tx, dev.ID, st.IPv4); err != nil {
			return err
		}
		dev.PrimaryIP4 = st.IPv4
	}
	// Renames pass the same ownership check as onboarding. Inventory names
	// are unique; a taken name is an operator conflict, not a failed batch.
	if st.Hostname != dev.Name {
		var taken int64
		if err := tx.Model(&inventory.Device{}).
			Where("name = ? AND id <> ?", st.Hostname, dev.ID).
			Count(&taken).Error; err != nil {
			return fmt.Errorf("failed to check rename target %s: %w", st.Hostname, err)
		}
		if taken > 0 {
			imp.Conflict = true
			report.Conflicts++
			o.rec.Warning("device-sync", fmt.Sprintf("rename of %s to %s collides with an existing inventory device", dev.Name, st.Hostname))
		} else {
			dev.Name = st.Hostname
		}
	}

	if err := tx.Save(&dev).Error; err != nil {
		return fmt.Errorf("failed to sync mapped device %s: %w", st.Hostname, err)
	}
	return nil
}

func (o *Orchestrator) upsertManagement(tx *gorm.DB, deviceID uint, ipv4 string) error {
	var iface inventory.Interface
	err := tx.Where("device_id = ? AND name = ?", deviceID, ManagementInterfaceName).First(&iface).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		iface = inventory.Interface{DeviceID: deviceID, Name: ManagementInterfaceName, Type: "virtual"}
		if err := tx.Create(&iface).Error; err != nil {
			return fmt.Errorf("failed to create management interface: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to look up management interface: %w", err)
	}

	var addr inventory.IPAddress
	err = tx.Where("address = ? AND vrf = ?", ipv4, "").First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		addr = inventory.IPAddress{Address: ipv4, Status: inventory.StatusActive, InterfaceID: &iface.ID}
		if err := tx.Create(&addr).Error; err != nil {
			return fmt.Errorf("failed to create primary address: %w", err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to look up primary address: %w", err)
	}

	addr.InterfaceID = &iface.ID
	if addr.Status == "" {
		addr.Status = inventory.StatusActive
	}
	if err := tx.Save(&addr).Error; err != nil {
		return fmt.Errorf("failed to update primary address: %w", err)
	}
	return nil
}

// handleNewComers creates imported rows for staged devices never seen before.
func (o *Orchestrator) handleNewComers(ctx context.Context, staged []models.StagedDevice, importedByID map[int64]models.ImportedDevice, report *Report) error {
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range staged {
			if _, ok := importedByID[st.SlurpitID]; ok {
				continue
			}
			if err := o.createImported(tx, st, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.rec.Info("device-sync", fmt.Sprintf("new devices: %d created, %d conflicts, %d skipped", report.Created, report.Conflicts, report.Skipped))
	return nil
}

func (o *Orchestrator) createImported(tx *gorm.DB, st models.StagedDevice, report *Report) error {
	// Hostnames are unique across imported devices; a duplicate here means
	// two appliance IDs share one hostname, which only an operator can untangle.
	var taken int64
	if err := tx.Model(&models.ImportedDevice{}).Where("hostname = ?", st.Hostname).Count(&taken).Error; err != nil {
		return fmt.Errorf("failed to check hostname uniqueness: %w", err)
	}
	if taken > 0 {
		o.rec.Failure("device-sync", fmt.Sprintf("device %s skipped: hostname already imported under another appliance id", st.Hostname))
		report.Skipped++
		return nil
	}

	imp := models.ImportedDevice{
		SlurpitID:       st.SlurpitID,
		Hostname:        st.Hostname,
		FQDN:            st.FQDN,
		DeviceOS:        st.DeviceOS,
		DeviceType:      st.DeviceType,
		Brand:           st.Brand,
		IPv4:            st.IPv4,
		Disabled:        st.Disabled,
		DeviceCreatedAt: st.DeviceCreatedAt,
		DeviceChangedAt: st.DeviceChangedAt,
	}

	// A same-named inventory device that no imported row owns is a natural
	// key conflict: surfaced for operator disposition, never auto-adopted.
	var existing inventory.Device
	err := tx.Where("name = ?", st.Hostname).First(&existing).Error
	switch {
	case err == nil:
		var owners int64
		if err := tx.Model(&models.ImportedDevice{}).Where("mapped_device_id = ?", existing.ID).Count(&owners).Error; err != nil {
			return fmt.Errorf("failed to check device ownership: %w", err)
		}
		if owners == 0 {
			imp.Conflict = true
			report.Conflicts++
			o.rec.Warning("device-sync", fmt.Sprintf("device %s conflicts with an existing unmanaged inventory device", st.Hostname))
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if o.opts.UnattendedImport {
			dev, err := o.onboard(tx, st)
			if err != nil {
				return err
			}
			imp.MappedDeviceID = &dev.ID
		}
	default:
		return fmt.Errorf("failed to check inventory for %s: %w", st.Hostname, err)
	}

	if err := tx.Create(&imp).Error; err != nil {
		return fmt.Errorf("failed to create imported device %s: %w", st.Hostname, err)
	}
	report.Created++
	return nil
}

// onboard materializes an inventory device for a newly imported one.
func (o *Orchestrator) onboard(tx *gorm.DB, st models.StagedDevice) (*inventory.Device, error) {
	status := inventory.StatusActive
	if st.Disabled {
		status = inventory.StatusOffline
	}
	dev := inventory.Device{
		Name:         st.Hostname,
		Status:       status,
		FQDN:         st.FQDN,
		Platform:     st.DeviceOS,
		Manufacturer: st.Brand,
		ModelName:    st.DeviceType,
		PrimaryIP4:   st.IPv4,
	}
	if err := tx.Create(&dev).Error; err != nil {
		return nil, fmt.Errorf("failed to onboard device %s: %w", st.Hostname, err)
	}
	if st.IPv4 != "" {
		if err := o.upsertManagement(tx, dev.ID, st.IPv4); err != nil {
			return nil, err
		}
	}
	return &dev, nil
}
