package reconcile

import (
	"errors"
	"fmt"

	"inventory-sync/core/diff"
	"inventory-sync/core/inventory"
	"inventory-sync/core/utils"

	"gorm.io/gorm"
)

// interfaceAdapter reconciles device interfaces. The natural key is
// (device hostname, interface name); candidates for hosts the inventory
// does not know are skipped with ErrNoParent.
type interfaceAdapter struct{}

func (interfaceAdapter) Kind() Kind { return KindInterface }

func (interfaceAdapter) RequiredFields() []string { return []string{"hostname", "name"} }

func (interfaceAdapter) Fields() []diff.Field {
	return []diff.Field{
		{Name: "label"},
		{Name: "speed"},
		{Name: "description"},
		{Name: "type"},
		{Name: "duplex"},
		{Name: "module"},
	}
}

func (interfaceAdapter) NaturalKey(rec diff.Record) string {
	return fmt.Sprintf("%s/%s", utils.ToString(rec["hostname"]), utils.ToString(rec["name"]))
}

func (a interfaceAdapter) FindExisting(tx *gorm.DB, rec diff.Record) (diff.Record, uint, error) {
	deviceID, err := a.deviceID(tx, utils.ToString(rec["hostname"]))
	if err != nil {
		return nil, 0, err
	}

	var iface inventory.Interface
	err = tx.Where("device_id = ? AND name = ?", deviceID, utils.ToString(rec["name"])).First(&iface).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up interface: %w", err)
	}
	return diff.Record{
		"label":       iface.Label,
		"speed":       iface.Speed,
		"description": iface.Description,
		"type":        iface.Type,
		"duplex":      iface.Duplex,
		"module":      iface.Module,
	}, iface.ID, nil
}

func (a interfaceAdapter) deviceID(tx *gorm.DB, hostname string) (uint, error) {
	var device inventory.Device
	err := tx.Where("name = ?", hostname).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("device %q: %w", hostname, ErrNoParent)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up device %q: %w", hostname, err)
	}
	return device.ID, nil
}

func (a interfaceAdapter) Create(tx *gorm.DB, rec diff.Record, changes diff.Record) error {
	deviceID, err := a.deviceID(tx, utils.ToString(rec["hostname"]))
	if err != nil {
		return err
	}
	iface := inventory.Interface{
		DeviceID: deviceID,
		Name:     utils.ToString(rec["name"]),
	}
	applyInterfaceChanges(&iface, changes)
	if err := tx.Create(&iface).Error; err != nil {
		return fmt.Errorf("failed to create interface: %w", err)
	}
	return nil
}

func (interfaceAdapter) Update(tx *gorm.DB, id uint, changes diff.Record) error {
	var iface inventory.Interface
	if err := tx.First(&iface, id).Error; err != nil {
		return fmt.Errorf("failed to load interface %d: %w", id, err)
	}
	applyInterfaceChanges(&iface, changes)
	if err := tx.Save(&iface).Error; err != nil {
		return fmt.Errorf("failed to update interface %d: %w", id, err)
	}
	return nil
}

func applyInterfaceChanges(iface *inventory.Interface, changes diff.Record) {
	for name, v := range changes {
		switch name {
		case "label":
			iface.Label = utils.ToString(v)
		case "speed":
			iface.Speed = int64(utils.ToInt(v))
		case "description":
			iface.Description = utils.ToString(v)
		case "type":
			iface.Type = utils.ToString(v)
		case "duplex":
			iface.Duplex = utils.ToString(v)
		case "module":
			iface.Module = utils.ToString(v)
		}
	}
}

func (interfaceAdapter) Stage(tx *gorm.DB, rec diff.Record) error {
	row := StagedInterface{
		Hostname:    utils.ToString(rec["hostname"]),
		Name:        utils.ToString(rec["name"]),
		Label:       utils.ToString(rec["label"]),
		Description: utils.ToString(rec["description"]),
		Type:        utils.ToString(rec["type"]),
		Duplex:      utils.ToString(rec["duplex"]),
		Module:      utils.ToString(rec["module"]),
	}
	if v, ok := rec["speed"]; ok && !diff.IsEmpty(v) {
		speed := int64(utils.ToInt(v))
		row.Speed = &speed
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to stage interface: %w", err)
	}
	return nil
}

func (interfaceAdapter) LoadStaged(tx *gorm.DB, ids []uint, all bool) ([]Staged, error) {
	q := tx.Model(&StagedInterface{}).Order("id")
	if !all {
		q = q.Where("id IN ?", ids)
	}
	var rows []StagedInterface
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load staged interfaces: %w", err)
	}
	staged := make([]Staged, 0, len(rows))
	for _, r := range rows {
		rec := diff.Record{
			"hostname":    r.Hostname,
			"name":        r.Name,
			"label":       r.Label,
			"description": r.Description,
			"type":        r.Type,
			"duplex":      r.Duplex,
			"module":      r.Module,
		}
		// A missing speed must stay missing; zero would read as a real value.
		if r.Speed != nil {
			rec["speed"] = *r.Speed
		}
		staged = append(staged, Staged{ID: r.ID, Record: rec})
	}
	return staged, nil
}

func (interfaceAdapter) DeleteStaged(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("id IN ?", ids).Delete(&StagedInterface{}).Error; err != nil {
		return fmt.Errorf("failed to delete staged interfaces: %w", err)
	}
	return nil
}
