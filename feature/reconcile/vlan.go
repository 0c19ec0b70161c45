package reconcile

import (
	"errors"
	"fmt"

	"inventory-sync/core/diff"
	"inventory-sync/core/inventory"
	"inventory-sync/core/utils"

	"gorm.io/gorm"
)

// vlanAdapter reconciles VLANs. Matching prefers (name, group); only a
// candidate with an empty name falls back to (vid, group). A VLAN renamed
// on the appliance therefore shows up as a new record rather than silently
// capturing an unrelated VLAN that happens to share the vid.
type vlanAdapter struct{}

func (vlanAdapter) Kind() Kind { return KindVLAN }

func (vlanAdapter) RequiredFields() []string { return []string{"vid"} }

func (vlanAdapter) Fields() []diff.Field {
	return []diff.Field{
		{Name: "status"},
		{Name: "role"},
		{Name: "tenant"},
		{Name: "description"},
	}
}

func (vlanAdapter) NaturalKey(rec diff.Record) string {
	group := utils.ToString(rec["group"])
	name := utils.ToString(rec["name"])
	if name == "" {
		return fmt.Sprintf("vid %d/%s", utils.ToInt(rec["vid"]), group)
	}
	return fmt.Sprintf("%s/%s", name, group)
}

func (vlanAdapter) FindExisting(tx *gorm.DB, rec diff.Record) (diff.Record, uint, error) {
	name := utils.ToString(rec["name"])
	group := utils.ToString(rec["group"])

	var vlan inventory.VLAN
	var err error
	if name != "" {
		err = tx.Where("name = ? AND `group` = ?", name, group).First(&vlan).Error
	} else {
		err = tx.Where("vid = ? AND `group` = ?", utils.ToInt(rec["vid"]), group).First(&vlan).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up vlan: %w", err)
	}
	return diff.Record{
		"status":      vlan.Status,
		"role":        vlan.Role,
		"tenant":      vlan.Tenant,
		"description": vlan.Description,
	}, vlan.ID, nil
}

func (vlanAdapter) Create(tx *gorm.DB, rec diff.Record, changes diff.Record) error {
	vlan := inventory.VLAN{
		VID:   utils.ToInt(rec["vid"]),
		Name:  utils.ToString(rec["name"]),
		Group: utils.ToString(rec["group"]),
	}
	applyVLANChanges(&vlan, changes)
	if err := tx.Create(&vlan).Error; err != nil {
		return fmt.Errorf("failed to create vlan: %w", err)
	}
	return nil
}

func (vlanAdapter) Update(tx *gorm.DB, id uint, changes diff.Record) error {
	var vlan inventory.VLAN
	if err := tx.First(&vlan, id).Error; err != nil {
		return fmt.Errorf("failed to load vlan %d: %w", id, err)
	}
	applyVLANChanges(&vlan, changes)
	if err := tx.Save(&vlan).Error; err != nil {
		return fmt.Errorf("failed to update vlan %d: %w", id, err)
	}
	return nil
}

func applyVLANChanges(vlan *inventory.VLAN, changes diff.Record) {
	for name, v := range changes {
		switch name {
		case "status":
			vlan.Status = utils.ToString(v)
		case "role":
			vlan.Role = utils.ToString(v)
		case "tenant":
			vlan.Tenant = utils.ToString(v)
		case "description":
			vlan.Description = utils.ToString(v)
		}
	}
}

func (vlanAdapter) Stage(tx *gorm.DB, rec diff.Record) error {
	row := StagedVLAN{
		VID:         utils.ToInt(rec["vid"]),
		Name:        utils.ToString(rec["name"]),
		Group:       utils.ToString(rec["group"]),
		Status:      utils.ToString(rec["status"]),
		Role:        utils.ToString(rec["role"]),
		Tenant:      utils.ToString(rec["tenant"]),
		Description: utils.ToString(rec["description"]),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to stage vlan: %w", err)
	}
	return nil
}

func (vlanAdapter) LoadStaged(tx *gorm.DB, ids []uint, all bool) ([]Staged, error) {
	q := tx.Model(&StagedVLAN{}).Order("id")
	if !all {
		q = q.Where("id IN ?", ids)
	}
	var rows []StagedVLAN
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load staged vlans: %w", err)
	}
	staged := make([]Staged, 0, len(rows))
	for _, r := range rows {
		staged = append(staged, Staged{ID: r.ID, Record: diff.Record{
			"vid":         r.VID,
			"name":        r.Name,
			"group":       r.Group,
			"status":      r.Status,
			"role":        r.Role,
			"tenant":      r.Tenant,
			"description": r.Description,
		}})
	}
	return staged, nil
}

func (vlanAdapter) DeleteStaged(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("id IN ?", ids).Delete(&StagedVLAN{}).Error; err != nil {
		return fmt.Errorf("failed to delete staged vlans: %w", err)
	}
	return nil
}
