package reconcile

import (
	"errors"
	"fmt"

	"inventory-sync/core/diff"
	"inventory-sync/core/inventory"
	"inventory-sync/core/utils"

	"gorm.io/gorm"
)

// prefixAdapter reconciles network prefixes keyed by (prefix, vrf).
type prefixAdapter struct{}

func (prefixAdapter) Kind() Kind { return KindPrefix }

func (prefixAdapter) RequiredFields() []string { return []string{"prefix"} }

func (prefixAdapter) Fields() []diff.Field {
	return []diff.Field{
		{Name: "status"},
		{Name: "vlan"},
		{Name: "tenant"},
		{Name: "site"},
		{Name: "role"},
		{Name: "description"},
	}
}

func (prefixAdapter) NaturalKey(rec diff.Record) string {
	vrf := utils.ToString(rec["vrf"])
	if vrf == "" {
		return utils.ToString(rec["prefix"])
	}
	return fmt.Sprintf("%s@%s", utils.ToString(rec["prefix"]), vrf)
}

func (prefixAdapter) FindExisting(tx *gorm.DB, rec diff.Record) (diff.Record, uint, error) {
	var p inventory.Prefix
	err := tx.Where("prefix = ? AND vrf = ?", utils.ToString(rec["prefix"]), utils.ToString(rec["vrf"])).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up prefix: %w", err)
	}
	return diff.Record{
		"status":      p.Status,
		"vlan":        p.VLAN,
		"tenant":      p.Tenant,
		"site":        p.Site,
		"role":        p.Role,
		"description": p.Description,
	}, p.ID, nil
}

func (prefixAdapter) Create(tx *gorm.DB, rec diff.Record, changes diff.Record) error {
	p := inventory.Prefix{
		Prefix: utils.ToString(rec["prefix"]),
		VRF:    utils.ToString(rec["vrf"]),
	}
	applyPrefixChanges(&p, changes)
	if err := tx.Create(&p).Error; err != nil {
		return fmt.Errorf("failed to create prefix: %w", err)
	}
	return nil
}

func (prefixAdapter) Update(tx *gorm.DB, id uint, changes diff.Record) error {
	var p inventory.Prefix
	if err := tx.First(&p, id).Error; err != nil {
		return fmt.Errorf("failed to load prefix %d: %w", id, err)
	}
	applyPrefixChanges(&p, changes)
	if err := tx.Save(&p).Error; err != nil {
		return fmt.Errorf("failed to update prefix %d: %w", id, err)
	}
	return nil
}

func applyPrefixChanges(p *inventory.Prefix, changes diff.Record) {
	for name, v := range changes {
		switch name {
		case "status":
			p.Status = utils.ToString(v)
		case "vlan":
			p.VLAN = utils.ToString(v)
		case "tenant":
			p.Tenant = utils.ToString(v)
		case "site":
			p.Site = utils.ToString(v)
		case "role":
			p.Role = utils.ToString(v)
		case "description":
			p.Description = utils.ToString(v)
		}
	}
}

func (prefixAdapter) Stage(tx *gorm.DB, rec diff.Record) error {
	row := StagedPrefix{
		Prefix:      utils.ToString(rec["prefix"]),
		VRF:         utils.ToString(rec["vrf"]),
		Status:      utils.ToString(rec["status"]),
		VLAN:        utils.ToString(rec["vlan"]),
		Tenant:      utils.ToString(rec["tenant"]),
		Site:        utils.ToString(rec["site"]),
		Role:        utils.ToString(rec["role"]),
		Description: utils.ToString(rec["description"]),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to stage prefix: %w", err)
	}
	return nil
}

func (prefixAdapter) LoadStaged(tx *gorm.DB, ids []uint, all bool) ([]Staged, error) {
	q := tx.Model(&StagedPrefix{}).Order("id")
	if !all {
		q = q.Where("id IN ?", ids)
	}
	var rows []StagedPrefix
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load staged prefixes: %w", err)
	}
	staged := make([]Staged, 0, len(rows))
	for _, r := range rows {
		staged = append(staged, Staged{ID: r.ID, Record: diff.Record{
			"prefix":      r.Prefix,
			"vrf":         r.VRF,
			"status":      r.Status,
			"vlan":        r.VLAN,
			"tenant":      r.Tenant,
			"site":        r.Site,
			"role":        r.Role,
			"description": r.Description,
		}})
	}
	return staged, nil
}

func (prefixAdapter) DeleteStaged(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("id IN ?", ids).Delete(&StagedPrefix{}).Error; err != nil {
		return fmt.Errorf("failed to delete staged prefixes: %w", err)
	}
	return nil
}
