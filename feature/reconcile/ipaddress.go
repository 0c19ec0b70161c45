package reconcile

import (
	"errors"
	"fmt"

	"inventory-sync/core/diff"
	"inventory-sync/core/inventory"
	"inventory-sync/core/utils"

	"gorm.io/gorm"
)

// ipAddressAdapter reconciles IP addresses keyed by (address, vrf). An
// empty VRF is the global table and is part of the key, not an absent
// value.
type ipAddressAdapter struct{}

func (ipAddressAdapter) Kind() Kind { return KindIPAddress }

func (ipAddressAdapter) RequiredFields() []string { return []string{"address"} }

func (ipAddressAdapter) Fields() []diff.Field {
	return []diff.Field{
		{Name: "status"},
		{Name: "role"},
		{Name: "tenant"},
		{Name: "dns_name"},
		{Name: "description"},
	}
}

func (ipAddressAdapter) NaturalKey(rec diff.Record) string {
	vrf := utils.ToString(rec["vrf"])
	if vrf == "" {
		return utils.ToString(rec["address"])
	}
	return fmt.Sprintf("%s@%s", utils.ToString(rec["address"]), vrf)
}

func (ipAddressAdapter) FindExisting(tx *gorm.DB, rec diff.Record) (diff.Record, uint, error) {
	var ip inventory.IPAddress
	err := tx.Where("address = ? AND vrf = ?", utils.ToString(rec["address"]), utils.ToString(rec["vrf"])).
		First(&ip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up ip address: %w", err)
	}
	return diff.Record{
		"status":      ip.Status,
		"role":        ip.Role,
		"tenant":      ip.Tenant,
		"dns_name":    ip.DNSName,
		"description": ip.Description,
	}, ip.ID, nil
}

func (ipAddressAdapter) Create(tx *gorm.DB, rec diff.Record, changes diff.Record) error {
	ip := inventory.IPAddress{
		Address: utils.ToString(rec["address"]),
		VRF:     utils.ToString(rec["vrf"]),
	}
	applyIPAddressChanges(&ip, changes)
	if err := tx.Create(&ip).Error; err != nil {
		return fmt.Errorf("failed to create ip address: %w", err)
	}
	return nil
}

func (ipAddressAdapter) Update(tx *gorm.DB, id uint, changes diff.Record) error {
	var ip inventory.IPAddress
	if err := tx.First(&ip, id).Error; err != nil {
		return fmt.Errorf("failed to load ip address %d: %w", id, err)
	}
	applyIPAddressChanges(&ip, changes)
	if err := tx.Save(&ip).Error; err != nil {
		return fmt.Errorf("failed to update ip address %d: %w", id, err)
	}
	return nil
}

func applyIPAddressChanges(ip *inventory.IPAddress, changes diff.Record) {
	for name, v := range changes {
		switch name {
		case "status":
			ip.Status = utils.ToString(v)
		case "role":
			ip.Role = utils.ToString(v)
		case "tenant":
			ip.Tenant = utils.ToString(v)
		case "dns_name":
			ip.DNSName = utils.ToString(v)
		case "description":
			ip.Description = utils.ToString(v)
		}
	}
}

func (ipAddressAdapter) Stage(tx *gorm.DB, rec diff.Record) error {
	row := StagedIPAddress{
		Address:     utils.ToString(rec["address"]),
		VRF:         utils.ToString(rec["vrf"]),
		Status:      utils.ToString(rec["status"]),
		Role:        utils.ToString(rec["role"]),
		Tenant:      utils.ToString(rec["tenant"]),
		DNSName:     utils.ToString(rec["dns_name"]),
		Description: utils.ToString(rec["description"]),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to stage ip address: %w", err)
	}
	return nil
}

func (ipAddressAdapter) LoadStaged(tx *gorm.DB, ids []uint, all bool) ([]Staged, error) {
	q := tx.Model(&StagedIPAddress{}).Order("id")
	if !all {
		q = q.Where("id IN ?", ids)
	}
	var rows []StagedIPAddress
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load staged ip addresses: %w", err)
	}
	staged := make([]Staged, 0, len(rows))
	for _, r := range rows {
		staged = append(staged, Staged{ID: r.ID, Record: diff.Record{
			"address":     r.Address,
			"vrf":         r.VRF,
			"status":      r.Status,
			"role":        r.Role,
			"tenant":      r.Tenant,
			"dns_name":    r.DNSName,
			"description": r.Description,
		}})
	}
	return staged, nil
}

func (ipAddressAdapter) DeleteStaged(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("id IN ?", ids).Delete(&StagedIPAddress{}).Error; err != nil {
		return fmt.Errorf("failed to delete staged ip addresses: %w", err)
	}
	return nil
}
