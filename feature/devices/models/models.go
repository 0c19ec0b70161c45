package models

import (
	"time"

	"inventory-sync/core/appliance"
)

// TimestampLayout is the appliance-side timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// StagedDevice is one device report held for the current sync cycle.
// The staging table is a full-replace snapshot: it is truncated when a new
// import starts and never incrementally updated.
type StagedDevice struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SlurpitID       int64     `gorm:"uniqueIndex" json:"slurpit_id"`
	Hostname        string    `gorm:"size:128" json:"hostname"`
	FQDN            string    `gorm:"size:255" json:"fqdn"`
	DeviceOS        string    `gorm:"size:64" json:"device_os"`
	DeviceType      string    `gorm:"size:128" json:"device_type"`
	Brand           string    `gorm:"size:64" json:"brand"`
	IPv4            string    `gorm:"size:64" json:"ipv4"`
	Disabled        bool      `json:"disabled"`
	DeviceCreatedAt time.Time `gorm:"column:appliance_created_at" json:"created_at"`
	DeviceChangedAt time.Time `gorm:"column:appliance_changed_at" json:"changed_at"`
}

// TableName sets the table name for staged devices.
func (StagedDevice) TableName() string { return "staged_devices" }

// ImportedDevice is the durable record of every device ever seen from the
// appliance. SlurpitID is the only identity that survives hostname renames.
type ImportedDevice struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SlurpitID       int64     `gorm:"uniqueIndex" json:"slurpit_id"`
	Hostname        string    `gorm:"size:128;uniqueIndex" json:"hostname"`
	FQDN            string    `gorm:"size:255" json:"fqdn"`
	DeviceOS        string    `gorm:"size:64" json:"device_os"`
	DeviceType      string    `gorm:"size:128" json:"device_type"`
	Brand           string    `gorm:"size:64" json:"brand"`
	IPv4            string    `gorm:"size:64" json:"ipv4"`
	Disabled        bool      `json:"disabled"`
	DeviceCreatedAt time.Time `gorm:"column:appliance_created_at" json:"created_at"`
	DeviceChangedAt time.Time `gorm:"column:appliance_changed_at" json:"changed_at"`

	// MappedDeviceID references the onboarded host inventory device, if any.
	// Rows with a live mapping are never deleted by the parted-device sweep.
	MappedDeviceID *uint `json:"mapped_device_id"`

	// Conflict marks a hostname collision with an inventory device this
	// pipeline does not own. Requires operator disposition.
	Conflict bool `json:"conflict"`
}

// TableName sets the table name for imported devices.
func (ImportedDevice) TableName() string { return "imported_devices" }

// StagedFromRaw builds a staged row from an appliance device report.
// Timestamp validation belongs to the staging store; this is a plain copy.
func StagedFromRaw(raw appliance.RawDevice, created, changed time.Time) StagedDevice {
	return StagedDevice{
		SlurpitID:       int64(raw.ID),
		Hostname:        raw.Hostname,
		FQDN:            raw.FQDN,
		DeviceOS:        raw.DeviceOS,
		DeviceType:      raw.DeviceType,
		Brand:           raw.Brand,
		IPv4:            raw.IPv4,
		Disabled:        bool(raw.Disabled),
		DeviceCreatedAt: created,
		DeviceChangedAt: changed,
	}
}
