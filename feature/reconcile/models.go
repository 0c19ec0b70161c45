package reconcile

import "strings"

// Settings holds per-kind reconciliation configuration, persisted apart from
// candidate data. A missing row means "unconfigured": reconcile mode off and
// no ignored fields.
type Settings struct {
	Kind string `gorm:"primaryKey;size:32" json:"kind"`
	// ReconcileEnabled selects stage-then-accept ingestion; when false,
	// candidates are written directly into the inventory.
	ReconcileEnabled bool `json:"reconcile_enabled"`
	// IgnoredFields is a comma-separated list of fields excluded from
	// diffing and auto-apply.
	IgnoredFields string `gorm:"size:512" json:"ignored_fields"`
}

// TableName sets the table name for reconcile settings.
func (Settings) TableName() string { return "reconcile_settings" }

// IgnoredSet expands the ignored-field list for the diff engine.
func (s Settings) IgnoredSet() map[string]bool {
	set := map[string]bool{}
	for _, f := range strings.Split(s.IgnoredFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			set[f] = true
		}
	}
	return set
}

// FieldMapping maps an appliance field name to a host-model target field.
// Mappings label human-facing views of staged candidates; classification
// never consults them.
type FieldMapping struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Kind        string `gorm:"size:32;uniqueIndex:idx_mapping_kind_source" json:"kind"`
	SourceField string `gorm:"size:64;uniqueIndex:idx_mapping_kind_source" json:"source_field"`
	TargetField string `gorm:"size:64" json:"target_field"`
}

// TableName sets the table name for field mappings.
func (FieldMapping) TableName() string { return "field_mappings" }

// StagedInterface is one pending interface candidate. Speed is nullable so
// a candidate pushed without it stays absent through the stage-then-accept
// round trip instead of turning into a clobbering zero.
type StagedInterface struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Hostname    string `gorm:"size:128;index" json:"hostname"`
	Name        string `gorm:"size:128" json:"name"`
	Label       string `gorm:"size:128" json:"label"`
	Speed       *int64 `json:"speed"`
	Description string `gorm:"size:255" json:"description"`
	Type        string `gorm:"size:64" json:"type"`
	Duplex      string `gorm:"size:16" json:"duplex"`
	Module      string `gorm:"size:64" json:"module"`
}

// TableName sets the table name for staged interfaces.
func (StagedInterface) TableName() string { return "staged_interfaces" }

// StagedIPAddress is one pending IP address candidate.
type StagedIPAddress struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Address     string `gorm:"size:64;index" json:"address"`
	VRF         string `gorm:"size:64" json:"vrf"`
	Status      string `gorm:"size:32" json:"status"`
	Role        string `gorm:"size:64" json:"role"`
	Tenant      string `gorm:"size:64" json:"tenant"`
	DNSName     string `gorm:"size:255" json:"dns_name"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName sets the table name for staged IP addresses.
func (StagedIPAddress) TableName() string { return "staged_ip_addresses" }

// StagedPrefix is one pending prefix candidate.
type StagedPrefix struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Prefix      string `gorm:"size:64;index" json:"prefix"`
	VRF         string `gorm:"size:64" json:"vrf"`
	Status      string `gorm:"size:32" json:"status"`
	VLAN        string `gorm:"size:64" json:"vlan"`
	Tenant      string `gorm:"size:64" json:"tenant"`
	Site        string `gorm:"size:128" json:"site"`
	Role        string `gorm:"size:64" json:"role"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName sets the table name for staged prefixes.
func (StagedPrefix) TableName() string { return "staged_prefixes" }

// StagedVLAN is one pending VLAN candidate.
type StagedVLAN struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	VID         int    `gorm:"column:vid;index" json:"vid"`
	Name        string `gorm:"size:128" json:"name"`
	Group       string `gorm:"size:128" json:"group"`
	Status      string `gorm:"size:32" json:"status"`
	Role        string `gorm:"size:64" json:"role"`
	Tenant      string `gorm:"size:64" json:"tenant"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName sets the table name for staged VLANs.
func (StagedVLAN) TableName() string { return "staged_vlans" }
