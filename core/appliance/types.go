package appliance

import (
	"bytes"
	"encoding/json"

	"inventory-sync/core/utils"
)

// BoolFlag decodes appliance boolean flags, which arrive as "0"/"1" strings,
// bare numbers, or actual booleans depending on the endpoint.
type BoolFlag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *BoolFlag) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = false
		return nil
	}
	*f = BoolFlag(utils.ToBool(string(data)))
	return nil
}

// FlexID decodes appliance identifiers, which arrive as numbers or
// numeric strings.
type FlexID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	*id = FlexID(utils.ToInt(string(data)))
	return nil
}

// RawDevice is one device record as reported by the appliance.
// Timestamps are kept as strings ("YYYY-MM-DD HH:MM:SS"); the staging store
// owns their validation and coercion.
type RawDevice struct {
	ID          FlexID   `json:"id"`
	Hostname    string   `json:"hostname"`
	FQDN        string   `json:"fqdn"`
	DeviceOS    string   `json:"device_os"`
	DeviceType  string   `json:"device_type"`
	Brand       string   `json:"brand"`
	Disabled    BoolFlag `json:"disabled"`
	IPv4        string   `json:"ipv4"`
	CreatedDate string   `json:"createddate"`
	ChangedDate string   `json:"changeddate"`
}

// RawPlanning is one planning job definition as reported by the appliance.
type RawPlanning struct {
	ID       FlexID   `json:"id"`
	Name     string   `json:"name"`
	Comment  string   `json:"comment"`
	Disabled BoolFlag `json:"disabled"`
}

// SnapshotResult is the per-planning payload of a device snapshot.
type SnapshotResult struct {
	Data json.RawMessage `json:"data"`
}
