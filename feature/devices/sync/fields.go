package sync

import (
	"inventory-sync/core/diff"
	"inventory-sync/core/utils"
	"inventory-sync/feature/devices/models"
)

// ManagementInterfaceName is the interface upserted to carry a device's
// primary IPv4 address.
const ManagementInterfaceName = "mgmt0"

// deviceFields is the static allow-list of fields flowing from a staged
// device onto its imported counterpart. Hostname drives renames and is
// applied regardless of any ignore configuration.
var deviceFields = []diff.Field{
	{Name: "hostname", AlwaysApply: true},
	{Name: "fqdn"},
	{Name: "device_os"},
	{Name: "device_type"},
	{Name: "brand"},
	{Name: "ipv4"},
}

func stagedRecord(s models.StagedDevice) diff.Record {
	return diff.Record{
		"hostname":    s.Hostname,
		"fqdn":        s.FQDN,
		"device_os":   s.DeviceOS,
		"device_type": s.DeviceType,
		"brand":       s.Brand,
		"ipv4":        s.IPv4,
	}
}

func importedRecord(d models.ImportedDevice) diff.Record {
	return diff.Record{
		"hostname":    d.Hostname,
		"fqdn":        d.FQDN,
		"device_os":   d.DeviceOS,
		"device_type": d.DeviceType,
		"brand":       d.Brand,
		"ipv4":        d.IPv4,
	}
}

func applyToImported(d *models.ImportedDevice, changes diff.Record) {
	for name, v := range changes {
		switch name {
		case "hostname":
			d.Hostname = utils.ToString(v)
		case "fqdn":
			d.FQDN = utils.ToString(v)
		case "device_os":
			d.DeviceOS = utils.ToString(v)
		case "device_type":
			d.DeviceType = utils.ToString(v)
		case "brand":
			d.Brand = utils.ToString(v)
		case "ipv4":
			d.IPv4 = utils.ToString(v)
		}
	}
}
