package inventory

// Device status values used by the sync pipeline.
const (
	StatusActive          = "active"
	StatusOffline         = "offline"
	StatusDecommissioning = "decommissioning"
)

// Device is one host inventory device.
type Device struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:128;uniqueIndex" json:"name"`
	Status       string `gorm:"size:32" json:"status"`
	FQDN         string `gorm:"size:255" json:"fqdn"`
	Platform     string `gorm:"size:64" json:"platform"`
	Manufacturer string `gorm:"size:64" json:"manufacturer"`
	ModelName    string `gorm:"size:128" json:"model_name"`
	Site         string `gorm:"size:128" json:"site"`
	PrimaryIP4   string `gorm:"size:64" json:"primary_ip4"`
}

// TableName sets the table name for inventory devices.
func (Device) TableName() string { return "inventory_devices" }

// Interface is one device interface.
type Interface struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DeviceID    uint   `gorm:"uniqueIndex:idx_interface_device_name" json:"device_id"`
	Name        string `gorm:"size:128;uniqueIndex:idx_interface_device_name" json:"name"`
	Label       string `gorm:"size:128" json:"label"`
	Speed       int64  `json:"speed"`
	Description string `gorm:"size:255" json:"description"`
	Type        string `gorm:"size:64" json:"type"`
	Duplex      string `gorm:"size:16" json:"duplex"`
	Module      string `gorm:"size:64" json:"module"`
}

// TableName sets the table name for inventory interfaces.
func (Interface) TableName() string { return "inventory_interfaces" }

// IPAddress is one IP address, optionally bound to an interface.
type IPAddress struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Address     string `gorm:"size:64;uniqueIndex:idx_ipaddress_address_vrf" json:"address"`
	VRF         string `gorm:"size:64;uniqueIndex:idx_ipaddress_address_vrf" json:"vrf"`
	Status      string `gorm:"size:32" json:"status"`
	Role        string `gorm:"size:64" json:"role"`
	Tenant      string `gorm:"size:64" json:"tenant"`
	DNSName     string `gorm:"size:255" json:"dns_name"`
	Description string `gorm:"size:255" json:"description"`
	InterfaceID *uint  `json:"interface_id"`
}

// TableName sets the table name for inventory IP addresses.
func (IPAddress) TableName() string { return "inventory_ip_addresses" }

// Prefix is one network prefix.
type Prefix struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Prefix      string `gorm:"size:64;uniqueIndex:idx_prefix_prefix_vrf" json:"prefix"`
	VRF         string `gorm:"size:64;uniqueIndex:idx_prefix_prefix_vrf" json:"vrf"`
	Status      string `gorm:"size:32" json:"status"`
	VLAN        string `gorm:"size:64" json:"vlan"`
	Tenant      string `gorm:"size:64" json:"tenant"`
	Site        string `gorm:"size:128" json:"site"`
	Role        string `gorm:"size:64" json:"role"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName sets the table name for inventory prefixes.
func (Prefix) TableName() string { return "inventory_prefixes" }

// VLAN is one VLAN within a group.
type VLAN struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	VID         int    `gorm:"column:vid;uniqueIndex:idx_vlan_vid_group" json:"vid"`
	Name        string `gorm:"size:128" json:"name"`
	Group       string `gorm:"size:128;uniqueIndex:idx_vlan_vid_group" json:"group"`
	Status      string `gorm:"size:32" json:"status"`
	Role        string `gorm:"size:64" json:"role"`
	Tenant      string `gorm:"size:64" json:"tenant"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName sets the table name for inventory VLANs.
func (VLAN) TableName() string { return "inventory_vlans" }
