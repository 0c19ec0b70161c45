// Package inventory defines the host inventory data model.
//
// These tables are the system of record the sync pipeline reconciles into:
// devices, interfaces, IP addresses, prefixes and VLANs. Natural keys are
// enforced as unique indexes (device name, (device, name) for interfaces,
// (address, vrf), (prefix, vrf), (vid, group)).
package inventory
