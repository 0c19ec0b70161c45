package reconcile

import (
	"errors"
	"fmt"

	"inventory-sync/core/diff"

	"gorm.io/gorm"
)

// Kind names one reconciled record kind.
type Kind string

const (
	KindInterface Kind = "interface"
	KindIPAddress Kind = "ipaddress"
	KindPrefix    Kind = "prefix"
	KindVLAN      Kind = "vlan"
)

// Kinds lists every reconciled kind, in ingest order.
var Kinds = []Kind{KindInterface, KindIPAddress, KindPrefix, KindVLAN}

// ParseKind resolves a kind from its route segment. "ipam" is the route
// alias for the IP address kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "interface":
		return KindInterface, nil
	case "ipam", "ipaddress":
		return KindIPAddress, nil
	case "prefix":
		return KindPrefix, nil
	case "vlan":
		return KindVLAN, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// ErrNoParent marks a candidate whose parent object (e.g. the owning
// device) is not present in the inventory. The record is skipped, never
// the batch.
var ErrNoParent = errors.New("parent object not found")

// Staged pairs a staging row id with the loose record form the diff
// engine consumes.
type Staged struct {
	ID     uint        `json:"id"`
	Record diff.Record `json:"record"`
}

// Adapter binds one record kind to its staging table and inventory table.
// The generic reconcile service owns ordering, deduplication, chunking and
// classification; adapters only answer kind-specific questions.
type Adapter interface {
	Kind() Kind
	// RequiredFields lists the candidate fields that must be non-empty for
	// the batch to pass validation.
	RequiredFields() []string
	// Fields is the allow-list of mutable fields the diff engine may touch.
	Fields() []diff.Field
	// NaturalKey renders the identity of a candidate for dedupe and for
	// error-map keys.
	NaturalKey(rec diff.Record) string
	// FindExisting loads the inventory record matching the candidate's
	// natural key. A nil record with a nil error means "absent".
	FindExisting(tx *gorm.DB, rec diff.Record) (diff.Record, uint, error)
	// Create inserts a new inventory record from the candidate's key fields
	// plus the classified changes.
	Create(tx *gorm.DB, rec diff.Record, changes diff.Record) error
	// Update applies classified changes to an existing inventory record.
	Update(tx *gorm.DB, id uint, changes diff.Record) error
	// Stage writes the candidate into the kind's staging table.
	Stage(tx *gorm.DB, rec diff.Record) error
	// LoadStaged returns staged rows by id, or every row when all is set.
	LoadStaged(tx *gorm.DB, ids []uint, all bool) ([]Staged, error)
	// DeleteStaged removes staged rows by id.
	DeleteStaged(tx *gorm.DB, ids []uint) error
}

// adapterFor returns the adapter bound to a kind.
func adapterFor(kind Kind) (Adapter, error) {
	switch kind {
	case KindInterface:
		return interfaceAdapter{}, nil
	case KindIPAddress:
		return ipAddressAdapter{}, nil
	case KindPrefix:
		return prefixAdapter{}, nil
	case KindVLAN:
		return vlanAdapter{}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}
