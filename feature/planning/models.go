package planning

// Planning is an appliance-defined job definition.
type Planning struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// ExternalID is the appliance-side planning id, stable across syncs.
	ExternalID int64  `gorm:"uniqueIndex" json:"planning_id"`
	Name       string `gorm:"size:255" json:"name"`
	Comments   string `gorm:"size:1024" json:"comments"`
	// Selected is the operator opt-in flag choosing which plannings are
	// surfaced; it is never touched by sync.
	Selected bool `json:"selected"`
	Disabled bool `json:"disabled"`
}

// TableName sets the table name for plannings.
func (Planning) TableName() string { return "plannings" }

// Snapshot result types.
const (
	ResultTypeTemplate = "template_result"
	ResultTypePlanning = "planning_result"
)

// Snapshot is one per-device, per-planning, per-result-type blob of
// appliance-returned structured data.
type Snapshot struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Hostname   string `gorm:"size:128;uniqueIndex:idx_snapshot_key" json:"hostname"`
	PlanningID int64  `gorm:"uniqueIndex:idx_snapshot_key" json:"planning_id"`
	ResultType string `gorm:"size:32;uniqueIndex:idx_snapshot_key" json:"result_type"`
	Content    string `gorm:"type:longtext" json:"content"`
}

// TableName sets the table name for snapshots.
func (Snapshot) TableName() string { return "snapshots" }
