package diff

// Decision classifies what should happen to one candidate record.
type Decision string

const (
	// DecisionCreate means no existing object matches the natural key.
	DecisionCreate Decision = "create"
	// DecisionUpdate means the existing object differs on at least one field.
	DecisionUpdate Decision = "update"
	// DecisionNoop means the existing object already equals the candidate
	// on every eligible field; no write is issued.
	DecisionNoop Decision = "noop"
	// DecisionConflict means the natural key collides with an object this
	// engine does not own. Conflicts require operator disposition and are
	// never auto-resolved; callers report them, Classify never returns one.
	DecisionConflict Decision = "conflict"
)

// Field declares one allow-listed mutable field of a record kind.
// The static per-kind field tables consumed by the engine replace any
// runtime model introspection.
type Field struct {
	// Name is the record field name.
	Name string
	// AlwaysApply exempts the field from operator ignore flags
	// (e.g. a device hostname, which drives renames).
	AlwaysApply bool
}

// Record is one loosely-typed candidate or existing record.
type Record = map[string]any

// Result is the outcome of classifying one candidate.
type Result struct {
	Decision Decision
	// Changes maps field name to the value that should be written.
	// Empty for NOOP; for CREATE it holds every non-empty candidate field.
	Changes Record
}
