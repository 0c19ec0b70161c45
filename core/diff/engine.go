package diff

import (
	"inventory-sync/core/utils"
)

// Classify decides, for one candidate and its possible existing counterpart,
// whether to create, update or skip.
//
// The overwrite rule is uniform across every reconciled kind and must hold
// exactly: a candidate value flows onto the existing record only when it is
// non-empty. Nil and empty string are both "absent" — an absent candidate
// value never clobbers an existing one.
//
// Fields carrying an ignore flag are excluded unless declared AlwaysApply.
func Classify(candidate, existing Record, fields []Field, ignored map[string]bool) Result {
	if existing == nil {
		changes := Record{}
		for _, f := range fields {
			if ignored[f.Name] && !f.AlwaysApply {
				continue
			}
			if v, ok := candidate[f.Name]; ok && !IsEmpty(v) {
				changes[f.Name] = v
			}
		}
		return Result{Decision: DecisionCreate, Changes: changes}
	}

	changes := Record{}
	for _, f := range fields {
		if ignored[f.Name] && !f.AlwaysApply {
			continue
		}
		v, ok := candidate[f.Name]
		if !ok || IsEmpty(v) {
			continue
		}
		if !equalValues(existing[f.Name], v) {
			changes[f.Name] = v
		}
	}

	if len(changes) == 0 {
		return Result{Decision: DecisionNoop, Changes: changes}
	}
	return Result{Decision: DecisionUpdate, Changes: changes}
}

// IsEmpty reports whether a candidate value counts as absent.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// equalValues compares two loosely-typed values. Appliance payloads carry
// numbers as strings or float64 depending on the path they took, so values
// are compared through their normalized string form.
func equalValues(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return utils.ToString(a) == utils.ToString(b)
}

// DedupeLast removes duplicate records sharing a natural key, keeping the
// last occurrence in input order. Appliance pushes can legitimately contain
// superseding duplicate rows within one batch, so the iteration runs in
// reverse and skips keys already seen.
func DedupeLast(records []Record, key func(Record) string) []Record {
	seen := make(map[string]bool, len(records))
	kept := make([]Record, 0, len(records))

	for i := len(records) - 1; i >= 0; i-- {
		k := key(records[i])
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, records[i])
	}

	// Restore input order of the survivors.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
