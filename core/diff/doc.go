// Package diff implements the field-level diff and classification engine.
//
// It is the single place that decides, for one candidate record and its
// possible existing counterpart, which allow-listed fields flow from
// candidate to existing and whether any write is needed at all. Per-kind
// reconcilers specialize it with a natural key and a static field table;
// the engine itself knows nothing about storage.
//
// The one rule that must hold everywhere: empty candidate values (nil or "")
// never overwrite existing values. Repeated syncs of identical input
// classify as NOOP, which is what makes full syncs idempotent.
package diff
