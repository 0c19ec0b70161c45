// Package planning synchronizes appliance planning definitions and their
// per-device snapshots.
//
// Planning sync is a set diff with optional delete-on-disappearance
// semantics; snapshot ingestion is a strict first-writer-wins upsert keyed
// by (hostname, planning_id, result_type). Snapshots can optionally be
// mirrored into object storage for offline audit.
package planning
