// Package reconcile ingests pushed interface, IP address, prefix and VLAN
// records and reconciles them against the host inventory.
//
// Every kind runs through the same engine: validate the batch, dedupe
// last-wins on the natural key, then either write classified changes
// directly (reconcile mode off) or park candidates in a per-kind staging
// table for operator review (mode on). Accepting or declining staged rows
// happens over the /reconcile API. Per-kind behavior lives in small
// adapters; the engine itself never knows field semantics.
package reconcile
