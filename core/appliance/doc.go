// Package appliance implements the HTTP client for the network discovery
// appliance.
//
// The appliance is the source of truth for device reports, planning job
// definitions and per-device snapshot content. All calls are bounded by a
// fixed timeout; failures are surfaced as errors and never retried here —
// the sync orchestrator decides how to degrade.
package appliance
