// Package sync implements the device import life cycle.
//
// A full sync runs stage -> diff -> apply: the staging table is truncated and
// refilled from the appliance roster, then reconciled against the durable
// imported-device set in three ordered phases (parted sweep, change
// detection, newcomer creation). Individual record applies are idempotent;
// repeating a sync with identical input produces no writes.
package sync
