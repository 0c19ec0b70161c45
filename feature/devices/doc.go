// Package devices exposes the device import life cycle over HTTP.
//
// The push API mirrors the appliance's own sync protocol:
//
//	POST /device            apply one record directly
//	POST /device/sync       stage a batch into the current cycle
//	POST /device/sync_start truncate staging, begin a cycle
//	POST /device/sync_end   reconcile staged vs imported
//
// The heavy lifting lives in the sync sub-package.
package devices
