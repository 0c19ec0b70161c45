// Package utils provides loose-typed value coercions.
//
// Appliance payloads carry numbers and boolean flags as strings ("0"/"1"),
// and JSON decoding produces float64 for every number. These helpers
// normalize such values without panicking on unexpected types.
package utils
