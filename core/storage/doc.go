// Package storage provides the object storage client used for the snapshot
// archive.
//
// The Client interface wraps the subset of the MinIO API the archive needs,
// allowing tests to substitute a mock. The archive is optional: when no
// endpoint is configured the planning feature simply skips archiving.
package storage
