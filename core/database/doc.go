// Package database manages the connection to the inventory database.
//
// Production deployments use MySQL; sqlite is supported for tests and small
// single-node installs via the Driver config field. GORM's own logging is
// silenced so that the application logger remains the single reporting path.
package database
