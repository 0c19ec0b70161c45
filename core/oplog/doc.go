// Package oplog maintains the append-only operational log.
//
// Every significant sync outcome (success, partial skip, conflict, failure)
// is appended here with time, severity, category and message. The log is the
// primary audit trail for operators and is mirrored to the structured logger.
package oplog
