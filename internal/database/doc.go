// Package database provides connection pool management for the PostgreSQL
// bid event archive. The archive is optional; a watcher without one never
// opens a connection.
package database
