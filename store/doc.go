// Package store persists article state.
//
// SQLite (modernc.org/sqlite, no cgo) is the durable implementation. It
// keeps articles and their essences in separate tables and records a
// schema version for migrations. Memory is an in-process implementation
// for tests and dry runs.
//
// Both implementations copy state on Save and Load, so the workflow engine
// never shares a pointer with the store.
package store
