// Package naivedb is a minimal embedded document store: a mapping from string
// key to item (a JSON-compatible field mapping) persisted as a single JSON file.
//
// # Overview
//
// The package centers around [Storage], the capability set shared by all
// backends: read or replace the whole snapshot, get or set a single item, and
// close. [FileStorage] is the durable leaf (one open file handle, JSON encoded,
// flushed and synced on every write). [MemoryStorage] is the volatile leaf.
// [CachingStorage] composes over any Storage, keeping a private in-memory
// snapshot so single-item reads never touch the backend, and rolling its cache
// back when a write-through fails.
//
// # Ownership
//
// Every Read and Get returns a deep copy, and every Write and Set stores one.
// No Storage instance ever aliases caller-held state, and a CachingStorage
// never aliases the backend it wraps.
//
// # Concurrency
//
// Storage instances are not safe for concurrent use. The design assumes a
// single owning goroutine per instance, a single owning process per backing
// file, and a single wrapper per wrapped backend. A CachingStorage over a
// backend mutated by anyone else will silently diverge; [FileStorage.Watch]
// can detect such external modification but never repairs it.
//
// # Durability
//
// FileStorage.Write seeks to the start, writes the new encoding, flushes,
// syncs to stable storage, and only then truncates to the new length, so a
// crash never leaves the file shorter than a synced prefix. That single write
// is the only durability unit: there are no multi-item transactions.
package naivedb
