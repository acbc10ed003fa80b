package naivedb

import "errors"

// ErrReadOnly is returned by write-class operations on a backend opened
// without write capability. It is checked before any I/O occurs.
var ErrReadOnly = errors.New("storage is read-only")

// Item is the field mapping stored under one key. Values must be
// JSON-compatible: nil, bool, float64, string, []any or map[string]any.
type Item map[string]any

// Snapshot is the complete persisted state, a mapping from key to [Item].
// A nil Snapshot means no snapshot has ever been written.
type Snapshot map[string]Item

// Storage is the capability set every backend implements.
//
// Get and Set follow one uniform policy across all backends: Get returns
// (nil, nil) when the key is missing or the snapshot is absent, and Set on an
// absent snapshot starts a new one containing only that key.
type Storage interface {
	// Read returns the full snapshot, or nil if none has ever been written.
	Read() (Snapshot, error)
	// Write replaces the entire persisted state.
	Write(snapshot Snapshot) error
	// Get returns the item stored under key, or nil if absent.
	Get(key string) (Item, error)
	// Set updates a single key and durably persists the result.
	Set(key string, item Item) error
	// Close releases any held resources. Idempotent.
	Close() error
}

// Clone returns a deep copy of the item, or nil for a nil item.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	c := make(Item, len(it))
	for k, v := range it {
		c[k] = cloneValue(v)
	}
	return c
}

// Clone returns a deep copy of the snapshot, or nil for a nil snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	c := make(Snapshot, len(s))
	for k, it := range s {
		c[k] = it.Clone()
	}
	return c
}

// cloneValue deep-copies a JSON-compatible value. Scalars are returned as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}
