package naivedb

// MemoryStorage is the volatile leaf backend, holding the snapshot only in
// process memory. Useful for testing and as an embeddable backend requiring
// no persistence.
type MemoryStorage struct {
	data Snapshot
}

// NewMemoryStorage returns an empty in-memory backend. Read returns nil until
// the first Write or Set.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Read returns a copy of the held snapshot, or nil if none was written.
func (m *MemoryStorage) Read() (Snapshot, error) {
	return m.data.Clone(), nil
}

// Write replaces the held snapshot with a copy of the argument.
func (m *MemoryStorage) Write(snapshot Snapshot) error {
	m.data = snapshot.Clone()
	return nil
}

// Get returns the item under key, or nil if the snapshot or the key is absent.
func (m *MemoryStorage) Get(key string) (Item, error) {
	return m.data[key].Clone(), nil
}

// Set updates a single key, starting a snapshot if none exists yet.
func (m *MemoryStorage) Set(key string, item Item) error {
	if m.data == nil {
		m.data = Snapshot{}
	}
	m.data[key] = item.Clone()
	return nil
}

// Close is a no-op; there is no external resource to release.
func (m *MemoryStorage) Close() error {
	return nil
}
