package naivedb

// CachingStorage wraps any Storage, keeping a private in-memory snapshot so
// item reads never touch the backend. It assumes the wrapped backend is not
// mutated by any other owner for its lifetime; the cache is not kept in sync
// with external changes.
type CachingStorage struct {
	inner Storage
	cache Snapshot
}

// NewCachingStorage reads the wrapped backend once and retains the result as
// the cache. The backend is never re-read afterwards.
func NewCachingStorage(inner Storage) (*CachingStorage, error) {
	snapshot, err := inner.Read()
	if err != nil {
		return nil, err
	}
	return &CachingStorage{inner: inner, cache: snapshot.Clone()}, nil
}

// Read returns a copy of the cache. It never touches the backend.
func (c *CachingStorage) Read() (Snapshot, error) {
	return c.cache.Clone(), nil
}

// Write goes through to the backend first; the cache is replaced only on
// success, so a failed write leaves it completely untouched.
func (c *CachingStorage) Write(snapshot Snapshot) error {
	if err := c.inner.Write(snapshot); err != nil {
		return err
	}
	c.cache = snapshot.Clone()
	return nil
}

// Get returns the cached item under key, or nil if the cache or the key is
// absent.
func (c *CachingStorage) Get(key string) (Item, error) {
	return c.cache[key].Clone(), nil
}

// Set updates key in the cache and writes the whole cache through to the
// backend. If the write fails, the cache is rolled back to its exact
// pre-call state and the backend error is returned unchanged.
func (c *CachingStorage) Set(key string, item Item) error {
	hadSnapshot := c.cache != nil
	prev, existed := c.cache[key]

	if !hadSnapshot {
		c.cache = Snapshot{}
	}
	c.cache[key] = item.Clone()

	if err := c.inner.Write(c.cache); err != nil {
		switch {
		case !hadSnapshot:
			c.cache = nil
		case !existed:
			delete(c.cache, key)
		default:
			c.cache[key] = prev
		}
		return err
	}
	return nil
}

// Close closes the wrapped backend.
func (c *CachingStorage) Close() error {
	return c.inner.Close()
}
