package naivedb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Mode is the access mode a FileStorage is opened with. Only ModeReadOnly
// forbids Write and Set.
type Mode int

const (
	// ModeReadOnly opens an existing file for reading. Write and Set fail
	// with ErrReadOnly before any I/O occurs.
	ModeReadOnly Mode = iota
	// ModeReadWrite opens an existing file for reading and writing.
	ModeReadWrite
	// ModeCreate opens a file for reading and writing, creating it if it
	// does not exist.
	ModeCreate
	// ModeTruncate opens a file for reading and writing, creating it if
	// needed and discarding any existing content.
	ModeTruncate
)

// String returns the mode name for error messages and logs.
func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeReadWrite:
		return "read-write"
	case ModeCreate:
		return "create"
	case ModeTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// flags maps the mode to os.OpenFile flags.
func (m Mode) flags() int {
	switch m {
	case ModeReadOnly:
		return os.O_RDONLY
	case ModeCreate:
		return os.O_RDWR | os.O_CREATE
	case ModeTruncate:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	default:
		return os.O_RDWR
	}
}

// Options configures serialization for a FileStorage. The zero value encodes
// compact JSON.
type Options struct {
	// Indent is passed to the JSON encoder unchanged. Empty means compact
	// output.
	Indent string
}

// FileStorage is the leaf backend persisting the snapshot as a single JSON
// file. It owns the file handle for its lifetime.
type FileStorage struct {
	path string
	mode Mode
	opts Options

	f *os.File
}

// NewFileStorage opens path with the given mode. A nil opts means compact
// JSON encoding.
func NewFileStorage(path string, mode Mode, opts *Options) (*FileStorage, error) {
	switch mode {
	case ModeReadOnly, ModeReadWrite, ModeCreate, ModeTruncate:
	default:
		return nil, fmt.Errorf("failed to open %s: unknown mode %s", path, mode)
	}
	f, err := os.OpenFile(path, mode.flags(), 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	fs := &FileStorage{path: path, mode: mode, f: f}
	if opts != nil {
		fs.opts = *opts
	}
	return fs, nil
}

// Path returns the backing file path.
func (fs *FileStorage) Path() string {
	return fs.path
}

// Read returns the decoded snapshot, or nil if the file is empty.
func (fs *FileStorage) Read() (Snapshot, error) {
	if fs.f == nil {
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, os.ErrClosed)
	}
	info, err := fs.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", fs.path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}
	if _, err := fs.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek in %s: %w", fs.path, err)
	}
	data, err := io.ReadAll(fs.f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot in %s: %w", fs.path, err)
	}
	return snapshot, nil
}

// Write replaces the file content with the encoded snapshot. The new content
// is written from the start, flushed and synced to stable storage, and only
// then is the file truncated to the new length, so a crash never leaves the
// file shorter than a synced prefix.
func (fs *FileStorage) Write(snapshot Snapshot) error {
	if fs.mode == ModeReadOnly {
		return fmt.Errorf("failed to write %s opened %s: %w", fs.path, fs.mode, ErrReadOnly)
	}
	if fs.f == nil {
		return fmt.Errorf("failed to write %s: %w", fs.path, os.ErrClosed)
	}

	var data []byte
	var err error
	if fs.opts.Indent != "" {
		data, err = json.MarshalIndent(snapshot, "", fs.opts.Indent)
	} else {
		data, err = json.Marshal(snapshot)
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if _, err := fs.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek in %s: %w", fs.path, err)
	}
	writer := bufio.NewWriter(fs.f)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", fs.path, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", fs.path, err)
	}
	if err := fs.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", fs.path, err)
	}
	// Handles snapshots that shrink. Truncating after the sync keeps the
	// valid prefix durable throughout.
	if err := fs.f.Truncate(int64(len(data))); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", fs.path, err)
	}
	return nil
}

// Get re-reads the whole file and returns the item under key, or nil if the
// snapshot or the key is absent.
func (fs *FileStorage) Get(key string) (Item, error) {
	snapshot, err := fs.Read()
	if err != nil {
		return nil, err
	}
	return snapshot[key].Clone(), nil
}

// Set re-reads the whole file, updates key, and rewrites everything. This is
// the acknowledged cost of the single-file design: O(snapshot) per item.
func (fs *FileStorage) Set(key string, item Item) error {
	if fs.mode == ModeReadOnly {
		return fmt.Errorf("failed to set %q in %s opened %s: %w", key, fs.path, fs.mode, ErrReadOnly)
	}
	snapshot, err := fs.Read()
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	snapshot[key] = item.Clone()
	return fs.Write(snapshot)
}

// Close releases the file handle. Calling it again is a no-op.
func (fs *FileStorage) Close() error {
	if fs.f == nil {
		return nil
	}
	f := fs.f
	fs.f = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", fs.path, err)
	}
	return nil
}
