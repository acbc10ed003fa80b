package naivedb

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLiteStorage(t *testing.T) {
	t.Run("begins empty", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:", ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		defer s.Close()
		snapshot, err := s.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if snapshot != nil {
			t.Errorf("Read() = %v, want nil", snapshot)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:", ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		defer s.Close()
		if err := s.Write(exampleSnapshot); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		got, err := s.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !reflect.DeepEqual(got, exampleSnapshot) {
			t.Errorf("Read() = %v, want %v", got, exampleSnapshot)
		}
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.db")
		s, err := NewSQLiteStorage(path, ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		if err := s.Write(exampleSnapshot); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		s, err = NewSQLiteStorage(path, ModeReadOnly)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		defer s.Close()
		got, err := s.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !reflect.DeepEqual(got, exampleSnapshot) {
			t.Errorf("Read() = %v, want %v", got, exampleSnapshot)
		}
	})

	t.Run("read only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.db")
		rw, err := NewSQLiteStorage(path, ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		if err := rw.Write(exampleSnapshot); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := rw.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		s, err := NewSQLiteStorage(path, ModeReadOnly)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		defer s.Close()
		if err := s.Write(exampleSnapshot); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Write error = %v, want ErrReadOnly", err)
		}
		if err := s.Set("key", Item{"v": 1.0}); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Set error = %v, want ErrReadOnly", err)
		}
		got, err := s.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !reflect.DeepEqual(got, exampleSnapshot) {
			t.Errorf("Read() = %v, want %v", got, exampleSnapshot)
		}
	})

	t.Run("read only does not create the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		if _, err := NewSQLiteStorage(path, ModeReadOnly); err == nil {
			t.Fatal("NewSQLiteStorage on a missing path succeeded, want error")
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("read-only open created %s: stat error = %v", path, err)
		}
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		if _, err := NewSQLiteStorage(":memory:", Mode(9)); err == nil {
			t.Error("NewSQLiteStorage with unknown mode succeeded, want error")
		}
	})

	t.Run("get and set", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:", ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		defer s.Close()
		if err := s.Write(Snapshot{"a": {"x": 1.0}, "b": {"y": 2.0}}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := s.Set("a", Item{"x": 99.0}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Get("b")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if want := (Item{"y": 2.0}); !reflect.DeepEqual(got, want) {
			t.Errorf("Get(b) = %v, want %v", got, want)
		}
		missing, err := s.Get("missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if missing != nil {
			t.Errorf("Get(missing) = %v, want nil", missing)
		}
	})

	t.Run("works under a cache", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:", ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		c, err := NewCachingStorage(s)
		if err != nil {
			t.Fatalf("NewCachingStorage failed: %v", err)
		}
		defer c.Close()
		if err := c.Set("key", Item{"v": 1.0}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if want := (Snapshot{"key": {"v": 1.0}}); !reflect.DeepEqual(got, want) {
			t.Errorf("backend holds %v, want %v", got, want)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:", ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close failed: %v", err)
		}
	})

	t.Run("fails after close", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:", ModeReadWrite)
		if err != nil {
			t.Fatalf("NewSQLiteStorage failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := s.Read(); !errors.Is(err, os.ErrClosed) {
			t.Errorf("Read error after Close = %v, want os.ErrClosed", err)
		}
		if err := s.Write(exampleSnapshot); !errors.Is(err, os.ErrClosed) {
			t.Errorf("Write error after Close = %v, want os.ErrClosed", err)
		}
		if _, err := s.Get("key"); !errors.Is(err, os.ErrClosed) {
			t.Errorf("Get error after Close = %v, want os.ErrClosed", err)
		}
		if err := s.Set("key", Item{"v": 1.0}); !errors.Is(err, os.ErrClosed) {
			t.Errorf("Set error after Close = %v, want os.ErrClosed", err)
		}
	})
}
