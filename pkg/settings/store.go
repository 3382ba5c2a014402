package settings

import (
	"fmt"
	"io"
	"log/slog"
)

// Storage is the byte-addressed non-volatile memory holding the image.
type Storage interface {
	io.ReaderAt
	io.WriterAt
}

// Store loads and saves Exposure settings. It is the only component that
// touches Storage.
type Store struct {
	storage Storage
	base    int64
	log     *slog.Logger
}

// NewStore creates a Store keeping its image at offset base of storage.
func NewStore(storage Storage, base int64, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{storage: storage, base: base, log: logger}
}

// Load reads the persisted settings. It never fails: unreadable or foreign
// images yield defaults, out-of-range fields are replaced individually.
func (s *Store) Load() Exposure {
	buf := make([]byte, ImageSize)
	n, err := s.storage.ReadAt(buf, s.base)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		s.log.Warn("read settings, using defaults", "err", err)
		return Default()
	}

	e, err := Unmarshal(buf)
	if err != nil {
		s.log.Warn("decode settings, using defaults", "err", err)
	}
	return e
}

// Save writes every field unconditionally. Storage errors are returned to the
// caller; no retry is attempted.
func (s *Store) Save(e Exposure) error {
	if _, err := s.storage.WriteAt(Marshal(e), s.base); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
