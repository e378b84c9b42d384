package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// SeenFilterFile is the file name of the scan history filter in the data directory.
	SeenFilterFile = "seen.bloom"

	// seenCapacity and seenFalsePositiveRate size a new filter. A false
	// positive makes a --skip-seen run skip a URL it never scanned.
	seenCapacity          = 100_000
	seenFalsePositiveRate = 0.0001
)

// SeenFilter remembers the URLs that were scanned successfully in earlier
// runs. It is a bloom filter persisted to disk, so membership answers may
// be false positives but never false negatives.
type SeenFilter struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	path   string
	dirty  bool
}

// OpenSeenFilter loads the filter stored at path. A missing file yields an
// empty filter that is created on the first Save.
func OpenSeenFilter(path string) (*SeenFilter, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the data directory
	if errors.Is(err, os.ErrNotExist) {
		return &SeenFilter{
			filter: bloom.NewWithEstimates(seenCapacity, seenFalsePositiveRate),
			path:   path,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open scan history: %w", err)
	}
	defer f.Close()

	filter := &bloom.BloomFilter{}
	if _, err := filter.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("failed to read scan history %s: %w", path, err)
	}
	return &SeenFilter{filter: filter, path: path}, nil
}

// Path returns the file the filter is saved to.
func (s *SeenFilter) Path() string {
	return s.path
}

// Seen reports whether url was probably marked before.
func (s *SeenFilter) Seen(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.TestString(url)
}

// Mark records url as scanned.
func (s *SeenFilter) Mark(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.AddString(url)
	s.dirty = true
}

// Save writes the filter to its file when it changed since it was opened
// or last saved. The file is replaced atomically.
func (s *SeenFilter) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), SeenFilterFile+".*")
	if err != nil {
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	w := bufio.NewWriter(tmp)
	if _, err := s.filter.WriteTo(w); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	s.dirty = false
	return nil
}
