package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/superpixel-tools/internal/fsutil"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Directory names below the store root.
const (
	UploadsDir  = "uploads"
	SegmentsDir = "segments"
	LabelsDir   = "labels"
	MasksDir    = "masks"
)

// Store is a directory-backed persistence layer. It is safe for concurrent
// use within one process.
type Store struct {
	root   string
	logger zerolog.Logger
	now    func() time.Time

	// labelMu serializes read-modify-write cycles on label files.
	labelMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used for label timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates the directory layout under root if needed.
func Open(root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, superpixel.InputError("store root is empty")
	}
	s := &Store{root: root, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range []string{UploadsDir, SegmentsDir, LabelsDir, MasksDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return s, nil
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// checkID rejects ids that are empty or could escape the store directories.
func checkID(kind, id string) error {
	if id == "" {
		return superpixel.InputError("%s is required", kind)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.Contains(id, "..") {
		return superpixel.InputError("invalid %s %q", kind, id)
	}
	return nil
}

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return fsutil.WriteFileAtomic(path, data)
}

// readJSON decodes path into v. A missing file wraps superpixel.ErrNotFound.
func (s *Store) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return superpixel.NotFoundError("%s", filepath.Base(path))
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return superpixel.ConsistencyError("%s is corrupt: %v", filepath.Base(path), err)
	}
	return nil
}
