// Package scratch manages the temporary files that bridge the video
// transcoder's file-based I/O contract. Files are uniquely named, owned
// by exactly one operation, and released exactly once on every exit path.
package scratch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrEmptyName is returned when a scratch file is requested without a
// name hint.
var ErrEmptyName = errors.New("scratch: empty file name")

// Manager allocates uniquely-named files inside a process-wide scratch
// directory. Concurrent operations never collide: every file carries a
// random UUID prefix, so the directory needs no locking discipline
// beyond atomic create/delete.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates a Manager rooted at dir, creating the directory if
// needed. If dir is empty, a subdirectory of os.TempDir() is used.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ingest-api")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	return &Manager{dir: dir, logger: logger}, nil
}

// Dir returns the scratch directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// Acquire reserves a unique path for name inside the scratch directory
// and returns its handle. No I/O is performed; the caller writes the
// bytes. Release the handle with defer immediately after acquiring it so
// the file is removed on every exit path.
func (m *Manager) Acquire(name string) (*File, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	unique := uuid.NewString() + "-" + sanitize(name)
	return &File{
		path:    filepath.Join(m.dir, unique),
		manager: m,
	}, nil
}

// File is a handle to one scratch file. Ownership is exclusive and
// single-use: written once, read at most once, released exactly once.
type File struct {
	path    string
	manager *Manager
	once    sync.Once
}

// Path returns the filesystem location of the scratch file.
func (f *File) Path() string {
	return f.path
}

// Write stores data in the scratch file.
func (f *File) Write(data []byte) error {
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write scratch file: %w", err)
	}
	return nil
}

// Read returns the scratch file's contents.
func (f *File) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path) // #nosec G304 - path is generated by the manager
	if err != nil {
		return nil, fmt.Errorf("read scratch file: %w", err)
	}
	return data, nil
}

// Release deletes the scratch file. It is safe to call multiple times
// and on files that were never written. Deletion failures are logged,
// never escalated: cleanup is best-effort, not fatal.
func (f *File) Release() {
	f.once.Do(func() {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			f.manager.logger.Warn("scratch file cleanup failed",
				slog.String("path", f.path),
				slog.String("error", err.Error()),
			)
		}
	})
}

// sanitize strips path components and characters that have no business
// in a filename, keeping the original name readable for debugging.
func sanitize(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
