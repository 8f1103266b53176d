// Package storage persists application state as pretty-printed JSON
// files in the devcoach data directory. Missing or corrupted files fall
// back to the caller's default value so startup never fails on bad
// state.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/errs"
)

// Backend is the persistence surface used by the stores. It exists so
// tests can inject write failures.
type Backend interface {
	// Load reads name into v. It reports whether the file existed and
	// decoded cleanly; a missing or corrupted file is not an error.
	Load(name string, v any) (bool, error)
	// Save writes v to name atomically.
	Save(name string, v any) error
}

// Dir is a Backend rooted at a single data directory.
type Dir struct {
	path    string
	memOnly bool
	log     *log.Logger
}

// Open prepares the data directory. If the directory cannot be
// created, the Dir degrades to in-memory-only operation: loads find
// nothing and saves succeed without touching disk. The condition is
// surfaced via MemoryOnly so the shell can warn the user.
func Open(path string, logger *log.Logger) *Dir {
	d := &Dir{path: path, log: logger}
	if err := os.MkdirAll(path, 0o755); err != nil {
		logger.Error("cannot create data directory, state will not be persisted",
			"dir", path, "err", err)
		d.memOnly = true
	}
	return d
}

// MemoryOnly reports whether the data directory is unavailable.
func (d *Dir) MemoryOnly() bool { return d.memOnly }

// Path returns the data directory path.
func (d *Dir) Path() string { return d.path }

// Load implements Backend.
func (d *Dir) Load(name string, v any) (bool, error) {
	if d.memOnly {
		return false, nil
	}
	path := filepath.Join(d.path, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errs.Wrap(errs.KindFileIO, "reading "+name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		d.log.Warn("file is corrupted, starting from defaults", "file", name, "err", err)
		return false, nil
	}
	return true, nil
}

// Save implements Backend. The write goes through a temp file and
// rename so a crash mid-write cannot corrupt the previous state.
func (d *Dir) Save(name string, v any) error {
	if d.memOnly {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindFileIO, "encoding "+name, err)
	}
	path := filepath.Join(d.path, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return errs.Wrap(errs.KindFileIO, "writing "+name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.KindFileIO, "writing "+name, err)
	}
	return nil
}
