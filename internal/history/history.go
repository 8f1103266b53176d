// Package history persists the shell's command history so ↑/↓ recall
// survives restarts.
package history

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/storage"
)

const historyFile = "history.json"

// History is the bounded command history, oldest first.
type History struct {
	mu      sync.Mutex
	entries []string
	max     int
	backend storage.Backend
	log     *log.Logger
}

// Load reads the history from the backend, trimming it to max
// entries.
func Load(backend storage.Backend, max int, logger *log.Logger) *History {
	h := &History{max: max, backend: backend, log: logger}
	if _, err := backend.Load(historyFile, &h.entries); err != nil {
		logger.Warn("could not load command history, starting empty", "err", err)
		h.entries = nil
	}
	h.trimLocked()
	return h
}

// Add appends a command, collapsing consecutive duplicates and
// trimming to the configured size. The history is kept in memory and
// flushed on exit.
func (h *History) Add(command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.entries); n > 0 && h.entries[n-1] == command {
		return
	}
	h.entries = append(h.entries, command)
	h.trimLocked()
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Flush persists the history. Called on exit and interrupt as a
// best-effort final save.
func (h *History) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.backend.Save(historyFile, h.entries); err != nil {
		h.log.Warn("failed to save command history", "err", err)
		return err
	}
	return nil
}

func (h *History) trimLocked() {
	if h.max > 0 && len(h.entries) > h.max {
		h.entries = append([]string(nil), h.entries[len(h.entries)-h.max:]...)
	}
}
