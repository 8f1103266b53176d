package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/kylemclaren/devcoach/internal/errs"
	"github.com/kylemclaren/devcoach/internal/storage"
)

const configFile = "config.json"

// Environment variables consulted when no API key is configured.
var apiKeyEnvVars = []string{"DEVCOACH_AI_API_KEY", "GEMINI_API_KEY"}

// Manager is the process-wide handle on the configuration. Mutations
/// go through Update, which persists before committing: a failed write
// leaves the in-memory config untouched.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	backend storage.Backend
	log     *log.Logger
}

// NewManager loads the configuration, merging it with defaults and
// migrating older schema versions.
func NewManager(backend storage.Backend, logger *log.Logger) *Manager {
	cfg := Default()
	found, err := backend.Load(configFile, &cfg)
	if err != nil {
		logger.Warn("could not load config, using defaults", "err", err)
		cfg = Default()
	}
	if found && cfg.Version < Version {
		logger.Info("migrating config", "from", cfg.Version, "to", Version)
		cfg.Version = Version
	}
	if cfg.Checkins == nil {
		cfg.Checkins = []Checkin{}
	}
	if cfg.MaxHistory < 1 {
		cfg.MaxHistory = Default().MaxHistory
	}
	return &Manager{cfg: cfg, backend: backend, log: logger}
}

// LoadEnvFile loads the optional env file from the data directory so
// DEVCOACH_* variables can be kept out of the shell profile. A missing
// file is fine.
func LoadEnvFile(dataDir string) {
	_ = godotenv.Load(filepath.Join(dataDir, "devcoach.env"))
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.clone()
}

// Update applies mutate to a copy of the config, persists it, and
// commits only on success.
func (m *Manager) Update(mutate func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg.clone()
	mutate(&next)
	if err := m.backend.Save(configFile, next); err != nil {
		m.log.Error("failed to persist config", "err", err)
		return err
	}
	m.cfg = next
	return nil
}

// APIKey returns the configured AI API key, falling back to the
// environment.
func (m *Manager) APIKey() string {
	m.mu.Lock()
	key := m.cfg.AIAPIKey
	m.mu.Unlock()
	if key != "" {
		return key
	}
	for _, name := range apiKeyEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// SetLastCheckin records the time of the latest successful check-in.
func (m *Manager) SetLastCheckin(t time.Time) error {
	return m.Update(func(c *Config) {
		c.LastSuccessfulCheckin = &t
	})
}

// Set assigns a user-settable key from its string form.
func (m *Manager) Set(key, value string) error {
	switch key {
	case "ai_api_key":
		if strings.TrimSpace(value) == "" {
			return errs.New(errs.KindValidation, "ai_api_key must not be empty")
		}
		return m.Update(func(c *Config) { c.AIAPIKey = value })
	case "theme":
		return m.Update(func(c *Config) { c.Theme = value })
	case "notify_webhook":
		return m.Update(func(c *Config) { c.NotifyWebhook = value })
	case "max_history":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return errs.New(errs.KindValidation, "max_history must be a positive number")
		}
		return m.Update(func(c *Config) { c.MaxHistory = n })
	case "auto_save":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errs.New(errs.KindValidation, "auto_save must be true or false")
		}
		return m.Update(func(c *Config) { c.AutoSave = b })
	default:
		return errs.Newf(errs.KindConfig, "unknown config key %q", key)
	}
}

// GetKey returns the display value of a single key. Secrets are
// masked.
func (m *Manager) GetKey(key string) (string, error) {
	cfg := m.Get()
	switch key {
	case "ai_api_key":
		return maskSecret(cfg.AIAPIKey), nil
	case "theme":
		return cfg.Theme, nil
	case "notify_webhook":
		return cfg.NotifyWebhook, nil
	case "max_history":
		return strconv.Itoa(cfg.MaxHistory), nil
	case "auto_save":
		return strconv.FormatBool(cfg.AutoSave), nil
	case "last_successful_checkin":
		if cfg.LastSuccessfulCheckin == nil {
			return "never", nil
		}
		return cfg.LastSuccessfulCheckin.Format(time.RFC3339), nil
	default:
		return "", errs.Newf(errs.KindConfig, "unknown config key %q", key)
	}
}

// ListKeys returns every displayable key/value pair, sorted by key.
func (m *Manager) ListKeys() []string {
	keys := []string{"ai_api_key", "auto_save", "last_successful_checkin", "max_history", "notify_webhook", "theme"}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := m.GetKey(k)
		out = append(out, fmt.Sprintf("%s = %s", k, v))
	}
	return out
}

// Reset restores defaults and persists them.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := Default()
	if err := m.backend.Save(configFile, next); err != nil {
		m.log.Error("failed to persist config", "err", err)
		return err
	}
	m.cfg = next
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
