// Package config owns the persisted user configuration: AI
// credentials, scheduled check-ins and shell preferences. The record
// is versioned and every field has a default, so loading merges
// whatever is on disk with the defaults instead of failing.
package config

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Version is the current config schema version.
const Version = 1

// Checkin is a scheduled daily check-in entry. The ID is assigned at
// creation and stays stable across reschedules; the daily log records
// executions against it.
type Checkin struct {
	Time string `json:"time"`
	ID   string `json:"id"`
}

// UnmarshalJSON accepts both the current {time,id} object and the
// legacy bare "HH:MM" string form, assigning a fresh id to migrated
// entries.
func (c *Checkin) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		c.Time = legacy
		c.ID = uuid.NewString()
		return nil
	}

	type checkin Checkin
	var cur checkin
	if err := json.Unmarshal(data, &cur); err != nil {
		return err
	}
	*c = Checkin(cur)
	return nil
}

// Config is the full persisted configuration.
type Config struct {
	Version               int        `json:"version"`
	AIAPIKey              string     `json:"ai_api_key"`
	Checkins              []Checkin  `json:"checkins"`
	LastSuccessfulCheckin *time.Time `json:"last_successful_checkin"`
	Theme                 string     `json:"theme"`
	MaxHistory            int        `json:"max_history"`
	AutoSave              bool       `json:"auto_save"`
	NotifyWebhook         string     `json:"notify_webhook"`
}

// Default returns the configuration used when nothing is on disk.
func Default() Config {
	return Config{
		Version:    Version,
		Checkins:   []Checkin{},
		Theme:      "default",
		MaxHistory: 100,
		AutoSave:   true,
	}
}

// clone returns a deep copy so callers can never alias the manager's
// internal state.
func (c Config) clone() Config {
	out := c
	out.Checkins = make([]Checkin, len(c.Checkins))
	copy(out.Checkins, c.Checkins)
	if c.LastSuccessfulCheckin != nil {
		t := *c.LastSuccessfulCheckin
		out.LastSuccessfulCheckin = &t
	}
	return out
}
