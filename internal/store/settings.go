package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/neststash/neststash/internal/model"
)

const (
	settingsKey      = "settings"
	versionKey       = "app_version"
	activeVersionKey = "asset_active_version"
)

// SettingsStore persists the settings document and small adjacent values
// (the remembered asset-cache version) in the settings table.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get setting "+key, err)
	}
	return value, true, nil
}

func (s *SettingsStore) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return storageErr("set setting "+key, err)
	}
	return nil
}

// Load returns the persisted settings document, or the defaults when
// none has been saved yet. A document that fails to parse also falls
// back to defaults rather than blocking startup.
func (s *SettingsStore) Load() (model.Settings, error) {
	raw, ok, err := s.get(settingsKey)
	if err != nil {
		return model.Settings{}, err
	}
	if !ok {
		return model.DefaultSettings(), nil
	}
	var settings model.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

// Save persists the settings document as a single JSON value.
func (s *SettingsStore) Save(settings model.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return storageErr("marshal settings", err)
	}
	return s.set(settingsKey, string(raw))
}

// RememberedVersion returns the last asset-cache version this install
// has seen. ok is false on a first-ever run.
func (s *SettingsStore) RememberedVersion() (version string, ok bool, err error) {
	return s.get(versionKey)
}

// RememberVersion records the asset-cache version for the next check.
func (s *SettingsStore) RememberVersion(version string) error {
	return s.set(versionKey, version)
}

// ActiveAssetVersion returns the asset generation currently serving,
// surviving restarts the way a service worker's active cache does.
func (s *SettingsStore) ActiveAssetVersion() (version string, ok bool, err error) {
	return s.get(activeVersionKey)
}

// SetActiveAssetVersion records the serving asset generation.
func (s *SettingsStore) SetActiveAssetVersion(version string) error {
	return s.set(activeVersionKey, version)
}
