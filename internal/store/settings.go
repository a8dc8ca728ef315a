package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

const settingsKey = "app_settings"

// SaveSettings replaces the stored settings with as.
func (s *Store) SaveSettings(as AppSettings) error {
	data, err := json.Marshal(as)
	if err != nil {
		return &StorageError{Op: "save", Entity: "settings", Err: err}
	}

	db, release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	_, err = db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingsKey, string(data),
	)
	if err != nil {
		s.log.Error("save settings", zap.Error(err))
		return &StorageError{Op: "save", Entity: "settings", Err: err}
	}
	return nil
}

// LoadSettings returns the stored settings, or DefaultSettings when none have
// been saved. Read and decode failures are logged and also yield the
// defaults; the only error returned is ErrNotInitialized.
func (s *Store) LoadSettings() (AppSettings, error) {
	db, release, err := s.acquire()
	if err != nil {
		return DefaultSettings(), err
	}
	defer release()

	var raw string
	err = db.QueryRow(`SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		s.log.Warn("load settings, using defaults", zap.Error(err))
		return DefaultSettings(), nil
	}

	// Fields missing from an older blob keep their default values.
	as := DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &as); err != nil {
		s.log.Warn("decode settings, using defaults", zap.Error(err))
		return DefaultSettings(), nil
	}
	return as, nil
}
