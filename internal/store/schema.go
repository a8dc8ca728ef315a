package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const currentVersion = 1

const schemaVersionKey = "schema_version"

// migrations holds the forward steps keyed by the version they produce.
// Version 1 is the base schema created by ensureSchema.
var migrations = map[int]func(*sql.Tx) error{}

const ddl = `
CREATE TABLE IF NOT EXISTS focus_sessions (
	id          TEXT PRIMARY KEY,
	task_name   TEXT NOT NULL DEFAULT '',
	duration    INTEGER NOT NULL CHECK (duration BETWEEN 60 AND 7200),
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	start_date  TEXT NOT NULL,
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	CHECK (end_time > start_time)
);

CREATE INDEX IF NOT EXISTS idx_sessions_start_date ON focus_sessions(start_date, start_time);
CREATE INDEX IF NOT EXISTS idx_sessions_created    ON focus_sessions(created_at);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// ensureSchema creates tables and indexes if they are missing. Safe on every startup.
func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// schemaVersion reads the stored version; a missing row means 0.
func schemaVersion(db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, schemaVersionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return v, nil
}

// reconcileVersion brings the stored version up to target, running any
// registered migration steps in order.
func reconcileVersion(db *sql.DB, target int) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}

	switch {
	case version == target:
		return nil
	case version > target:
		return fmt.Errorf("%w: on disk %d, supported %d", ErrSchemaTooNew, version, target)
	case version == 0:
		return setSchemaVersion(db, target)
	}

	for v := version + 1; v <= target; v++ {
		if err := applyMigration(db, v); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, v int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration v%d: %w", v, err)
	}
	if step, ok := migrations[v]; ok {
		if err := step(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v, err)
		}
	}
	if _, err := tx.Exec(upsertMetadata, schemaVersionKey, strconv.Itoa(v)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record schema version %d: %w", v, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration v%d: %w", v, err)
	}
	return nil
}

const upsertMetadata = `INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func setSchemaVersion(db *sql.DB, v int) error {
	if _, err := db.Exec(upsertMetadata, schemaVersionKey, strconv.Itoa(v)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}
