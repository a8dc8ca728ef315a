package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the single owner of the focus-session database file. It is
// created closed by New and opened by Initialize; Close returns it to the
// closed state and Initialize may be called again afterwards.
type Store struct {
	path string
	log  *zap.Logger
	now  func() time.Time

	mu sync.RWMutex
	db *sql.DB
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for initialization, validation and recovery events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for created_at stamps and backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New resolves the database path without touching the filesystem. An empty
// path selects DefaultDBPath.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	s := &Store{
		path: dbPath,
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("store")
	return s, nil
}

// Open is New followed by Initialize.
func Open(dbPath string, opts ...Option) (*Store, error) {
	s, err := New(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the resolved database file path.
func (s *Store) Path() string { return s.path }

// Initialize creates the containing directory, opens the database and
// brings the schema up to date. A file the engine cannot parse is backed up
// to <path>.corrupted.<unix-millis>, removed, and replaced by an empty
// store; any other failure is returned. Calling Initialize on an open store
// is a no-op.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	log := s.log.With(zap.String("path", s.path))
	log.Info("initializing store")

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.Error("create store directory", zap.Error(err))
		return fmt.Errorf("create db directory: %w", err)
	}

	db, err := s.openDB()
	if err != nil {
		if !isCorruption(err) {
			log.Error("open store", zap.Error(err))
			return fmt.Errorf("initialize store: %w", err)
		}
		log.Warn("store file is corrupted, recovering", zap.Error(err))
		if db, err = s.recoverDB(); err != nil {
			log.Error("recover store", zap.Error(err))
			return fmt.Errorf("recover store: %w", err)
		}
	}

	s.db = db
	log.Info("store ready", zap.Int("schema_version", currentVersion))
	return nil
}

// openDB opens the file, applies pragmas and runs the schema manager. The
// handle is closed again on any failure.
func (s *Store) openDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}
	s.log.Debug("pragmas applied")

	if err := checkIntegrity(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debug("schema ensured")

	if err := reconcileVersion(db, currentVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("reconcile schema version: %w", err)
	}
	s.log.Debug("schema version reconciled", zap.Int("version", currentVersion))
	return db, nil
}

// recoverDB quarantines the corrupted file and builds a fresh store in its place.
func (s *Store) recoverDB() (*sql.DB, error) {
	backup, err := s.quarantine()
	if err != nil {
		return nil, err
	}
	if backup != "" {
		s.log.Warn("corrupted store backed up", zap.String("path", s.path), zap.String("backup", backup))
	}

	db, err := s.openDB()
	if err != nil {
		return nil, err
	}
	s.log.Info("store recreated after corruption", zap.String("path", s.path))
	return db, nil
}

// Close releases the database handle. It is safe to call more than once and
// always returns nil; a failing close is logged.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.log.Error("close store", zap.String("path", s.path), zap.Error(err))
	}
	s.db = nil
	s.log.Info("store closed", zap.String("path", s.path))
	return nil
}

// acquire returns the open handle under a read lock. The caller must call release.
func (s *Store) acquire() (db *sql.DB, release func(), err error) {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return nil, nil, ErrNotInitialized
	}
	return s.db, s.mu.RUnlock, nil
}

// SchemaVersion returns the version recorded in the open store.
func (s *Store) SchemaVersion() (int, error) {
	db, release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return schemaVersion(db)
}

// DefaultDBPath returns <UserConfigDir>/tomatoclock/tomatoclock.db.
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolvedPath, err)
	}
	return filepath.Join(cfg, "tomatoclock", "tomatoclock.db"), nil
}
