package store

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func backups(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + ".corrupted.*")
	require.NoError(t, err)
	return matches
}

// requireUsable runs a full save/query/settings cycle against s.
func requireUsable(t *testing.T, s *Store) {
	t.Helper()
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveFocusSession(focusSession("after-recovery", day, 1500)))

	got, err := s.GetFocusSessions(day)
	require.NoError(t, err)
	require.Equal(t, []string{"after-recovery"}, ids(got))

	stats, err := s.GetStatistics(day, day)
	require.NoError(t, err)
	require.Equal(t, 1, stats.SessionCount)

	settings, err := s.LoadSettings()
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), settings)
}

func corruptContents() map[string][]byte {
	rng := rand.New(rand.NewSource(42))
	random := make([]byte, 8192)
	rng.Read(random)

	header := append([]byte("SQLite format 3\x00"), bytes.Repeat([]byte{0xff}, 4080)...)

	return map[string][]byte{
		"random bytes":     random,
		"plain text":       []byte("this is not a database\n"),
		"json":             []byte(`{"sessions":[{"id":"a"}]}`),
		"xml":              []byte(`<?xml version="1.0"?><sessions><session id="a"/></sessions>`),
		"truncated header": []byte("SQLite format 3\x00\x10"),
		"header garbage":   header,
	}
}

func TestInitializeRecoversCorruptFile(t *testing.T) {
	for name, contents := range corruptContents() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "focus.db")
			require.NoError(t, os.WriteFile(path, contents, 0o644))

			s := mustOpen(t, path)
			requireUsable(t, s)

			found := backups(t, path)
			require.Len(t, found, 1)
			saved, err := os.ReadFile(found[0])
			require.NoError(t, err)
			require.Equal(t, contents, saved)
		})
	}
}

func TestInitializeRecoversDamagedPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.db")
	s := mustOpen(t, path)
	require.NoError(t, s.SaveFocusSession(focusSession("lost", time.Now(), 600)))
	require.NoError(t, s.Close())

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(bytes.Repeat([]byte{0xff}, 900), 100)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Initialize())
	requireUsable(t, s)
	require.Len(t, backups(t, path), 1)
}

func TestInitializeRecoversDamagedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.db")
	s := mustOpen(t, path)
	start := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := range 300 {
		fs := focusSession(fmt.Sprintf("session-%03d", i), start.Add(time.Duration(i)*time.Hour), 1500)
		fs.TaskName = fmt.Sprintf("write the quarterly report, part %d", i)
		require.NoError(t, s.SaveFocusSession(fs))
	}
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(16*4096))

	// The first page stays intact so the file still opens.
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(bytes.Repeat([]byte{0xff}, 8192), info.Size()-8192)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	damaged, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Initialize())
	requireUsable(t, s)

	found := backups(t, path)
	require.Len(t, found, 1)
	saved, err := os.ReadFile(found[0])
	require.NoError(t, err)
	require.Equal(t, damaged, saved)
}

func TestCheckIntegrityOnHealthyStore(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveFocusSession(focusSession("a", time.Now(), 600)))
	require.NoError(t, checkIntegrity(s.db))
}

func TestInitializeEmptyFileNeedsNoBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s := mustOpen(t, path)
	requireUsable(t, s)
	require.Empty(t, backups(t, path))
}

func TestRepeatedCorruptionKeepsEveryBackup(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "focus.db")

	for i := 1; i <= 3; i++ {
		payload := []byte(fmt.Sprintf("garbage round %d", i))
		require.NoError(t, os.WriteFile(path, payload, 0o644))

		s, err := Open(path, WithClock(func() time.Time { return fixed }))
		require.NoError(t, err)
		requireUsable(t, s)
		require.NoError(t, s.Close())

		require.Len(t, backups(t, path), i)
	}

	// Identical timestamps were bumped rather than overwritten.
	for i := int64(0); i < 3; i++ {
		name := path + ".corrupted." + fmt.Sprint(fixed.UnixMilli()+i)
		_, err := os.Stat(name)
		require.NoError(t, err, name)
	}
}

func TestRecoveryIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	path := filepath.Join(t.TempDir(), "focus.db")
	require.NoError(t, os.WriteFile(path, []byte("not sqlite"), 0o644))

	s, err := Open(path, WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer s.Close()

	warned := logs.FilterMessage("store file is corrupted, recovering").All()
	require.Len(t, warned, 1)
	require.Equal(t, zapcore.WarnLevel, warned[0].Level)
	require.Equal(t, "store", warned[0].LoggerName)

	backedUp := logs.FilterMessage("corrupted store backed up").All()
	require.Len(t, backedUp, 1)
	require.Equal(t, backups(t, path)[0], backedUp[0].ContextMap()["backup"])

	require.Equal(t, 1, logs.FilterMessage("store recreated after corruption").Len())
}

func TestIsCorruption(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrCorrupt, true},
		{"wrapped sentinel", fmt.Errorf("open: %w", ErrCorrupt), true},
		{"not a database text", errors.New("file is not a database (26)"), true},
		{"malformed text", errors.New("database disk image is malformed"), true},
		{"permission", os.ErrPermission, false},
		{"missing dir", &os.PathError{Op: "open", Path: "/x", Err: os.ErrNotExist}, false},
		{"disk full", errors.New("database or disk is full"), false},
		{"too new", fmt.Errorf("reconcile: %w", ErrSchemaTooNew), false},
		{"validation", invalid(ReasonEmptyID, "id", "empty"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isCorruption(tt.err))
		})
	}
}

func TestBackupPathSkipsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.db")
	now := time.UnixMilli(1700000000000)

	first := backupPath(path, now)
	require.Equal(t, path+".corrupted.1700000000000", first)
	require.NoError(t, os.WriteFile(first, []byte("x"), 0o600))

	require.Equal(t, path+".corrupted.1700000000001", backupPath(path, now))
}

func mustOpen(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
