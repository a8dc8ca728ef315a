package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// corruptionMessages are matched only when the engine error code is
// unavailable, e.g. after a driver wraps the error in plain text. The list
// is specific to SQLite and is an approximation.
var corruptionMessages = []string{
	"file is not a database",
	"file is encrypted or is not a database",
	"database disk image is malformed",
	"malformed database schema",
	"unsupported file format",
}

// isCorruption reports whether err means the file cannot be parsed as a
// database. Permission, disk-full and path errors are not corruption.
func isCorruption(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCorrupt) {
		return true
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		// Extended codes carry the primary code in the low byte.
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, m := range corruptionMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// sidecarSuffixes are the journal files SQLite keeps next to the database.
var sidecarSuffixes = []string{"-wal", "-shm", "-journal"}

// quarantine copies the store file to path.corrupted.<unix-millis> and
// removes the original together with its journal files. It returns the
// backup path, or "" when there was nothing to back up or the copy failed.
// A failed copy is logged and does not stop the removal.
func (s *Store) quarantine() (string, error) {
	var backup string
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		s.log.Error("stat corrupted store", zap.String("path", s.path), zap.Error(err))
	case info.Size() > 0:
		backup = backupPath(s.path, s.now())
		if err := copyFile(s.path, backup); err != nil {
			s.log.Error("backup corrupted store", zap.String("path", s.path), zap.Error(err))
			backup = ""
		}
	}

	for _, name := range append([]string{s.path}, suffixed(s.path, sidecarSuffixes)...) {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return backup, fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return backup, nil
}

// backupPath picks a name that does not exist yet, bumping the timestamp on collision.
func backupPath(path string, now time.Time) string {
	ms := now.UnixMilli()
	for {
		candidate := path + ".corrupted." + strconv.FormatInt(ms, 10)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		ms++
	}
}

func suffixed(path string, suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, path+s)
	}
	return out
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}

// checkIntegrity runs SQLite's structural check over every page. Damage that
// the header check misses surfaces here as ErrCorrupt.
func checkIntegrity(db *sql.DB) error {
	rows, err := db.Query("PRAGMA quick_check")
	if err != nil {
		return fmt.Errorf("quick check: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("quick check: %w", err)
		}
		problems = append(problems, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("quick check: %w", err)
	}
	if len(problems) == 1 && problems[0] == "ok" {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCorrupt, strings.Join(problems, "; "))
}
