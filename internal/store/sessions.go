package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Timestamps are stored as fixed-width UTC text so string order matches time order.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t.UTC(), nil
}

const sessionColumns = `id, task_name, duration, start_time, end_time, completed, created_at`

// SaveFocusSession validates fs and inserts it, replacing any session with
// the same id. CreatedAt is always set to the current time.
func (s *Store) SaveFocusSession(fs FocusSession) error {
	if err := Validate(fs); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.log.Warn("focus session rejected",
				zap.String("id", fs.ID),
				zap.String("reason", string(verr.Reason)),
				zap.String("detail", verr.Message),
			)
		}
		return err
	}

	db, release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	completed := 0
	if fs.Completed {
		completed = 1
	}
	_, err = db.Exec(
		`INSERT INTO focus_sessions (id, task_name, duration, start_time, end_time, start_date, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			task_name  = excluded.task_name,
			duration   = excluded.duration,
			start_time = excluded.start_time,
			end_time   = excluded.end_time,
			start_date = excluded.start_date,
			completed  = excluded.completed,
			created_at = excluded.created_at`,
		fs.ID, fs.TaskName, fs.Duration,
		formatTime(fs.StartTime), formatTime(fs.EndTime), formatDate(fs.StartTime),
		completed, formatTime(s.now()),
	)
	if err != nil {
		serr := &StorageError{Op: "save", Entity: "focus_session", ID: fs.ID, Err: err}
		s.log.Error("save focus session", zap.String("id", fs.ID), zap.Error(err))
		return serr
	}
	return nil
}

// GetFocusSessions returns the sessions that started on the UTC calendar
// date of date, ordered by start time, then creation time, then id.
func (s *Store) GetFocusSessions(date time.Time) ([]FocusSession, error) {
	db, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(
		`SELECT `+sessionColumns+` FROM focus_sessions
		 WHERE start_date = ?
		 ORDER BY start_time, created_at, id`,
		formatDate(date),
	)
	if err != nil {
		return nil, s.queryError("get", err)
	}
	return s.collect(rows)
}

// GetStatistics returns the sessions whose UTC start date lies in
// [start, end] inclusive, with their count and summed duration. A range
// with no sessions, including start after end, yields a zero result.
func (s *Store) GetStatistics(start, end time.Time) (Statistics, error) {
	db, release, err := s.acquire()
	if err != nil {
		return Statistics{}, err
	}
	defer release()

	rows, err := db.Query(
		`SELECT `+sessionColumns+` FROM focus_sessions
		 WHERE start_date BETWEEN ? AND ?
		 ORDER BY start_time, created_at, id`,
		formatDate(start), formatDate(end),
	)
	if err != nil {
		return Statistics{}, s.queryError("statistics", err)
	}
	sessions, err := s.collect(rows)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{Sessions: sessions, SessionCount: len(sessions)}
	for _, fs := range sessions {
		stats.TotalFocusTime += int64(fs.Duration)
	}
	return stats, nil
}

// ListFocusSessions returns every stored session in start-time order.
func (s *Store) ListFocusSessions() ([]FocusSession, error) {
	db, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(`SELECT ` + sessionColumns + ` FROM focus_sessions ORDER BY start_time, created_at, id`)
	if err != nil {
		return nil, s.queryError("list", err)
	}
	return s.collect(rows)
}

// GetDailySummary aggregates sessions per UTC start date in [start, end].
func (s *Store) GetDailySummary(start, end time.Time) ([]DailySummary, error) {
	db, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(`
		SELECT start_date, COUNT(*), COALESCE(SUM(duration), 0), COALESCE(SUM(completed), 0)
		FROM focus_sessions
		WHERE start_date BETWEEN ? AND ?
		GROUP BY start_date
		ORDER BY start_date`,
		formatDate(start), formatDate(end),
	)
	if err != nil {
		return nil, s.queryError("daily summary", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.SessionCount, &ds.TotalSeconds, &ds.Completed); err != nil {
			return nil, s.queryError("daily summary", err)
		}
		summaries = append(summaries, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError("daily summary", err)
	}
	return summaries, nil
}

func (s *Store) collect(rows *sql.Rows) ([]FocusSession, error) {
	defer rows.Close()

	var sessions []FocusSession
	for rows.Next() {
		fs, err := scanSession(rows)
		if err != nil {
			return nil, s.queryError("scan", err)
		}
		sessions = append(sessions, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError("scan", err)
	}
	return sessions, nil
}

func scanSession(rows *sql.Rows) (FocusSession, error) {
	var fs FocusSession
	var startTime, endTime, createdAt string
	var completed int
	if err := rows.Scan(&fs.ID, &fs.TaskName, &fs.Duration, &startTime, &endTime, &completed, &createdAt); err != nil {
		return FocusSession{}, err
	}
	var err error
	if fs.StartTime, err = parseTime(startTime); err != nil {
		return FocusSession{}, err
	}
	if fs.EndTime, err = parseTime(endTime); err != nil {
		return FocusSession{}, err
	}
	if fs.CreatedAt, err = parseTime(createdAt); err != nil {
		return FocusSession{}, err
	}
	fs.Completed = completed == 1
	return fs, nil
}

func (s *Store) queryError(op string, err error) error {
	s.log.Error("query focus sessions", zap.String("op", op), zap.Error(err))
	return &StorageError{Op: op, Entity: "focus_session", Err: err}
}
