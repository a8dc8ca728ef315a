package store

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Stored timestamps have a four-digit UTC year.
const (
	minYear = 1
	maxYear = 9999
)

// Validate checks a session against the domain invariants. Checks run in a
// fixed order and the first failure is returned as a *ValidationError.
func Validate(fs FocusSession) error {
	if err := checkID(fs.ID); err != nil {
		return err
	}
	if err := checkTaskName(fs.TaskName); err != nil {
		return err
	}
	if err := checkDuration(fs.Duration); err != nil {
		return err
	}
	if !storableInstant(fs.StartTime) {
		return invalid(ReasonInvalidStartTime, "startTime", "must be a valid timestamp between years %d and %d", minYear, maxYear)
	}
	if !storableInstant(fs.EndTime) {
		return invalid(ReasonInvalidEndTime, "endTime", "must be a valid timestamp between years %d and %d", minYear, maxYear)
	}
	if !fs.EndTime.After(fs.StartTime) {
		return invalid(ReasonEndBeforeStart, "endTime", "must be after startTime")
	}
	return nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid(ReasonEmptyID, "id", "must be a non-empty string")
	}
	return nil
}

func checkTaskName(name string) error {
	if !utf8.ValidString(name) {
		return invalid(ReasonInvalidTaskName, "taskName", "must be valid UTF-8 text")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n > MaxTaskNameLength {
		return invalid(ReasonTaskNameTooLong, "taskName", "must be at most %d characters, got %d", MaxTaskNameLength, n)
	}
	return nil
}

func checkDuration(secs int) error {
	if secs < MinDuration || secs > MaxDuration {
		return invalid(ReasonDurationOutOfRange, "duration", "must be between %d and %d seconds, got %d", MinDuration, MaxDuration, secs)
	}
	return nil
}

// storableInstant reports whether t is set and its UTC year fits the stored
// text layout.
func storableInstant(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.UTC().Year()
	return y >= minYear && y <= maxYear
}
