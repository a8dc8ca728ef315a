package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DecodeFocusSession parses a JSON object into a session, applying the same
// ordered checks as Validate plus the type checks that only untyped input
// can fail (a fractional duration, a non-string task name, a non-boolean
// completed flag).
//
// Expected keys: id, taskName, duration, startTime, endTime, completed.
func DecodeFocusSession(data []byte) (FocusSession, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return FocusSession{}, fmt.Errorf("decode focus session: %w", err)
	}

	var fs FocusSession

	id, _ := raw["id"].(string)
	if err := checkID(id); err != nil {
		return FocusSession{}, err
	}
	fs.ID = id

	name, ok := raw["taskName"].(string)
	if !ok {
		return FocusSession{}, invalid(ReasonInvalidTaskName, "taskName", "must be a string")
	}
	if err := checkTaskName(name); err != nil {
		return FocusSession{}, err
	}
	fs.TaskName = name

	secs, err := integerSeconds(raw["duration"])
	if err != nil {
		return FocusSession{}, err
	}
	if err := checkDuration(secs); err != nil {
		return FocusSession{}, err
	}
	fs.Duration = secs

	start, ok := parseInstant(raw["startTime"])
	if !ok {
		return FocusSession{}, invalid(ReasonInvalidStartTime, "startTime", "must be an RFC 3339 timestamp")
	}
	fs.StartTime = start

	end, ok := parseInstant(raw["endTime"])
	if !ok {
		return FocusSession{}, invalid(ReasonInvalidEndTime, "endTime", "must be an RFC 3339 timestamp")
	}
	if !end.After(start) {
		return FocusSession{}, invalid(ReasonEndBeforeStart, "endTime", "must be after startTime")
	}
	fs.EndTime = end

	completed, ok := raw["completed"].(bool)
	if !ok {
		return FocusSession{}, invalid(ReasonInvalidCompletedFlag, "completed", "must be a boolean")
	}
	fs.Completed = completed

	return fs, nil
}

func integerSeconds(v any) (int, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, invalid(ReasonNonIntegerDuration, "duration", "must be an integer number of seconds")
	}
	f, err := num.Float64()
	if math.IsInf(f, 0) {
		return 0, invalid(ReasonDurationOutOfRange, "duration", "must be between %d and %d seconds, got %s", MinDuration, MaxDuration, num.String())
	}
	if err != nil || f != math.Trunc(f) {
		return 0, invalid(ReasonNonIntegerDuration, "duration", "must be an integer number of seconds, got %s", num.String())
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, invalid(ReasonDurationOutOfRange, "duration", "must be between %d and %d seconds, got %s", MinDuration, MaxDuration, num.String())
	}
	return int(f), nil
}

func parseInstant(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || !storableInstant(t) {
		return time.Time{}, false
	}
	return t, true
}
