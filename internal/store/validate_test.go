package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type invalidCase struct {
	reason  Reason
	session FocusSession
}

// invalidSessions returns one session per invariant, each violating only that one.
func invalidSessions(day time.Time) []invalidCase {
	base := func(id string) FocusSession { return focusSession(id, day, 600) }

	emptyID := base("   ")

	badUTF8 := base("bad-utf8")
	badUTF8.TaskName = "ok\xffnot"

	tooLong := base("too-long")
	tooLong.TaskName = strings.Repeat("x", MaxTaskNameLength+1)

	short := base("short")
	short.Duration = MinDuration - 1
	short.EndTime = short.StartTime.Add(time.Hour)

	long := base("long")
	long.Duration = MaxDuration + 1
	long.EndTime = long.StartTime.Add(3 * time.Hour)

	noStart := base("no-start")
	noStart.StartTime = time.Time{}

	noEnd := base("no-end")
	noEnd.EndTime = time.Time{}

	farStart := base("far-start")
	farStart.StartTime = time.Date(10000, 1, 15, 9, 0, 0, 0, time.UTC)
	farStart.EndTime = farStart.StartTime.Add(10 * time.Minute)

	// Year one in a zone east of UTC is year zero once stored.
	earlyStart := base("early-start")
	earlyStart.StartTime = time.Date(1, 1, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	earlyStart.EndTime = earlyStart.StartTime.Add(10 * time.Minute)

	negativeEnd := base("negative-end")
	negativeEnd.EndTime = time.Date(-5, 1, 15, 9, 0, 0, 0, time.UTC)

	reversed := base("reversed")
	reversed.EndTime = reversed.StartTime.Add(-time.Minute)

	equal := base("equal")
	equal.EndTime = equal.StartTime

	return []invalidCase{
		{ReasonEmptyID, emptyID},
		{ReasonInvalidTaskName, badUTF8},
		{ReasonTaskNameTooLong, tooLong},
		{ReasonDurationOutOfRange, short},
		{ReasonDurationOutOfRange, long},
		{ReasonInvalidStartTime, noStart},
		{ReasonInvalidStartTime, farStart},
		{ReasonInvalidStartTime, earlyStart},
		{ReasonInvalidEndTime, noEnd},
		{ReasonInvalidEndTime, negativeEnd},
		{ReasonEndBeforeStart, reversed},
		{ReasonEndBeforeStart, equal},
	}
}

func requireReason(t *testing.T, err error, want Reason) {
	t.Helper()
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
	require.Equal(t, want, verr.Reason)
}

func TestValidateAcceptsBounds(t *testing.T) {
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for _, secs := range []int{MinDuration, MaxDuration} {
		require.NoError(t, Validate(focusSession("ok", day, secs)))
	}

	fs := focusSession("ok", day, 600)
	fs.TaskName = ""
	require.NoError(t, Validate(fs))

	fs.TaskName = strings.Repeat("é", MaxTaskNameLength)
	require.NoError(t, Validate(fs))

	// Surrounding whitespace does not count towards the limit.
	fs.TaskName = "  " + strings.Repeat("a", MaxTaskNameLength) + "\t"
	require.NoError(t, Validate(fs))

	// The first and last storable years.
	first := focusSession("first", time.Date(1, 1, 1, 0, 0, 1, 0, time.UTC), 600)
	require.NoError(t, Validate(first))
	last := focusSession("last", time.Date(9999, 12, 31, 23, 0, 0, 0, time.UTC), 600)
	require.NoError(t, Validate(last))

	// One nanosecond is a valid interval.
	fs.EndTime = fs.StartTime.Add(time.Nanosecond)
	require.NoError(t, Validate(fs))
}

func TestValidateRejectsEachInvariant(t *testing.T) {
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	for _, tc := range invalidSessions(day) {
		t.Run(tc.session.ID+"/"+string(tc.reason), func(t *testing.T) {
			requireReason(t, Validate(tc.session), tc.reason)
		})
	}
}

func TestValidateOrder(t *testing.T) {
	day := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	// Every field is wrong; the id check wins.
	all := FocusSession{
		TaskName:  strings.Repeat("x", 500),
		Duration:  5,
		StartTime: time.Time{},
		EndTime:   time.Time{},
	}
	requireReason(t, Validate(all), ReasonEmptyID)

	all.ID = "x"
	requireReason(t, Validate(all), ReasonTaskNameTooLong)

	all.TaskName = "ok"
	requireReason(t, Validate(all), ReasonDurationOutOfRange)

	all.Duration = 600
	requireReason(t, Validate(all), ReasonInvalidStartTime)

	all.StartTime = day
	requireReason(t, Validate(all), ReasonInvalidEndTime)

	all.EndTime = day.Add(-time.Second)
	requireReason(t, Validate(all), ReasonEndBeforeStart)
}

func TestValidationErrorMessage(t *testing.T) {
	fs := focusSession("x", time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), 30)
	err := Validate(fs)
	require.EqualError(t, err, "invalid duration: must be between 60 and 7200 seconds, got 30")
}

// ============================================================
// Decoding untyped input
// ============================================================

func TestDecodeFocusSession(t *testing.T) {
	fs, err := DecodeFocusSession([]byte(`{
		"id": "abc",
		"taskName": "Deep work",
		"duration": 1500,
		"startTime": "2024-01-15T09:00:00.5+01:00",
		"endTime": "2024-01-15T09:25:00.5+01:00",
		"completed": true
	}`))
	require.NoError(t, err)
	require.Equal(t, "abc", fs.ID)
	require.Equal(t, "Deep work", fs.TaskName)
	require.Equal(t, 1500, fs.Duration)
	require.True(t, fs.StartTime.Equal(time.Date(2024, 1, 15, 8, 0, 0, 500000000, time.UTC)))
	require.True(t, fs.Completed)
	require.NoError(t, Validate(fs))
}

func TestDecodeFocusSessionIntegralFloat(t *testing.T) {
	fs, err := DecodeFocusSession([]byte(`{"id":"a","taskName":"","duration":600.0,
		"startTime":"2024-01-15T09:00:00Z","endTime":"2024-01-15T09:10:00Z","completed":false}`))
	require.NoError(t, err)
	require.Equal(t, 600, fs.Duration)
}

func TestDecodeFocusSessionRejections(t *testing.T) {
	const valid = `"startTime":"2024-01-15T09:00:00Z","endTime":"2024-01-15T09:25:00Z"`
	tests := []struct {
		name string
		json string
		want Reason
	}{
		{"missing id", `{"taskName":"t","duration":1500,` + valid + `,"completed":true}`, ReasonEmptyID},
		{"numeric id", `{"id":7,"taskName":"t","duration":1500,` + valid + `,"completed":true}`, ReasonEmptyID},
		{"blank id", `{"id":"  ","taskName":"t","duration":1500,` + valid + `,"completed":true}`, ReasonEmptyID},
		{"numeric task", `{"id":"a","taskName":42,"duration":1500,` + valid + `,"completed":true}`, ReasonInvalidTaskName},
		{"null task", `{"id":"a","taskName":null,"duration":1500,` + valid + `,"completed":true}`, ReasonInvalidTaskName},
		{"long task", `{"id":"a","taskName":"` + strings.Repeat("y", 101) + `","duration":1500,` + valid + `,"completed":true}`, ReasonTaskNameTooLong},
		{"fractional duration", `{"id":"a","taskName":"t","duration":1500.5,` + valid + `,"completed":true}`, ReasonNonIntegerDuration},
		{"string duration", `{"id":"a","taskName":"t","duration":"1500",` + valid + `,"completed":true}`, ReasonNonIntegerDuration},
		{"huge duration", `{"id":"a","taskName":"t","duration":1e300,` + valid + `,"completed":true}`, ReasonDurationOutOfRange},
		{"overflowing duration", `{"id":"a","taskName":"t","duration":1e400,` + valid + `,"completed":true}`, ReasonDurationOutOfRange},
		{"negative overflow", `{"id":"a","taskName":"t","duration":-1e400,` + valid + `,"completed":true}`, ReasonDurationOutOfRange},
		{"short duration", `{"id":"a","taskName":"t","duration":59,` + valid + `,"completed":true}`, ReasonDurationOutOfRange},
		{"bad start", `{"id":"a","taskName":"t","duration":1500,"startTime":"yesterday","endTime":"2024-01-15T09:25:00Z","completed":true}`, ReasonInvalidStartTime},
		{"year zero start", `{"id":"a","taskName":"t","duration":1500,"startTime":"0000-06-01T09:00:00Z","endTime":"2024-01-15T09:25:00Z","completed":true}`, ReasonInvalidStartTime},
		{"year zero end after offset", `{"id":"a","taskName":"t","duration":1500,"startTime":"0001-01-01T00:10:00Z","endTime":"0001-01-01T00:30:00+01:00","completed":true}`, ReasonInvalidEndTime},
		{"bad end", `{"id":"a","taskName":"t","duration":1500,"startTime":"2024-01-15T09:00:00Z","endTime":12,"completed":true}`, ReasonInvalidEndTime},
		{"end before start", `{"id":"a","taskName":"t","duration":1500,"startTime":"2024-01-15T09:00:00Z","endTime":"2024-01-15T08:00:00Z","completed":true}`, ReasonEndBeforeStart},
		{"equal times", `{"id":"a","taskName":"t","duration":1500,"startTime":"2024-01-15T09:00:00Z","endTime":"2024-01-15T09:00:00Z","completed":true}`, ReasonEndBeforeStart},
		{"string completed", `{"id":"a","taskName":"t","duration":1500,` + valid + `,"completed":"yes"}`, ReasonInvalidCompletedFlag},
		{"missing completed", `{"id":"a","taskName":"t","duration":1500,` + valid + `}`, ReasonInvalidCompletedFlag},
		{"task before duration", `{"id":"a","taskName":5,"duration":1.5,` + valid + `,"completed":"no"}`, ReasonInvalidTaskName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFocusSession([]byte(tt.json))
			requireReason(t, err, tt.want)
		})
	}
}

func TestDecodeFocusSessionMalformedJSON(t *testing.T) {
	_, err := DecodeFocusSession([]byte(`{"id":`))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrValidation)
}
