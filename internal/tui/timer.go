package tui

import (
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/tomatoclock/internal/store"
)

// timerState tracks the current state of the countdown.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// minSavedElapsed is the shortest abandoned interval worth recording.
const minSavedElapsed = store.MinDuration * time.Second

// timerModel is the countdown logic, kept apart from display. It never
// touches the store; finishing or resetting hands back the session to save.
type timerModel struct {
	now func() time.Time

	state     timerState
	length    time.Duration
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration

	taskName string
}

func newTimerModel(length time.Duration) timerModel {
	return timerModel{
		now:    time.Now,
		state:  timerStopped,
		length: clampLength(length),
	}
}

// clampLength keeps the countdown inside the range a saved session accepts.
func clampLength(d time.Duration) time.Duration {
	switch {
	case d < store.MinDuration*time.Second:
		return store.MinDuration * time.Second
	case d > store.MaxDuration*time.Second:
		return store.MaxDuration * time.Second
	}
	return d
}

// setLength changes the countdown length; it only applies while stopped.
func (t *timerModel) setLength(d time.Duration) {
	if t.state == timerStopped {
		t.length = clampLength(d)
	}
}

func (t *timerModel) start(taskName string) {
	if t.state != timerStopped {
		return
	}
	t.state = timerRunning
	t.startTime = t.now()
	t.pauseGap = 0
	t.taskName = taskName
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = t.now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += t.now().Sub(t.pausedAt)
	t.state = timerRunning
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

func (t timerModel) running() bool { return t.state != timerStopped }

func (t timerModel) paused() bool { return t.state == timerPaused }

// elapsed is the focused time so far, excluding pauses.
func (t timerModel) elapsed() time.Duration {
	switch t.state {
	case timerRunning:
		return t.now().Sub(t.startTime) - t.pauseGap
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	}
	return 0
}

func (t timerModel) remaining() time.Duration {
	if t.state == timerStopped {
		return t.length
	}
	r := t.length - t.elapsed()
	if r < 0 {
		return 0
	}
	return r
}

// due reports whether a running countdown has reached zero.
func (t timerModel) due() bool {
	return t.state == timerRunning && t.elapsed() >= t.length
}

// finish stops a due countdown and returns the completed session.
func (t *timerModel) finish() (store.FocusSession, bool) {
	if !t.due() {
		return store.FocusSession{}, false
	}
	fs := t.session(int(t.length/time.Second), true)
	t.state = timerStopped
	return fs, true
}

// reset stops the countdown. An interval of at least one minute is returned
// as an abandoned session; anything shorter is discarded.
func (t *timerModel) reset() (store.FocusSession, bool) {
	if t.state == timerStopped {
		return store.FocusSession{}, false
	}
	elapsed := t.elapsed()
	defer func() { t.state = timerStopped }()

	if elapsed < minSavedElapsed {
		return store.FocusSession{}, false
	}
	secs := int(elapsed / time.Second)
	if secs > store.MaxDuration {
		secs = store.MaxDuration
	}
	return t.session(secs, false), true
}

func (t timerModel) session(secs int, completed bool) store.FocusSession {
	return store.FocusSession{
		ID:        uuid.NewString(),
		TaskName:  t.taskName,
		Duration:  secs,
		StartTime: t.startTime,
		EndTime:   t.now(),
		Completed: completed,
	}
}
