package store

import "time"

// Duration bounds for a focus session, in seconds.
const (
	MinDuration = 60
	MaxDuration = 7200

	MaxTaskNameLength = 100
)

// FocusSession is one completed or abandoned timed work interval.
type FocusSession struct {
	ID        string
	TaskName  string
	Duration  int // seconds
	StartTime time.Time
	EndTime   time.Time
	Completed bool
	CreatedAt time.Time // set by the store on every save
}

// WindowPosition is a screen coordinate; negative values are valid on multi-monitor setups.
type WindowPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AppSettings is the single process-wide settings record, stored as one blob.
type AppSettings struct {
	AlwaysOnTop     bool           `json:"alwaysOnTop"`
	WindowPosition  WindowPosition `json:"windowPosition"`
	DefaultDuration int            `json:"defaultDuration"`
	SoundEnabled    bool           `json:"soundEnabled"`
	Opacity         float64        `json:"opacity"`
}

// DefaultSettings returns the settings used until the first save.
func DefaultSettings() AppSettings {
	return AppSettings{
		AlwaysOnTop:     true,
		WindowPosition:  WindowPosition{X: 100, Y: 100},
		DefaultDuration: 1500,
		SoundEnabled:    true,
		Opacity:         0.8,
	}
}

// Statistics aggregates the sessions whose UTC start date falls in a range.
type Statistics struct {
	Sessions       []FocusSession
	SessionCount   int
	TotalFocusTime int64 // seconds
}

// DailySummary represents aggregated focus time for one UTC calendar day.
type DailySummary struct {
	Date         string // YYYY-MM-DD
	SessionCount int
	TotalSeconds int64
	Completed    int
}
