package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tomatoclock/internal/store"
)

type jsonExport struct {
	ExportedAt   string        `json:"exported_at"`
	Count        int           `json:"count"`
	TotalSeconds int64         `json:"total_seconds"`
	Sessions     []jsonSession `json:"sessions"`
}

// jsonSession uses the key names DecodeFocusSession expects, so an export
// can be read back with FromJSON.
type jsonSession struct {
	ID        string `json:"id"`
	TaskName  string `json:"taskName"`
	Duration  int    `json:"duration"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Completed bool   `json:"completed"`
	Formatted string `json:"formatted"`
}

// ToJSON writes sessions to path as indented JSON.
func ToJSON(sessions []store.FocusSession, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
		Sessions:   make([]jsonSession, 0, len(sessions)),
	}

	for _, fs := range sessions {
		export.TotalSeconds += int64(fs.Duration)
		export.Sessions = append(export.Sessions, jsonSession{
			ID:        fs.ID,
			TaskName:  fs.TaskName,
			Duration:  fs.Duration,
			StartTime: fs.StartTime.UTC().Format(time.RFC3339Nano),
			EndTime:   fs.EndTime.UTC().Format(time.RFC3339Nano),
			Completed: fs.Completed,
			Formatted: formatDuration(int64(fs.Duration)),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FromJSON reads an export written by ToJSON. Every entry is checked with
// store.DecodeFocusSession; the first invalid entry aborts the import and
// its *store.ValidationError is returned wrapped with the entry index.
func FromJSON(path string) ([]store.FocusSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}

	var doc struct {
		Sessions []json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json export: %w", err)
	}

	sessions := make([]store.FocusSession, 0, len(doc.Sessions))
	for i, raw := range doc.Sessions {
		fs, err := store.DecodeFocusSession(raw)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		sessions = append(sessions, fs)
	}
	return sessions, nil
}
