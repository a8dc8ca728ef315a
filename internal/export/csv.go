package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tomatoclock/internal/store"
)

var csvHeader = []string{"ID", "Task", "Start", "End", "Duration (s)", "Duration", "Completed"}

// ToCSV writes sessions to path as CSV with a header row. Times are UTC RFC 3339.
func ToCSV(sessions []store.FocusSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, fs := range sessions {
		row := []string{
			fs.ID,
			fs.TaskName,
			fs.StartTime.UTC().Format(time.RFC3339),
			fs.EndTime.UTC().Format(time.RFC3339),
			strconv.Itoa(fs.Duration),
			formatDuration(int64(fs.Duration)),
			strconv.FormatBool(fs.Completed),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", fs.ID, err)
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
