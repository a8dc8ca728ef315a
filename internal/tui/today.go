package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/tomatoclock/internal/store"
)

type todayModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	sessions []store.FocusSession
	cursor   int
	err      error
}

func newTodayModel(s *store.Store) todayModel {
	return todayModel{store: s, now: time.Now}
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type todayDataMsg struct {
	sessions []store.FocusSession
	err      error
}

func (d todayModel) refresh() tea.Cmd {
	s, day := d.store, d.now()
	return func() tea.Msg {
		sessions, err := s.GetFocusSessions(day)
		return todayDataMsg{sessions: sessions, err: err}
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case todayDataMsg:
		d.sessions = msg.sessions
		d.err = msg.err
		if d.cursor >= len(d.sessions) {
			d.cursor = max(len(d.sessions)-1, 0)
		}
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.sessions)-1 {
				d.cursor++
			}
		}
	}
	return d, nil
}

func (d todayModel) totals() (count, completed int, total int64) {
	for _, fs := range d.sessions {
		total += int64(fs.Duration)
		if fs.Completed {
			completed++
		}
	}
	return len(d.sessions), completed, total
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	count, completed, total := d.totals()
	title := titleStyle.Render("Today")
	date := mutedStyle.Render(d.now().UTC().Format("Mon, Jan 02 2006") + " (UTC)")
	summary := fmt.Sprintf("%s  %s", highlightStyle.Render(formatSeconds(total)),
		mutedStyle.Render(fmt.Sprintf("%d sessions, %d completed", count, completed)))

	rows := []string{title + "  " + date, summary, ""}

	switch {
	case d.err != nil:
		rows = append(rows, errorStyle.Render(fmt.Sprintf("Could not load sessions: %v", d.err)))
	case len(d.sessions) == 0:
		rows = append(rows, mutedStyle.Render("No focus sessions today"))
	default:
		for i, fs := range d.sessions {
			rows = append(rows, d.renderRow(i, fs))
		}
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d todayModel) renderRow(i int, fs store.FocusSession) string {
	status := successStyle.Render("✓")
	if !fs.Completed {
		status = warningStyle.Render("◌")
	}
	task := fs.TaskName
	if strings.TrimSpace(task) == "" {
		task = "(untitled)"
	}
	saved := ""
	if !fs.CreatedAt.IsZero() {
		saved = mutedStyle.Render("saved " + humanize.RelTime(fs.CreatedAt, d.now(), "ago", "from now"))
	}

	cursor := "  "
	style := normalItemStyle
	if i == d.cursor {
		cursor = "> "
		style = selectedItemStyle
	}
	line := fmt.Sprintf("%s%s %s–%s  %-24s %s",
		cursor, status,
		fs.StartTime.Local().Format("15:04"), fs.EndTime.Local().Format("15:04"),
		lipgloss.NewStyle().MaxWidth(24).Render(task),
		formatSeconds(int64(fs.Duration)),
	)
	return style.Render(line) + "  " + saved
}
