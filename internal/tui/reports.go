package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomatoclock/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	mode      reportMode
	summaries []store.DailySummary
	stats     store.Statistics
	offset    int // 7-day blocks or weeks back from today (0 = current)
	err       error

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		now:   time.Now,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summaries []store.DailySummary
	stats     store.Statistics
	err       error
}

func (r reportsModel) refresh() tea.Cmd {
	s := r.store
	from, to := r.dateRange()
	return func() tea.Msg {
		summaries, err := s.GetDailySummary(from, to)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		stats, err := s.GetStatistics(from, to)
		return reportsDataMsg{summaries: summaries, stats: stats, err: err}
	}
}

// dateRange returns the first and last UTC day of the period, both inclusive.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case reportWeekly:
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		monday := today.AddDate(0, 0, -int(weekday-time.Monday)-7*r.offset)
		return monday, monday.AddDate(0, 0, 6)
	default:
		last := today.AddDate(0, 0, -7*r.offset)
		return last.AddDate(0, 0, -6), last
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.stats = msg.stats
		r.err = msg.err
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]store.DailySummary, len(r.summaries))
	for _, s := range r.summaries {
		byDate[s.Date] = s
	}

	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		s := byDate[d.Format("2006-01-02")]
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "focus",
				Value: float64(s.TotalSeconds) / 60,
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	if r.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", errorStyle.Render(fmt.Sprintf("Could not load report: %v", r.err)),
		))
	}

	totals := fmt.Sprintf("  %s focused in %d sessions",
		highlightStyle.Render(formatHours(r.stats.TotalFocusTime)), r.stats.SessionCount)

	nav := mutedStyle.Render("  ←/→: navigate  m: daily/weekly")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), mutedStyle.Render("  minutes per day"), "",
			totals, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %9s %10s", "Date", "Duration", "Sessions", "Completed")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))

	for _, s := range r.summaries {
		rows = append(rows, fmt.Sprintf("  %-12s %10s %9d %10d",
			s.Date, formatSeconds(s.TotalSeconds), s.SessionCount, s.Completed,
		))
	}

	return strings.Join(rows, "\n")
}
