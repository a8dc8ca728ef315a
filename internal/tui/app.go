package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/sadopc/tomatoclock/internal/export"
	"github.com/sadopc/tomatoclock/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	log    *zap.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	focus    focusModel
	today    todayModel
	reports  reportsModel
	settings settingsModel

	help   help.Model
	status string
}

// NewApp builds the root model around an initialized store. A nil logger disables logging.
func NewApp(s *store.Store, log *zap.Logger) App {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("tui")

	h := help.New()
	h.ShowAll = false

	exportDir, err := os.UserHomeDir()
	if err != nil {
		exportDir = "."
	}

	return App{
		store:      s,
		log:        log,
		activeView: viewTimer,
		exportDir:  exportDir,
		focus:      newFocusModel(s, log),
		today:      newTodayModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(s, log),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadSettingsCmd(a.store),
		a.today.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.focus.setSize(a.width, contentHeight)
		a.today.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child capturing text input gets every key.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewToday
			return a, a.today.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// The countdown keeps running whichever view is visible.
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case settingsLoadedMsg:
		var cmd1, cmd2 tea.Cmd
		a.focus, cmd1 = a.focus.update(msg)
		a.settings, cmd2 = a.settings.update(msg)
		return a, tea.Batch(cmd1, cmd2)

	case sessionSavedMsg:
		a.status = msg.text
		a.log.Info("focus session saved",
			zap.String("id", msg.session.ID),
			zap.Int("duration", msg.session.Duration),
			zap.Bool("completed", msg.session.Completed),
		)
		return a, tea.Batch(a.today.refresh(), a.reports.refresh())

	case todayDataMsg:
		a.today, _ = a.today.update(msg)
		return a, nil

	case reportsDataMsg:
		a.reports, _ = a.reports.update(msg)
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = fmt.Sprintf("Exported %d sessions (%s) to %s", msg.count, humanize.Bytes(uint64(msg.size)), msg.path)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.focus, cmd = a.focus.update(msg)
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.focus.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.refresh()
	case viewReports:
		return a.reports.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.focus.view()
	case viewToday:
		content = a.today.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tomatoclock")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Countdown indicator, visible from every view.
	timerInfo := ""
	if a.focus.timer.running() {
		remaining := formatClock(a.focus.timer.remaining())
		timerInfo = accentStyle.Render(" ● " + remaining)
		if a.focus.timer.paused() {
			timerInfo = warningStyle.Render(" ⏸ " + remaining)
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	s, log, dir := a.store, a.log, a.exportDir
	return func() tea.Msg {
		sessions, err := s.ListFocusSessions()
		if err != nil {
			log.Error("export: list sessions", zap.Error(err))
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		base := filepath.Join(dir, "tomatoclock-export-"+time.Now().Format("2006-01-02"))

		var path string
		if format == 0 {
			path = base + ".csv"
			err = export.ToCSV(sessions, path)
		} else {
			path = base + ".json"
			err = export.ToJSON(sessions, path)
		}
		if err != nil {
			log.Error("export", zap.String("path", path), zap.Error(err))
			return statusMsg{text: fmt.Sprintf("%s error: %v", exportFormats[format], err), isError: true}
		}

		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		log.Info("exported sessions", zap.String("path", path), zap.Int("count", len(sessions)))
		return exportDoneMsg{path: path, count: len(sessions), size: size}
	}
}
