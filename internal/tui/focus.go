package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/tomatoclock/internal/store"
)

// cycleLength is how many finished sessions make one row of progress dots.
const cycleLength = 4

// defaultTaskName labels sessions started with an empty task field.
const defaultTaskName = "Focus"

type focusModel struct {
	store  *store.Store
	log    *zap.Logger
	width  int
	height int

	timer    timerModel
	input    textinput.Model
	settings store.AppSettings

	completedCount int
	formActive     bool
}

func newFocusModel(s *store.Store, log *zap.Logger) focusModel {
	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = store.MaxTaskNameLength
	ti.Prompt = "› "

	settings := store.DefaultSettings()
	return focusModel{
		store:    s,
		log:      log,
		timer:    newTimerModel(time.Duration(settings.DefaultDuration) * time.Second),
		input:    ti,
		settings: settings,
	}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
	f.input.Width = max(w-12, 10)
}

func loadSettingsCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		// LoadSettings falls back to defaults on every failure.
		as, _ := s.LoadSettings()
		return settingsLoadedMsg{settings: as}
	}
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		f.settings = msg.settings
		f.timer.setLength(time.Duration(msg.settings.DefaultDuration) * time.Second)
		return f, nil

	case tickMsg:
		if fs, ok := f.timer.finish(); ok {
			f.completedCount++
			return f, f.save(fs, "Focus session complete!"+f.bell())
		}
		return f, nil

	case tea.KeyMsg:
		if f.formActive {
			return f.updateInput(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if !f.timer.running() {
				f.timer.start(f.taskName())
				return f, statusCmd("Focus started", false)
			}
		case key.Matches(msg, keys.Pause):
			f.timer.toggle()
		case key.Matches(msg, keys.Reset):
			return f.resetTimer()
		case key.Matches(msg, keys.Task):
			if !f.timer.running() {
				f.formActive = true
				return f, f.input.Focus()
			}
		}
	}
	return f, nil
}

// taskName is the trimmed task field, or defaultTaskName when it is blank.
func (f focusModel) taskName() string {
	if name := strings.TrimSpace(f.input.Value()); name != "" {
		return name
	}
	return defaultTaskName
}

func (f focusModel) updateInput(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Back):
		f.formActive = false
		f.input.Blur()
		return f, nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

func (f focusModel) resetTimer() (focusModel, tea.Cmd) {
	if !f.timer.running() {
		return f, nil
	}
	fs, ok := f.timer.reset()
	if !ok {
		return f, statusCmd("Timer reset", false)
	}
	return f, f.save(fs, fmt.Sprintf("Saved %s of unfinished focus", formatClock(time.Duration(fs.Duration)*time.Second)))
}

func (f focusModel) save(fs store.FocusSession, text string) tea.Cmd {
	s, log := f.store, f.log
	return func() tea.Msg {
		if err := s.SaveFocusSession(fs); err != nil {
			log.Error("save focus session", zap.String("id", fs.ID), zap.Error(err))
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return sessionSavedMsg{session: fs, text: text}
	}
}

func (f focusModel) bell() string {
	if f.settings.SoundEnabled {
		return " \a"
	}
	return ""
}

func (f focusModel) view() string {
	w := f.width - 4

	title := titleStyle.Render("Focus")

	var taskLine string
	switch {
	case f.formActive:
		taskLine = f.input.View()
	case f.input.Value() != "":
		taskLine = highlightStyle.Render(f.input.Value())
	default:
		taskLine = mutedStyle.Render(defaultTaskName)
	}

	clock := formatClock(f.timer.remaining())
	var timeDisplay, stateLabel string
	switch {
	case f.timer.paused():
		timeDisplay = timerPausedStyle.Width(w - 6).Render(clock)
		stateLabel = warningStyle.Render("⏸  PAUSED")
	case f.timer.running():
		timeDisplay = timerRunningStyle.Width(w - 6).Render(clock)
		stateLabel = accentStyle.Bold(true).Render("●  FOCUS")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(clock)
		stateLabel = mutedStyle.Render("Ready to start")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		taskLine,
		"",
		timeDisplay,
		stateLabel,
		"",
		f.renderProgress(),
	)

	var controls string
	switch {
	case f.formActive:
		controls = mutedStyle.Render("enter: done  esc: done")
	case f.timer.running():
		controls = mutedStyle.Render("space: pause/resume  r: reset")
	default:
		controls = mutedStyle.Render("s: start  t: task name")
	}

	style := panelStyle
	if f.timer.running() {
		style = activePanelStyle
	}
	return style.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (f focusModel) renderProgress() string {
	done := f.completedCount % cycleLength
	if f.completedCount > 0 && done == 0 {
		done = cycleLength
	}
	var parts []string
	for i := 0; i < cycleLength; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && f.timer.running():
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d done", f.completedCount))
	return strings.Join(parts, " ") + counter
}
