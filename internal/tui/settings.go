package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/tomatoclock/internal/store"
)

// settingsValues holds the form fields. The model keeps a pointer so the
// bound values survive Bubble Tea's value copies.
type settingsValues struct {
	alwaysOnTop  bool
	posX, posY   string
	durationMins string
	soundEnabled bool
	opacity      string
}

type settingsModel struct {
	store  *store.Store
	log    *zap.Logger
	width  int
	height int

	settings   store.AppSettings
	formActive bool
	form       *huh.Form
	values     *settingsValues
}

func newSettingsModel(s *store.Store, log *zap.Logger) settingsModel {
	return settingsModel{
		store:    s,
		log:      log,
		settings: store.DefaultSettings(),
		values:   &settingsValues{},
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsLoadedMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	v := s.values
	v.alwaysOnTop = s.settings.AlwaysOnTop
	v.posX = strconv.Itoa(s.settings.WindowPosition.X)
	v.posY = strconv.Itoa(s.settings.WindowPosition.Y)
	v.durationMins = strconv.Itoa(s.settings.DefaultDuration / 60)
	v.soundEnabled = s.settings.SoundEnabled
	v.opacity = strconv.FormatFloat(s.settings.Opacity, 'f', -1, 64)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus length (min)").Value(&v.durationMins).Validate(validateMinutes),
			huh.NewConfirm().Title("Sound when a session ends").Value(&v.soundEnabled),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Always on top").Value(&v.alwaysOnTop),
			huh.NewInput().Title("Window X").Value(&v.posX).Validate(validateInt),
			huh.NewInput().Title("Window Y").Value(&v.posY).Validate(validateInt),
			huh.NewInput().Title("Opacity (0-1)").Value(&v.opacity).Validate(validateOpacity),
		).Title("Window"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Back) {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save(s.values.settings(s.settings))
	}

	return s, cmd
}

// save writes as and reloads it so every view sees the stored values.
func (s settingsModel) save(as store.AppSettings) tea.Cmd {
	st, log := s.store, s.log
	return func() tea.Msg {
		if err := st.SaveSettings(as); err != nil {
			log.Error("save settings", zap.Error(err))
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		loaded, _ := st.LoadSettings()
		return settingsLoadedMsg{settings: loaded}
	}
}

// settings applies the form values on top of base. Fields were validated by
// the form, so parse failures keep the base value.
func (v *settingsValues) settings(base store.AppSettings) store.AppSettings {
	as := base
	as.AlwaysOnTop = v.alwaysOnTop
	as.SoundEnabled = v.soundEnabled
	if x, err := strconv.Atoi(v.posX); err == nil {
		as.WindowPosition.X = x
	}
	if y, err := strconv.Atoi(v.posY); err == nil {
		as.WindowPosition.Y = y
	}
	if m, err := strconv.Atoi(v.durationMins); err == nil {
		as.DefaultDuration = m * 60
	}
	if o, err := strconv.ParseFloat(v.opacity, 64); err == nil {
		as.Opacity = o
	}
	return as
}

func validateMinutes(s string) error {
	m, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("enter whole minutes")
	}
	if m*60 < store.MinDuration || m*60 > store.MaxDuration {
		return fmt.Errorf("must be between %d and %d minutes", store.MinDuration/60, store.MaxDuration/60)
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("enter a whole number")
	}
	return nil
}

func validateOpacity(s string) error {
	o, err := strconv.ParseFloat(s, 64)
	if err != nil || o < 0 || o > 1 {
		return fmt.Errorf("enter a number between 0 and 1")
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	as := s.settings
	items := []struct{ label, value string }{
		{"Focus length", fmt.Sprintf("%d min", as.DefaultDuration/60)},
		{"Sound", onOff(as.SoundEnabled)},
		{"Always on top", onOff(as.AlwaysOnTop)},
		{"Window position", fmt.Sprintf("%d, %d", as.WindowPosition.X, as.WindowPosition.Y)},
		{"Opacity", fmt.Sprintf("%.0f%%", as.Opacity*100)},
	}

	rows := []string{title, ""}
	for _, it := range items {
		label := lipgloss.NewStyle().Width(20).Render(it.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(it.value)))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
