package tui

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusroom/backend/internal/model"
	"focusroom/backend/internal/timer"
)

const (
	refreshInterval = 250 * time.Millisecond
	adjustStep      = 60
)

// TimerModel renders a running timer.Machine and forwards key presses to it.
type TimerModel struct {
	width  int
	height int

	machine     *timer.Machine
	completions <-chan model.Completion
	state       model.TimerSession

	editingSubject bool
	subjectInput   textinput.Model

	banner string
	err    error
}

type refreshMsg struct{}

type completionMsg model.Completion

func NewTimerModel(machine *timer.Machine, completions <-chan model.Completion) TimerModel {
	input := textinput.New()
	input.Placeholder = "Physics"
	input.CharLimit = 80
	input.Width = 30

	return TimerModel{
		machine:      machine,
		completions:  completions,
		state:        machine.Snapshot(),
		subjectInput: input,
	}
}

func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(refresh(), waitForCompletion(m.completions))
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// waitForCompletion blocks on the completion channel in a command goroutine.
func waitForCompletion(completions <-chan model.Completion) tea.Cmd {
	if completions == nil {
		return nil
	}
	return func() tea.Msg {
		completion, ok := <-completions
		if !ok {
			return nil
		}
		return completionMsg(completion)
	}
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.state = m.machine.Snapshot()
		return m, refresh()

	case completionMsg:
		m.banner = completionBanner(model.Completion(msg))
		m.state = m.machine.Snapshot()
		return m, waitForCompletion(m.completions)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editingSubject {
			return m.updateSubject(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m TimerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case " ":
		err = m.machine.ToggleStart()
	case "r":
		m.machine.Reset()
	case "f":
		err = m.machine.SetMode(model.ModeFocus)
	case "b":
		err = m.machine.SetMode(model.ModeBreak)
	case "w":
		err = m.machine.SetMode(model.ModeStopwatch)
	case "+", "=":
		err = m.machine.AdjustTime(adjustStep)
	case "-":
		err = m.machine.AdjustTime(-adjustStep)
	case "enter":
		err = m.machine.Finish()
	case "s":
		if m.state.IsFocusStarted {
			err = timer.ErrFocusLocked
			break
		}
		m.editingSubject = true
		m.subjectInput.SetValue(m.state.SelectedSubject)
		m.subjectInput.CursorEnd()
		return m, m.subjectInput.Focus()
	default:
		return m, nil
	}

	m.err = err
	if err == nil {
		m.banner = ""
	}
	m.state = m.machine.Snapshot()
	return m, nil
}

func (m TimerModel) updateSubject(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingSubject = false
		m.subjectInput.Blur()
		return m, nil
	case "enter":
		m.editingSubject = false
		m.subjectInput.Blur()
		m.err = m.machine.SetSubject(m.subjectInput.Value())
		m.state = m.machine.Snapshot()
		return m, nil
	}

	var cmd tea.Cmd
	m.subjectInput, cmd = m.subjectInput.Update(msg)
	return m, cmd
}

func (m TimerModel) View() string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(modeColor(m.state.Mode))).
		Padding(1, 4).
		Align(lipgloss.Center)

	clock := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Render(timer.FormatClock(m.state.RemainingSeconds()))

	sections := []string{
		m.renderModeTabs(),
		"",
		clock,
		m.renderStatus(),
		m.renderSubject(),
	}
	if m.banner != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render(m.banner))
	}
	if m.err != nil {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render(m.err.Error()))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		card.Render(lipgloss.JoinVertical(lipgloss.Center, sections...)),
		m.renderHelpBar(),
	)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m TimerModel) renderModeTabs() string {
	modes := []struct {
		mode  model.Mode
		label string
	}{
		{model.ModeFocus, "Focus"},
		{model.ModeBreak, "Break"},
		{model.ModeStopwatch, "Stopwatch"},
	}

	tabs := make([]string, 0, len(modes))
	for _, item := range modes {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(ColorDisabledText))
		if item.mode == m.state.Mode {
			style = style.
				Bold(true).
				Foreground(lipgloss.Color(ColorPrimaryText)).
				Background(lipgloss.Color(modeColor(item.mode)))
		}
		tabs = append(tabs, style.Render(item.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m TimerModel) renderStatus() string {
	status := "paused"
	color := ColorWarning
	switch {
	case m.state.IsActive:
		status = "running"
		color = modeColor(m.state.Mode)
	case !m.state.IsFocusStarted && m.state.RemainingSeconds() == m.state.BaselineSeconds():
		status = "ready"
		color = ColorSecondaryText
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(status)
}

func (m TimerModel) renderSubject() string {
	if m.editingSubject {
		return "Subject: " + m.subjectInput.View()
	}
	if !m.state.Mode.RequiresSubject() {
		return ""
	}

	subject := m.state.SelectedSubject
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	if subject == "" {
		subject = "no subject (press s)"
		style = style.Foreground(lipgloss.Color(ColorDisabledText))
	}
	return style.Render("Subject: " + subject)
}

func (m TimerModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))
	if m.editingSubject {
		return helpStyle.Render("enter: save • esc: cancel")
	}

	keys := []string{"space: start/pause", "r: reset", "s: subject", "f/b/w: mode"}
	if m.state.Mode == model.ModeStopwatch {
		keys = append(keys, "enter: finish")
	} else {
		keys = append(keys, "+/-: 1 min")
	}
	keys = append(keys, "q: quit")
	return helpStyle.Render(strings.Join(keys, " • "))
}

func modeColor(mode model.Mode) string {
	switch mode {
	case model.ModeBreak:
		return ColorBreak
	case model.ModeStopwatch:
		return ColorStopwatch
	default:
		return ColorFocus
	}
}

func completionBanner(completion model.Completion) string {
	switch completion.Mode {
	case model.ModeBreak:
		return fmt.Sprintf("Break over (%.0f min). Back to work!", completion.DurationMinutes)
	case model.ModeStopwatch:
		return fmt.Sprintf("Logged %.1f min of %s", completion.DurationMinutes, completion.Subject)
	default:
		return fmt.Sprintf("Focus session complete: %.0f min of %s", completion.DurationMinutes, completion.Subject)
	}
}

// RunTimerTUI blocks until the user quits. The machine must already be
// running in its own goroutine. While the program owns the terminal, the
// standard logger writes to logPath instead.
func RunTimerTUI(machine *timer.Machine, completions <-chan model.Completion, logPath string) error {
	if logPath != "" {
		logFile, err := tea.LogToFile(logPath, "focus")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() {
			log.SetOutput(os.Stderr)
			_ = logFile.Close()
		}()
	}

	p := tea.NewProgram(NewTimerModel(machine, completions), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
