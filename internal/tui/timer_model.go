package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rates"
	"github.com/balkashynov/listeningroom/internal/timer"
)

// timerKeyMap holds the reward timer key bindings
type timerKeyMap struct {
	Continue key.Binding
	End      key.Binding
	Leave    key.Binding
}

func (k timerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.End, k.Leave}
}

func (k timerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newTimerKeyMap() timerKeyMap {
	return timerKeyMap{
		Continue: key.NewBinding(key.WithKeys("c", "C"), key.WithHelp("c", "continue (premium)")),
		End:      key.NewBinding(key.WithKeys("e", "E"), key.WithHelp("e", "end session")),
		Leave:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "leave (keep running)")),
	}
}

// TimerModel is the live reward view of one session. All figures come
// from server snapshots; the model only schedules polls and decisions.
type TimerModel struct {
	width  int
	height int

	source    timer.Source
	sessionID string
	interval  time.Duration
	timeout   time.Duration

	machine *timer.Machine
	gen     int // poll chain generation; stale ticks are dropped

	spinner spinner.Model
	help    help.Model
	keys    timerKeyMap
	shimmer *Shimmer
	frame   int

	leaving bool
}

// snapshotMsg carries a poll result
type snapshotMsg struct {
	gen  int
	snap models.Snapshot
	err  error
}

// decisionMsg carries the server's answer to a decision
type decisionMsg struct {
	decision timer.Decision
	snap     models.Snapshot
	err      error
}

// pollTickMsg arms the next poll of a chain
type pollTickMsg struct{ gen int }

// animationTickMsg drives the header and prompt animations
type animationTickMsg struct{}

// NewTimerModel creates a reward timer for a session
func NewTimerModel(source timer.Source, sessionID string, interval, timeout time.Duration) TimerModel {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true)

	return TimerModel{
		source:    source,
		sessionID: sessionID,
		interval:  interval,
		timeout:   timeout,
		machine:   timer.NewMachine(),
		spinner:   sp,
		help:      h,
		keys:      newTimerKeyMap(),
		shimmer:   NewShimmer(DefaultShimmerConfig()),
	}
}

// WithShimmer replaces the prompt highlight settings
func (m TimerModel) WithShimmer(config ShimmerConfig) TimerModel {
	m.shimmer = NewShimmer(config)
	return m
}

// Machine exposes the view state, mainly for the caller after the program exits
func (m TimerModel) Machine() *timer.Machine { return m.machine }

// Left reports whether the participant closed the view without ending the session
func (m TimerModel) Left() bool { return m.leaving }

// Init starts the first poll and the animations
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick, animationTick())
}

func animationTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

func (m TimerModel) fetch() tea.Cmd {
	source, id, timeout, gen := m.source, m.sessionID, m.timeout, m.gen
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := source.Snapshot(ctx, id)
		return snapshotMsg{gen: gen, snap: snap, err: err}
	}
}

func (m TimerModel) submit(d timer.Decision) tea.Cmd {
	source, id := m.source, m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var snap models.Snapshot
		var err error
		if d == timer.DecisionContinue {
			snap, err = source.Continue(ctx, id)
		} else {
			snap, err = source.End(ctx, id)
		}
		return decisionMsg{decision: d, snap: snap, err: err}
	}
}

// nextPoll waits one interval after a response before polling again
func (m TimerModel) nextPoll() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		if msg.gen != m.gen {
			// Reply from a chain orphaned by a refresh
			return m, nil
		}
		var effect timer.Effect
		if msg.err != nil {
			effect = m.machine.FetchFailed(msg.err)
		} else {
			effect = m.machine.Observe(msg.snap)
		}
		var cmd tea.Cmd
		m, cmd = m.apply(effect)
		if cmd == nil && !m.machine.Done() && !m.leaving {
			cmd = m.nextPoll()
		}
		return m, cmd

	case pollTickMsg:
		if msg.gen != m.gen || m.machine.Done() || m.leaving {
			return m, nil
		}
		return m, m.fetch()

	case decisionMsg:
		return m.apply(m.machine.DecisionSettled(msg.decision, msg.snap, msg.err))

	case animationTickMsg:
		m.frame = (m.frame + 1) % 4
		if m.machine.PromptOpen() {
			m.shimmer.Advance()
		}
		if m.leaving {
			return m, nil
		}
		return m, animationTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Leave):
			m.leaving = !m.machine.Done()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Continue):
			if m.machine.BeginDecision(timer.DecisionContinue) {
				return m, m.submit(timer.DecisionContinue)
			}
		case key.Matches(msg, m.keys.End):
			if m.machine.BeginDecision(timer.DecisionEnd) {
				return m, m.submit(timer.DecisionEnd)
			}
		}
	}

	return m, nil
}

// apply turns a machine effect into a command
func (m TimerModel) apply(effect timer.Effect) (TimerModel, tea.Cmd) {
	switch effect {
	case timer.EffectShowPrompt:
		m.shimmer.Reset()
	case timer.EffectRefresh:
		// Start a fresh poll chain right away and orphan the old one
		m.gen++
		return m, m.fetch()
	}
	return m, nil
}

// View renders the reward timer
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(m.help.View(m.keys))
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTimerPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderRatePanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func centered(width int) lipgloss.Style {
	return lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
}

// renderTimerPanel renders the clock, the running totals and the prompt
func (m TimerModel) renderTimerPanel(width, height int) string {
	snap, ok := m.machine.Snapshot()
	var components []string

	animChars := []string{"♪", "♫", "♪", "♬"}
	header := fmt.Sprintf("%s  LISTENING  %s", animChars[m.frame], animChars[m.frame])
	switch m.machine.Phase() {
	case timer.PhaseEnded:
		header = "■  SESSION ENDED  ■"
	case timer.PhaseFailed:
		header = "✗  DISCONNECTED  ✗"
	}
	components = append(components, centered(width).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(header))

	components = append(components, centered(width).
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Render(m.sessionID))

	if !ok {
		components = append(components, centered(width).Render(m.spinner.View()+" connecting..."))
		return m.panel(width, height, components, snap)
	}

	clockLines := strings.Split(renderBigClock(snap.Elapsed()), "\n")
	for i, line := range clockLines {
		clockLines[i] = centered(width).Render(line)
	}
	components = append(components, strings.Join(clockLines, "\n"))

	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorCardBackground)).
		Background(lipgloss.Color(modeColor(snap.BillingMode))).
		Bold(true).
		Padding(0, 1).
		Render(strings.ToUpper(snap.BillingMode))
	totals := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(fmt.Sprintf("%d points · $%.2f", snap.CurrentPoints, snap.CurrentAmount))
	components = append(components, centered(width).Render(badge+"  "+totals))

	return m.panel(width, height, components, snap)
}

func (m TimerModel) panel(width, height int, components []string, snap models.Snapshot) string {
	if m.machine.PromptOpen() {
		components = append(components, m.renderPrompt(width))
	}
	if status := m.renderStatus(snap); status != "" {
		components = append(components, centered(width).Render(status))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

// renderPrompt renders the continue-or-end decision box
func (m TimerModel) renderPrompt(width int) string {
	title := m.shimmer.Render("The standard period is over. Keep listening?", width-8)

	var choice string
	if m.machine.Phase() == timer.PhaseSubmitting {
		choice = m.spinner.View() + " " + string(m.machine.Pending()) + "..."
	} else {
		cont := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPremium)).Bold(true).Render("[c] continue at premium")
		end := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Render("[e] end session")
		choice = cont + "   " + end
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 2).
		Align(lipgloss.Center).
		Render(title + "\n\n" + choice)
	return centered(width).Render(box)
}

// renderStatus renders the line under the clock: errors, endings, pending ends
func (m TimerModel) renderStatus(snap models.Snapshot) string {
	switch m.machine.Phase() {
	case timer.PhaseEnded:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).
			Render(fmt.Sprintf("Final: %d points · $%.2f · press q to close", snap.CurrentPoints, snap.CurrentAmount))
	case timer.PhaseFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).
			Render(fmt.Sprintf("%v · press q to close", m.machine.Err()))
	case timer.PhaseSubmitting:
		if !m.machine.PromptOpen() {
			return m.spinner.View() + " ending session..."
		}
	}
	if err := m.machine.Err(); err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Italic(true).
			Render(fmt.Sprintf("%v (retrying)", err))
	}
	return ""
}

// renderRatePanel renders the rate card and the time left in the standard period
func (m TimerModel) renderRatePanel(width, height int) string {
	snap, _ := m.machine.Snapshot()
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width-12).
		Padding(0, 1)
	b.WriteString("\n")
	b.WriteString(centered(width - 8).Render(titleStyle.Render("Rate card")))
	b.WriteString("\n\n")

	line := func(mode string, perMinute int64) string {
		marker := "  "
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))
		if snap.BillingMode == mode {
			marker = "▸ "
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(modeColor(mode))).Bold(true)
		}
		text := fmt.Sprintf("%s%-9s %d pts/min · $%.2f/min", marker, mode, perMinute,
			rates.Dollars(rates.AmountCents(perMinute)))
		return centered(width - 8).Render(style.Render(text))
	}
	b.WriteString(line(models.BillingStandard, rates.StandardPointsPerMinute))
	b.WriteString("\n")
	b.WriteString(line(models.BillingPremium, rates.PremiumPointsPerMinute))
	b.WriteString("\n\n")

	separator := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder)).
		Render(strings.Repeat("─", min(width-12, 40)))
	b.WriteString(centered(width - 8).Render(separator))
	b.WriteString("\n\n")

	info := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	switch {
	case m.machine.Done():
		b.WriteString(centered(width - 8).Render(info.Render("No further charges")))
	case snap.BillingMode == models.BillingPremium:
		b.WriteString(centered(width - 8).Render(info.Render("Premium until either participant ends")))
	default:
		left := rates.AutoTerminateAfter - snap.Elapsed()
		if left < 0 {
			left = 0
		}
		b.WriteString(centered(width - 8).Render(info.Render(
			fmt.Sprintf("Standard period ends in %s", formatClock(left)))))
	}

	if ts := snap.ComputedAt; !ts.IsZero() {
		b.WriteString("\n")
		b.WriteString(centered(width - 8).Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Italic(true).
				Render("as of " + ts.Local().Format("15:04:05"))))
	}

	return lipgloss.NewStyle().Height(height).Render(b.String())
}

// bigDigits is 5-row block art for the clock
var bigDigits = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

func formatClock(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// renderBigClock renders the elapsed time as block art
func renderBigClock(d time.Duration) string {
	var lines [5]strings.Builder
	for _, char := range formatClock(d) {
		art, ok := bigDigits[char]
		if !ok {
			continue
		}
		for i := range art {
			lines[i].WriteString(art[i])
			lines[i].WriteString(" ")
		}
	}

	clockStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)

	rows := make([]string, len(lines))
	for i := range lines {
		rows[i] = clockStyle.Render(lines[i].String())
	}
	return strings.Join(rows, "\n")
}

// RunTimerTUI runs the reward timer until the participant leaves or the session ends
func RunTimerTUI(source timer.Source, sessionID string, interval, timeout time.Duration, shimmer ShimmerConfig) error {
	model := NewTimerModel(source, sessionID, interval, timeout).WithShimmer(shimmer)
	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	model = finalModel.(TimerModel)
	snap, _ := model.Machine().Snapshot()
	switch {
	case model.Machine().Phase() == timer.PhaseEnded:
		fmt.Printf("⏹️  Session %s ended\n", sessionID)
		fmt.Printf("📊 %s listened · %d points · $%.2f\n", formatClock(snap.Elapsed()), snap.CurrentPoints, snap.CurrentAmount)
	case model.Machine().Phase() == timer.PhaseFailed:
		return fmt.Errorf("session %s: %w", sessionID, model.Machine().Err())
	case model.Left():
		fmt.Printf("\n💡 Session %s is still running (%s mode, %d points so far)\n", sessionID, snap.BillingMode, snap.CurrentPoints)
		fmt.Printf("   Use 'listeningroom watch %s' to come back or 'listeningroom session end %s' to end it.\n", sessionID, sessionID)
	}
	return nil
}
