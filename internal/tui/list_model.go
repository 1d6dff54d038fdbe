package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rates"
)

// ListModel browses the caller's sessions
type ListModel struct {
	width  int
	height int

	sessions []models.Session
	selected int
	viewer   string // caller's user ID, to label the counterpart

	shimmer *Shimmer

	currentPage     int
	sessionsPerPage int

	chosen string
}

// NewListModel creates a session browser for viewer
func NewListModel(sessions []models.Session, viewer string) ListModel {
	return ListModel{
		sessions:        sessions,
		viewer:          viewer,
		shimmer:         NewShimmer(DefaultShimmerConfig()),
		sessionsPerPage: 10,
	}
}

// WithShimmer replaces the selected row highlight settings
func (m ListModel) WithShimmer(config ShimmerConfig) ListModel {
	m.shimmer = NewShimmer(config)
	return m
}

// Chosen returns the session picked with enter, if any
func (m ListModel) Chosen() string { return m.chosen }

// shimmerTickMsg advances the selected row highlight
type shimmerTickMsg struct{}

func (m ListModel) shimmerTick() tea.Cmd {
	if !m.shimmer.Active() {
		return nil
	}
	return tea.Tick(m.shimmer.Interval(), func(time.Time) tea.Msg {
		return shimmerTickMsg{}
	})
}

// Init initializes the model
func (m ListModel) Init() tea.Cmd {
	return m.shimmerTick()
}

// Update handles messages
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case shimmerTickMsg:
		m.shimmer.Advance()
		return m, m.shimmerTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header, pagination, help and borders
		m.sessionsPerPage = max(m.height-12, 3)
		m.currentPage = m.selected / m.sessionsPerPage
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter":
			if len(m.sessions) > 0 && !m.sessions[m.selected].IsEnded() {
				m.chosen = m.sessions[m.selected].ID
				return m, tea.Quit
			}
		case "up", "k":
			m = m.moveSelection(-1)
		case "down", "j":
			m = m.moveSelection(1)
		case "left", "h":
			m = m.movePage(-1)
		case "right", "l":
			m = m.movePage(1)
		}
	}
	return m, nil
}

func (m ListModel) pages() int {
	return max((len(m.sessions)+m.sessionsPerPage-1)/m.sessionsPerPage, 1)
}

func (m ListModel) moveSelection(delta int) ListModel {
	next := m.selected + delta
	if next < 0 || next >= len(m.sessions) {
		return m
	}
	m.selected = next
	m.currentPage = m.selected / m.sessionsPerPage
	m.shimmer.Reset()
	return m
}

func (m ListModel) movePage(delta int) ListModel {
	page := m.currentPage + delta
	if page < 0 || page >= m.pages() {
		return m
	}
	m.currentPage = page
	m.selected = min(page*m.sessionsPerPage, len(m.sessions)-1)
	m.shimmer.Reset()
	return m
}

// View renders the session table and the details of the selected one
func (m ListModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTable(leftWidth),
		" ",
		m.renderDetails(rightWidth),
	)

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("↑/↓ select · ←/→ page · enter watch · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, "", content, "", help)
}

func (m ListModel) renderTable(width int) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Render("🎧 Sessions"))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render("No sessions found"))
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(ColorBorder)).Width(width).Render(b.String())
	}

	idWidth := max(width-4-8-10-9-6, 12)
	header := fmt.Sprintf("%-*s %-8s %-10s %9s", idWidth, "SESSION", "STATUS", "MODE", "POINTS")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Padding(0, 1).Render(header))
	b.WriteString("\n\n")

	start := m.currentPage * m.sessionsPerPage
	end := min(start+m.sessionsPerPage, len(m.sessions))
	for i := start; i < end; i++ {
		s := m.sessions[i]

		id := s.ID
		if len(id) > idWidth {
			id = id[:idWidth-3] + "..."
		}
		idCell := fmt.Sprintf("%-*s", idWidth, id)
		if i == m.selected {
			idCell = m.shimmer.Render(idCell, idWidth)
		}

		statusColor := ColorSuccess
		if s.IsEnded() {
			statusColor = ColorDisabledText
		}
		status := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor)).Render(fmt.Sprintf("%-8s", s.Status))
		mode := lipgloss.NewStyle().Foreground(lipgloss.Color(modeColor(s.BillingMode))).Render(fmt.Sprintf("%-10s", s.BillingMode))
		row := fmt.Sprintf("%s %s %s %9d", idCell, status, mode, s.AccruedPoints)

		if i == m.selected {
			b.WriteString(lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).
				Bold(true).
				Padding(0, 1).
				Render(row))
		} else {
			b.WriteString(" " + row)
		}
		b.WriteString("\n")
	}

	if m.pages() > 1 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).
			Width(width - 2).
			MarginTop(1).
			Render(fmt.Sprintf("Page %d/%d (%d sessions)", m.currentPage+1, m.pages(), len(m.sessions))))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

func (m ListModel) renderDetails(width int) string {
	if len(m.sessions) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Align(lipgloss.Center).
			Width(width).
			MarginTop(2).
			Render("Start one with 'listeningroom session start'")
	}

	s := m.sessions[m.selected]
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true)
	row := func(name, v string) string {
		return label.Render(fmt.Sprintf("%-12s", name)) + value.Render(v) + "\n"
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).Render("🎧 " + s.ID))
	b.WriteString("\n\n")

	role, other := "volunteer", s.SeekerID
	if s.SeekerID == m.viewer {
		role, other = "seeker", s.VolunteerID
	}
	b.WriteString(row("You are", role))
	b.WriteString(row("With", other))
	b.WriteString(row("Started", s.StartedAt.Local().Format("Jan 02 15:04")))
	if s.PremiumStartedAt != nil {
		b.WriteString(row("Premium at", s.PremiumStartedAt.Local().Format("15:04:05")))
	}
	if s.EndedAt != nil {
		b.WriteString(row("Ended", s.EndedAt.Local().Format("Jan 02 15:04")))
	}
	b.WriteString(row("Listened", formatClock(time.Duration(s.TimeSpentSeconds*float64(time.Second)))))
	b.WriteString(row("Points", fmt.Sprintf("%d", s.AccruedPoints)))
	b.WriteString(row("Amount", fmt.Sprintf("$%.2f", rates.Dollars(s.AccruedAmountCents))))

	if !s.IsEnded() {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).
			Render("Figures are as of the last poll; enter to watch live"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 1).
		Width(width - 2).
		Render(b.String())
}

// RunListTUI shows the session browser and returns the session chosen to watch
func RunListTUI(sessions []models.Session, viewer string, shimmer ShimmerConfig) (string, error) {
	p := tea.NewProgram(NewListModel(sessions, viewer).WithShimmer(shimmer), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	return finalModel.(ListModel).Chosen(), nil
}
