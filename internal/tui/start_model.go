package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Step is the current step of the start-session wizard
type Step int

const (
	StepVolunteer Step = iota
	StepSeeker
	StepConfirm
)

// StartModel collects the participants of a new session
type StartModel struct {
	currentStep Step
	inputs      []textinput.Model
	width       int
	height      int

	validationErr string
	confirmChoice bool // true for Start, false for Cancel

	completed bool
	cancelled bool
}

// NewStartModel creates the wizard, optionally prefilled from flags
func NewStartModel(volunteer, seeker string) StartModel {
	inputs := make([]textinput.Model, 2)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 40
		inputs[i].CharLimit = 64
		inputs[i].TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		inputs[i].Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	}
	inputs[0].Placeholder = "Volunteer user ID (required)"
	inputs[0].SetValue(volunteer)
	inputs[1].Placeholder = "Seeker user ID (required)"
	inputs[1].SetValue(seeker)

	m := StartModel{inputs: inputs, confirmChoice: true}
	if volunteer != "" {
		m.currentStep = StepSeeker
	}
	m.inputs[m.currentStep].Focus()
	return m
}

// Volunteer returns the entered volunteer ID
func (m StartModel) Volunteer() string { return strings.TrimSpace(m.inputs[0].Value()) }

// Seeker returns the entered seeker ID
func (m StartModel) Seeker() string { return strings.TrimSpace(m.inputs[1].Value()) }

// Completed reports whether the participant confirmed the session
func (m StartModel) Completed() bool { return m.completed && !m.cancelled }

// Init initializes the model
func (m StartModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m StartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.currentStep == StepConfirm {
			switch msg.String() {
			case "left", "right", "tab":
				m.confirmChoice = !m.confirmChoice
				return m, nil
			case "y", "Y":
				m.completed = true
				return m, tea.Quit
			case "n", "N", "ctrl+c":
				m.cancelled = true
				return m, tea.Quit
			case "enter":
				m.completed = m.confirmChoice
				m.cancelled = !m.confirmChoice
				return m, tea.Quit
			case "esc", "shift+tab", "up":
				return m.goTo(StepSeeker), nil
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter", "tab", "down":
			return m.advance(), nil
		case "shift+tab", "up":
			if m.currentStep > StepVolunteer {
				return m.goTo(m.currentStep - 1), nil
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.currentStep < StepConfirm {
		m.inputs[m.currentStep], cmd = m.inputs[m.currentStep].Update(msg)
		m.validationErr = ""
	}
	return m, cmd
}

// advance validates the current field and moves on
func (m StartModel) advance() StartModel {
	value := strings.TrimSpace(m.inputs[m.currentStep].Value())
	switch {
	case value == "":
		m.validationErr = "This field is required"
		return m
	case m.currentStep == StepSeeker && value == m.Volunteer():
		m.validationErr = "Volunteer and seeker must be different users"
		return m
	}
	return m.goTo(m.currentStep + 1)
}

func (m StartModel) goTo(step Step) StartModel {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.currentStep = step
	m.validationErr = ""
	if step < StepConfirm {
		m.inputs[step].Focus()
	}
	return m
}

// View renders the wizard
func (m StartModel) View() string {
	if m.completed || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Render("🎧 Start a Listening Session"))
	b.WriteString("\n\n")

	labels := []string{"Volunteer", "Seeker", "Start"}
	for i, label := range labels {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
		marker := "  "
		switch {
		case Step(i) == m.currentStep:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
			marker = "▶ "
		case Step(i) < m.currentStep:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
			marker = "✓ "
		}
		b.WriteString(style.Render(marker + label))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.currentStep {
	case StepVolunteer:
		b.WriteString("🙋 Volunteer\n")
		b.WriteString(m.inputs[0].View())
	case StepSeeker:
		b.WriteString("🫂 Seeker\n")
		b.WriteString(m.inputs[1].View())
	case StepConfirm:
		b.WriteString(m.renderConfirm())
	}

	if m.validationErr != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("⚠ " + m.validationErr))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).
		Render("enter next · shift+tab back · esc cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 2).
		Render(b.String())

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m StartModel) renderConfirm() string {
	summary := fmt.Sprintf("%s listens to %s\nStandard rate for the first 5 minutes", m.Volunteer(), m.Seeker())

	yes := lipgloss.NewStyle().Padding(0, 2)
	no := lipgloss.NewStyle().Padding(0, 2)
	if m.confirmChoice {
		yes = yes.Background(lipgloss.Color(ColorAccentBright)).Foreground(lipgloss.Color("#000000")).Bold(true)
	} else {
		no = no.Background(lipgloss.Color(ColorError)).Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	}

	return summary + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Center, yes.Render("Start"), "   ", no.Render("Cancel"))
}

// RunStartTUI runs the wizard and returns the chosen participants
func RunStartTUI(volunteer, seeker string) (string, string, bool, error) {
	p := tea.NewProgram(NewStartModel(volunteer, seeker), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return "", "", false, err
	}
	m := finalModel.(StartModel)
	if !m.Completed() {
		fmt.Println("❌ Session start cancelled.")
		return "", "", false, nil
	}
	return m.Volunteer(), m.Seeker(), true, nil
}
