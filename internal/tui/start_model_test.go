package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m StartModel, text string) StartModel {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(StartModel)
	}
	return m
}

func press(m StartModel, k tea.KeyType) StartModel {
	next, _ := m.Update(tea.KeyMsg{Type: k})
	return next.(StartModel)
}

func TestStartModelCollectsParticipants(t *testing.T) {
	m := NewStartModel("", "")

	m = press(m, tea.KeyEnter)
	if m.validationErr == "" || m.currentStep != StepVolunteer {
		t.Fatal("empty volunteer must be rejected")
	}

	m = typeText(m, "vol-1")
	m = press(m, tea.KeyEnter)
	m = typeText(m, "vol-1")
	m = press(m, tea.KeyEnter)
	if m.currentStep != StepSeeker || m.validationErr == "" {
		t.Fatal("seeker equal to volunteer must be rejected")
	}

	m = press(m, tea.KeyBackspace)
	m = typeText(m, "2")
	m = press(m, tea.KeyEnter)
	if m.currentStep != StepConfirm {
		t.Fatalf("expected confirm step, got %v", m.currentStep)
	}

	m = press(m, tea.KeyEnter)
	if !m.Completed() || m.Volunteer() != "vol-1" || m.Seeker() != "vol-2" {
		t.Errorf("unexpected result %q/%q completed=%v", m.Volunteer(), m.Seeker(), m.Completed())
	}
}

func TestStartModelPrefilledAndCancel(t *testing.T) {
	m := NewStartModel("vol-1", "")
	if m.currentStep != StepSeeker {
		t.Fatalf("prefilled volunteer should skip to seeker, got %v", m.currentStep)
	}

	m = press(m, tea.KeyEsc)
	if m.Completed() || !m.cancelled {
		t.Error("esc should cancel")
	}
}
