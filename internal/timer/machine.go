// Package timer is the client side of the reward engine: a state machine
// fed by server snapshots, a scheduled poll task and a headless runner.
// The client never derives time or points itself; it shows what the server says.
package timer

import (
	"errors"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
)

// Phase is where the view is in its lifecycle
type Phase int

const (
	PhasePolling    Phase = iota // showing live figures
	PhasePrompting               // decision prompt open, still polling
	PhaseSubmitting              // decision in flight, still polling
	PhaseEnded                   // session ended, polling stopped
	PhaseFailed                  // fatal error, polling stopped
)

func (p Phase) String() string {
	switch p {
	case PhasePolling:
		return "polling"
	case PhasePrompting:
		return "prompting"
	case PhaseSubmitting:
		return "submitting"
	case PhaseEnded:
		return "ended"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Decision is the participant's answer to the prompt
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionEnd      Decision = "end"
)

// Effect tells the frontend what to do after an event
type Effect int

const (
	EffectNone       Effect = iota
	EffectShowPrompt        // open the decision prompt
	EffectHidePrompt        // close the decision prompt
	EffectRefresh           // fetch a fresh snapshot now
	EffectStop              // stop polling for good
)

// Machine tracks one session view. It is not safe for concurrent use;
// frontends drive it from a single loop.
type Machine struct {
	phase    Phase
	resume   Phase // phase to return to if a submission fails
	last     models.Snapshot
	hasSnap  bool
	prompted bool
	pending  Decision
	err      error
	skipped  int
}

// NewMachine returns a machine in the polling phase
func NewMachine() *Machine {
	return &Machine{phase: PhasePolling}
}

// Phase returns the current phase
func (m *Machine) Phase() Phase { return m.phase }

// Snapshot returns the last server snapshot, if any
func (m *Machine) Snapshot() (models.Snapshot, bool) { return m.last, m.hasSnap }

// Err returns the last error seen: fatal in PhaseFailed, otherwise the latest transient one
func (m *Machine) Err() error { return m.err }

// Skipped returns the number of consecutive failed polls
func (m *Machine) Skipped() int { return m.skipped }

// Pending returns the decision in flight
func (m *Machine) Pending() Decision { return m.pending }

// Done reports whether polling has stopped
func (m *Machine) Done() bool {
	return m.phase == PhaseEnded || m.phase == PhaseFailed
}

// PromptOpen reports whether the decision prompt should be visible
func (m *Machine) PromptOpen() bool {
	return m.phase == PhasePrompting || (m.phase == PhaseSubmitting && m.resume == PhasePrompting)
}

// Observe records a fresh snapshot from the server
func (m *Machine) Observe(snap models.Snapshot) Effect {
	if m.Done() {
		return EffectNone
	}

	m.last = snap
	m.hasSnap = true
	m.skipped = 0
	m.err = nil

	if snap.Status == models.StatusEnded {
		m.phase = PhaseEnded
		return EffectStop
	}

	switch {
	case m.phase == PhasePolling && snap.ShouldAutoTerminate && !m.prompted:
		// Only once per standard period
		m.prompted = true
		m.phase = PhasePrompting
		return EffectShowPrompt
	case m.phase == PhasePrompting && !snap.ShouldAutoTerminate:
		// The other participant already decided
		m.phase = PhasePolling
		return EffectHidePrompt
	case m.phase == PhaseSubmitting && !snap.ShouldAutoTerminate:
		m.resume = PhasePolling
	}
	return EffectNone
}

// FetchFailed records a failed poll. Fatal kinds stop polling; anything
// else is a skipped tick.
func (m *Machine) FetchFailed(err error) Effect {
	if m.Done() {
		return EffectNone
	}
	if apperr.IsFatal(err) {
		m.phase = PhaseFailed
		m.err = err
		return EffectStop
	}
	m.skipped++
	m.err = err
	return EffectNone
}

// BeginDecision reserves the submission slot. It returns false when the
// decision is not allowed now, including while another one is in flight.
func (m *Machine) BeginDecision(d Decision) bool {
	switch {
	case m.phase == PhaseSubmitting || m.Done():
		return false
	case d == DecisionContinue && m.phase != PhasePrompting:
		return false
	case d != DecisionContinue && d != DecisionEnd:
		return false
	}
	m.resume = m.phase
	m.phase = PhaseSubmitting
	m.pending = d
	return true
}

// DecisionSettled records the server's answer to the decision in flight
func (m *Machine) DecisionSettled(d Decision, snap models.Snapshot, err error) Effect {
	if m.phase != PhaseSubmitting || d != m.pending {
		return EffectNone
	}
	m.pending = ""

	if err == nil {
		m.last = snap
		m.hasSnap = true
		m.err = nil
		if d == DecisionEnd || snap.Status == models.StatusEnded {
			m.phase = PhaseEnded
			return EffectStop
		}
		m.phase = PhasePolling
		return EffectHidePrompt
	}

	m.err = err
	switch {
	case apperr.IsFatal(err):
		m.phase = PhaseFailed
		return EffectStop
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrInvalidState):
		// Someone else decided; show what the server has now
		m.phase = PhasePolling
		m.prompted = false
		return EffectRefresh
	default:
		m.phase = m.resume
		if m.phase == PhasePrompting {
			return EffectShowPrompt
		}
		return EffectNone
	}
}
