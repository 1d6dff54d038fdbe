package timer

import (
	"context"
	"time"

	"github.com/balkashynov/listeningroom/internal/models"
)

// Source is where snapshots and decisions go; *client.Client satisfies it
type Source interface {
	Snapshot(ctx context.Context, sessionID string) (models.Snapshot, error)
	Continue(ctx context.Context, sessionID string) (models.Snapshot, error)
	End(ctx context.Context, sessionID string) (models.Snapshot, error)
}

// Renderer shows the machine's state after every event
type Renderer interface {
	Render(m *Machine)
}

// Prompter asks the participant whether to continue. It must return
// promptly with ctx.Err() once ctx is cancelled.
type Prompter interface {
	Prompt(ctx context.Context, snap models.Snapshot) (Decision, error)
}

// Runner drives a Machine without a terminal UI
type Runner struct {
	Source    Source
	Renderer  Renderer
	Prompter  Prompter
	SessionID string
	Interval  time.Duration
	Timeout   time.Duration

	machine     *Machine
	task        *Task
	decisions   chan Decision
	closePrompt context.CancelFunc
}

// Run polls until the session ends, a fatal error occurs or ctx is cancelled.
// Cancelling ctx only leaves the view; the session keeps running on the server.
func (r *Runner) Run(ctx context.Context) (*Machine, error) {
	if r.Interval <= 0 {
		r.Interval = time.Second
	}
	if r.Timeout <= 0 || r.Timeout > r.Interval {
		r.Timeout = r.Interval
	}

	r.machine = NewMachine()
	r.decisions = make(chan Decision, 1)
	r.task = NewTask(r.Interval, r.step)
	r.task.Start(ctx)

	select {
	case <-r.task.Done():
	case <-ctx.Done():
		r.task.Stop()
	}
	r.hidePrompt()

	if r.machine.Phase() == PhaseFailed {
		return r.machine, r.machine.Err()
	}
	return r.machine, nil
}

// step is one tick: a pending decision goes first, otherwise a poll
func (r *Runner) step(ctx context.Context) bool {
	select {
	case d := <-r.decisions:
		r.decide(ctx, d)
	default:
		r.poll(ctx)
	}
	return !r.machine.Done()
}

func (r *Runner) poll(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	snap, err := r.Source.Snapshot(pctx, r.SessionID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.apply(ctx, r.machine.FetchFailed(err))
		return
	}
	r.apply(ctx, r.machine.Observe(snap))
}

func (r *Runner) decide(ctx context.Context, d Decision) {
	if !r.machine.BeginDecision(d) {
		return
	}
	r.render()

	var snap models.Snapshot
	var err error
	if d == DecisionContinue {
		snap, err = r.Source.Continue(ctx, r.SessionID)
	} else {
		snap, err = r.Source.End(ctx, r.SessionID)
	}
	if ctx.Err() != nil {
		return
	}
	r.apply(ctx, r.machine.DecisionSettled(d, snap, err))
}

func (r *Runner) apply(ctx context.Context, effect Effect) {
	r.render()
	switch effect {
	case EffectShowPrompt:
		r.showPrompt(ctx)
	case EffectHidePrompt, EffectStop:
		r.hidePrompt()
	case EffectRefresh:
		r.hidePrompt()
		r.poll(ctx)
	}
}

func (r *Runner) render() {
	if r.Renderer != nil {
		r.Renderer.Render(r.machine)
	}
}

func (r *Runner) showPrompt(ctx context.Context) {
	if r.Prompter == nil {
		return
	}
	r.hidePrompt()
	snap, _ := r.machine.Snapshot()
	pctx, cancel := context.WithCancel(ctx)
	r.closePrompt = cancel

	go func() {
		d, err := r.Prompter.Prompt(pctx, snap)
		if err != nil {
			return
		}
		select {
		case r.decisions <- d:
			r.task.Trigger()
		case <-pctx.Done():
		}
	}()
}

func (r *Runner) hidePrompt() {
	if r.closePrompt != nil {
		r.closePrompt()
		r.closePrompt = nil
	}
}
