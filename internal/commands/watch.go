package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/timer"
	"github.com/balkashynov/listeningroom/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch <session-id>",
	Short: "Show live rewards for a session",
	Long: `Poll a session's reward snapshot every second and prompt for a decision
when the standard period is over. Leaving the view keeps the session running.

Examples:
  listeningroom watch 3f7c...        # interactive timer
  listeningroom watch 3f7c... --plain # line output, answer prompts on stdin`,
	Args: cobra.ExactArgs(1),
	RunE: withConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		c, err := newClient(cfg)
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		if !plain {
			return tui.RunTimerTUI(c, args[0], cfg.PollInterval, cfg.PollTimeout, shimmerConfig(cfg))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		runner := &timer.Runner{
			Source:    c,
			Renderer:  &lineRenderer{out: out},
			Prompter:  newLinePrompter(cmd.InOrStdin(), out),
			SessionID: args[0],
			Interval:  cfg.PollInterval,
			Timeout:   cfg.PollTimeout,
		}
		m, err := runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("session %s: %w", args[0], err)
		}

		snap, _ := m.Snapshot()
		if m.Phase() == timer.PhaseEnded {
			fmt.Fprintf(out, "⏹️  Session ended: %s listened · %d points · $%.2f\n",
				formatDuration(snap.Elapsed()), snap.CurrentPoints, snap.CurrentAmount)
		} else {
			fmt.Fprintf(out, "💡 Left session %s; it is still running.\n", args[0])
		}
		return nil
	}),
}

func init() {
	watchCmd.Flags().Bool("plain", false, "Line-oriented output instead of the interactive timer")
}

// lineRenderer prints one line per change in the displayed figures
type lineRenderer struct {
	out  io.Writer
	last string
}

func (r *lineRenderer) Render(m *timer.Machine) {
	snap, ok := m.Snapshot()
	var line string
	switch {
	case m.Phase() == timer.PhaseFailed:
		line = fmt.Sprintf("❌ %v", m.Err())
	case !ok:
		if m.Err() == nil {
			return
		}
		line = fmt.Sprintf("⚠️  %v (retrying)", m.Err())
	case m.Phase() == timer.PhaseSubmitting:
		line = fmt.Sprintf("⏳ sending %s...", m.Pending())
	default:
		line = fmt.Sprintf("⏱️  %s  %-8s  %d pts  $%.2f", formatClock(snap.Elapsed()), snap.BillingMode, snap.CurrentPoints, snap.CurrentAmount)
		if err := m.Err(); err != nil {
			line += fmt.Sprintf("  (⚠️  %v)", err)
		}
	}
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintln(r.out, line)
}

// linePrompter asks for a decision on stdin. One goroutine owns the reader
// so an abandoned prompt never loses the next answer.
type linePrompter struct {
	out   io.Writer
	in    io.Reader
	once  sync.Once
	lines chan string
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: in, out: out, lines: make(chan string)}
}

func (p *linePrompter) read() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
	close(p.lines)
}

func (p *linePrompter) Prompt(ctx context.Context, snap models.Snapshot) (timer.Decision, error) {
	p.once.Do(func() { go p.read() })

	fmt.Fprintf(p.out, "🔔 Standard period over at %d points. Continue at premium? [c]ontinue / [e]nd: ", snap.CurrentPoints)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return "", io.EOF
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "c", "continue", "y", "yes":
				return timer.DecisionContinue, nil
			case "e", "end", "n", "no":
				return timer.DecisionEnd, nil
			}
			fmt.Fprint(p.out, "Please answer c or e: ")
		}
	}
}

// formatClock renders mm:ss or hh:mm:ss
func formatClock(d time.Duration) string {
	total := int(d.Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
