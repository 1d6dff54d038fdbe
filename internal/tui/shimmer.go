package tui

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// ShimmerConfig holds configuration for shimmer effects
type ShimmerConfig struct {
	Enabled      bool
	ReduceMotion bool    // static highlight instead of animation
	SpeedMs      int     // tick interval
	WidthRatio   float64 // highlight width relative to text length
	CycleTicks   int     // ticks for one sweep across the text
	PauseTicks   int     // ticks to hold between sweeps
}

// DefaultShimmerConfig returns default shimmer configuration
func DefaultShimmerConfig() ShimmerConfig {
	return ShimmerConfig{
		Enabled:    true,
		SpeedMs:    100,
		WidthRatio: 0.25,
		CycleTicks: 18,
		PauseTicks: 5,
	}
}

// Shimmer sweeps a highlight across a line of text, one step per tick
type Shimmer struct {
	config    ShimmerConfig
	trueColor bool
	tick      int
}

// NewShimmer creates a shimmer using the given config
func NewShimmer(config ShimmerConfig) *Shimmer {
	return &Shimmer{
		config:    config,
		trueColor: os.Getenv("COLORTERM") == "truecolor",
	}
}

// Active reports whether the shimmer needs ticks
func (s *Shimmer) Active() bool {
	return s.config.Enabled && !s.config.ReduceMotion
}

// Interval returns the tick interval for tea.Tick
func (s *Shimmer) Interval() time.Duration {
	return time.Duration(s.config.SpeedMs) * time.Millisecond
}

// Advance moves the highlight one step
func (s *Shimmer) Advance() {
	s.tick = (s.tick + 1) % (s.config.CycleTicks + s.config.PauseTicks)
}

// Reset moves the highlight back to the start
func (s *Shimmer) Reset() {
	s.tick = 0
}

// center is the highlight position for a text of n glyphs; false while paused
func (s *Shimmer) center(n int) (float64, bool) {
	if s.tick >= s.config.CycleTicks {
		return 0, false
	}
	margin := float64(n) * s.config.WidthRatio
	distance := float64(n) + 2*margin
	return -margin + distance*float64(s.tick)/float64(s.config.CycleTicks), true
}

// Render returns text with the highlight applied, truncated to maxWidth
func (s *Shimmer) Render(text string, maxWidth int) string {
	runes := []rune(text)
	if maxWidth > 3 && len(runes) > maxWidth {
		runes = append(runes[:maxWidth-3], []rune("...")...)
	}
	if len(runes) == 0 {
		return ""
	}

	if !s.Active() {
		return fmt.Sprintf("\033[38;2;167;139;250m%s\033[0m", string(runes))
	}

	center, sweeping := s.center(len(runes))
	sigma := math.Max(1, s.config.WidthRatio*float64(len(runes))/2)

	var b strings.Builder
	for i, r := range runes {
		weight := 0.0
		if sweeping {
			dx := float64(i) - center
			weight = math.Exp(-(dx * dx) / (2 * sigma * sigma))
		}

		if s.trueColor {
			// Blend #B1B8C7 toward #EAE6FF
			red := int(177 + (234-177)*weight)
			green := int(184 + (230-184)*weight)
			blue := int(199 + (255-199)*weight)
			fmt.Fprintf(&b, "\033[38;2;%d;%d;%dm%c", red, green, blue, r)
			continue
		}
		if weight > 0.5 {
			fmt.Fprintf(&b, "\033[38;5;147m%c", r)
		} else {
			fmt.Fprintf(&b, "\033[38;5;250m%c", r)
		}
	}
	b.WriteString("\033[0m")
	return b.String()
}
