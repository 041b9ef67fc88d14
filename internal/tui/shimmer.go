package tui

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// ShimmerConfig holds configuration for the highlight sweep on the agenda title
type ShimmerConfig struct {
	Enabled        bool
	ReduceMotion   bool    // static highlight instead of a sweep
	SpeedMs        int     // tick interval
	WidthRatio     float64 // highlight width relative to the text
	CycleMs        int     // time for one sweep
	PauseBetweenMs int
}

// DefaultShimmerConfig returns default shimmer configuration
func DefaultShimmerConfig() ShimmerConfig {
	return ShimmerConfig{
		Enabled:        os.Getenv("TEMPO_REDUCE_MOTION") == "",
		SpeedMs:        100,
		WidthRatio:     0.25,
		CycleMs:        1800,
		PauseBetweenMs: 500,
	}
}

// Shimmer is the state of a sweep. It is advanced explicitly with Advance so
// that rendering stays a pure function of the state.
type Shimmer struct {
	Config    ShimmerConfig
	Center    float64
	TrueColor bool

	paused      bool
	pausedSince time.Time
}

type shimmerTickMsg struct{}

// NewShimmer creates a shimmer at the start of its sweep
func NewShimmer(cfg ShimmerConfig) *Shimmer {
	return &Shimmer{Config: cfg, TrueColor: os.Getenv("COLORTERM") == "truecolor"}
}

// Active reports whether the sweep needs ticks
func (s *Shimmer) Active() bool {
	return s.Config.Enabled && !s.Config.ReduceMotion
}

// Interval is the tick interval, 0 when inactive
func (s *Shimmer) Interval() time.Duration {
	if !s.Active() {
		return 0
	}
	return time.Duration(s.Config.SpeedMs) * time.Millisecond
}

// Reset restarts the sweep, e.g. when the displayed text changes
func (s *Shimmer) Reset() {
	s.Center = 0
	s.paused = false
	s.pausedSince = time.Time{}
}

// Advance moves the sweep one tick over a text of textLen glyphs
func (s *Shimmer) Advance(textLen int, now time.Time) {
	if !s.Active() || textLen <= 0 {
		return
	}

	if s.paused {
		if now.Sub(s.pausedSince) >= time.Duration(s.Config.PauseBetweenMs)*time.Millisecond {
			s.paused = false
			s.Center = -float64(textLen) * s.Config.WidthRatio
		}
		return
	}

	ticks := float64(s.Config.CycleMs) / float64(s.Config.SpeedMs)
	distance := float64(textLen) * (1 + 2*s.Config.WidthRatio)
	s.Center += distance / ticks

	if end := float64(textLen) * (1 + s.Config.WidthRatio); s.Center >= end {
		s.Center = end
		s.paused = true
		s.pausedSince = now
	}
}

// Render colors text around the current center
func (s *Shimmer) Render(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	if !s.Active() {
		return fmt.Sprintf("\033[38;2;94;234;212m%s\033[0m", text) // ColorAccentBright
	}

	var b strings.Builder
	if !s.TrueColor {
		width := max(int(s.Config.WidthRatio*float64(len(runes))), 1)
		from := int(s.Center) - width/2
		for i, r := range runes {
			if i >= from && i < from+width {
				fmt.Fprintf(&b, "\033[38;5;122m%c", r)
			} else {
				fmt.Fprintf(&b, "\033[38;5;250m%c", r)
			}
		}
		b.WriteString("\033[0m")
		return b.String()
	}

	// Gaussian blend from the secondary text color to a light highlight
	baseR, baseG, baseB := 169.0, 194.0, 186.0
	hiR, hiG, hiB := 220.0, 255.0, 245.0
	sigma := math.Max(s.Config.WidthRatio*float64(len(runes))/2, 1)
	for i, r := range runes {
		dx := float64(i) - s.Center
		w := math.Exp(-(dx * dx) / (2 * sigma * sigma))
		fmt.Fprintf(&b, "\033[38;2;%d;%d;%dm%c",
			int(baseR*(1-w)+hiR*w), int(baseG*(1-w)+hiG*w), int(baseB*(1-w)+hiB*w), r)
	}
	b.WriteString("\033[0m")
	return b.String()
}
