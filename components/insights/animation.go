package insights

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultAnimationDuration matches the counter count-up length.
	DefaultAnimationDuration = 1500 * time.Millisecond
	// DefaultFrameInterval approximates a 60Hz display refresh.
	DefaultFrameInterval = 16 * time.Millisecond
)

// EaseOutQuart front-loads motion: 1-(1-p)^4 with p clamped to [0,1].
func EaseOutQuart(p float64) float64 {
	p = clamp01(p)
	return 1 - math.Pow(1-p, 4)
}

// Interpolate returns the eased value between from and to at progress p.
func Interpolate(from, to, p float64) float64 {
	return from + (to-from)*EaseOutQuart(p)
}

// Formatter renders an intermediate numeric value for display.
type Formatter func(float64) string

// Tween describes one count-up animation.
type Tween struct {
	Target   string
	From     float64
	To       float64
	Duration time.Duration
	Format   Formatter
}

// Frame is one emitted animation step.
type Frame struct {
	Target   string  `json:"target"`
	Text     string  `json:"text"`
	Value    float64 `json:"value"`
	Progress float64 `json:"progress"`
	Done     bool    `json:"done"`
}

// FrameScheduler supplies frame timestamps. Start returns a channel of frame
// times and a stop func that releases it.
type FrameScheduler interface {
	Now() time.Time
	Start() (<-chan time.Time, func())
}

// TickerScheduler drives frames from a time.Ticker.
type TickerScheduler struct {
	Interval time.Duration
}

// NewTickerScheduler falls back to DefaultFrameInterval for non-positive intervals.
func NewTickerScheduler(interval time.Duration) TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return TickerScheduler{Interval: interval}
}

// Now implements FrameScheduler.
func (TickerScheduler) Now() time.Time { return time.Now() }

// Start implements FrameScheduler.
func (s TickerScheduler) Start() (<-chan time.Time, func()) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}

// Animate runs a tween, calling sink once per frame. The last frame always
// carries Format(To) exactly. It returns ctx.Err() if cancelled first; a closed
// frame channel finishes the tween immediately.
func Animate(ctx context.Context, scheduler FrameScheduler, tween Tween, sink func(Frame)) error {
	format := tween.Format
	if format == nil {
		format = FormatCount
	}
	final := Frame{Target: tween.Target, Text: format(tween.To), Value: tween.To, Progress: 1, Done: true}
	if tween.Duration <= 0 {
		sink(final)
		return nil
	}

	start := scheduler.Now()
	frames, stop := scheduler.Start()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts, ok := <-frames:
			if !ok {
				sink(final)
				return nil
			}
			progress := math.Min(float64(ts.Sub(start))/float64(tween.Duration), 1)
			if progress >= 1 {
				sink(final)
				return nil
			}
			value := Interpolate(tween.From, tween.To, progress)
			sink(Frame{
				Target:   tween.Target,
				Text:     format(value),
				Value:    value,
				Progress: clamp01(progress),
			})
		}
	}
}

// CounterTweens returns the three summary card tweens that follow a render.
func CounterTweens(summary SummaryMetrics, duration time.Duration) []Tween {
	return []Tween{
		{Target: "total_revenue", To: summary.TotalRevenue, Duration: duration, Format: FormatCurrency},
		{Target: "active_users", To: float64(summary.ActiveUsers), Duration: duration, Format: FormatCount},
		{Target: "conversion_rate", To: summary.ConversionRate, Duration: duration, Format: FormatPercent},
	}
}

func clamp01(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
