package insights

import (
	"context"
	"errors"
	"testing"
	"time"
)

// manualScheduler replays fixed timestamps relative to start.
type manualScheduler struct {
	start   time.Time
	offsets []time.Duration
	stopped bool
}

func (m *manualScheduler) Now() time.Time { return m.start }

func (m *manualScheduler) Start() (<-chan time.Time, func()) {
	ch := make(chan time.Time, len(m.offsets))
	for _, off := range m.offsets {
		ch <- m.start.Add(off)
	}
	close(ch)
	return ch, func() { m.stopped = true }
}

func TestEaseOutQuart(t *testing.T) {
	if EaseOutQuart(0) != 0 || EaseOutQuart(1) != 1 {
		t.Fatalf("ease endpoints must be 0 and 1")
	}
	if EaseOutQuart(-1) != 0 || EaseOutQuart(2) != 1 {
		t.Fatalf("ease must clamp progress")
	}
	if got := EaseOutQuart(0.5); got != 0.9375 {
		t.Fatalf("EaseOutQuart(0.5) = %v", got)
	}
}

func TestAnimateEndsOnExactTarget(t *testing.T) {
	sched := &manualScheduler{
		start:   time.Unix(0, 0),
		offsets: []time.Duration{100 * time.Millisecond, 700 * time.Millisecond, 1400 * time.Millisecond, 1600 * time.Millisecond},
	}
	var frames []Frame
	err := Animate(context.Background(), sched, Tween{Target: "n", To: 100, Duration: 1500 * time.Millisecond, Format: FormatCount}, func(f Frame) {
		frames = append(frames, f)
	})
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	last := frames[len(frames)-1]
	if !last.Done || last.Text != "100" || last.Value != 100 {
		t.Fatalf("unexpected final frame %+v", last)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Value < frames[i-1].Value {
			t.Fatalf("frames should be monotonic: %v then %v", frames[i-1].Value, frames[i].Value)
		}
	}
	if frames[0].Done {
		t.Fatalf("intermediate frame marked done")
	}
	if !sched.stopped {
		t.Fatalf("scheduler should be stopped")
	}
}

func TestAnimateFinishesWhenFramesRunOut(t *testing.T) {
	sched := &manualScheduler{start: time.Unix(0, 0), offsets: []time.Duration{10 * time.Millisecond}}
	var last Frame
	err := Animate(context.Background(), sched, Tween{Target: "rate", To: 3.4, Duration: time.Second, Format: FormatPercent}, func(f Frame) {
		last = f
	})
	if err != nil {
		t.Fatalf("Animate returned %v", err)
	}
	if last.Text != "3.4%" || !last.Done {
		t.Fatalf("expected exact final frame, got %+v", last)
	}
}

func TestAnimateZeroDuration(t *testing.T) {
	var frames []Frame
	_ = Animate(context.Background(), &manualScheduler{}, Tween{Target: "rev", To: 42560, Format: FormatCurrency}, func(f Frame) {
		frames = append(frames, f)
	})
	if len(frames) != 1 || frames[0].Text != "$42,560" {
		t.Fatalf("expected single final frame, got %+v", frames)
	}
}

type blockedScheduler struct{}

func (blockedScheduler) Now() time.Time { return time.Now() }

func (blockedScheduler) Start() (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

func TestAnimateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Animate(ctx, blockedScheduler{}, Tween{To: 1, Duration: time.Second}, func(Frame) {})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCounterTweens(t *testing.T) {
	tweens := CounterTweens(SummaryMetrics{TotalRevenue: 42560, ActiveUsers: 1247, ConversionRate: 3.4}, time.Second)
	if len(tweens) != 3 {
		t.Fatalf("expected 3 tweens")
	}
	want := []string{"$42,560", "1,247", "3.4%"}
	for i, tw := range tweens {
		if got := tw.Format(tw.To); got != want[i] {
			t.Fatalf("tween %s formats %q, want %q", tw.Target, got, want[i])
		}
		if tw.From != 0 {
			t.Fatalf("tweens start at zero")
		}
	}
}
