package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, hook EventHook) (*Service, *recordingTelemetry) {
	t.Helper()
	telemetry := &recordingTelemetry{}
	clock := ClockFunc(func() time.Time { return testNow })
	service := NewService(Options{
		Source:    StaticSource{Data: fixtureData(), Clock: clock},
		Clock:     clock,
		Hook:      hook,
		Telemetry: telemetry,
		Sleep:     func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
	return service, telemetry
}

func drainToasts(events <-chan Event) []string {
	var out []string
	for {
		select {
		case e := <-events:
			if e.Kind == EventToast && e.Toast != nil {
				out = append(out, e.Toast.Message)
			}
		default:
			return out
		}
	}
}

func TestServiceSnapshotInitializesSession(t *testing.T) {
	service, telemetry := newTestService(t, nil)
	state, err := service.Snapshot(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 7, state.Pagination.TotalItems)
	assert.True(t, telemetry.has("insights.session.init"))

	_, err = service.Snapshot(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestServiceApplyFiltersToast(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	defer cancel()
	service, _ := newTestService(t, hook)
	ctx := context.Background()

	_, err := service.SelectDateRange(ctx, "s1", RangeMonth)
	require.NoError(t, err)
	_, err = service.ToggleCategory(ctx, "s1", "marketing", false)
	require.NoError(t, err)
	state, err := service.ApplyFilters(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, RangeMonth, state.Filters.DateRange)
	assert.Equal(t, []string{"sales", "operations", "support"}, state.Filters.Categories)
	assert.Equal(t, 170240.0, state.Data.Summary.TotalRevenue)
	assert.Equal(t, testNow, state.UI.LastUpdated)
	assert.Equal(t, []string{"Filters applied: Last 30 Days, 3 categories"}, drainToasts(events))
}

func TestServiceSubmitFiltersAndPreset(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	defer cancel()
	service, _ := newTestService(t, hook)
	ctx := context.Background()

	state, err := service.SubmitFilters(ctx, "s1", FilterSelection{DateRange: RangeToday, Categories: []string{"support"}})
	require.NoError(t, err)
	assert.Equal(t, 3, state.Pagination.TotalItems)
	assert.Equal(t, 6384.0, state.Data.Summary.TotalRevenue)

	state, err = service.ApplyPreset(ctx, "s1", "sales-month")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, state.Filters.Categories)
	assert.Equal(t, 2, state.Pagination.TotalItems)

	_, err = service.ApplyPreset(ctx, "s1", "missing")
	assert.ErrorIs(t, err, ErrUnknownPreset)

	toasts := drainToasts(events)
	require.Len(t, toasts, 2)
	assert.Equal(t, "Filters applied: Today, 1 categories", toasts[0])
	assert.Equal(t, "Filters applied: Last 30 Days, 1 categories", toasts[1])
}

func TestServiceSubmitFiltersCategoryTokens(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	state, err := service.SubmitFilters(ctx, "s1", FilterSelection{DateRange: RangeToday, Categories: []string{"Support"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"support"}, state.Filters.Categories)
	assert.Equal(t, 3, state.Pagination.TotalItems)

	for _, token := range []string{"salez", "port"} {
		_, err = service.SubmitFilters(ctx, "s1", FilterSelection{DateRange: RangeWeek, Categories: []string{token}})
		assert.ErrorIs(t, err, ErrInvalidFilters, token)
	}
	state, err = service.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"support"}, state.Filters.Categories, "rejected filters leave the applied selection alone")
}

func TestServiceResetFilters(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	defer cancel()
	service, _ := newTestService(t, hook)
	ctx := context.Background()

	_, err := service.SubmitFilters(ctx, "s1", FilterSelection{DateRange: RangeYear, Categories: []string{"sales"}})
	require.NoError(t, err)
	drainToasts(events)

	state, err := service.ResetFilters(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, RangeWeek, state.Filters.DateRange)
	assert.True(t, state.Filters.IncludesAll())
	assert.Equal(t, 7, state.Pagination.TotalItems)
	assert.Equal(t, []string{"Filters reset to default"}, drainToasts(events))
}

func TestServiceRefresh(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	defer cancel()
	service, telemetry := newTestService(t, hook)
	ctx := context.Background()

	_, err := service.SubmitFilters(ctx, "s1", FilterSelection{DateRange: RangeMonth, Categories: []string{"support"}})
	require.NoError(t, err)
	drainToasts(events)

	state, err := service.Refresh(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.UI.Loading)
	assert.Equal(t, []string{"support"}, state.Filters.Categories)
	assert.Equal(t, 3, state.Pagination.TotalItems)
	assert.Equal(t, []string{"Data refreshed successfully"}, drainToasts(events))
	assert.True(t, telemetry.has("insights.complete_refresh"))
}

func TestServiceRefreshRejectsConcurrentRefresh(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	clock := ClockFunc(func() time.Time { return testNow })
	service := NewService(Options{
		Source: StaticSource{Data: fixtureData(), Clock: clock},
		Clock:  clock,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			close(started)
			<-release
			return nil
		},
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := service.Refresh(ctx, "s1")
		done <- err
	}()
	<-started

	snapshot, err := service.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, snapshot.UI.Loading)

	_, err = service.Refresh(ctx, "s1")
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	_, err = service.NextPage(ctx, "s1")
	assert.NoError(t, err, "other actions proceed during a refresh")

	close(release)
	require.NoError(t, <-done)
	snapshot, err = service.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, snapshot.UI.Loading)
}

func TestServiceRefreshCancelledClearsLoading(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := service.Snapshot(ctx, "s1")
	require.NoError(t, err)
	cancel()

	_, err = service.Refresh(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)

	state, err := service.Snapshot(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, state.UI.Loading)
}

func TestServicePaging(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	state, err := service.NextPage(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Pagination.CurrentPage)
	state, err = service.NextPage(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Pagination.CurrentPage)
	state, err = service.PrevPage(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Pagination.CurrentPage)
}

func TestServiceShortcuts(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	defer cancel()
	service, _ := newTestService(t, hook)
	ctx := context.Background()

	result, err := service.HandleShortcut(ctx, "s1", Shortcut{Key: "f", Ctrl: true})
	require.NoError(t, err)
	assert.Equal(t, ShortcutFocusRange, result.Action)
	assert.Equal(t, FocusDateRangeTarget, result.Focus)

	var focused bool
	for len(events) > 0 {
		if e := <-events; e.Kind == EventFocus && e.Target == FocusDateRangeTarget {
			focused = true
		}
	}
	assert.True(t, focused)

	result, err = service.HandleShortcut(ctx, "s1", Shortcut{Key: "r", Meta: true})
	require.NoError(t, err)
	require.NotNil(t, result.State)
	assert.False(t, result.State.UI.Loading)

	_, err = service.HandleShortcut(ctx, "s1", Shortcut{Key: "x", Ctrl: true})
	assert.ErrorIs(t, err, ErrUnknownShortcut)
}

type stepScheduler struct {
	start time.Time
	steps int
	step  time.Duration
}

func (s stepScheduler) Now() time.Time { return s.start }

func (s stepScheduler) Start() (<-chan time.Time, func()) {
	ch := make(chan time.Time, s.steps)
	for i := 1; i <= s.steps; i++ {
		ch <- s.start.Add(time.Duration(i) * s.step)
	}
	close(ch)
	return ch, func() {}
}

func TestServiceAnimateCounters(t *testing.T) {
	service, _ := newTestService(t, nil)
	var mu sync.Mutex
	final := map[string]string{}
	err := service.AnimateCounters(context.Background(), "s1", stepScheduler{start: testNow, steps: 200, step: 16 * time.Millisecond}, func(f Frame) {
		mu.Lock()
		defer mu.Unlock()
		if f.Done {
			final[f.Target] = f.Text
		}
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"total_revenue":   "$42,560",
		"active_users":    "1,247",
		"conversion_rate": "3.4%",
	}, final)
}

func TestServiceBroadcastCounters(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	defer cancel()
	service, _ := newTestService(t, hook)

	err := service.BroadcastCounters(context.Background(), "s1", stepScheduler{start: testNow, steps: 3, step: time.Second})
	require.NoError(t, err)

	done := 0
	for len(events) > 0 {
		e := <-events
		if e.Kind == EventFrame && e.Frame != nil && e.Frame.Done {
			done++
		}
	}
	assert.Equal(t, 3, done)
}

type failingSource struct{}

func (failingSource) Generate(context.Context) (DataSet, error) {
	return DataSet{}, errors.New("boom")
}

func TestServiceWrapsSourceErrors(t *testing.T) {
	service := NewService(Options{Source: failingSource{}})
	_, err := service.Snapshot(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "generate data"))
}

func TestServiceClose(t *testing.T) {
	store := NewInMemoryStateStore()
	clock := ClockFunc(func() time.Time { return testNow })
	service := NewService(Options{Store: store, Source: StaticSource{Data: fixtureData(), Clock: clock}})
	_, err := service.NextPage(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	require.NoError(t, service.Close(context.Background(), "s1"))
	assert.Equal(t, 0, store.Len())

	state, err := service.Snapshot(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Pagination.CurrentPage)
}

func TestServiceCloseDuringRefresh(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	store := NewInMemoryStateStore()
	clock := ClockFunc(func() time.Time { return testNow })
	service := NewService(Options{
		Store:  store,
		Source: StaticSource{Data: fixtureData(), Clock: clock},
		Clock:  clock,
		Sleep: func(context.Context, time.Duration) error {
			close(started)
			<-release
			return nil
		},
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := service.Refresh(ctx, "s1")
		done <- err
	}()
	<-started

	require.NoError(t, service.Close(ctx, "s1"))
	close(release)
	assert.ErrorIs(t, <-done, ErrSessionClosed)
	assert.Equal(t, 0, store.Len(), "a refresh finishing after Close must not recreate the session")

	state, err := service.NextPage(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.UI.Loading)
	assert.Equal(t, 2, state.Pagination.CurrentPage)
}

func TestServiceCloseWaitsForSessionLock(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := service.Snapshot(ctx, "s1")
	require.NoError(t, err)

	unlock, err := service.lock("s1")
	require.NoError(t, err)
	closed := make(chan error, 1)
	go func() { closed <- service.Close(ctx, "s1") }()

	select {
	case <-closed:
		t.Fatal("Close returned while the session lock was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	require.NoError(t, <-closed)

	_, ok := service.locks.Load("s1")
	assert.False(t, ok)
}

func TestServiceDefaultPresets(t *testing.T) {
	service := NewService(Options{})
	names := make([]string, 0)
	for _, p := range service.Presets().List() {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "sales-month")
	assert.NotNil(t, service.Validator())
}
