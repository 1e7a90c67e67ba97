package insights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRefreshDelay simulates the latency of a data fetch.
const DefaultRefreshDelay = 800 * time.Millisecond

// Options configures the dashboard Service. Every collaborator is an interface
// or a value with a usable zero so callers can swap implementations.
type Options struct {
	Source            Source
	Store             StateStore
	Clock             Clock
	Hook              EventHook
	Telemetry         Telemetry
	Logger            *zap.Logger
	Presets           *PresetCatalog
	Validator         *FilterValidator
	RefreshDelay      time.Duration
	AnimationDuration time.Duration
	Toasts            ToastTiming
	// Sleep waits for the refresh delay. Tests replace it to avoid real time.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Service owns per-session dashboard state and applies every transition
// through Reduce.
type Service struct {
	opts  Options
	locks sync.Map
}

// sessionLock serializes one session. A closed lock has been dropped from the
// map and must not be used again.
type sessionLock struct {
	mu     sync.Mutex
	closed bool
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Source == nil {
		opts.Source = NewMockGenerator(GeneratorOptions{Clock: opts.Clock, Logger: opts.Logger})
	}
	if opts.Store == nil {
		opts.Store = NewInMemoryStateStore()
	}
	if opts.Hook == nil {
		opts.Hook = noopEventHook{}
	}
	if opts.Validator == nil {
		opts.Validator = NewFilterValidator()
	}
	if opts.Presets == nil {
		catalog, err := DefaultPresetCatalog()
		if err != nil {
			opts.Logger.Warn("builtin presets unavailable", zap.Error(err))
			catalog = NewPresetCatalog()
		}
		opts.Presets = catalog
	}
	if opts.RefreshDelay < 0 {
		opts.RefreshDelay = 0
	}
	if opts.AnimationDuration <= 0 {
		opts.AnimationDuration = DefaultAnimationDuration
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	opts.Toasts = opts.Toasts.normalized()
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts}
}

// Validator exposes the filter payload validator used by transports.
func (s *Service) Validator() *FilterValidator { return s.opts.Validator }

// Presets exposes the preset catalog.
func (s *Service) Presets() *PresetCatalog { return s.opts.Presets }

// Clock exposes the service clock.
func (s *Service) Clock() Clock { return s.opts.Clock }

// Snapshot returns the session state, initializing it with fresh data on first use.
func (s *Service) Snapshot(ctx context.Context, session string) (State, error) {
	unlock, err := s.lock(session)
	if err != nil {
		return State{}, err
	}
	defer unlock()
	return s.load(ctx, session)
}

// View projects the session state for display.
func (s *Service) View(ctx context.Context, session string) (View, error) {
	state, err := s.Snapshot(ctx, session)
	if err != nil {
		return View{}, err
	}
	return BuildView(state, s.opts.Clock.Now()), nil
}

// SelectDateRange updates the draft range. Nothing is re-filtered until Apply.
func (s *Service) SelectDateRange(ctx context.Context, session string, r DateRange) (State, error) {
	return s.dispatch(ctx, session, SelectDateRange{Range: r})
}

// ToggleCategory updates one draft checkbox.
func (s *Service) ToggleCategory(ctx context.Context, session, token string, checked bool) (State, error) {
	return s.dispatch(ctx, session, ToggleCategory{Token: token, Checked: checked})
}

// ApplyFilters commits the draft selection.
func (s *Service) ApplyFilters(ctx context.Context, session string) (State, error) {
	unlock, err := s.lock(session)
	if err != nil {
		return State{}, err
	}
	defer unlock()
	return s.applyLocked(ctx, session, nil)
}

// SubmitFilters replaces the draft with selection and applies it in one step.
func (s *Service) SubmitFilters(ctx context.Context, session string, selection FilterSelection) (State, error) {
	tokens, err := ParseCategoryTokens(selection.Categories)
	if err != nil {
		return State{}, err
	}
	selection.Categories = tokens
	unlock, err := s.lock(session)
	if err != nil {
		return State{}, err
	}
	defer unlock()
	return s.applyLocked(ctx, session, &selection)
}

// ApplyPreset submits a named preset.
func (s *Service) ApplyPreset(ctx context.Context, session, name string) (State, error) {
	preset, err := s.opts.Presets.Lookup(name)
	if err != nil {
		return State{}, err
	}
	s.opts.Telemetry.Record(ctx, "insights.preset.apply", map[string]any{"session": session, "preset": name})
	return s.SubmitFilters(ctx, session, preset.Selection())
}

// ResetFilters regenerates data and restores the default selection.
func (s *Service) ResetFilters(ctx context.Context, session string) (State, error) {
	unlock, err := s.lock(session)
	if err != nil {
		return State{}, err
	}
	defer unlock()
	if _, err := s.load(ctx, session); err != nil {
		return State{}, err
	}
	data, err := s.generate(ctx)
	if err != nil {
		return State{}, err
	}
	state, err := s.commit(ctx, session, ResetFilters{Data: data})
	if err != nil {
		return State{}, err
	}
	s.toast(ctx, session, "Filters reset to default")
	return state, nil
}

// Refresh regenerates data after the refresh delay and re-applies the current
// filters. A second call while one is in flight returns ErrRefreshInProgress.
func (s *Service) Refresh(ctx context.Context, session string) (State, error) {
	owner, err := s.beginRefresh(ctx, session)
	if err != nil {
		return State{}, err
	}
	s.publish(ctx, Event{Kind: EventLoading, Session: session, Reason: "refresh"})

	if err := s.opts.Sleep(ctx, s.opts.RefreshDelay); err != nil {
		s.abortRefresh(session, owner)
		return State{}, err
	}
	data, err := s.generate(ctx)
	if err != nil {
		s.abortRefresh(session, owner)
		return State{}, err
	}

	// Resume on the lock the refresh started with so a Close during the
	// delay is seen instead of silently recreating the session.
	owner.mu.Lock()
	defer owner.mu.Unlock()
	if owner.closed {
		return State{}, ErrSessionClosed
	}
	if _, err := s.load(ctx, session); err != nil {
		return State{}, err
	}
	state, err := s.commit(ctx, session, CompleteRefresh{Data: data})
	if err != nil {
		return State{}, err
	}
	s.toast(ctx, session, "Data refreshed successfully")
	return state, nil
}

// NextPage advances the activity table.
func (s *Service) NextPage(ctx context.Context, session string) (State, error) {
	return s.dispatch(ctx, session, NextPage{})
}

// PrevPage moves the activity table back.
func (s *Service) PrevPage(ctx context.Context, session string) (State, error) {
	return s.dispatch(ctx, session, PrevPage{})
}

// ShortcutResult reports what a shortcut did.
type ShortcutResult struct {
	Action ShortcutAction `json:"action"`
	Focus  string         `json:"focus,omitempty"`
	State  *State         `json:"state,omitempty"`
}

// HandleShortcut runs the action bound to a key chord.
func (s *Service) HandleShortcut(ctx context.Context, session string, shortcut Shortcut) (ShortcutResult, error) {
	if session == "" {
		return ShortcutResult{}, ErrSessionRequired
	}
	action, err := ResolveShortcut(shortcut)
	if err != nil {
		return ShortcutResult{}, err
	}
	s.opts.Telemetry.Record(ctx, "insights.shortcut", map[string]any{"session": session, "action": string(action)})
	switch action {
	case ShortcutRefresh:
		state, err := s.Refresh(ctx, session)
		if err != nil {
			return ShortcutResult{Action: action}, err
		}
		return ShortcutResult{Action: action, State: &state}, nil
	default:
		s.publish(ctx, Event{Kind: EventFocus, Session: session, Target: FocusDateRangeTarget})
		return ShortcutResult{Action: action, Focus: FocusDateRangeTarget}, nil
	}
}

// AnimateCounters runs the summary card count-ups concurrently and sends every
// frame to sink. Sink calls are serialized.
func (s *Service) AnimateCounters(ctx context.Context, session string, scheduler FrameScheduler, sink func(Frame)) error {
	state, err := s.Snapshot(ctx, session)
	if err != nil {
		return err
	}
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	safeSink := func(f Frame) {
		mu.Lock()
		defer mu.Unlock()
		sink(f)
	}
	for _, tween := range CounterTweens(state.Data.Summary, s.opts.AnimationDuration) {
		wg.Add(1)
		go func(t Tween) {
			defer wg.Done()
			if err := Animate(ctx, scheduler, t, safeSink); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}(tween)
	}
	wg.Wait()
	return firstErr
}

// BroadcastCounters animates the summary cards and publishes every frame as an
// EventFrame for the session.
func (s *Service) BroadcastCounters(ctx context.Context, session string, scheduler FrameScheduler) error {
	return s.AnimateCounters(ctx, session, scheduler, func(f Frame) {
		frame := f
		s.publish(ctx, Event{Kind: EventFrame, Session: session, Target: f.Target, Frame: &frame})
	})
}

// Close drops a session.
func (s *Service) Close(ctx context.Context, session string) error {
	l, err := s.acquire(session)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()
	l.closed = true
	s.locks.CompareAndDelete(session, l)
	return s.opts.Store.Delete(ctx, session)
}

func (s *Service) dispatch(ctx context.Context, session string, action Action) (State, error) {
	unlock, err := s.lock(session)
	if err != nil {
		return State{}, err
	}
	defer unlock()
	if _, err := s.load(ctx, session); err != nil {
		return State{}, err
	}
	return s.commit(ctx, session, action)
}

func (s *Service) applyLocked(ctx context.Context, session string, selection *FilterSelection) (State, error) {
	state, err := s.load(ctx, session)
	if err != nil {
		return State{}, err
	}
	if selection != nil {
		state.Draft = Draft{DateRange: selection.DateRange, Selection: SelectionFromTokens(selection.Categories)}
		if err := s.opts.Store.Save(ctx, session, state); err != nil {
			return State{}, err
		}
	}
	count := len(state.Draft.Selection.Selected())
	s.opts.Logger.Debug("applying filters",
		zap.String("session", session),
		zap.String("date_range", string(state.Draft.DateRange)),
		zap.Strings("categories", state.Draft.Categories()),
	)
	next, err := s.commit(ctx, session, ApplyFilters{At: s.opts.Clock.Now()})
	if err != nil {
		return State{}, err
	}
	s.toast(ctx, session, fmt.Sprintf("Filters applied: %s, %d categories", next.Filters.DateRange.Label(), count))
	return next, nil
}

func (s *Service) beginRefresh(ctx context.Context, session string) (*sessionLock, error) {
	l, err := s.acquire(session)
	if err != nil {
		return nil, err
	}
	defer l.mu.Unlock()
	state, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	if state.UI.Loading {
		s.opts.Telemetry.Record(ctx, "insights.refresh.rejected", map[string]any{"session": session})
		return nil, ErrRefreshInProgress
	}
	s.opts.Logger.Debug("refreshing data", zap.String("session", session))
	if _, err := s.commit(ctx, session, BeginRefresh{}); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) abortRefresh(session string, owner *sessionLock) {
	owner.mu.Lock()
	defer owner.mu.Unlock()
	if owner.closed {
		return
	}
	ctx := context.Background()
	if _, err := s.commit(ctx, session, AbortRefresh{}); err != nil {
		s.opts.Logger.Warn("abort refresh", zap.String("session", session), zap.Error(err))
	}
}

// load must be called with the session lock held.
func (s *Service) load(ctx context.Context, session string) (State, error) {
	state, ok, err := s.opts.Store.Load(ctx, session)
	if err != nil {
		return State{}, err
	}
	if ok {
		return state, nil
	}
	data, err := s.generate(ctx)
	if err != nil {
		return State{}, err
	}
	state = NewState(data)
	if err := s.opts.Store.Save(ctx, session, state); err != nil {
		return State{}, err
	}
	s.opts.Logger.Info("session initialized", zap.String("session", session))
	s.opts.Telemetry.Record(ctx, "insights.session.init", map[string]any{"session": session})
	return state, nil
}

// commit reduces, saves and announces one action. The session lock must be held.
func (s *Service) commit(ctx context.Context, session string, action Action) (State, error) {
	state, _, err := s.opts.Store.Load(ctx, session)
	if err != nil {
		return State{}, err
	}
	next := Reduce(state, action)
	if err := s.opts.Store.Save(ctx, session, next); err != nil {
		return State{}, err
	}
	name := action.ActionName()
	s.opts.Telemetry.Record(ctx, "insights."+name, map[string]any{
		"session":     session,
		"date_range":  string(next.Filters.DateRange),
		"total_items": next.Pagination.TotalItems,
		"page":        next.Pagination.CurrentPage,
	})
	s.publish(ctx, Event{Kind: EventState, Session: session, Reason: name})
	return next, nil
}

func (s *Service) generate(ctx context.Context) (DataSet, error) {
	data, err := s.opts.Source.Generate(ctx)
	if err != nil {
		return DataSet{}, fmt.Errorf("insights: generate data: %w", err)
	}
	return data, nil
}

func (s *Service) toast(ctx context.Context, session, message string) {
	toast := s.opts.Toasts.NewToast(message, s.opts.Clock.Now())
	s.publish(ctx, Event{Kind: EventToast, Session: session, Toast: &toast})
}

func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.opts.Hook.Publish(ctx, event); err != nil {
		s.opts.Logger.Warn("publish event", zap.String("kind", event.Kind), zap.Error(err))
	}
}

func (s *Service) lock(session string) (func(), error) {
	l, err := s.acquire(session)
	if err != nil {
		return nil, err
	}
	return l.mu.Unlock, nil
}

// acquire returns the session lock held. Waiters on a lock that Close retired
// start over with a fresh one.
func (s *Service) acquire(session string) (*sessionLock, error) {
	if session == "" {
		return nil, ErrSessionRequired
	}
	for {
		v, _ := s.locks.LoadOrStore(session, &sessionLock{})
		l := v.(*sessionLock)
		l.mu.Lock()
		if !l.closed {
			return l, nil
		}
		l.mu.Unlock()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
