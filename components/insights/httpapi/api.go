package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-insightx/components/insights"
	"github.com/goliatone/go-insightx/components/insights/commands"
	"github.com/goliatone/go-insightx/components/insights/queries"
)

// PageRenderer renders the dashboard HTML.
type PageRenderer interface {
	RenderPage(ctx context.Context, session string, out io.Writer) error
	RenderActivity(ctx context.Context, session string, out io.Writer) error
}

// CounterAnimator drives the summary card count-ups.
type CounterAnimator interface {
	AnimateCounters(ctx context.Context, session string, scheduler insights.FrameScheduler, sink func(insights.Frame)) error
	BroadcastCounters(ctx context.Context, session string, scheduler insights.FrameScheduler) error
}

// DefaultCounterTimeout bounds a detached counter broadcast.
const DefaultCounterTimeout = 10 * time.Second

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	Commands  Executor
	State     gocommand.Querier[queries.SessionInput, insights.State]
	Validator *insights.FilterValidator
	Pages     PageRenderer
	Counters  CounterAnimator
	Events    *insights.BroadcastHook

	FrameInterval  time.Duration
	CounterTimeout time.Duration
	NewSession     func() string
}

// HandleNewSession redirects to a page for a freshly minted session.
func (h *Handlers) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	next := uuid.NewString
	if h.NewSession != nil {
		next = h.NewSession
	}
	http.Redirect(w, r, r.URL.Path+"/"+next(), http.StatusSeeOther)
}

func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request, session string) {
	h.renderHTML(w, r, session, h.Pages.RenderPage)
}

func (h *Handlers) HandleActivity(w http.ResponseWriter, r *http.Request, session string) {
	h.renderHTML(w, r, session, h.Pages.RenderActivity)
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request, session string) {
	h.respondState(w, r, session, http.StatusOK)
}

func (h *Handlers) HandleSelectDateRange(w http.ResponseWriter, r *http.Request, session string) {
	var payload commands.SelectDateRangeInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Session = session
	h.run(w, r, session, h.Commands.SelectDateRange(r.Context(), payload))
}

func (h *Handlers) HandleToggleCategory(w http.ResponseWriter, r *http.Request, session string) {
	var payload commands.ToggleCategoryInput
	if !decode(w, r, &payload) {
		return
	}
	if payload.Token == "" {
		respondError(w, http.StatusBadRequest, errors.New("category token is required"))
		return
	}
	payload.Session = session
	h.run(w, r, session, h.Commands.ToggleCategory(r.Context(), payload))
}

// HandleApply commits the draft. A body carrying date_range or categories is
// validated and submitted as the new selection instead.
func (h *Handlers) HandleApply(w http.ResponseWriter, r *http.Request, session string) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	input := commands.ApplyFiltersInput{Session: session}
	if hasFields(raw) {
		selection, err := h.validator().Decode(raw)
		if err != nil {
			respondError(w, StatusFor(err), err)
			return
		}
		input.Selection = &selection
	}
	h.run(w, r, session, h.Commands.Apply(r.Context(), input))
}

func (h *Handlers) HandlePreset(w http.ResponseWriter, r *http.Request, session string) {
	var payload commands.ApplyPresetInput
	if !decode(w, r, &payload) {
		return
	}
	if payload.Name == "" {
		respondError(w, http.StatusBadRequest, errors.New("preset name is required"))
		return
	}
	payload.Session = session
	h.run(w, r, session, h.Commands.Preset(r.Context(), payload))
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request, session string) {
	h.run(w, r, session, h.Commands.Reset(r.Context(), commands.ResetFiltersInput{Session: session}))
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request, session string) {
	h.run(w, r, session, h.Commands.Refresh(r.Context(), commands.RefreshInput{Session: session}))
}

func (h *Handlers) HandleNextPage(w http.ResponseWriter, r *http.Request, session string) {
	h.run(w, r, session, h.Commands.Page(r.Context(), commands.ChangePageInput{Session: session, Direction: commands.PageNext}))
}

func (h *Handlers) HandlePrevPage(w http.ResponseWriter, r *http.Request, session string) {
	h.run(w, r, session, h.Commands.Page(r.Context(), commands.ChangePageInput{Session: session, Direction: commands.PagePrev}))
}

// HandleShortcut resolves the chord before running it so the response can
// tell the page what to focus.
func (h *Handlers) HandleShortcut(w http.ResponseWriter, r *http.Request, session string) {
	var shortcut insights.Shortcut
	if !decode(w, r, &shortcut) {
		return
	}
	action, err := insights.ResolveShortcut(shortcut)
	if err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	if err := h.Commands.Shortcut(r.Context(), commands.ShortcutInput{Session: session, Shortcut: shortcut}); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	result := insights.ShortcutResult{Action: action}
	if action == insights.ShortcutFocusRange {
		result.Focus = insights.FocusDateRangeTarget
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleCounters streams the three counter animations as Server-Sent Events
// and ends the response after the final frames.
func (h *Handlers) HandleCounters(w http.ResponseWriter, r *http.Request, session string) {
	if h.Counters == nil {
		respondError(w, http.StatusNotFound, errors.New("counters not configured"))
		return
	}
	ctx := r.Context()
	frames := make(chan insights.Frame, 8)
	go func() {
		defer close(frames)
		_ = h.Counters.AnimateCounters(ctx, session, h.scheduler(), func(f insights.Frame) {
			select {
			case frames <- f:
			case <-ctx.Done():
			}
		})
	}()
	insights.StreamSSE(w, r, frames)
}

// HandleBroadcastCounters starts the counter animation in the background and
// publishes frames on the event stream.
func (h *Handlers) HandleBroadcastCounters(w http.ResponseWriter, r *http.Request, session string) {
	if h.Counters == nil {
		respondError(w, http.StatusNotFound, errors.New("counters not configured"))
		return
	}
	if session == "" {
		respondError(w, http.StatusBadRequest, insights.ErrSessionRequired)
		return
	}
	timeout := h.CounterTimeout
	if timeout <= 0 {
		timeout = DefaultCounterTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	scheduler := h.scheduler()
	go func() {
		defer cancel()
		_ = h.Counters.BroadcastCounters(ctx, session, scheduler)
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "animating"})
}

func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		respondError(w, http.StatusNotFound, errors.New("events not configured"))
		return
	}
	h.Events.ServeSSE(w, r)
}

func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		respondError(w, http.StatusNotFound, errors.New("events not configured"))
		return
	}
	h.Events.ServeWebSocket(w, r)
}

func (h *Handlers) scheduler() insights.FrameScheduler {
	return insights.NewTickerScheduler(h.FrameInterval)
}

func (h *Handlers) validator() *insights.FilterValidator {
	if h.Validator == nil {
		h.Validator = insights.NewFilterValidator()
	}
	return h.Validator
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, session string, err error) {
	if err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	h.respondState(w, r, session, http.StatusOK)
}

func (h *Handlers) respondState(w http.ResponseWriter, r *http.Request, session string, status int) {
	if h.State == nil {
		writeJSON(w, status, map[string]string{"status": "ok"})
		return
	}
	state, err := h.State.Query(r.Context(), queries.SessionInput{Session: session})
	if err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, status, state)
}

func (h *Handlers) renderHTML(w http.ResponseWriter, r *http.Request, session string, render func(context.Context, string, io.Writer) error) {
	if h.Pages == nil {
		respondError(w, http.StatusNotFound, errors.New("pages not configured"))
		return
	}
	var buf bytes.Buffer
	if err := render(r.Context(), session, &buf); err != nil {
		respondError(w, StatusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// StatusFor maps dashboard errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, insights.ErrSessionRequired),
		errors.Is(err, insights.ErrInvalidFilters),
		errors.Is(err, insights.ErrUnknownShortcut):
		return http.StatusBadRequest
	case errors.Is(err, insights.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, insights.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, insights.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func hasFields(raw []byte) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return true
	}
	return len(probe) > 0
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
