package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultToastVisible is how long a toast stays on screen.
	DefaultToastVisible = 3 * time.Second
	// DefaultToastTransition is the slide in/out duration.
	DefaultToastTransition = 300 * time.Millisecond
)

// Toast is a transient notification.
type Toast struct {
	Message      string    `json:"message"`
	VisibleMS    int64     `json:"visible_ms"`
	TransitionMS int64     `json:"transition_ms"`
	At           time.Time `json:"at"`
}

// ToastTiming controls toast durations.
type ToastTiming struct {
	Visible    time.Duration
	Transition time.Duration
}

func (t ToastTiming) normalized() ToastTiming {
	if t.Visible <= 0 {
		t.Visible = DefaultToastVisible
	}
	if t.Transition <= 0 {
		t.Transition = DefaultToastTransition
	}
	return t
}

// NewToast stamps a toast with the given timing.
func (t ToastTiming) NewToast(message string, at time.Time) Toast {
	t = t.normalized()
	return Toast{
		Message:      message,
		VisibleMS:    t.Visible.Milliseconds(),
		TransitionMS: t.Transition.Milliseconds(),
		At:           at,
	}
}

// Event kinds published on the broadcast hook.
const (
	EventToast   = "toast"
	EventState   = "state"
	EventFrame   = "frame"
	EventFocus   = "focus"
	EventLoading = "loading"
)

// Event is a dashboard change pushed to subscribers.
type Event struct {
	Kind    string `json:"kind"`
	Session string `json:"session"`
	Reason  string `json:"reason,omitempty"`
	Toast   *Toast `json:"toast,omitempty"`
	Frame   *Frame `json:"frame,omitempty"`
	Target  string `json:"target,omitempty"`
}

// EventHook receives dashboard events.
type EventHook interface {
	Publish(ctx context.Context, event Event) error
}

type noopEventHook struct{}

func (noopEventHook) Publish(context.Context, Event) error { return nil }

// BroadcastHook fans out dashboard events to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

type subscription struct {
	session string
	ch      chan Event
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]subscription),
	}
}

// Publish delivers the event to matching subscribers. Slow subscribers miss events.
func (h *BroadcastHook) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.session != "" && sub.session != event.Session {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events for session (empty for all sessions)
// and a cancel func.
func (h *BroadcastHook) Subscribe(session string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 64)
	h.subs[id] = subscription{session: session, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams events as JSON. The session
// query parameter scopes the stream.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(r.URL.Query().Get("session"))
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams events as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	events, cancel := h.Subscribe(r.URL.Query().Get("session"))
	defer cancel()
	StreamSSE(w, r, events)
}

// StreamSSE writes events from ch until the request ends or ch closes.
func StreamSSE[T any](w http.ResponseWriter, r *http.Request, ch <-chan T) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
