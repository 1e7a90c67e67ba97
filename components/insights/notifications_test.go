package insights

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBroadcastHookFiltersBySession(t *testing.T) {
	hook := NewBroadcastHook()
	mine, cancelMine := hook.Subscribe("s1")
	defer cancelMine()
	all, cancelAll := hook.Subscribe("")
	defer cancelAll()

	ctx := context.Background()
	_ = hook.Publish(ctx, Event{Kind: EventState, Session: "s1"})
	_ = hook.Publish(ctx, Event{Kind: EventState, Session: "s2"})

	if len(mine) != 1 {
		t.Fatalf("session subscriber expected 1 event, got %d", len(mine))
	}
	if len(all) != 2 {
		t.Fatalf("wildcard subscriber expected 2 events, got %d", len(all))
	}
	if hook.Subscribers() != 2 {
		t.Fatalf("expected 2 subscribers")
	}
}

func TestBroadcastHookCancelClosesChannel(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("s1")
	cancel()
	cancel()
	if _, ok := <-events; ok {
		t.Fatalf("channel should be closed")
	}
	if hook.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
	if err := hook.Publish(context.Background(), Event{Session: "s1"}); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestToastTimingDefaults(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	toast := ToastTiming{}.NewToast("Data refreshed successfully", at)
	if toast.VisibleMS != 3000 || toast.TransitionMS != 300 {
		t.Fatalf("unexpected timing %+v", toast)
	}
	if !toast.At.Equal(at) {
		t.Fatalf("toast should carry its timestamp")
	}
}

func TestStreamSSEWritesEvents(t *testing.T) {
	ch := make(chan Event, 2)
	ch <- Event{Kind: EventToast, Session: "s1", Toast: &Toast{Message: "hello"}}
	ch <- Event{Kind: EventState, Session: "s1"}
	close(ch)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/insights/events?session=s1", nil)
	StreamSSE(rec, req, ch)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if strings.Count(body, "data: ") != 2 {
		t.Fatalf("expected two events, got %q", body)
	}
	if !strings.Contains(body, `"message":"hello"`) {
		t.Fatalf("toast payload missing: %q", body)
	}
}

func TestServeWebSocketStreamsSessionEvents(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?session=s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hook.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = hook.Publish(context.Background(), Event{Kind: EventState, Session: "s2"})
	_ = hook.Publish(context.Background(), Event{Kind: EventFocus, Session: "s1", Target: FocusDateRangeTarget})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Kind != EventFocus || event.Target != FocusDateRangeTarget {
		t.Fatalf("unexpected event %+v", event)
	}
}
