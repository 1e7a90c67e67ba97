package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	router "github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-insightx/components/insights"
	"github.com/goliatone/go-insightx/components/insights/commands"
	"github.com/goliatone/go-insightx/components/insights/httpapi"
)

// Config wires go-router with the insights controller, API and event hook.
type Config[T any] struct {
	Router     router.Router[T]
	Controller *insights.Controller
	API        httpapi.Executor
	Validator  *insights.FilterValidator
	Counters   httpapi.CounterAnimator
	Broadcast  *insights.BroadcastHook
	BasePath   string
	Routes     RouteConfig

	FrameInterval  time.Duration
	CounterTimeout time.Duration
	NewSession     func() string
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Index     string
	HTML      string
	State     string
	Activity  string
	API       string
	WebSocket string
}

// Register mounts dashboard routes (HTML, JSON, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/insights"
	}
	group := cfg.Router.Group(base)
	mount(routerAdapter[T]{r: group}, cfg.mountConfig())
	return nil
}

func (cfg Config[T]) mountConfig() mountConfig {
	validator := cfg.Validator
	if validator == nil {
		validator = insights.NewFilterValidator()
	}
	timeout := cfg.CounterTimeout
	if timeout <= 0 {
		timeout = httpapi.DefaultCounterTimeout
	}
	newSession := cfg.NewSession
	if newSession == nil {
		newSession = uuid.NewString
	}
	return mountConfig{
		routes:        defaultRouteConfig(cfg.Routes),
		newSession:    newSession,
		pages:         cfg.Controller,
		api:           cfg.API,
		validator:     validator,
		counters:      cfg.Counters,
		broadcast:     cfg.Broadcast,
		frameInterval: cfg.FrameInterval,
		timeout:       timeout,
	}
}

// requestContext is the subset of router.Context the handlers use.
type requestContext interface {
	Context() context.Context
	Body() []byte
	Param(name string, defaultValue ...string) string
	SetHeader(key, value string) router.Context
	Send(body []byte) error
	JSON(code int, v any) error
}

// socket is the subset of router.WebSocketContext the event stream uses.
type socket interface {
	Context() context.Context
	WriteJSON(v any) error
	Close() error
}

type handlerFunc func(requestContext) error

type routes interface {
	get(path string, h handlerFunc)
	post(path string, h handlerFunc)
	websocket(path string, h func(socket) error)
}

type routerAdapter[T any] struct {
	r router.Router[T]
}

func (a routerAdapter[T]) get(path string, h handlerFunc) {
	a.r.Get(path, wrap(h))
}

func (a routerAdapter[T]) post(path string, h handlerFunc) {
	a.r.Post(path, wrap(h))
}

func (a routerAdapter[T]) websocket(path string, h func(socket) error) {
	a.r.WebSocket(path, router.DefaultWebSocketConfig(), func(ws router.WebSocketContext) error {
		return h(ws)
	})
}

func wrap(h handlerFunc) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		return h(ctx)
	})
}

type pageRenderer interface {
	httpapi.PageRenderer
	Payload(ctx context.Context, session string) (insights.PagePayload, error)
}

type mountConfig struct {
	routes        RouteConfig
	pages         pageRenderer
	api           httpapi.Executor
	validator     *insights.FilterValidator
	counters      httpapi.CounterAnimator
	broadcast     *insights.BroadcastHook
	frameInterval time.Duration
	timeout       time.Duration
	newSession    func() string
}

// mount registers the socket first so its static path wins over the
// session page pattern.
func mount(r routes, cfg mountConfig) {
	paths := cfg.routes

	if cfg.broadcast != nil {
		registerWebSocket(r, cfg.broadcast, paths.WebSocket)
	}

	r.get(paths.Index, func(ctx requestContext) error {
		return renderPage(ctx, cfg.pages, cfg.newSession())
	})

	r.get(paths.HTML, func(ctx requestContext) error {
		return renderPage(ctx, cfg.pages, session(ctx))
	})

	r.get(paths.Activity, func(ctx requestContext) error {
		var buf bytes.Buffer
		if err := cfg.pages.RenderActivity(ctx.Context(), session(ctx), &buf); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	})

	r.get(paths.State, func(ctx requestContext) error {
		payload, err := cfg.pages.Payload(ctx.Context(), session(ctx))
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, payload)
	})

	if cfg.api != nil {
		registerAPI(r, cfg)
	}
	if cfg.counters != nil {
		registerCounters(r, cfg)
	}
}

func renderPage(ctx requestContext, pages pageRenderer, id string) error {
	var buf bytes.Buffer
	if err := pages.RenderPage(ctx.Context(), id, &buf); err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(buf.Bytes())
}

func registerAPI(r routes, cfg mountConfig) {
	api := cfg.api
	base := cfg.routes.API

	r.post(base+"/draft/range", func(ctx requestContext) error {
		var payload commands.SelectDateRangeInput
		if err := unmarshal(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Session = session(ctx)
		return respond(ctx, api.SelectDateRange(ctx.Context(), payload))
	})

	r.post(base+"/draft/category", func(ctx requestContext) error {
		var payload commands.ToggleCategoryInput
		if err := unmarshal(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if payload.Token == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("category token is required"))
		}
		payload.Session = session(ctx)
		return respond(ctx, api.ToggleCategory(ctx.Context(), payload))
	})

	r.post(base+"/apply", func(ctx requestContext) error {
		input := commands.ApplyFiltersInput{Session: session(ctx)}
		if hasFields(ctx.Body()) {
			selection, err := cfg.validator.Decode(ctx.Body())
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			input.Selection = &selection
		}
		return respond(ctx, api.Apply(ctx.Context(), input))
	})

	r.post(base+"/preset", func(ctx requestContext) error {
		var payload commands.ApplyPresetInput
		if err := unmarshal(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if payload.Name == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("preset name is required"))
		}
		payload.Session = session(ctx)
		return respond(ctx, api.Preset(ctx.Context(), payload))
	})

	r.post(base+"/reset", func(ctx requestContext) error {
		return respond(ctx, api.Reset(ctx.Context(), commands.ResetFiltersInput{Session: session(ctx)}))
	})

	r.post(base+"/refresh", func(ctx requestContext) error {
		return respond(ctx, api.Refresh(ctx.Context(), commands.RefreshInput{Session: session(ctx)}))
	})

	r.post(base+"/next", func(ctx requestContext) error {
		return respond(ctx, api.Page(ctx.Context(), commands.ChangePageInput{Session: session(ctx), Direction: commands.PageNext}))
	})

	r.post(base+"/prev", func(ctx requestContext) error {
		return respond(ctx, api.Page(ctx.Context(), commands.ChangePageInput{Session: session(ctx), Direction: commands.PagePrev}))
	})

	r.post(base+"/shortcut", func(ctx requestContext) error {
		var shortcut insights.Shortcut
		if err := unmarshal(ctx, &shortcut); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		action, err := insights.ResolveShortcut(shortcut)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		if err := api.Shortcut(ctx.Context(), commands.ShortcutInput{Session: session(ctx), Shortcut: shortcut}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		result := insights.ShortcutResult{Action: action}
		if action == insights.ShortcutFocusRange {
			result.Focus = insights.FocusDateRangeTarget
		}
		return ctx.JSON(http.StatusOK, result)
	})
}

func registerCounters(r routes, cfg mountConfig) {
	r.post(cfg.routes.API+"/counters", func(ctx requestContext) error {
		id := session(ctx)
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, insights.ErrSessionRequired)
		}
		scheduler := insights.NewTickerScheduler(cfg.frameInterval)
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx.Context()), cfg.timeout)
		go func() {
			defer cancel()
			_ = cfg.counters.BroadcastCounters(bg, id, scheduler)
		}()
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "animating"})
	})
}

// registerWebSocket streams every session's events; the page drops the ones
// that are not its own.
func registerWebSocket(r routes, hook *insights.BroadcastHook, path string) {
	r.websocket(path, func(ws socket) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func session(ctx requestContext) string {
	return strings.TrimSpace(ctx.Param("session"))
}

func unmarshal(ctx requestContext, v any) error {
	body := ctx.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
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

func respond(ctx requestContext, err error) error {
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func respondError(ctx requestContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Index == "" {
		routes.Index = "/"
	}
	if routes.HTML == "" {
		routes.HTML = "/:session"
	}
	if routes.API == "" {
		routes.API = "/api/:session"
	}
	if routes.State == "" {
		routes.State = routes.API + "/state"
	}
	if routes.Activity == "" {
		routes.Activity = routes.API + "/activity"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
