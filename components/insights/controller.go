package insights

import (
	"context"
	"errors"
	"io"
)

// Event stream transports understood by the page script.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

const (
	pageTemplate     = "insights"
	activityTemplate = "activity_table"
)

type viewSource interface {
	Snapshot(ctx context.Context, session string) (State, error)
	Clock() Clock
}

// ControllerOptions wires the HTML controller.
type ControllerOptions struct {
	Service  viewSource
	Renderer Renderer
	Charts   *ChartRenderer
	Presets  *PresetCatalog
	// PagePath is where the page itself is served, e.g. "/insights".
	PagePath string
	// APIBase is where the page's script sends commands, e.g. "/insights/api".
	APIBase string
	// EventsPath streams toasts, counter frames and state changes.
	EventsPath string
	// EventsTransport is "sse" or "websocket".
	EventsTransport string
}

// Controller renders dashboard pages and JSON payloads.
type Controller struct {
	opts ControllerOptions
}

// NewController builds a controller; a nil chart renderer disables server charts.
func NewController(opts ControllerOptions) *Controller {
	if opts.PagePath == "" {
		opts.PagePath = "/insights"
	}
	if opts.APIBase == "" {
		opts.APIBase = "/insights/api"
	}
	if opts.EventsPath == "" {
		opts.EventsPath = "/insights/events"
	}
	if opts.EventsTransport == "" {
		opts.EventsTransport = TransportSSE
	}
	return &Controller{opts: opts}
}

// PagePayload is everything a page or JSON client needs for one session.
type PagePayload struct {
	Session         string   `json:"session"`
	View            View     `json:"view"`
	Charts          Charts   `json:"charts"`
	Presets         []Preset `json:"presets,omitempty"`
	PagePath        string   `json:"page_path"`
	APIBase         string   `json:"api_base"`
	EventsPath      string   `json:"events_path"`
	EventsTransport string   `json:"events_transport"`
}

// Payload projects the session into a page payload.
func (c *Controller) Payload(ctx context.Context, session string) (PagePayload, error) {
	if c.opts.Service == nil {
		return PagePayload{}, errors.New("insights: controller requires a service")
	}
	state, err := c.opts.Service.Snapshot(ctx, session)
	if err != nil {
		return PagePayload{}, err
	}
	payload := PagePayload{
		Session:         session,
		View:            BuildView(state, c.opts.Service.Clock().Now()),
		Presets:         c.opts.Presets.List(),
		PagePath:        c.opts.PagePath,
		APIBase:         c.opts.APIBase,
		EventsPath:      c.opts.EventsPath,
		EventsTransport: c.opts.EventsTransport,
	}
	if c.opts.Charts != nil {
		charts, err := c.opts.Charts.Render(state.Data)
		if err != nil {
			return PagePayload{}, err
		}
		payload.Charts = charts
	}
	return payload, nil
}

// RenderPage writes the full dashboard page.
func (c *Controller) RenderPage(ctx context.Context, session string, out io.Writer) error {
	return c.render(ctx, pageTemplate, session, out)
}

// RenderActivity writes only the activity table fragment.
func (c *Controller) RenderActivity(ctx context.Context, session string, out io.Writer) error {
	return c.render(ctx, activityTemplate, session, out)
}

func (c *Controller) render(ctx context.Context, name, session string, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("insights: controller requires a renderer")
	}
	payload, err := c.Payload(ctx, session)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(name, map[string]any{
		"session":          payload.Session,
		"view":             payload.View,
		"charts":           payload.Charts,
		"presets":          payload.Presets,
		"page_path":        payload.PagePath,
		"api_base":         payload.APIBase,
		"events_path":      payload.EventsPath,
		"events_transport": payload.EventsTransport,
	}, out)
	return err
}
