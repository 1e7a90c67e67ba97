package insights

import (
	"fmt"
	"path"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	core "github.com/goliatone/go-insightx/components/insights"
	"github.com/goliatone/go-insightx/components/insights/httpapi"
	"github.com/goliatone/go-insightx/components/insights/queries"
	"github.com/goliatone/go-insightx/pkg/config"
)

// Service exposes the underlying components/insights.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// App bundles a fully wired dashboard: service, page controller, command
// executor and event hook, all sharing one telemetry sink.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Service    *core.Service
	Controller *core.Controller
	Executor   *httpapi.CommandExecutor
	Hook       *core.BroadcastHook
	Telemetry  core.Telemetry
	Charts     *core.ChartRenderer
}

// Transport selects how the page receives events.
type Transport string

const (
	TransportFiber Transport = "fiber"
	TransportHTTP  Transport = "http"
)

// New wires every component from cfg. reg may be nil to skip Prometheus.
func New(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("insights: config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	telemetry := core.MultiTelemetry{core.ZapTelemetry{Logger: logger.Named("telemetry")}}
	if reg != nil {
		telemetry = append(telemetry, core.NewPrometheusTelemetry(reg))
	}

	presets, err := core.DefaultPresetCatalog()
	if err != nil {
		return nil, err
	}
	if cfg.Presets.Path != "" {
		if err := presets.LoadFile(cfg.Presets.Path); err != nil {
			return nil, err
		}
	}

	clock := core.SystemClock()
	hook := core.NewBroadcastHook()
	service := core.NewService(core.Options{
		Source: core.NewMockGenerator(core.GeneratorOptions{
			Seed:          cfg.Generator.Seed,
			SummaryJitter: cfg.Generator.SummaryJitter,
			Clock:         clock,
			Logger:        logger.Named("generator"),
		}),
		Clock:             clock,
		Hook:              hook,
		Telemetry:         telemetry,
		Logger:            logger.Named("service"),
		Presets:           presets,
		RefreshDelay:      cfg.Refresh.Delay,
		AnimationDuration: cfg.Animation.Duration,
		Toasts: core.ToastTiming{
			Visible:    cfg.Notifications.Visible,
			Transition: cfg.Notifications.Transition,
		},
	})

	charts := core.NewChartRenderer(
		core.WithChartCache(core.NewChartCache(cfg.Charts.CacheTTL)),
		core.WithChartTheme(cfg.Charts.Theme),
		core.WithChartAssetsHost(cfg.Charts.AssetsHost),
	)

	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("insights: template renderer: %w", err)
	}

	base := cfg.Server.BasePath
	controllerOpts := core.ControllerOptions{
		Service:  service,
		Renderer: renderer,
		Charts:   charts,
		Presets:  presets,
		PagePath: base,
		APIBase:  path.Join(base, "api"),
	}
	switch Transport(cfg.Server.Transport) {
	case TransportHTTP:
		controllerOpts.EventsPath = path.Join(base, "events")
		controllerOpts.EventsTransport = core.TransportSSE
	default:
		controllerOpts.EventsPath = path.Join(base, "ws")
		controllerOpts.EventsTransport = core.TransportWebSocket
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Service:    service,
		Controller: core.NewController(controllerOpts),
		Executor:   httpapi.NewCommandExecutor(service, telemetry),
		Hook:       hook,
		Telemetry:  telemetry,
		Charts:     charts,
	}, nil
}

// Handlers returns the net/http transport for the app.
func (a *App) Handlers() *httpapi.Handlers {
	return &httpapi.Handlers{
		Commands:       a.Executor,
		State:          queries.NewSnapshotQuery(a.Service),
		Validator:      a.Service.Validator(),
		Pages:          a.Controller,
		Counters:       a.Service,
		Events:         a.Hook,
		FrameInterval:  a.Config.Animation.FrameInterval,
		CounterTimeout: a.Config.Server.CounterTimeout,
	}
}

// Routes returns the net/http mount points under the configured base path.
func (a *App) Routes() httpapi.RouteConfig {
	base := a.Config.Server.BasePath
	return httpapi.RouteConfig{
		Page:      base,
		API:       path.Join(base, "api"),
		Events:    path.Join(base, "events"),
		WebSocket: path.Join(base, "ws"),
	}
}
