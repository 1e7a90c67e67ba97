package httpapi

import (
	"net/http"
	"strings"
)

// RouteConfig sets the mount points of the net/http transport.
type RouteConfig struct {
	Page      string
	API       string
	Events    string
	WebSocket string
}

// DefaultRoutes returns routes with empty fields filled in.
func DefaultRoutes(routes RouteConfig) RouteConfig {
	if routes.Page == "" {
		routes.Page = "/insights"
	}
	if routes.API == "" {
		routes.API = "/insights/api"
	}
	if routes.Events == "" {
		routes.Events = "/insights/events"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/insights/ws"
	}
	return routes
}

type sessionHandler func(http.ResponseWriter, *http.Request, string)

// Register mounts every endpoint on mux.
func (h *Handlers) Register(mux *http.ServeMux, routes RouteConfig) {
	routes = DefaultRoutes(routes)
	page := strings.TrimRight(routes.Page, "/")
	api := strings.TrimRight(routes.API, "/") + "/{session}"

	mux.HandleFunc("GET "+page, h.HandleNewSession)
	mux.HandleFunc("GET "+page+"/{session}", withSession(h.HandlePage))

	mux.HandleFunc("GET "+api+"/state", withSession(h.HandleState))
	mux.HandleFunc("GET "+api+"/activity", withSession(h.HandleActivity))
	mux.HandleFunc("GET "+api+"/counters", withSession(h.HandleCounters))
	mux.HandleFunc("POST "+api+"/counters", withSession(h.HandleBroadcastCounters))
	mux.HandleFunc("POST "+api+"/draft/range", withSession(h.HandleSelectDateRange))
	mux.HandleFunc("POST "+api+"/draft/category", withSession(h.HandleToggleCategory))
	mux.HandleFunc("POST "+api+"/apply", withSession(h.HandleApply))
	mux.HandleFunc("POST "+api+"/preset", withSession(h.HandlePreset))
	mux.HandleFunc("POST "+api+"/reset", withSession(h.HandleReset))
	mux.HandleFunc("POST "+api+"/refresh", withSession(h.HandleRefresh))
	mux.HandleFunc("POST "+api+"/next", withSession(h.HandleNextPage))
	mux.HandleFunc("POST "+api+"/prev", withSession(h.HandlePrevPage))
	mux.HandleFunc("POST "+api+"/shortcut", withSession(h.HandleShortcut))

	mux.HandleFunc("GET "+routes.Events, h.HandleEvents)
	mux.HandleFunc("GET "+routes.WebSocket, h.HandleWebSocket)
}

func withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r, r.PathValue("session"))
	}
}
