package www

import (
	"net/http"

	"teleopedge/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	eventHub *EventHub
}

// NewRouter creates the chi router and returns it along with a stop function.
func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	h := &Handlers{
		engine:   eng,
		eventHub: NewEventHub(),
	}

	h.eventHub.Start()
	h.eventHub.SetupEngineListeners(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE event stream for diagnostics consumers
	r.Get("/events", h.eventHub.HandleSSE)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.apiStatus)
		r.Post("/tracking/start", h.apiStartTracking)
		r.Post("/tracking/stop", h.apiStopTracking)
		r.Get("/config/tracking", h.apiGetTrackingConfig)
		r.Put("/config/tracking", h.apiUpdateTrackingConfig)
	})

	return r, func() {
		h.eventHub.Stop()
	}
}
