package routes

import (
	"net/http"

	"github.com/zatekoja/careline/internal/api/handlers"
	"github.com/zatekoja/careline/internal/api/middleware"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	turnHandler *handlers.TurnHandler
	callHandler *handlers.CallHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	turnHandler *handlers.TurnHandler,
	callHandler *handlers.CallHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		turnHandler:    turnHandler,
		callHandler:    callHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Turn boundary
	r.mux.HandleFunc("POST /run_agent", r.turnHandler.RunAgent)
	r.mux.HandleFunc("GET /ws/call", r.callHandler.ServeCall)

	// Last applied runs first: request id, then CORS, tracing and the access log
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORS(r.allowedOrigins)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
