package routes

import (
	"net/http"

	_ "github.com/Dosada05/chatmatch/docs" // swagger docs
	"github.com/Dosada05/chatmatch/handlers"
	"github.com/Dosada05/chatmatch/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	// MetricsHandler serves /metrics when set, normally promhttp.Handler().
	MetricsHandler http.Handler
}

func SetupRoutes(
	router chi.Router,
	rosterHandler *handlers.RosterHandler,
	eventHandler *handlers.EventHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
	opts Options,
) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(opts.Metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	router.Get("/healthz", healthHandler.Healthz)
	if opts.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/rosters", func(r chi.Router) {
		r.Get("/", rosterHandler.ListRosters)
		r.Post("/", rosterHandler.CreateRoster)
		r.Delete("/", rosterHandler.DeleteRosterByQuery)

		r.Route("/{rosterID}", func(r chi.Router) {
			r.Get("/", rosterHandler.GetRoster)
			r.Delete("/", rosterHandler.DeleteRoster)
			r.Get("/events", eventHandler.ListRosterEvents)
			r.Post("/events", eventHandler.CreateEvent)
		})
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.QueryEvents)
		r.Post("/", eventHandler.CreateEventByQuery)
		r.Get("/{eventID}", eventHandler.GetEvent)
	})

	router.Get("/ws/rosters/{rosterID}", webSocketHandler.ServeWs)
}
