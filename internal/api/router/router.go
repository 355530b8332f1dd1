package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/thomas7124/aidentalbackend/internal/http/handlers"
	httpmiddleware "github.com/thomas7124/aidentalbackend/internal/http/middleware"
	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AppointmentHandler *handlers.AppointmentHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The appointment handler owns the method check so non-POST requests get
	// the JSON 405 body the voice platform expects, not chi's default.
	if cfg.AppointmentHandler != nil {
		r.HandleFunc("/webhooks/appointments", cfg.AppointmentHandler.HandleAppointment)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
