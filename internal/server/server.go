package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/config"
	"github.com/aldikusuma/neraca/internal/di"
	datasethandlers "github.com/aldikusuma/neraca/internal/modules/dataset/handlers"
	forecasthandlers "github.com/aldikusuma/neraca/internal/modules/forecast/handlers"
	runloghandlers "github.com/aldikusuma/neraca/internal/modules/runlog/handlers"
	settingshandlers "github.com/aldikusuma/neraca/internal/modules/settings/handlers"
	"github.com/aldikusuma/neraca/internal/scheduler"
	"github.com/aldikusuma/neraca/pkg/embedded"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Register common MIME types to ensure correct Content-Type headers
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".mjs", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	_ = mime.AddExtensionType(".woff2", "font/woff2")
	_ = mime.AddExtensionType(".woff", "font/woff")

	systemHandlers := NewSystemHandlers(cfg.Container, cfg.Scheduler, cfg.Config.DataDir, cfg.Log)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.statusMonitor = NewStatusMonitor(cfg.Container, cfg.Log)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware stack
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (before SPA routing)
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Unified events stream (SSE) - must be before other routes for proper handling
		eventsStreamHandler := NewEventsStreamHandler(s.container.Bus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		// Forecast runs and configuration
		forecastHandler := forecasthandlers.NewHandler(
			s.container.ForecastService,
			s.container.DatasetLoader,
			s.container.ChartsService,
			s.container.SettingsService,
			s.log,
		)
		forecastHandler.RegisterRoutes(r)

		// Historical dataset access
		datasetHandler := datasethandlers.NewHandler(
			s.container.DatasetLoader,
			s.cfg.DatasetPath,
			s.container.AnalyticsService,
			s.log,
		)
		datasetHandler.RegisterRoutes(r)

		// Run history
		runlogHandler := runloghandlers.NewHandler(s.container.RunRepo, s.log)
		runlogHandler.RegisterRoutes(r)

		// Settings
		settingsHandler := settingshandlers.NewHandler(s.container.SettingsService, s.log)
		settingsHandler.RegisterRoutes(r)

		// System monitoring
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
		})
	})

	// Serve built frontend files from embedded filesystem
	// Create a sub-FS for the frontend directory
	frontendFS, err := fs.Sub(embedded.Files, "frontend/dist")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create frontend filesystem from embedded files")
	} else {
		// Serve frontend assets from the assets subdirectory
		assetsFS, err := fs.Sub(frontendFS, "assets")
		if err != nil {
			s.log.Warn().Err(err).Msg("Frontend assets directory not found in embedded files")
		} else {
			fileServer := http.FileServer(http.FS(assetsFS))
			// Wrap file server with MIME type handler to ensure correct Content-Type headers
			assetsHandler := s.assetsHandler(fileServer)
			s.router.Handle("/assets/*", http.StripPrefix("/assets/", assetsHandler))
		}

		// Serve index.html for root and all non-API routes (SPA routing)
		s.router.Get("/", s.handleDashboard)
		s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api") && !strings.HasPrefix(r.URL.Path, "/health") {
				// Serve index.html from embedded filesystem
				indexFile, err := frontendFS.Open("index.html")
				if err != nil {
					s.log.Error().Err(err).Msg("Failed to open embedded index.html")
					http.NotFound(w, r)
					return
				}
				defer indexFile.Close()
				data, err := io.ReadAll(indexFile)
				if err != nil {
					s.log.Error().Err(err).Msg("Failed to read embedded index.html")
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if _, err := w.Write(data); err != nil {
					s.log.Error().Err(err).Msg("Failed to write index.html response")
				}
			} else {
				http.NotFound(w, r)
			}
		})
	}
}

// Start starts the HTTP server and background monitors
func (s *Server) Start() error {
	// Start status monitor (check every 60 seconds)
	if s.statusMonitor != nil {
		s.statusMonitor.Start(60 * time.Second)
		s.log.Info().Msg("Status monitor started")
	}

	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.statusMonitor != nil {
		s.statusMonitor.Stop()
	}

	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the chi router, used by tests to drive requests without
// binding a socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// assetsHandler wraps the file server to set correct MIME types
func (s *Server) assetsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filePath := r.URL.Path
		ext := filepath.Ext(filePath)

		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			// Fallback for common extensions
			switch ext {
			case ".js":
				contentType = "application/javascript"
			case ".mjs":
				contentType = "application/javascript"
			case ".css":
				contentType = "text/css"
			case ".json":
				contentType = "application/json"
			case ".woff", ".woff2":
				contentType = "font/woff2"
			case ".ttf":
				contentType = "font/ttf"
			case ".svg":
				contentType = "image/svg+xml"
			default:
				contentType = "application/octet-stream"
			}
		}

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}

		next.ServeHTTP(w, r)
	})
}

// handleDashboard serves the main dashboard HTML from embedded filesystem
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	frontendFS, err := fs.Sub(embedded.Files, "frontend/dist")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create frontend filesystem from embedded files")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	indexFile, err := frontendFS.Open("index.html")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}
	defer indexFile.Close()

	data, err := io.ReadAll(indexFile)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
