package route

import (
	"net/http"

	"motiondetector/internal/config"
	"motiondetector/internal/handler"
	"motiondetector/internal/logger"
	"motiondetector/internal/middleware"
	"motiondetector/internal/repository"
)

// SetupRoutes registers the event browser API, log endpoints and login,
// and wraps the mux with the authentication middleware.
func SetupRoutes(cfg *config.Config, logger *logger.Logger,
	eventRepo repository.EventRepository, regionRepo repository.RegionRepository) http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/events", handler.GetEventsHandler(cfg, logger, eventRepo, regionRepo))
	mux.HandleFunc("/api/events/stats", handler.GetEventStatsHandler(logger, eventRepo))
	mux.HandleFunc("/api/events/days", handler.GetEventDaysHandler(logger, eventRepo))
	mux.HandleFunc("/api/events/file", handler.ViewEventFileHandler(cfg))
	mux.HandleFunc("/api/events/delete", handler.DeleteEventHandler(cfg, logger, eventRepo))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handler.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handler.ShowErrorLogsHandler(cfg))
	mux.HandleFunc("/logs/motion", handler.ShowMotionLogHandler(cfg))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(logger, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(logger, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(logger, "error.log"))

	// Auth endpoints
	mux.HandleFunc("/login", handler.LoginPageHandler)
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/events", http.StatusSeeOther)
	})

	// Apply middleware
	return middleware.AuthMiddleware(cfg.Password, mux)
}
