package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/campusqa/portal/internal/config"
	"github.com/campusqa/portal/internal/database"
	"github.com/campusqa/portal/internal/notify"
	"github.com/campusqa/portal/internal/stats"
	"github.com/campusqa/portal/internal/token"
	"github.com/campusqa/portal/internal/types"
	"github.com/gorilla/handlers"
)

type PortalApp struct {
	log            *log.Logger
	db             database.PortalRepository
	mux            *http.Server
	tokens         *token.Service
	notifier       *notify.Service
	registry       *notify.Registry
	stats          stats.StatsProvider
	allowedOrigins []string
}

func NewPortalApp(mux *http.ServeMux, logger *log.Logger, tokens *token.Service, notifier *notify.Service,
	registry *notify.Registry, db database.PortalRepository, sp stats.StatsProvider, cfg *config.Config) *PortalApp {
	s := &PortalApp{
		log:            logger,
		db:             db,
		tokens:         tokens,
		notifier:       notifier,
		registry:       registry,
		stats:          sp,
		allowedOrigins: cfg.AllowedOrigins,
	}

	// open routes: everything else goes through the auth middleware
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/reset-password/request", s.requestPasswordReset)
	mux.HandleFunc("POST /api/auth/reset-password", s.resetPassword)
	mux.HandleFunc("GET /api/health", s.health)

	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.Handle("GET /api/notifications/unread-count", s.authMiddleware(s.unreadCount))
	mux.Handle("PUT /api/notifications/{id}/read", s.authMiddleware(s.markNotificationRead))
	mux.Handle("PUT /api/notifications/read-all", s.authMiddleware(s.markAllNotificationsRead))
	mux.Handle("POST /api/notifications/system", s.authMiddleware(s.requireRole(s.createSystemNotification, types.RoleAdmin)))
	mux.Handle("GET /ws/notifications", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *PortalApp) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"active_connections": s.registry.Count(),
	})
}

func (s *PortalApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *PortalApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	s.registry.CloseAll()
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
