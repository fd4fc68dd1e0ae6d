package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livepaste/internal/adapter/metrics"
	relay "github.com/pscheid92/livepaste/internal/adapter/websocket"
	"github.com/pscheid92/livepaste/internal/domain"
	"github.com/pscheid92/livepaste/internal/platform/config"
	"github.com/pscheid92/livepaste/web"
)

// relayHub is the subset of the websocket hub the /ws handler drives.
type relayHub interface {
	Register(conn *websocket.Conn) (string, error)
	Unregister(conn *websocket.Conn)
	Receive(ctx context.Context, sender *websocket.Conn, frame []byte) error
}

// Metrics bundles the collectors the server exposes and records into.
// Any field may be nil.
type Metrics struct {
	Registry  *prometheus.Registry
	HTTP      *metrics.HTTPMetrics
	WebSocket *metrics.WebSocketMetrics
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	store domain.PasteStore
	hub   relayHub

	templates *template.Template
	upgrader  websocket.Upgrader
	limits    *ConnectionLimits
	metrics   Metrics

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, store domain.PasteStore, hub relayHub, m Metrics, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		store:        store,
		hub:          hub,
		templates:    templates,
		upgrader:     newUpgrader(cfg),
		limits:       NewConnectionLimits(clockwork.NewRealClock(), cfg),
		metrics:      m,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     relay.NewCheckOrigin(cfg.IsDevelopment()),
	}
}

// Start blocks serving on the configured address until Shutdown.
func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.config.Addr())
	if err := s.echo.Start(s.config.Addr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
