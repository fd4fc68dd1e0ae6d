package httpserver

import (
	"context"
	"html/template"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/livepaste/internal/domain"
	"github.com/pscheid92/livepaste/internal/platform/config"
)

// --- Test doubles ---

type fakeStore struct {
	mu         sync.Mutex
	current    string
	persistent string
	applied    []domain.Message
}

func (f *fakeStore) Apply(msg domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, msg)
	if msg.Persistent {
		f.persistent = msg.Content
	} else {
		f.current = msg.Content
	}
}

func (f *fakeStore) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeStore) Persistent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.persistent
}

type stubHub struct {
	registerErr error
}

func (h *stubHub) Register(*websocket.Conn) (string, error) {
	return "client-1", h.registerErr
}

func (h *stubHub) Unregister(*websocket.Conn) {}

func (h *stubHub) Receive(context.Context, *websocket.Conn, []byte) error { return nil }

// --- Server construction ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "development",
		Host:                    "127.0.0.1",
		Port:                    "0",
		MaxWebSocketConnections: 100,
		MaxConnectionsPerIP:     10,
		ConnectionRatePerSecond: 100,
		ConnectionBurst:         100,
		MaxMessageBytes:         1 << 20,
		PageRatePerSecond:       100,
		PageBurst:               100,
		ShutdownTimeout:         time.Second,
	}
}

func newTestServer(t *testing.T, store domain.PasteStore, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("index.html").Parse(
		`{{if .Persistent}}persistent{{else}}expiring{{end}}|{{.SessionID}}|<textarea>{{.Content}}</textarea>`))

	cfg := testConfig()
	srv := &Server{
		echo:      echo.New(),
		config:    cfg,
		store:     store,
		hub:       &stubHub{},
		templates: tmpl,
		upgrader:  newUpgrader(cfg),
		limits:    NewConnectionLimits(clockwork.NewRealClock(), cfg),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withHub(hub relayHub) func(*Server) {
	return func(s *Server) {
		s.hub = hub
	}
}

func withMetrics(m Metrics) func(*Server) {
	return func(s *Server) {
		s.metrics = m
	}
}

func withConfig(mutate func(*config.Config)) func(*Server) {
	return func(s *Server) {
		mutate(s.config)
		s.upgrader = newUpgrader(s.config)
		s.limits = NewConnectionLimits(clockwork.NewRealClock(), s.config)
	}
}
