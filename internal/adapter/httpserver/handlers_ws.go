package httpserver

import (
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/livepaste/internal/domain"
	"github.com/pscheid92/livepaste/internal/platform/correlation"
	apperrors "github.com/pscheid92/livepaste/internal/platform/errors"
)

func (s *Server) handleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()
	ip := c.RealIP()

	if !websocket.IsWebSocketUpgrade(c.Request()) {
		return apperrors.ValidationError("websocket upgrade required")
	}

	if ok, reason := s.limits.Acquire(ip); !ok {
		if s.metrics.WebSocket != nil {
			s.metrics.WebSocket.RejectedConnections.WithLabelValues(string(reason)).Inc()
		}
		if reason == LimitReasonGlobal {
			return apperrors.UnavailableError("server at connection capacity")
		}
		return apperrors.RateLimitedError("too many connections").WithField("reason", string(reason))
	}
	defer s.limits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		slog.WarnContext(ctx, "WebSocket upgrade failed", "remote_ip", ip, "error", err)
		return nil
	}
	conn.SetReadLimit(s.config.MaxMessageBytes)

	clientID, err := s.hub.Register(conn)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to register with hub", "error", err)
		_ = conn.Close()
		return nil
	}
	ctx = correlation.WithClientID(ctx, clientID)
	slog.DebugContext(ctx, "WebSocket connected", "remote_ip", ip)

	// Read pump; blocks until the connection closes.
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.DebugContext(ctx, "WebSocket closed unexpectedly", "error", err)
			}
			break
		}

		if err := s.hub.Receive(ctx, conn, frame); err != nil {
			if errors.Is(err, domain.ErrHubStopped) {
				break
			}
			slog.WarnContext(ctx, "Dropped websocket frame", "error", err)
		}
	}

	s.hub.Unregister(conn)
	slog.DebugContext(ctx, "WebSocket disconnected")

	return nil
}
