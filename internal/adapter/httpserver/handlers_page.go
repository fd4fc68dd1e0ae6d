package httpserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// pageData feeds index.html. SessionID is fresh per render and tags the
// edits this page sends.
type pageData struct {
	Content    string
	SessionID  string
	Persistent bool
}

func (s *Server) handleIndex(c echo.Context) error {
	return s.renderTemplate(c, "index.html", pageData{
		Content:    s.store.Current(),
		SessionID:  uuid.NewString(),
		Persistent: false,
	})
}

func (s *Server) handlePersistent(c echo.Context) error {
	return s.renderTemplate(c, "index.html", pageData{
		Content:    s.store.Persistent(),
		SessionID:  uuid.NewString(),
		Persistent: true,
	})
}
