package httpserver

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/livepaste/internal/adapter/metrics"
	apperrors "github.com/pscheid92/livepaste/internal/platform/errors"
	"golang.org/x/time/rate"
)

// Idle visitors are forgotten after this long.
const pageVisitorExpiry = 5 * time.Minute

var errMissingClientIP = errors.New("missing client IP")

// newPageRateLimiter throttles page renders per client IP. Echo hands deny
// results straight to the HTTP error handler, so rejections are written
// here with respondError. m may be nil.
func newPageRateLimiter(ratePerSecond float64, burst int, m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	visitors := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(ratePerSecond),
		Burst:     burst,
		ExpiresIn: pageVisitorExpiry,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store:               visitors,
		IdentifierExtractor: pageVisitor,
		DenyHandler: func(c echo.Context, ip string, _ error) error {
			return respondError(c, m, apperrors.RateLimitedError("rate limit exceeded").
				WithField("route", c.Path()).
				WithField("remote_ip", ip))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return respondError(c, m, apperrors.ValidationError("client address unavailable").
				WithField("route", c.Path()))
		},
	})
}

func pageVisitor(c echo.Context) (string, error) {
	ip := c.RealIP()
	if ip == "" {
		return "", errMissingClientIP
	}
	return ip, nil
}
