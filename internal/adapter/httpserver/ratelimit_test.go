package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/livepaste/internal/adapter/metrics"
	apperrors "github.com/pscheid92/livepaste/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRemoteAddr = "1.2.3.4:1234"

// newLimitedEcho mounts a limited GET /page the way registerRoutes mounts pages.
func newLimitedEcho(ratePerSecond float64, burst int, m *metrics.HTTPMetrics) *echo.Echo {
	e := echo.New()
	e.GET("/page", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, newPageRateLimiter(ratePerSecond, burst, m))
	return e
}

func serveLimited(e *echo.Echo, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPageRateLimiter_AllowsRequestsUnderLimit(t *testing.T) {
	e := newLimitedEcho(10, 3, nil)

	for range 3 {
		rec := serveLimited(e, testRemoteAddr)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestPageRateLimiter_RejectsWithStructuredError(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	e := newLimitedEcho(0.01, 1, m)

	assert.Equal(t, http.StatusOK, serveLimited(e, testRemoteAddr).Code)

	rec := serveLimited(e, testRemoteAddr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rate limit exceeded", resp.Error)
	assert.Equal(t, apperrors.TypeRateLimited, resp.Type)
	assert.Equal(t, "/page", resp.Context["route"])
	assert.Equal(t, "1.2.3.4", resp.Context["remote_ip"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(string(apperrors.TypeRateLimited))))
}

func TestPageRateLimiter_DifferentIPsAreIndependent(t *testing.T) {
	e := newLimitedEcho(0.01, 1, nil)

	assert.Equal(t, http.StatusOK, serveLimited(e, testRemoteAddr).Code)
	assert.Equal(t, http.StatusOK, serveLimited(e, "5.6.7.8:5678").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveLimited(e, testRemoteAddr).Code)
}

func TestPageRateLimiter_MissingClientAddress(t *testing.T) {
	e := newLimitedEcho(10, 3, nil)

	rec := serveLimited(e, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
}
