package newrelic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitNewRelic_Disabled(t *testing.T) {
	cfg := &models.Config{}
	cfg.NewRelic.Enabled = true // no license key

	assert.Nil(t, InitNewRelic(cfg))
}

func TestEchoMiddleware_NilAppPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(EchoMiddleware(nil))
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHelpersWithoutTransaction(t *testing.T) {
	end := StartSegment(context.Background(), "noop")
	end()
	AddAttribute(context.Background(), "k", "v")
	NoticeError(context.Background(), assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	called := false
	resp, err := InstrumentHTTPRequest(req, func() (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
