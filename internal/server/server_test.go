package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		BindAddress:     "127.0.0.1:0",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 1,
		Listener: config.ListenerConfig{
			DetectFormat:  true,
			DefaultFormat: "json",
			DecodeBody:    true,
			Negotiation:   "first",
			Formats:       map[string]string(codec.DefaultFormatMap()),
			MaxBodyBytes:  1024,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logrus.SetLevel(logrus.PanicLevel)
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	srv, err := NewServer(cfg, "test")
	require.NoError(t, err)
	return srv.Handler()
}

type echoResponse struct {
	Method string         `json:"method"`
	Format string         `json:"format"`
	Params map[string]any `json:"params"`
}

func TestServer_EchoDecodesJSONBody(t *testing.T) {
	handler := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "json", resp.Format)
	assert.Equal(t, "POST", resp.Method)
	assert.Equal(t, map[string]any{"a": float64(1)}, resp.Params)
}

func TestServer_EchoAnswersInNegotiatedFormat(t *testing.T) {
	handler := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPut, "/echo", strings.NewReader("name: widget\n"))
	req.Header.Set("Content-Type", "application/x-yaml")
	req.Header.Set("Accept", "application/json;q=0.5, text/xml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<format>xml</format>")
	assert.Contains(t, body, "<name>widget</name>")
}

func TestServer_PathSuffixSetsFormat(t *testing.T) {
	handler := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/echo.yaml", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "format: yaml")
}

func TestServer_PathSuffixIsCaseInsensitive(t *testing.T) {
	handler := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/echo.XML", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/xml"))
	assert.Contains(t, rec.Body.String(), "<format>xml</format>")
}

func TestServer_MalformedBodyIsRejected(t *testing.T) {
	handler := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{invalid`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestServer_DecodingDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Listener.DecodeBody = false
	handler := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{invalid`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Params)
}

func TestServer_UnresolvedFormatFallsBackToJSON(t *testing.T) {
	cfg := testConfig()
	cfg.Listener.DefaultFormat = ""
	handler := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Accept", "image/png")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp echoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "", resp.Format)
}

func TestServer_Health(t *testing.T) {
	handler := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestNewServer_UnknownNegotiation(t *testing.T) {
	cfg := testConfig()
	cfg.Listener.Negotiation = "fancy"

	srv, err := NewServer(cfg, "test")
	assert.Error(t, err)
	assert.Nil(t, srv)
}
