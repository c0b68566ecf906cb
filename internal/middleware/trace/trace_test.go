package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "fxdesk/internal/log"
)

func newBufferedLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelDebug, Format: "json", Output: buf})
}

func TestHandler_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newBufferedLogger(&buf), func(*http.Request) string { return "198.51.100.1" })

	var seen string
	var ctxLogger *applog.Logger
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ctxLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))

	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	require.NotNil(t, ctxLogger)
	assert.Equal(t, applog.ComponentTrace, ctxLogger.Component())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var done map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))
	assert.Equal(t, "HTTP request completed", done["msg"])
	assert.Equal(t, seen, done[applog.FieldRequestID])
	assert.Equal(t, "198.51.100.1", done[applog.FieldClientIP])
	assert.EqualValues(t, http.StatusCreated, done[applog.FieldStatusCode])
}

func TestHandler_PropagatesValidRequestID(t *testing.T) {
	m := NewMiddleware(newBufferedLogger(&bytes.Buffer{}), nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "bad id\n")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id\n", rec.Header().Get(HeaderRequestID))
}

func TestHandler_CountsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newBufferedLogger(&buf), nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	got := m.GetMetrics()
	assert.EqualValues(t, 2, got.TotalRequests)
	assert.EqualValues(t, 2, got.ServerErrors)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
