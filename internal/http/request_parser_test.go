package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/report"
	"fxdesk/internal/services"
)

func TestParseReportRequest(t *testing.T) {
	q := url.Values{}
	q.Set("branchid", " A1 ")
	q.Set("today", "TRUE")
	q.Set("from", "2026-01-01")
	q.Set("to", "2026-01-31\x00")

	assert.Equal(t, services.ReportRequest{
		BranchID:  "A1",
		TodayOnly: true,
		From:      "2026-01-01",
		To:        "2026-01-31",
	}, ParseReportRequest(q))

	assert.False(t, ParseReportRequest(url.Values{"today": {"nope"}}).TodayOnly)
}

func TestParseSearchQuery(t *testing.T) {
	q := ParseSearchQuery(url.Values{})
	assert.Equal(t, report.Query{Page: 1, PerPage: report.DefaultPerPage}, q)

	q = ParseSearchQuery(url.Values{
		"q":        {" usd "},
		"currency": {"EUR"},
		"page":     {"3"},
		"per_page": {"50"},
	})
	assert.Equal(t, report.Query{Term: "usd", Currency: "EUR", Page: 3, PerPage: 50}, q)

	q = ParseSearchQuery(url.Values{"page": {"x"}, "per_page": {"y"}})
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, report.DefaultPerPage, q.PerPage)
}

func TestParseID(t *testing.T) {
	withID := func(id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParseID(withID("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseID(withID(bad))
		assert.Error(t, err, bad)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Rate string `json:"rate"`
	}
	decodeBody := func(body string) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return DecodeJSON(httptest.NewRecorder(), r, &dst)
	}

	require.NoError(t, decodeBody(`{"rate":"1.5"}`))
	assert.Equal(t, "1.5", dst.Rate)

	assert.ErrorIs(t, decodeBody(``), errEmptyBody)
	assert.ErrorContains(t, decodeBody(`{"rate":1}`), "invalid JSON")
	assert.ErrorContains(t, decodeBody(`{"other":"x"}`), "invalid JSON")
	assert.ErrorContains(t, decodeBody(`{"rate":"1"} {"rate":"2"}`), "unexpected data")
	assert.Error(t, decodeBody(`{"rate":"`+strings.Repeat("9", maxBodyBytes)+`"}`))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "abc", sanitizeInput("  a\x01b\x1fc "))
	assert.Equal(t, "a\tb", sanitizeInput("a\tb"))
}
