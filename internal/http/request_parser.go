// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fxdesk/internal/report"
	"fxdesk/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// DecodeJSON reads one JSON object from r into dst. Unknown fields and
// trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: unexpected data after object")
	}
	return nil
}

// ParseID reads the {id} path parameter.
func ParseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// ParseReportRequest extracts branchid, today, from and to.
func ParseReportRequest(query url.Values) services.ReportRequest {
	return services.ReportRequest{
		BranchID:  sanitizeInput(query.Get("branchid")),
		TodayOnly: parseBool(query.Get("today")),
		From:      sanitizeInput(query.Get("from")),
		To:        sanitizeInput(query.Get("to")),
	}
}

// ParseSearchQuery extracts q, currency, page and per_page. Malformed
// numbers fall back to the defaults.
func ParseSearchQuery(query url.Values) report.Query {
	q := report.Query{
		Term:     sanitizeInput(query.Get("q")),
		Currency: sanitizeInput(query.Get("currency")),
		Page:     1,
		PerPage:  report.DefaultPerPage,
	}
	if v, err := strconv.Atoi(strings.TrimSpace(query.Get("page"))); err == nil {
		q.Page = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(query.Get("per_page"))); err == nil {
		q.PerPage = v
	}
	return q
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
