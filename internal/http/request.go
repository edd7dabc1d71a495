package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/locale"
	"ledger/internal/table"
)

// labelsFor picks the catalogue from ?lang= or Accept-Language, falling back
// to the server's default locale.
func (s *Server) labelsFor(r *http.Request) *locale.Labels {
	pref := strings.TrimSpace(r.URL.Query().Get("lang"))
	if pref == "" {
		pref = r.Header.Get("Accept-Language")
	}
	if pref == "" {
		return s.defaultLabels
	}
	return locale.Match(pref)
}

func entityParam(r *http.Request) (core.EntityType, error) {
	return core.ParseEntityType(r.PathValue("entity"))
}

// parseQuery reads the list parameters. Page numbers that do not parse are
// left at zero and clamped by the table layer; malformed dates are rejected.
func parseQuery(r *http.Request, labels *locale.Labels) (table.Query, error) {
	v := r.URL.Query()
	q := table.Query{
		Search:    sanitizeInput(v.Get("q")),
		DateField: strings.TrimSpace(v.Get("date_field")),
		SortKey:   strings.TrimSpace(v.Get("sort")),
		Direction: table.ParseDirection(v.Get("dir")),
		Page:      atoi(v.Get("page")),
		PageSize:  atoi(v.Get("size")),
		Locale:    labels.Tag,
	}

	var err error
	if q.From, err = dateParam(v.Get("from")); err != nil {
		return q, fmt.Errorf("from: %w", err)
	}
	if q.To, err = dateParam(v.Get("to")); err != nil {
		return q, fmt.Errorf("to: %w", err)
	}
	return q, nil
}

func dateParam(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
