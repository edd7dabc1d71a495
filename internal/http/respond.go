package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"ledger/internal/core"
	"ledger/internal/interchange"
	"ledger/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.LogError(r.Context(), "Response encoding failed", err, "", nil)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}

// writeFailure maps err to a status code. Server-side failures are logged and
// their details withheld from the client.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var ie *interchange.ImportError
	if errors.As(err, &ie) {
		body.Kind = string(ie.Kind)
	}

	if status >= 500 {
		log.LogError(r.Context(), "Request failed", err, op, nil)
		body = errorBody{Error: http.StatusText(status)}
	}
	writeJSON(w, r, status, body)
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	var ie *interchange.ImportError
	switch {
	case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, interchange.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, interchange.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, interchange.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
