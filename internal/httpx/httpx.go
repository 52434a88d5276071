// Package httpx holds the small set of HTTP response conventions shared by
// the local handler and the aggregator: JSON encoding, error-kind to status
// mapping, and the headers every response carries.
package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"logserv/internal/apperr"
)

// WriteJSON writes v as indented JSON with a trailing newline and
// Cache-Control: no-cache, matching spec.md §6's response media type.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// Encode of our own response types should never fail; if it
		// somehow does, fall back to a bare 500 rather than panic.
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// errorBody is the {error: message} payload shape from spec.md §6.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError classifies err into an HTTP status per spec.md §7 and writes
// the {error} payload. Unexpected errors are logged server-side with a
// stack trace and never leak their message to the client.
func WriteError(w http.ResponseWriter, log *logrus.Entry, err error) {
	ae := apperr.As(err)
	switch ae.Kind {
	case apperr.Validation:
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: ae.Message})
	case apperr.NotFound:
		WriteJSON(w, http.StatusNotFound, errorBody{Error: "Not Found"})
	default:
		log.Errorf("internal error: %s: %+v", ae.Message, ae.Cause)
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
	}
}
