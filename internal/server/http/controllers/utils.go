package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MFAIZAN20/dreamcanvas/internal/apierr"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONStatus(w, status, apierr.Envelope{Error: message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps err through the error taxonomy. Client and lookup
// errors keep their own message; everything else gets internalMsg.
func writeServiceError(w http.ResponseWriter, err error, notFoundMsg, internalMsg string) {
	status := apierr.Status(err)
	switch status {
	case http.StatusBadRequest:
		writeError(w, status, clientMessage(err))
	case http.StatusNotFound:
		writeError(w, status, notFoundMsg)
	default:
		writeError(w, http.StatusInternalServerError, internalMsg)
	}
}

// clientMessage strips the sentinel prefix from a validation error.
func clientMessage(err error) string {
	msg := err.Error()
	for _, s := range []error{apierr.ErrValidation, apierr.ErrInvalidInput} {
		if errors.Is(err, s) {
			prefix := s.Error() + ": "
			if i := strings.Index(msg, prefix); i >= 0 {
				return msg[i+len(prefix):]
			}
		}
	}
	return msg
}

// pathInt parses a path wildcard as an int64.
func pathInt(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
