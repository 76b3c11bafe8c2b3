package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	errBadContentType = errors.New("request body must have Content-Type: application/json")
	errMalformedJSON  = errors.New("request body must be valid JSON matching the expected schema")
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// parseJSON decodes the request body as JSON into v, requiring an
// application/json Content-Type and rejecting unknown fields.
func parseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return errBadContentType
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errMalformedJSON
	}
	return nil
}
