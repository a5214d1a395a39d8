package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type M map[string]any

// RespondWithError writes the failure envelope.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"success": false, "error": msg})
}

// RespondWithSuccess writes the success envelope; fields are merged next to "success".
func RespondWithSuccess(w http.ResponseWriter, code int, fields M) {
	body := M{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	RespondWithJSON(w, code, body)
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// DecodeJSON decodes an optional JSON body. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return Validation("Invalid JSON")
	}
	return nil
}
