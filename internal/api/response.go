package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the JSON envelope for API endpoints.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Pre-marshaled fallback for when response encoding itself fails.
var internalErrorJSON = []byte(`{"status":"error","error":"internal server error"}`)

// writeJSONResponse writes resp with the given HTTP status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("API failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(internalErrorJSON)
		return
	}

	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Error("API failed to write response", "error", err)
	}
}
