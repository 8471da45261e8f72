package api

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type response struct {
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

type pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"hasMore"`
	NextOffset int  `json:"nextOffset"`
}

func newResponse(status int, message string) response {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "Unknown status"
	}
	return response{Message: message, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
}

func sendResponse(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnf("failed to write response: %v", err)
	}
}
