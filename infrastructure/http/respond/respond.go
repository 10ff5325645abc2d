package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope wraps every response body: code mirrors the HTTP status, data is
// omitted on errors.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, log *slog.Logger, status int, message string, data any) {
	encode(w, log, Envelope{Code: status, Message: message, Data: data})
}

func Error(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	encode(w, log, Envelope{Code: status, Message: message})
}

// encode cannot change the status once the header is out, so a failed write
// is only logged.
func encode(w http.ResponseWriter, log *slog.Logger, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(envelope.Code)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		log.Warn("Response not delivered", "code", envelope.Code, "message", envelope.Message, "error", err)
	}
}
