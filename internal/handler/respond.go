package handler

import (
	"encoding/json"
	"net/http"
)

// envelope is the JSON wrapper every response uses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, message string, data any) {
	h.write(w, status, envelope{Success: status < 400, Message: message, Data: data})
}

// respondError reports a failure. The underlying error text is exposed only
// outside production mode.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	e := envelope{Success: false, Message: message}
	if err != nil && !h.cfg.IsProduction() {
		e.Error = err.Error()
	} else if err != nil {
		e.Error = "Internal server error"
	}
	h.write(w, status, e)
}

func (h *Handler) respondValidation(w http.ResponseWriter, errs map[string]string) {
	h.write(w, http.StatusBadRequest, envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func (h *Handler) write(w http.ResponseWriter, status int, e envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
