package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// errEnvelope is the error payload shape for 4xx/5xx responses.
type errEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 response with success:true merged into the payload fields,
// so clients see {"success":true, "overview":..., ...} rather than a nested
// data object.
func OK(w http.ResponseWriter, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true
	JSON(w, http.StatusOK, payload)
}

// Error writes {"success":false,"error":message}. Use for client errors (4xx).
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errEnvelope{Success: false, Error: message})
}

// BadRequest writes a 400 error naming the offending field or parameter.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// InternalError writes a 500 error. Logs the real error but returns a
// generic message to the client (never leak internals).
func InternalError(w http.ResponseWriter, err error) {
	log.Printf("[httputil] internal error: %v", err)
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Unavailable writes a 503 for transient backend failures (DB unreachable).
func Unavailable(w http.ResponseWriter, err error) {
	log.Printf("[httputil] backend unavailable: %v", err)
	Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
