// Package httputil provides the JSON response helpers shared by the API
// handlers.
package httputil

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a successful JSON response (200 OK).
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteJSONError writes an {"error": msg} body with the given status
// code. The message takes Printf-style formatting.
func WriteJSONError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	WriteJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// BadRequest writes a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, format string, args ...interface{}) {
	WriteJSONError(w, http.StatusBadRequest, format, args...)
}

// InternalServerError writes a 500 Internal Server Error response.
func InternalServerError(w http.ResponseWriter, format string, args ...interface{}) {
	WriteJSONError(w, http.StatusInternalServerError, format, args...)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, format string, args ...interface{}) {
	WriteJSONError(w, http.StatusNotFound, format, args...)
}
