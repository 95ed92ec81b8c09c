// Package http содержит общие помощники для JSON-ответов API.
package http

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope общий формат ответа API
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSONResponse пишет успешный ответ с данными
func JSONResponse(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data})
}

// DataResponse пишет успешный ответ, в котором поле data присутствует даже при nil
func DataResponse(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}{Success: true, Data: data})
}

// MessageResponse пишет успешный ответ с сообщением
func MessageResponse(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Success: true, Message: message})
}

// ErrorResponse пишет ответ с ошибкой
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: message})
}

// RawJSON пишет произвольное значение без конверта
func RawJSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, v)
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
