package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorResponse(rec, http.StatusBadRequest, "user_id is required")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Ожидался 400, получено %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Неожиданный Content-Type: %s", ct)
	}
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Не удалось разобрать ответ: %v", err)
	}
	if env.Success || env.Error != "user_id is required" {
		t.Errorf("Неожиданный конверт: %+v", env)
	}
}

func TestDataResponse_KeepsNull(t *testing.T) {
	rec := httptest.NewRecorder()
	DataResponse(rec, http.StatusOK, nil)

	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true,"data":null}` {
		t.Errorf("Неожиданное тело: %s", got)
	}
}

func TestMessageResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	MessageResponse(rec, http.StatusOK, "done")

	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true,"message":"done"}` {
		t.Errorf("Неожиданное тело: %s", got)
	}
}
