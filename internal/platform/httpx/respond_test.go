package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, http.StatusCreated, map[string]any{"orderNumber": "LM-2026-000001"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope["success"] != true {
		t.Fatalf("success = %v", envelope["success"])
	}
	data := envelope["data"].(map[string]any)
	if data["orderNumber"] != "LM-2026-000001" {
		t.Fatalf("data = %v", data)
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	err := NewError("persistence_failure", "something went wrong", http.StatusInternalServerError).
		WithCause(errors.New("rpc error: code = Unavailable desc = connection refused"))
	WriteError(context.Background(), rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope["success"] != false {
		t.Fatalf("success = %v", envelope["success"])
	}
	if envelope["error"] != "something went wrong" {
		t.Fatalf("error = %v", envelope["error"])
	}
	if body := rec.Body.String(); strings.Contains(body, "Unavailable") || strings.Contains(body, "persistence_failure") {
		t.Fatalf("internal detail leaked: %s", body)
	}
}

func TestNewErrorSanitisesMessage(t *testing.T) {
	err := NewError("code", "line one\nline two\r\n", http.StatusBadRequest)
	if err.Message != "line one line two" {
		t.Fatalf("message = %q", err.Message)
	}
}
