package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthzEndpoint(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	data, ok := envelope["data"].(map[string]any)
	if !ok || data["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", envelope)
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope["success"] != false {
		t.Fatalf("not-found must use the failure envelope: %v", envelope)
	}
	if _, ok := envelope["error"].(string); !ok {
		t.Fatalf("error must be a string message: %v", envelope)
	}
}

func TestMethodNotAllowedUsesErrorEnvelope(t *testing.T) {
	router := NewRouter(WithOrderHandlers(NewOrderHandlers(&stubOrderService{}, nil)))

	req := httptest.NewRequest(http.MethodPatch, "/orders/ord_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope["success"] != false {
		t.Fatalf("expected failure envelope: %v", envelope)
	}
}
