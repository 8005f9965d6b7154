package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogging_PreservesStatus(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	if ip := getClientIP(req); ip != "10.0.0.1:1234" {
		t.Errorf("ip = %s, want RemoteAddr", ip)
	}

	req.Header.Set("X-Real-IP", "10.0.0.2")
	if ip := getClientIP(req); ip != "10.0.0.2" {
		t.Errorf("ip = %s, want X-Real-IP", ip)
	}

	req.Header.Set("X-Forwarded-For", "10.0.0.3")
	if ip := getClientIP(req); ip != "10.0.0.3" {
		t.Errorf("ip = %s, want X-Forwarded-For", ip)
	}
}
