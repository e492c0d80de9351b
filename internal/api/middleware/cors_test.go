package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/middleware"
)

func TestNewCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="DIV-2025-0001.pdf"`)
		w.WriteHeader(http.StatusOK)
	})
	h := chimiddleware.RequestID(middleware.EchoRequestID(middleware.NewCORS([]string{"https://app.example.com"}).Handler(next)))

	t.Run("exposes download and request id headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dividend/x/download", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Expected allowed origin, got %q", got)
		}
		exposed := w.Header().Get("Access-Control-Expose-Headers")
		for _, want := range []string{"Content-Disposition", "X-Request-Id"} {
			if !strings.Contains(exposed, want) {
				t.Errorf("Expected %s to be exposed, got %q", want, exposed)
			}
		}
		if w.Header().Get("X-Request-Id") == "" {
			t.Error("Expected X-Request-Id response header")
		}
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dividend", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Expected no allowed origin, got %q", got)
		}
	})

	t.Run("preflight allows the request id header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/dividend/generate", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Request-Id")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
		if !strings.Contains(allowed, "x-request-id") {
			t.Errorf("Expected X-Request-Id to be allowed, got %q", allowed)
		}
	})
}
