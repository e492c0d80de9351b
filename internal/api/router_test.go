package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/config"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

const (
	routerSecret = "router-secret"
	routerAPIKey = "internal-key"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db)

	cfg := &config.Config{
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{JWTSecret: routerSecret, InternalAPIKey: routerAPIKey},
	}
	return api.NewRouter(api.Services{
		System:    svc.System,
		Usage:     svc.Usage,
		Companies: svc.Companies,
		Schedules: svc.Schedules,
		Runs:      svc.Runs,
		Documents: svc.Documents,
		BoardPack: svc.BoardPack,
		Downloads: svc.Downloads,
		Delivery:  svc.Delivery,
		Runner:    svc.Runner,
		Tax:       svc.Tax,
	}, cfg, svc.Metrics, testutil.DiscardLogger())
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	t.Run("health needs no token", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "dividend_admin_run_due_duration_seconds")
	})

	t.Run("verify rejects a malformed id", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/verify/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CORS preflight allows the frontend origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/company", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		w := serve(router, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRouter_Authentication(t *testing.T) {
	router := newTestRouter(t)

	t.Run("rejects requests without a token", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/api/company", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts a signed token and creates the profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req.Header.Set("Authorization", bearer(t, testutil.MakeID()))

		w := serve(router, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), `"plan":"trial"`), w.Body.String())
	})

	t.Run("company ids must be UUIDs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/company/42", nil)
		req.Header.Set("Authorization", bearer(t, testutil.MakeID()))

		w := serve(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_InternalRoutes(t *testing.T) {
	router := newTestRouter(t)

	t.Run("rejects a missing API key", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("a user token is not enough", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil)
		req.Header.Set("Authorization", bearer(t, testutil.MakeID()))

		w := serve(router, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("runs with the API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil)
		req.Header.Set("X-API-Key", routerAPIKey)

		w := serve(router, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"due":0`)
	})
}
