package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	auth := newAuthMiddleware(testAdminToken)
	handler := auth.authenticate(okHandler())

	tests := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{name: "missing token", token: "", status: http.StatusUnauthorized, message: "No token provided, authorization denied"},
		{name: "wrong token", token: "guess", status: http.StatusForbidden, message: "Invalid token, access denied"},
		{name: "prefix of secret", token: testAdminToken[:4], status: http.StatusForbidden, message: "Invalid token, access denied"},
		{name: "valid token", token: testAdminToken, status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			if tt.token != "" {
				req.Header.Set(adminTokenHeader, tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				env := decodeEnvelope(t, rec)
				assert.False(t, env.Success)
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestAuthenticate_EmptySecretRejectsEverything(t *testing.T) {
	handler := newAuthMiddleware("").authenticate(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(adminTokenHeader, "anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogInternalServerErrors_RecoversPanics(t *testing.T) {
	handler := LogInternalServerErrors(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/blogs/create", nil)
	req.Header.Set("Origin", "https://admin.vitaprozen.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := app.do(req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(map[string]string{}, Dependencies{})
	assert.Error(t, err)

	app := newTestApp(t)
	server, err := NewServer(map[string]string{
		"ADMIN_SECRET_TOKEN":   testAdminToken,
		"PORT":                 "8081",
		"READ_TIMEOUT_SECONDS": "5",
	}, Dependencies{
		Database:   newTestDatabase(app.repo),
		MediaStore: app.store,
		Cleaner:    app.cleaner,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", server.Addr)
	assert.Equal(t, 5*time.Second, server.ReadTimeout)
	assert.Equal(t, 60*time.Second, server.WriteTimeout)
	assert.Equal(t, 120*time.Second, server.IdleTimeout)
	assert.GreaterOrEqual(t, server.Uptime(), time.Duration(0))
}
