package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Config{Enabled: true, Token: "s3cret"})(ok)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"healthz exempt", "GET", "/healthz", "", http.StatusOK},
		{"metrics exempt", "GET", "/metrics", "", http.StatusOK},
		{"metadata exempt", "GET", "/api/v1/spaceweather/metadata", "", http.StatusOK},
		{"atmosphere exempt", "GET", "/api/v1/atmosphere", "", http.StatusOK},
		{"atmosphere at exempt", "GET", "/api/v1/atmosphere/at", "", http.StatusOK},
		{"prefix lookalike protected", "GET", "/api/v1/atmospherex", "", http.StatusUnauthorized},
		{"fetch without token", "POST", "/api/v1/spaceweather/fetch", "", http.StatusUnauthorized},
		{"drag without token", "POST", "/api/v1/drag", "", http.StatusUnauthorized},
		{"wrong token", "POST", "/api/v1/drag", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "POST", "/api/v1/drag", "Basic s3cret", http.StatusUnauthorized},
		{"empty bearer", "POST", "/api/v1/drag", "Bearer ", http.StatusUnauthorized},
		{"valid token", "POST", "/api/v1/drag", "Bearer s3cret", http.StatusOK},
		{"lowercase scheme", "POST", "/api/v1/spaceweather/fetch", "bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	h := Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/spaceweather/fetch", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}
