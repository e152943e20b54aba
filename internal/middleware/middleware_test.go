package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticValidator map[string]string

func (v staticValidator) ValidateJWT(token string) (string, error) {
	userID, ok := v[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return userID, nil
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(staticValidator{"good": "u1"})(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "Invalid authorization header format"},
		{"bad token", "Bearer bad", http.StatusUnauthorized, "Invalid token"},
		{"ok", "Bearer good", http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestValidateWebSocketToken(t *testing.T) {
	v := staticValidator{"good": "u1"}

	_, err := ValidateWebSocketToken("", v)
	assert.Error(t, err)

	userID, err := ValidateWebSocketToken("good", v)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestKeyedRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyedRateLimiter(3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("u1"))
	}
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))

	now = now.Add(20 * time.Second)
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))

	now = now.Add(10 * time.Minute)
	l.evictIdle()
	assert.Empty(t, l.limiters)
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(NewKeyedRateLimiter(1))(echoUser())

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if userID != "" {
			req = req.WithContext(WithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("u1"))
	assert.Equal(t, http.StatusTooManyRequests, send("u1"))
	assert.Equal(t, http.StatusOK, send("u2"))
	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
}
