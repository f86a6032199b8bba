package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims(sub string) Claims {
	return Claims{
		SessionID: "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserIDFromContext(r.Context()) + "|" + SessionIDFromContext(r.Context())))
	})
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := &Authenticator{Secret: testSecret}
	handler := auth.Middleware(echoUser())

	expired := validClaims("u1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("u1")), http.StatusOK, "u1|sess-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, validClaims("u1")), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, expired), http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("")), http.StatusUnauthorized, ""},
		{"other algorithm", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, validClaims("u1")), http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profiles/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticator_EmptySecretRejects(t *testing.T) {
	auth := &Authenticator{}
	_, err := auth.UserIDFromToken(signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("u1")))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

type stubChecker struct {
	ok  bool
	err error
}

func (s stubChecker) Check(context.Context, string, string) (bool, error) { return s.ok, s.err }

func TestSessionGuard(t *testing.T) {
	withSession := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(WithUserID(r.Context(), "u1"), sessionKey, "sess-1")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	tests := []struct {
		name    string
		checker SessionChecker
		status  int
	}{
		{"match", stubChecker{ok: true}, http.StatusOK},
		{"mismatch", stubChecker{ok: false}, http.StatusUnauthorized},
		{"store down", stubChecker{err: errors.New("redis down")}, http.StatusOK},
		{"disabled", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := withSession(SessionGuard(tt.checker)(echoUser()))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(NewRateLimiter(0.001, 2))(echoUser())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)

	disabled := RateLimit(nil)(echoUser())
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ForwardedForIgnoredFromUntrustedPeer(t *testing.T) {
	handler := RateLimit(NewRateLimiter(0.001, 2))(echoUser())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_ForwardedForFromTrustedProxy(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	require.NoError(t, limiter.TrustProxies([]string{"10.0.0.0/8", "192.168.1.5"}))
	handler := RateLimit(limiter)(echoUser())

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Distinct clients behind the proxy get their own buckets.
	assert.Equal(t, http.StatusOK, send("10.0.0.1:80", "198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:80", "198.51.100.2"))
	// A spoofed left-most hop does not reset the real client's bucket.
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:80", "1.2.3.4, 198.51.100.1"))
	// Trusted hops in the chain are skipped.
	assert.Equal(t, http.StatusTooManyRequests, send("192.168.1.5:80", "198.51.100.2, 10.1.1.1"))

	assert.Error(t, limiter.TrustProxies([]string{"not-an-ip"}))
}
