package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"luvlang_server/utils"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	userKey    ctxKey = "uid"
	sessionKey ctxKey = "sid"
)

var ErrUnauthorized = errors.New("unauthorized")

// Authenticator verifies HS256 access tokens issued by the auth provider.
// The "sub" claim is the user id; "session_id" identifies the session.
type Authenticator struct {
	Secret []byte
}

type Claims struct {
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Verify parses token and returns its claims.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	if len(a.Secret) == 0 {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// UserIDFromToken is the form the socket hub uses to authenticate joins.
func (a *Authenticator) UserIDFromToken(token string) (string, error) {
	claims, err := a.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			utils.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := a.Verify(token)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := WithUserID(r.Context(), claims.Subject)
		ctx = context.WithValue(ctx, sessionKey, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" when there is none.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}
