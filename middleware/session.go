package middleware

import (
	"context"
	"log"
	"net/http"

	"luvlang_server/services"
	"luvlang_server/utils"
)

type SessionChecker interface {
	Check(ctx context.Context, sessionID, fingerprint string) (bool, error)
}

// RequestFingerprint hashes the device headers of r.
func RequestFingerprint(r *http.Request) string {
	return services.Fingerprint(r.UserAgent(), r.Header.Get("Accept-Language"), r.Header.Get("X-Device-Id"))
}

// SessionGuard rejects a session used from a different device than the one
// that first presented it. Requests without a session id pass through, and so
// do requests when the guard's store is unavailable.
func SessionGuard(checker SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromContext(r.Context())
			if checker == nil || sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := checker.Check(r.Context(), sessionID, RequestFingerprint(r))
			if err != nil {
				log.Printf("⚠️ Session check unavailable: %v", err)
			} else if !ok {
				utils.WriteError(w, http.StatusUnauthorized, "session fingerprint mismatch")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
