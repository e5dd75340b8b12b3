package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/questhub/questhub/internal/platform/httpx"
	"github.com/questhub/questhub/internal/shared"
)

// TokenVerifier turns a raw token into a Session.
type TokenVerifier interface {
	Verify(token string) (Session, error)
}

// Guard converts the Authorization header into a Session.
type Guard struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(verifier TokenVerifier, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{verifier: verifier, logger: logger}
}

// tokenFromHeader accepts both "Bearer <token>" and a bare token.
func tokenFromHeader(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}

// Authenticate verifies the request's Authorization header.
func (g *Guard) Authenticate(r *http.Request) (Session, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return Session{}, shared.ErrCannotDecryptToken
	}
	return g.verifier.Verify(tokenFromHeader(raw))
}

// Require rejects requests without a valid token with 401.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.Authenticate(r)
		if err != nil {
			g.logger.Debug("auth guard rejected request", slog.String("path", r.URL.Path))
			httpx.RespondError(w, shared.ErrCannotDecryptToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}
