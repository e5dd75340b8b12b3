package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/questhub/questhub/internal/shared"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 24 * time.Hour

// TokenManager mints and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the wall clock used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager constructs a TokenManager. A non-positive ttl selects
// DefaultTokenTTL.
func NewTokenManager(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &TokenManager{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }),
	)
	return m
}

// Issue returns a signed token for id with iat = nbf = now and
// exp = now + ttl.
func (m *TokenManager) Issue(id AccountID) (string, error) {
	now := m.now().UTC().Truncate(time.Second)
	claims := Claims{
		AccountID: int32(id),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses token and enforces signature, algorithm, nbf <= now and
// now < exp. Every failure is reported as shared.ErrCannotDecryptToken.
func (m *TokenManager) Verify(token string) (Session, error) {
	claims := &Claims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, shared.ErrCannotDecryptToken
	}
	if claims.NotBefore == nil || claims.ExpiresAt == nil {
		return Session{}, shared.ErrCannotDecryptToken
	}
	return Session{
		AccountID: AccountID(claims.AccountID),
		NotBefore: claims.NotBefore.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
