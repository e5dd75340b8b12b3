package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/questhub/questhub/internal/shared"
)

// Hasher derives and verifies encoded password hashes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

// TokenIssuer mints bearer tokens for an account.
type TokenIssuer interface {
	Issue(id AccountID) (string, error)
}

// DefaultHashConcurrency bounds simultaneous hash computations. Each one
// allocates Argon2Params.Memory KiB.
const DefaultHashConcurrency = 4

// Service wraps registration and login rules.
type Service struct {
	store  Store
	hasher Hasher
	tokens TokenIssuer
	hashes *semaphore.Weighted

	dummyOnce sync.Once
	dummyHash string
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithHashConcurrency caps concurrent Hash and Verify calls at n.
func WithHashConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.hashes = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewService constructs a new Service.
func NewService(store Store, hasher Hasher, tokens TokenIssuer, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		hashes: semaphore.NewWeighted(DefaultHashConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail trims surrounding space and lower-cases the domain. The
// local part is kept verbatim since mailbox names may be case-sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + cases.Lower(language.Und).String(email[at+1:])
}

func (s *Service) hash(ctx context.Context, plaintext string) (string, error) {
	if err := s.hashes.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.hashes.Release(1)
	return s.hasher.Hash(plaintext)
}

func (s *Service) verify(ctx context.Context, encoded, plaintext string) (bool, error) {
	if err := s.hashes.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer s.hashes.Release(1)
	return s.hasher.Verify(encoded, plaintext)
}

// Register hashes the submitted password and persists the account.
func (s *Service) Register(ctx context.Context, in NewAccount) (Account, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Account{}, fmt.Errorf("%w: email and password are required", shared.ErrValidation)
	}
	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		return Account{}, fmt.Errorf("auth: register: %w", err)
	}
	account, err := s.store.AddAccount(ctx, AddAccountParams{Email: email, PasswordHash: hash})
	if err != nil {
		return Account{}, fmt.Errorf("auth: register: %w", err)
	}
	return account, nil
}

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password both yield shared.ErrWrongPassword.
func (s *Service) Login(ctx context.Context, in NewAccount) (string, error) {
	account, err := s.store.GetAccount(ctx, NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.burnVerify(ctx, in.Password)
			return "", shared.ErrWrongPassword
		}
		return "", fmt.Errorf("auth: login: %w", err)
	}

	ok, err := s.verify(ctx, account.PasswordHash, in.Password)
	if err != nil {
		return "", fmt.Errorf("auth: login: %w", err)
	}
	if !ok {
		return "", shared.ErrWrongPassword
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return "", fmt.Errorf("auth: issue token: %w", err)
	}
	return token, nil
}

// burnVerify runs one verification against a throwaway hash so the
// unknown-email path costs roughly the same as a wrong password.
func (s *Service) burnVerify(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		s.dummyHash, _ = s.hasher.Hash(hex.EncodeToString(buf))
	})
	if s.dummyHash != "" {
		_, _ = s.verify(ctx, s.dummyHash, password)
	}
}
