package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questhub/questhub/internal/shared"
)

func newTestService(t *testing.T) (*Service, *MemoryStore, *TokenManager) {
	t.Helper()
	store := NewMemoryStore()
	tokens := NewTokenManager(testSecret, time.Hour)
	return NewService(store, NewPasswordHasher(cheapParams), tokens), store, tokens
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	svc, store, _ := newTestService(t)

	account, err := svc.Register(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotZero(t, account.ID)

	stored, err := store.GetAccount(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), NewAccount{Email: " a@B.C ", Password: "other"})
	assert.ErrorIs(t, err, shared.ErrDuplicateAccount)
}

func TestRegisterRequiresFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), NewAccount{Email: "  ", Password: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Register(context.Background(), NewAccount{Email: "a@b.c"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newTestService(t)
	account, err := svc.Register(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	require.NoError(t, err)

	sess, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, sess.AccountID)
}

func TestLoginCoarseFailures(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), NewAccount{Email: "a@b.c", Password: "WRONG"})
	_, unknownEmail := svc.Login(context.Background(), NewAccount{Email: "nobody@b.c", Password: "hunter2"})

	assert.ErrorIs(t, wrongPassword, shared.ErrWrongPassword)
	assert.ErrorIs(t, unknownEmail, shared.ErrWrongPassword)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginMalformedStoredHash(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, err := store.AddAccount(context.Background(), AddAccountParams{Email: "a@b.c", PasswordHash: "not-a-hash"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	assert.ErrorIs(t, err, shared.ErrArgonLibrary)
}

type brokenStore struct{ err error }

func (b brokenStore) AddAccount(context.Context, AddAccountParams) (Account, error) {
	return Account{}, b.err
}

func (b brokenStore) GetAccount(context.Context, string) (Account, error) { return Account{}, b.err }

func TestLoginStoreFailure(t *testing.T) {
	storeErr := errors.Join(shared.ErrDatabaseQuery, errors.New("pool closed"))
	svc := NewService(brokenStore{err: storeErr}, NewPasswordHasher(cheapParams), NewTokenManager(testSecret, time.Hour))

	_, err := svc.Login(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	assert.ErrorIs(t, err, shared.ErrDatabaseQuery)
	assert.NotErrorIs(t, err, shared.ErrWrongPassword)

	_, err = svc.Register(context.Background(), NewAccount{Email: "a@b.c", Password: "hunter2"})
	assert.ErrorIs(t, err, shared.ErrDatabaseQuery)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.c", NormalizeEmail("  a@B.c "))
	assert.Equal(t, "Alice@example.com", NormalizeEmail("Alice@EXAMPLE.com"))
	assert.Equal(t, "straße@x", NormalizeEmail("straße@x"))
	assert.NotEqual(t, NormalizeEmail("strasse@x"), NormalizeEmail("straße@x"))
	assert.Equal(t, "no-at-sign", NormalizeEmail(" no-at-sign "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

type gatedHasher struct {
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (h *gatedHasher) enter() {
	n := h.active.Add(1)
	for {
		peak := h.peak.Load()
		if n <= peak || h.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-h.release
	h.active.Add(-1)
}

func (h *gatedHasher) Hash(plaintext string) (string, error) {
	h.enter()
	return "hashed:" + plaintext, nil
}

func (h *gatedHasher) Verify(encoded, plaintext string) (bool, error) {
	h.enter()
	return encoded == "hashed:"+plaintext, nil
}

func TestHashConcurrencyIsBounded(t *testing.T) {
	hasher := &gatedHasher{release: make(chan struct{})}
	svc := NewService(NewMemoryStore(), hasher, NewTokenManager(testSecret, time.Hour), WithHashConcurrency(2))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), NewAccount{Email: fmt.Sprintf("u%d@b.c", i), Password: "pw"})
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return hasher.active.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 2, hasher.active.Load())

	close(hasher.release)
	wg.Wait()
	assert.EqualValues(t, 2, hasher.peak.Load())
}

func TestHashWaitHonoursContext(t *testing.T) {
	hasher := &gatedHasher{release: make(chan struct{})}
	svc := NewService(NewMemoryStore(), hasher, NewTokenManager(testSecret, time.Hour), WithHashConcurrency(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Register(context.Background(), NewAccount{Email: "first@b.c", Password: "pw"})
	}()
	require.Eventually(t, func() bool { return hasher.active.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Register(ctx, NewAccount{Email: "second@b.c", Password: "pw"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(hasher.release)
	<-done
}
