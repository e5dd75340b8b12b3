package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questhub/questhub/internal/auth"
	_ "github.com/questhub/questhub/testing"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordedEvents) AuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+":"+outcome)
}

func newAuthRouter(t *testing.T) (http.Handler, *auth.MemoryStore, *recordedEvents) {
	t.Helper()
	store := auth.NewMemoryStore()
	tokens := auth.NewTokenManager([]byte("handler-test-secret-handler-test!"), 24*time.Hour)
	hasher := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 32})
	guard := auth.NewGuard(tokens, nil)
	events := &recordedEvents{}
	handler := auth.NewHandler(nil, auth.NewService(store, hasher, tokens), guard, events)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, store, events
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const credentials = `{"email":"a@b.c","password":"hunter2"}`

func TestRegistration(t *testing.T) {
	router, store, events := newAuthRouter(t)

	res := do(t, router, http.MethodPost, "/registration", credentials, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Account added", res.Body.String())

	stored, err := store.GetAccount(t.Context(), "a@b.c")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	res = do(t, router, http.MethodPost, "/registration", credentials, nil)
	assert.Equal(t, http.StatusConflict, res.Code)

	assert.Equal(t, []string{"register:success", "register:failure"}, events.events)
}

func TestRegistrationValidation(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	for _, body := range []string{`{"email":"","password":"x"}`, `{"email":"a@b.c"}`, `not json`} {
		res := do(t, router, http.MethodPost, "/registration", body, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code, "body %s", body)
	}
}

func TestLoginFlow(t *testing.T) {
	router, store, _ := newAuthRouter(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/registration", credentials, nil).Code)

	res := do(t, router, http.MethodPost, "/login", credentials, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var token string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &token))
	assert.Equal(t, 2, strings.Count(token, "."))

	stored, err := store.GetAccount(t.Context(), "a@b.c")
	require.NoError(t, err)

	for _, header := range []string{token, "Bearer " + token} {
		res = do(t, router, http.MethodGet, "/session", "", map[string]string{"Authorization": header})
		require.Equal(t, http.StatusOK, res.Code)

		var sess struct {
			AccountID int32     `json:"account_id"`
			NotBefore time.Time `json:"nbf"`
			ExpiresAt time.Time `json:"exp"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &sess))
		assert.Equal(t, int32(stored.ID), sess.AccountID)
		assert.Equal(t, 24*time.Hour, sess.ExpiresAt.Sub(sess.NotBefore))
	}
}

func TestLoginRejections(t *testing.T) {
	router, _, events := newAuthRouter(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/registration", credentials, nil).Code)

	wrong := do(t, router, http.MethodPost, "/login", `{"email":"a@b.c","password":"WRONG"}`, nil)
	unknown := do(t, router, http.MethodPost, "/login", `{"email":"z@b.c","password":"hunter2"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, []string{"register:success", "login:failure", "login:failure"}, events.events)
}

func TestSessionRequiresToken(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	res := do(t, router, http.MethodGet, "/session", "", map[string]string{"Authorization": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "cannot decrypt token")

	res = do(t, router, http.MethodGet, "/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
