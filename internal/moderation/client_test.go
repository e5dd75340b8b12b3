package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{URL: url, APIKey: "test-key", InitialInterval: time.Millisecond})
}

func writeChoice(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
}

func TestCheckSendsRequestAndTrims(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeChoice(w, "  this is ****  \n")
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Check(context.Background(), "this is shit")
	require.NoError(t, err)
	assert.Equal(t, "this is ****", out)

	assert.Equal(t, DefaultModel, got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "this is shit")
}

func TestCheckRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeChoice(w, "clean")
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Check(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "clean", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCheckGivesUpAfterThreeRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Check(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.IsClient())
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus())
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, "Moderation service unavailable", apiErr.Title())
	assert.Equal(t, int32(4), calls.Load())
}

func TestCheckClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Check(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsClient())
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus())
	assert.Equal(t, "Unknown error", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Check(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "No response from AI model", apiErr.Message)
}

func TestCheckCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChoice(w, "never")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv.URL).Check(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPassthrough(t *testing.T) {
	out, err := Passthrough{}.Check(context.Background(), "unchanged")
	require.NoError(t, err)
	assert.Equal(t, "unchanged", out)
}
