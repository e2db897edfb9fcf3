package inference

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

	"github.com/sakif/codefixer/internal/apperror"
)

// chatRequest is the subset of the request body the tests inspect.
type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newTestServer starts an OpenAI-compatible fake. handle receives the
// decoded request and writes the response.
func newTestServer(t *testing.T, handle func(w http.ResponseWriter, req chatRequest)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handle(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.APIKey = "test-key"
	opts.BaseURL = srv.URL + "/v1"
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func writeCompletion(w http.ResponseWriter, contents ...string) {
	choices := make([]map[string]any, 0, len(contents))
	for i, c := range contents {
		choices = append(choices, map[string]any{
			"index":         i,
			"message":       map[string]string{"role": "assistant", "content": c},
			"finish_reason": "stop",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"model":   "test-model",
		"choices": choices,
	})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Options{APIKey: "  "})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Options{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultTemperature, c.temperature)
	assert.Equal(t, DefaultMaxTokens, c.maxTokens)
}

func TestComplete_SendsSingleUserMessage(t *testing.T) {
	var got chatRequest
	srv, calls := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		writeCompletion(w, "  Looks correct.\n")
	})
	c := newTestClient(t, srv, Options{Model: "gpt-test"})

	text, err := c.Complete(context.Background(), "Fix this python code: def f(): pass")
	require.NoError(t, err)

	assert.Equal(t, "Looks correct.", text)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "gpt-test", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 0.0001)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Fix this python code: def f(): pass", got.Messages[0].Content)
}

func TestComplete_UsesFirstChoice(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ chatRequest) {
		writeCompletion(w, "first", "second")
	})
	c := newTestClient(t, srv, Options{})

	text, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "first", text)
}

func TestComplete_ProviderErrorIsUpstream(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, _ chatRequest) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "Incorrect API key provided",
				"type":    "invalid_request_error",
			},
		})
	})
	c := newTestClient(t, srv, Options{})

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)

	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Equal(t, int32(1), calls.Load(), "a failed call must not be retried")
}

func TestComplete_NoChoicesIsUpstream(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ chatRequest) {
		writeCompletion(w)
	})
	c := newTestClient(t, srv, Options{})

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
}

func TestComplete_EmptyContentIsAnEmptyAnswer(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ chatRequest) {
		writeCompletion(w, "   ")
	})
	c := newTestClient(t, srv, Options{})

	text, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestComplete_TimeoutIsUpstream(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ chatRequest) {
		<-release
		writeCompletion(w, "too late")
	})
	defer close(release)
	c := newTestClient(t, srv, Options{Timeout: 50 * time.Millisecond})

	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
}
