package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylemclaren/devcoach/internal/errs"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient("test-key")
	c.baseURL = srv.URL
	return c, srv
}

func TestGenerateReply(t *testing.T) {
	var gotKey string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Nice progress. "},{"text":"Keep going."}]}}]}`))
	})
	defer srv.Close()

	reply, err := c.GenerateReply(context.Background(), "how am I doing?")
	require.NoError(t, err)
	assert.Equal(t, "Nice progress. Keep going.", reply)
	assert.Equal(t, "test-key", gotKey)
}

func TestGenerateReplyAPIError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})
	defer srv.Close()

	_, err := c.GenerateReply(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errs.KindAPI, errs.KindOf(err))
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerateReplyNetworkError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // closed server: connection refused

	_, err := c.GenerateReply(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}

func TestGenerateReplyNoCandidates(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	defer srv.Close()

	_, err := c.GenerateReply(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errs.KindAPI, errs.KindOf(err))
}

func TestGenerateReplyValidation(t *testing.T) {
	c := NewClient("")
	_, err := c.GenerateReply(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	c = NewClient("key")
	_, err = c.GenerateReply(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestFallbackNeverEmpty(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.NotEmpty(t, Fallback())
	}
}
