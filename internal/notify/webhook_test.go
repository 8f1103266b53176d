package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylemclaren/devcoach/internal/errs"
)

func TestWebhookSend(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	wh := NewWebhook(log.New(io.Discard))
	require.NoError(t, wh.Send(srv.URL, "Check-in", "Time to focus."))
	assert.Contains(t, got.Text, "Check-in")
	assert.Contains(t, got.Text, "Time to focus.")
}

func TestWebhookSendBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	wh := NewWebhook(log.New(io.Discard))
	err := wh.Send(srv.URL, "t", "m")
	require.Error(t, err)
	assert.Equal(t, errs.KindAPI, errs.KindOf(err))
}

func TestWebhookSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	wh := NewWebhook(log.New(io.Discard))
	err := wh.Send(srv.URL, "t", "m")
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}
