package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/errs"
)

// Webhook relays coaching messages to a user-configured chat webhook
// (Slack-compatible "text" payload).
type Webhook struct {
	client *http.Client
	log    *log.Logger
}

type webhookPayload struct {
	Text string `json:"text"`
}

// NewWebhook creates a webhook relay.
func NewWebhook(logger *log.Logger) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}
}

// Send posts the message to the webhook URL.
func (w *Webhook) Send(webhookURL, title, message string) error {
	payload := webhookPayload{Text: fmt.Sprintf("*%s*\n%s", title, message)}
	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(errs.KindAPI, "encoding webhook payload", err)
	}

	resp, err := w.client.Post(webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		return errs.Wrap(errs.KindNetwork, "sending webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.Newf(errs.KindAPI, "webhook returned status %d", resp.StatusCode)
	}
	return nil
}
