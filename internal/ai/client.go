// Package ai talks to the Gemini text-generation API. Every failure
// is classified so callers can degrade to a canned coaching message
// instead of surfacing transport noise to the user.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/kylemclaren/devcoach/internal/errs"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/" + defaultModel + ":generateContent"
	defaultModel   = "gemini-2.5-flash"

	// Conversational requests get a generous budget; the connectivity
	// probe should fail fast.
	replyTimeout   = 30 * time.Second
	connectTimeout = 10 * time.Second
)

// Client is a Gemini generateContent API client.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
}

// GenerateReply sends the prompt and returns the model's text reply.
func (c *Client) GenerateReply(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errs.New(errs.KindValidation, "prompt must not be empty")
	}
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	return c.generate(ctx, prompt)
}

// TestConnection verifies the key and connectivity with a short,
// tightly bounded request.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	_, err := c.generate(ctx, "Reply with the single word: ok")
	return err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errs.New(errs.KindValidation,
			"AI API key not set; use /config set ai_api_key YOUR_API_KEY")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errs.Wrap(errs.KindAPI, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", errs.Wrap(errs.KindAPI, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "contacting AI service", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindNetwork, "reading AI response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error.Message != "" {
			return "", errs.Newf(errs.KindAPI, "AI service error (%s): %s", ae.Error.Status, ae.Error.Message)
		}
		return "", errs.Newf(errs.KindAPI, "AI service returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", errs.Wrap(errs.KindAPI, "decoding AI response", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errs.New(errs.KindAPI, "AI service returned no candidates")
	}

	var out strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return strings.TrimSpace(out.String()), nil
}

// fallbacks are used whenever the AI capability is unavailable.
var fallbacks = []string{
	"I couldn't reach the AI service just now, but here's a nudge anyway: pick the one task that matters most and give it twenty focused minutes.",
	"Connection trouble on my end. While I sort myself out, how about closing the smallest open task on your list?",
	"No coaching from the cloud this time. Quick self-check instead: is the task you're on still the right one to be on?",
	"The AI service is unreachable at the moment. A short break and a glass of water never hurt anyone.",
}

// Fallback returns a canned coaching message.
func Fallback() string {
	return fallbacks[rand.Intn(len(fallbacks))]
}
