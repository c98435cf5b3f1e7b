// Package murf synthesizes speech with the Murf text-to-speech API.
package murf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-agent/internal/usecase/tts"
)

var _ tts.Client = (*Client)(nil)

const (
	defaultEndpoint = "https://api.murf.ai/v1/speech/generate"
	requestTimeout  = 30 * time.Second
)

type generateRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// generateResponse lists every field Murf has been seen to return the audio
// location under.
type generateResponse struct {
	AudioFile   string `json:"audioFile"`
	AudioURL    string `json:"audio_url"`
	URL         string `json:"url"`
	AudioURLAlt string `json:"audioUrl"`
	File        string `json:"file"`
	DownloadURL string `json:"download_url"`
}

func (r generateResponse) location() string {
	for _, v := range []string{r.AudioFile, r.AudioURL, r.URL, r.AudioURLAlt, r.File, r.DownloadURL} {
		if v != "" {
			return v
		}
	}
	return ""
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

type Option func(*Client)

// WithEndpoint replaces the generate endpoint URL.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient replaces the HTTP client. Its timeout applies as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: requestTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Synthesize returns the hosted URL of the rendered speech. An empty URL
// with a nil error means Murf answered without one.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (string, error) {
	body, err := json.Marshal(generateRequest{Text: text, VoiceID: voice})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Murf API error: %s", apiMessage(respBody))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode murf response: %w", err)
	}
	return out.location(), nil
}

func apiMessage(body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}
