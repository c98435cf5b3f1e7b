package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/adapter/openai"
)

func newServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hello?", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"hi there"}}]}`)
	})

	c := openai.NewClient("sk-test", openai.WithBaseURL(base))
	got, err := c.Generate(context.Background(), "hello?", "")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestClient_GenerateNoChoices(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})

	c := openai.NewClient("sk-test", openai.WithBaseURL(base))
	_, err := c.Generate(context.Background(), "hello?", "gpt-4o")
	assert.EqualError(t, err, "openai returned empty response")
}

func TestClient_GenerateAPIError(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	c := openai.NewClient("sk-test", openai.WithBaseURL(base))
	_, err := c.Generate(context.Background(), "hello?", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestClient_Transcribe(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "RIFF", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"spoken words"}`)
	})

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

	c := openai.NewClient("sk-test", openai.WithBaseURL(base))
	got, err := c.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "spoken words", got)
}

func TestClient_Synthesize(t *testing.T) {
	t.Parallel()

	var voices []string
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		var req struct {
			Model  string `json:"model"`
			Input  string `json:"input"`
			Voice  string `json:"voice"`
			Format string `json:"response_format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tts-1", req.Model)
		assert.Equal(t, "Hello", req.Input)
		assert.Equal(t, "mp3", req.Format)
		voices = append(voices, req.Voice)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-bytes"))
	})

	dir := t.TempDir()
	c := openai.NewClient("sk-test",
		openai.WithBaseURL(base),
		openai.WithAudioDir(dir),
		openai.WithSpeech(openai.SpeechOptions{Model: "tts-1", Voice: "alloy"}),
	)
	c.SetNameSource(func() string { return "fixed" })

	url, err := c.Synthesize(context.Background(), "Hello", "nova")
	require.NoError(t, err)
	assert.Equal(t, "/audio/fixed.mp3", url)

	data, err := os.ReadFile(filepath.Join(dir, "fixed.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "ID3-bytes", string(data))

	_, err = c.Synthesize(context.Background(), "Hello", "en-US-natalie")
	require.NoError(t, err)
	assert.Equal(t, []string{"nova", "alloy"}, voices)
}

func TestClient_SynthesizeAPIError(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"input too long"}}`)
	})

	dir := t.TempDir()
	c := openai.NewClient("sk-test", openai.WithBaseURL(base), openai.WithAudioDir(dir),
		openai.WithSpeech(openai.SpeechOptions{Model: "tts-1"}))
	_, err := c.Synthesize(context.Background(), "Hello", "")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_SynthesizePrunesOldFiles(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	})

	dir := t.TempDir()
	now := time.Now()
	stale := filepath.Join(dir, "stale.mp3")
	fresh := filepath.Join(dir, "fresh.mp3")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o600))
	require.NoError(t, os.Chtimes(stale, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))
	require.NoError(t, os.Chtimes(fresh, now.Add(-time.Hour), now.Add(-time.Hour)))

	c := openai.NewClient("sk-test",
		openai.WithBaseURL(base),
		openai.WithAudioDir(dir),
		openai.WithSpeech(openai.SpeechOptions{Model: "tts-1"}),
		openai.WithRetention(24*time.Hour),
	)
	c.SetNameSource(func() string { return "latest" })
	c.SetClock(func() time.Time { return now })

	_, err := c.Synthesize(context.Background(), "Hello", "")
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, filepath.Join(dir, "latest.mp3"))
}

func TestClient_SynthesizeKeepsFilesWithoutRetention(t *testing.T) {
	t.Parallel()
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ID3"))
	})

	dir := t.TempDir()
	old := filepath.Join(dir, "old.mp3")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o600))
	past := time.Now().Add(-365 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	c := openai.NewClient("sk-test", openai.WithBaseURL(base), openai.WithAudioDir(dir),
		openai.WithSpeech(openai.SpeechOptions{Model: "tts-1"}))
	_, err := c.Synthesize(context.Background(), "Hello", "")
	require.NoError(t, err)

	assert.FileExists(t, old)
}
