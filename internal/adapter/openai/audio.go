package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	openaiapi "github.com/sashabaranov/go-openai"
)

// AudioRoute is the URL prefix synthesized files are served under.
const AudioRoute = "/audio/"

var speechVoices = map[string]bool{
	"alloy": true, "ash": true, "ballad": true, "coral": true,
	"echo": true, "fable": true, "nova": true, "onyx": true,
	"sage": true, "shimmer": true, "verse": true,
}

func newFileName() string { return uuid.NewString() }

// Transcribe uploads the file at path to Whisper.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openaiapi.AudioRequest{
		Model:    c.transcribe,
		FilePath: path,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Synthesize renders text into a file under the audio directory and
// returns its URL path. Voices unknown to OpenAI fall back to the
// configured one.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if !speechVoices[voice] {
		voice = c.speech.Voice
	}

	resp, err := c.api.CreateSpeech(ctx, openaiapi.CreateSpeechRequest{
		Model:          openaiapi.SpeechModel(c.speech.Model),
		Input:          text,
		Voice:          openaiapi.SpeechVoice(voice),
		ResponseFormat: openaiapi.SpeechResponseFormat(c.speech.Format),
	})
	if err != nil {
		return "", err
	}
	defer resp.Close()

	if err := os.MkdirAll(c.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	name := c.newName() + "." + c.speech.Format
	f, err := os.Create(filepath.Join(c.audioDir, name))
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, resp); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}

	if c.retention > 0 {
		if n, err := pruneAudio(c.audioDir, c.now().Add(-c.retention)); err != nil {
			c.logger.Warn("prune audio dir", "dir", c.audioDir, "err", err)
		} else if n > 0 {
			c.logger.Debug("pruned audio files", "dir", c.audioDir, "removed", n)
		}
	}
	return AudioRoute + name, nil
}

// pruneAudio removes regular files in dir last modified before cutoff and
// returns how many it removed.
func pruneAudio(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
