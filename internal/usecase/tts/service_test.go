package tts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-agent/internal/config"
	"voice-agent/internal/domain"
	"voice-agent/internal/mock"
	"voice-agent/internal/usecase/tts"
)

func cfgWithKey(key string) config.Config {
	return config.Config{
		TTSProvider:  config.ProviderMurf,
		MurfKey:      key,
		DefaultVoice: "en-US-natalie",
	}
}

func TestService_Synthesize(t *testing.T) {
	t.Parallel()

	t.Run("calls client with voice", func(t *testing.T) {
		t.Parallel()
		svc := tts.NewService(&mock.Synthesizer{
			SynthesizeFn: func(ctx context.Context, text, voice string) (string, error) {
				assert.Equal(t, "hello", text)
				assert.Equal(t, "en-US-ken", voice)
				return "https://cdn.example/a.mp3", nil
			},
		}, cfgWithKey("real"))
		got, err := svc.Synthesize(context.Background(), "hello", "en-US-ken")
		require.NoError(t, err)
		assert.Equal(t, tts.Speech{AudioURL: "https://cdn.example/a.mp3", Voice: "en-US-ken"}, got)
	})

	t.Run("blank voice uses default", func(t *testing.T) {
		t.Parallel()
		svc := tts.NewService(&mock.Synthesizer{
			SynthesizeFn: func(ctx context.Context, text, voice string) (string, error) {
				assert.Equal(t, "en-US-natalie", voice)
				return "u", nil
			},
		}, cfgWithKey("real"))
		_, err := svc.Synthesize(context.Background(), "hello", " ")
		require.NoError(t, err)
	})

	t.Run("missing url", func(t *testing.T) {
		t.Parallel()
		svc := tts.NewService(&mock.Synthesizer{
			SynthesizeFn: func(ctx context.Context, text, voice string) (string, error) {
				return "", nil
			},
		}, cfgWithKey("real"))
		_, err := svc.Synthesize(context.Background(), "hello", "v")
		assert.ErrorIs(t, err, domain.ErrNoAudioURL)
		assert.EqualError(t, err, "TTS failed: No audio URL returned")
	})

	t.Run("client error", func(t *testing.T) {
		t.Parallel()
		svc := tts.NewService(&mock.Synthesizer{
			SynthesizeFn: func(ctx context.Context, text, voice string) (string, error) {
				return "", errors.New("Murf API error: invalid voice")
			},
		}, cfgWithKey("real"))
		_, err := svc.Synthesize(context.Background(), "hello", "v")
		assert.EqualError(t, err, "TTS failed: Murf API error: invalid voice")
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		svc := tts.NewService(&mock.Synthesizer{}, cfgWithKey("real"))
		_, err := svc.Synthesize(context.Background(), "  ", "v")
		assert.ErrorIs(t, err, tts.ErrEmptyText)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		svc := tts.NewService(nil, cfgWithKey(""))
		_, err := svc.Synthesize(context.Background(), "hello", "v")
		assert.EqualError(t, err, "Murf API key not configured")
	})
}

func TestService_Bypass(t *testing.T) {
	t.Parallel()
	// The client would panic if called: SynthesizeFn is unset.
	svc := tts.NewService(&mock.Synthesizer{}, cfgWithKey("test_key"))
	require.True(t, svc.Bypassed())
	require.NoError(t, svc.Check())

	a, err := svc.Synthesize(context.Background(), "hi there", "en-US-natalie")
	require.NoError(t, err)
	b, err := svc.Synthesize(context.Background(), "hi there", "en-US-ken")
	require.NoError(t, err)

	assert.True(t, a.Bypassed)
	assert.Equal(t, config.PlaceholderAudioURL, a.AudioURL)
	assert.Equal(t, a.AudioURL, b.AudioURL)
	assert.Equal(t, "en-US-ken", b.Voice)
}

func TestService_BypassWithoutClient(t *testing.T) {
	t.Parallel()
	svc := tts.NewService(nil, cfgWithKey("your_api_key_here"))
	got, err := svc.Synthesize(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, config.PlaceholderAudioURL, got.AudioURL)
	assert.Equal(t, "en-US-natalie", got.Voice)
}
