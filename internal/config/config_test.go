package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ASSEMBLY_API_KEY", "MURF_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "TELEGRAM_BOT_TOKEN",
	"STT_PROVIDER", "LLM_PROVIDER", "TTS_PROVIDER", "STT_MODEL", "LLM_MODEL",
	"OPENAI_TTS_MODEL", "OPENAI_TTS_VOICE", "OPENAI_TTS_FORMAT", "DEFAULT_VOICE", "CONTEXT_MESSAGE_LIMIT",
	"SESSION_STORE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SQL_DRIVER", "SQL_DSN",
	"UPLOAD_DIR", "AUDIO_DIR", "AUDIO_RETENTION", "HTTP_ADDR", "ADMIN_USER_IDS", "ALLOWED_TELEGRAM_USER_IDS",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every key Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ProviderAssemblyAI, cfg.STTProvider)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, ProviderMurf, cfg.TTSProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.Equal(t, "best", cfg.STTModel)
	assert.Equal(t, "en-US-natalie", cfg.DefaultVoice)
	assert.Equal(t, 19, cfg.ContextLimit)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.AudioRetention)
	assert.Empty(t, cfg.MurfKey)
}

func TestLoad_AudioRetention(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "agent.yaml", "audio_retention: 90m\n")

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.AudioRetention)

	t.Setenv("AUDIO_RETENTION", "2h")
	cfg, err = Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.AudioRetention)

	t.Setenv("AUDIO_RETENTION", "soon")
	cfg, err = Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.AudioRetention)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"), "")
	require.NoError(t, err)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	path := writeFile(t, ".env", `
# comment
export MURF_API_KEY="murf-from-file"
GEMINI_API_KEY=from-file
ADMIN_USER_IDS=1, 2,bad
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "murf-from-file", cfg.MurfKey)
	assert.Equal(t, "from-env", cfg.GeminiKey)
	assert.Equal(t, []int64{1, 2}, cfg.AdminUserIDs)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "agent.yaml", `
llm_provider: openai
default_voice: en-US-ken
context_message_limit: 10
session_store: sql
sql:
  driver: sqlite
  dsn: ":memory:"
redis:
  addr: redis:6379
`)
	t.Setenv("DEFAULT_VOICE", "en-UK-hazel")

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, "en-UK-hazel", cfg.DefaultVoice)
	assert.Equal(t, 10, cfg.ContextLimit)
	assert.Equal(t, StoreSQL, cfg.SessionStore)
	assert.Equal(t, ":memory:", cfg.SQL.DSN)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "uploads", cfg.UploadDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "bad.yaml", "llm_provider: [")
	_, err := Load("", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"STT_PROVIDER", "deepgram", `unknown stt provider "deepgram"`},
		{"LLM_PROVIDER", "claude", `unknown llm provider "claude"`},
		{"TTS_PROVIDER", "polly", `unknown tts provider "polly"`},
		{"SESSION_STORE", "etcd", `unknown session store "etcd"`},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_InvalidIntKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONTEXT_MESSAGE_LIMIT", "twenty")
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 19, cfg.ContextLimit)
}

func TestConfig_Credentials(t *testing.T) {
	t.Parallel()
	cfg := Config{
		AssemblyAIKey: "aai",
		MurfKey:       "murf",
		GeminiKey:     "gem",
		OpenAIKey:     "oai",
		STTProvider:   ProviderAssemblyAI,
		LLMProvider:   ProviderGemini,
		TTSProvider:   ProviderMurf,
	}
	assert.Equal(t, "aai", cfg.TranscriberKey())
	assert.Equal(t, "AssemblyAI API key", cfg.TranscriberCredential())
	assert.Equal(t, "gem", cfg.GeneratorKey())
	assert.Equal(t, "Gemini API key", cfg.GeneratorCredential())
	assert.Equal(t, "murf", cfg.SynthesizerKey())
	assert.Equal(t, "Murf API key", cfg.SynthesizerCredential())

	cfg.STTProvider, cfg.LLMProvider, cfg.TTSProvider = ProviderOpenAI, ProviderOpenAI, ProviderOpenAI
	assert.Equal(t, "oai", cfg.TranscriberKey())
	assert.Equal(t, "oai", cfg.GeneratorKey())
	assert.Equal(t, "oai", cfg.SynthesizerKey())
	assert.Equal(t, "OpenAI API key", cfg.SynthesizerCredential())
}

func TestConfig_SynthesisBypass(t *testing.T) {
	t.Parallel()
	tests := []struct {
		provider, key string
		want          bool
	}{
		{ProviderMurf, "your_api_key_here", true},
		{ProviderMurf, "test_key", true},
		{ProviderMurf, "real-key", false},
		{ProviderMurf, "", false},
		{ProviderOpenAI, "test_key", true},
	}
	for _, tt := range tests {
		cfg := Config{TTSProvider: tt.provider, MurfKey: tt.key, OpenAIKey: tt.key}
		assert.Equal(t, tt.want, cfg.SynthesisBypass(), "%s/%q", tt.provider, tt.key)
	}
}

func TestConfig_CredentialPreviews(t *testing.T) {
	t.Parallel()
	cfg := Config{MurfKey: "abcdefghij", GeminiKey: "abc"}
	got := cfg.CredentialPreviews()
	require.NotNil(t, got[ProviderMurf])
	assert.Equal(t, "abcdef...", *got[ProviderMurf])
	require.NotNil(t, got[ProviderGemini])
	assert.Equal(t, "abc...", *got[ProviderGemini])
	assert.Nil(t, got[ProviderAssemblyAI])
	assert.Nil(t, got[ProviderOpenAI])
}

func TestConfig_SlogLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, Config{LogLevel: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warning"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{}.SlogLevel())
}

func TestParseEnvLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line, key, val string
		ok             bool
	}{
		{"A=b", "A", "b", true},
		{"export A = 'quoted'", "A", "quoted", true},
		{"=value", "", "", false},
		{"novalue", "", "", false},
	}
	for _, tt := range tests {
		k, v, ok := parseEnvLine(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.key, k, tt.line)
		assert.Equal(t, tt.val, v, tt.line)
	}
}
