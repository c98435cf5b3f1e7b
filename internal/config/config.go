package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderAssemblyAI = "assemblyai"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderMurf       = "murf"

	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"

	// PlaceholderAudioURL is returned instead of real speech in bypass mode.
	PlaceholderAudioURL = "https://www.soundjay.com/misc/sounds/bell-ringing-05.wav"
)

// placeholderKeys are credential values that mark an unconfigured or test
// deployment of the synthesis provider.
var placeholderKeys = []string{"your_api_key_here", "test_key"}

type Config struct {
	AssemblyAIKey string `yaml:"assemblyai_api_key"`
	MurfKey       string `yaml:"murf_api_key"`
	GeminiKey     string `yaml:"gemini_api_key"`
	OpenAIKey     string `yaml:"openai_api_key"`
	TelegramToken string `yaml:"telegram_bot_token"`

	STTProvider string `yaml:"stt_provider"`
	LLMProvider string `yaml:"llm_provider"`
	TTSProvider string `yaml:"tts_provider"`

	STTModel     string `yaml:"stt_model"`
	LLMModel     string `yaml:"llm_model"`
	TTSModel     string `yaml:"openai_tts_model"`
	TTSVoice     string `yaml:"openai_tts_voice"`
	TTSFormat    string `yaml:"openai_tts_format"`
	DefaultVoice string `yaml:"default_voice"`
	ContextLimit int    `yaml:"context_message_limit"`

	SessionStore string      `yaml:"session_store"`
	Redis        RedisConfig `yaml:"redis"`
	SQL          SQLConfig   `yaml:"sql"`

	UploadDir string `yaml:"upload_dir"`
	AudioDir  string `yaml:"audio_dir"`
	HTTPAddr  string `yaml:"http_addr"`

	// AudioRetention is how long synthesized files are kept. Zero keeps
	// them forever.
	AudioRetention time.Duration `yaml:"audio_retention"`

	AdminUserIDs   []int64 `yaml:"admin_user_ids"`
	AllowedUserIDs []int64 `yaml:"allowed_telegram_user_ids"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func defaults() Config {
	return Config{
		STTProvider:    ProviderAssemblyAI,
		LLMProvider:    ProviderGemini,
		TTSProvider:    ProviderMurf,
		TTSModel:       "gpt-4o-mini-tts",
		TTSVoice:       "alloy",
		TTSFormat:      "mp3",
		DefaultVoice:   "en-US-natalie",
		ContextLimit:   19,
		SessionStore:   StoreMemory,
		Redis:          RedisConfig{Addr: "localhost:6379"},
		SQL:            SQLConfig{Driver: "sqlite", DSN: "voice-agent.db"},
		UploadDir:      "uploads",
		AudioDir:       "audio",
		AudioRetention: 24 * time.Hour,
		HTTPAddr:       ":8000",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads the dotenv file at envPath and the optional YAML file at
// yamlPath. Precedence is defaults, then YAML, then the environment.
func Load(envPath, yamlPath string) (Config, error) {
	if envPath != "" {
		if err := loadDotEnv(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not read .env", "path", envPath, "err", err)
		}
	}

	cfg := defaults()
	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", yamlPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", yamlPath, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(&c.AssemblyAIKey, "ASSEMBLY_API_KEY")
	envString(&c.MurfKey, "MURF_API_KEY")
	envString(&c.GeminiKey, "GEMINI_API_KEY")
	envString(&c.OpenAIKey, "OPENAI_API_KEY")
	envString(&c.TelegramToken, "TELEGRAM_BOT_TOKEN")

	envString(&c.STTProvider, "STT_PROVIDER")
	envString(&c.LLMProvider, "LLM_PROVIDER")
	envString(&c.TTSProvider, "TTS_PROVIDER")

	envString(&c.STTModel, "STT_MODEL")
	envString(&c.LLMModel, "LLM_MODEL")
	envString(&c.TTSModel, "OPENAI_TTS_MODEL")
	envString(&c.TTSVoice, "OPENAI_TTS_VOICE")
	envString(&c.TTSFormat, "OPENAI_TTS_FORMAT")
	envString(&c.DefaultVoice, "DEFAULT_VOICE")
	envInt(&c.ContextLimit, "CONTEXT_MESSAGE_LIMIT")

	envString(&c.SessionStore, "SESSION_STORE")
	envString(&c.Redis.Addr, "REDIS_ADDR")
	envString(&c.Redis.Password, "REDIS_PASSWORD")
	envInt(&c.Redis.DB, "REDIS_DB")
	envString(&c.SQL.Driver, "SQL_DRIVER")
	envString(&c.SQL.DSN, "SQL_DSN")

	envString(&c.UploadDir, "UPLOAD_DIR")
	envString(&c.AudioDir, "AUDIO_DIR")
	envDuration(&c.AudioRetention, "AUDIO_RETENTION")
	envString(&c.HTTPAddr, "HTTP_ADDR")

	if raw, ok := os.LookupEnv("ADMIN_USER_IDS"); ok {
		c.AdminUserIDs = parseIDs(raw)
	}
	if raw, ok := os.LookupEnv("ALLOWED_TELEGRAM_USER_IDS"); ok {
		c.AllowedUserIDs = parseIDs(raw)
	}

	envString(&c.LogLevel, "LOG_LEVEL")
	envString(&c.LogFormat, "LOG_FORMAT")
}

func (c *Config) applyDefaults() {
	c.STTProvider = strings.ToLower(c.STTProvider)
	c.LLMProvider = strings.ToLower(c.LLMProvider)
	c.TTSProvider = strings.ToLower(c.TTSProvider)
	c.SessionStore = strings.ToLower(c.SessionStore)

	if c.STTModel == "" {
		c.STTModel = "best"
		if c.STTProvider == ProviderOpenAI {
			c.STTModel = "whisper-1"
		}
	}
	if c.LLMModel == "" {
		c.LLMModel = "gemini-2.5-flash"
		if c.LLMProvider == ProviderOpenAI {
			c.LLMModel = "gpt-4o-mini"
		}
	}
	if c.ContextLimit <= 0 {
		c.ContextLimit = 19
	}
}

func (c *Config) validate() error {
	var errs []string
	if c.STTProvider != ProviderAssemblyAI && c.STTProvider != ProviderOpenAI {
		errs = append(errs, fmt.Sprintf("unknown stt provider %q", c.STTProvider))
	}
	if c.LLMProvider != ProviderGemini && c.LLMProvider != ProviderOpenAI {
		errs = append(errs, fmt.Sprintf("unknown llm provider %q", c.LLMProvider))
	}
	if c.TTSProvider != ProviderMurf && c.TTSProvider != ProviderOpenAI {
		errs = append(errs, fmt.Sprintf("unknown tts provider %q", c.TTSProvider))
	}
	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	case StoreSQL:
		if c.SQL.Driver != "sqlite" && c.SQL.Driver != "mysql" {
			errs = append(errs, fmt.Sprintf("unknown sql driver %q", c.SQL.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown session store %q", c.SessionStore))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// TranscriberKey returns the credential of the selected transcription provider.
func (c Config) TranscriberKey() string {
	if c.STTProvider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.AssemblyAIKey
}

// TranscriberCredential names the transcription credential in error messages.
func (c Config) TranscriberCredential() string {
	if c.STTProvider == ProviderOpenAI {
		return "OpenAI API key"
	}
	return "AssemblyAI API key"
}

func (c Config) GeneratorKey() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.GeminiKey
}

func (c Config) GeneratorCredential() string {
	if c.LLMProvider == ProviderOpenAI {
		return "OpenAI API key"
	}
	return "Gemini API key"
}

func (c Config) SynthesizerKey() string {
	if c.TTSProvider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.MurfKey
}

func (c Config) SynthesizerCredential() string {
	if c.TTSProvider == ProviderOpenAI {
		return "OpenAI API key"
	}
	return "Murf API key"
}

// SynthesisBypass reports whether the synthesis credential is a known
// placeholder. In that case speech is never requested from the provider.
func (c Config) SynthesisBypass() bool {
	key := c.SynthesizerKey()
	for _, p := range placeholderKeys {
		if key == p {
			return true
		}
	}
	return false
}

// CredentialPreviews returns the first characters of every provider key,
// keyed by provider, with nil for unset keys.
func (c Config) CredentialPreviews() map[string]*string {
	keys := map[string]string{
		ProviderAssemblyAI: c.AssemblyAIKey,
		ProviderMurf:       c.MurfKey,
		ProviderGemini:     c.GeminiKey,
		ProviderOpenAI:     c.OpenAIKey,
	}
	out := make(map[string]*string, len(keys))
	for name, key := range keys {
		if key == "" {
			out[name] = nil
			continue
		}
		preview := key
		if len(preview) > 6 {
			preview = preview[:6]
		}
		preview += "..."
		out[name] = &preview
	}
	return out
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseIDs(raw string) []int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			slog.Warn("skipping user id", "value", p, "err", err)
			continue
		}
		ids = append(ids, v)
	}
	return ids
}

func envString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid int, keeping current value", "key", key, "value", v, "current", *dst)
		return
	}
	*dst = n
}

func envDuration(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, keeping current value", "key", key, "value", v, "current", *dst)
		return
	}
	*dst = d
}

func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, val)
		}
	}
	return scanner.Err()
}

func parseEnvLine(line string) (string, string, bool) {
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	val := strings.TrimSpace(parts[1])
	val = strings.Trim(val, `"'`)
	if key == "" {
		return "", "", false
	}
	return key, val, true
}
