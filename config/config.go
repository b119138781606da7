package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Generation GenerationConfig `yaml:"generation"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Yandex     YandexConfig     `yaml:"yandex"`
	STT        STTConfig        `yaml:"stt"`
	Storage    StorageConfig    `yaml:"storage"`
	Audio      AudioConfig      `yaml:"audio"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Digest     DigestConfig     `yaml:"digest"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" env:"KEBBI_ADDR"`
	AuthToken      string   `yaml:"auth_token" env:"KEBBI_AUTH_TOKEN"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	UploadDir      string   `yaml:"upload_dir"`
	RateLimit      int      `yaml:"rate_limit"`
}

type GenerationConfig struct {
	Provider    string `yaml:"provider" env:"GENERATION_PROVIDER"`
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL  string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Model    string `yaml:"model"`
	Referrer string `yaml:"referrer"`
	Title    string `yaml:"title"`
}

type YandexConfig struct {
	OAuthToken string `yaml:"oauth_token" env:"YANDEX_OAUTH_TOKEN"`
	FolderID   string `yaml:"folder_id" env:"YANDEX_FOLDER_ID"`
}

// STTConfig configures Whisper. Without an API key of its own it reuses the
// OpenAI one.
type STTConfig struct {
	APIKey   string `yaml:"api_key" env:"STT_API_KEY"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
}

type StorageConfig struct {
	Backend    string      `yaml:"backend"`
	Dir        string      `yaml:"dir"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type AudioConfig struct {
	Source           string  `yaml:"source"`
	FileDir          string  `yaml:"file_dir"`
	SampleRate       int     `yaml:"sample_rate"`
	SilenceThreshold int16   `yaml:"silence_threshold"`
	SilenceSeconds   float64 `yaml:"silence_seconds"`
	MaxSeconds       float64 `yaml:"max_seconds"`
}

type TelegramConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Token        string  `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	APIEndpoint  string  `yaml:"api_endpoint"`
	AllowedChats []int64 `yaml:"allowed_chats" env:"TELEGRAM_ALLOWED_CHATS" envSeparator:","`
	NotifyChat   int64   `yaml:"notify_chat" env:"TELEGRAM_NOTIFY_CHAT"`
}

type PushoverConfig struct {
	Token   string `yaml:"token" env:"PUSHOVER_TOKEN"`
	UserKey string `yaml:"user_key" env:"PUSHOVER_USER_KEY"`
	Title   string `yaml:"title"`
	Enabled bool   `yaml:"enabled"`
}

type DigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Load reads the YAML file at path, expanding ${VAR} references, then applies
// environment overrides. Variables from envFiles (default .env) are loaded
// first; missing env files are ignored. An empty path means environment only.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "./uploads"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "gemini"
	}
	if c.Generation.Timeout == "" {
		c.Generation.Timeout = "30s"
	}
	if c.Generation.MaxAttempts == 0 {
		c.Generation.MaxAttempts = 1
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.STT.APIKey == "" {
		c.STT.APIKey = c.OpenAI.APIKey
	}
	if c.STT.Language == "" {
		c.STT.Language = "zh"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "./data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "./data/kebbi.db"
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "kebbi"
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "none"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = "0 21 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that the selected providers have what they need.
func (c *Config) Validate() error {
	var errs []error

	switch c.Generation.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini.api_key (GEMINI_API_KEY) is required"))
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			errs = append(errs, errors.New("anthropic.api_key (ANTHROPIC_API_KEY) is required"))
		}
	case "openai":
		if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
			errs = append(errs, errors.New("openai.api_key or openai.base_url is required"))
		}
	case "yandex":
		if c.Yandex.OAuthToken == "" || c.Yandex.FolderID == "" {
			errs = append(errs, errors.New("yandex.oauth_token and yandex.folder_id are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown generation provider: %s", c.Generation.Provider))
	}

	if _, err := c.GenerationTimeout(); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage.Backend {
	case "file", "sqlite":
	case "redis":
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr (REDIS_ADDR) is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend: %s", c.Storage.Backend))
	}

	switch c.Audio.Source {
	case "none", "file", "microphone":
	default:
		errs = append(errs, fmt.Errorf("unknown audio source: %s", c.Audio.Source))
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token (TELEGRAM_BOT_TOKEN) is required when telegram is enabled"))
	}

	if _, err := c.DigestLocation(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) GenerationTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Generation.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid generation.timeout %q: %w", c.Generation.Timeout, err)
	}
	return d, nil
}

func (c *Config) DigestLocation() (*time.Location, error) {
	if c.Digest.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Digest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid digest.timezone %q: %w", c.Digest.Timezone, err)
	}
	return loc, nil
}
