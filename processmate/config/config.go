package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"processmate/processmate/types"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultServerAddr      = ":8000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultModel           = "gpt-4o-mini"
	DefaultTemperature     = 0.7
	DefaultMaxTokens       = 1000
	DefaultUpstreamTimeout = 60 * time.Second
	DefaultLogDir          = "./logs"
	DefaultLogLevel        = "info"
)

var ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY")

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Chat   ChatConfig   `mapstructure:"chat"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// AllowedOrigins are host patterns accepted on websocket upgrades.
	// Empty means same-origin only.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type ChatConfig struct {
	Mode               types.Mode    `mapstructure:"mode"`
	DefaultModel       string        `mapstructure:"default_model"`
	DefaultTemperature float64       `mapstructure:"default_temperature"`
	DefaultMaxTokens   int           `mapstructure:"default_max_tokens"`
	UpstreamTimeout    time.Duration `mapstructure:"upstream_timeout"`
	JSONResponseFormat bool          `mapstructure:"json_response_format"`
	ExtractFencedJSON  bool          `mapstructure:"extract_fenced_json"`
	PromptsFile        string        `mapstructure:"prompts_file"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// LoadConfig reads defaults, an optional YAML file, .env and the process
// environment, in increasing order of precedence. An empty path falls back to
// PROCESSMATE_CONFIG; when that is empty too no file is read.
func LoadConfig(path string) (Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROCESSMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")

	if path == "" {
		path = os.Getenv("PROCESSMATE_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// Everything downstream compares modes exactly.
	if mode, err := types.ParseMode(string(cfg.Chat.Mode)); err == nil {
		cfg.Chat.Mode = mode
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("chat.mode", string(types.ModeStrict))
	v.SetDefault("chat.default_model", DefaultModel)
	v.SetDefault("chat.default_temperature", DefaultTemperature)
	v.SetDefault("chat.default_max_tokens", DefaultMaxTokens)
	v.SetDefault("chat.upstream_timeout", DefaultUpstreamTimeout)
	v.SetDefault("chat.json_response_format", true)
	v.SetDefault("chat.extract_fenced_json", false)
	v.SetDefault("chat.prompts_file", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("log.dir", DefaultLogDir)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.console", false)
}

func (c Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	mode, err := types.ParseMode(string(c.Chat.Mode))
	if err != nil {
		return err
	}
	if mode != c.Chat.Mode {
		return fmt.Errorf("chat.mode must be %q or %q, got %q", types.ModeStrict, types.ModeLenient, c.Chat.Mode)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Chat.UpstreamTimeout <= 0 {
		return fmt.Errorf("chat.upstream_timeout must be positive, got %s", c.Chat.UpstreamTimeout)
	}
	if c.Chat.DefaultMaxTokens <= 0 {
		return fmt.Errorf("chat.default_max_tokens must be positive, got %d", c.Chat.DefaultMaxTokens)
	}
	if c.Chat.DefaultTemperature < 0 || c.Chat.DefaultTemperature > 2 {
		return fmt.Errorf("chat.default_temperature must be within [0,2], got %v", c.Chat.DefaultTemperature)
	}
	return nil
}
