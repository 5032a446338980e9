// Package config provides configuration loading, validation, and defaults
// for the bot runtime. Values come from defaults, then config.yaml, then
// BOT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Outbound  OutboundConfig  `mapstructure:"outbound"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	AI        AIConfig        `mapstructure:"ai"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds transport credentials and polling settings.
type TelegramConfig struct {
	Token       string        `mapstructure:"token"        validate:"required"`
	PollTimeout time.Duration `mapstructure:"poll_timeout" validate:"min=1s,max=5m"`
}

// DispatchConfig tunes the worker pool and fallback commands. Workers of 0
// means one worker per available processor. Fallbacks maps a modality
// (audio, video, voice, image, text) to a command token.
type DispatchConfig struct {
	Workers   int               `mapstructure:"workers"    validate:"min=0,max=256"`
	QueueSize int               `mapstructure:"queue_size" validate:"min=0,max=100000"`
	Fallbacks map[string]string `mapstructure:"fallbacks"  validate:"dive,keys,oneof=audio video voice image text,endkeys,required"`
}

// OutboundConfig tunes the retry policy for outbound transport calls.
type OutboundConfig struct {
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"    validate:"min=10ms,max=30s"`
}

// MessagesConfig holds user-visible canned messages.
type MessagesConfig struct {
	GeneralError   string `mapstructure:"general_error"   validate:"required"`
	ContextCleared string `mapstructure:"context_cleared" validate:"required"`
	ProvidePrompt  string `mapstructure:"provide_prompt"  validate:"required"`
	EmptyContext   string `mapstructure:"empty_context"   validate:"required"`
}

// AIConfig configures the model backend used by the ask/imagine/transcribe
// commands. Provider selects the client implementation.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"required,oneof=openai gemini"`
	Token       string        `mapstructure:"token"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	ImageModel  string        `mapstructure:"image_model"`
	AudioModel  string        `mapstructure:"audio_model"`
	Instruction string        `mapstructure:"instruction"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// DatabaseConfig holds the SQLite path and local asset cache directory.
type DatabaseConfig struct {
	Path     string `mapstructure:"path"      validate:"required"`
	AssetDir string `mapstructure:"asset_dir" validate:"required"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MetricsConfig controls the Prometheus endpoint; empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and BOT_* environment variables, then validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("telegram.poll_timeout", 30*time.Second)

	v.SetDefault("dispatch.workers", 0)
	v.SetDefault("dispatch.queue_size", 128)
	v.SetDefault("dispatch.fallbacks", map[string]string{
		"text":  "ask",
		"voice": "transcribe",
		"audio": "transcribe",
	})

	v.SetDefault("outbound.retry_attempts", 3)
	v.SetDefault("outbound.retry_delay", 500*time.Millisecond)

	v.SetDefault("messages.general_error", "Something went wrong, sorry about that.")
	v.SetDefault("messages.context_cleared", "Context cleared.")
	v.SetDefault("messages.provide_prompt", "What should I do? Send me the text to continue.")
	v.SetDefault("messages.empty_context", "The context is empty.")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.image_model", "dall-e-3")
	v.SetDefault("ai.audio_model", "whisper-1")
	v.SetDefault("ai.instruction", "You are a helpful assistant focused on clear and accurate responses.")
	v.SetDefault("ai.temperature", 1.0)
	v.SetDefault("ai.timeout", 2*time.Minute)

	v.SetDefault("database.path", "storage.db")
	v.SetDefault("database.asset_dir", "assets")

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
	})

	v.SetDefault("metrics.addr", "")
}
