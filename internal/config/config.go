package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string `mapstructure:"env"` // current application environment (local, dev, prod etc)
	TelegramAPIToken string `mapstructure:"-"`   // Telegram API token loaded from environment
	OpenAI           OpenAI `mapstructure:"openai"`
	Quiz             Quiz   `mapstructure:"quiz"`
	Retry            Retry  `mapstructure:"retry"`
	DB               DB     `mapstructure:"database"`
}

// OpenAI contains language model client parameters.
type OpenAI struct {
	APIKey      string        `mapstructure:"-"`     // API key loaded from environment
	Model       string        `mapstructure:"model"` // chat completion model name
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	CallTimeout time.Duration `mapstructure:"call_timeout"` // absolute per-call timeout
}

// Quiz contains quiz workflow parameters.
type Quiz struct {
	MaxQuestionsDefault int      `mapstructure:"max_questions_default"` // finite-mode question count before capping
	InfiniteQuestionCap int      `mapstructure:"infinite_question_cap"` // defensive bound for infinite quizzes
	ConversationLogCap  int      `mapstructure:"conversation_log_cap"`  // retained conversation log entries per session
	Keywords            Keywords `mapstructure:"keywords"`
}

// Keywords contains the command keyword allowlists that bypass the model
// during intent classification.
type Keywords struct {
	Exit     []string `mapstructure:"exit"`
	NewQuiz  []string `mapstructure:"new_quiz"`
	Continue []string `mapstructure:"continue"`
}

// Retry contains the backoff policy applied around model service calls.
type Retry struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Jitter      float64       `mapstructure:"jitter"`
}

// DB contains database-related configuration parameters. The database is an
// optional collaborator used only for session snapshots.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Enabled reports whether session persistence is configured.
func (db DB) Enabled() bool { return db.URL != "" }

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.call_timeout", "30s")
	v.SetDefault("quiz.max_questions_default", 10)
	v.SetDefault("quiz.infinite_question_cap", 100)
	v.SetDefault("quiz.conversation_log_cap", 50)
	v.SetDefault("quiz.keywords.exit", []string{"exit", "quit", "stop", "goodbye", "bye"})
	v.SetDefault("quiz.keywords.new_quiz", []string{"new quiz", "restart", "start over", "different topic"})
	v.SetDefault("quiz.keywords.continue", []string{"continue", "next", "next question", "go on"})
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "500ms")
	v.SetDefault("retry.jitter", 0.3)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.OpenAI.APIKey = v.GetString("openai_api_key")
	if cfg.OpenAI.APIKey == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.TelegramAPIToken = v.GetString("telegram_api_token")

	// Persistence is optional; an unset DATABASE_URL disables snapshots.
	cfg.DB.URL = v.GetString("database_url")

	return &cfg, nil
}
