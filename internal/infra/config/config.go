package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string
	LogLevel       string
	Environment    string

	CronSpec       string // daily detection cycle
	CheckOnStartup bool

	WindowDays     int
	MaxAttempts    int
	WorkerCount    int
	CallTimeout    time.Duration
	MilestoneYears []int // empty means the default 1-or-multiple-of-5 rule
	ImageRequired  bool

	EmailSender        string
	EmailReplyTo       string
	SubjectBirthday    string // {name} placeholder
	SubjectAnniversary string // {name} and {years} placeholders
	PeerEmails         []string

	AWSRegion    string
	TextModelID  string
	ImageModelID string
	ImageBucket  string

	OpsTelegramToken  string
	OpsTelegramChatID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseDriver = strings.ToLower(os.Getenv("DATABASE_DRIVER"))
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be postgres or sqlite", cfg.DatabaseDriver)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == "postgres" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
		cfg.DatabaseURL = "office_cheer.db"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpec = os.Getenv("CRON_SPEC_DAILY_CHECK")
	if cfg.CronSpec == "" {
		cfg.CronSpec = "0 8 * * *" // 08:00 daily
	}

	cfg.CheckOnStartup, err = boolEnv("CHECK_ON_STARTUP", false)
	if err != nil {
		return nil, err
	}

	cfg.WindowDays, err = intEnv("LOOKFORWARD_DAYS", 3)
	if err != nil {
		return nil, err
	}
	if cfg.WindowDays < 0 {
		return nil, fmt.Errorf("LOOKFORWARD_DAYS must not be negative")
	}

	cfg.MaxAttempts, err = intEnv("MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1")
	}

	cfg.WorkerCount, err = intEnv("WORKER_COUNT", 4)
	if err != nil {
		return nil, err
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be at least 1")
	}

	timeoutSecs, err := intEnv("CALL_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if timeoutSecs < 1 {
		return nil, fmt.Errorf("CALL_TIMEOUT_SECONDS must be at least 1")
	}
	cfg.CallTimeout = time.Duration(timeoutSecs) * time.Second

	cfg.MilestoneYears, err = intListEnv("MILESTONE_YEARS")
	if err != nil {
		return nil, err
	}

	cfg.ImageRequired, err = boolEnv("IMAGE_REQUIRED", false)
	if err != nil {
		return nil, err
	}

	cfg.EmailSender = os.Getenv("EMAIL_SENDER")
	if cfg.EmailSender == "" {
		cfg.EmailSender = "noreply@example.com"
	}
	cfg.EmailReplyTo = os.Getenv("EMAIL_REPLY_TO")
	if cfg.EmailReplyTo == "" {
		cfg.EmailReplyTo = "support@example.com"
	}
	cfg.SubjectBirthday = os.Getenv("EMAIL_SUBJECT_BIRTHDAY")
	if cfg.SubjectBirthday == "" {
		cfg.SubjectBirthday = "Happy Birthday, {name}!"
	}
	cfg.SubjectAnniversary = os.Getenv("EMAIL_SUBJECT_ANNIVERSARY")
	if cfg.SubjectAnniversary == "" {
		cfg.SubjectAnniversary = "Congratulations on your {years} Year Anniversary, {name}!"
	}
	cfg.PeerEmails = listEnv("PEER_EMAILS")

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}
	cfg.TextModelID = os.Getenv("BEDROCK_MODEL_ID")
	if cfg.TextModelID == "" {
		cfg.TextModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
	}
	cfg.ImageModelID = os.Getenv("BEDROCK_IMAGE_MODEL_ID")
	if cfg.ImageModelID == "" {
		cfg.ImageModelID = "amazon.nova-canvas-v1:0"
	}
	cfg.ImageBucket = os.Getenv("IMAGE_BUCKET")
	if cfg.ImageBucket == "" && cfg.Environment != "development" {
		return nil, fmt.Errorf("IMAGE_BUCKET is not set")
	}

	cfg.OpsTelegramToken = os.Getenv("OPS_TELEGRAM_TOKEN")
	opsChatStr := os.Getenv("OPS_TELEGRAM_CHAT_ID")
	if opsChatStr != "" {
		cfg.OpsTelegramChatID, err = strconv.ParseInt(opsChatStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPS_TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if cfg.OpsTelegramToken != "" && cfg.OpsTelegramChatID == 0 {
		return nil, fmt.Errorf("OPS_TELEGRAM_CHAT_ID is required when OPS_TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

// IsDevelopment reports whether the application runs in development mode,
// where providers are stubbed and emails are logged instead of sent.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := strings.ToLower(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	switch raw {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: %q is not a boolean", key, raw)
	}
}

func listEnv(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func intListEnv(key string) ([]int, error) {
	values := listEnv(key)
	if values == nil {
		return nil, nil
	}
	ints := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, v, err)
		}
		ints = append(ints, n)
	}
	return ints, nil
}
