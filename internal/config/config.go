package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken      string
	DatabaseURL   string
	APIBaseURL    string
	APITimeout    time.Duration
	WarningTTL    time.Duration // сколько висит подсказка «нет подходящих групп»
	SessionTTL    time.Duration
	InstructorIDs []int64 // Telegram ID, которым доступен вход преподавателя
	Location      *time.Location
	HTTPAddr      string
	LogLevel      string
	Env           string // dev|prod
	SentryDSN     string
}

func Load() (*Config, error) {
	tz := getenv("TZ", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	instructorIDs, err := parseIDs(os.Getenv("INSTRUCTOR_IDS"))
	if err != nil {
		return nil, fmt.Errorf("INSTRUCTOR_IDS: %w", err)
	}
	apiTimeout, err := durationEnv("API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	warningTTL, err := durationEnv("WARNING_TTL", 6*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := durationEnv("SESSION_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	botToken, err := requireEnv("BOT_TOKEN")
	if err != nil {
		return nil, err
	}
	dsn, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:      botToken,
		DatabaseURL:   dsn,
		APIBaseURL:    strings.TrimRight(getenv("API_BASE_URL", "http://localhost:5000"), "/"),
		APITimeout:    apiTimeout,
		WarningTTL:    warningTTL,
		SessionTTL:    sessionTTL,
		InstructorIDs: instructorIDs,
		Location:      loc,
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Env:           getenv("ENV", "dev"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
	}
	return cfg, nil
}

// IsInstructor: разрешён ли Telegram-пользователю вход преподавателя.
func (c *Config) IsInstructor(telegramID int64) bool {
	for _, id := range c.InstructorIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func requireEnv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("required env %s is empty", k)
	}
	return v, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", k, v)
	}
	return d, nil
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
