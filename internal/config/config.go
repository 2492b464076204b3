package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the rosie voice bot service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	LogLevel                 string
	LogFormat                string

	AllowAnyOrigin bool

	// LocalRun switches the session error policy to log-and-swallow for
	// development; hosted runs log and propagate.
	LocalRun bool

	DeepgramAPIKey    string
	DeepgramWSBaseURL string
	STTModel          string
	STTLanguages      []string
	STTSampleRate     int
	STTUtteranceEndMS int

	GoogleAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	LLMMaxTokens   int
	LLMTemperature float64

	SmartTurnURL       string
	SmartTurnTimeout   time.Duration
	TurnCommitFallback time.Duration
	TurnWindowSecs     int

	HistoryMaxAge     time.Duration
	HistoryMaxEntries int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "rosie"),
		LogLevel:          envOrDefault("APP_LOG_LEVEL", "debug"),
		LogFormat:         envOrDefault("APP_LOG_FORMAT", "text"),
		AllowAnyOrigin:    false,
		DeepgramAPIKey:    trimmedEnv("DEEPGRAM_API_KEY"),
		DeepgramWSBaseURL: envOrDefault("DEEPGRAM_WS_BASE_URL", "wss://api.deepgram.com"),
		STTModel:          envOrDefault("STT_MODEL", "nova-3-general"),
		STTLanguages:      listFromEnv("STT_LANGUAGES", []string{"en", "hi"}),
		STTSampleRate:     16000,
		STTUtteranceEndMS: 1000,
		GoogleAPIKey:      trimmedEnv("GOOGLE_API_KEY"),
		GeminiBaseURL:     envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:       envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMMaxTokens:      1024,
		LLMTemperature:    0.7,
		SmartTurnURL:      trimmedEnv("SMART_TURN_URL"),
		DatabaseURL:       trimmedEnv("DATABASE_URL"),

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
		SmartTurnTimeout:         2 * time.Second,
		TurnCommitFallback:       3 * time.Second,
		TurnWindowSecs:           8,
		HistoryMaxAge:            5 * time.Minute,
		HistoryMaxEntries:        200,
	}

	// LOCAL_RUN mirrors the usual dev toggle: any non-empty value enables it.
	cfg.LocalRun = strings.TrimSpace(os.Getenv("LOCAL_RUN")) != ""

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.STTSampleRate, err = intFromEnv("STT_SAMPLE_RATE", cfg.STTSampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.STTUtteranceEndMS, err = intFromEnv("STT_UTTERANCE_END_MS", cfg.STTUtteranceEndMS)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxTokens, err = intFromEnv("LLM_MAX_TOKENS", cfg.LLMMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTemperature, err = floatFromEnv("LLM_TEMPERATURE", cfg.LLMTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.SmartTurnTimeout, err = durationFromEnv("SMART_TURN_TIMEOUT", cfg.SmartTurnTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TurnCommitFallback, err = durationFromEnv("TURN_COMMIT_FALLBACK", cfg.TurnCommitFallback)
	if err != nil {
		return Config{}, err
	}
	cfg.TurnWindowSecs, err = intFromEnv("TURN_WINDOW_SECS", cfg.TurnWindowSecs)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxAge, err = durationFromEnv("HISTORY_MAX_AGE", cfg.HistoryMaxAge)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxEntries, err = intFromEnv("HISTORY_MAX_ENTRIES", cfg.HistoryMaxEntries)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.STTSampleRate <= 0 {
		return Config{}, fmt.Errorf("STT_SAMPLE_RATE must be positive")
	}
	if cfg.STTUtteranceEndMS < 100 {
		return Config{}, fmt.Errorf("STT_UTTERANCE_END_MS must be at least 100")
	}
	if cfg.LLMMaxTokens <= 0 {
		return Config{}, fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		return Config{}, fmt.Errorf("LLM_TEMPERATURE must be in [0,2]")
	}
	if cfg.TurnWindowSecs <= 0 {
		return Config{}, fmt.Errorf("TURN_WINDOW_SECS must be positive")
	}
	if cfg.HistoryMaxAge <= 0 {
		return Config{}, fmt.Errorf("HISTORY_MAX_AGE must be positive")
	}
	if cfg.HistoryMaxEntries <= 0 {
		return Config{}, fmt.Errorf("HISTORY_MAX_ENTRIES must be positive")
	}
	if len(cfg.STTLanguages) == 0 {
		return Config{}, fmt.Errorf("STT_LANGUAGES must name at least one language")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func listFromEnv(key string, fallback []string) []string {
	raw := trimmedEnv(key)
	if raw == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
