// Package app assembles the service: providers picked from config,
// session tracking, the conversation runner, and the HTTP surface.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/archive"
	"github.com/antoniostano/rosie/internal/bot"
	"github.com/antoniostano/rosie/internal/config"
	"github.com/antoniostano/rosie/internal/httpapi"
	"github.com/antoniostano/rosie/internal/llm"
	"github.com/antoniostano/rosie/internal/observability"
	"github.com/antoniostano/rosie/internal/session"
	"github.com/antoniostano/rosie/internal/stt"
	"github.com/antoniostano/rosie/internal/turn"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Manager
	Runner   *bot.Runner
	Metrics  *observability.Metrics
	Latency  *observability.TurnLatencyWindow

	// Cleanup releases external resources on shutdown.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, log *logrus.Logger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	latency := observability.NewTurnLatencyWindow(256)

	store, err := archive.NewStore(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("transcript store init failed: %w", err)
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	sttProvider := stt.NewProvider(stt.DeepgramConfig{
		APIKey:         cfg.DeepgramAPIKey,
		WSBaseURL:      cfg.DeepgramWSBaseURL,
		Model:          cfg.STTModel,
		Languages:      cfg.STTLanguages,
		SampleRate:     cfg.STTSampleRate,
		UtteranceEndMS: cfg.STTUtteranceEndMS,
	}, log)

	llmProvider := llm.NewProvider(llm.GeminiConfig{
		APIKey:      cfg.GoogleAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	}, log)

	analyzer := turn.NewAnalyzer(turn.RemoteConfig{
		URL:     cfg.SmartTurnURL,
		Timeout: cfg.SmartTurnTimeout,
	}, log)

	runner := bot.NewRunner(bot.Config{
		SampleRate:         cfg.STTSampleRate,
		TurnWindowSecs:     cfg.TurnWindowSecs,
		TurnCommitFallback: cfg.TurnCommitFallback,
		HistoryMaxAge:      cfg.HistoryMaxAge,
		HistoryMaxEntries:  cfg.HistoryMaxEntries,
		LocalRun:           cfg.LocalRun,
	}, sessions, sttProvider, llmProvider, analyzer, store, metrics, latency, log)

	api := httpapi.New(cfg, sessions, runner, metrics, latency, log)

	cleanup := func() error {
		if err := store.Close(); err != nil {
			return fmt.Errorf("transcript store close failed: %w", err)
		}
		return nil
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Runner:   runner,
		Metrics:  metrics,
		Latency:  latency,
		Cleanup:  cleanup,
	}, nil
}
