package stt

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// NewProvider selects the recognizer. Without an API key the mock keeps
// local development working end to end.
func NewProvider(cfg DeepgramConfig, log *logrus.Logger) Provider {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warn("DEEPGRAM_API_KEY not set, using simulated speech recognition")
		return NewMockProvider()
	}
	return NewDeepgramProvider(cfg, log)
}
