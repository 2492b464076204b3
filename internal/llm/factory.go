package llm

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// NewProvider selects the model backend. Without an API key the mock
// keeps local development working end to end.
func NewProvider(cfg GeminiConfig, log *logrus.Logger) Provider {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warn("GOOGLE_API_KEY not set, using canned model replies")
		return NewMockProvider()
	}
	return NewGeminiProvider(cfg)
}
