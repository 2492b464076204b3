package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the service logger. Level falls back to info when unparseable,
// format is "json" or "text" (default text, full timestamps for terminals).
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.Out = os.Stderr

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			PadLevelText:  true,
		})
	}
	return logger
}
