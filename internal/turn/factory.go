package turn

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// NewAnalyzer builds the turn analyzer: the hosted service backed by the
// local heuristic when SMART_TURN_URL is set, the local heuristic alone
// otherwise.
func NewAnalyzer(cfg RemoteConfig, log *logrus.Logger) Analyzer {
	local := NewLocalAnalyzer()
	if strings.TrimSpace(cfg.URL) == "" {
		log.Info("SMART_TURN_URL not set, using local turn analysis")
		return local
	}
	return NewFailoverAnalyzer(NewRemoteAnalyzer(cfg, log), local, log)
}
