package broadcast

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/pipeline"
	"github.com/antoniostano/rosie/internal/rtvi"
)

// TurnMetrics forwards end-of-turn analysis results to the client as
// structured server messages. It keeps no state.
type TurnMetrics struct {
	msgr Messenger
	log  *logrus.Logger
}

func NewTurnMetrics(m Messenger, log *logrus.Logger) *TurnMetrics {
	return &TurnMetrics{msgr: m, log: log}
}

func (s *TurnMetrics) Name() string { return "turn_metrics_broadcast" }

func (s *TurnMetrics) Process(_ context.Context, f frame.Frame, emit pipeline.Emit) error {
	if fr, ok := f.(frame.TurnMetrics); ok {
		payload := rtvi.SmartTurnResult{
			Type:                rtvi.ServerPayloadSmartTurn,
			IsComplete:          fr.IsComplete,
			Probability:         fr.Probability,
			InferenceTimeMS:     fr.InferenceTimeMS,
			ServerTotalTimeMS:   fr.ServerTotalTimeMS,
			E2EProcessingTimeMS: fr.E2EProcessingTimeMS,
		}
		if err := s.msgr.SendServerMessage(payload); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"complete":    fr.IsComplete,
			"probability": fr.Probability,
		}).Debug("turn analysis broadcast")
	}
	return emit(f)
}
