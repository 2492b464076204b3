package broadcast

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/history"
	"github.com/antoniostano/rosie/internal/pipeline"
)

// LLMOutput streams model text fragments to the client as they arrive
// and, once a response completes, records the joined text in the
// conversation history and mirrors it as a finalized bot transcript.
type LLMOutput struct {
	history *history.History
	msgr    Messenger
	log     *logrus.Logger

	buf strings.Builder
}

func NewLLMOutput(h *history.History, m Messenger, log *logrus.Logger) *LLMOutput {
	return &LLMOutput{history: h, msgr: m, log: log}
}

func (s *LLMOutput) Name() string { return "llm_output_broadcast" }

func (s *LLMOutput) Process(_ context.Context, f frame.Frame, emit pipeline.Emit) error {
	switch fr := f.(type) {
	case frame.LLMResponseStart:
		s.buf.Reset()
		if err := s.msgr.SendBotLLMStarted(); err != nil {
			return err
		}
	case frame.LLMText:
		s.buf.WriteString(fr.Text)
		if err := s.msgr.SendBotLLMText(fr.Text); err != nil {
			return err
		}
	case frame.LLMResponseEnd:
		text := strings.TrimSpace(s.buf.String())
		s.buf.Reset()
		if err := s.msgr.SendBotLLMStopped(); err != nil {
			return err
		}
		if text != "" {
			s.history.Add(history.SpeakerBot, text, false)
			if err := s.msgr.SendBotTranscription(text); err != nil {
				return err
			}
			s.log.WithField("chars", len(text)).Debug("bot response recorded")
		}
	case frame.BotStartedSpeaking:
		if err := s.msgr.SendBotStartedSpeaking(); err != nil {
			return err
		}
	case frame.BotStoppedSpeaking:
		if err := s.msgr.SendBotStoppedSpeaking(); err != nil {
			return err
		}
	}
	return emit(f)
}
