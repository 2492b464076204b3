package rtvi

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Sender marshals server-side messages and queues them for the websocket
// writer. Enqueue never blocks: when the outbound buffer is full the
// message is dropped and counted so a slow client cannot stall the
// session loop.
type Sender struct {
	out      chan<- []byte
	log      *logrus.Logger
	observer func(msgType string, dropped bool)
}

func NewSender(out chan<- []byte, log *logrus.Logger) *Sender {
	return &Sender{out: out, log: log}
}

// SetObserver installs a per-message hook, typically for metrics.
func (s *Sender) SetObserver(fn func(msgType string, dropped bool)) {
	s.observer = fn
}

func (s *Sender) SendBotReady() error {
	return s.send(TypeBotReady, BotReadyData{Version: "1.0"})
}

func (s *Sender) SendUserTranscription(text, userID string, ts time.Time, final bool) error {
	return s.send(TypeUserTranscription, UserTranscriptionData{
		Text:      text,
		UserID:    userID,
		Timestamp: FormatTimestamp(ts),
		Final:     final,
	})
}

func (s *Sender) SendBotLLMStarted() error {
	return s.send(TypeBotLLMStarted, nil)
}

func (s *Sender) SendBotLLMText(text string) error {
	return s.send(TypeBotLLMText, TextData{Text: text})
}

func (s *Sender) SendBotLLMStopped() error {
	return s.send(TypeBotLLMStopped, nil)
}

func (s *Sender) SendBotTranscription(text string) error {
	return s.send(TypeBotTranscription, TextData{Text: text})
}

func (s *Sender) SendBotStartedSpeaking() error {
	return s.send(TypeBotStartedSpeaking, nil)
}

func (s *Sender) SendBotStoppedSpeaking() error {
	return s.send(TypeBotStoppedSpeaking, nil)
}

func (s *Sender) SendServerMessage(payload any) error {
	return s.send(TypeServerMessage, payload)
}

func (s *Sender) SendError(msg string, fatal bool) error {
	return s.send(TypeError, ErrorData{Error: msg, Fatal: fatal})
}

func (s *Sender) send(msgType string, data any) error {
	raw, err := Marshal(msgType, data)
	if err != nil {
		return fmt.Errorf("send %s: %w", msgType, err)
	}
	select {
	case s.out <- raw:
		if s.observer != nil {
			s.observer(msgType, false)
		}
	default:
		if s.observer != nil {
			s.observer(msgType, true)
		}
		s.log.WithField("type", msgType).Warn("outbound buffer full, dropping message")
	}
	return nil
}
