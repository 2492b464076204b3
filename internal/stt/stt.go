// Package stt streams microphone audio to a speech recognizer and
// surfaces its results as typed events. The engine consumes the event
// channel from its session loop; nothing here touches the pipeline
// directly.
package stt

import "context"

type EventType string

const (
	EventPartial       EventType = "partial"
	EventFinal         EventType = "final"
	EventSpeechStarted EventType = "speech_started"
	EventUtteranceEnd  EventType = "utterance_end"
	EventError         EventType = "error"
)

// Event is one recognizer result or control signal.
type Event struct {
	Type       EventType
	Text       string
	Confidence float64
	Language   string
	// SpeechFinal marks a final result after which the recognizer
	// detected an endpoint, meaning the speaker paused.
	SpeechFinal bool
	Code        string
	Detail      string
	Retryable   bool
	Timestamp   int64
}

// Session is one live recognition stream. SendAudio accepts PCM16LE
// mono chunks at the rate the session was opened with.
type Session interface {
	SendAudio(ctx context.Context, pcm []byte) error
	// Finish tells the recognizer no more audio is coming so it can
	// flush trailing results before the stream closes.
	Finish(ctx context.Context) error
	Close() error
}

// Provider opens recognition sessions. The returned channel is closed
// when the session ends, whatever the cause.
type Provider interface {
	StartSession(ctx context.Context, sessionID string) (Session, <-chan Event, error)
}
