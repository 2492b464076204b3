// Package frame defines the event vocabulary that flows through a bot
// pipeline. Frames are plain values; stages type-switch on them and
// forward anything they do not handle.
package frame

import "time"

// Frame is implemented by every pipeline event type.
type Frame interface {
	frame()
}

// UserStartedSpeaking signals detected speech onset.
type UserStartedSpeaking struct{}

// UserStoppedSpeaking signals a detected end of speech.
type UserStoppedSpeaking struct{}

// InterimTranscription is a provisional recognizer result that may still
// change.
type InterimTranscription struct {
	Text      string
	UserID    string
	Timestamp time.Time
	Language  string
}

// Transcription is a finalized recognizer result.
type Transcription struct {
	Text      string
	UserID    string
	Timestamp time.Time
	Language  string
}

// LLMRun starts a model turn on the current conversation context,
// including the kick-off turn before any user speech.
type LLMRun struct{}

// LLMResponseStart brackets the beginning of a streamed model response.
type LLMResponseStart struct{}

// LLMText is one streamed fragment of the model response.
type LLMText struct {
	Text string
}

// LLMResponseEnd brackets the end of a streamed model response.
type LLMResponseEnd struct{}

// BotStartedSpeaking marks the start of bot output delivery.
type BotStartedSpeaking struct{}

// BotStoppedSpeaking marks the end of bot output delivery.
type BotStoppedSpeaking struct{}

// TurnMetrics reports one turn-completion analysis.
type TurnMetrics struct {
	IsComplete          bool
	Probability         float64
	InferenceTimeMS     float64
	ServerTotalTimeMS   float64
	E2EProcessingTimeMS float64
}

func (UserStartedSpeaking) frame()  {}
func (UserStoppedSpeaking) frame()  {}
func (InterimTranscription) frame() {}
func (Transcription) frame()        {}
func (LLMRun) frame()               {}
func (LLMResponseStart) frame()     {}
func (LLMText) frame()              {}
func (LLMResponseEnd) frame()       {}
func (BotStartedSpeaking) frame()   {}
func (BotStoppedSpeaking) frame()   {}
func (TurnMetrics) frame()          {}
