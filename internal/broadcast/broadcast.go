// Package broadcast holds the pipeline stages that translate engine
// events into client-facing messages, history writes, and logs. Every
// stage forwards each frame downstream unchanged and in order.
package broadcast

import "time"

// Messenger is the client messaging capability the stages depend on.
// The websocket sender satisfies it.
type Messenger interface {
	SendUserTranscription(text, userID string, ts time.Time, final bool) error
	SendBotLLMStarted() error
	SendBotLLMText(text string) error
	SendBotLLMStopped() error
	SendBotTranscription(text string) error
	SendBotStartedSpeaking() error
	SendBotStoppedSpeaking() error
	SendServerMessage(payload any) error
}
