// Package rtvi implements the realtime voice client protocol spoken over
// the websocket: a JSON envelope labeled "rtvi-ai" carrying typed
// payloads in both directions. Raw binary websocket frames are not part
// of this package; the transport treats them as PCM audio directly.
package rtvi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Label marks every envelope exchanged with the client.
const Label = "rtvi-ai"

// Client to server message types.
const (
	TypeClientReady   = "client-ready"
	TypeDisconnectBot = "disconnect-bot"
	TypeAudioChunk    = "audio-chunk"
)

// Server to client message types.
const (
	TypeBotReady           = "bot-ready"
	TypeError              = "error"
	TypeUserTranscription  = "user-transcription"
	TypeBotTranscription   = "bot-transcription"
	TypeBotLLMStarted      = "bot-llm-started"
	TypeBotLLMText         = "bot-llm-text"
	TypeBotLLMStopped      = "bot-llm-stopped"
	TypeBotStartedSpeaking = "bot-started-speaking"
	TypeBotStoppedSpeaking = "bot-stopped-speaking"
	TypeServerMessage      = "server-message"
)

// Discriminators for server-message payloads.
const (
	ServerPayloadSmartTurn = "smart_turn_result"
	ServerPayloadAnimation = "animation-state"
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrInvalidMessage  = errors.New("invalid message")
)

// Envelope is the wire framing shared by both directions.
type Envelope struct {
	Label string          `json:"label"`
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ClientReady signals the client finished its setup and wants the
// conversation to start.
type ClientReady struct{}

// DisconnectBot asks the server to end the session.
type DisconnectBot struct{}

// AudioChunk carries microphone samples from clients that cannot send
// binary frames. PCM is signed 16-bit little-endian mono.
type AudioChunk struct {
	PCM        []byte
	SampleRate int
}

type audioChunkPayload struct {
	PCM        string `json:"pcm"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// ParseClientMessage decodes one inbound text frame into its typed
// message. Unknown types yield ErrUnsupportedType so the transport can
// report and keep the connection alive.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Label != "" && env.Label != Label {
		return nil, fmt.Errorf("%w: label %q", ErrUnsupportedType, env.Label)
	}
	switch env.Type {
	case TypeClientReady:
		return ClientReady{}, nil
	case TypeDisconnectBot:
		return DisconnectBot{}, nil
	case TypeAudioChunk:
		var payload audioChunkPayload
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				return nil, fmt.Errorf("%w: audio-chunk data: %v", ErrInvalidMessage, err)
			}
		}
		if payload.PCM == "" {
			return nil, fmt.Errorf("%w: audio-chunk missing pcm", ErrInvalidMessage)
		}
		pcm, err := base64.StdEncoding.DecodeString(payload.PCM)
		if err != nil {
			return nil, fmt.Errorf("%w: audio-chunk pcm: %v", ErrInvalidMessage, err)
		}
		if len(pcm) == 0 {
			return nil, fmt.Errorf("%w: audio-chunk empty pcm", ErrInvalidMessage)
		}
		return AudioChunk{PCM: pcm, SampleRate: payload.SampleRate}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}
}

// Marshal wraps a payload in the protocol envelope and encodes it.
func Marshal(msgType string, data any) ([]byte, error) {
	env := Envelope{Label: Label, Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s data: %w", msgType, err)
		}
		env.Data = raw
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return out, nil
}

// BotReadyData announces protocol readiness to the client.
type BotReadyData struct {
	Version string `json:"version"`
}

// UserTranscriptionData mirrors what speech recognition heard from the
// user. Final reports whether the fragment is a settled transcription or
// a provisional one still subject to revision.
type UserTranscriptionData struct {
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
	Final     bool   `json:"final"`
}

// TextData carries a plain text fragment.
type TextData struct {
	Text string `json:"text"`
}

// ErrorData reports a server-side failure to the client.
type ErrorData struct {
	Error string `json:"error"`
	Fatal bool   `json:"fatal,omitempty"`
}

// SmartTurnResult is the server-message payload published after each
// end-of-turn analysis.
type SmartTurnResult struct {
	Type                string  `json:"type"`
	IsComplete          bool    `json:"is_complete"`
	Probability         float64 `json:"probability"`
	InferenceTimeMS     float64 `json:"inference_time_ms"`
	ServerTotalTimeMS   float64 `json:"server_total_time_ms"`
	E2EProcessingTimeMS float64 `json:"e2e_processing_time_ms"`
}

// AnimationState is the server-message payload telling the client which
// avatar cycle to render.
type AnimationState struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// FormatTimestamp renders timestamps the way clients expect them.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
