package stt

import (
	"context"
	"sync"
	"time"

	"github.com/antoniostano/rosie/internal/audio"
)

const mockVoiceThreshold = 0.01

// MockProvider simulates a recognizer for local development. Sustained
// audio above a level threshold produces a partial result; the first
// quiet chunk after speech endpoints the utterance with a canned final.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) StartSession(_ context.Context, _ string) (Session, <-chan Event, error) {
	events := make(chan Event, 64)
	return &mockSession{events: events}, events, nil
}

type mockSession struct {
	mu     sync.Mutex
	events chan Event
	voiced bool
	closed bool
}

func (s *mockSession) SendAudio(_ context.Context, pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	ts := time.Now().UnixMilli()
	if audio.RMS(pcm) >= mockVoiceThreshold {
		if !s.voiced {
			s.voiced = true
			s.events <- Event{Type: EventSpeechStarted, Timestamp: ts}
		}
		s.events <- Event{Type: EventPartial, Text: "...", Confidence: 0.5, Timestamp: ts}
		return nil
	}
	if s.voiced {
		s.voiced = false
		s.events <- Event{Type: EventFinal, Text: "simulated voice input", Confidence: 0.7, SpeechFinal: true, Timestamp: ts}
		s.events <- Event{Type: EventUtteranceEnd, Timestamp: ts}
	}
	return nil
}

func (s *mockSession) Finish(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.voiced {
		s.voiced = false
		s.events <- Event{Type: EventFinal, Text: "simulated voice input", Confidence: 0.7, SpeechFinal: true, Timestamp: time.Now().UnixMilli()}
	}
	return nil
}

func (s *mockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}
