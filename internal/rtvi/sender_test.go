package rtvi

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSenderEnqueues(t *testing.T) {
	out := make(chan []byte, 4)
	s := NewSender(out, quietLogger())

	if err := s.SendUserTranscription("hi", "user-1", time.Unix(0, 0), true); err != nil {
		t.Fatalf("SendUserTranscription() error = %v", err)
	}

	select {
	case raw := <-out:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.Type != TypeUserTranscription {
			t.Fatalf("type = %s, want %s", env.Type, TypeUserTranscription)
		}
		var data UserTranscriptionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
		if data.Text != "hi" || data.UserID != "user-1" || !data.Final {
			t.Fatalf("data = %+v", data)
		}
	default:
		t.Fatal("no message enqueued")
	}
}

func TestSenderDropsWhenFull(t *testing.T) {
	out := make(chan []byte, 1)
	s := NewSender(out, quietLogger())

	var drops int
	s.SetObserver(func(_ string, dropped bool) {
		if dropped {
			drops++
		}
	})

	if err := s.SendBotLLMText("one"); err != nil {
		t.Fatalf("SendBotLLMText() error = %v", err)
	}
	done := make(chan struct{})
	go func() {
		// Must not block even though the buffer is full.
		_ = s.SendBotLLMText("two")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked on full buffer")
	}
	if drops != 1 {
		t.Fatalf("drops = %d, want 1", drops)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
}
