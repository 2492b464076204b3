package llm

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMockReplyEchoesLastUserMessage(t *testing.T) {
	p := NewMockProvider()

	var deltas []string
	res, err := p.StreamGenerate(context.Background(), GenerateRequest{
		Messages: []Message{
			{Role: RoleUser, Text: "hello"},
			{Role: RoleModel, Text: "hi"},
			{Role: RoleUser, Text: "tell me a joke"},
		},
	}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamGenerate() error = %v", err)
	}
	if res.Text != "I heard you: tell me a joke" {
		t.Fatalf("Text = %q", res.Text)
	}
	if strings.Join(deltas, "") != res.Text {
		t.Fatalf("deltas %v do not rebuild %q", deltas, res.Text)
	}
}

func TestMockReplyWithoutUserInput(t *testing.T) {
	p := NewMockProvider()
	res, err := p.StreamGenerate(context.Background(), GenerateRequest{}, nil)
	if err != nil {
		t.Fatalf("StreamGenerate() error = %v", err)
	}
	if res.Text == "" {
		t.Fatal("Text empty, want an introduction")
	}
}

func TestMockHonorsCancellation(t *testing.T) {
	p := NewMockProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.StreamGenerate(ctx, GenerateRequest{}, nil); err == nil {
		t.Fatal("StreamGenerate() error = nil on canceled context")
	}
}

func TestFactorySelectsMockWithoutKey(t *testing.T) {
	if _, ok := NewProvider(GeminiConfig{}, testLogger()).(*MockProvider); !ok {
		t.Fatal("NewProvider(no key) did not return mock")
	}
	if _, ok := NewProvider(GeminiConfig{APIKey: "k"}, testLogger()).(*GeminiProvider); !ok {
		t.Fatal("NewProvider(key) did not return gemini")
	}
}
