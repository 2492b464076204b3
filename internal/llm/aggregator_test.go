package llm

import (
	"context"
	"testing"

	"github.com/antoniostano/rosie/internal/frame"
)

func emitNoop(frame.Frame) error { return nil }

func TestUserAggregatorCollectsFinalsOnly(t *testing.T) {
	conv := NewContext("")
	st := NewUserAggregator(conv)

	frames := []frame.Frame{
		frame.InterimTranscription{Text: "hel"},
		frame.Transcription{Text: "hello there"},
		frame.UserStoppedSpeaking{},
	}
	for _, f := range frames {
		if err := st.Process(context.Background(), f, emitNoop); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}

	req := conv.Snapshot("s", "t")
	if len(req.Messages) != 1 || req.Messages[0].Text != "hello there" {
		t.Fatalf("Messages = %+v, want one final transcription", req.Messages)
	}
}

func TestAssistantAggregatorCommitsOnResponseEnd(t *testing.T) {
	conv := NewContext("")
	st := NewAssistantAggregator(conv)

	frames := []frame.Frame{
		frame.LLMResponseStart{},
		frame.LLMText{Text: "Nice "},
		frame.LLMText{Text: "to meet you."},
		frame.LLMResponseEnd{},
	}
	for _, f := range frames {
		if err := st.Process(context.Background(), f, emitNoop); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}

	req := conv.Snapshot("s", "t")
	if len(req.Messages) != 1 {
		t.Fatalf("Messages = %+v, want 1", req.Messages)
	}
	if req.Messages[0].Role != RoleModel || req.Messages[0].Text != "Nice to meet you." {
		t.Fatalf("Messages[0] = %+v", req.Messages[0])
	}
}

func TestAssistantAggregatorDropsStaleBuffer(t *testing.T) {
	conv := NewContext("")
	st := NewAssistantAggregator(conv)

	frames := []frame.Frame{
		frame.LLMResponseStart{},
		frame.LLMText{Text: "interrupted"},
		frame.LLMResponseStart{},
		frame.LLMText{Text: "clean"},
		frame.LLMResponseEnd{},
	}
	for _, f := range frames {
		if err := st.Process(context.Background(), f, emitNoop); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}

	req := conv.Snapshot("s", "t")
	if len(req.Messages) != 1 || req.Messages[0].Text != "clean" {
		t.Fatalf("Messages = %+v, want only the clean response", req.Messages)
	}
}
