package anim

import (
	"context"
	"testing"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/rtvi"
)

func TestTalkCycleLoads(t *testing.T) {
	c, err := TalkCycle()
	if err != nil {
		t.Fatalf("TalkCycle() error = %v", err)
	}
	if c.Name != "talk_cycle" || c.FPS != 12 {
		t.Fatalf("cycle = %s fps %d", c.Name, c.FPS)
	}
	// 25 authored frames plus the mirrored bounce.
	if len(c.Frames) != 50 {
		t.Fatalf("len(Frames) = %d, want 50", len(c.Frames))
	}
	if c.Frames[0].ID != c.Frames[len(c.Frames)-1].ID {
		t.Fatal("bounce does not return to the first frame")
	}
	if q := c.Quiet(); q.Mouth != 0 {
		t.Fatalf("Quiet().Mouth = %v, want closed", q.Mouth)
	}
}

func TestLoadTalkCycleValidation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"bad json", `{`},
		{"zero fps", `{"name":"x","fps":0,"frames":[{"id":"a","mouth":0}]}`},
		{"no frames", `{"name":"x","fps":12,"frames":[]}`},
		{"missing id", `{"name":"x","fps":12,"frames":[{"mouth":0}]}`},
		{"mouth out of range", `{"name":"x","fps":12,"frames":[{"id":"a","mouth":1.5}]}`},
	}
	for _, tc := range cases {
		if _, err := loadTalkCycle([]byte(tc.raw)); err == nil {
			t.Fatalf("loadTalkCycle(%s) error = nil, want failure", tc.name)
		}
	}
}

type fakeAnimMessenger struct {
	payloads []any
}

func (m *fakeAnimMessenger) SendServerMessage(payload any) error {
	m.payloads = append(m.payloads, payload)
	return nil
}

func modes(payloads []any) []string {
	var out []string
	for _, p := range payloads {
		if st, ok := p.(rtvi.AnimationState); ok {
			out = append(out, st.Mode)
		}
	}
	return out
}

func TestTalkingAnimationLatchesTransitions(t *testing.T) {
	msgr := &fakeAnimMessenger{}
	st := NewTalkingAnimation(msgr)
	emit := func(frame.Frame) error { return nil }

	seq := []frame.Frame{
		frame.BotStartedSpeaking{},
		frame.BotStartedSpeaking{}, // no duplicate
		frame.LLMText{Text: "hi"},  // unrelated, passes through
		frame.BotStoppedSpeaking{},
		frame.BotStoppedSpeaking{}, // no duplicate
	}
	for _, f := range seq {
		if err := st.Process(context.Background(), f, emit); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}

	got := modes(msgr.payloads)
	if len(got) != 2 || got[0] != ModeTalking || got[1] != ModeQuiet {
		t.Fatalf("modes = %v, want [talking quiet]", got)
	}
}

func TestTalkingAnimationForwardsFrames(t *testing.T) {
	st := NewTalkingAnimation(&fakeAnimMessenger{})
	var forwarded int
	emit := func(frame.Frame) error { forwarded++; return nil }

	for _, f := range []frame.Frame{frame.BotStartedSpeaking{}, frame.Transcription{Text: "x"}} {
		if err := st.Process(context.Background(), f, emit); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
	if forwarded != 2 {
		t.Fatalf("forwarded = %d, want 2", forwarded)
	}
}
