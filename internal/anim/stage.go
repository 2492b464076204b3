package anim

import (
	"context"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/pipeline"
	"github.com/antoniostano/rosie/internal/rtvi"
)

// Messenger is the slice of the client messaging capability this stage
// needs.
type Messenger interface {
	SendServerMessage(payload any) error
}

// TalkingAnimation tells the client which avatar cycle to render. The
// mode is latched: only transitions produce a message.
type TalkingAnimation struct {
	msgr    Messenger
	talking bool
}

func NewTalkingAnimation(m Messenger) *TalkingAnimation {
	return &TalkingAnimation{msgr: m}
}

func (s *TalkingAnimation) Name() string { return "talking_animation" }

func (s *TalkingAnimation) Process(_ context.Context, f frame.Frame, emit pipeline.Emit) error {
	switch f.(type) {
	case frame.BotStartedSpeaking:
		if !s.talking {
			s.talking = true
			if err := s.sendMode(ModeTalking); err != nil {
				return err
			}
		}
	case frame.BotStoppedSpeaking:
		if s.talking {
			s.talking = false
			if err := s.sendMode(ModeQuiet); err != nil {
				return err
			}
		}
	}
	return emit(f)
}

func (s *TalkingAnimation) sendMode(mode string) error {
	return s.msgr.SendServerMessage(rtvi.AnimationState{
		Type: rtvi.ServerPayloadAnimation,
		Mode: mode,
	})
}
