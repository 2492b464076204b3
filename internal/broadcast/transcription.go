package broadcast

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/history"
	"github.com/antoniostano/rosie/internal/pipeline"
)

// Transcription mirrors speech recognition results to the client and
// records finalized utterances in the conversation history. A finalized
// utterance matching the summary command vocabulary is stored flagged as
// a command and answered with a log-only summary of the recent
// conversation; it is never sent to the client as a display message.
type Transcription struct {
	history *history.History
	msgr    Messenger
	log     *logrus.Logger
}

func NewTranscription(h *history.History, m Messenger, log *logrus.Logger) *Transcription {
	return &Transcription{history: h, msgr: m, log: log}
}

func (t *Transcription) Name() string { return "transcription_broadcast" }

func (t *Transcription) Process(_ context.Context, f frame.Frame, emit pipeline.Emit) error {
	switch fr := f.(type) {
	case frame.InterimTranscription:
		if err := t.msgr.SendUserTranscription(fr.Text, fr.UserID, fr.Timestamp, false); err != nil {
			return err
		}
	case frame.Transcription:
		isCommand := history.IsSummaryCommand(fr.Text)
		t.history.Add(history.SpeakerUser, fr.Text, isCommand)
		if isCommand {
			t.logSummary()
		}
		if err := t.msgr.SendUserTranscription(fr.Text, fr.UserID, fr.Timestamp, true); err != nil {
			return err
		}
	}
	return emit(f)
}

func (t *Transcription) logSummary() {
	lines := history.BuildSummary(t.history.Recent(history.SummaryWindow, false))
	if len(lines) == 0 {
		t.log.Info("summary requested, no recent conversation")
		return
	}
	t.log.Info("conversation summary:")
	for _, line := range lines {
		t.log.Info(line)
	}
}
