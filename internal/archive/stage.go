package archive

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/history"
	"github.com/antoniostano/rosie/internal/pipeline"
	"github.com/antoniostano/rosie/internal/policy"
)

// Stage mirrors finished utterances into the archive store. Writes are
// best effort: a failing store is logged and the turn continues, so a
// database outage never takes a live conversation down with it. Text is
// PII-redacted on the way in; only the in-memory conversation keeps the
// user's exact words.
type Stage struct {
	store     Store
	sessionID string
	log       *logrus.Logger

	buf strings.Builder
}

func NewStage(store Store, sessionID string, log *logrus.Logger) *Stage {
	return &Stage{store: store, sessionID: sessionID, log: log}
}

func (s *Stage) Name() string { return "transcript_archive" }

func (s *Stage) Process(ctx context.Context, f frame.Frame, emit pipeline.Emit) error {
	switch fr := f.(type) {
	case frame.Transcription:
		text, _ := policy.RedactPII(fr.Text)
		s.save(ctx, Record{
			SessionID: s.sessionID,
			Speaker:   history.SpeakerUser,
			Text:      text,
			IsCommand: history.IsSummaryCommand(fr.Text),
		})
	case frame.LLMResponseStart:
		s.buf.Reset()
	case frame.LLMText:
		s.buf.WriteString(fr.Text)
	case frame.LLMResponseEnd:
		text := strings.TrimSpace(s.buf.String())
		s.buf.Reset()
		if text != "" {
			// The model can echo PII straight back.
			text, _ = policy.RedactPII(text)
			s.save(ctx, Record{
				SessionID: s.sessionID,
				Speaker:   history.SpeakerBot,
				Text:      text,
			})
		}
	}
	return emit(f)
}

func (s *Stage) save(ctx context.Context, rec Record) {
	if err := s.store.SaveUtterance(ctx, rec); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"session_id": rec.SessionID,
			"speaker":    rec.Speaker,
		}).Warn("transcript archive write failed")
	}
}
