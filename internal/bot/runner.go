// Package bot runs realtime conversation sessions. One goroutine per
// connection turns asynchronous transport and provider events into an
// ordered frame stream through the processing chain; everything the
// chain touches (history, context, stage buffers) is therefore free of
// locks.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/anim"
	"github.com/antoniostano/rosie/internal/archive"
	"github.com/antoniostano/rosie/internal/broadcast"
	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/history"
	"github.com/antoniostano/rosie/internal/llm"
	"github.com/antoniostano/rosie/internal/observability"
	"github.com/antoniostano/rosie/internal/pipeline"
	"github.com/antoniostano/rosie/internal/rtvi"
	"github.com/antoniostano/rosie/internal/session"
	"github.com/antoniostano/rosie/internal/stt"
	"github.com/antoniostano/rosie/internal/turn"
)

// Config carries the per-session knobs the runner needs.
type Config struct {
	SampleRate     int
	TurnWindowSecs int
	// TurnCommitFallback commits a pending turn this long after an
	// incomplete verdict, so a hesitant speaker still gets an answer.
	TurnCommitFallback time.Duration
	HistoryMaxAge      time.Duration
	HistoryMaxEntries  int
	// LocalRun switches the error policy to log-and-swallow; hosted
	// runs log and end the session.
	LocalRun bool
}

// Runner drives realtime sessions against the configured providers.
type Runner struct {
	cfg      Config
	sessions *session.Manager
	stt      stt.Provider
	llm      llm.Provider
	turns    turn.Analyzer
	store    archive.Store
	metrics  *observability.Metrics
	latency  *observability.TurnLatencyWindow
	log      *logrus.Logger
}

func NewRunner(
	cfg Config,
	sessions *session.Manager,
	sttProvider stt.Provider,
	llmProvider llm.Provider,
	analyzer turn.Analyzer,
	store archive.Store,
	metrics *observability.Metrics,
	latency *observability.TurnLatencyWindow,
	log *logrus.Logger,
) *Runner {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.TurnWindowSecs <= 0 {
		cfg.TurnWindowSecs = 8
	}
	if cfg.TurnCommitFallback <= 0 {
		cfg.TurnCommitFallback = 3 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		sessions: sessions,
		stt:      sttProvider,
		llm:      llmProvider,
		turns:    analyzer,
		store:    store,
		metrics:  metrics,
		latency:  latency,
		log:      log,
	}
}

// errDisconnected signals a clean client-requested shutdown.
var errDisconnected = errors.New("client disconnected")

// genEvent carries generation output back onto the session loop.
type genEvent struct {
	turnID string
	delta  string
	done   bool
	err    error
}

// analysisOutcome carries a turn completion verdict back onto the loop.
type analysisOutcome struct {
	id  string
	res turn.Result
	err error
}

// RunConnection owns one client connection until it ends. Inbound
// carries decoded client messages (rtvi.AudioChunk, rtvi.ClientReady,
// rtvi.DisconnectBot); closing it ends the session.
func (r *Runner) RunConnection(ctx context.Context, s *session.Session, inbound <-chan any, sender *rtvi.Sender) error {
	log := r.log.WithField("session_id", s.ID)

	sttSession, sttEvents, err := r.stt.StartSession(ctx, s.ID)
	if err != nil {
		_ = sender.SendError("speech recognition unavailable", true)
		r.providerError("stt", "connect_failed")
		return fmt.Errorf("start stt session: %w", err)
	}
	defer sttSession.Close()

	hist := history.New(history.Options{
		MaxAge:     r.cfg.HistoryMaxAge,
		MaxEntries: r.cfg.HistoryMaxEntries,
	})
	conv := llm.NewContext(llm.SystemPrompt)

	stages := []pipeline.Stage{
		broadcast.NewTranscription(hist, sender, r.log),
		llm.NewUserAggregator(conv),
		broadcast.NewLLMOutput(hist, sender, r.log),
		broadcast.NewTurnMetrics(sender, r.log),
		anim.NewTalkingAnimation(sender),
		llm.NewAssistantAggregator(conv),
	}
	if r.store != nil {
		stages = append(stages, archive.NewStage(r.store, s.ID, r.log))
	}
	chain := pipeline.New(stages...)
	if r.metrics != nil {
		chain.SetObserver(func(stage string, _ frame.Frame) {
			r.metrics.FramesProcessed.WithLabelValues(stage).Inc()
		})
	}

	window := turn.NewWindow(r.cfg.TurnWindowSecs, r.cfg.SampleRate)
	genCh := make(chan genEvent, 32)
	analysisCh := make(chan analysisOutcome, 4)

	var (
		ready        bool
		speechActive bool

		pendingTranscript []string
		lastConfidence    float64
		speechEndedAt     time.Time

		// analysisID names the in-flight completion check; stale
		// verdicts arriving after it changes are dropped.
		analysisID string

		activeTurnID string
		genCancel    context.CancelFunc
		responseOpen bool
		committedAt  time.Time

		commitTimer *time.Timer
		commitC     <-chan time.Time
	)

	stopFallback := func() {
		if commitTimer != nil {
			commitTimer.Stop()
			commitTimer = nil
			commitC = nil
		}
	}
	armFallback := func() {
		stopFallback()
		commitTimer = time.NewTimer(r.cfg.TurnCommitFallback)
		commitC = commitTimer.C
	}

	defer func() {
		if genCancel != nil {
			genCancel()
		}
		stopFallback()
		if _, err := r.sessions.End(s.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			log.WithError(err).Warn("ending session failed")
		}
		log.Info("session closed")
	}()

	deliver := func(f frame.Frame) error {
		if err := chain.Deliver(ctx, 0, f); err != nil {
			log.WithError(err).Error("frame processing failed")
			if r.cfg.LocalRun {
				return nil
			}
			return err
		}
		return nil
	}

	startGeneration := func(turnID string) {
		genCtx, cancel := context.WithCancel(ctx)
		genCancel = cancel
		activeTurnID = turnID
		responseOpen = false
		committedAt = time.Now()

		req := conv.Snapshot(s.ID, turnID)
		go func() {
			_, err := r.llm.StreamGenerate(genCtx, req, func(delta string) error {
				select {
				case genCh <- genEvent{turnID: turnID, delta: delta}:
					return nil
				case <-genCtx.Done():
					return genCtx.Err()
				}
			})
			select {
			case genCh <- genEvent{turnID: turnID, done: true, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	// interruptGeneration cuts a response short when the user starts
	// speaking over it. The partial text already streamed stays in the
	// context and history via the response-end frames.
	interruptGeneration := func() error {
		if genCancel == nil {
			return nil
		}
		genCancel()
		genCancel = nil
		activeTurnID = ""
		_ = r.sessions.Interrupt(s.ID)
		r.observeIndicator("interruption")
		log.Debug("generation interrupted by user speech")
		if responseOpen {
			responseOpen = false
			if err := deliver(frame.LLMResponseEnd{}); err != nil {
				return err
			}
			if err := deliver(frame.BotStoppedSpeaking{}); err != nil {
				return err
			}
		}
		return nil
	}

	commitTurn := func(trigger string) error {
		stopFallback()
		analysisID = ""
		transcript := strings.TrimSpace(strings.Join(pendingTranscript, " "))
		pendingTranscript = pendingTranscript[:0]
		window.Reset()
		if transcript == "" {
			return nil
		}

		if !speechEndedAt.IsZero() {
			d := time.Since(speechEndedAt)
			r.observeTurnStage(observability.StageSpeechEndToCommit, d)
			if r.metrics != nil {
				r.metrics.ObserveTurnCommitLatency(d)
			}
			speechEndedAt = time.Time{}
		}
		r.observeIndicator("turn_commit_" + trigger)

		turnID := uuid.NewString()
		_ = r.sessions.StartTurn(s.ID, turnID)
		log.WithFields(logrus.Fields{"turn_id": turnID, "trigger": trigger}).Debug("turn committed")
		if err := deliver(frame.LLMRun{}); err != nil {
			return err
		}
		startGeneration(turnID)
		return nil
	}

	endOfSpeech := func() error {
		if !speechActive {
			return nil
		}
		speechActive = false
		speechEndedAt = time.Now()
		if err := deliver(frame.UserStoppedSpeaking{}); err != nil {
			return err
		}
		if len(pendingTranscript) == 0 && window.DurationMS() <= 0 {
			return nil
		}

		id := uuid.NewString()
		analysisID = id
		in := turn.Input{
			PCM:            window.Speech(),
			SampleRate:     window.SampleRate(),
			Transcript:     strings.Join(pendingTranscript, " "),
			Confidence:     lastConfidence,
			SpeechDuration: time.Duration(window.DurationMS()) * time.Millisecond,
		}
		go func() {
			res, err := r.turns.Analyze(ctx, in)
			select {
			case analysisCh <- analysisOutcome{id: id, res: res, err: err}:
			case <-ctx.Done():
			}
		}()
		return nil
	}

	userSpeaking := func() error {
		// Fresh speech supersedes any pending verdict or armed commit.
		stopFallback()
		analysisID = ""
		if err := interruptGeneration(); err != nil {
			return err
		}
		if !speechActive {
			speechActive = true
			if err := deliver(frame.UserStartedSpeaking{}); err != nil {
				return err
			}
		}
		return nil
	}

	handleSTT := func(evt stt.Event) error {
		switch evt.Type {
		case stt.EventSpeechStarted:
			_ = r.sessions.Touch(s.ID)
			return userSpeaking()
		case stt.EventPartial:
			if strings.TrimSpace(evt.Text) == "" {
				return nil
			}
			if err := userSpeaking(); err != nil {
				return err
			}
			return deliver(frame.InterimTranscription{
				Text:      evt.Text,
				UserID:    s.ClientID,
				Timestamp: time.Now().UTC(),
				Language:  evt.Language,
			})
		case stt.EventFinal:
			text := strings.TrimSpace(evt.Text)
			if text == "" {
				return nil
			}
			_ = r.sessions.Touch(s.ID)
			if !speechActive {
				if err := userSpeaking(); err != nil {
					return err
				}
			}
			pendingTranscript = append(pendingTranscript, text)
			if evt.Confidence > 0 {
				lastConfidence = evt.Confidence
			}
			if err := deliver(frame.Transcription{
				Text:      text,
				UserID:    s.ClientID,
				Timestamp: time.Now().UTC(),
				Language:  evt.Language,
			}); err != nil {
				return err
			}
			if evt.SpeechFinal {
				return endOfSpeech()
			}
			return nil
		case stt.EventUtteranceEnd:
			return endOfSpeech()
		case stt.EventError:
			r.providerError("stt", evt.Code)
			log.WithFields(logrus.Fields{"code": evt.Code, "detail": evt.Detail}).Error("speech recognition error")
			if r.cfg.LocalRun {
				return nil
			}
			_ = sender.SendError(evt.Detail, !evt.Retryable)
			if !evt.Retryable {
				return fmt.Errorf("stt error %s: %s", evt.Code, evt.Detail)
			}
			return nil
		}
		return nil
	}

	handleAnalysis := func(out analysisOutcome) error {
		if out.id != analysisID {
			return nil
		}
		analysisID = ""
		if out.err != nil {
			r.providerError("smart_turn", "analyze_failed")
			log.WithError(out.err).Warn("turn analysis failed, deferring to fallback timer")
			armFallback()
			return nil
		}
		if r.metrics != nil {
			r.metrics.ObserveSmartTurnInference(out.res.InferenceMS)
		}
		if r.latency != nil {
			r.latency.Observe(observability.StageSmartTurnE2E, out.res.E2EMS)
		}
		if err := deliver(frame.TurnMetrics{
			IsComplete:          out.res.Complete,
			Probability:         out.res.Probability,
			InferenceTimeMS:     out.res.InferenceMS,
			ServerTotalTimeMS:   out.res.ServerMS,
			E2EProcessingTimeMS: out.res.E2EMS,
		}); err != nil {
			return err
		}
		if out.res.Complete {
			return commitTurn("smart_turn")
		}
		r.observeIndicator("turn_incomplete")
		armFallback()
		return nil
	}

	handleGen := func(ev genEvent) error {
		if ev.turnID != activeTurnID {
			return nil
		}
		if !ev.done {
			if !responseOpen {
				responseOpen = true
				d := time.Since(committedAt)
				r.observeTurnStage(observability.StageCommitToFirstText, d)
				if r.metrics != nil {
					r.metrics.ObserveFirstTextLatency(d)
				}
				if err := deliver(frame.LLMResponseStart{}); err != nil {
					return err
				}
				if err := deliver(frame.BotStartedSpeaking{}); err != nil {
					return err
				}
			}
			return deliver(frame.LLMText{Text: ev.delta})
		}

		if genCancel != nil {
			genCancel()
			genCancel = nil
		}
		activeTurnID = ""
		_ = r.sessions.EndTurn(s.ID)
		wasOpen := responseOpen
		responseOpen = false
		if wasOpen {
			if err := deliver(frame.LLMResponseEnd{}); err != nil {
				return err
			}
			if err := deliver(frame.BotStoppedSpeaking{}); err != nil {
				return err
			}
		}
		if ev.err != nil && !errors.Is(ev.err, context.Canceled) {
			r.providerError("llm", "generate_failed")
			log.WithError(ev.err).Error("model generation failed")
			if r.cfg.LocalRun {
				return nil
			}
			_ = sender.SendError("model generation failed", true)
			return fmt.Errorf("generate response: %w", ev.err)
		}
		if wasOpen {
			r.observeTurnStage(observability.StageCommitToResponseEnd, time.Since(committedAt))
		}
		return nil
	}

	handleClient := func(msg any) error {
		_ = r.sessions.Touch(s.ID)
		switch m := msg.(type) {
		case rtvi.AudioChunk:
			window.Append(m.PCM)
			if err := sttSession.SendAudio(ctx, m.PCM); err != nil {
				r.providerError("stt", "send_audio_failed")
				log.WithError(err).Warn("forwarding audio to recognizer failed")
			}
		case rtvi.ClientReady:
			if ready {
				return nil
			}
			ready = true
			r.countEvent("client_ready")
			if err := sender.SendBotReady(); err != nil {
				return err
			}
			// The animation stage only reacts to speaking transitions,
			// so the client gets its initial quiet state here.
			if err := sender.SendServerMessage(rtvi.AnimationState{
				Type: rtvi.ServerPayloadAnimation,
				Mode: anim.ModeQuiet,
			}); err != nil {
				return err
			}
			// Greet before any user speech.
			turnID := uuid.NewString()
			_ = r.sessions.StartTurn(s.ID, turnID)
			if err := deliver(frame.LLMRun{}); err != nil {
				return err
			}
			startGeneration(turnID)
		case rtvi.DisconnectBot:
			log.Info("client requested disconnect")
			return errDisconnected
		}
		return nil
	}

	log.WithField("client_id", s.ClientID).Info("session started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			if err := handleClient(msg); err != nil {
				if errors.Is(err, errDisconnected) {
					return nil
				}
				return err
			}
		case evt, ok := <-sttEvents:
			if !ok {
				log.Info("recognizer stream closed")
				return nil
			}
			if err := handleSTT(evt); err != nil {
				return err
			}
		case out := <-analysisCh:
			if err := handleAnalysis(out); err != nil {
				return err
			}
		case ev := <-genCh:
			if err := handleGen(ev); err != nil {
				return err
			}
		case <-commitC:
			commitTimer = nil
			commitC = nil
			r.countEvent("turn_commit_fallback")
			if err := commitTurn("fallback"); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) countEvent(name string) {
	if r.metrics != nil {
		r.metrics.SessionEvents.WithLabelValues(name).Inc()
	}
}

func (r *Runner) providerError(provider, code string) {
	if r.metrics != nil {
		r.metrics.ProviderErrors.WithLabelValues(provider, code).Inc()
	}
}

func (r *Runner) observeTurnStage(stage string, d time.Duration) {
	if r.latency != nil {
		r.latency.Observe(stage, float64(d.Microseconds())/1000)
	}
}

func (r *Runner) observeIndicator(name string) {
	if r.latency != nil {
		r.latency.ObserveIndicator(name)
	}
}
