// Package httpapi exposes the service over HTTP: the realtime voice
// websocket, the session and latency endpoints, Prometheus metrics, and
// the embedded demo client.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/anim"
	"github.com/antoniostano/rosie/internal/config"
	"github.com/antoniostano/rosie/internal/observability"
	"github.com/antoniostano/rosie/internal/rtvi"
	"github.com/antoniostano/rosie/internal/session"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 2 << 20
)

// SessionRunner drives one websocket connection worth of conversation.
// The transport stays ignorant of frames and providers; it only shuttles
// parsed client messages in and serialized envelopes out.
type SessionRunner interface {
	RunConnection(ctx context.Context, s *session.Session, inbound <-chan any, sender *rtvi.Sender) error
}

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	runner   SessionRunner
	metrics  *observability.Metrics
	latency  *observability.TurnLatencyWindow
	upgrader websocket.Upgrader
	static   http.Handler
	log      *logrus.Logger
}

func New(cfg config.Config, sessions *session.Manager, runner SessionRunner, metrics *observability.Metrics, latency *observability.TurnLatencyWindow, log *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		runner:   runner,
		metrics:  metrics,
		latency:  latency,
		static:   staticHandler(),
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin admits same-host browsers and any non-browser client.
func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients omit Origin.
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", observability.MetricsHandler())

	r.Get("/ws", s.handleWS)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sessions", s.handleSessions)
		r.Get("/turn/latency", s.handleTurnLatency)
		r.Get("/animation", s.handleAnimation)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports which provider each concern resolved to, so a
// deploy shows at a glance whether it runs against real services or the
// built-in stand-ins.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, readyResponse{
		Status:  "ready",
		STT:     pickProvider(s.cfg.DeepgramAPIKey != "", "deepgram", "mock"),
		LLM:     pickProvider(s.cfg.GoogleAPIKey != "", "gemini", "mock"),
		Turn:    pickProvider(s.cfg.SmartTurnURL != "", "remote", "local"),
		Archive: pickProvider(s.cfg.DatabaseURL != "", "postgres", "memory"),
	})
}

type readyResponse struct {
	Status  string `json:"status"`
	STT     string `json:"stt_provider"`
	LLM     string `json:"llm_provider"`
	Turn    string `json:"turn_analyzer"`
	Archive string `json:"archive"`
}

func pickProvider(configured bool, real, fallback string) string {
	if configured {
		return real
	}
	return fallback
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, session.ListResponse{
		GeneratedAt: time.Now().UTC(),
		ActiveCount: s.sessions.ActiveCount(),
		Sessions:    s.sessions.List(),
	})
}

func (s *Server) handleAnimation(w http.ResponseWriter, _ *http.Request) {
	cycle, err := anim.TalkCycle()
	if err != nil {
		s.log.WithError(err).Error("talk cycle unavailable")
		respondError(w, http.StatusInternalServerError, "animation data unavailable")
		return
	}
	respondJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade rejected")
		return
	}
	defer conn.Close()

	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		clientID = uuid.NewString()
	}
	sess := s.sessions.Create(clientID, r.RemoteAddr)

	log := s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"client_id":  clientID,
		"remote":     r.RemoteAddr,
	})
	log.Info("websocket connected")
	s.countSessionEvent("ws_connected")
	s.gaugeActiveSessions()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 256)
	outbound := make(chan []byte, 256)

	sender := rtvi.NewSender(outbound, s.log)
	if s.metrics != nil {
		sender.SetObserver(func(msgType string, dropped bool) {
			s.metrics.WSMessages.WithLabelValues("outbound", msgType).Inc()
			if dropped {
				s.metrics.WSDropped.WithLabelValues(msgType).Inc()
			}
		})
	}

	var runErr error
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		runErr = s.runner.RunConnection(ctx, sess, inbound, sender)
	}()

	// The runner can end the session on its own, for a fatal provider
	// error or a disconnect-bot message. Closing the socket unblocks the
	// read loop below.
	go func() {
		select {
		case <-runDone:
			cancel()
			conn.Close()
		case <-ctx.Done():
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()
		for {
			select {
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.WithError(err).Debug("websocket write failed")
					cancel()
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	resetReadDeadline := func() { _ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) }
	resetReadDeadline()
	conn.SetPongHandler(func(string) error {
		resetReadDeadline()
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				log.WithError(err).Debug("websocket read ended")
			}
			break
		}
		resetReadDeadline()

		switch msgType {
		case websocket.BinaryMessage:
			s.countInbound(rtvi.TypeAudioChunk)
			select {
			case inbound <- rtvi.AudioChunk{PCM: data, SampleRate: s.cfg.STTSampleRate}:
			case <-ctx.Done():
			}
		case websocket.TextMessage:
			msg, perr := rtvi.ParseClientMessage(data)
			if perr != nil {
				log.WithError(perr).Debug("client message rejected")
				_ = sender.SendError(perr.Error(), false)
				continue
			}
			s.countInbound(messageTypeOf(msg))
			select {
			case inbound <- msg:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone

	if runErr != nil {
		log.WithError(runErr).Warn("session ended with error")
	} else {
		log.Info("websocket disconnected")
	}
	s.countSessionEvent("ws_disconnected")
	s.gaugeActiveSessions()
}

func messageTypeOf(msg any) string {
	switch msg.(type) {
	case rtvi.ClientReady:
		return rtvi.TypeClientReady
	case rtvi.DisconnectBot:
		return rtvi.TypeDisconnectBot
	case rtvi.AudioChunk:
		return rtvi.TypeAudioChunk
	default:
		return "unknown"
	}
}

func (s *Server) countInbound(msgType string) {
	if s.metrics == nil {
		return
	}
	s.metrics.WSMessages.WithLabelValues("inbound", msgType).Inc()
}

func (s *Server) countSessionEvent(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SessionEvents.WithLabelValues(event).Inc()
}

func (s *Server) gaugeActiveSessions() {
	if s.metrics == nil {
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
