package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/reliability"
)

const keepaliveInterval = 5 * time.Second

type DeepgramConfig struct {
	APIKey         string
	WSBaseURL      string
	Model          string
	Languages      []string
	SampleRate     int
	UtteranceEndMS int
}

// DeepgramProvider speaks the Deepgram live transcription protocol over
// a websocket: binary frames carry audio upstream, JSON messages carry
// results downstream.
type DeepgramProvider struct {
	cfg DeepgramConfig
	log *logrus.Logger
}

func NewDeepgramProvider(cfg DeepgramConfig, log *logrus.Logger) *DeepgramProvider {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.deepgram.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "nova-3-general"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.UtteranceEndMS <= 0 {
		cfg.UtteranceEndMS = 1000
	}
	return &DeepgramProvider{cfg: cfg, log: log}
}

func (p *DeepgramProvider) listenURL() (string, error) {
	u, err := url.Parse(strings.TrimRight(p.cfg.WSBaseURL, "/") + "/v1/listen")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", p.cfg.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(p.cfg.SampleRate))
	q.Set("channels", "1")
	q.Set("interim_results", "true")
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("vad_events", "true")
	q.Set("utterance_end_ms", strconv.Itoa(p.cfg.UtteranceEndMS))
	if len(p.cfg.Languages) > 0 {
		q.Set("detect_language", "true")
		for _, lang := range p.cfg.Languages {
			q.Add("languages", lang)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *DeepgramProvider) StartSession(ctx context.Context, sessionID string) (Session, <-chan Event, error) {
	target, err := p.listenURL()
	if err != nil {
		return nil, nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, headers)
	if err != nil {
		return nil, nil, fmt.Errorf("dial stt websocket: %w", err)
	}

	events := make(chan Event, 256)
	s := &deepgramSession{
		conn:   conn,
		events: events,
		done:   make(chan struct{}),
		log:    p.log.WithField("stt_session", sessionID),
	}
	go s.readLoop()
	go s.keepaliveLoop()
	return s, events, nil
}

type deepgramSession struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	events    chan Event
	done      chan struct{}
	log       *logrus.Entry
}

func (s *deepgramSession) SendAudio(_ context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (s *deepgramSession) Finish(_ context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(map[string]string{"type": "CloseStream"})
}

// Close shuts the connection down; the events channel is closed by the
// read loop once it drains.
func (s *deepgramSession) Close() error {
	var retErr error
	s.closeOnce.Do(func() {
		close(s.done)
		retErr = s.conn.Close()
	})
	return retErr
}

func (s *deepgramSession) readLoop() {
	defer func() {
		_ = s.Close()
		close(s.events)
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if code := wsCloseCode(err); code != 0 && code != websocket.CloseNormalClosure {
				s.log.WithError(err).Warn("stt stream closed abnormally")
				s.events <- Event{
					Type:      EventError,
					Code:      "connection_closed",
					Detail:    err.Error(),
					Retryable: reliability.IsRetryableWebsocketClose(code),
					Timestamp: time.Now().UnixMilli(),
				}
			}
			return
		}
		if ev, ok := decodeLiveMessage(data, time.Now); ok {
			s.events <- ev
		}
	}
}

// keepaliveLoop pings the recognizer so it keeps the stream open across
// silent stretches.
func (s *deepgramSession) keepaliveLoop() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteJSON(map[string]string{"type": "KeepAlive"})
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func wsCloseCode(err error) int {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code
	}
	return 0
}

type liveMessage struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string   `json:"transcript"`
			Confidence float64  `json:"confidence"`
			Languages  []string `json:"languages"`
		} `json:"alternatives"`
	} `json:"channel"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

// decodeLiveMessage converts one provider message into an engine event.
// Control messages and empty transcripts yield no event.
func decodeLiveMessage(data []byte, now func() time.Time) (Event, bool) {
	var msg liveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, false
	}
	ts := now().UnixMilli()
	switch msg.Type {
	case "Results":
		if len(msg.Channel.Alternatives) == 0 {
			return Event{}, false
		}
		alt := msg.Channel.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			return Event{}, false
		}
		ev := Event{
			Text:        text,
			Confidence:  alt.Confidence,
			SpeechFinal: msg.SpeechFinal,
			Timestamp:   ts,
		}
		if len(alt.Languages) > 0 {
			ev.Language = alt.Languages[0]
		}
		if msg.IsFinal {
			ev.Type = EventFinal
		} else {
			ev.Type = EventPartial
		}
		return ev, true
	case "SpeechStarted":
		return Event{Type: EventSpeechStarted, Timestamp: ts}, true
	case "UtteranceEnd":
		return Event{Type: EventUtteranceEnd, Timestamp: ts}, true
	case "Error":
		detail := msg.Description
		if detail == "" {
			detail = msg.Message
		}
		return Event{Type: EventError, Code: "provider_error", Detail: detail, Timestamp: ts}, true
	default:
		// Metadata and other control traffic.
		return Event{}, false
	}
}
