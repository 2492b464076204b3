// voiceprobe replays a spoken utterance against a running server and
// prints the conversation events it gets back. It answers two questions
// quickly: is the pipeline responding, and how fast.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/rosie/internal/audio"
	"github.com/antoniostano/rosie/internal/rtvi"
)

type options struct {
	baseURL     string
	clientID    string
	wavPath     string
	turns       int
	chunkMS     int
	realtime    float64
	turnTimeout time.Duration
	verbose     bool
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "voiceprobe: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "voiceprobe: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "server base URL")
	flag.StringVar(&cfg.clientID, "client-id", "voiceprobe", "client id reported to the server")
	flag.StringVar(&cfg.wavPath, "wav", "", "16-bit mono WAV file to replay (a generated tone when empty)")
	flag.IntVar(&cfg.turns, "turns", 3, "number of utterances to replay")
	flag.IntVar(&cfg.chunkMS, "chunk-ms", 40, "audio chunk size in milliseconds")
	flag.Float64Var(&cfg.realtime, "realtime", 2.0, "chunk pacing multiplier (1.0=realtime, 2.0=2x)")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 15000, "timeout waiting for the reply to finish per turn in milliseconds")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if cfg.chunkMS < 10 || cfg.chunkMS > 2000 {
		return options{}, fmt.Errorf("chunk-ms must be in [10,2000]")
	}
	if cfg.realtime <= 0 {
		return options{}, fmt.Errorf("realtime must be > 0")
	}
	if turnTimeoutMS < 1000 {
		turnTimeoutMS = 1000
	}
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond
	return cfg, nil
}

func run(cfg options) error {
	pcm, sampleRate, err := loadClip(cfg.wavPath)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}

	probeURL, err := wsURLFor(cfg.baseURL, cfg.clientID)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(probeURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	botReady := make(chan struct{}, 1)
	responseDone := make(chan struct{}, 8)
	readErr := make(chan error, 1)
	go readLoop(conn, botReady, responseDone, readErr, cfg.verbose)

	ready, err := rtvi.Marshal(rtvi.TypeClientReady, nil)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, ready); err != nil {
		return fmt.Errorf("send client-ready: %w", err)
	}

	if err := awaitSignal(botReady, readErr, cfg.turnTimeout); err != nil {
		return fmt.Errorf("await bot-ready: %w", err)
	}
	// The server opens with a short introduction before listening.
	if err := awaitSignal(responseDone, readErr, cfg.turnTimeout); err != nil {
		return fmt.Errorf("await introduction: %w", err)
	}

	for i := 0; i < cfg.turns; i++ {
		if cfg.verbose {
			fmt.Printf("voiceprobe: turn %d/%d sample_rate=%dHz bytes=%d\n", i+1, cfg.turns, sampleRate, len(pcm))
		}
		start := time.Now()
		if err := sendClip(conn, pcm, sampleRate, cfg.chunkMS, cfg.realtime); err != nil {
			return fmt.Errorf("turn %d send audio: %w", i+1, err)
		}
		if err := awaitSignal(responseDone, readErr, cfg.turnTimeout); err != nil {
			return fmt.Errorf("turn %d await reply: %w", i+1, err)
		}
		if cfg.verbose {
			fmt.Printf("voiceprobe: turn %d done in %s\n", i+1, time.Since(start).Round(time.Millisecond))
		}
	}

	bye, err := rtvi.Marshal(rtvi.TypeDisconnectBot, nil)
	if err != nil {
		return err
	}
	_ = conn.WriteMessage(websocket.TextMessage, bye)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	<-readErr

	if cfg.verbose {
		fmt.Println("voiceprobe: replay completed")
	}
	return nil
}

// loadClip returns the PCM to replay with roughly 300 ms of trailing
// silence appended, so recognizers that endpoint on quiet audio see the
// utterance finish.
func loadClip(path string) ([]byte, int, error) {
	var pcm []byte
	sampleRate := 16000
	if strings.TrimSpace(path) == "" {
		pcm = tonePCM(sampleRate, 1200*time.Millisecond)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, err
		}
		pcm, sampleRate, err = audio.DecodeWAVPCM16LE(data)
		if err != nil {
			return nil, 0, err
		}
	}
	silence := make([]byte, sampleRate*2*300/1000)
	return append(pcm, silence...), sampleRate, nil
}

// tonePCM generates a 440 Hz sine so the probe works without a recording.
func tonePCM(sampleRate int, d time.Duration) []byte {
	samples := int(float64(sampleRate) * d.Seconds())
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := math.Sin(2 * math.Pi * 440 * float64(i) / float64(sampleRate))
		s := int16(v * 0.25 * math.MaxInt16)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

func wsURLFor(baseURL, clientID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("client_id", clientID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sendClip paces the PCM onto the socket. Clips recorded at the server's
// native rate go as binary frames; other rates go as JSON chunks that
// carry an explicit sample_rate.
func sendClip(conn *websocket.Conn, pcm []byte, sampleRate, chunkMS int, realtime float64) error {
	bytesPerChunk := sampleRate * 2 * chunkMS / 1000
	if bytesPerChunk < 2 {
		bytesPerChunk = 2
	}
	if bytesPerChunk%2 != 0 {
		bytesPerChunk++
	}

	for off := 0; off < len(pcm); {
		end := off + bytesPerChunk
		if end > len(pcm) {
			end = len(pcm)
		}
		if (end-off)%2 != 0 {
			end--
		}
		if end <= off {
			break
		}
		chunk := pcm[off:end]

		var err error
		if sampleRate == 16000 {
			err = conn.WriteMessage(websocket.BinaryMessage, chunk)
		} else {
			err = conn.WriteJSON(map[string]any{
				"label": rtvi.Label,
				"type":  rtvi.TypeAudioChunk,
				"data": map[string]any{
					"pcm":         chunk,
					"sample_rate": sampleRate,
				},
			})
		}
		if err != nil {
			return err
		}
		off = end

		pace := time.Duration(float64(time.Duration(len(chunk))*time.Second/time.Duration(sampleRate*2)) / realtime)
		if pace <= 0 {
			pace = 10 * time.Millisecond
		}
		time.Sleep(pace)
	}
	return nil
}

func awaitSignal(ch <-chan struct{}, readErr <-chan error, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case err := <-readErr:
		return err
	case <-timer.C:
		return fmt.Errorf("timeout after %s", timeout)
	}
}

func readLoop(conn *websocket.Conn, botReady, responseDone chan<- struct{}, readErr chan<- error, verbose bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErr <- err:
			default:
			}
			return
		}

		var env rtvi.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case rtvi.TypeBotReady:
			select {
			case botReady <- struct{}{}:
			default:
			}
		case rtvi.TypeUserTranscription:
			if !verbose {
				continue
			}
			var tr rtvi.UserTranscriptionData
			if json.Unmarshal(env.Data, &tr) == nil && tr.Final {
				fmt.Printf("voiceprobe: heard %q\n", tr.Text)
			}
		case rtvi.TypeBotTranscription:
			var txt rtvi.TextData
			if json.Unmarshal(env.Data, &txt) == nil {
				fmt.Printf("voiceprobe: reply %q\n", txt.Text)
			}
		case rtvi.TypeBotLLMStopped:
			select {
			case responseDone <- struct{}{}:
			default:
			}
		case rtvi.TypeServerMessage:
			if !verbose {
				continue
			}
			var result rtvi.SmartTurnResult
			if json.Unmarshal(env.Data, &result) == nil && result.Type == rtvi.ServerPayloadSmartTurn {
				fmt.Printf("voiceprobe: turn analysis complete=%v p=%.2f e2e=%.0fms\n",
					result.IsComplete, result.Probability, result.E2EProcessingTimeMS)
			}
		case rtvi.TypeError:
			var e rtvi.ErrorData
			if json.Unmarshal(env.Data, &e) == nil {
				fmt.Fprintf(os.Stderr, "voiceprobe: server error: %s (fatal=%v)\n", e.Error, e.Fatal)
			}
		}
	}
}
