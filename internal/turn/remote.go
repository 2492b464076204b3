package turn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/rosie/internal/audio"
	"github.com/antoniostano/rosie/internal/reliability"
)

const remoteAttempts = 2

type RemoteConfig struct {
	URL     string
	Timeout time.Duration
}

// RemoteAnalyzer posts the captured speech as a WAV body to a hosted
// turn-inference service and maps its prediction back. Transient
// failures are retried once with backoff before the caller's failover
// kicks in.
type RemoteAnalyzer struct {
	cfg    RemoteConfig
	client *http.Client
	log    *logrus.Logger
}

func NewRemoteAnalyzer(cfg RemoteConfig, log *logrus.Logger) *RemoteAnalyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &RemoteAnalyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

type remotePrediction struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	Metrics     struct {
		InferenceTime float64 `json:"inference_time"`
		TotalTime     float64 `json:"total_time"`
	} `json:"metrics"`
}

func (a *RemoteAnalyzer) Analyze(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	wav, err := audio.EncodeWAVPCM16LE(in.PCM, in.SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("encode speech window: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < remoteAttempts; attempt++ {
		if attempt > 0 {
			wait := reliability.ExponentialBackoff(attempt, 150*time.Millisecond, 600*time.Millisecond)
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		pred, retryable, err := a.post(ctx, wav)
		if err == nil {
			return Result{
				Complete:    pred.Prediction == 1,
				Probability: pred.Probability,
				InferenceMS: pred.Metrics.InferenceTime * 1000,
				ServerMS:    pred.Metrics.TotalTime * 1000,
				E2EMS:       float64(time.Since(start).Microseconds()) / 1000.0,
			}, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		a.log.WithError(err).Warn("turn service request failed, retrying")
	}
	return Result{}, lastErr
}

func (a *RemoteAnalyzer) post(ctx context.Context, wav []byte) (remotePrediction, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(a.cfg.URL), bytes.NewReader(wav))
	if err != nil {
		return remotePrediction{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	res, err := a.client.Do(req)
	if err != nil {
		return remotePrediction{}, true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		err := fmt.Errorf("turn service status %d: %s", res.StatusCode, string(body))
		return remotePrediction{}, reliability.IsRetryableHTTPStatus(res.StatusCode), err
	}

	var pred remotePrediction
	if err := json.NewDecoder(res.Body).Decode(&pred); err != nil {
		return remotePrediction{}, false, fmt.Errorf("decode prediction: %w", err)
	}
	return pred, false, nil
}
