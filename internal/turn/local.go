package turn

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/antoniostano/rosie/internal/audio"
)

const (
	completeThreshold = 0.5
	confidenceUnknown = 0.55
	silenceRMS        = 0.01
)

var (
	continuationTailRe   = regexp.MustCompile(`(?i)\b(and|but|because|so|then|which|that|if|when|while|as|to|for)\s*$`)
	continuationHeadRe   = regexp.MustCompile(`(?i)^(and|but|because|so|then)\b`)
	continuationPhraseRe = regexp.MustCompile(`(?i)\b(i mean|for example|for instance|in order to)\s*$`)
	terminalTailRe       = regexp.MustCompile(`(?i)([.!?]["']?\s*$|\b(done|thanks|thank you|that's all|thats all)\s*$)`)
	openTailRe           = regexp.MustCompile(`[,;:\-…]\s*$`)
)

// LocalAnalyzer scores end of turn from linguistic cues in the
// transcript, with the trailing audio level as a tiebreaker. It needs no
// network and serves as the fallback when the hosted analyzer is down.
type LocalAnalyzer struct{}

func NewLocalAnalyzer() *LocalAnalyzer { return &LocalAnalyzer{} }

func (a *LocalAnalyzer) Analyze(_ context.Context, in Input) (Result, error) {
	start := time.Now()
	p := completionProbability(in)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	return Result{
		Complete:    p >= completeThreshold,
		Probability: p,
		InferenceMS: elapsed,
		ServerMS:    elapsed,
		E2EMS:       elapsed,
	}, nil
}

func completionProbability(in Input) float64 {
	normalized := strings.TrimSpace(strings.ToLower(in.Transcript))
	if normalized == "" {
		// Nothing recognized yet; the thought is still forming.
		return 0.2
	}
	conf := normalizeConfidence(in.Confidence)

	continuation := hasContinuationCue(normalized)
	terminal := hasTerminalCue(normalized)

	p := 0.58
	switch {
	case terminal:
		p = 0.9
	case continuation:
		p = 0.15
	}

	if in.SpeechDuration > 0 && in.SpeechDuration < 700*time.Millisecond {
		p -= 0.12
	}
	if in.SpeechDuration > 6*time.Second && !continuation {
		p += 0.08
	}
	if conf < 0.45 {
		p -= 0.15
	}

	if len(in.PCM) > 0 && in.SampleRate > 0 {
		tail := tailWindow(in.PCM, in.SampleRate, 300*time.Millisecond)
		if audio.RMS(tail) < silenceRMS {
			p += 0.1
		} else {
			p -= 0.1
		}
	}

	return clampFloat(p, 0.01, 0.99)
}

func hasContinuationCue(normalized string) bool {
	if normalized == "" {
		return false
	}
	return openTailRe.MatchString(normalized) ||
		continuationHeadRe.MatchString(normalized) ||
		continuationTailRe.MatchString(normalized) ||
		continuationPhraseRe.MatchString(normalized)
}

func hasTerminalCue(normalized string) bool {
	if normalized == "" || openTailRe.MatchString(normalized) {
		return false
	}
	return terminalTailRe.MatchString(normalized)
}

func normalizeConfidence(conf float64) float64 {
	if conf <= 0 || conf > 1 {
		return confidenceUnknown
	}
	return conf
}

// tailWindow returns the last d worth of samples.
func tailWindow(pcm []byte, sampleRate int, d time.Duration) []byte {
	n := int(d.Seconds() * float64(sampleRate) * 2)
	if n <= 0 || n >= len(pcm) {
		return pcm
	}
	return pcm[len(pcm)-n:]
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
