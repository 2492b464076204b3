package turn

import (
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pcmLevel(samples int, amplitude int16) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(amplitude))
	}
	return pcm
}

func analyze(t *testing.T, in Input) Result {
	t.Helper()
	res, err := NewLocalAnalyzer().Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res
}

func TestLocalAnalyzerTerminalCue(t *testing.T) {
	res := analyze(t, Input{
		Transcript:     "That's everything I wanted to know.",
		Confidence:     0.95,
		SpeechDuration: 2 * time.Second,
	})
	if !res.Complete {
		t.Fatalf("terminal utterance not complete: %+v", res)
	}
	if res.Probability < 0.7 {
		t.Fatalf("Probability = %v, want high", res.Probability)
	}
}

func TestLocalAnalyzerContinuationCue(t *testing.T) {
	cases := []string{
		"i went to the store and",
		"so the thing is,",
		"i wanted to ask you about the",
	}
	for _, transcript := range cases {
		res := analyze(t, Input{
			Transcript:     transcript,
			Confidence:     0.9,
			SpeechDuration: 2 * time.Second,
		})
		if res.Complete {
			t.Fatalf("Complete = true for %q: %+v", transcript, res)
		}
	}
}

func TestLocalAnalyzerTerminalBeatsContinuationHead(t *testing.T) {
	res := analyze(t, Input{
		Transcript:     "so that is everything, thanks",
		Confidence:     0.9,
		SpeechDuration: 3 * time.Second,
	})
	if !res.Complete {
		t.Fatalf("leading conjunction suppressed terminal cue: %+v", res)
	}
}

func TestLocalAnalyzerEmptyTranscript(t *testing.T) {
	res := analyze(t, Input{Transcript: "   "})
	if res.Complete {
		t.Fatalf("empty transcript judged complete: %+v", res)
	}
}

func TestLocalAnalyzerLowConfidenceHoldsBack(t *testing.T) {
	confident := analyze(t, Input{
		Transcript:     "tell me about rockets",
		Confidence:     0.9,
		SpeechDuration: 2 * time.Second,
	})
	unsure := analyze(t, Input{
		Transcript:     "tell me about rockets",
		Confidence:     0.3,
		SpeechDuration: 2 * time.Second,
	})
	if unsure.Probability >= confident.Probability {
		t.Fatalf("low confidence did not reduce probability: %v >= %v",
			unsure.Probability, confident.Probability)
	}
}

func TestLocalAnalyzerQuietTailRaisesProbability(t *testing.T) {
	const rate = 16000
	loud := pcmLevel(rate, 8000) // one second of speech
	quietTail := append(append([]byte{}, loud...), pcmLevel(rate/2, 0)...)

	speaking := analyze(t, Input{
		Transcript: "tell me about rockets", Confidence: 0.9,
		PCM: loud, SampleRate: rate, SpeechDuration: time.Second,
	})
	paused := analyze(t, Input{
		Transcript: "tell me about rockets", Confidence: 0.9,
		PCM: quietTail, SampleRate: rate, SpeechDuration: time.Second,
	})
	if paused.Probability <= speaking.Probability {
		t.Fatalf("quiet tail did not raise probability: %v <= %v",
			paused.Probability, speaking.Probability)
	}
}

func TestLocalAnalyzerProbabilityBounds(t *testing.T) {
	res := analyze(t, Input{
		Transcript:     "and because if when while",
		Confidence:     0.1,
		SpeechDuration: 100 * time.Millisecond,
	})
	if res.Probability < 0.01 || res.Probability > 0.99 {
		t.Fatalf("Probability = %v outside bounds", res.Probability)
	}
}
