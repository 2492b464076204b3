// Package turn decides whether the user has finished speaking. The
// recognizer's endpoint signals say when speech paused; the analyzer
// here says whether that pause means the floor was yielded or the
// speaker is mid-thought.
package turn

import (
	"context"
	"time"
)

// Result is one end-of-turn analysis.
type Result struct {
	Complete    bool
	Probability float64
	// InferenceMS is time spent in the predictor itself, ServerMS the
	// analyzer-side total including pre/post processing, E2EMS the wall
	// time observed by the engine.
	InferenceMS float64
	ServerMS    float64
	E2EMS       float64
}

// Input carries everything known about the pending turn.
type Input struct {
	// PCM is the captured tail of user speech, 16-bit LE mono.
	PCM        []byte
	SampleRate int
	// Transcript is the text recognized so far for this turn.
	Transcript string
	Confidence float64
	// SpeechDuration is how long the user has been speaking.
	SpeechDuration time.Duration
}

// Analyzer predicts whether the turn is complete.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (Result, error)
}
