// Package anim owns the avatar animation data. The talk cycle ships as
// an embedded keyframe description; clients fetch it once over HTTP and
// render it themselves, driven by mode transitions on the websocket.
package anim

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

// Animation modes announced to clients.
const (
	ModeQuiet   = "quiet"
	ModeTalking = "talking"
)

//go:embed assets/talk_cycle.json
var talkCycleJSON []byte

type Keyframe struct {
	ID    string  `json:"id"`
	Mouth float64 `json:"mouth"`
}

// Cycle is a renderable animation loop.
type Cycle struct {
	Name   string     `json:"name"`
	FPS    int        `json:"fps"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Frames []Keyframe `json:"frames"`
}

// Quiet is the rest pose shown while the bot is not speaking.
func (c *Cycle) Quiet() Keyframe {
	return c.Frames[0]
}

var (
	loadOnce sync.Once
	cycle    *Cycle
	loadErr  error
)

// TalkCycle returns the process-wide talking animation, loading and
// validating it on first use.
func TalkCycle() (*Cycle, error) {
	loadOnce.Do(func() {
		cycle, loadErr = loadTalkCycle(talkCycleJSON)
	})
	return cycle, loadErr
}

func loadTalkCycle(raw []byte) (*Cycle, error) {
	var c Cycle
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode talk cycle: %w", err)
	}
	if c.FPS <= 0 {
		return nil, fmt.Errorf("talk cycle fps %d invalid", c.FPS)
	}
	if len(c.Frames) == 0 {
		return nil, fmt.Errorf("talk cycle has no frames")
	}
	for i, f := range c.Frames {
		if f.ID == "" {
			return nil, fmt.Errorf("talk cycle frame %d missing id", i)
		}
		if f.Mouth < 0 || f.Mouth > 1 {
			return nil, fmt.Errorf("talk cycle frame %d mouth %v out of range", i, f.Mouth)
		}
	}

	// Append the reversed sequence so playback bounces back to the rest
	// pose instead of snapping.
	mirrored := make([]Keyframe, 0, len(c.Frames)*2)
	mirrored = append(mirrored, c.Frames...)
	for i := len(c.Frames) - 1; i >= 0; i-- {
		mirrored = append(mirrored, c.Frames[i])
	}
	c.Frames = mirrored
	return &c, nil
}
