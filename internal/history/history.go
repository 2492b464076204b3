// Package history keeps a small, time-windowed record of what was said in a
// session, used for backend logs and the voice-command summary feature. It is
// not the model context and never leaves the process.
package history

import (
	"strings"
	"time"
)

// Speaker labels for entries.
const (
	SpeakerUser = "user"
	SpeakerBot  = "bot"
)

// Entry is one utterance in the conversation record.
type Entry struct {
	Speaker   string
	Text      string
	Timestamp time.Time
	IsCommand bool
}

// Options bound the buffer. Zero values pick the defaults.
type Options struct {
	// MaxAge evicts entries older than this on every Add. Default 5m.
	MaxAge time.Duration
	// MaxEntries caps the buffer; the oldest entry is dropped once full.
	// Default 200.
	MaxEntries int
}

const (
	defaultMaxAge     = 5 * time.Minute
	defaultMaxEntries = 200
)

// History is an append-only, bounded conversation record. Entries are held in
// insertion order, which is also chronological order. It is not safe for
// concurrent use: the session loop delivers events to it one at a time.
type History struct {
	entries    []Entry
	maxAge     time.Duration
	maxEntries int
	now        func() time.Time
}

func New(opts Options) *History {
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	return &History{
		entries:    make([]Entry, 0, opts.MaxEntries),
		maxAge:     opts.MaxAge,
		maxEntries: opts.MaxEntries,
		now:        time.Now,
	}
}

// Add appends an utterance stamped with the current time, then prunes
// anything older than the age window. Text is trimmed; an utterance that
// trims to empty is discarded. Add never fails.
func (h *History) Add(speaker, text string, isCommand bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(h.entries) >= h.maxEntries {
		// Ring semantics: drop the oldest to make room.
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, Entry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: h.now(),
		IsCommand: isCommand,
	})
	h.prune()
}

// prune trims the expired prefix. Entries are chronological, so the scan
// stops at the first entry still inside the window.
func (h *History) prune() {
	cutoff := h.now().Add(-h.maxAge)
	drop := 0
	for drop < len(h.entries) && h.entries[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop == 0 {
		return
	}
	remaining := copy(h.entries, h.entries[drop:])
	h.entries = h.entries[:remaining]
}

// Recent returns, oldest first, every entry recorded within the window.
// Command entries are excluded unless includeCommands is set. Recent is a
// pure read: it does not prune.
func (h *History) Recent(window time.Duration, includeCommands bool) []Entry {
	cutoff := h.now().Add(-window)
	out := make([]Entry, 0, len(h.entries))
	for _, e := range h.entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		if e.IsCommand && !includeCommands {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len reports the stored entry count.
func (h *History) Len() int {
	return len(h.entries)
}
