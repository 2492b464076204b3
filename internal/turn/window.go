package turn

import "github.com/antoniostano/rosie/internal/audio"

// Window keeps the most recent stretch of caller audio for analysis.
// Older samples fall off the front as new ones arrive.
type Window struct {
	buf        []byte
	max        int
	sampleRate int
}

func NewWindow(seconds, sampleRate int) *Window {
	if seconds <= 0 {
		seconds = 8
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Window{
		max:        seconds * sampleRate * 2,
		sampleRate: sampleRate,
	}
}

func (w *Window) Append(pcm []byte) {
	if len(pcm) >= w.max {
		w.buf = append(w.buf[:0], pcm[len(pcm)-w.max:]...)
		return
	}
	if len(w.buf)+len(pcm) > w.max {
		drop := len(w.buf) + len(pcm) - w.max
		n := copy(w.buf, w.buf[drop:])
		w.buf = w.buf[:n]
	}
	w.buf = append(w.buf, pcm...)
}

// Speech returns the buffered audio with leading silence removed, which
// is what the analyzer wants to see. Nil means nothing voiced arrived.
func (w *Window) Speech() []byte {
	return audio.TrimLeadingSilence(w.buf, w.sampleRate, silenceRMS)
}

func (w *Window) DurationMS() float64 {
	return audio.DurationMS(len(w.buf), w.sampleRate)
}

func (w *Window) SampleRate() int { return w.sampleRate }

func (w *Window) Reset() {
	w.buf = w.buf[:0]
}
