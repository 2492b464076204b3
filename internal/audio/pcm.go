package audio

import (
	"encoding/binary"
	"math"
)

// RMS returns the root mean square level of the samples, normalized to
// [0, 1].
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// TrimLeadingSilence drops audio preceding the first 20 ms frame whose
// level reaches threshold. Returns nil when the whole buffer is below
// threshold.
func TrimLeadingSilence(pcm []byte, sampleRate int, threshold float64) []byte {
	if sampleRate <= 0 {
		return pcm
	}
	frameBytes := sampleRate / 50 * 2
	if frameBytes <= 0 || len(pcm) < frameBytes {
		if RMS(pcm) >= threshold {
			return pcm
		}
		return nil
	}
	for off := 0; off+frameBytes <= len(pcm); off += frameBytes {
		if RMS(pcm[off:off+frameBytes]) >= threshold {
			return pcm[off:]
		}
	}
	return nil
}

// DurationMS reports how much speech time a PCM byte count represents.
func DurationMS(pcmBytes, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(pcmBytes) / 2 / float64(sampleRate) * 1000
}
