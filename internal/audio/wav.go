// Package audio provides the small amount of PCM handling the engine
// needs: WAV framing for the turn analysis service and level helpers for
// the captured-speech window. All audio is signed 16-bit little-endian
// mono.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const headerSize = 44

// EncodeWAVPCM16LE wraps raw PCM bytes in a WAV container.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(pcm))
	if err := WriteWAVPCM16LETo(&buf, pcm, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVPCM16LETo writes raw PCM bytes to out as a WAV stream.
func WriteWAVPCM16LETo(out io.Writer, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	var hdr [headerSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+len(pcm)))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(len(pcm)))

	if _, err := out.Write(hdr[:]); err != nil {
		return err
	}
	_, err := out.Write(pcm)
	return err
}

// DecodeWAVPCM16LE extracts raw PCM samples from a WAV container. Only
// 16-bit mono PCM streams are accepted.
func DecodeWAVPCM16LE(data []byte) (pcm []byte, sampleRate int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE stream")
	}

	var haveFmt bool
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			rate := binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 {
				return nil, 0, fmt.Errorf("unsupported audio format %d, want PCM", format)
			}
			if channels != 1 {
				return nil, 0, fmt.Errorf("unsupported channel count %d, want mono", channels)
			}
			if bits != 16 {
				return nil, 0, fmt.Errorf("unsupported sample width %d, want 16-bit", bits)
			}
			sampleRate = int(rate)
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		// Chunks are word aligned.
		off = body + size + (size & 1)
	}

	if !haveFmt {
		return nil, 0, errors.New("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, errors.New("missing data chunk")
	}
	return pcm, sampleRate, nil
}
