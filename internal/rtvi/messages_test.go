package rtvi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseClientReady(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"label":"rtvi-ai","type":"client-ready"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if _, ok := msg.(ClientReady); !ok {
		t.Fatalf("ParseClientMessage() = %T, want ClientReady", msg)
	}
}

func TestParseDisconnectBot(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"label":"rtvi-ai","type":"disconnect-bot"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if _, ok := msg.(DisconnectBot); !ok {
		t.Fatalf("ParseClientMessage() = %T, want DisconnectBot", msg)
	}
}

func TestParseAudioChunk(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0x02, 0x00}
	raw, _ := json.Marshal(map[string]any{
		"label": Label,
		"type":  TypeAudioChunk,
		"data": map[string]any{
			"pcm":         base64.StdEncoding.EncodeToString(pcm),
			"sample_rate": 16000,
		},
	})

	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	chunk, ok := msg.(AudioChunk)
	if !ok {
		t.Fatalf("ParseClientMessage() = %T, want AudioChunk", msg)
	}
	if len(chunk.PCM) != len(pcm) || chunk.SampleRate != 16000 {
		t.Fatalf("AudioChunk = %+v, want %d bytes at 16000", chunk, len(pcm))
	}
}

func TestParseAudioChunkMissingPCM(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"label":"rtvi-ai","type":"audio-chunk","data":{}}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("ParseClientMessage() error = %v, want ErrInvalidMessage", err)
	}
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"label":"rtvi-ai","type":"make-coffee"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("ParseClientMessage() error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseWrongLabel(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"label":"other","type":"client-ready"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("ParseClientMessage() error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"label":`)); err == nil {
		t.Fatal("ParseClientMessage() error = nil, want decode failure")
	}
}

func TestMarshalEnvelopeShape(t *testing.T) {
	raw, err := Marshal(TypeBotLLMText, TextData{Text: "hello"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Label != Label || env.Type != TypeBotLLMText {
		t.Fatalf("envelope = %+v, want label %s type %s", env, Label, TypeBotLLMText)
	}
	var data TextData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Text != "hello" {
		t.Fatalf("data.Text = %q, want hello", data.Text)
	}
}

func TestMarshalNilData(t *testing.T) {
	raw, err := Marshal(TypeBotLLMStarted, nil)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if len(env.Data) != 0 {
		t.Fatalf("env.Data = %s, want empty", env.Data)
	}
}
