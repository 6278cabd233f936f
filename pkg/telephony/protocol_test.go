package telephony

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestDecodeInboundStart(t *testing.T) {
	raw := `{"event":"start","sequenceNumber":"1","start":{"streamSid":"MZabc","callSid":"CAdef","mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1}}}`
	f, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Event != EventStart {
		t.Fatalf("event = %q", f.Event)
	}
	if f.Start.StreamSID != "MZabc" || f.Start.CallSID != "CAdef" {
		t.Fatalf("start = %+v", f.Start)
	}
	if f.Start.MediaFormat.SampleRate != 8000 {
		t.Fatalf("sample rate = %d", f.Start.MediaFormat.SampleRate)
	}
}

func TestDecodeInboundMediaAudio(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xff, 0x7f})
	raw := `{"event":"media","media":{"track":"inbound","payload":"` + payload + `"}}`
	f, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	audio, err := f.Audio()
	if err != nil {
		t.Fatalf("audio: %v", err)
	}
	if len(audio) != 2 || audio[0] != 0xff {
		t.Fatalf("audio = %v", audio)
	}
}

func TestDecodeInboundRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing event", `{"media":{"payload":""}}`},
		{"start without sid", `{"event":"start","start":{"callSid":"CA1"}}`},
		{"media without media", `{"event":"media"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeInbound([]byte(tc.raw)); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func TestDecodeInboundBadPayloadBase64(t *testing.T) {
	f, err := DecodeInbound([]byte(`{"event":"media","media":{"payload":"!!!"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := f.Audio(); err == nil {
		t.Fatal("expected base64 error")
	}
}

func TestOutboundMessages(t *testing.T) {
	media := NewMediaMessage("MZ1", []byte{0x00, 0xff})
	b, err := json.Marshal(media)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["event"] != "media" || decoded["streamSid"] != "MZ1" {
		t.Fatalf("media frame = %v", decoded)
	}
	inner := decoded["media"].(map[string]any)
	if inner["payload"] != base64.StdEncoding.EncodeToString([]byte{0x00, 0xff}) {
		t.Fatalf("payload = %v", inner["payload"])
	}

	clear := NewClearMessage("MZ1")
	if clear.Event != EventClear || clear.StreamSID != "MZ1" {
		t.Fatalf("clear = %+v", clear)
	}
}
