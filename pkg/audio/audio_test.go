package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func pcmBytes(samples ...int16) []byte {
	buf := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	return buf
}

func TestEncodeMulawKnownCodePoints(t *testing.T) {
	cases := []struct {
		name   string
		sample int16
		want   byte
	}{
		{"zero", 0, 0xFF},
		{"max negative clips to zero code", -32768, 0x00},
		{"max positive", 32767, 0x80},
		{"small positive", 128, 0xEF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EncodeMulaw(tc.sample); got != tc.want {
				t.Fatalf("EncodeMulaw(%d) = %#02x, want %#02x", tc.sample, got, tc.want)
			}
		})
	}
}

func TestEncodeMulawSignBit(t *testing.T) {
	for _, s := range []int16{1, 100, 1000, 20000} {
		pos := EncodeMulaw(s)
		neg := EncodeMulaw(-s)
		if pos&0x80 == 0 {
			t.Errorf("positive sample %d produced code %#02x with sign bit set", s, pos)
		}
		if neg&0x80 != 0 {
			t.Errorf("negative sample %d produced code %#02x without sign bit", -s, neg)
		}
	}
}

func TestDownsampleToMulawLength(t *testing.T) {
	cases := []struct {
		samples int
		want    int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 1},
		{6, 2},
		{7, 2},
		{300, 100},
	}
	for _, tc := range cases {
		samples := make([]int16, tc.samples)
		out := DownsampleToMulaw(pcmBytes(samples...), DecimationStride)
		if len(out) != tc.want {
			t.Errorf("%d samples: got %d mu-law bytes, want %d", tc.samples, len(out), tc.want)
		}
	}
}

func TestDownsampleToMulawPicksEveryThirdSample(t *testing.T) {
	in := pcmBytes(0, 9999, 9999, -32768, 9999, 9999)
	out := DownsampleToMulaw(in, 3)
	want := []byte{EncodeMulaw(0), EncodeMulaw(-32768)}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestDownsampleToMulawOddByteCountTruncates(t *testing.T) {
	in := append(pcmBytes(0, 0, 0), 0x7f)
	out := DownsampleToMulaw(in, 3)
	if len(out) != 1 {
		t.Fatalf("got %d bytes, want 1", len(out))
	}
}

func TestTranscodeTags(t *testing.T) {
	f := Transcode(Frame{Data: pcmBytes(0, 0, 0), Encoding: EncodingPCM16, SampleRate: SynthesisRate})
	if f.Encoding != EncodingMulaw {
		t.Errorf("encoding = %q, want %q", f.Encoding, EncodingMulaw)
	}
	if f.SampleRate != TelephonyRate {
		t.Errorf("sample rate = %d, want %d", f.SampleRate, TelephonyRate)
	}
	if len(f.Data) != 1 {
		t.Errorf("len = %d, want 1", len(f.Data))
	}
}

func TestStripWAVHeader(t *testing.T) {
	payload := append(make([]byte, WAVHeaderSize), 0x01, 0x02)
	stripped, ok := StripWAVHeader(payload)
	if !ok {
		t.Fatal("expected header to be stripped")
	}
	if !bytes.Equal(stripped, []byte{0x01, 0x02}) {
		t.Fatalf("got %v, want [1 2]", stripped)
	}

	short := make([]byte, WAVHeaderSize)
	if _, ok := StripWAVHeader(short); ok {
		t.Fatal("header-sized buffer should not strip")
	}
}
