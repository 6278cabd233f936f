// Package audio holds the sample-level transforms between the synthesis
// domain (16-bit linear PCM at 24 kHz) and the telephony domain (8-bit
// mu-law at 8 kHz). Everything here is pure and stateless.
package audio

// Encoding tags a byte buffer with how its samples are laid out. Buffers
// crossing component boundaries always carry their encoding so a transform's
// preconditions can be checked at the call site.
type Encoding string

const (
	// EncodingPCM16 is 16-bit little-endian signed linear PCM.
	EncodingPCM16 Encoding = "pcm_s16le"
	// EncodingMulaw is 8-bit mu-law companded audio.
	EncodingMulaw Encoding = "mulaw"
)

// Frame is a tagged audio buffer.
type Frame struct {
	Data       []byte
	Encoding   Encoding
	SampleRate int
}

const (
	// TelephonyRate is the narrowband rate Twilio media streams use.
	TelephonyRate = 8000
	// SynthesisRate is the rate the synthesis upstream produces.
	SynthesisRate = 24000
	// DecimationStride is the fixed downsampling ratio between the two.
	DecimationStride = SynthesisRate / TelephonyRate
)

const (
	mulawBias = 0x84
	mulawClip = 32635
)

// EncodeMulaw compands one 16-bit linear sample into its 8-bit mu-law code:
// bias, clip at the law's maximum magnitude, 8-segment exponent, 4-bit
// mantissa, sign bit, one's-complement output.
func EncodeMulaw(sample int16) byte {
	s := int(sample)
	sign := (s >> 8) & 0x80
	if sign != 0 {
		s = -s
	}
	if s > mulawClip {
		s = mulawClip
	}
	s += mulawBias

	exponent := 0
	switch {
	case s >= 0x4000:
		exponent = 7
	case s >= 0x2000:
		exponent = 6
	case s >= 0x1000:
		exponent = 5
	case s >= 0x0800:
		exponent = 4
	case s >= 0x0400:
		exponent = 3
	case s >= 0x0200:
		exponent = 2
	case s >= 0x0100:
		exponent = 1
	}
	mantissa := (s >> (exponent + 3)) & 0x0f
	return byte(^(sign | exponent<<4 | mantissa))
}

// DownsampleToMulaw converts a buffer of 16-bit little-endian PCM samples to
// mu-law, keeping every stride-th sample. Input that is not a whole number of
// strided samples is truncated, never padded; an odd trailing byte is
// likewise dropped.
func DownsampleToMulaw(pcm []byte, stride int) []byte {
	if stride <= 0 {
		stride = 1
	}
	n := len(pcm) / 2 / stride
	out := make([]byte, 0, n)
	step := 2 * stride
	for i := 0; i+1 < len(pcm) && len(out) < n; i += step {
		sample := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		out = append(out, EncodeMulaw(sample))
	}
	return out
}

// Transcode converts a linear-PCM frame at the synthesis rate into a mu-law
// frame at the telephony rate.
func Transcode(f Frame) Frame {
	return Frame{
		Data:       DownsampleToMulaw(f.Data, DecimationStride),
		Encoding:   EncodingMulaw,
		SampleRate: TelephonyRate,
	}
}
