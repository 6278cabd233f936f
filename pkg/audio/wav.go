package audio

// WAVHeaderSize is the fixed RIFF/WAVE header length the synthesis upstream
// prepends to the first chunk of a connection.
const WAVHeaderSize = 44

// StripWAVHeader removes the container header from a buffer. It reports false
// when the buffer is too small to contain one, in which case the input is
// returned unchanged.
func StripWAVHeader(b []byte) ([]byte, bool) {
	if len(b) <= WAVHeaderSize {
		return b, false
	}
	return b[WAVHeaderSize:], true
}
