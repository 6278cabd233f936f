package telephony

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultEarlyMediaLimit bounds how many media frames are held for replay
// before the start frame has been observed. Telephony audio cannot be
// buffered indefinitely; overflow drops oldest-first.
const DefaultEarlyMediaLimit = 32

const defaultWriteTimeout = 5 * time.Second

// Conn is the subset of *websocket.Conn the stream adapter needs. It exists
// so session tests can substitute an in-memory peer.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Stream wraps the caller-facing media socket: it captures the stream SID
// from the start frame, frames outbound audio and clear signals with it, and
// holds a bounded replay buffer for media that races ahead of start.
type Stream struct {
	conn         *connWriter
	logger       *slog.Logger
	earlyLimit   int

	mu        sync.Mutex
	streamSID string
	callSID   string
	early     [][]byte

	mediaSent int64
}

// connWriter serializes writes to the websocket; gorilla connections allow
// only one concurrent writer.
type connWriter struct {
	mu           sync.Mutex
	conn         Conn
	writeTimeout time.Duration
}

func (w *connWriter) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteJSON(v)
}

// StreamOption adjusts a Stream at construction time.
type StreamOption func(*Stream)

// WithEarlyMediaLimit overrides the pre-start replay buffer size.
func WithEarlyMediaLimit(n int) StreamOption {
	return func(s *Stream) {
		if n > 0 {
			s.earlyLimit = n
		}
	}
}

// WithWriteTimeout overrides the per-write deadline.
func WithWriteTimeout(d time.Duration) StreamOption {
	return func(s *Stream) {
		if d > 0 {
			s.conn.writeTimeout = d
		}
	}
}

// NewStream wraps a caller websocket connection.
func NewStream(conn Conn, logger *slog.Logger, opts ...StreamOption) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stream{
		conn:       &connWriter{conn: conn, writeTimeout: defaultWriteTimeout},
		logger:     logger,
		earlyLimit: DefaultEarlyMediaLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadFrame reads and decodes the next inbound frame.
func (s *Stream) ReadFrame() (InboundFrame, error) {
	for {
		_, data, err := s.conn.conn.ReadMessage()
		if err != nil {
			return InboundFrame{}, err
		}
		frame, decErr := DecodeInbound(data)
		if decErr != nil {
			// Malformed frames are dropped, not fatal to the call.
			s.logger.Warn("dropping malformed telephony frame", "error", decErr)
			continue
		}
		return frame, nil
	}
}

// HandleStart captures the stream identity and returns any media buffered
// before start, in arrival order, for replay.
func (s *Stream) HandleStart(start StartPayload) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamSID = start.StreamSID
	s.callSID = start.CallSID
	early := s.early
	s.early = nil
	return early
}

// StreamSID returns the identity captured from the start frame, empty until
// then.
func (s *Stream) StreamSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSID
}

// CallSID returns the call identity captured from the start frame.
func (s *Stream) CallSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callSID
}

// BufferEarlyMedia holds an audio chunk that arrived before the start frame.
func (s *Stream) BufferEarlyMedia(mulaw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.early) >= s.earlyLimit {
		s.early = s.early[1:]
	}
	s.early = append(s.early, mulaw)
}

// SendMedia frames a mu-law buffer with the stored stream SID and writes it
// to the caller. Audio produced before the SID is known is discarded; send
// failures are logged, never raised, per the lossy-degradation policy.
func (s *Stream) SendMedia(mulaw []byte) {
	sid := s.StreamSID()
	if sid == "" {
		s.logger.Warn("dropping outbound media: stream sid not yet known")
		return
	}
	if err := s.conn.writeJSON(NewMediaMessage(sid, mulaw)); err != nil {
		s.logger.Warn("dropping outbound media: write failed", "stream_sid", sid, "error", err)
		return
	}
	s.mediaSent++
	if s.mediaSent%200 == 1 {
		s.logger.Debug("outbound media", "stream_sid", sid, "frames_sent", s.mediaSent)
	}
}

// SendClear tells the caller-side player to discard buffered audio. Used on
// barge-in.
func (s *Stream) SendClear() {
	sid := s.StreamSID()
	if sid == "" {
		s.logger.Warn("dropping clear signal: stream sid not yet known")
		return
	}
	if err := s.conn.writeJSON(NewClearMessage(sid)); err != nil {
		s.logger.Warn("clear signal write failed", "stream_sid", sid, "error", err)
	}
}

// Close closes the caller connection.
func (s *Stream) Close() error {
	return s.conn.conn.Close()
}
