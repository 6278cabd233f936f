// Package transcribe connects to the speech-recognition upstream and
// normalizes its event stream into turn boundaries. Two recognizer variants
// exist with different wire vocabularies; both produce the same Event
// sequence so nothing downstream knows which one is active.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventKind classifies a normalized transcript event.
type EventKind string

const (
	// StartOfTurn marks the caller beginning to speak.
	StartOfTurn EventKind = "start_of_turn"
	// EndOfTurn marks the caller done speaking; Text carries the utterance.
	EndOfTurn EventKind = "end_of_turn"
	// Interim carries a partial in-progress transcript.
	Interim EventKind = "interim"
)

// Event is one normalized transcript event.
type Event struct {
	Kind    EventKind
	Text    string
	IsFinal bool
}

// Variant selects which recognizer vocabulary a session uses.
type Variant string

const (
	// VariantFlux uses the turn-detection-native upstream.
	VariantFlux Variant = "flux"
	// VariantNova uses the continuous-recognition upstream with endpointing.
	VariantNova Variant = "nova-3"
)

// ParseVariant normalizes a stored transcriber name, defaulting to Flux.
func ParseVariant(s string) Variant {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(VariantNova):
		return VariantNova
	default:
		return VariantFlux
	}
}

// Recognizer is one live recognition connection. Audio goes in as raw mu-law
// bytes in arrival order; normalized events come out. The events channel
// closes when the upstream connection ends.
type Recognizer interface {
	SendAudio(mulaw []byte) error
	Events() <-chan Event
	Close() error
}

// Config describes a recognition connection.
type Config struct {
	APIKey  string
	Variant Variant
	// BaseURL overrides the upstream host, for tests. Scheme ws or wss.
	BaseURL string
	Logger  *slog.Logger
}

const defaultBaseURL = "wss://api.deepgram.com"

// Connect dials the recognition upstream for the configured variant.
func Connect(ctx context.Context, cfg Config) (Recognizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("recognition api key is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}

	var (
		wsURL string
		dec   decoder
	)
	switch cfg.Variant {
	case VariantNova:
		wsURL = base + "/v1/listen?model=nova-3&language=multi&smart_format=true&encoding=mulaw&sample_rate=8000&endpointing=300&interim_results=true"
		dec = &novaDecoder{}
	default:
		wsURL = base + "/v2/listen?model=flux-general-en&encoding=mulaw&sample_rate=8000"
		dec = &fluxDecoder{}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := map[string][]string{"Authorization": {"Token " + strings.TrimSpace(cfg.APIKey)}}
	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dial recognition upstream (%s): %w", cfg.Variant, err)
	}

	r := &recognizer{
		conn:   conn,
		dec:    dec,
		logger: cfg.Logger,
		events: make(chan Event, 64),
		closed: make(chan struct{}),
	}
	go r.readLoop()
	go r.keepAliveLoop()
	return r, nil
}

// decoder translates one upstream message into normalized events. Decoders
// may carry per-connection state (the continuous variant accumulates an
// utterance across interim results).
type decoder interface {
	decode(data []byte) ([]Event, error)
}

type recognizer struct {
	conn   *websocket.Conn
	dec    decoder
	logger *slog.Logger

	writeMu sync.Mutex
	events  chan Event

	closed    chan struct{}
	closeOnce sync.Once
}

func (r *recognizer) SendAudio(mulaw []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.conn.WriteMessage(websocket.BinaryMessage, mulaw); err != nil {
		return fmt.Errorf("forward audio to recognizer: %w", err)
	}
	return nil
}

func (r *recognizer) Events() <-chan Event {
	return r.events
}

func (r *recognizer) Close() error {
	r.closeOnce.Do(func() {
		close(r.closed)
		_ = r.conn.Close()
	})
	return nil
}

func (r *recognizer) readLoop() {
	defer close(r.events)
	for {
		msgType, data, err := r.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Warn("recognition upstream closed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		events, decErr := r.dec.decode(data)
		if decErr != nil {
			// One malformed message never kills the connection.
			r.logger.Warn("discarding malformed recognition message", "error", decErr)
			continue
		}
		for _, ev := range events {
			select {
			case r.events <- ev:
			case <-r.closed:
				return
			}
		}
	}
}

// keepAliveLoop keeps the upstream from idling out between caller turns.
func (r *recognizer) keepAliveLoop() {
	ticker := time.NewTicker(8 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.closed:
			return
		case <-ticker.C:
			r.writeMu.Lock()
			err := r.conn.WriteJSON(struct {
				Type string `json:"type"`
			}{Type: "KeepAlive"})
			r.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
