package synth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/youtopia/flow-gateway/pkg/audio"
)

const defaultMurfWSBase = "wss://global.api.murf.ai/v1/speech/stream-input"

// MurfConfig describes a synthesis connection. The upstream authenticates via
// an api-key query parameter rather than a header.
type MurfConfig struct {
	APIKey  string
	VoiceID string
	// BaseWSURL overrides the upstream endpoint, for tests.
	BaseWSURL string
	Logger    *slog.Logger
}

type murfConn struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	errMu   sync.Mutex

	chunks    chan Chunk
	closed    chan struct{}
	closeOnce sync.Once

	// The first audio chunk of a connection arrives wrapped in a WAV
	// container header that must not reach the caller.
	strippedHeader bool

	lastServerError string
	lastClose       string
}

// NewMurfConn dials the synthesis upstream and sends the voice configuration
// frame the protocol requires before any text.
func NewMurfConn(ctx context.Context, cfg MurfConfig) (Synthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("murf api key is required")
	}
	voiceID := strings.TrimSpace(cfg.VoiceID)
	if voiceID == "" {
		return nil, fmt.Errorf("murf voice id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	wsURL, err := buildMurfWSURL(strings.TrimSpace(cfg.BaseWSURL), strings.TrimSpace(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial synthesis upstream: %w", err)
	}
	c := &murfConn{
		conn:   conn,
		logger: cfg.Logger,
		chunks: make(chan Chunk, 256),
		closed: make(chan struct{}),
	}
	go c.readLoop()

	if err := c.writeJSON(ctx, voiceConfigMessage(voiceID)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("send voice config: %w", err)
	}
	return c, nil
}

// Speak submits one complete reply for synthesis. end signals the upstream to
// flush the whole utterance rather than wait for more text.
func (c *murfConn) Speak(ctx context.Context, text string) error {
	return c.writeJSON(ctx, map[string]any{
		"text": text,
		"end":  true,
	})
}

func (c *murfConn) Chunks() <-chan Chunk {
	if c == nil {
		ch := make(chan Chunk)
		close(ch)
		return ch
	}
	return c.chunks
}

func (c *murfConn) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		close(c.closed)
		c.setLastClose("closed")
		_ = c.conn.Close()
	})
	return nil
}

func (c *murfConn) readLoop() {
	defer close(c.chunks)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.setLastClose(fmt.Sprintf("code=%d msg=%s", closeErr.Code, strings.TrimSpace(closeErr.Text)))
			} else {
				c.setLastClose(strings.TrimSpace(err.Error()))
			}
			return
		}

		var msg struct {
			Audio   string          `json:"audio"`
			Final   bool            `json:"final"`
			IsFinal bool            `json:"isFinal"`
			Status  string          `json:"status"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if len(msg.Error) > 0 && string(msg.Error) != "null" {
			c.setLastServerError(string(msg.Error))
			c.logger.Warn("synthesis upstream error", "error", string(msg.Error))
		}

		var pcm []byte
		if msg.Audio != "" {
			pcm, err = base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				c.setLastServerError("invalid audio base64")
				pcm = nil
			}
		}
		if !c.strippedHeader && len(pcm) > 0 {
			stripped, ok := audio.StripWAVHeader(pcm)
			if !ok {
				// Too small to carry the header and samples; wait for
				// a fuller first chunk.
				continue
			}
			pcm = stripped
			c.strippedHeader = true
		}

		final := msg.Final || msg.IsFinal
		if len(pcm) == 0 && !final {
			continue
		}
		select {
		case c.chunks <- Chunk{Audio: pcm, Final: final}:
		case <-c.closed:
			return
		}
	}
}

func (c *murfConn) writeJSON(ctx context.Context, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	}
	if err := c.conn.WriteJSON(payload); err != nil {
		reason := strings.TrimSpace(c.failureReason())
		if reason == "" {
			return err
		}
		return fmt.Errorf("%w (murf %s)", err, reason)
	}
	return nil
}

// voiceConfigMessage is the mandatory first frame of a synthesis connection.
func voiceConfigMessage(voiceID string) map[string]any {
	locale := "en-US"
	if voiceID == "Aman" {
		locale = "hi-IN"
	}
	return map[string]any{
		"voice_config": map[string]any{
			"voiceId":           voiceID,
			"multiNativeLocale": locale,
			"style":             "Conversation",
			"rate":              0,
			"pitch":             0,
			"variation":         1,
		},
	}
}

func buildMurfWSURL(base, apiKey string) (string, error) {
	if base == "" {
		base = defaultMurfWSBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid murf ws base url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("api-key", apiKey)
	if q.Get("model") == "" {
		q.Set("model", "FALCON")
	}
	if q.Get("sample_rate") == "" {
		q.Set("sample_rate", "24000")
	}
	if q.Get("format") == "" {
		q.Set("format", "WAV")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *murfConn) setLastServerError(msg string) {
	msg = collapseWhitespace(msg)
	if msg == "" {
		return
	}
	c.errMu.Lock()
	c.lastServerError = msg
	c.errMu.Unlock()
}

func (c *murfConn) setLastClose(msg string) {
	msg = collapseWhitespace(msg)
	if msg == "" {
		return
	}
	c.errMu.Lock()
	c.lastClose = msg
	c.errMu.Unlock()
}

func (c *murfConn) failureReason() string {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	parts := make([]string, 0, 2)
	if c.lastServerError != "" {
		parts = append(parts, "server_error="+c.lastServerError)
	}
	if c.lastClose != "" {
		parts = append(parts, "close="+c.lastClose)
	}
	return strings.Join(parts, " ")
}

func collapseWhitespace(s string) string {
	s = strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
	if len(s) > 300 {
		s = s[:300] + "…"
	}
	return s
}
