package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
	"github.com/youtopia/flow-gateway/pkg/gateway/live/session"
	"github.com/youtopia/flow-gateway/pkg/llm"
	"github.com/youtopia/flow-gateway/pkg/store"
)

// MediaHandler upgrades the telephony media websocket and runs a call
// session on it.
type MediaHandler struct {
	Config    config.Config
	Store     store.Store
	Generator llm.Generator
	Logger    *slog.Logger

	// Factory overrides for tests; nil means the real upstreams.
	Recognize  session.RecognizerFactory
	Synthesize session.SynthesizerFactory
}

func (h MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	// The telephony provider sends no Origin worth checking.
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := "call_" + randHex(8)
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sess, err := session.New(session.Dependencies{
		Conn:       conn,
		Logger:     logger,
		Store:      h.Store,
		Generator:  h.Generator,
		Recognize:  h.Recognize,
		Synthesize: h.Synthesize,
		SessionID:  sessionID,
		Config: session.Config{
			DeepgramAPIKey:  h.Config.DeepgramAPIKey,
			MurfAPIKey:      h.Config.MurfAPIKey,
			DeepgramBaseURL: h.Config.DeepgramBaseURL,
			MurfBaseWSURL:   h.Config.MurfWSBaseURL,
			PhoneNumber:     h.Config.PhoneNumber,
			EarlyMediaLimit: h.Config.EarlyMediaFrames,
			WriteTimeout:    h.Config.WSWriteTimeout,
			GenerateTimeout: h.Config.GenerateTimeout,
		},
	})
	if err != nil {
		logger.Error("session setup failed", "session_id", sessionID, "error", err)
		return
	}
	if err := sess.Run(); err != nil {
		logger.Error("session ended with error", "session_id", sessionID, "error", err)
	}
}

func randHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
