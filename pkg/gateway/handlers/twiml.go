package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
)

// IncomingCallHandler answers the telephony provider's call webhook with
// call-control XML that bridges the call onto the media websocket.
type IncomingCallHandler struct {
	Config config.Config
}

func (h IncomingCallHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	host := strings.TrimSpace(h.Config.PublicHost)
	if host == "" {
		host = r.Host
	}

	xml := fmt.Sprintf(`<Response>
    <Say>Connecting to Flux Agent.</Say>
    <Connect>
        <Stream url="wss://%s/media" />
    </Connect>
    <Pause length="3600" />
</Response>`, host)

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml))
}
