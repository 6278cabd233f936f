package handlers

import (
	"net/http"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
	"github.com/youtopia/flow-gateway/pkg/gateway/webui"
)

// UIHandler serves the agent builder page at /.
type UIHandler struct {
	Config config.Config
}

func (h UIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeNotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(webui.Render(h.Config.PhoneNumber)))
}
