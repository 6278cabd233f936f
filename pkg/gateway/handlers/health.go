package handlers

import (
	"net/http"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK          bool     `json:"ok"`
		LLMProvider string   `json:"llm_provider"`
		StoreKind   string   `json:"store"`
		Issues      []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.LLMProvider {
	case config.LLMProviderOpenRouter:
		if h.Config.OpenRouterKey == "" {
			issues = append(issues, "openrouter key not configured")
		}
	case config.LLMProviderGemini:
		if h.Config.GeminiAPIKey == "" {
			issues = append(issues, "gemini key not configured")
		}
	default:
		issues = append(issues, "invalid llm_provider")
	}
	if h.Config.DeepgramAPIKey == "" {
		issues = append(issues, "deepgram key not configured")
	}
	if h.Config.MurfAPIKey == "" {
		issues = append(issues, "murf key not configured")
	}
	if h.Config.PhoneNumber == "" {
		issues = append(issues, "phone number not configured")
	}

	storeKind := "memory"
	if h.Config.DatabaseURL != "" {
		storeKind = "postgres"
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, readyResp{
		OK:          ok,
		LLMProvider: string(h.Config.LLMProvider),
		StoreKind:   storeKind,
		Issues:      issues,
	})
}
