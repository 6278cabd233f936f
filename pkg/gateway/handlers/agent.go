package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/youtopia/flow-gateway/pkg/gateway/apierror"
	"github.com/youtopia/flow-gateway/pkg/gateway/config"
	"github.com/youtopia/flow-gateway/pkg/llm"
	"github.com/youtopia/flow-gateway/pkg/store"
)

const maxAgentBodyBytes = 64 << 10

// GenerateAgentHandler builds a full agent system prompt from a one-line
// description and saves the resulting agent for this deployment's number.
type GenerateAgentHandler struct {
	Config    config.Config
	Store     store.Store
	Generator llm.Generator
	Logger    *slog.Logger
}

func (h GenerateAgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	var body struct {
		Prompt      string `json:"prompt"`
		VoiceID     string `json:"voiceId"`
		Transcriber string `json:"transcriber"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, r, &apierror.Error{
			Type:    apierror.ErrInvalidRequest,
			Message: "prompt is required",
			Param:   "prompt",
		})
		return
	}

	systemPrompt, err := h.Generator.Generate(r.Context(), llm.BuilderPrompt, body.Prompt)
	if err != nil {
		h.Logger.Warn("agent prompt generation failed", "error", err)
		writeError(w, r, &apierror.Error{
			Type:    apierror.ErrUpstream,
			Message: "prompt generation failed",
		})
		return
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = store.DefaultAgent("").SystemPrompt
	}

	if err := h.Store.Put(r.Context(), store.AgentConfig{
		PhoneNumber:  h.Config.PhoneNumber,
		SystemPrompt: systemPrompt,
		VoiceID:      body.VoiceID,
		Transcriber:  body.Transcriber,
	}); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"systemPrompt": systemPrompt,
		"phoneNumber":  h.Config.PhoneNumber,
	})
}

// SaveAgentHandler stores a hand-edited agent as-is.
type SaveAgentHandler struct {
	Config config.Config
	Store  store.Store
}

func (h SaveAgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	var body struct {
		SystemPrompt string `json:"systemPrompt"`
		VoiceID      string `json:"voiceId"`
		Transcriber  string `json:"transcriber"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.SystemPrompt) == "" {
		writeError(w, r, &apierror.Error{
			Type:    apierror.ErrInvalidRequest,
			Message: "systemPrompt is required",
			Param:   "systemPrompt",
		})
		return
	}

	if err := h.Store.Put(r.Context(), store.AgentConfig{
		PhoneNumber:  h.Config.PhoneNumber,
		SystemPrompt: body.SystemPrompt,
		VoiceID:      body.VoiceID,
		Transcriber:  body.Transcriber,
	}); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetAgentHandler returns the saved agent for this deployment's number.
type GetAgentHandler struct {
	Config config.Config
	Store  store.Store
}

func (h GetAgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}

	agent, err := h.Store.Get(r.Context(), h.Config.PhoneNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxAgentBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &apierror.Error{
				Type:    apierror.ErrInvalidRequest,
				Message: "request body too large",
			}
		}
		return &apierror.Error{
			Type:    apierror.ErrInvalidRequest,
			Message: "invalid JSON body",
		}
	}
	return nil
}
