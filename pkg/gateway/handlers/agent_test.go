package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
	"github.com/youtopia/flow-gateway/pkg/store"
)

type stubGenerator struct {
	reply   string
	err     error
	gotSys  string
	gotUser string
}

func (g *stubGenerator) Generate(_ context.Context, systemPrompt, userText string) (string, error) {
	g.gotSys = systemPrompt
	g.gotUser = userText
	return g.reply, g.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateAgentSavesPrompt(t *testing.T) {
	st := store.NewMemory()
	gen := &stubGenerator{reply: "You are a friendly barista."}
	h := GenerateAgentHandler{
		Config:    config.Config{PhoneNumber: "+15550100000"},
		Store:     st,
		Generator: gen,
		Logger:    discardLogger(),
	}

	body := `{"prompt":"a barista","voiceId":"Zion","transcriber":"nova-3"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-agent", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gen.gotUser != "a barista" {
		t.Fatalf("generator user text = %q", gen.gotUser)
	}
	if !strings.Contains(gen.gotSys, "system prompt") {
		t.Fatalf("generator system prompt does not look like the builder prompt: %q", gen.gotSys)
	}

	var resp struct {
		Success      bool   `json:"success"`
		SystemPrompt string `json:"systemPrompt"`
		PhoneNumber  string `json:"phoneNumber"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Success || resp.SystemPrompt != "You are a friendly barista." {
		t.Fatalf("resp = %+v", resp)
	}

	agent, err := st.Get(context.Background(), "+15550100000")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if agent.SystemPrompt != "You are a friendly barista." || agent.VoiceID != "Zion" || agent.Transcriber != "nova-3" {
		t.Fatalf("saved agent = %+v", agent)
	}
}

func TestGenerateAgentRequiresPrompt(t *testing.T) {
	h := GenerateAgentHandler{
		Config:    config.Config{PhoneNumber: "+15550100000"},
		Store:     store.NewMemory(),
		Generator: &stubGenerator{},
		Logger:    discardLogger(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-agent", strings.NewReader(`{"prompt":"  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerateAgentUpstreamFailure(t *testing.T) {
	h := GenerateAgentHandler{
		Config:    config.Config{PhoneNumber: "+15550100000"},
		Store:     store.NewMemory(),
		Generator: &stubGenerator{err: errors.New("model offline")},
		Logger:    discardLogger(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-agent", strings.NewReader(`{"prompt":"a barista"}`)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestSaveAgentRoundTrip(t *testing.T) {
	st := store.NewMemory()
	h := SaveAgentHandler{
		Config: config.Config{PhoneNumber: "+15550100000"},
		Store:  st,
	}

	body := `{"systemPrompt":"You are a pirate.","voiceId":"Aman","transcriber":"flux"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/save-agent", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	agent, err := st.Get(context.Background(), "15550100000")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if agent.SystemPrompt != "You are a pirate." || agent.VoiceID != "Aman" {
		t.Fatalf("saved agent = %+v", agent)
	}
}

func TestSaveAgentRequiresSystemPrompt(t *testing.T) {
	h := SaveAgentHandler{
		Config: config.Config{PhoneNumber: "+15550100000"},
		Store:  store.NewMemory(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/save-agent", strings.NewReader(`{"voiceId":"Ken"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSaveAgentRejectsUnknownFields(t *testing.T) {
	h := SaveAgentHandler{
		Config: config.Config{PhoneNumber: "+15550100000"},
		Store:  store.NewMemory(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/save-agent", strings.NewReader(`{"systemPrompt":"x","bogus":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	h := GetAgentHandler{
		Config: config.Config{PhoneNumber: "+15550100000"},
		Store:  store.NewMemory(),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetAgentReturnsSaved(t *testing.T) {
	st := store.NewMemory()
	if err := st.Put(context.Background(), store.AgentConfig{
		PhoneNumber:  "+15550100000",
		SystemPrompt: "You are a pirate.",
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	h := GetAgentHandler{
		Config: config.Config{PhoneNumber: "+15550100000"},
		Store:  st,
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var agent store.AgentConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &agent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if agent.SystemPrompt != "You are a pirate." {
		t.Fatalf("agent = %+v", agent)
	}
}

func TestAgentMethodNotAllowed(t *testing.T) {
	h := SaveAgentHandler{
		Config: config.Config{PhoneNumber: "+15550100000"},
		Store:  store.NewMemory(),
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/save-agent", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
