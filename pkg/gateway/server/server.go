package server

import (
	"log/slog"
	"net/http"

	"github.com/youtopia/flow-gateway/pkg/gateway/config"
	"github.com/youtopia/flow-gateway/pkg/gateway/handlers"
	"github.com/youtopia/flow-gateway/pkg/gateway/live/session"
	"github.com/youtopia/flow-gateway/pkg/gateway/mw"
	"github.com/youtopia/flow-gateway/pkg/llm"
	"github.com/youtopia/flow-gateway/pkg/store"
)

// Dependencies are the injectable pieces of the gateway. Store and Generator
// are required; the upstream factories default to the real speech services.
type Dependencies struct {
	Logger    *slog.Logger
	Store     store.Store
	Generator llm.Generator

	Recognize  session.RecognizerFactory
	Synthesize session.SynthesizerFactory
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	store     store.Store
	generator llm.Generator

	recognize  session.RecognizerFactory
	synthesize session.SynthesizerFactory
}

func New(cfg config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		store:      deps.Store,
		generator:  deps.Generator,
		recognize:  deps.Recognize,
		synthesize: deps.Synthesize,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("/", handlers.UIHandler{Config: s.cfg})
	s.mux.Handle("/agent", handlers.GetAgentHandler{
		Config: s.cfg,
		Store:  s.store,
	})
	s.mux.Handle("/generate-agent", handlers.GenerateAgentHandler{
		Config:    s.cfg,
		Store:     s.store,
		Generator: s.generator,
		Logger:    s.logger,
	})
	s.mux.Handle("/save-agent", handlers.SaveAgentHandler{
		Config: s.cfg,
		Store:  s.store,
	})

	s.mux.Handle("/incoming-call", handlers.IncomingCallHandler{Config: s.cfg})
	s.mux.Handle("/media", handlers.MediaHandler{
		Config:     s.cfg,
		Store:      s.store,
		Generator:  s.generator,
		Logger:     s.logger,
		Recognize:  s.recognize,
		Synthesize: s.synthesize,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
