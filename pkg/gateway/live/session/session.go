// Package session orchestrates one phone call: caller audio in, recognized
// turns through the reply generator, synthesized audio back out. A single
// goroutine owns all call state; upstream connections feed it over channels.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/youtopia/flow-gateway/pkg/audio"
	"github.com/youtopia/flow-gateway/pkg/llm"
	"github.com/youtopia/flow-gateway/pkg/store"
	"github.com/youtopia/flow-gateway/pkg/synth"
	"github.com/youtopia/flow-gateway/pkg/telephony"
	"github.com/youtopia/flow-gateway/pkg/transcribe"
)

// RecognizerFactory opens a recognition connection. Swappable in tests.
type RecognizerFactory func(ctx context.Context, cfg transcribe.Config) (transcribe.Recognizer, error)

// SynthesizerFactory opens a synthesis connection. Swappable in tests.
type SynthesizerFactory func(ctx context.Context, cfg synth.MurfConfig) (synth.Synthesizer, error)

// Config carries the per-deployment knobs a session needs.
type Config struct {
	DeepgramAPIKey  string
	MurfAPIKey      string
	DeepgramBaseURL string
	MurfBaseWSURL   string

	// PhoneNumber keys the agent lookup for inbound calls.
	PhoneNumber string

	EarlyMediaLimit int
	WriteTimeout    time.Duration
	GenerateTimeout time.Duration
}

// Dependencies wires a session together.
type Dependencies struct {
	Conn       telephony.Conn
	Logger     *slog.Logger
	Store      store.Store
	Generator  llm.Generator
	Recognize  RecognizerFactory
	Synthesize SynthesizerFactory
	Config     Config
	SessionID  string
}

// Session runs one call end to end.
type Session struct {
	stream    *telephony.Stream
	logger    *slog.Logger
	store     store.Store
	generator llm.Generator
	recognize RecognizerFactory
	synthOpen SynthesizerFactory
	cfg       Config
	sessionID string

	machine *Machine

	ctx    context.Context
	cancel context.CancelFunc
}

type readResult struct {
	frame telephony.InboundFrame
	err   error
}

type upstreams struct {
	agent      store.AgentConfig
	recognizer transcribe.Recognizer
	synth      synth.Synthesizer
	err        error
}

type reply struct {
	seq  int64
	text string
}

// New validates dependencies and builds a session.
func New(deps Dependencies) (*Session, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("agent store is required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("reply generator is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recognize == nil {
		deps.Recognize = transcribe.Connect
	}
	if deps.Synthesize == nil {
		deps.Synthesize = synth.NewMurfConn
	}
	if deps.Config.EarlyMediaLimit <= 0 {
		deps.Config.EarlyMediaLimit = telephony.DefaultEarlyMediaLimit
	}
	if deps.Config.GenerateTimeout <= 0 {
		deps.Config.GenerateTimeout = 15 * time.Second
	}

	streamOpts := []telephony.StreamOption{telephony.WithEarlyMediaLimit(deps.Config.EarlyMediaLimit)}
	if deps.Config.WriteTimeout > 0 {
		streamOpts = append(streamOpts, telephony.WithWriteTimeout(deps.Config.WriteTimeout))
	}
	logger := deps.Logger.With("session_id", deps.SessionID)

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		stream:    telephony.NewStream(deps.Conn, logger, streamOpts...),
		logger:    logger,
		store:     deps.Store,
		generator: deps.Generator,
		recognize: deps.Recognize,
		synthOpen: deps.Synthesize,
		cfg:       deps.Config,
		sessionID: deps.SessionID,
		machine:   NewMachine(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Run drives the call until the caller hangs up or the transport fails.
// The read goroutine starts before any upstream dialing so the start frame
// is never missed while connections are in flight.
func (s *Session) Run() error {
	defer s.cancel()
	defer s.stream.Close()

	readCh := make(chan readResult, 64)
	go func() {
		defer close(readCh)
		for {
			frame, err := s.stream.ReadFrame()
			select {
			case readCh <- readResult{frame: frame, err: err}:
			case <-s.ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	connectCh := make(chan upstreams, 1)
	replyCh := make(chan reply, 4)

	var (
		agent       store.AgentConfig
		recognizer  transcribe.Recognizer
		synthConn   synth.Synthesizer
		recogEvents <-chan transcribe.Event
		synthChunks <-chan synth.Chunk

		started     bool
		pending     [][]byte
		audioFrames int64
	)
	defer func() {
		if recognizer != nil {
			_ = recognizer.Close()
		}
		if synthConn != nil {
			_ = synthConn.Close()
		}
	}()

	forwardAudio := func(mulaw []byte) {
		audioFrames++
		if recognizer == nil {
			// Upstreams are still connecting; hold a bounded window.
			if len(pending) >= s.cfg.EarlyMediaLimit {
				pending = pending[1:]
			}
			pending = append(pending, mulaw)
			return
		}
		if err := recognizer.SendAudio(mulaw); err != nil {
			s.logger.Warn("dropping caller audio: recognizer write failed", "error", err)
		}
	}

	for {
		select {
		case <-s.ctx.Done():
			return nil

		case res, ok := <-readCh:
			if !ok {
				return nil
			}
			if res.err != nil {
				s.logger.Info("caller connection closed", "error", res.err, "audio_frames", audioFrames)
				return nil
			}
			switch res.frame.Event {
			case telephony.EventStart:
				if started {
					continue
				}
				started = true
				early := s.stream.HandleStart(*res.frame.Start)
				for _, buf := range early {
					forwardAudio(buf)
				}
				s.logger.Info("call started",
					"stream_sid", s.stream.StreamSID(),
					"call_sid", s.stream.CallSID(),
				)
				go s.connectUpstreams(connectCh)
			case telephony.EventMedia:
				buf, err := res.frame.Audio()
				if err != nil {
					s.logger.Warn("dropping media frame: bad payload", "error", err)
					continue
				}
				if !started {
					s.stream.BufferEarlyMedia(buf)
					continue
				}
				forwardAudio(buf)
			case telephony.EventStop:
				s.logger.Info("call ended", "audio_frames", audioFrames)
				return nil
			}

		case up := <-connectCh:
			if up.err != nil {
				s.logger.Error("upstream connect failed", "error", up.err)
				return up.err
			}
			agent = up.agent
			recognizer = up.recognizer
			synthConn = up.synth
			recogEvents = recognizer.Events()
			synthChunks = synthConn.Chunks()
			for _, buf := range pending {
				if err := recognizer.SendAudio(buf); err != nil {
					s.logger.Warn("dropping buffered caller audio", "error", err)
					break
				}
			}
			pending = nil
			s.logger.Info("upstreams connected",
				"voice_id", agent.VoiceID,
				"transcriber", agent.Transcriber,
			)

		case ev, ok := <-recogEvents:
			if !ok {
				s.logger.Warn("recognition upstream closed, ending call")
				return nil
			}
			switch ev.Kind {
			case transcribe.StartOfTurn:
				if s.machine.StartOfTurn() == ActionInterrupt {
					s.logger.Info("caller barge-in, flushing playback")
					s.stream.SendClear()
				}
			case transcribe.EndOfTurn:
				seq, action := s.machine.EndOfTurn(ev.Text)
				if action != ActionGenerate {
					continue
				}
				s.logger.Info("caller turn final", "text", ev.Text, "turn", seq)
				go s.generate(seq, agent.SystemPrompt, ev.Text, replyCh)
			case transcribe.Interim:
				s.logger.Debug("interim transcript", "text", ev.Text)
			}

		case r := <-replyCh:
			if s.machine.ReplyReady(r.seq) != ActionSpeak {
				s.logger.Info("discarding reply for superseded turn", "turn", r.seq)
				continue
			}
			s.logger.Info("agent reply", "text", r.text, "turn", r.seq)
			if err := synthConn.Speak(s.ctx, r.text); err != nil {
				s.logger.Warn("synthesis request failed", "error", err)
				s.machine.SynthesisFinal()
			}

		case chunk, ok := <-synthChunks:
			if !ok {
				s.logger.Warn("synthesis upstream closed, ending call")
				return nil
			}
			if !s.machine.Speaking() {
				// Late audio from an interrupted reply.
				continue
			}
			if len(chunk.Audio) > 0 {
				out := audio.Transcode(audio.Frame{
					Data:       chunk.Audio,
					Encoding:   audio.EncodingPCM16,
					SampleRate: audio.SynthesisRate,
				})
				if len(out.Data) > 0 {
					s.stream.SendMedia(out.Data)
				}
			}
			if chunk.Final {
				s.machine.SynthesisFinal()
			}
		}
	}
}

// connectUpstreams loads the agent and dials both media upstreams off the
// session goroutine so inbound frames keep draining meanwhile.
func (s *Session) connectUpstreams(out chan<- upstreams) {
	agent, err := s.store.Get(s.ctx, s.cfg.PhoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if s.cfg.PhoneNumber != "" {
				s.logger.Warn("no agent saved for number, using default", "phone_number", s.cfg.PhoneNumber)
			}
		} else {
			s.logger.Error("agent store lookup failed, using default", "phone_number", s.cfg.PhoneNumber, "error", err)
		}
		agent = store.DefaultAgent(s.cfg.PhoneNumber)
	}

	recognizer, err := s.recognize(s.ctx, transcribe.Config{
		APIKey:  s.cfg.DeepgramAPIKey,
		Variant: transcribe.ParseVariant(agent.Transcriber),
		BaseURL: s.cfg.DeepgramBaseURL,
		Logger:  s.logger,
	})
	if err != nil {
		s.deliver(out, upstreams{err: fmt.Errorf("connect recognizer: %w", err)})
		return
	}

	synthConn, err := s.synthOpen(s.ctx, synth.MurfConfig{
		APIKey:    s.cfg.MurfAPIKey,
		VoiceID:   agent.VoiceID,
		BaseWSURL: s.cfg.MurfBaseWSURL,
		Logger:    s.logger,
	})
	if err != nil {
		_ = recognizer.Close()
		s.deliver(out, upstreams{err: fmt.Errorf("connect synthesizer: %w", err)})
		return
	}

	s.deliver(out, upstreams{agent: agent, recognizer: recognizer, synth: synthConn})
}

func (s *Session) deliver(out chan<- upstreams, up upstreams) {
	select {
	case out <- up:
	case <-s.ctx.Done():
		if up.recognizer != nil {
			_ = up.recognizer.Close()
		}
		if up.synth != nil {
			_ = up.synth.Close()
		}
	}
}

// generate produces the reply for one turn. Failures degrade to a spoken
// holding line rather than silence.
func (s *Session) generate(seq int64, systemPrompt, userText string, out chan<- reply) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.GenerateTimeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, llm.SpeechPrompt(systemPrompt), userText)
	if err != nil {
		s.logger.Warn("reply generation failed", "error", err, "turn", seq)
		text = llm.BusyReply
	}
	if strings.TrimSpace(text) == "" {
		text = llm.FallbackReply
	}
	select {
	case out <- reply{seq: seq, text: text}:
	case <-s.ctx.Done():
	}
}
