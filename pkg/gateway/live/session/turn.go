package session

import "strings"

// State is where a call currently sits in the speak/listen cycle.
type State string

const (
	// StateIdle: nobody is speaking and no reply is in flight.
	StateIdle State = "idle"
	// StateListening: the caller is mid-utterance.
	StateListening State = "listening"
	// StateGenerating: the caller finished and a reply is being generated.
	StateGenerating State = "generating"
	// StateSpeaking: the agent's reply is being synthesized and played.
	StateSpeaking State = "speaking"
)

// Action is what the orchestrator must do after feeding the machine an event.
type Action int

const (
	// ActionNone: nothing beyond the state change.
	ActionNone Action = iota
	// ActionInterrupt: the caller barged in; flush queued playback.
	ActionInterrupt
	// ActionGenerate: a finished utterance needs a reply.
	ActionGenerate
	// ActionSpeak: a reply is current and should be synthesized.
	ActionSpeak
	// ActionDiscard: a reply arrived for a turn that has since moved on.
	ActionDiscard
)

// Machine tracks turn state for one call. Each caller turn gets a sequence
// number; a generated reply only plays if its number still matches, so a
// reply that outlives its turn is dropped instead of spoken over the caller.
// Not safe for concurrent use; the session loop owns it.
type Machine struct {
	state State
	seq   int64
}

// NewMachine starts in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

func (m *Machine) State() State { return m.state }

// Seq returns the current turn sequence number.
func (m *Machine) Seq() int64 { return m.seq }

// StartOfTurn records the caller beginning to speak. Speaking becomes a
// barge-in; a turn still generating is abandoned by advancing the sequence.
func (m *Machine) StartOfTurn() Action {
	switch m.state {
	case StateSpeaking:
		m.state = StateListening
		m.seq++
		return ActionInterrupt
	case StateGenerating:
		m.state = StateListening
		m.seq++
		return ActionNone
	case StateIdle:
		m.state = StateListening
		return ActionNone
	default:
		return ActionNone
	}
}

// EndOfTurn records the caller finishing an utterance. Only a turn the
// machine saw start can finish: a duplicate or out-of-order EndOfTurn from
// the recognizer is ignored rather than generating a second reply. Empty
// transcripts happen when endpointing fires on noise; they settle back to
// idle without generating anything.
func (m *Machine) EndOfTurn(text string) (int64, Action) {
	if m.state != StateListening {
		return 0, ActionNone
	}
	if strings.TrimSpace(text) == "" {
		m.state = StateIdle
		return 0, ActionNone
	}
	m.seq++
	m.state = StateGenerating
	return m.seq, ActionGenerate
}

// ReplyReady reports whether a generated reply still belongs to the current
// turn.
func (m *Machine) ReplyReady(seq int64) Action {
	if seq != m.seq || m.state != StateGenerating {
		return ActionDiscard
	}
	m.state = StateSpeaking
	return ActionSpeak
}

// Speaking reports whether synthesized audio should be forwarded right now.
func (m *Machine) Speaking() bool { return m.state == StateSpeaking }

// SynthesisFinal records the end of the agent's utterance.
func (m *Machine) SynthesisFinal() {
	if m.state == StateSpeaking {
		m.state = StateIdle
	}
}
