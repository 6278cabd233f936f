package transcribe

import (
	"encoding/json"
	"fmt"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
)

// novaDecoder adapts the continuous-recognition result stream to turn events.
// The upstream has no native turn concept: a start-of-turn is synthesized from
// the first non-empty interim of a new utterance, and end-of-turn from a
// result the upstream's endpointing flags as speech_final. Finalized segments
// accumulate so the end-of-turn event carries the whole utterance.
type novaDecoder struct {
	open     bool
	segments []string
}

func (d *novaDecoder) decode(data []byte) ([]Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode recognition envelope: %w", err)
	}
	if api.TypeResponse(envelope.Type) != api.TypeMessageResponse {
		return nil, nil
	}

	var msg api.MessageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode recognition result: %w", err)
	}
	var transcript string
	if len(msg.Channel.Alternatives) > 0 {
		transcript = strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
	}

	var events []Event
	if !d.open && transcript != "" {
		d.open = true
		events = append(events, Event{Kind: StartOfTurn})
	}

	switch {
	case msg.IsFinal:
		if transcript != "" {
			d.segments = append(d.segments, transcript)
		}
		if msg.SpeechFinal {
			full := strings.Join(d.segments, " ")
			d.segments = nil
			d.open = false
			events = append(events, Event{Kind: EndOfTurn, Text: full, IsFinal: true})
		}
	case transcript != "":
		events = append(events, Event{Kind: Interim, Text: transcript})
	}
	return events, nil
}
