package transcribe

import (
	"encoding/json"
	"fmt"
)

// fluxMessage is the turn-detection upstream's event envelope. Only TurnInfo
// messages carry turn state; everything else (Connected, Metadata) is noise
// here.
type fluxMessage struct {
	Type       string  `json:"type"`
	Event      string  `json:"event"`
	Transcript string  `json:"transcript"`
	TurnIndex  int     `json:"turn_index"`
	Confidence float64 `json:"end_of_turn_confidence"`
}

// fluxDecoder maps TurnInfo events one-to-one onto normalized events. The
// upstream does its own turn detection, so no local state is needed.
type fluxDecoder struct{}

func (d *fluxDecoder) decode(data []byte) ([]Event, error) {
	var msg fluxMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode turn event: %w", err)
	}
	if msg.Type != "TurnInfo" {
		return nil, nil
	}
	switch msg.Event {
	case "StartOfTurn":
		return []Event{{Kind: StartOfTurn}}, nil
	case "EndOfTurn":
		return []Event{{Kind: EndOfTurn, Text: msg.Transcript, IsFinal: true}}, nil
	case "Update":
		return []Event{{Kind: Interim, Text: msg.Transcript}}, nil
	default:
		// TurnResumed, EagerEndOfTurn and friends carry no state we track.
		return nil, nil
	}
}
