// Package telephony speaks the Twilio Media Streams websocket protocol: JSON
// frames carrying base64 mu-law audio at 8 kHz, addressed by the stream SID
// issued in the start frame.
package telephony

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
	EventMark  = "mark"
	EventClear = "clear"
)

// DecodeError describes a malformed inbound frame.
type DecodeError struct {
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badFrame(message, param string) *DecodeError {
	return &DecodeError{Message: message, Param: param}
}

// MediaFormat describes the audio shape announced in the start frame.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// StartPayload carries the stream identity. StreamSID is required on every
// outbound frame for the rest of the call.
type StartPayload struct {
	StreamSID   string      `json:"streamSid"`
	CallSID     string      `json:"callSid"`
	AccountSID  string      `json:"accountSid,omitempty"`
	MediaFormat MediaFormat `json:"mediaFormat"`
}

// MediaPayload carries one base64-encoded mu-law audio chunk.
type MediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// InboundFrame is one decoded caller-side event.
type InboundFrame struct {
	Event          string        `json:"event"`
	SequenceNumber string        `json:"sequenceNumber,omitempty"`
	Start          *StartPayload `json:"start,omitempty"`
	Media          *MediaPayload `json:"media,omitempty"`
}

// Audio decodes the media payload into raw mu-law bytes.
func (f InboundFrame) Audio() ([]byte, error) {
	if f.Media == nil {
		return nil, badFrame("media frame has no media object", "media")
	}
	b, err := base64.StdEncoding.DecodeString(f.Media.Payload)
	if err != nil {
		return nil, badFrame("invalid media payload base64", "media.payload")
	}
	return b, nil
}

// DecodeInbound parses one frame off the caller websocket.
func DecodeInbound(data []byte) (InboundFrame, error) {
	var f InboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return InboundFrame{}, badFrame("invalid JSON frame", "")
	}
	switch f.Event {
	case EventStart:
		if f.Start == nil || strings.TrimSpace(f.Start.StreamSID) == "" {
			return InboundFrame{}, badFrame("start frame missing streamSid", "start.streamSid")
		}
	case EventMedia:
		if f.Media == nil {
			return InboundFrame{}, badFrame("media frame missing media object", "media")
		}
	case EventStop, EventMark:
	case "connected":
		// Sent once before start; carries nothing the session needs.
	case "":
		return InboundFrame{}, badFrame("frame missing event", "event")
	}
	return f, nil
}

// MediaMessage is an outbound audio frame.
type MediaMessage struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     OutboundElem `json:"media"`
}

// OutboundElem wraps the base64 payload of an outbound media frame.
type OutboundElem struct {
	Payload string `json:"payload"`
}

// ClearMessage tells the caller-side player to drop buffered audio now.
type ClearMessage struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}

// NewMediaMessage wraps mu-law audio for the caller, tagged with the session's
// stream SID.
func NewMediaMessage(streamSID string, mulaw []byte) MediaMessage {
	return MediaMessage{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     OutboundElem{Payload: base64.StdEncoding.EncodeToString(mulaw)},
	}
}

// NewClearMessage builds the buffered-audio discard signal.
func NewClearMessage(streamSID string) ClearMessage {
	return ClearMessage{Event: EventClear, StreamSID: streamSID}
}
