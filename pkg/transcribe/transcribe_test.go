package transcribe

import (
	"testing"
)

func decodeAll(t *testing.T, d decoder, msgs ...string) []Event {
	t.Helper()
	var out []Event
	for _, m := range msgs {
		events, err := d.decode([]byte(m))
		if err != nil {
			t.Fatalf("decode(%s): %v", m, err)
		}
		out = append(out, events...)
	}
	return out
}

func TestFluxDecoderMapsTurnEvents(t *testing.T) {
	events := decodeAll(t, &fluxDecoder{},
		`{"type":"Connected","request_id":"abc"}`,
		`{"type":"TurnInfo","event":"StartOfTurn","transcript":""}`,
		`{"type":"TurnInfo","event":"Update","transcript":"hel"}`,
		`{"type":"TurnInfo","event":"EagerEndOfTurn","transcript":"hello"}`,
		`{"type":"TurnInfo","event":"EndOfTurn","transcript":"hello there"}`,
	)
	want := []Event{
		{Kind: StartOfTurn},
		{Kind: Interim, Text: "hel"},
		{Kind: EndOfTurn, Text: "hello there", IsFinal: true},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestFluxDecoderRejectsMalformed(t *testing.T) {
	if _, err := (&fluxDecoder{}).decode([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed message")
	}
}

func novaResult(transcript string, isFinal, speechFinal bool) string {
	fin, sp := "false", "false"
	if isFinal {
		fin = "true"
	}
	if speechFinal {
		sp = "true"
	}
	return `{"type":"Results","is_final":` + fin + `,"speech_final":` + sp +
		`,"channel":{"alternatives":[{"transcript":"` + transcript + `"}]}}`
}

func TestNovaDecoderSynthesizesTurns(t *testing.T) {
	events := decodeAll(t, &novaDecoder{},
		novaResult("", false, false),
		novaResult("hello", false, false),
		novaResult("hello there", false, false),
		novaResult("hello there", true, false),
		novaResult("how are you", true, true),
	)
	want := []Event{
		{Kind: StartOfTurn},
		{Kind: Interim, Text: "hello"},
		{Kind: Interim, Text: "hello there"},
		{Kind: EndOfTurn, Text: "hello there how are you", IsFinal: true},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestNovaDecoderResetsBetweenTurns(t *testing.T) {
	d := &novaDecoder{}
	decodeAll(t, d,
		novaResult("first", false, false),
		novaResult("first", true, true),
	)
	events := decodeAll(t, d,
		novaResult("second", false, false),
		novaResult("second", true, true),
	)
	want := []Event{
		{Kind: StartOfTurn},
		{Kind: Interim, Text: "second"},
		{Kind: EndOfTurn, Text: "second", IsFinal: true},
	}
	if len(events) != len(want) {
		t.Fatalf("got %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestNovaDecoderEmptyEndOfTurn(t *testing.T) {
	// Endpointing can fire on silence with nothing accumulated. The event
	// still surfaces so the session can decide what to do with empty text.
	d := &novaDecoder{}
	decodeAll(t, d, novaResult("uh", false, false))
	events := decodeAll(t, d, novaResult("", true, true))
	if len(events) != 1 || events[0].Kind != EndOfTurn || events[0].Text != "" {
		t.Fatalf("got %v, want single empty EndOfTurn", events)
	}
}

func TestNovaDecoderIgnoresMetadata(t *testing.T) {
	events := decodeAll(t, &novaDecoder{}, `{"type":"Metadata","request_id":"abc"}`)
	if len(events) != 0 {
		t.Fatalf("got %v, want none", events)
	}
}

func TestParseVariant(t *testing.T) {
	cases := map[string]Variant{
		"flux":   VariantFlux,
		"nova-3": VariantNova,
		"NOVA-3": VariantNova,
		"":       VariantFlux,
		"other":  VariantFlux,
	}
	for in, want := range cases {
		if got := ParseVariant(in); got != want {
			t.Errorf("ParseVariant(%q) = %q, want %q", in, got, want)
		}
	}
}
