package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryPutGetNormalizesNumbers(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	err := s.Put(ctx, AgentConfig{
		PhoneNumber:  "+1 (555) 010-0000",
		SystemPrompt: "You are a pirate.",
		VoiceID:      "Miles",
		Transcriber:  "nova-3",
	})
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := s.Get(ctx, "15550100000")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.SystemPrompt != "You are a pirate." || got.VoiceID != "Miles" || got.Transcriber != "nova-3" {
		t.Fatalf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemory()
	if _, err := s.Get(context.Background(), "15550100000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryPutFillsDefaults(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	if err := s.Put(ctx, AgentConfig{PhoneNumber: "15550100000"}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, err := s.Get(ctx, "15550100000")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	def := DefaultAgent("15550100000")
	if got.SystemPrompt != def.SystemPrompt || got.VoiceID != def.VoiceID || got.Transcriber != def.Transcriber {
		t.Fatalf("got %+v, want defaults", got)
	}
}

func TestNormalizeNumber(t *testing.T) {
	cases := map[string]string{
		"+1 (555) 010-0000": "15550100000",
		"15550100000":       "15550100000",
		"":                  "",
		"abc":               "",
	}
	for in, want := range cases {
		if got := NormalizeNumber(in); got != want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
