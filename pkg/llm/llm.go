// Package llm turns a finished caller utterance into the agent's next reply.
package llm

import "context"

// FallbackReply is spoken when the model returns nothing usable. A silent
// agent reads as a dead line to the caller, so some reply always goes out.
const FallbackReply = "I didn't catch that."

// BusyReply is spoken when the model request itself fails.
const BusyReply = "Thinking..."

// speechSuffix keeps replies short enough to speak without the caller
// talking over the tail of a paragraph.
const speechSuffix = " You are roleplaying. Stay in character. Keep responses very short (max 1 sentence). Be conversational and ask follow-up questions."

// BuilderPrompt turns a one-line character description into a full agent
// system prompt.
const BuilderPrompt = "Write a highly immersive system prompt for a voice AI roleplay agent based on the user's description. The prompt should instruct the AI to fully embody the character, use their mannerisms, catchphrases, and personality. Crucially, instruct the AI to talk as human as possible, using natural language, fillers (like 'umm', 'uh'), and casual phrasing where appropriate. Return ONLY the system prompt."

// SpeechPrompt adapts an agent's system prompt for live spoken turns.
func SpeechPrompt(systemPrompt string) string {
	return systemPrompt + speechSuffix
}

// Generator produces one completion. The system prompt is passed through
// verbatim; callers decorate it (SpeechPrompt, BuilderPrompt) as needed.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userText string) (string, error)
}
