package chat

import "monksiq/backend/internal/llm"

// Request is one chat turn with its generation settings.
type Request struct {
	Messages    []llm.Message
	PersonaID   string
	UseContext  bool
	Temperature float32
	MaxTokens   int
}

// Result is the assistant reply plus the contexts surfaced to the
// caller for transparency. ContextUsed is nil when retrieval found
// nothing or was disabled.
type Result struct {
	Message     string
	ContextUsed []string
}
