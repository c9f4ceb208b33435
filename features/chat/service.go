package chat

import (
	"context"
	"fmt"

	"monksiq/backend/internal/llm"
	"monksiq/backend/internal/persona"
)

const (
	// defaultTopK is how many neighbors retrieval asks the index for
	// when the configured value is missing.
	defaultTopK = 5
	// maxContextsReturned caps ContextUsed in the response; the prompt
	// still carries every retrieved context.
	maxContextsReturned = 3
)

// Completer produces an assistant reply for a full message sequence.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float32, maxTokens int) (string, error)
}

// Retriever finds stored context for a query. Best-effort: it returns
// nothing rather than an error.
type Retriever interface {
	Retrieve(ctx context.Context, query, personaID string, topK int) []string
}

type Service struct {
	completer Completer
	retriever Retriever
	profile   persona.Profile
	topK      int
}

func NewService(completer Completer, retriever Retriever, profile persona.Profile, topK int) *Service {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Service{completer: completer, retriever: retriever, profile: profile, topK: topK}
}

// Complete answers one chat turn. When context use is enabled and the
// history holds a user message, retrieved chunks are folded into the
// leading system message before the completion call. Completion
// failure is fatal; retrieval failure only loses the augmentation.
func (s *Service) Complete(ctx context.Context, req Request) (*Result, error) {
	var contexts []string
	if req.UseContext {
		if query := lastUserMessage(req.Messages); query != "" {
			contexts = s.retriever.Retrieve(ctx, query, req.PersonaID, s.topK)
		}
	}

	messages := req.Messages
	if len(contexts) > 0 {
		messages = withSystemPrompt(messages, persona.BuildPrompt(s.profile, contexts))
	}

	reply, err := s.completer.Complete(ctx, messages, req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("completing chat: %w", err)
	}

	result := &Result{Message: reply}
	if len(contexts) > 0 {
		if len(contexts) > maxContextsReturned {
			contexts = contexts[:maxContextsReturned]
		}
		result.ContextUsed = contexts
	}
	return result, nil
}

// lastUserMessage returns the content of the most recent user turn, or
// "" when the history has none.
func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// withSystemPrompt merges prompt into an existing leading system
// message or inserts a new one at the front. The caller's slice is
// left untouched; the rest of the sequence keeps its order.
func withSystemPrompt(messages []llm.Message, prompt string) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+1)
	if len(messages) > 0 && messages[0].Role == llm.RoleSystem {
		out = append(out, llm.Message{Role: llm.RoleSystem, Content: messages[0].Content + "\n\n" + prompt})
		return append(out, messages[1:]...)
	}
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: prompt})
	return append(out, messages...)
}
