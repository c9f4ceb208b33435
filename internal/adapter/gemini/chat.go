package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"monksiq/backend/internal/llm"
)

// Complete runs one chat turn. A leading system message becomes the
// model's system instruction, earlier turns become chat history, and
// the final message is sent as the prompt. Gemini only knows "user"
// and "model" roles, so assistant turns are mapped to "model".
func (c *Client) Complete(ctx context.Context, messages []llm.Message, temperature float32, maxTokens int) (string, error) {
	model := c.client.GenerativeModel(c.chatModel)
	model.SetTemperature(temperature)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	rest := messages
	if len(rest) > 0 && rest[0].Role == llm.RoleSystem {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(rest[0].Content)}}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", fmt.Errorf("no message to respond to")
	}

	session := model.StartChat()
	for _, m := range rest[:len(rest)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  chatRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	res, err := session.SendMessage(ctx, genai.Text(rest[len(rest)-1].Content))
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	reply := firstText(res)
	if reply == "" {
		return "", fmt.Errorf("empty completion from model")
	}
	return reply, nil
}

func chatRole(r llm.Role) string {
	if r == llm.RoleAssistant {
		return "model"
	}
	return "user"
}

func firstText(res *genai.GenerateContentResponse) string {
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
