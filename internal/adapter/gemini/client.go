// Package gemini adapts Google's generative-ai client to the embedder
// and completer interfaces the rest of the service consumes.
package gemini

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client wraps one genai connection serving both embeddings and chat
// completions. Model names come from config; extra options exist so
// tests can point the client at a fake endpoint.
type Client struct {
	client     *genai.Client
	chatModel  string
	embedModel string
}

func New(ctx context.Context, apiKey, chatModel, embedModel string, opts ...option.ClientOption) (*Client, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, chatModel: chatModel, embedModel: embedModel}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
