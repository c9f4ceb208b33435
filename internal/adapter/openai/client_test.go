package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monksiq/backend/internal/adapter/openai"
	"monksiq/backend/internal/llm"
)

func TestClient_Embed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req["model"])
		assert.Equal(t, "hello world", req["input"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer ts.Close()

	client := openai.NewClient("test-key", ts.URL, "gpt-4o", "text-embedding-3-small")

	vec, err := client.Embed(context.Background(), "hello world")
	assert.NoError(t, err)
	if assert.Len(t, vec, 3) {
		assert.Equal(t, float32(0.2), vec[1])
	}
}

func TestClient_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model       string        `json:"model"`
			Messages    []llm.Message `json:"messages"`
			Temperature float32       `json:"temperature"`
			MaxTokens   int           `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.Equal(t, float32(0.7), req.Temperature)
		assert.Equal(t, 1000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "Hi, Doug here."}},
			},
		})
	}))
	defer ts.Close()

	client := openai.NewClient("test-key", ts.URL, "gpt-4o", "text-embedding-3-small")

	reply, err := client.Complete(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are Doug."},
		{Role: llm.RoleUser, Content: "Hi!"},
	}, 0.7, 1000)
	assert.NoError(t, err)
	assert.Equal(t, "Hi, Doug here.", reply)
}

func TestClient_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer ts.Close()

	client := openai.NewClient("test-key", ts.URL, "gpt-4o", "text-embedding-3-small")

	_, err := client.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")

	_, err = client.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, 0.7, 0)
	assert.Error(t, err)
}

func TestClient_EmptyResponses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/embeddings":
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
		case "/chat/completions":
			json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
		}
	}))
	defer ts.Close()

	client := openai.NewClient("test-key", ts.URL, "gpt-4o", "text-embedding-3-small")

	_, err := client.Embed(context.Background(), "hello")
	assert.Error(t, err)

	_, err = client.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, 0.7, 0)
	assert.Error(t, err)
}
