package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/rebuttal-assistant/internal/infrastructure/resilience"
)

// Client talks to a local Ollama server over its HTTP API. Generation uses
// /api/chat so the system prompt travels as a proper system message;
// embeddings use /api/embed.
type Client struct {
	baseURL     string
	chatModel   string
	embedModel  string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	MaxTokens          int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, chatModel, embedModel string, temperature float64) *Client {
	return NewWithOptions(baseURL, chatModel, embedModel, temperature, Options{})
}

func NewWithOptions(baseURL, chatModel, embedModel string, temperature float64, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		chatModel:   chatModel,
		embedModel:  embedModel,
		temperature: temperature,
		maxTokens:   options.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Generator adapts the client to the text-generation port.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	options := map[string]any{"temperature": g.client.temperature}
	if g.client.maxTokens > 0 {
		options["num_predict"] = g.client.maxTokens
	}

	request := chatRequest{
		Model: g.client.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Options: options,
	}

	var response chatResponse
	if err := g.client.call(ctx, "ollama.chat", "/api/chat", request, &response); err != nil {
		return "", wrapGenerateError("chat completion", err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}

// Embedder adapts the client to the embedding port.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "ollama.embed", "/api/embed", request, &response); err != nil {
		return nil, wrapEmbedError("embed texts", err)
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, wrapEmbedError("embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}
	if c.executor != nil {
		return c.executor.Execute(ctx, operation, call, classifyOllamaError)
	}
	return call(ctx)
}
