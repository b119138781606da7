package openai

import (
	"context"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"kebbi/internal/infra"
)

// ChatClient generates text through the chat completions API. BaseURL points
// it at OpenAI-compatible servers such as OpenRouter or Ollama.
type ChatClient struct {
	client *goopenai.Client
	model  string
	retry  infra.RetryConfig
}

type ChatOptions struct {
	APIKey   string
	BaseURL  string
	Model    string
	Referrer string
	Title    string
	Attempts int
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

func NewChatClient(opts ChatOptions) *ChatClient {
	config := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	// OpenRouter attribution headers.
	if opts.Referrer != "" || opts.Title != "" {
		h := http.Header{}
		if opts.Referrer != "" {
			h.Set("HTTP-Referer", opts.Referrer)
		}
		if opts.Title != "" {
			h.Set("X-Title", opts.Title)
		}
		config.HTTPClient = &http.Client{Transport: headerTransport{rt: http.DefaultTransport, headers: h}}
	}

	model := opts.Model
	if model == "" {
		model = goopenai.GPT4oMini
	}

	return &ChatClient{
		client: goopenai.NewClientWithConfig(config),
		model:  model,
		retry:  infra.AttemptsConfig(opts.Attempts),
	}
}

func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var resp goopenai.ChatCompletionResponse
	err := infra.WithRetry(ctx, c.retry, func() error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return fmt.Errorf("creating chat completion: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}
